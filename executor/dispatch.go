package executor

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/alexchoi0/blueprint/eventsource"
	"github.com/alexchoi0/blueprint/internal/blueperr"
	"github.com/alexchoi0/blueprint/plan"
	"github.com/alexchoi0/blueprint/value"
)

// execNode resolves a ready node's args and drives it to a terminal state.
// It is only ever called for non-combinator nodes: gather/any/at_least/
// at_most finish through compose.go's cascade and never reach here.
func (s *scheduler) execNode(ctx context.Context, id plan.NodeID) {
	node := s.plan.NodeByID(id)
	args := s.resolve(node.Args)

	result, err := s.dispatchKind(ctx, node, args)
	if err != nil {
		if ctx.Err() != nil {
			s.finish(id, statusCancelled, value.Null(), &blueperr.Cancelled{NodeID: uint64(id)})
			return
		}
		s.finish(id, statusFailed, value.Null(), blueperr.NewOperationError(uint64(id), node.Kind.String(), err))
		return
	}
	select {
	case <-ctx.Done():
		s.finish(id, statusCancelled, value.Null(), &blueperr.Cancelled{NodeID: uint64(id)})
	default:
		s.finish(id, statusSucceeded, result, nil)
	}
}

func (s *scheduler) dispatchKind(ctx context.Context, node *plan.Node, args value.Value) (value.Value, error) {
	switch node.Kind {
	case plan.KindAfter:
		// after's result is y's resolved value; sequencing is already
		// enforced by the order_dep on x through the generic readiness
		// path, so there is nothing left to drive here.
		return args.AsStruct()["y"], nil

	case plan.KindReadFile:
		content, err := s.drivers.File.ReadFile(ctx, fields(args)["path"].AsString())
		if err != nil {
			return value.Null(), err
		}
		return value.String(content), nil
	case plan.KindWriteFile:
		f := fields(args)
		return value.Null(), s.drivers.File.WriteFile(ctx, f["path"].AsString(), f["content"].AsString())
	case plan.KindAppendFile:
		f := fields(args)
		return value.Null(), s.drivers.File.AppendFile(ctx, f["path"].AsString(), f["content"].AsString())
	case plan.KindDeleteFile:
		return value.Null(), s.drivers.File.DeleteFile(ctx, fields(args)["path"].AsString())
	case plan.KindFileExists:
		ok, err := s.drivers.File.FileExists(ctx, fields(args)["path"].AsString())
		return value.Bool(ok), err
	case plan.KindIsFile:
		ok, err := s.drivers.File.IsFile(ctx, fields(args)["path"].AsString())
		return value.Bool(ok), err
	case plan.KindIsDir:
		ok, err := s.drivers.File.IsDir(ctx, fields(args)["path"].AsString())
		return value.Bool(ok), err
	case plan.KindMkdir:
		f := fields(args)
		return value.Null(), s.drivers.File.Mkdir(ctx, f["path"].AsString(), asBool(f["recursive"]))
	case plan.KindRmdir:
		f := fields(args)
		return value.Null(), s.drivers.File.Rmdir(ctx, f["path"].AsString(), asBool(f["recursive"]))
	case plan.KindListDir:
		entries, err := s.drivers.File.ListDir(ctx, fields(args)["path"].AsString())
		if err != nil {
			return value.Null(), err
		}
		items := make([]value.Value, len(entries))
		for i, e := range entries {
			items[i] = value.String(e)
		}
		return value.List(items...), nil
	case plan.KindCopyFile:
		f := fields(args)
		return value.Null(), s.drivers.File.CopyFile(ctx, f["from"].AsString(), f["to"].AsString())
	case plan.KindMoveFile:
		f := fields(args)
		return value.Null(), s.drivers.File.MoveFile(ctx, f["from"].AsString(), f["to"].AsString())
	case plan.KindFileSize:
		n, err := s.drivers.File.FileSize(ctx, fields(args)["path"].AsString())
		return value.Int(n), err

	case plan.KindHTTPRequest:
		f := fields(args)
		var body []byte
		if f["body"].Kind() != value.KindNull {
			body = []byte(f["body"].AsString())
		}
		var headers map[string]string
		if f["headers"].Kind() == value.KindMap {
			headers = make(map[string]string, len(f["headers"].AsMap()))
			for k, v := range f["headers"].AsMap() {
				headers[k] = v.AsString()
			}
		}
		status, respHeaders, respBody, err := s.drivers.HTTP.Do(ctx, f["method"].AsString(), f["url"].AsString(), body, headers)
		if err != nil {
			return value.Null(), err
		}
		hv := make(map[string]value.Value, len(respHeaders))
		for k, v := range respHeaders {
			hv[k] = value.String(v)
		}
		return value.Struct(map[string]value.Value{
			"status":  value.Int(int64(status)),
			"headers": value.Map(hv),
			"body":    value.String(respBody),
		}), nil

	case plan.KindExec:
		f := fields(args)
		argv := make([]string, 0, len(f["argv"].AsList()))
		for _, v := range f["argv"].AsList() {
			argv = append(argv, v.AsString())
		}
		var cwd string
		if f["cwd"].Kind() == value.KindString {
			cwd = f["cwd"].AsString()
		}
		var env map[string]string
		if f["env"].Kind() == value.KindMap {
			env = make(map[string]string, len(f["env"].AsMap()))
			for k, v := range f["env"].AsMap() {
				env[k] = v.AsString()
			}
		}
		code, stdout, stderr, err := s.drivers.Process.Exec(ctx, argv, cwd, env)
		if err != nil {
			return value.Null(), err
		}
		return value.Struct(map[string]value.Value{
			"code":   value.Int(int64(code)),
			"stdout": value.String(stdout),
			"stderr": value.String(stderr),
		}), nil
	case plan.KindEnvGet:
		f := fields(args)
		v, ok := s.drivers.Process.EnvGet(f["name"].AsString())
		if !ok {
			return f["default"], nil
		}
		return value.String(v), nil

	case plan.KindSleep:
		seconds := fields(args)["seconds"].AsFloat()
		if err := s.drivers.Timer.Sleep(ctx, seconds); err != nil {
			return value.Null(), err
		}
		return value.Null(), nil
	case plan.KindNow:
		return value.Float(s.drivers.Timer.Now()), nil

	case plan.KindJSONEncode:
		return jsonEncode(fields(args)["value"])
	case plan.KindJSONDecode:
		f := fields(args)
		return jsonDecode(f["string"].AsString(), f["schema"])

	case plan.KindStdout, plan.KindStderr:
		return value.Null(), s.writeConsole(node.Kind, args)

	case plan.KindEventSource:
		f := fields(args)
		h, err := s.drivers.EventSource.Open(ctx, f["kind"].AsString(), f["params"])
		if err != nil {
			return value.Null(), err
		}
		return value.String(h.String()), nil
	case plan.KindEventWrite:
		f := fields(args)
		h, err := parseHandle(f["handle"])
		if err != nil {
			return value.Null(), err
		}
		n, err := s.drivers.EventSource.Write(ctx, h, dataBytes(f["data"]), f["dest"])
		return value.Int(int64(n)), err
	case plan.KindEventPoll:
		f := fields(args)
		var handles []eventsource.Handle
		for _, hv := range f["handles"].AsList() {
			h, err := parseHandle(hv)
			if err != nil {
				return value.Null(), err
			}
			handles = append(handles, h)
		}
		return s.drivers.EventSource.Poll(ctx, handles, f["timeout_ms"].AsFloat())
	case plan.KindEventSourceClose:
		f := fields(args)
		h, err := parseHandle(f["handle"])
		if err != nil {
			return value.Null(), err
		}
		return value.Null(), s.drivers.EventSource.Close(ctx, h)

	case plan.KindAdd, plan.KindSub, plan.KindMul, plan.KindDiv, plan.KindFloorDiv, plan.KindMod,
		plan.KindNeg, plan.KindEq, plan.KindNe, plan.KindLt, plan.KindLe, plan.KindGt, plan.KindGe,
		plan.KindNot, plan.KindConcat, plan.KindContains, plan.KindToBool, plan.KindToInt,
		plan.KindToFloat, plan.KindToStr, plan.KindLen:
		return s.drivers.Compute.Eval(node.Kind, args.AsList())

	default:
		return value.Null(), fmt.Errorf("no driver for node kind %s", node.Kind)
	}
}

func fields(v value.Value) map[string]value.Value {
	if v.Kind() != value.KindStruct {
		return map[string]value.Value{}
	}
	return v.AsStruct()
}

func asBool(v value.Value) bool {
	return v.Kind() == value.KindBool && v.AsBool()
}

func dataBytes(v value.Value) []byte {
	switch v.Kind() {
	case value.KindBytes:
		return v.AsBytes()
	case value.KindString:
		return []byte(v.AsString())
	default:
		return nil
	}
}

func parseHandle(v value.Value) (eventsource.Handle, error) {
	return eventsource.ParseHandle(v.AsString())
}

func (s *scheduler) writeConsole(kind plan.NodeKind, args value.Value) error {
	parts := make([]string, 0)
	if args.Kind() == value.KindList {
		for _, v := range args.AsList() {
			parts = append(parts, stringify(v))
		}
	}
	w := s.cfg.stdout()
	if kind == plan.KindStderr {
		w = s.cfg.stderr()
	}
	line := ""
	for i, p := range parts {
		if i > 0 {
			line += " "
		}
		line += p
	}
	_, err := fmt.Fprintln(w, line)
	return err
}

func stringify(v value.Value) string {
	switch v.Kind() {
	case value.KindString:
		return v.AsString()
	case value.KindInt:
		return fmt.Sprintf("%d", v.AsInt())
	case value.KindFloat:
		return fmt.Sprintf("%g", v.AsFloat())
	case value.KindBool:
		return fmt.Sprintf("%t", v.AsBool())
	case value.KindNull:
		return "null"
	default:
		return fmt.Sprintf("%v", v)
	}
}

func jsonEncode(v value.Value) (value.Value, error) {
	native := toNative(v)
	b, err := json.Marshal(native)
	if err != nil {
		return value.Null(), err
	}
	return value.String(string(b)), nil
}

func jsonDecode(s string, schema value.Value) (value.Value, error) {
	var native interface{}
	if err := json.Unmarshal([]byte(s), &native); err != nil {
		return value.Null(), err
	}
	if schema.Kind() == value.KindString && schema.AsString() != "" {
		compiled, err := jsonschema.CompileString("json_decode.json", schema.AsString())
		if err != nil {
			return value.Null(), fmt.Errorf("json_decode: compiling schema: %w", err)
		}
		if err := compiled.Validate(native); err != nil {
			return value.Null(), fmt.Errorf("json_decode: result does not conform to schema: %w", err)
		}
	}
	return fromNative(native), nil
}

func toNative(v value.Value) interface{} {
	switch v.Kind() {
	case value.KindNull:
		return nil
	case value.KindBool:
		return v.AsBool()
	case value.KindInt:
		return v.AsInt()
	case value.KindFloat:
		return v.AsFloat()
	case value.KindString:
		return v.AsString()
	case value.KindBytes:
		return v.AsBytes()
	case value.KindList:
		items := v.AsList()
		out := make([]interface{}, len(items))
		for i, item := range items {
			out[i] = toNative(item)
		}
		return out
	case value.KindMap:
		m := v.AsMap()
		out := make(map[string]interface{}, len(m))
		for k, item := range m {
			out[k] = toNative(item)
		}
		return out
	case value.KindStruct:
		m := v.AsStruct()
		out := make(map[string]interface{}, len(m))
		for k, item := range m {
			out[k] = toNative(item)
		}
		return out
	default:
		return nil
	}
}

func fromNative(n interface{}) value.Value {
	switch t := n.(type) {
	case nil:
		return value.Null()
	case bool:
		return value.Bool(t)
	case float64:
		return value.Float(t)
	case string:
		return value.String(t)
	case []interface{}:
		items := make([]value.Value, len(t))
		for i, item := range t {
			items[i] = fromNative(item)
		}
		return value.List(items...)
	case map[string]interface{}:
		out := make(map[string]value.Value, len(t))
		for k, item := range t {
			out[k] = fromNative(item)
		}
		return value.Map(out)
	default:
		return value.Null()
	}
}
