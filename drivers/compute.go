package drivers

import (
	"fmt"
	"strings"

	"github.com/alexchoi0/blueprint/plan"
	"github.com/alexchoi0/blueprint/value"
)

// Arithmetic implements executor.ComputeDriver directly over value.Value,
// with no third-party library involved: arithmetic/comparison/coercion over
// a small closed tagged union has no natural home in any library the pack
// carries (validator, jsonschema, fuzzysearch etc. all address different
// concerns), so this is one of the few components left on the standard
// library by necessity rather than omission — see DESIGN.md.
type Arithmetic struct{}

func (Arithmetic) Eval(kind plan.NodeKind, operands []value.Value) (value.Value, error) {
	switch kind {
	case plan.KindAdd:
		return numOp(operands, func(a, b int64) int64 { return a + b }, func(a, b float64) float64 { return a + b })
	case plan.KindSub:
		return numOp(operands, func(a, b int64) int64 { return a - b }, func(a, b float64) float64 { return a - b })
	case plan.KindMul:
		return numOp(operands, func(a, b int64) int64 { return a * b }, func(a, b float64) float64 { return a * b })
	case plan.KindDiv:
		a, b := operands[0], operands[1]
		fa, fb := toFloat(a), toFloat(b)
		if fb == 0 {
			return value.Null(), fmt.Errorf("division by zero")
		}
		return value.Float(fa / fb), nil
	case plan.KindFloorDiv:
		a, b := operands[0], operands[1]
		if isInt(a) && isInt(b) {
			ia, ib := a.AsInt(), b.AsInt()
			if ib == 0 {
				return value.Null(), fmt.Errorf("division by zero")
			}
			q := ia / ib
			if (ia%ib != 0) && ((ia < 0) != (ib < 0)) {
				q--
			}
			return value.Int(q), nil
		}
		fa, fb := toFloat(a), toFloat(b)
		if fb == 0 {
			return value.Null(), fmt.Errorf("division by zero")
		}
		return value.Float(floorFloat(fa / fb)), nil
	case plan.KindMod:
		ia, ib := operands[0].AsInt(), operands[1].AsInt()
		if ib == 0 {
			return value.Null(), fmt.Errorf("modulo by zero")
		}
		m := ia % ib
		if m != 0 && (m < 0) != (ib < 0) {
			m += ib
		}
		return value.Int(m), nil
	case plan.KindNeg:
		a := operands[0]
		if isInt(a) {
			return value.Int(-a.AsInt()), nil
		}
		return value.Float(-toFloat(a)), nil

	case plan.KindEq:
		return value.Bool(valuesEqual(operands[0], operands[1])), nil
	case plan.KindNe:
		return value.Bool(!valuesEqual(operands[0], operands[1])), nil
	case plan.KindLt:
		return cmpOp(operands, func(c int) bool { return c < 0 })
	case plan.KindLe:
		return cmpOp(operands, func(c int) bool { return c <= 0 })
	case plan.KindGt:
		return cmpOp(operands, func(c int) bool { return c > 0 })
	case plan.KindGe:
		return cmpOp(operands, func(c int) bool { return c >= 0 })

	case plan.KindNot:
		a := operands[0]
		if a.Kind() != value.KindBool {
			return value.Null(), fmt.Errorf("not: operand must be bool, got %s", a.Kind())
		}
		return value.Bool(!a.AsBool()), nil

	case plan.KindConcat:
		var b strings.Builder
		for _, v := range operands {
			b.WriteString(v.AsString())
		}
		return value.String(b.String()), nil

	case plan.KindContains:
		haystack, needle := operands[0], operands[1]
		switch haystack.Kind() {
		case value.KindString:
			return value.Bool(strings.Contains(haystack.AsString(), needle.AsString())), nil
		case value.KindList:
			for _, item := range haystack.AsList() {
				if valuesEqual(item, needle) {
					return value.Bool(true), nil
				}
			}
			return value.Bool(false), nil
		default:
			return value.Null(), fmt.Errorf("contains: unsupported operand kind")
		}

	case plan.KindToBool:
		b, err := truthy(operands[0])
		if err != nil {
			return value.Null(), err
		}
		return value.Bool(b), nil
	case plan.KindToInt:
		a := operands[0]
		switch a.Kind() {
		case value.KindInt:
			return a, nil
		case value.KindFloat:
			return value.Int(int64(a.AsFloat())), nil
		case value.KindString:
			var n int64
			if _, err := fmt.Sscanf(strings.TrimSpace(a.AsString()), "%d", &n); err != nil {
				return value.Null(), fmt.Errorf("to_int: cannot parse %q", a.AsString())
			}
			return value.Int(n), nil
		default:
			return value.Null(), fmt.Errorf("to_int: unsupported operand kind")
		}
	case plan.KindToFloat:
		a := operands[0]
		switch a.Kind() {
		case value.KindFloat:
			return a, nil
		case value.KindInt:
			return value.Float(float64(a.AsInt())), nil
		case value.KindString:
			var f float64
			if _, err := fmt.Sscanf(strings.TrimSpace(a.AsString()), "%g", &f); err != nil {
				return value.Null(), fmt.Errorf("to_float: cannot parse %q", a.AsString())
			}
			return value.Float(f), nil
		default:
			return value.Null(), fmt.Errorf("to_float: unsupported operand kind")
		}
	case plan.KindToStr:
		return value.String(stringify(operands[0])), nil
	case plan.KindLen:
		a := operands[0]
		switch a.Kind() {
		case value.KindString:
			return value.Int(int64(len([]rune(a.AsString())))), nil
		case value.KindBytes:
			return value.Int(int64(len(a.AsBytes()))), nil
		case value.KindList:
			return value.Int(int64(len(a.AsList()))), nil
		case value.KindMap:
			return value.Int(int64(len(a.AsMap()))), nil
		default:
			return value.Null(), fmt.Errorf("len: unsupported operand kind")
		}

	default:
		return value.Null(), fmt.Errorf("compute: unhandled kind %s", kind)
	}
}

// truthy coerces v to a bool the way to_int/to_float/to_str coerce to their
// own types: null is always false, numbers are false only at zero, and
// strings/bytes/lists/maps are false only when empty. Unlike not (which
// rejects a non-bool operand outright, since negation of a non-boolean is a
// script mistake rather than a conversion), to_bool is a deliberate coercion
// and so has a defined answer for every kind.
func truthy(v value.Value) (bool, error) {
	switch v.Kind() {
	case value.KindNull:
		return false, nil
	case value.KindBool:
		return v.AsBool(), nil
	case value.KindInt:
		return v.AsInt() != 0, nil
	case value.KindFloat:
		return v.AsFloat() != 0, nil
	case value.KindString:
		return v.AsString() != "", nil
	case value.KindBytes:
		return len(v.AsBytes()) != 0, nil
	case value.KindList:
		return len(v.AsList()) != 0, nil
	case value.KindMap:
		return len(v.AsMap()) != 0, nil
	default:
		return false, fmt.Errorf("to_bool: unsupported operand kind %s", v.Kind())
	}
}

func isInt(v value.Value) bool { return v.Kind() == value.KindInt }

func toFloat(v value.Value) float64 {
	if v.Kind() == value.KindInt {
		return float64(v.AsInt())
	}
	return v.AsFloat()
}

func floorFloat(f float64) float64 {
	i := int64(f)
	if f < 0 && float64(i) != f {
		i--
	}
	return float64(i)
}

func numOp(operands []value.Value, intFn func(a, b int64) int64, floatFn func(a, b float64) float64) (value.Value, error) {
	a, b := operands[0], operands[1]
	if isInt(a) && isInt(b) {
		return value.Int(intFn(a.AsInt(), b.AsInt())), nil
	}
	return value.Float(floatFn(toFloat(a), toFloat(b))), nil
}

func cmpOp(operands []value.Value, pred func(int) bool) (value.Value, error) {
	a, b := operands[0], operands[1]
	switch {
	case a.Kind() == value.KindString && b.Kind() == value.KindString:
		return value.Bool(pred(strings.Compare(a.AsString(), b.AsString()))), nil
	default:
		fa, fb := toFloat(a), toFloat(b)
		switch {
		case fa < fb:
			return value.Bool(pred(-1)), nil
		case fa > fb:
			return value.Bool(pred(1)), nil
		default:
			return value.Bool(pred(0)), nil
		}
	}
}

func valuesEqual(a, b value.Value) bool {
	if a.Kind() != b.Kind() {
		if (a.Kind() == value.KindInt || a.Kind() == value.KindFloat) &&
			(b.Kind() == value.KindInt || b.Kind() == value.KindFloat) {
			return toFloat(a) == toFloat(b)
		}
		return false
	}
	switch a.Kind() {
	case value.KindNull:
		return true
	case value.KindBool:
		return a.AsBool() == b.AsBool()
	case value.KindInt:
		return a.AsInt() == b.AsInt()
	case value.KindFloat:
		return a.AsFloat() == b.AsFloat()
	case value.KindString:
		return a.AsString() == b.AsString()
	case value.KindBytes:
		return string(a.AsBytes()) == string(b.AsBytes())
	case value.KindList:
		la, lb := a.AsList(), b.AsList()
		if len(la) != len(lb) {
			return false
		}
		for i := range la {
			if !valuesEqual(la[i], lb[i]) {
				return false
			}
		}
		return true
	default:
		return false
	}
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
