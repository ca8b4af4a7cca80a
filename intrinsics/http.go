package intrinsics

import (
	"github.com/alexchoi0/blueprint/plan"
	"github.com/alexchoi0/blueprint/value"
)

// httpArgs is the eager-validation shape for http_request. Non-2xx status
// is not a validation concern: it's a runtime result, not a planning-time
// shape error (see intrinsics/http.go's driver counterpart in package
// drivers, which returns it as a successful struct).
type httpArgs struct {
	Method string `validate:"required,oneof=GET POST PUT DELETE PATCH HEAD OPTIONS"`
	URL    string `validate:"required,url"`
}

// HTTPRequest allocates an http_request node. body and headers may be
// value.Null() when absent.
func HTTPRequest(b *plan.Builder, method, url, body, headers value.Value, span *plan.Span) (value.Value, error) {
	if !method.IsDeferred() && !url.IsDeferred() {
		if err := validateIfEager(httpArgs{Method: method.AsString(), URL: url.AsString()}, method, url); err != nil {
			return value.Null(), err
		}
	}
	args := value.Struct(map[string]value.Value{
		"method":  method,
		"url":     url,
		"body":    body,
		"headers": headers,
	})
	d := b.NewNode(plan.KindHTTPRequest, args, spanOf(span))
	b.MarkRoot(d)
	return d, nil
}
