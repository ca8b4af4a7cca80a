package intrinsics

import (
	"github.com/alexchoi0/blueprint/plan"
	"github.com/alexchoi0/blueprint/value"
)

// JSONEncode allocates a json_encode node; v may be any value shape,
// including one still carrying nested Deferreds.
func JSONEncode(b *plan.Builder, v value.Value, span *plan.Span) value.Value {
	args := value.Struct(map[string]value.Value{"value": v})
	return b.NewNode(plan.KindJSONEncode, args, spanOf(span))
}

// JSONDecode allocates a json_decode node over a string-producing value.
// schema is optional: pass value.Null() to skip validation, or a JSON
// Schema document (as a string) to have the executor reject a decoded
// value that doesn't conform, via santhosh-tekuri/jsonschema/v5.
func JSONDecode(b *plan.Builder, s, schema value.Value, span *plan.Span) value.Value {
	args := value.Struct(map[string]value.Value{"string": s, "schema": schema})
	return b.NewNode(plan.KindJSONDecode, args, spanOf(span))
}
