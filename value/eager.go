package value

import "github.com/alexchoi0/blueprint/internal/blueperr"

// RequireEager returns a ScriptError if v is a Deferred (at top level).
// Script-level control flow runs at planning time over materialized values;
// branching or looping on an unresolved result is undefined per the data
// model and must be caught here rather than silently misbehaving.
func RequireEager(v Value, context string) error {
	if v.kind == KindDeferred {
		return blueperr.NewScriptError("cannot branch on unresolved value in %s", context)
	}
	return nil
}

// RequireEagerAll is a convenience wrapper for call sites that need several
// compile-time-known arguments at once (e.g. the count in at_least/at_most).
func RequireEagerAll(context string, vs ...Value) error {
	for _, v := range vs {
		if err := RequireEager(v, context); err != nil {
			return err
		}
	}
	return nil
}
