// Package intrinsics implements the fixed, flat set of primitives (plain Go
// constructors such as ReadFile and Gather) that the script host calls to
// allocate plan nodes. Each constructor here validates fully-materialized
// arguments eagerly and skips validation when an argument is Deferred; the
// resolved value is not struct-tag-checked at execution time.
package intrinsics

import (
	"github.com/go-playground/validator/v10"

	"github.com/alexchoi0/blueprint/internal/blueperr"
	"github.com/alexchoi0/blueprint/plan"
	"github.com/alexchoi0/blueprint/value"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// validateIfEager runs the validator against args only when every field in
// vs is materialized (not Deferred); a Deferred argument means the real
// shape can't be known until the executor resolves it, so validation is
// skipped; the kind driver receives the resolved value without these checks.
func validateIfEager(args interface{}, vs ...value.Value) error {
	for _, v := range vs {
		if v.IsDeferred() {
			return nil
		}
	}
	if err := validate.Struct(args); err != nil {
		return blueperr.NewScriptError("invalid arguments: %v", err)
	}
	return nil
}

// spanOf is a tiny convenience so call sites can pass nil without importing
// plan directly in every family file's signature.
func spanOf(s *plan.Span) *plan.Span { return s }
