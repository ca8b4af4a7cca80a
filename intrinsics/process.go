package intrinsics

import (
	"github.com/alexchoi0/blueprint/plan"
	"github.com/alexchoi0/blueprint/value"
)

type execArgs struct {
	Argv []string `validate:"required,min=1"`
}

// Exec allocates an exec node. cwd and env may be value.Null()/empty Map.
func Exec(b *plan.Builder, argv, cwd, env value.Value, span *plan.Span) (value.Value, error) {
	if !argv.IsDeferred() {
		list := argv.AsList()
		strs := make([]string, 0, len(list))
		for _, item := range list {
			if item.IsDeferred() {
				strs = nil
				break
			}
			strs = append(strs, item.AsString())
		}
		if strs != nil {
			if err := validateIfEager(execArgs{Argv: strs}, argv); err != nil {
				return value.Null(), err
			}
		}
	}
	args := value.Struct(map[string]value.Value{"argv": argv, "cwd": cwd, "env": env})
	d := b.NewNode(plan.KindExec, args, spanOf(span))
	b.MarkRoot(d)
	return d, nil
}

// EnvGet allocates an env_get node; def is the fallback value when the
// named variable is unset.
func EnvGet(b *plan.Builder, name, def value.Value, span *plan.Span) (value.Value, error) {
	args := value.Struct(map[string]value.Value{"name": name, "default": def})
	return b.NewNode(plan.KindEnvGet, args, spanOf(span)), nil
}
