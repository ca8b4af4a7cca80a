package intrinsics

import (
	"github.com/alexchoi0/blueprint/plan"
	"github.com/alexchoi0/blueprint/value"
)

// Stdout allocates a stdout node writing each arg, space-joined, followed
// by a newline, matching the teacher pack's console-decorator convention.
func Stdout(b *plan.Builder, args []value.Value, span *plan.Span) value.Value {
	d := b.NewNode(plan.KindStdout, value.List(args...), spanOf(span))
	b.MarkRoot(d)
	return d
}

// Stderr is Stdout's stderr-targeted counterpart.
func Stderr(b *plan.Builder, args []value.Value, span *plan.Span) value.Value {
	d := b.NewNode(plan.KindStderr, value.List(args...), spanOf(span))
	b.MarkRoot(d)
	return d
}
