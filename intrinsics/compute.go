package intrinsics

import (
	"github.com/alexchoi0/blueprint/plan"
	"github.com/alexchoi0/blueprint/value"
)

// binary allocates a two-operand compute node. Compute nodes never validate
// eagerly beyond arity, since their operand types are checked by the
// ComputeDriver against the resolved values at execution time (a
// materialized operand of the wrong type for, say, concat is still only
// detectable once both sides are known).
func binary(b *plan.Builder, kind plan.NodeKind, lhs, rhs value.Value, span *plan.Span) value.Value {
	args := value.List(lhs, rhs)
	return b.NewNode(kind, args, spanOf(span))
}

func unary(b *plan.Builder, kind plan.NodeKind, operand value.Value, span *plan.Span) value.Value {
	args := value.List(operand)
	return b.NewNode(kind, args, spanOf(span))
}

func Add(b *plan.Builder, lhs, rhs value.Value, span *plan.Span) value.Value { return binary(b, plan.KindAdd, lhs, rhs, span) }
func Sub(b *plan.Builder, lhs, rhs value.Value, span *plan.Span) value.Value { return binary(b, plan.KindSub, lhs, rhs, span) }
func Mul(b *plan.Builder, lhs, rhs value.Value, span *plan.Span) value.Value { return binary(b, plan.KindMul, lhs, rhs, span) }
func Div(b *plan.Builder, lhs, rhs value.Value, span *plan.Span) value.Value { return binary(b, plan.KindDiv, lhs, rhs, span) }
func FloorDiv(b *plan.Builder, lhs, rhs value.Value, span *plan.Span) value.Value {
	return binary(b, plan.KindFloorDiv, lhs, rhs, span)
}
func Mod(b *plan.Builder, lhs, rhs value.Value, span *plan.Span) value.Value { return binary(b, plan.KindMod, lhs, rhs, span) }
func Neg(b *plan.Builder, operand value.Value, span *plan.Span) value.Value  { return unary(b, plan.KindNeg, operand, span) }
func Eq(b *plan.Builder, lhs, rhs value.Value, span *plan.Span) value.Value  { return binary(b, plan.KindEq, lhs, rhs, span) }
func Ne(b *plan.Builder, lhs, rhs value.Value, span *plan.Span) value.Value  { return binary(b, plan.KindNe, lhs, rhs, span) }
func Lt(b *plan.Builder, lhs, rhs value.Value, span *plan.Span) value.Value  { return binary(b, plan.KindLt, lhs, rhs, span) }
func Le(b *plan.Builder, lhs, rhs value.Value, span *plan.Span) value.Value  { return binary(b, plan.KindLe, lhs, rhs, span) }
func Gt(b *plan.Builder, lhs, rhs value.Value, span *plan.Span) value.Value  { return binary(b, plan.KindGt, lhs, rhs, span) }
func Ge(b *plan.Builder, lhs, rhs value.Value, span *plan.Span) value.Value  { return binary(b, plan.KindGe, lhs, rhs, span) }
func Not(b *plan.Builder, operand value.Value, span *plan.Span) value.Value { return unary(b, plan.KindNot, operand, span) }
func Concat(b *plan.Builder, lhs, rhs value.Value, span *plan.Span) value.Value {
	return binary(b, plan.KindConcat, lhs, rhs, span)
}
func Contains(b *plan.Builder, container, needle value.Value, span *plan.Span) value.Value {
	return binary(b, plan.KindContains, container, needle, span)
}
func ToBool(b *plan.Builder, operand value.Value, span *plan.Span) value.Value {
	return unary(b, plan.KindToBool, operand, span)
}
func ToInt(b *plan.Builder, operand value.Value, span *plan.Span) value.Value {
	return unary(b, plan.KindToInt, operand, span)
}
func ToFloat(b *plan.Builder, operand value.Value, span *plan.Span) value.Value {
	return unary(b, plan.KindToFloat, operand, span)
}
func ToStr(b *plan.Builder, operand value.Value, span *plan.Span) value.Value {
	return unary(b, plan.KindToStr, operand, span)
}
func Len(b *plan.Builder, operand value.Value, span *plan.Span) value.Value {
	return unary(b, plan.KindLen, operand, span)
}
