package intrinsics

import (
	"github.com/alexchoi0/blueprint/plan"
	"github.com/alexchoi0/blueprint/value"
)

// pathArgs is the eager-validation shape for single-path file ops.
type pathArgs struct {
	Path string `validate:"required"`
}

// copyMoveArgs is the eager-validation shape for copy/move.
type copyMoveArgs struct {
	From string `validate:"required"`
	To   string `validate:"required"`
}

func newPathNode(b *plan.Builder, kind plan.NodeKind, path value.Value, span *plan.Span) (value.Value, error) {
	if !path.IsDeferred() {
		if err := validateIfEager(pathArgs{Path: path.AsString()}, path); err != nil {
			return value.Null(), err
		}
	}
	args := value.Struct(map[string]value.Value{"path": path})
	d := b.NewNode(kind, args, spanOf(span))
	b.MarkRoot(d)
	return d, nil
}

func ReadFile(b *plan.Builder, path value.Value, span *plan.Span) (value.Value, error) {
	return newPathNode(b, plan.KindReadFile, path, span)
}

func WriteFile(b *plan.Builder, path, content value.Value, span *plan.Span) (value.Value, error) {
	args := value.Struct(map[string]value.Value{"path": path, "content": content})
	d := b.NewNode(plan.KindWriteFile, args, spanOf(span))
	b.MarkRoot(d)
	return d, nil
}

func AppendFile(b *plan.Builder, path, content value.Value, span *plan.Span) (value.Value, error) {
	args := value.Struct(map[string]value.Value{"path": path, "content": content})
	d := b.NewNode(plan.KindAppendFile, args, spanOf(span))
	b.MarkRoot(d)
	return d, nil
}

func DeleteFile(b *plan.Builder, path value.Value, span *plan.Span) (value.Value, error) {
	return newPathNode(b, plan.KindDeleteFile, path, span)
}

func FileExists(b *plan.Builder, path value.Value, span *plan.Span) (value.Value, error) {
	return newPathNode(b, plan.KindFileExists, path, span)
}

func IsFile(b *plan.Builder, path value.Value, span *plan.Span) (value.Value, error) {
	return newPathNode(b, plan.KindIsFile, path, span)
}

func IsDir(b *plan.Builder, path value.Value, span *plan.Span) (value.Value, error) {
	return newPathNode(b, plan.KindIsDir, path, span)
}

func Mkdir(b *plan.Builder, path, recursive value.Value, span *plan.Span) (value.Value, error) {
	args := value.Struct(map[string]value.Value{"path": path, "recursive": recursive})
	d := b.NewNode(plan.KindMkdir, args, spanOf(span))
	b.MarkRoot(d)
	return d, nil
}

func Rmdir(b *plan.Builder, path, recursive value.Value, span *plan.Span) (value.Value, error) {
	args := value.Struct(map[string]value.Value{"path": path, "recursive": recursive})
	d := b.NewNode(plan.KindRmdir, args, spanOf(span))
	b.MarkRoot(d)
	return d, nil
}

func ListDir(b *plan.Builder, path value.Value, span *plan.Span) (value.Value, error) {
	return newPathNode(b, plan.KindListDir, path, span)
}

func CopyFile(b *plan.Builder, from, to value.Value, span *plan.Span) (value.Value, error) {
	if !from.IsDeferred() && !to.IsDeferred() {
		if err := validateIfEager(copyMoveArgs{From: from.AsString(), To: to.AsString()}, from, to); err != nil {
			return value.Null(), err
		}
	}
	args := value.Struct(map[string]value.Value{"from": from, "to": to})
	d := b.NewNode(plan.KindCopyFile, args, spanOf(span))
	b.MarkRoot(d)
	return d, nil
}

func MoveFile(b *plan.Builder, from, to value.Value, span *plan.Span) (value.Value, error) {
	if !from.IsDeferred() && !to.IsDeferred() {
		if err := validateIfEager(copyMoveArgs{From: from.AsString(), To: to.AsString()}, from, to); err != nil {
			return value.Null(), err
		}
	}
	args := value.Struct(map[string]value.Value{"from": from, "to": to})
	d := b.NewNode(plan.KindMoveFile, args, spanOf(span))
	b.MarkRoot(d)
	return d, nil
}

func FileSize(b *plan.Builder, path value.Value, span *plan.Span) (value.Value, error) {
	return newPathNode(b, plan.KindFileSize, path, span)
}
