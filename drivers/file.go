package drivers

import (
	"context"
	"io"
	"os"
	"path/filepath"
)

// FileSystem implements executor.FileDriver directly over the os package,
// grounded on the teacher pack's os-backed file handlers
// (piwi3910-openfroyo/pkg/micro_runner/handlers/file.go).
type FileSystem struct{}

func (FileSystem) ReadFile(ctx context.Context, path string) (string, error) {
	b, err := os.ReadFile(path)
	return string(b), err
}

func (FileSystem) WriteFile(ctx context.Context, path, content string) error {
	return os.WriteFile(path, []byte(content), 0o644)
}

func (FileSystem) AppendFile(ctx context.Context, path, content string) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = f.WriteString(content)
	return err
}

func (FileSystem) DeleteFile(ctx context.Context, path string) error {
	return os.Remove(path)
}

func (FileSystem) FileExists(ctx context.Context, path string) (bool, error) {
	_, err := os.Stat(path)
	if os.IsNotExist(err) {
		return false, nil
	}
	return err == nil, err
}

func (FileSystem) IsFile(ctx context.Context, path string) (bool, error) {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return !info.IsDir(), nil
}

func (FileSystem) IsDir(ctx context.Context, path string) (bool, error) {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return info.IsDir(), nil
}

func (FileSystem) Mkdir(ctx context.Context, path string, recursive bool) error {
	if recursive {
		return os.MkdirAll(path, 0o755)
	}
	return os.Mkdir(path, 0o755)
}

func (FileSystem) Rmdir(ctx context.Context, path string, recursive bool) error {
	if recursive {
		return os.RemoveAll(path)
	}
	return os.Remove(path)
}

func (FileSystem) ListDir(ctx context.Context, path string) ([]string, error) {
	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, err
	}
	names := make([]string, len(entries))
	for i, e := range entries {
		names[i] = e.Name()
	}
	return names, nil
}

func (FileSystem) CopyFile(ctx context.Context, from, to string) error {
	src, err := os.Open(from)
	if err != nil {
		return err
	}
	defer src.Close()

	if err := os.MkdirAll(filepath.Dir(to), 0o755); err != nil {
		return err
	}
	dst, err := os.Create(to)
	if err != nil {
		return err
	}
	defer dst.Close()

	_, err = io.Copy(dst, src)
	return err
}

func (FileSystem) MoveFile(ctx context.Context, from, to string) error {
	return os.Rename(from, to)
}

func (FileSystem) FileSize(ctx context.Context, path string) (int64, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}
