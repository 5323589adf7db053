package warehouse

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// ErrExists is returned when a medium is asked to write a name that is
// already taken. Snapshot files are write-once.
var ErrExists = errors.New("snapshot file already exists")

// Medium stores snapshot files. Put must either store the whole payload
// under name or nothing, and must refuse to replace an existing name.
type Medium interface {
	Put(ctx context.Context, name string, data []byte) error
	Get(ctx context.Context, name string) ([]byte, error)
	Location(name string) string
}

// FileMedium keeps snapshot files in a local directory tree.
type FileMedium struct {
	Root string
}

func (m *FileMedium) Location(name string) string {
	return filepath.Join(m.Root, filepath.FromSlash(name))
}

// Put writes data to a temp file next to the target, syncs it, and renames
// it into place so readers never observe a partial file.
func (m *FileMedium) Put(_ context.Context, name string, data []byte) error {
	path := m.Location(name)
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	if _, err := os.Lstat(path); err == nil {
		return fmt.Errorf("%s: %w", path, ErrExists)
	} else if !errors.Is(err, fs.ErrNotExist) {
		return err
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp.*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		return err
	}
	if err := tmp.Chmod(0o444); err != nil {
		return err
	}
	if err := tmp.Sync(); err != nil {
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		return err
	}
	committed = true
	return syncDir(dir)
}

func (m *FileMedium) Get(_ context.Context, name string) ([]byte, error) {
	return os.ReadFile(m.Location(name))
}

func syncDir(dir string) error {
	f, err := os.Open(dir)
	if err != nil {
		return err
	}
	defer f.Close() //nolint:errcheck
	return f.Sync()
}
