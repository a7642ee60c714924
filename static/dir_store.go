package static

import (
	"context"
	"io/fs"
	"os"

	apperrors "github.com/jrsteele09/go-marathon-server/internal/errors"
)

// DirStore serves files from a file system, normally a local directory.
type DirStore struct {
	fsys fs.FS
}

var _ Store = (*DirStore)(nil)

// NewDirStore serves the directory at root.
func NewDirStore(root string) *DirStore {
	return NewFSStore(os.DirFS(root))
}

func NewFSStore(fsys fs.FS) *DirStore {
	return &DirStore{fsys: fsys}
}

func (d *DirStore) ReadFile(_ context.Context, name string) ([]byte, error) {
	name, ok := cleanName(name)
	if !ok || !fs.ValidPath(name) {
		return nil, apperrors.Wrapf(apperrors.ErrNotFound, "file %q", name)
	}
	data, err := fs.ReadFile(d.fsys, name)
	switch {
	case apperrors.Is(err, fs.ErrNotExist), apperrors.Is(err, fs.ErrInvalid):
		return nil, apperrors.Wrapf(apperrors.ErrNotFound, "file %q", name)
	case err != nil:
		return nil, apperrors.Upstream(err, "reading %q", name)
	}
	return data, nil
}
