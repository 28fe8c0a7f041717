package store

import (
	"context"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

// LocalStore reads keys from a directory on the local file system
type LocalStore struct {
	root string
}

func NewLocalStore(root string) *LocalStore {
	return &LocalStore{root: root}
}

func (s *LocalStore) Locator() string {
	return s.root
}

func (s *LocalStore) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	fullPath := filepath.Join(s.root, filepath.FromSlash(key))
	data, err := os.ReadFile(fullPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(ErrNotFound, fullPath)
		}
		return nil, errors.Wrapf(err, "failed to read %v", fullPath)
	}
	return data, nil
}
