package favorites

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// FileBackend stores each key as a JSON file in a directory.
type FileBackend struct {
	dir string
}

// NewFileBackend creates the directory if needed and returns a FileBackend.
func NewFileBackend(dir string) (*FileBackend, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create favorites directory: %w", err)
	}
	return &FileBackend{dir: dir}, nil
}

// path names the file by the SHA256 of the key.
func (b *FileBackend) path(key string) string {
	hash := sha256.Sum256([]byte(key))
	return filepath.Join(b.dir, hex.EncodeToString(hash[:])+".json")
}

func (b *FileBackend) Load(ctx context.Context, key string) ([]byte, error) {
	data, err := os.ReadFile(b.path(key))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read favorites file: %w", err)
	}
	return data, nil
}

// Save writes to a temporary file and renames it over the previous one.
func (b *FileBackend) Save(ctx context.Context, key string, data []byte) error {
	tmp, err := os.CreateTemp(b.dir, "favorites-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create favorites file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write favorites file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close favorites file: %w", err)
	}
	if err := os.Rename(tmp.Name(), b.path(key)); err != nil {
		return fmt.Errorf("failed to replace favorites file: %w", err)
	}
	return nil
}
