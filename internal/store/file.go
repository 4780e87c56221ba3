package store

import (
	"context"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
)

var safeKey = regexp.MustCompile(`^[A-Za-z0-9._-]{1,128}$`)

// File stores each key as a JSON file in a directory. Writes go through a
// temporary file and a rename so readers never see a partial payload.
type File struct {
	dir string
}

// NewFile creates the directory if needed and returns a file store.
func NewFile(dir string) (*File, error) {
	if dir == "" {
		dir = ".sizekit/state"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create state directory: %w", err)
	}

	return &File{dir: dir}, nil
}

// path maps a key to a file name. Keys outside the safe alphabet are hex
// encoded so they can never escape the directory.
func (f *File) path(key string) string {
	name := key
	if !safeKey.MatchString(key) || key == "." || key == ".." {
		name = "x-" + hex.EncodeToString([]byte(key))
	}

	return filepath.Join(f.dir, name+".json")
}

// Load implements Store.
func (f *File) Load(ctx context.Context, key string) ([]byte, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}

	data, err := os.ReadFile(f.path(key))
	if os.IsNotExist(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read %s: %w", key, err)
	}

	return data, true, nil
}

// Save implements Store.
func (f *File) Save(ctx context.Context, key string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	target := f.path(key)
	tmp, err := os.CreateTemp(f.dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", key, err)
	}

	if err := os.Rename(tmp.Name(), target); err != nil {
		return fmt.Errorf("failed to replace %s: %w", key, err)
	}

	return nil
}

// Delete implements Store.
func (f *File) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	err := os.Remove(f.path(key))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}

	return nil
}

// Close implements Store.
func (f *File) Close() error {
	return nil
}

// Dir returns the backing directory.
func (f *File) Dir() string {
	return f.dir
}
