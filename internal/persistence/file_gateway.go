package persistence

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/natefinch/atomic"
)

// FileGateway stores each collection as <dir>/<name>.json.
type FileGateway struct {
	dir string
}

// NewFileGateway creates dir when missing.
func NewFileGateway(dir string) (*FileGateway, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	return &FileGateway{dir: dir}, nil
}

func (f *FileGateway) path(name string) (string, error) {
	if name == "" || strings.ContainsAny(name, `/\`) || strings.Contains(name, "..") {
		return "", fmt.Errorf("invalid collection name %q", name)
	}
	return filepath.Join(f.dir, name+".json"), nil
}

func (f *FileGateway) Load(_ context.Context, name string) ([]byte, error) {
	p, err := f.path(name)
	if err != nil {
		return nil, err
	}
	doc, err := os.ReadFile(p)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if len(bytes.TrimSpace(doc)) == 0 {
		return nil, nil
	}
	return doc, nil
}

// Save replaces the file atomically so a crash never leaves half a collection.
func (f *FileGateway) Save(_ context.Context, name string, doc []byte) error {
	p, err := f.path(name)
	if err != nil {
		return err
	}
	return atomic.WriteFile(p, bytes.NewReader(doc))
}
