package objstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Dir is a local-directory blob store for offline runs and tests.
type Dir struct {
	baseDir string
}

type DirConfig struct {
	Type          string `json:"type"`
	BaseDirectory string `json:"baseDir"`
}

func NewDir(cfg DirConfig) (*Dir, error) {
	if cfg.BaseDirectory == "" {
		return nil, errors.New("base directory is required")
	}
	if err := os.MkdirAll(cfg.BaseDirectory, 0755); err != nil {
		return nil, fmt.Errorf("failed to create base directory: %w", err)
	}
	return &Dir{baseDir: cfg.BaseDirectory}, nil
}

func (d *Dir) GetObject(_ context.Context, in GetObjectInput) (io.ReadCloser, error) {
	file, err := os.Open(filepath.Join(d.baseDir, in.Key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("object not found: %w", err)
		}
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	return file, nil
}

func (d *Dir) PutObject(_ context.Context, in PutObjectInput) error {
	path := filepath.Join(d.baseDir, in.Key)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory structure: %w", err)
	}
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	if _, err := io.Copy(file, in.Data); err != nil {
		return fmt.Errorf("failed to write data: %w", err)
	}
	return nil
}
