// Package objstore uploads fixture batches to blob storage so downstream
// SIEM test harnesses can pick them up. The BlobLike abstraction keeps the
// sink testable against a local directory store.
package objstore

import (
	"bytes"
	"context"
	"fmt"
	"io"
)

type GetObjectInput struct {
	Key string
}

type PutObjectInput struct {
	Key  string
	Data io.Reader
}

type BlobLike interface {
	GetObject(ctx context.Context, in GetObjectInput) (io.ReadCloser, error)
	PutObject(ctx context.Context, in PutObjectInput) error
}

// Manager is a thin high-level wrapper over a BlobLike backend.
type Manager struct {
	svc BlobLike
}

func New(blob BlobLike) *Manager {
	return &Manager{svc: blob}
}

// Store writes data under key. data is read until io.EOF.
func (m *Manager) Store(ctx context.Context, key string, data io.Reader) error {
	if key == "" {
		return fmt.Errorf("key is required")
	}
	return m.svc.PutObject(ctx, PutObjectInput{Key: key, Data: data})
}

// ReadAll fetches the full object under key.
func (m *Manager) ReadAll(ctx context.Context, key string) ([]byte, error) {
	rc, err := m.svc.GetObject(ctx, GetObjectInput{Key: key})
	if err != nil {
		return nil, fmt.Errorf("blob read error (%s): %w", key, err)
	}
	buf := new(bytes.Buffer)
	if _, err := buf.ReadFrom(rc); err != nil {
		return nil, fmt.Errorf("blob read error (%s): %w", key, err)
	}
	if err := rc.Close(); err != nil {
		return nil, fmt.Errorf("blob close error (%s): %w", key, err)
	}
	return buf.Bytes(), nil
}
