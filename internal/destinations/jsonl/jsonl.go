// Package jsonl writes records to a newline-delimited JSON file. The file is
// created on the first Send, so an injection that fails before rendering
// leaves no partial output behind.
package jsonl

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/detectlab/entrasim/internal/types"
	"github.com/runreveal/kawa"
)

type Writer struct {
	path string
	file *os.File
}

func NewWriter(path string) *Writer {
	return &Writer{path: path}
}

func (w *Writer) Send(ctx context.Context, ack func(), msgs ...kawa.Message[types.Record]) error {
	if w.file == nil {
		f, err := os.OpenFile(w.path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0644)
		if err != nil {
			return fmt.Errorf("jsonl: %w", err)
		}
		w.file = f
	}
	for _, msg := range msgs {
		raw, err := json.Marshal(msg.Value)
		if err != nil {
			return fmt.Errorf("jsonl: %w", err)
		}
		raw = append(raw, '\n')
		if _, err := w.file.Write(raw); err != nil {
			return fmt.Errorf("jsonl: %w", err)
		}
	}
	if ack != nil {
		ack()
	}
	return nil
}

func (w *Writer) Close() error {
	if w.file == nil {
		return nil
	}
	err := w.file.Close()
	w.file = nil
	return err
}
