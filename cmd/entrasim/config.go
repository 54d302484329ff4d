package main

import (
	"errors"
	"fmt"
	"os"

	"log/slog"

	"github.com/detectlab/entrasim/internal/destinations/jsonl"
	"github.com/detectlab/entrasim/internal/destinations/objstore"
	"github.com/detectlab/entrasim/internal/destinations/printer"
	"github.com/detectlab/entrasim/internal/destinations/webhook"
	"github.com/detectlab/entrasim/internal/types"
	"github.com/runreveal/kawa"
	"github.com/runreveal/lib/loader"
)

func init() {
	// ---------------Sinks-------------------------
	loader.Register("printer", func() loader.Builder[kawa.Destination[types.Record]] {
		return &PrinterConfig{}
	})
	loader.Register("file", func() loader.Builder[kawa.Destination[types.Record]] {
		return &FileConfig{}
	})
	loader.Register("blob", func() loader.Builder[kawa.Destination[types.Record]] {
		return &BlobSinkConfig{}
	})
	loader.Register("webhook", func() loader.Builder[kawa.Destination[types.Record]] {
		return &WebhookConfig{}
	})
}

type PrinterConfig struct {
}

func (c *PrinterConfig) Configure() (kawa.Destination[types.Record], error) {
	slog.Info("configuring printer sink")
	return printer.NewPrinter(os.Stdout), nil
}

type FileConfig struct {
	// Path is the NDJSON output file
	Path string `json:"path"`
}

func (c *FileConfig) Configure() (kawa.Destination[types.Record], error) {
	if c.Path == "" {
		return nil, errors.New("file sink: path is required")
	}
	slog.Info(fmt.Sprintf("configuring file sink at path: %s", c.Path))
	return jsonl.NewWriter(c.Path), nil
}

type BlobSinkConfig struct {
	PathPrefix string `json:"pathPrefix"`

	Store loader.Loader[objstore.BlobLike] `json:"store"`
}

func (c *BlobSinkConfig) Configure() (kawa.Destination[types.Record], error) {
	if c.Store.Builder == nil {
		return nil, errors.New("blob sink: store is required")
	}
	bl, err := c.Store.Configure()
	if err != nil {
		return nil, err
	}
	slog.Info("configuring blob sink")
	var opts []objstore.Option
	if c.PathPrefix != "" {
		opts = append(opts, objstore.WithPathPrefix(c.PathPrefix))
	}
	return objstore.NewSink(bl, opts...), nil
}

type WebhookConfig struct {
	URL string `json:"url"`
}

func (c *WebhookConfig) Configure() (kawa.Destination[types.Record], error) {
	slog.Info("configuring webhook sink")
	return webhook.New(
		webhook.WithURL(c.URL),
	), nil
}

type sinkFile struct {
	Sink loader.Loader[kawa.Destination[types.Record]] `json:"sink"`
}

// loadSink builds the output destination from a JSON sink config file.
func loadSink(path string) (kawa.Destination[types.Record], error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("sink config: %w", err)
	}
	var sf sinkFile
	if err := loader.LoadConfig(raw, &sf); err != nil {
		return nil, fmt.Errorf("sink config: %w", err)
	}
	return sf.Sink.Configure()
}
