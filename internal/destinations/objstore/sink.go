package objstore

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/detectlab/entrasim/internal/types"
	"github.com/runreveal/kawa"
	"github.com/segmentio/ksuid"
)

type Option func(*Sink)

func WithPathPrefix(prefix string) Option {
	return func(s *Sink) {
		s.pathPrefix = prefix
	}
}

// Sink buffers a run's records and uploads them as one gzip NDJSON object on
// Flush. The engine is synchronous and run-to-completion, so there is no
// background batching: the caller flushes once when the run finishes.
type Sink struct {
	mgr        *Manager
	pathPrefix string
	buffered   []types.Record
}

func NewSink(blob BlobLike, opts ...Option) *Sink {
	s := &Sink{mgr: New(blob)}
	for _, o := range opts {
		o(s)
	}
	if s.pathPrefix == "" {
		s.pathPrefix = "entrasim"
	}
	return s
}

func (s *Sink) Send(ctx context.Context, ack func(), msgs ...kawa.Message[types.Record]) error {
	for _, msg := range msgs {
		s.buffered = append(s.buffered, msg.Value)
	}
	if ack != nil {
		ack()
	}
	return nil
}

// Flush uploads everything buffered so far and clears the buffer. The object
// key carries a date prefix plus a ksuid so repeated runs never collide.
func (s *Sink) Flush(ctx context.Context) error {
	if len(s.buffered) == 0 {
		return nil
	}

	var buf bytes.Buffer
	gzw := gzip.NewWriter(&buf)
	for _, rec := range s.buffered {
		raw, err := json.Marshal(rec)
		if err != nil {
			return err
		}
		if _, err := gzw.Write(raw); err != nil {
			return err
		}
		if _, err := gzw.Write([]byte("\n")); err != nil {
			return err
		}
	}
	if err := gzw.Close(); err != nil {
		return err
	}

	key := fmt.Sprintf("%s/%s/%s_%d.gz",
		s.pathPrefix,
		time.Now().UTC().Format("2006/01/02/15"),
		ksuid.New().String(),
		time.Now().Unix(),
	)

	if err := s.mgr.Store(ctx, key, bytes.NewReader(buf.Bytes())); err != nil {
		return err
	}
	s.buffered = nil
	return nil
}
