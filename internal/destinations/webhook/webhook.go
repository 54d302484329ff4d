// Package webhook POSTs records as NDJSON to a SIEM HTTP collector endpoint.
package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/carlmjohnson/requests"
	"github.com/detectlab/entrasim/internal/types"
	"github.com/runreveal/kawa"
)

type Option func(*Webhook)

func WithURL(url string) Option {
	return func(w *Webhook) {
		w.url = url
	}
}

type Webhook struct {
	url string
}

func New(opts ...Option) *Webhook {
	w := &Webhook{}
	for _, o := range opts {
		o(w)
	}
	return w
}

// Send posts the batch in one request. The default validator rejects
// non-2xx responses.
func (w *Webhook) Send(ctx context.Context, ack func(), msgs ...kawa.Message[types.Record]) error {
	if w.url == "" {
		return fmt.Errorf("webhook: url is required")
	}
	var buf bytes.Buffer
	for _, msg := range msgs {
		raw, err := json.Marshal(msg.Value)
		if err != nil {
			return fmt.Errorf("webhook: %w", err)
		}
		buf.Write(raw)
		buf.WriteByte('\n')
	}

	err := requests.
		URL(w.url).
		ContentType("application/x-ndjson").
		BodyBytes(buf.Bytes()).
		Fetch(ctx)
	if err != nil {
		return fmt.Errorf("webhook: %w", err)
	}
	if ack != nil {
		ack()
	}
	return nil
}
