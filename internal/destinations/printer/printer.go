// Package printer writes records as NDJSON to an io.Writer, one record per
// line.
package printer

import (
	"context"
	"encoding/json"
	"io"

	"github.com/detectlab/entrasim/internal/types"
	"github.com/runreveal/kawa"
)

type Printer struct {
	writer io.Writer
}

func NewPrinter(w io.Writer) *Printer {
	return &Printer{writer: w}
}

func (p *Printer) Send(ctx context.Context, ack func(), msgs ...kawa.Message[types.Record]) error {
	for _, msg := range msgs {
		raw, err := json.Marshal(msg.Value)
		if err != nil {
			return err
		}
		raw = append(raw, '\n')
		if _, err := p.writer.Write(raw); err != nil {
			return err
		}
	}
	if ack != nil {
		ack()
	}
	return nil
}
