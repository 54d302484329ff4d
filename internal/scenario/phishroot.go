package scenario

import (
	"context"
	"time"

	"github.com/detectlab/entrasim/internal/simulate"
	"github.com/detectlab/entrasim/internal/types"
	"github.com/runreveal/kawa"
)

// PhishRootParams configure the root-cause injection: one consent-grant
// record placed a chosen offset into the past, linking the phishing
// narrative to a benign-noise timeline.
type PhishRootParams struct {
	UserID        string
	OffsetMinutes int
	AppName       string
	Operation     string
}

func (p *PhishRootParams) applyDefaults() {
	if p.OffsetMinutes == 0 {
		p.OffsetMinutes = 60
	}
	if p.AppName == "" {
		p.AppName = defaultConsentAppName
	}
	if p.Operation == "" {
		p.Operation = "ConsentToApp"
	}
}

// PhishRoot runs the generation loop with N=1 and full forcing.
func PhishRoot(ctx context.Context, g *simulate.Generator, p PhishRootParams, dest kawa.Destination[types.Record]) error {
	p.applyDefaults()

	start := time.Now().UTC().Add(-time.Duration(p.OffsetMinutes) * time.Minute)
	records, err := g.Batch(simulate.BatchParams{
		Count:          1,
		Start:          start,
		ForceUser:      p.UserID,
		ForceApp:       p.AppName,
		ForceOperation: p.Operation,
		IsAttack:       true,
	})
	if err != nil {
		return err
	}
	return simulate.Deliver(ctx, dest, records...)
}
