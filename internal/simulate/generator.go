// Package simulate is the log synthesis engine: field resolution, template
// rendering, entity/operation selection, and timeline progression. One
// Generator drives one run; it is synchronous and draws all randomness from a
// single seedable source.
package simulate

import (
	"context"
	"fmt"
	"time"

	"github.com/detectlab/entrasim/internal/config"
	"github.com/detectlab/entrasim/internal/types"
	"github.com/runreveal/kawa"
)

// maxPoolRetries bounds consecutive redraws when the chosen actor class has
// no eligible operations. The empty pool is an expected modeling gap and is
// retried silently, but never forever.
const maxPoolRetries = 100

// Option configures a Generator.
type Option func(*Generator)

func WithRand(rng Rand) Option {
	return func(g *Generator) {
		g.rng = rng
	}
}

func WithSPNProbability(p float64) Option {
	return func(g *Generator) {
		g.spnProbability = p
	}
}

func WithFailureProbability(p float64) Option {
	return func(g *Generator) {
		g.failureProbability = p
	}
}

func WithJitter(min, max time.Duration) Option {
	return func(g *Generator) {
		g.jitterMin = min
		g.jitterMax = max
	}
}

// Generator renders plausible, internally consistent audit records from the
// loaded configuration and template.
type Generator struct {
	cfg  *config.Config
	tmpl *Template
	rng  Rand

	spnProbability     float64
	failureProbability float64
	jitterMin          time.Duration
	jitterMax          time.Duration
}

func New(cfg *config.Config, tmpl *Template, opts ...Option) *Generator {
	g := &Generator{
		cfg:                cfg,
		tmpl:               tmpl,
		spnProbability:     0.20,
		failureProbability: 0.15,
		jitterMin:          15 * time.Second,
		jitterMax:          45 * time.Second,
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.rng == nil {
		g.rng = NewRand(0)
	}
	return g
}

// Config exposes the read-only configuration store to scenario injectors.
func (g *Generator) Config() *config.Config {
	return g.cfg
}

// Render substitutes a binding set into the loaded template.
func (g *Generator) Render(b Bindings) types.Record {
	return g.tmpl.Render(b)
}

// BatchParams are the batch generation entry-point parameters.
type BatchParams struct {
	Count int
	// Start is the simulated-clock origin; zero means wall clock now.
	Start time.Time
	// IncludeFailures enables benign sign-in failure injection.
	IncludeFailures bool
	// ForceUser pins every record to the named user; lookup failure aborts.
	ForceUser string
	// ForceApp overrides the display application on every record.
	ForceApp string
	// ForceOperation pins every record to the named operation; lookup
	// failure aborts.
	ForceOperation string
	// IsAttack marks a scenario-driven batch: the service-principal coin
	// flip and failure injection are suppressed.
	IsAttack bool
}

// selection is one chosen (entity, operation) pair.
type selection struct {
	entity  types.Entity
	op      config.Operation
	isSPN   bool
	failure bool
}

// selectNext picks the actor and operation for the next record. ok=false
// asks the caller to redraw: the randomized path found no operation in the
// required class, which does not consume a record slot.
func (g *Generator) selectNext(p BatchParams) (sel selection, ok bool, err error) {
	if p.ForceUser == "" && !p.IsAttack {
		sel.isSPN = g.rng.Float64() < g.spnProbability
	}

	switch {
	case p.ForceUser != "":
		u, err := g.cfg.UserByID(p.ForceUser)
		if err != nil {
			return selection{}, false, err
		}
		sel.entity = u
		sel.isSPN = false
	case sel.isSPN:
		if len(g.cfg.ServicePrincipals) == 0 {
			return selection{}, false, fmt.Errorf("no service principals configured")
		}
		sel.entity = g.cfg.ServicePrincipals[g.rng.Intn(len(g.cfg.ServicePrincipals))]
	default:
		if len(g.cfg.Users) == 0 {
			return selection{}, false, fmt.Errorf("no users configured")
		}
		sel.entity = g.cfg.Users[g.rng.Intn(len(g.cfg.Users))]
	}

	if p.ForceOperation != "" {
		op, err := g.cfg.OperationByName(p.ForceOperation)
		if err != nil {
			return selection{}, false, err
		}
		sel.op = op
	} else {
		var pool []config.Operation
		for _, op := range g.cfg.Operations {
			if op.ServicePrincipalClass() == sel.isSPN {
				pool = append(pool, op)
			}
		}
		if len(pool) == 0 {
			return selection{}, false, nil
		}
		sel.op = pool[g.rng.Intn(len(pool))]
	}

	// Only benign interactive sign-ins by users are eligible for failure
	// injection.
	sel.failure = p.IncludeFailures &&
		!p.IsAttack &&
		!sel.isSPN &&
		sel.op.Name == config.OpInteractiveSignIn &&
		g.rng.Float64() < g.failureProbability

	return sel, true, nil
}

// Batch produces exactly p.Count records in non-decreasing timestamp order.
// Selector redraws consume neither a record slot nor timeline jitter.
func (g *Generator) Batch(p BatchParams) ([]types.Record, error) {
	start := p.Start
	if start.IsZero() {
		start = time.Now().UTC()
	}
	tl := newTimeline(start, g.jitterMin, g.jitterMax)

	records := make([]types.Record, 0, p.Count)
	retries := 0
	for len(records) < p.Count {
		sel, ok, err := g.selectNext(p)
		if err != nil {
			return nil, err
		}
		if !ok {
			retries++
			if retries >= maxPoolRetries {
				return nil, fmt.Errorf("no eligible operations after %d draws", maxPoolRetries)
			}
			continue
		}
		retries = 0

		b := g.Resolve(ResolveInput{
			Entity:      sel.entity,
			Operation:   sel.op,
			Timestamp:   tl.Now(),
			Failure:     sel.failure,
			AppOverride: p.ForceApp,
		})
		records = append(records, g.Render(b))
		tl.Advance(g.rng)
	}
	return records, nil
}

// Deliver sends rendered records to a destination in emission order.
func Deliver(ctx context.Context, dest kawa.Destination[types.Record], records ...types.Record) error {
	msgs := make([]kawa.Message[types.Record], len(records))
	for i, r := range records {
		msgs[i] = kawa.Message[types.Record]{Value: r}
	}
	return dest.Send(ctx, func() {}, msgs...)
}
