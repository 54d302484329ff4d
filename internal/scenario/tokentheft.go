// Package scenario holds the attack-narrative injectors. Each one builds
// directly on the resolver and renderer, bypassing the stochastic selector:
// the records it emits are a fixed story, not background noise. Forced-name
// lookups that miss abort the injection with the offending name and produce
// no output.
package scenario

import (
	"context"
	"time"

	"github.com/detectlab/entrasim/internal/simulate"
	"github.com/detectlab/entrasim/internal/types"
	"github.com/runreveal/kawa"
)

// Attacker-controlled context layered over the victim's identity for the
// anomalous follow-up sign-in.
var (
	attackerNetwork = types.Network{
		IP:      "203.0.113.99",
		City:    "Moscow",
		Country: "RU",
		ASN:     "AS12389",
		ASNName: "Rostelecom",
		IsProxy: true,
	}
	attackerDevice = types.Device{
		DeviceID:  "device-attacker",
		OS:        "Kali Linux",
		Browser:   "Unknown",
		UserAgent: "curl/8.1.0",
	}
)

// signinDelay separates the legitimate token issuance from the attacker's
// sign-in with it.
const signinDelay = 3 * time.Minute

// TokenTheftParams configure the token-theft narrative.
type TokenTheftParams struct {
	UserID string
	// Start is the token-issuance time; zero means wall clock now.
	Start time.Time
}

// TokenTheft emits exactly two records for the same user identity: a
// legitimate token issuance, then an interactive sign-in three minutes later
// from a derived entity whose network and device context is
// attacker-controlled. Same identity, different physical context is the
// detectable signal.
func TokenTheft(ctx context.Context, g *simulate.Generator, p TokenTheftParams, dest kawa.Destination[types.Record]) error {
	user, err := g.Config().UserByID(p.UserID)
	if err != nil {
		return err
	}
	tokenOp, err := g.Config().OperationByName("TokenIssued")
	if err != nil {
		return err
	}
	signinOp, err := g.Config().OperationByName("InteractiveUserSignIn")
	if err != nil {
		return err
	}

	start := p.Start
	if start.IsZero() {
		start = time.Now().UTC()
	}

	tokenRecord := g.Render(g.Resolve(simulate.ResolveInput{
		Entity:    user,
		Operation: tokenOp,
		Timestamp: start,
	}))

	attacker := user
	attacker.Net = attackerNetwork
	attacker.Dev = attackerDevice

	signinRecord := g.Render(g.Resolve(simulate.ResolveInput{
		Entity:    attacker,
		Operation: signinOp,
		Timestamp: start.Add(signinDelay),
	}))

	return simulate.Deliver(ctx, dest, tokenRecord, signinRecord)
}
