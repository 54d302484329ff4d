package scenario

import (
	"context"
	"fmt"
	"time"

	"github.com/detectlab/entrasim/internal/simulate"
	"github.com/detectlab/entrasim/internal/types"
	"github.com/runreveal/kawa"
)

// ConsentShape selects the record layout a consumer's detection-rule format
// expects. Both shapes carry the same semantic content.
type ConsentShape string

const (
	// ShapeFlat is the canonical layout: scope details at the top level and
	// mirrored into AdditionalDetails key/value pairs.
	ShapeFlat ConsentShape = "flat"
	// ShapeNested groups the grant under a single Consent object.
	ShapeNested ConsentShape = "nested"
)

// ParseConsentShape validates a shape name from the CLI.
func ParseConsentShape(s string) (ConsentShape, error) {
	switch ConsentShape(s) {
	case ShapeFlat, ShapeNested:
		return ConsentShape(s), nil
	default:
		return "", fmt.Errorf("unknown consent shape %q", s)
	}
}

const (
	defaultConsentAppID   = "10000000-dead-beef-baad-ph1shp0rtal"
	defaultConsentAppName = "Contoso Phish Portal"
	defaultConsentScopes  = "Mail.ReadWrite, offline_access, MailboxSettings.ReadWrite"
)

// OAuthConsentParams configure the malicious-consent narrative.
type OAuthConsentParams struct {
	UserID  string
	AppName string
	AppID   string
	Scopes  string
	Shape   ConsentShape
	// When is the consent time; zero means wall clock now.
	When time.Time
}

func (p *OAuthConsentParams) applyDefaults() {
	if p.AppName == "" {
		p.AppName = defaultConsentAppName
	}
	if p.AppID == "" {
		p.AppID = defaultConsentAppID
	}
	if p.Scopes == "" {
		p.Scopes = defaultConsentScopes
	}
	if p.Shape == "" {
		p.Shape = ShapeFlat
	}
}

// OAuthConsent emits a single consent-grant record naming an
// attacker-controlled application with an overscoped permission grant.
func OAuthConsent(ctx context.Context, g *simulate.Generator, p OAuthConsentParams, dest kawa.Destination[types.Record]) error {
	p.applyDefaults()

	user, err := g.Config().UserByID(p.UserID)
	if err != nil {
		return err
	}
	consentOp, err := g.Config().OperationByName("ConsentToApp")
	if err != nil {
		return err
	}

	when := p.When
	if when.IsZero() {
		when = time.Now().UTC()
	}

	record := g.Render(g.Resolve(simulate.ResolveInput{
		Entity:      user,
		Operation:   consentOp,
		Timestamp:   when,
		AppOverride: p.AppName,
	}))

	// The rogue app is never in the application map, so the resolver left
	// the zero-GUID sentinel; name the attacker app explicitly.
	record["AppId"] = p.AppID
	record["AppDisplayName"] = p.AppName
	record["Resource"] = "Application"

	switch p.Shape {
	case ShapeNested:
		record["Consent"] = map[string]any{
			"AppId":          p.AppID,
			"AppDisplayName": p.AppName,
			"Scopes":         p.Scopes,
			"ConsentType":    "User",
		}
	default:
		record["ScopeDetails"] = p.Scopes
		details, _ := record["AdditionalDetails"].([]any)
		details = append(details,
			map[string]any{"Key": "RequestedScopes", "Value": p.Scopes},
			map[string]any{"Key": "ConsentType", "Value": "User"},
		)
		record["AdditionalDetails"] = details
	}

	return simulate.Deliver(ctx, dest, record)
}
