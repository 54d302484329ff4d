package simulate

import (
	"time"

	"github.com/detectlab/entrasim/internal/config"
	"github.com/detectlab/entrasim/internal/types"
	"github.com/google/uuid"
)

// Bindings maps placeholder names to resolved values. Values keep their
// native types (ints, bools, string slices) so the renderer can emit typed
// fields.
type Bindings map[string]any

// Canned phishing-content fallbacks for users without mail metadata. Scenario
// injectors rely on these so they can omit fields they don't care about.
const (
	fallbackMailSender  = "attacker@evil.com"
	fallbackMailSubject = "Security Notice: Action Required"
	fallbackMailURL     = "https://login.microsoftonline.com-reset-verify.com"
)

// Fixed placeholders for service-principal records. SPN records never carry
// meaningful interactive-only fields.
const (
	spnUserAgent = "AzureAD-Application"
	spnDeviceID  = "spn-device"
	spnUnknown   = "Unknown"
)

const workloadAzureAD = "AzureActiveDirectory"

// operationResources maps operation names to the resource kind they act on.
// Operations absent from the map resolve to "Unknown".
var operationResources = map[string]string{
	"InteractiveUserSignIn":      "UserAccount",
	"TokenIssued":                "UserAccount",
	"SendMail":                   "MailItem",
	"FileAccessed":               "File",
	"AddMemberToGroup":           "Group",
	"RemoveMemberFromGroup":      "Group",
	"CreateTeam":                 "Team",
	"DeleteFile":                 "File",
	"DownloadFile":               "File",
	"ViewSharePointPage":         "Page",
	"UpdateCalendar":             "CalendarEvent",
	"ShareFile":                  "File",
	"CreateChannel":              "Channel",
	"JoinMeeting":                "Meeting",
	"CreateUser":                 "UserAccount",
	"DeleteUser":                 "UserAccount",
	"ResetPassword":              "UserAccount",
	"AddServicePrincipal":        "ServicePrincipal",
	"SignInWithServicePrincipal": "ServicePrincipal",
	"ConsentToApp":               "UserAccount",
}

// ResourceKind returns the resource kind an operation acts on.
func ResourceKind(operation string) string {
	if kind, ok := operationResources[operation]; ok {
		return kind
	}
	return spnUnknown
}

// ResolveInput names one logical event to bind.
type ResolveInput struct {
	Entity    types.Entity
	Operation config.Operation
	Timestamp time.Time
	Failure   bool
	// AppOverride substitutes the operation's display application.
	AppOverride string
	// EventID threads an explicit identifier through; empty draws a fresh
	// one from the run's random source.
	EventID string
}

// Resolve computes the full placeholder-binding set for one event. A
// malformed entity is a caller defect, not a runtime condition: the entity
// kinds are sealed, so the switch below is exhaustive.
func (g *Generator) Resolve(in ResolveInput) Bindings {
	resultStatus := g.cfg.Org.ResultStatus
	if in.Failure {
		resultStatus = "Failure"
	}

	appDisplay := in.Operation.AppDisplayName
	if in.AppOverride != "" {
		appDisplay = in.AppOverride
	}

	eventID := in.EventID
	if eventID == "" {
		eventID = g.NewEventID()
	}

	authRequirement := in.Operation.AuthRequirement
	if authRequirement == "" {
		authRequirement = "None"
	}

	b := Bindings{
		"timestamp":        in.Timestamp.UTC().Format(time.RFC3339),
		"operation":        in.Operation.Name,
		"org_id":           g.cfg.Org.OrgID,
		"record_type":      g.cfg.Org.RecordType,
		"result_type":      g.cfg.Org.ResultType,
		"workload":         workloadAzureAD,
		"result_status":    resultStatus,
		"app_id":           g.cfg.AppID(appDisplay),
		"app_display_name": appDisplay,
		"event_id":         eventID,
		"auth_requirement": authRequirement,
		"mfa_required":     in.Operation.MFARequired,
		"resource":         ResourceKind(in.Operation.Name),
		"email_sender":     fallbackMailSender,
		"email_subject":    fallbackMailSubject,
		"email_url":        fallbackMailURL,
	}

	switch e := in.Entity.(type) {
	case types.User:
		roles := e.Roles
		if roles == nil {
			roles = []string{}
		}
		userType := types.UserTypeMember
		for _, r := range roles {
			if r == "guest" {
				userType = types.UserTypeGuest
			}
		}
		b["user_id"] = e.ID
		b["user_type"] = userType
		b["roles"] = roles
		b["client_ip"] = e.Net.IP
		b["city"] = e.Net.City
		b["country"] = e.Net.Country
		b["asn_number"] = e.Net.ASN
		b["asn_name"] = e.Net.ASNName
		b["is_proxy"] = e.Net.IsProxy
		b["device_id"] = e.Dev.DeviceID
		b["os"] = e.Dev.OS
		b["browser"] = e.Dev.Browser
		b["user_agent"] = e.Dev.UserAgent
		if e.Mail.Sender != "" {
			b["email_sender"] = e.Mail.Sender
		}
		if e.Mail.Subject != "" {
			b["email_subject"] = e.Mail.Subject
		}
		if e.Mail.URL != "" {
			b["email_url"] = e.Mail.URL
		}
	case types.ServicePrincipal:
		b["user_id"] = e.ID
		b["user_type"] = types.UserTypeServicePrincipal
		b["roles"] = []string{"ServicePrincipal"}
		b["client_ip"] = e.Net.IP
		b["city"] = e.Net.City
		b["country"] = e.Net.Country
		b["asn_number"] = e.Net.ASN
		b["asn_name"] = e.Net.ASNName
		b["is_proxy"] = e.Net.IsProxy
		b["device_id"] = spnDeviceID
		b["os"] = spnUnknown
		b["browser"] = spnUnknown
		b["user_agent"] = spnUserAgent
	}

	return b
}

// NewEventID draws a fresh event identifier from the run's random source, so
// a seeded run renders reproducible identifiers.
func (g *Generator) NewEventID() string {
	return uuid.Must(uuid.NewRandomFromReader(g.rng)).String()
}
