package types

// Record is one rendered audit-log event. Its shape follows the record
// template the engine was loaded with, so it stays map-shaped rather than
// being a fixed struct. Records are built whole and never mutated after
// emission.
type Record map[string]any

// Clone returns a shallow copy of the top level of the record. Scenario
// injectors use it before layering overrides onto a rendered base.
func (r Record) Clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// String returns the named top-level field if it holds a string, else "".
func (r Record) String(key string) string {
	s, _ := r[key].(string)
	return s
}

// User-type codes carried in the UserType field of emitted records.
const (
	UserTypeMember           = 0
	UserTypeGuest            = 10
	UserTypeServicePrincipal = 2
)

// ZeroAppID is the sentinel application identifier used when a display name
// has no entry in the application map.
const ZeroAppID = "00000000-0000-0000-0000-000000000000"

// Network is the connection context shared by every entity kind.
type Network struct {
	IP      string
	City    string
	Country string
	ASN     string
	ASNName string
	IsProxy bool
}

// Device describes the client device of an interactive user.
type Device struct {
	DeviceID  string
	OS        string
	Browser   string
	UserAgent string
}

// MailContent carries optional per-user phishing-mail fields. Zero values
// fall back to canned content at resolution time.
type MailContent struct {
	Sender  string
	Subject string
	URL     string
}

// Entity is the actor behind a record: a User or a ServicePrincipal.
// The interface is sealed so the resolver can switch over the two kinds
// exhaustively.
type Entity interface {
	EntityID() string
	Network() Network
	isEntity()
}

// User is an interactive identity. Values are copied freely; scenario
// injectors derive variants with overridden network or device context while
// keeping the same ID.
type User struct {
	ID    string
	Roles []string
	Net   Network
	Dev   Device
	Mail  MailContent
}

func (u User) EntityID() string { return u.ID }
func (u User) Network() Network { return u.Net }
func (User) isEntity()          {}

// ServicePrincipal is a non-interactive application identity.
type ServicePrincipal struct {
	ID  string
	Net Network
}

func (s ServicePrincipal) EntityID() string { return s.ID }
func (s ServicePrincipal) Network() Network { return s.Net }
func (ServicePrincipal) isEntity()          {}
