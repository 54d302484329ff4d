// Package config loads the immutable simulation inputs: users, service
// principals, the operations catalogue, organization settings, and the
// application-name map. Everything is read once at startup; a missing or
// malformed file is fatal before any output is produced.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/detectlab/entrasim/internal/types"
	"gopkg.in/yaml.v3"
)

// OpInteractiveSignIn is the only operation eligible for failure injection.
const OpInteractiveSignIn = "InteractiveUserSignIn"

// spnMarker splits the operations catalogue into the interactive and
// service-principal classes.
const spnMarker = "ServicePrincipal"

// Operation is one named audit event type from the catalogue.
type Operation struct {
	Name            string `yaml:"name"`
	AppDisplayName  string `yaml:"app_display_name"`
	AuthRequirement string `yaml:"auth_requirement"`
	MFARequired     bool   `yaml:"mfa_required"`
}

// ServicePrincipalClass reports whether the operation belongs to the
// service-principal class rather than the interactive class.
func (o Operation) ServicePrincipalClass() bool {
	return strings.Contains(o.Name, spnMarker)
}

// Org holds the per-run organization constants.
type Org struct {
	OrgID        string `yaml:"org_id"`
	RecordType   int    `yaml:"record_type"`
	ResultType   int    `yaml:"result_type"`
	ResultStatus string `yaml:"result_status"`
}

// Config is the loaded configuration store. Treat it as read-only after Load.
type Config struct {
	Users             []types.User
	ServicePrincipals []types.ServicePrincipal
	Operations        []Operation
	Org               Org
	Apps              map[string]string
}

// Paths names the individual config files to load.
type Paths struct {
	Users             string
	ServicePrincipals string
	Operations        string
	Org               string
	Apps              string
}

// DirPaths returns the conventional file layout under dir.
func DirPaths(dir string) Paths {
	return Paths{
		Users:             filepath.Join(dir, "users.yaml"),
		ServicePrincipals: filepath.Join(dir, "service_principals.yaml"),
		Operations:        filepath.Join(dir, "operations.yaml"),
		Org:               filepath.Join(dir, "org_config.yaml"),
		Apps:              filepath.Join(dir, "apps.yaml"),
	}
}

type userYAML struct {
	UserID       string   `yaml:"user_id"`
	Roles        []string `yaml:"roles"`
	IP           string   `yaml:"ip"`
	City         string   `yaml:"city"`
	Country      string   `yaml:"country"`
	ASN          string   `yaml:"asn"`
	ASNName      string   `yaml:"asn_name"`
	IsProxy      bool     `yaml:"is_proxy"`
	DeviceID     string   `yaml:"device_id"`
	OS           string   `yaml:"os"`
	Browser      string   `yaml:"browser"`
	UserAgent    string   `yaml:"user_agent"`
	EmailSender  string   `yaml:"email_sender"`
	EmailSubject string   `yaml:"email_subject"`
	EmailURL     string   `yaml:"email_url"`
}

type spnYAML struct {
	SPNID   string `yaml:"spn_id"`
	IP      string `yaml:"ip"`
	City    string `yaml:"city"`
	Country string `yaml:"country"`
	ASN     string `yaml:"asn"`
	ASNName string `yaml:"asn_name"`
	IsProxy bool   `yaml:"is_proxy"`
}

// Load reads and validates every configuration file.
func Load(p Paths) (*Config, error) {
	var users struct {
		Users []userYAML `yaml:"users"`
	}
	if err := loadYAML(p.Users, &users); err != nil {
		return nil, err
	}

	var spns struct {
		ServicePrincipals []spnYAML `yaml:"service_principals"`
	}
	if err := loadYAML(p.ServicePrincipals, &spns); err != nil {
		return nil, err
	}

	var ops struct {
		Operations []Operation `yaml:"operations"`
	}
	if err := loadYAML(p.Operations, &ops); err != nil {
		return nil, err
	}

	var org Org
	if err := loadYAML(p.Org, &org); err != nil {
		return nil, err
	}

	var apps struct {
		Apps map[string]string `yaml:"apps"`
	}
	if err := loadYAML(p.Apps, &apps); err != nil {
		return nil, err
	}

	cfg := &Config{
		Operations: ops.Operations,
		Org:        org,
		Apps:       apps.Apps,
	}
	for _, u := range users.Users {
		if u.UserID == "" {
			return nil, fmt.Errorf("config: user without user_id in %s", p.Users)
		}
		cfg.Users = append(cfg.Users, types.User{
			ID:    u.UserID,
			Roles: u.Roles,
			Net: types.Network{
				IP:      u.IP,
				City:    u.City,
				Country: u.Country,
				ASN:     u.ASN,
				ASNName: u.ASNName,
				IsProxy: u.IsProxy,
			},
			Dev: types.Device{
				DeviceID:  u.DeviceID,
				OS:        u.OS,
				Browser:   u.Browser,
				UserAgent: u.UserAgent,
			},
			Mail: types.MailContent{
				Sender:  u.EmailSender,
				Subject: u.EmailSubject,
				URL:     u.EmailURL,
			},
		})
	}
	for _, s := range spns.ServicePrincipals {
		if s.SPNID == "" {
			return nil, fmt.Errorf("config: service principal without spn_id in %s", p.ServicePrincipals)
		}
		cfg.ServicePrincipals = append(cfg.ServicePrincipals, types.ServicePrincipal{
			ID: s.SPNID,
			Net: types.Network{
				IP:      s.IP,
				City:    s.City,
				Country: s.Country,
				ASN:     s.ASN,
				ASNName: s.ASNName,
				IsProxy: s.IsProxy,
			},
		})
	}

	if err := cfg.validate(p); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadDir loads the conventional file layout under dir.
func LoadDir(dir string) (*Config, error) {
	return Load(DirPaths(dir))
}

// LoadTemplate reads the record template text from path.
func LoadTemplate(path string) ([]byte, error) {
	text, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: reading template: %w", err)
	}
	return text, nil
}

func loadYAML(path string, out any) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if err := yaml.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("config: parsing %s: %w", path, err)
	}
	return nil
}

func (c *Config) validate(p Paths) error {
	if len(c.Operations) == 0 {
		return fmt.Errorf("config: no operations defined in %s", p.Operations)
	}
	for _, op := range c.Operations {
		if op.Name == "" {
			return fmt.Errorf("config: operation without name in %s", p.Operations)
		}
	}
	if c.Org.OrgID == "" {
		return fmt.Errorf("config: org_id missing in %s", p.Org)
	}
	if c.Org.ResultStatus == "" {
		return fmt.Errorf("config: result_status missing in %s", p.Org)
	}
	return nil
}

// UserByID returns the user with the given identifier. A miss is a
// named-lookup failure: the caller forced a specific user.
func (c *Config) UserByID(id string) (types.User, error) {
	for _, u := range c.Users {
		if u.ID == id {
			return u, nil
		}
	}
	return types.User{}, fmt.Errorf("user %q not found", id)
}

// OperationByName returns the operation with the given name. A miss is a
// named-lookup failure: the caller forced a specific operation.
func (c *Config) OperationByName(name string) (Operation, error) {
	for _, op := range c.Operations {
		if op.Name == name {
			return op, nil
		}
	}
	return Operation{}, fmt.Errorf("operation %q not found", name)
}

// AppID maps an application display name to its identifier. Unknown names
// resolve to the zero-GUID sentinel rather than erroring.
func (c *Config) AppID(displayName string) string {
	if id, ok := c.Apps[displayName]; ok {
		return id
	}
	return types.ZeroAppID
}
