package simulate

import (
	"os"
	"testing"

	"github.com/detectlab/entrasim/internal/config"
	"github.com/detectlab/entrasim/internal/types"
	"github.com/stretchr/testify/require"
)

func testConfig() *config.Config {
	return &config.Config{
		Users: []types.User{
			{
				ID:    "alice@contoso.com",
				Roles: []string{"employee"},
				Net: types.Network{
					IP: "40.126.32.8", City: "New York", Country: "US",
					ASN: "AS7018", ASNName: "ATT-INTERNET4",
				},
				Dev: types.Device{
					DeviceID: "device-001", OS: "Windows 11", Browser: "Edge",
					UserAgent: "Mozilla/5.0 test agent",
				},
			},
			{
				ID:    "carol@partner.example",
				Roles: []string{"guest"},
				Net: types.Network{
					IP: "81.2.69.142", City: "London", Country: "GB",
					ASN: "AS2856", ASNName: "BT-UK-AS", IsProxy: true,
				},
				Dev: types.Device{
					DeviceID: "device-003", OS: "Windows 10", Browser: "Chrome",
					UserAgent: "Mozilla/5.0 guest agent",
				},
				Mail: types.MailContent{
					Sender:  "phisher@evil.example",
					Subject: "Invoice overdue",
					URL:     "https://evil.example/pay",
				},
			},
		},
		ServicePrincipals: []types.ServicePrincipal{
			{
				ID: "backup-agent-prod",
				Net: types.Network{
					IP: "20.42.73.10", City: "Ashburn", Country: "US",
					ASN: "AS8075", ASNName: "MICROSOFT-CORP-MSN-AS-BLOCK",
				},
			},
		},
		Operations: []config.Operation{
			{Name: "InteractiveUserSignIn", AppDisplayName: "Azure Portal", AuthRequirement: "SingleFactorAuthentication"},
			{Name: "TokenIssued", AppDisplayName: "Azure Portal", AuthRequirement: "SingleFactorAuthentication"},
			{Name: "SendMail", AppDisplayName: "Exchange Online"},
			{Name: "ConsentToApp", AppDisplayName: "Azure Portal"},
			{Name: "SignInWithServicePrincipal", AppDisplayName: "Azure Portal"},
		},
		Org: config.Org{
			OrgID:        "67aaf9b4-57b8-4ca6-b68c-2274d63ff1b0",
			RecordType:   15,
			ResultType:   0,
			ResultStatus: "Success",
		},
		Apps: map[string]string{
			"Azure Portal":    "c44b4083-3bb0-49c1-b47d-974e53cbdf3c",
			"Exchange Online": "029f5f70-1642-2096-26f6-00cc4012391f",
		},
	}
}

func loadTestTemplate(t *testing.T) *Template {
	t.Helper()
	text, err := os.ReadFile("testdata/entra_template.json")
	require.NoError(t, err)
	tmpl, err := ParseTemplate(text)
	require.NoError(t, err)
	return tmpl
}

func newTestGenerator(t *testing.T, opts ...Option) *Generator {
	t.Helper()
	opts = append([]Option{WithRand(NewRand(7))}, opts...)
	return New(testConfig(), loadTestTemplate(t), opts...)
}

// scriptRand replays fixed draws so selection paths can be pinned in tests.
type scriptRand struct {
	floats []float64
	ints   []int
	fi, ii int
}

func (s *scriptRand) Float64() float64 {
	v := s.floats[s.fi%len(s.floats)]
	s.fi++
	return v
}

func (s *scriptRand) Intn(n int) int {
	v := s.ints[s.ii%len(s.ints)]
	s.ii++
	return v % n
}

func (s *scriptRand) Read(p []byte) (int, error) {
	for i := range p {
		p[i] = 0x42
	}
	return len(p), nil
}
