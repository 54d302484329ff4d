package scenario

import (
	"context"
	"os"
	"testing"

	"github.com/detectlab/entrasim/internal/config"
	"github.com/detectlab/entrasim/internal/simulate"
	"github.com/detectlab/entrasim/internal/types"
	"github.com/runreveal/kawa"
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
		},
		ServicePrincipals: []types.ServicePrincipal{
			{
				ID:  "backup-agent-prod",
				Net: types.Network{IP: "20.42.73.10", City: "Ashburn", Country: "US"},
			},
		},
		Operations: []config.Operation{
			{Name: "InteractiveUserSignIn", AppDisplayName: "Azure Portal", AuthRequirement: "SingleFactorAuthentication"},
			{Name: "TokenIssued", AppDisplayName: "Azure Portal", AuthRequirement: "SingleFactorAuthentication"},
			{Name: "ConsentToApp", AppDisplayName: "Azure Portal"},
			{Name: "MailReceived", AppDisplayName: "Exchange Online"},
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

func newTestGenerator(t *testing.T) *simulate.Generator {
	t.Helper()
	text, err := os.ReadFile("testdata/entra_template.json")
	require.NoError(t, err)
	tmpl, err := simulate.ParseTemplate(text)
	require.NoError(t, err)
	return simulate.New(testConfig(), tmpl, simulate.WithRand(simulate.NewRand(7)))
}

// captureDest collects delivered records in emission order.
type captureDest struct {
	records []types.Record
}

func (c *captureDest) Send(ctx context.Context, ack func(), msgs ...kawa.Message[types.Record]) error {
	for _, m := range msgs {
		c.records = append(c.records, m.Value)
	}
	if ack != nil {
		ack()
	}
	return nil
}
