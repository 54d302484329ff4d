package simulate

import (
	"testing"
	"time"

	"github.com/detectlab/entrasim/internal/config"
	"github.com/detectlab/entrasim/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBatchCountAndOrdering(t *testing.T) {
	g := newTestGenerator(t)
	start := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

	records, err := g.Batch(BatchParams{Count: 200, Start: start})
	require.NoError(t, err)
	require.Len(t, records, 200)

	prev := start
	for i, rec := range records {
		ts, err := time.Parse(time.RFC3339, rec.String("CreationTime"))
		require.NoError(t, err, "record %d", i)
		require.False(t, ts.Before(prev), "record %d timestamp went backwards", i)
		if i > 0 {
			delta := ts.Sub(prev)
			assert.GreaterOrEqual(t, delta, 15*time.Second)
			assert.LessOrEqual(t, delta, 45*time.Second)
		}
		prev = ts
	}
}

func TestBatchZeroCount(t *testing.T) {
	g := newTestGenerator(t)
	records, err := g.Batch(BatchParams{Count: 0})
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestBatchForcedFields(t *testing.T) {
	g := newTestGenerator(t)
	records, err := g.Batch(BatchParams{
		Count:          50,
		Start:          time.Now().UTC(),
		ForceUser:      "alice@contoso.com",
		ForceApp:       "Contoso Phish Portal",
		ForceOperation: "ConsentToApp",
	})
	require.NoError(t, err)
	require.Len(t, records, 50)

	for _, rec := range records {
		assert.Equal(t, "alice@contoso.com", rec.String("UserId"))
		assert.Equal(t, "ConsentToApp", rec.String("Operation"))
		assert.Equal(t, "Contoso Phish Portal", rec.String("AppDisplayName"))
		assert.Equal(t, types.ZeroAppID, rec.String("AppId"))
	}
}

func TestBatchNamedLookupFailures(t *testing.T) {
	g := newTestGenerator(t)

	_, err := g.Batch(BatchParams{Count: 1, ForceUser: "mallory@contoso.com"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mallory@contoso.com")

	_, err = g.Batch(BatchParams{Count: 1, ForceUser: "alice@contoso.com", ForceOperation: "NoSuchOp"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "NoSuchOp")
}

func TestFailureInjectionRate(t *testing.T) {
	g := newTestGenerator(t, WithSPNProbability(0))
	records, err := g.Batch(BatchParams{
		Count:           10000,
		Start:           time.Now().UTC(),
		IncludeFailures: true,
		ForceOperation:  "InteractiveUserSignIn",
	})
	require.NoError(t, err)

	failures := 0
	for _, rec := range records {
		if rec.String("ResultStatus") == "Failure" {
			failures++
		}
	}
	assert.InDelta(t, 0.15, float64(failures)/10000, 0.02)
}

func TestFailuresNeverOnOtherOperations(t *testing.T) {
	g := newTestGenerator(t, WithSPNProbability(0))
	records, err := g.Batch(BatchParams{
		Count:           500,
		Start:           time.Now().UTC(),
		IncludeFailures: true,
		ForceOperation:  "SendMail",
	})
	require.NoError(t, err)
	for _, rec := range records {
		assert.Equal(t, "Success", rec.String("ResultStatus"))
	}
}

func TestFailuresDisabledByDefault(t *testing.T) {
	g := newTestGenerator(t, WithSPNProbability(0))
	records, err := g.Batch(BatchParams{
		Count:          1000,
		Start:          time.Now().UTC(),
		ForceOperation: "InteractiveUserSignIn",
	})
	require.NoError(t, err)
	for _, rec := range records {
		assert.Equal(t, "Success", rec.String("ResultStatus"))
	}
}

func TestServicePrincipalRateAndShape(t *testing.T) {
	g := newTestGenerator(t)
	records, err := g.Batch(BatchParams{Count: 10000, Start: time.Now().UTC()})
	require.NoError(t, err)

	spn := 0
	for _, rec := range records {
		if rec["UserType"] == types.UserTypeServicePrincipal {
			spn++
			assert.Equal(t, []string{"ServicePrincipal"}, rec["Roles"])
			device := rec["DeviceDetail"].(map[string]any)
			assert.Equal(t, "spn-device", device["DeviceId"])
			assert.Equal(t, "Unknown", device["Browser"])
			assert.Equal(t, "AzureAD-Application", rec.String("UserAgent"))
		}
	}
	assert.InDelta(t, 0.20, float64(spn)/10000, 0.02)
}

func TestOperationClassMatchesActorKind(t *testing.T) {
	g := newTestGenerator(t)
	records, err := g.Batch(BatchParams{Count: 2000, Start: time.Now().UTC()})
	require.NoError(t, err)

	for _, rec := range records {
		op := config.Operation{Name: rec.String("Operation")}
		isSPN := rec["UserType"] == types.UserTypeServicePrincipal
		assert.Equal(t, isSPN, op.ServicePrincipalClass(),
			"operation class must match actor kind: %s", op.Name)
	}
}

func TestAttackRunSuppressesStochastic(t *testing.T) {
	g := newTestGenerator(t, WithFailureProbability(1.0))
	records, err := g.Batch(BatchParams{
		Count:           100,
		Start:           time.Now().UTC(),
		IncludeFailures: true,
		ForceUser:       "alice@contoso.com",
		ForceOperation:  "InteractiveUserSignIn",
		IsAttack:        true,
	})
	require.NoError(t, err)
	for _, rec := range records {
		assert.Equal(t, "Success", rec.String("ResultStatus"),
			"attack runs never take the failure-injection path")
	}
}

func TestPoolExhaustionIsBounded(t *testing.T) {
	cfg := testConfig()
	// Only service-principal-class operations remain, but the actor is a
	// forced user: every unforced draw finds an empty interactive pool.
	cfg.Operations = []config.Operation{
		{Name: "SignInWithServicePrincipal", AppDisplayName: "Azure Portal"},
	}
	g := New(cfg, loadTestTemplate(t), WithRand(NewRand(7)))

	_, err := g.Batch(BatchParams{Count: 1, ForceUser: "alice@contoso.com"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no eligible operations")
}

func TestEmptyEntityPoolIsFatal(t *testing.T) {
	cfg := testConfig()
	cfg.ServicePrincipals = nil
	g := New(cfg, loadTestTemplate(t), WithRand(NewRand(7)), WithSPNProbability(1.0))

	_, err := g.Batch(BatchParams{Count: 1})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no service principals")

	cfg = testConfig()
	cfg.Users = nil
	g = New(cfg, loadTestTemplate(t), WithRand(NewRand(7)), WithSPNProbability(0))

	_, err = g.Batch(BatchParams{Count: 1})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no users")
}

func TestBatchSeededReproducibility(t *testing.T) {
	start := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	g1 := New(testConfig(), loadTestTemplate(t), WithRand(NewRand(11)))
	g2 := New(testConfig(), loadTestTemplate(t), WithRand(NewRand(11)))

	r1, err := g1.Batch(BatchParams{Count: 25, Start: start, IncludeFailures: true})
	require.NoError(t, err)
	r2, err := g2.Batch(BatchParams{Count: 25, Start: start, IncludeFailures: true})
	require.NoError(t, err)
	assert.Equal(t, r1, r2)
}
