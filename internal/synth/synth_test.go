package synth_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"qadash/internal/domain"
	"qadash/internal/store"
	"qadash/internal/synth"
)

func newStore(t *testing.T) store.Store {
	t.Helper()
	ctx := context.Background()
	s := store.NewMemory()
	require.NoError(t, s.AddProject(ctx, domain.Project{ID: "FIN-001", Name: "Finance Ledger"}))
	require.NoError(t, s.AddExecution(ctx, "FIN-001", domain.ExecutionSummary{
		ResultID: "RES-PASS", ProjectID: "FIN-001", ExecutionDate: "2025-03-01T09:00:00Z",
		Status: domain.StatusPass, Duration: "4m 12s", Environment: "Production",
	}))
	require.NoError(t, s.AddExecution(ctx, "FIN-001", domain.ExecutionSummary{
		ResultID: "RES-FAIL", ProjectID: "FIN-001", ExecutionDate: "2025-03-02T09:00:00Z",
		Status: domain.StatusFail, Duration: "2m 03s", Environment: "UAT",
	}))
	require.NoError(t, s.AddExecution(ctx, "GHOST", domain.ExecutionSummary{
		ResultID: "RES-ORPHAN", ProjectID: "GHOST", ExecutionDate: "2025-03-03T09:00:00Z",
		Status: "pass", Duration: "1m", Environment: "Staging",
	}))
	return s
}

func TestGetResultDetailNotFound(t *testing.T) {
	syn := synth.New(newStore(t), synth.ModeRandom)
	_, err := syn.GetResultDetail(context.Background(), "RES-NOPE")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestGetResultDetailCopiesSummary(t *testing.T) {
	s := newStore(t)
	now := time.Date(2025, 4, 1, 8, 0, 0, 0, time.UTC)
	syn := synth.New(s, synth.ModeRandom)
	syn.Now = func() time.Time { return now }

	want, err := s.FindExecution(context.Background(), "RES-PASS")
	require.NoError(t, err)
	d, err := syn.GetResultDetail(context.Background(), "RES-PASS")
	require.NoError(t, err)

	assert.Equal(t, want, d.ExecutionSummary)
	assert.Equal(t, "Finance Ledger", d.ProjectName)
	assert.Equal(t, want.ExecutionDate, d.CompletedDate)
	assert.Len(t, d.Checkpoints, 3)
	assert.Len(t, d.Insights, 3)
	assert.Len(t, d.KnowledgeSources.DocumentReferences, 2)
	require.Len(t, d.KnowledgeSources.ExecutionLogs, 4)
	assert.Equal(t, "2025-04-01T08:00:00Z", d.KnowledgeSources.ExecutionLogs[0].Timestamp)
	assert.Equal(t, "2025-04-01T08:00:10Z", d.KnowledgeSources.ExecutionLogs[3].Timestamp)
}

func TestProjectNameFallsBackToID(t *testing.T) {
	syn := synth.New(newStore(t), synth.ModeRandom)
	d, err := syn.GetResultDetail(context.Background(), "RES-ORPHAN")
	require.NoError(t, err)
	assert.Equal(t, "GHOST", d.ProjectName)
}

func TestConfidenceRanges(t *testing.T) {
	syn := synth.New(newStore(t), synth.ModeRandom)
	ctx := context.Background()
	for i := 0; i < 200; i++ {
		pass, err := syn.GetResultDetail(ctx, "RES-PASS")
		require.NoError(t, err)
		assert.GreaterOrEqual(t, pass.OverallConfidence, synth.PassMin)
		assert.LessOrEqual(t, pass.OverallConfidence, synth.PassMax)

		// lower-case status still counts as Pass
		orphan, err := syn.GetResultDetail(ctx, "RES-ORPHAN")
		require.NoError(t, err)
		assert.GreaterOrEqual(t, orphan.OverallConfidence, synth.PassMin)

		fail, err := syn.GetResultDetail(ctx, "RES-FAIL")
		require.NoError(t, err)
		assert.GreaterOrEqual(t, fail.OverallConfidence, synth.OtherMin)
		assert.LessOrEqual(t, fail.OverallConfidence, synth.OtherMax)
	}
}

func TestConfidenceBoundsOfSource(t *testing.T) {
	syn := synth.New(newStore(t), synth.ModeRandom)
	ctx := context.Background()

	syn.Float64 = func() float64 { return 0 }
	d, err := syn.GetResultDetail(ctx, "RES-PASS")
	require.NoError(t, err)
	assert.Equal(t, 85.0, d.OverallConfidence)

	syn.Float64 = func() float64 { return 0.999999 }
	d, err = syn.GetResultDetail(ctx, "RES-FAIL")
	require.NoError(t, err)
	assert.Equal(t, 65.0, d.OverallConfidence)
}

func TestConfidenceVariesBetweenCalls(t *testing.T) {
	syn := synth.New(newStore(t), synth.ModeRandom)
	vals := []float64{0.1, 0.9}
	i := 0
	syn.Float64 = func() float64 { v := vals[i%len(vals)]; i++; return v }
	a, err := syn.GetResultDetail(context.Background(), "RES-PASS")
	require.NoError(t, err)
	b, err := syn.GetResultDetail(context.Background(), "RES-PASS")
	require.NoError(t, err)
	assert.NotEqual(t, a.OverallConfidence, b.OverallConfidence)
}

func TestCheckpointModeIsDeterministic(t *testing.T) {
	syn := synth.New(newStore(t), synth.ModeCheckpoints)
	ctx := context.Background()
	a, err := syn.GetResultDetail(ctx, "RES-PASS")
	require.NoError(t, err)
	b, err := syn.GetResultDetail(ctx, "RES-PASS")
	require.NoError(t, err)
	assert.Equal(t, a.OverallConfidence, b.OverallConfidence)
	assert.Equal(t, 98.5, a.OverallConfidence)

	fail, err := syn.GetResultDetail(ctx, "RES-FAIL")
	require.NoError(t, err)
	assert.Equal(t, synth.OtherMax, fail.OverallConfidence)
}
