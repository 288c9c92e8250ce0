package runner_test

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"qadash/internal/domain"
	"qadash/internal/events"
	"qadash/internal/runner"
	"qadash/internal/seed"
	"qadash/internal/store"
)

var fixedNow = time.Date(2025, 3, 14, 10, 30, 0, 0, time.UTC)

func setup(t *testing.T, opts runner.Options) (*runner.Runner, store.Store) {
	t.Helper()
	s := store.NewMemory()
	require.NoError(t, s.AddProject(context.Background(), domain.Project{ID: "MOB-001", Name: "Mobile Beta", Department: "Engineering"}))
	if opts.Delay == 0 {
		opts.Delay = time.Second
	}
	r := runner.New(s, opts)
	r.Now = func() time.Time { return fixedNow }
	r.Sleep = func(time.Duration) {}
	r.NewID = func() string { return "0a1b2c3d-4e5f-6789-abcd-ef0123456789" }
	return r, s
}

func TestTriggerRecordsExecution(t *testing.T) {
	log := events.NewLog(10)
	r, s := setup(t, runner.Options{Events: log})
	ctx := context.Background()

	sum, err := r.Trigger(ctx, "MOB-001", "jane.doe@x.com", domain.RunRequest{Environment: "UAT"})
	require.NoError(t, err)

	assert.Equal(t, "RES-20250314-0A1B2C3D", sum.ResultID)
	assert.Regexp(t, regexp.MustCompile(`^RES-\d{8}-[0-9A-F]{8}$`), sum.ResultID)
	assert.Equal(t, "MOB-001", sum.ProjectID)
	assert.Equal(t, "UAT", sum.Environment)
	assert.Equal(t, "2025-03-14T10:30:00Z", sum.ExecutionDate)
	assert.Regexp(t, `^\d+m \d{2}s$`, sum.Duration)

	history, err := s.ListExecutions(ctx, "MOB-001")
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, sum, history[0])

	found, err := s.FindExecution(ctx, sum.ResultID)
	require.NoError(t, err)
	assert.Equal(t, sum, found)

	p, err := s.GetProject(ctx, "MOB-001")
	require.NoError(t, err)
	assert.Equal(t, 1, p.TotalRuns)
	require.NotNil(t, p.LastRun)
	assert.Equal(t, sum.ExecutionDate, *p.LastRun)

	evts := log.Latest(0)
	require.Len(t, evts, 2)
	assert.Equal(t, events.RunCompleted, evts[0].Type)
	assert.Equal(t, events.RunTriggered, evts[1].Type)
	assert.Equal(t, sum.ResultID, evts[0].EntityID)

	assert.Empty(t, r.ActiveRuns("MOB-001"))
}

func TestTriggerDefaultsEnvironment(t *testing.T) {
	r, _ := setup(t, runner.Options{})
	sum, err := r.Trigger(context.Background(), "MOB-001", "", domain.RunRequest{})
	require.NoError(t, err)
	assert.Equal(t, "Production", sum.Environment)
}

func TestTriggerKeepsRequestedDay(t *testing.T) {
	r, _ := setup(t, runner.Options{})
	sum, err := r.Trigger(context.Background(), "MOB-001", "", domain.RunRequest{ExecutionDate: "2025-02-01"})
	require.NoError(t, err)
	assert.Equal(t, "2025-02-01T10:30:00Z", sum.ExecutionDate)

	_, err = r.Trigger(context.Background(), "MOB-001", "", domain.RunRequest{ExecutionDate: "yesterday"})
	assert.ErrorIs(t, err, runner.ErrInvalidRequest)
}

func TestTriggerUnknownProject(t *testing.T) {
	r, _ := setup(t, runner.Options{})
	_, err := r.Trigger(context.Background(), "NOPE", "", domain.RunRequest{})
	assert.True(t, errors.Is(err, store.ErrNotFound))
}

func TestTriggerIgnoresCancellation(t *testing.T) {
	r, s := setup(t, runner.Options{})
	ctx, cancel := context.WithCancel(context.Background())
	r.Sleep = func(time.Duration) { cancel() }

	sum, err := r.Trigger(ctx, "MOB-001", "", domain.RunRequest{})
	require.NoError(t, err)
	_, err = s.FindExecution(context.Background(), sum.ResultID)
	assert.NoError(t, err)
}

func TestActiveRunsDuringDelay(t *testing.T) {
	static := []domain.ActiveRun{
		{ResultID: "RES-STATIC", ProjectID: "MOB-001", Status: domain.RunPending, Progress: 10},
		{ResultID: "RES-OTHER", ProjectID: "FIN-001", Status: domain.RunRunning, Progress: 40},
	}
	r, _ := setup(t, runner.Options{Static: seed.Data{ActiveRuns: static}.ActiveRunsFor, Delay: 2 * time.Second})
	var during []domain.ActiveRun
	r.Sleep = func(time.Duration) {
		r.Now = func() time.Time { return fixedNow.Add(time.Second) }
		during = r.ActiveRuns("MOB-001")
	}

	sum, err := r.Trigger(context.Background(), "MOB-001", "", domain.RunRequest{})
	require.NoError(t, err)

	require.Len(t, during, 2)
	assert.Equal(t, sum.ResultID, during[0].ResultID)
	assert.Equal(t, domain.RunRunning, during[0].Status)
	assert.Equal(t, 50, during[0].Progress)
	require.NotNil(t, during[0].StartTime)
	assert.Equal(t, "2025-03-14T10:30:00Z", *during[0].StartTime)
	assert.Equal(t, "RES-STATIC", during[1].ResultID)

	after := r.ActiveRuns("MOB-001")
	require.Len(t, after, 1)
	assert.Equal(t, "RES-STATIC", after[0].ResultID)
	assert.Len(t, r.ActiveRuns(""), 2)
}

func TestOutcomeWeights(t *testing.T) {
	r, _ := setup(t, runner.Options{Outcomes: map[string]int{domain.StatusFail: 1, domain.StatusPass: 0}})
	for i := 0; i < 5; i++ {
		sum, err := r.Trigger(context.Background(), "MOB-001", "", domain.RunRequest{})
		require.NoError(t, err)
		assert.Equal(t, domain.StatusFail, sum.Status)
	}
}

func TestTotalRunsCountsEveryTrigger(t *testing.T) {
	r, s := setup(t, runner.Options{})
	ids := 0
	r.NewID = func() string {
		ids++
		return []string{"aaaaaaaa", "bbbbbbbb", "cccccccc"}[ids-1]
	}
	for i := 0; i < 3; i++ {
		_, err := r.Trigger(context.Background(), "MOB-001", "", domain.RunRequest{})
		require.NoError(t, err)
	}
	p, err := s.GetProject(context.Background(), "MOB-001")
	require.NoError(t, err)
	assert.Equal(t, 3, p.TotalRuns)
	history, err := s.ListExecutions(context.Background(), "MOB-001")
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.Equal(t, "RES-20250314-CCCCCCCC", history[0].ResultID)
}
