package seed

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"qadash/internal/domain"
	"qadash/internal/store"
)

func TestDefaultSeedLoads(t *testing.T) {
	d, err := Default()
	require.NoError(t, err)
	require.NotEmpty(t, d.Projects)

	ctx := context.Background()
	s := store.NewMemory()
	require.NoError(t, d.Load(ctx, s))

	projects, err := s.ListProjects(ctx)
	require.NoError(t, err)
	require.Len(t, projects, len(d.Projects))
	for i, p := range projects {
		assert.Equal(t, d.Projects[i].ID, p.ID)
		assert.Equal(t, d.Projects[i].Status, p.Status, "seed keeps status of %s", p.ID)
	}

	for id, want := range d.Executions {
		got, err := s.ListExecutions(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, want, got, "history of %s keeps seed order", id)
		for _, e := range want {
			found, err := s.FindExecution(ctx, e.ResultID)
			require.NoError(t, err)
			assert.Equal(t, e, found)
		}
	}
}

func TestSeedTotalsMatchHistory(t *testing.T) {
	d, err := Default()
	require.NoError(t, err)
	for _, p := range d.Projects {
		assert.Equal(t, len(d.Executions[p.ID]), p.TotalRuns, p.ID)
	}
}

func TestActiveRunsFor(t *testing.T) {
	d, err := Default()
	require.NoError(t, err)
	for _, r := range d.ActiveRunsFor("FIN-001") {
		assert.Equal(t, "FIN-001", r.ProjectID)
	}
	assert.Len(t, d.ActiveRunsFor(""), len(d.ActiveRuns))
	assert.Empty(t, d.ActiveRunsFor("NOPE"))
}

func TestParseRejectsGarbage(t *testing.T) {
	_, err := Parse([]byte("projects: {"))
	assert.Error(t, err)
}

func TestSeedStatusesAreKnown(t *testing.T) {
	d, err := Default()
	require.NoError(t, err)
	for _, p := range d.Projects {
		assert.Contains(t, domain.ProjectStatuses, p.Status)
	}
}
