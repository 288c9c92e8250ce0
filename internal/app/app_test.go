package app

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"qadash/internal/config"
	"qadash/internal/domain"
)

func TestBuildLoadsSeed(t *testing.T) {
	for _, driver := range []string{"memory", "sqlite"} {
		t.Run(driver, func(t *testing.T) {
			cfg := config.Default()
			cfg.Storage.Driver = driver
			a, err := Build(context.Background(), cfg, nil)
			require.NoError(t, err)
			defer a.Close()

			projects, err := a.Store.ListProjects(context.Background())
			require.NoError(t, err)
			assert.Len(t, projects, len(a.Seed.Projects))

			p, err := a.Store.GetProject(context.Background(), "MKT-003")
			require.NoError(t, err)
			assert.Equal(t, domain.ProjectArchived, p.Status)

			assert.NotEmpty(t, a.Runner.ActiveRuns("FIN-001"))
			_, err = a.Handler()
			require.NoError(t, err)
		})
	}
}

func TestBuildWithoutSeed(t *testing.T) {
	cfg := config.Default()
	cfg.Seed.Enabled = false
	cfg.Runs.Delay = time.Millisecond
	a, err := Build(context.Background(), cfg, nil)
	require.NoError(t, err)
	defer a.Close()

	projects, err := a.Store.ListProjects(context.Background())
	require.NoError(t, err)
	assert.Empty(t, projects)
	assert.Empty(t, a.Runner.ActiveRuns(""))
}

func TestBuildRejectsInvalidConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Storage.Driver = "redis"
	_, err := Build(context.Background(), cfg, nil)
	assert.Error(t, err)
}

func TestLoadSeedMissingFile(t *testing.T) {
	cfg := config.Default()
	cfg.Seed.File = "does-not-exist.yaml"
	_, err := LoadSeed(cfg)
	assert.Error(t, err)
}
