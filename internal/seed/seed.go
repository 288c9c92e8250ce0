// Package seed loads the synthetic catalog a fresh dashboard starts with.
package seed

import (
	"context"
	_ "embed"
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"qadash/internal/domain"
	"qadash/internal/store"
)

//go:embed seed.yaml
var defaultSeed []byte

type Data struct {
	Projects []domain.Project `yaml:"projects"`
	// Executions are listed newest first per project.
	Executions map[string][]domain.ExecutionSummary `yaml:"executions"`
	ActiveRuns []domain.ActiveRun                   `yaml:"active_runs"`
}

// Default returns the embedded seed.
func Default() (Data, error) {
	return Parse(defaultSeed)
}

func FromFile(path string) (Data, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Data{}, err
	}
	return Parse(data)
}

func Parse(data []byte) (Data, error) {
	var d Data
	if err := yaml.Unmarshal(data, &d); err != nil {
		return Data{}, fmt.Errorf("invalid seed yaml: %w", err)
	}
	return d, nil
}

// Load writes the seed into s. Seeded projects keep their own status, which
// AddProject alone would force to Active.
func (d Data) Load(ctx context.Context, s store.Store) error {
	for _, p := range d.Projects {
		if err := s.AddProject(ctx, p); err != nil {
			return fmt.Errorf("seed project %s: %w", p.ID, err)
		}
		if p.Status != "" && p.Status != domain.ProjectActive {
			status := p.Status
			if err := s.UpdateProject(ctx, p.ID, domain.ProjectPatch{Status: &status}); err != nil {
				return fmt.Errorf("seed project %s status: %w", p.ID, err)
			}
		}
	}
	projectIDs := make([]string, 0, len(d.Executions))
	for id := range d.Executions {
		projectIDs = append(projectIDs, id)
	}
	sort.Strings(projectIDs)
	for _, id := range projectIDs {
		list := d.Executions[id]
		// AddExecution prepends, so insert oldest first.
		for i := len(list) - 1; i >= 0; i-- {
			if err := s.AddExecution(ctx, id, list[i]); err != nil {
				return fmt.Errorf("seed execution %s: %w", list[i].ResultID, err)
			}
		}
	}
	return nil
}

// ActiveRunsFor returns the seeded active runs of projectID, or all of them
// when projectID is empty.
func (d Data) ActiveRunsFor(projectID string) []domain.ActiveRun {
	var res []domain.ActiveRun
	for _, r := range d.ActiveRuns {
		if projectID == "" || r.ProjectID == projectID {
			res = append(res, r)
		}
	}
	return res
}
