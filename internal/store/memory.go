package store

import (
	"context"
	"slices"
	"sync"

	"qadash/internal/domain"
)

// Memory is a map-backed Store.
type Memory struct {
	mu         sync.RWMutex
	projects   []domain.Project
	executions map[string][]domain.ExecutionSummary
	results    map[string]domain.ExecutionSummary
}

func NewMemory() *Memory {
	return &Memory{
		executions: make(map[string][]domain.ExecutionSummary),
		results:    make(map[string]domain.ExecutionSummary),
	}
}

func (m *Memory) ListProjects(ctx context.Context) ([]domain.Project, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	res := make([]domain.Project, len(m.projects))
	for i, p := range m.projects {
		res[i] = cloneProject(p)
	}
	return res, nil
}

func (m *Memory) GetProject(ctx context.Context, id string) (domain.Project, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, p := range m.projects {
		if p.ID == id {
			return cloneProject(p), nil
		}
	}
	return domain.Project{}, ErrNotFound
}

func (m *Memory) AddProject(ctx context.Context, p domain.Project) error {
	p = cloneProject(p)
	p.Status = domain.ProjectActive
	m.mu.Lock()
	m.projects = append(m.projects, p)
	m.mu.Unlock()
	return nil
}

func (m *Memory) UpdateProject(ctx context.Context, id string, patch domain.ProjectPatch) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, p := range m.projects {
		if p.ID == id {
			m.projects[i] = patch.Apply(p)
		}
	}
	return nil
}

func (m *Memory) ListExecutions(ctx context.Context, projectID string) ([]domain.ExecutionSummary, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Clone(m.executions[projectID]), nil
}

func (m *Memory) AddExecution(ctx context.Context, projectID string, e domain.ExecutionSummary) error {
	if e.ProjectID == "" {
		e.ProjectID = projectID
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.executions[projectID] = append([]domain.ExecutionSummary{e}, m.executions[projectID]...)
	if _, ok := m.results[e.ResultID]; !ok {
		m.results[e.ResultID] = e
	}
	return nil
}

func (m *Memory) FindExecution(ctx context.Context, resultID string) (domain.ExecutionSummary, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.results[resultID]
	if !ok {
		return domain.ExecutionSummary{}, ErrNotFound
	}
	return e, nil
}

func (m *Memory) Close() error { return nil }

func cloneProject(p domain.Project) domain.Project {
	if p.LastRun != nil {
		v := *p.LastRun
		p.LastRun = &v
	}
	return p
}
