// Package store holds the project catalog and each project's execution history.
package store

import (
	"context"
	"errors"
	"fmt"

	"qadash/internal/domain"
)

var ErrNotFound = errors.New("not found")

// Store is the project catalog. Lookups on missing keys return empty results;
// ErrNotFound is reserved for single-item gets.
type Store interface {
	// ListProjects returns projects in insertion order.
	ListProjects(ctx context.Context) ([]domain.Project, error)
	// GetProject returns the first project registered under id.
	GetProject(ctx context.Context, id string) (domain.Project, error)
	// AddProject appends p with its status forced to Active. Duplicate ids are accepted.
	AddProject(ctx context.Context, p domain.Project) error
	// UpdateProject merges patch into every project registered under id; missing ids are a no-op.
	UpdateProject(ctx context.Context, id string, patch domain.ProjectPatch) error
	// ListExecutions returns the project's executions newest first.
	ListExecutions(ctx context.Context, projectID string) ([]domain.ExecutionSummary, error)
	// AddExecution prepends e to the project's list and indexes its result id.
	AddExecution(ctx context.Context, projectID string, e domain.ExecutionSummary) error
	// FindExecution resolves a result id through the index; the first registration wins.
	FindExecution(ctx context.Context, resultID string) (domain.ExecutionSummary, error)
	Close() error
}

const (
	DriverMemory = "memory"
	DriverSQLite = "sqlite"
)

// Open returns the Store for driver. dsn is only used by the sqlite driver.
func Open(ctx context.Context, driver, dsn string) (Store, error) {
	switch driver {
	case "", DriverMemory:
		return NewMemory(), nil
	case DriverSQLite:
		return OpenSQL(ctx, dsn)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", driver)
	}
}
