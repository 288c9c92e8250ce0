package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"qadash/internal/db"
	"qadash/internal/domain"
	"qadash/internal/migrate"
)

// SQL is a Store backed by SQLite. Insertion order comes from the rowid
// sequence, so prepending an execution is an ordinary insert.
type SQL struct {
	DB *sql.DB
}

// OpenSQL opens dsn (in-memory when empty) and applies migrations.
func OpenSQL(ctx context.Context, dsn string) (*SQL, error) {
	conn, err := db.Open(db.Config{DSN: dsn})
	if err != nil {
		return nil, err
	}
	if _, err := migrate.Migrate(ctx, conn); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &SQL{DB: conn}, nil
}

const projectColumns = `id,name,department,domain,status,COALESCE(description,''),last_run,total_runs`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProject(row rowScanner) (domain.Project, error) {
	var p domain.Project
	var lastRun sql.NullString
	if err := row.Scan(&p.ID, &p.Name, &p.Department, &p.Domain, &p.Status, &p.Description, &lastRun, &p.TotalRuns); err != nil {
		return p, err
	}
	if lastRun.Valid {
		p.LastRun = &lastRun.String
	}
	return p, nil
}

func (s *SQL) ListProjects(ctx context.Context) ([]domain.Project, error) {
	rows, err := s.DB.QueryContext(ctx, `SELECT `+projectColumns+` FROM projects ORDER BY seq`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	res := []domain.Project{}
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, p)
	}
	return res, rows.Err()
}

func (s *SQL) GetProject(ctx context.Context, id string) (domain.Project, error) {
	p, err := scanProject(s.DB.QueryRowContext(ctx, `SELECT `+projectColumns+` FROM projects WHERE id=? ORDER BY seq LIMIT 1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return p, ErrNotFound
	}
	return p, err
}

func (s *SQL) AddProject(ctx context.Context, p domain.Project) error {
	_, err := s.DB.ExecContext(ctx, `INSERT INTO projects(id,name,department,domain,status,description,last_run,total_runs) VALUES (?,?,?,?,?,?,?,?)`,
		p.ID, p.Name, p.Department, p.Domain, domain.ProjectActive, nullable(p.Description), nullableStringPtr(p.LastRun), p.TotalRuns)
	if err != nil {
		return fmt.Errorf("insert project: %w", err)
	}
	return nil
}

func (s *SQL) UpdateProject(ctx context.Context, id string, patch domain.ProjectPatch) error {
	var (
		fields []string
		args   []any
	)
	set := func(col string, v any) {
		fields = append(fields, col+"=?")
		args = append(args, v)
	}
	if patch.Name != nil {
		set("name", *patch.Name)
	}
	if patch.Department != nil {
		set("department", *patch.Department)
	}
	if patch.Domain != nil {
		set("domain", *patch.Domain)
	}
	if patch.Status != nil {
		set("status", *patch.Status)
	}
	if patch.Description != nil {
		set("description", nullable(*patch.Description))
	}
	if patch.LastRun != nil {
		set("last_run", *patch.LastRun)
	}
	if patch.TotalRuns != nil {
		set("total_runs", *patch.TotalRuns)
	}
	if len(fields) == 0 {
		return nil
	}
	args = append(args, id)
	_, err := s.DB.ExecContext(ctx, fmt.Sprintf(`UPDATE projects SET %s WHERE id=?`, strings.Join(fields, ",")), args...)
	return err
}

const executionColumns = `result_id,project_id,execution_date,status,duration,environment`

func scanExecution(row rowScanner) (domain.ExecutionSummary, error) {
	var e domain.ExecutionSummary
	err := row.Scan(&e.ResultID, &e.ProjectID, &e.ExecutionDate, &e.Status, &e.Duration, &e.Environment)
	return e, err
}

func (s *SQL) ListExecutions(ctx context.Context, projectID string) ([]domain.ExecutionSummary, error) {
	rows, err := s.DB.QueryContext(ctx, `SELECT `+executionColumns+` FROM executions WHERE list_project_id=? ORDER BY seq DESC`, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	res := []domain.ExecutionSummary{}
	for rows.Next() {
		e, err := scanExecution(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, e)
	}
	return res, rows.Err()
}

func (s *SQL) AddExecution(ctx context.Context, projectID string, e domain.ExecutionSummary) error {
	if e.ProjectID == "" {
		e.ProjectID = projectID
	}
	_, err := s.DB.ExecContext(ctx, `INSERT INTO executions(list_project_id,result_id,project_id,execution_date,status,duration,environment) VALUES (?,?,?,?,?,?,?)`,
		projectID, e.ResultID, e.ProjectID, e.ExecutionDate, e.Status, e.Duration, e.Environment)
	if err != nil {
		return fmt.Errorf("insert execution: %w", err)
	}
	return nil
}

func (s *SQL) FindExecution(ctx context.Context, resultID string) (domain.ExecutionSummary, error) {
	e, err := scanExecution(s.DB.QueryRowContext(ctx, `SELECT `+executionColumns+` FROM executions WHERE result_id=? ORDER BY seq LIMIT 1`, resultID))
	if errors.Is(err, sql.ErrNoRows) {
		return e, ErrNotFound
	}
	return e, err
}

func (s *SQL) Close() error {
	return s.DB.Close()
}

func nullable(v string) any {
	if v == "" {
		return nil
	}
	return v
}

func nullableStringPtr(v *string) any {
	if v == nil || *v == "" {
		return nil
	}
	return *v
}
