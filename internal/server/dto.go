package server

import (
	"strings"

	"qadash/internal/catalog"
	"qadash/internal/domain"
)

// Request payloads

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type CreateProjectRequest struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Department  string `json:"department,omitempty"`
	Domain      string `json:"domain,omitempty"`
	Description string `json:"description,omitempty"`
}

type UpdateProjectRequest struct {
	Name        *string `json:"name,omitempty"`
	Department  *string `json:"department,omitempty"`
	Domain      *string `json:"domain,omitempty"`
	Status      *string `json:"status,omitempty" enum:"Active,Draft,Archived"`
	Description *string `json:"description,omitempty"`
}

// Response payloads

type LoginResponse struct {
	Token string      `json:"token"`
	User  domain.User `json:"user"`
}

type HistoryResponse struct {
	Project    domain.Project            `json:"project"`
	Stats      catalog.Stats             `json:"stats"`
	ActiveRuns []domain.ActiveRun        `json:"active_runs"`
	Executions []domain.ExecutionSummary `json:"executions"`
}

func (r CreateProjectRequest) project() domain.Project {
	return domain.Project{
		ID:          strings.TrimSpace(r.ID),
		Name:        strings.TrimSpace(r.Name),
		Department:  r.Department,
		Domain:      r.Domain,
		Status:      domain.ProjectActive,
		Description: r.Description,
	}
}

func (r UpdateProjectRequest) patch() domain.ProjectPatch {
	return domain.ProjectPatch{
		Name:        r.Name,
		Department:  r.Department,
		Domain:      r.Domain,
		Status:      r.Status,
		Description: r.Description,
	}
}

func nonNilSlice[T any](in []T) []T {
	if in == nil {
		return []T{}
	}
	return in
}
