package server

import (
	"context"
	"net/http"
	"strings"

	"github.com/danielgtaylor/huma/v2"

	"qadash/internal/catalog"
	"qadash/internal/domain"
	"qadash/internal/events"
	"qadash/internal/session"
)

func (h *handler) registerAuth(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "login",
		Method:      http.MethodPost,
		Path:        "/auth/login",
		Summary:     "Log in and mint a bearer token",
		Errors: []int{
			http.StatusBadRequest,
			http.StatusInternalServerError,
		},
	}, func(ctx context.Context, input *struct {
		Body LoginRequest `json:"body"`
	}) (*struct {
		Body LoginResponse `json:"body"`
	}, error) {
		if len(bodyBytes(ctx)) == 0 {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "body required", nil)
		}
		s := session.NewStore(h.Sessions.Options())
		if !s.Login(strings.TrimSpace(input.Body.Email), input.Body.Password) {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "email and password are required", nil)
		}
		u, _ := s.CurrentUser()
		token, err := h.Tokens.Issue(u)
		if err != nil {
			return nil, newAPIError(http.StatusInternalServerError, "internal_error", err.Error(), nil)
		}
		h.Metrics.LoggedIn()
		h.Events.Append(events.UserLogin, "", u.ID, u.ID, events.Payload{"source": "api"})
		return &struct {
			Body LoginResponse `json:"body"`
		}{Body: LoginResponse{Token: token, User: u}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "me",
		Method:      http.MethodGet,
		Path:        "/me",
		Summary:     "Current user",
		Errors: []int{
			http.StatusUnauthorized,
		},
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body domain.User `json:"body"`
	}, error) {
		principal, authErr := principalFromRequest(ctx)
		if authErr != nil {
			return nil, authErr
		}
		return &struct {
			Body domain.User `json:"body"`
		}{Body: principal.User}, nil
	})
}

func (h *handler) registerProjects(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "list-projects",
		Method:      http.MethodGet,
		Path:        "/projects",
		Summary:     "List projects",
		Errors:      []int{http.StatusBadRequest},
	}, func(ctx context.Context, input *struct {
		Query      string `query:"q"`
		Status     string `query:"status"`
		Department string `query:"department"`
		Sort       string `query:"sort"`
	}) (*struct {
		Body []domain.Project `json:"body"`
	}, error) {
		items, err := h.Store.ListProjects(ctx)
		if err != nil {
			return nil, handleError(err)
		}
		items = catalog.Apply(items, catalog.Filter{
			Query:      input.Query,
			Status:     input.Status,
			Department: input.Department,
			Sort:       input.Sort,
		})
		return &struct {
			Body []domain.Project `json:"body"`
		}{Body: nonNilSlice(items)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "create-project",
		Method:        http.MethodPost,
		Path:          "/projects",
		Summary:       "Create project",
		DefaultStatus: http.StatusCreated,
		Errors: []int{
			http.StatusBadRequest,
			http.StatusUnauthorized,
			http.StatusInternalServerError,
		},
	}, func(ctx context.Context, input *struct {
		Body CreateProjectRequest `json:"body"`
	}) (*struct {
		Body domain.Project `json:"body"`
	}, error) {
		if len(bodyBytes(ctx)) == 0 {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "body required", nil)
		}
		principal, authErr := principalFromRequest(ctx)
		if authErr != nil {
			return nil, authErr
		}
		p := input.Body.project()
		if p.ID == "" || p.Name == "" {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "id and name are required", nil)
		}
		if err := h.createProject(ctx, p, principal.User.ID); err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.Project `json:"body"`
		}{Body: p}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-project-history",
		Method:      http.MethodGet,
		Path:        "/projects/{project_id}",
		Summary:     "Project with its run history",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		ProjectID string `path:"project_id"`
	}) (*struct {
		Body HistoryResponse `json:"body"`
	}, error) {
		hist, err := h.history(ctx, input.ProjectID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body HistoryResponse `json:"body"`
		}{Body: hist}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-project",
		Method:      http.MethodPatch,
		Path:        "/projects/{project_id}",
		Summary:     "Update project",
		Errors: []int{
			http.StatusBadRequest,
			http.StatusUnauthorized,
			http.StatusNotFound,
		},
	}, func(ctx context.Context, input *struct {
		ProjectID string               `path:"project_id"`
		Body      UpdateProjectRequest `json:"body"`
	}) (*struct {
		Body domain.Project `json:"body"`
	}, error) {
		if len(bodyBytes(ctx)) == 0 {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "body required", nil)
		}
		principal, authErr := principalFromRequest(ctx)
		if authErr != nil {
			return nil, authErr
		}
		patch := input.Body.patch()
		if patch.Empty() {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "no fields to update", nil)
		}
		if _, err := h.Store.GetProject(ctx, input.ProjectID); err != nil {
			return nil, handleError(err)
		}
		if err := h.Store.UpdateProject(ctx, input.ProjectID, patch); err != nil {
			return nil, handleError(err)
		}
		p, err := h.Store.GetProject(ctx, input.ProjectID)
		if err != nil {
			return nil, handleError(err)
		}
		h.Events.Append(events.ProjectUpdated, p.ID, p.ID, principal.User.ID, events.Payload{"status": p.Status})
		return &struct {
			Body domain.Project `json:"body"`
		}{Body: p}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-executions",
		Method:      http.MethodGet,
		Path:        "/projects/{project_id}/executions",
		Summary:     "List a project's executions, newest first",
	}, func(ctx context.Context, input *struct {
		ProjectID string `path:"project_id"`
	}) (*struct {
		Body []domain.ExecutionSummary `json:"body"`
	}, error) {
		items, err := h.Store.ListExecutions(ctx, input.ProjectID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body []domain.ExecutionSummary `json:"body"`
		}{Body: nonNilSlice(items)}, nil
	})
}

func (h *handler) registerRuns(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID:   "trigger-run",
		Method:        http.MethodPost,
		Path:          "/projects/{project_id}/runs",
		Summary:       "Trigger a QA run and wait for its result",
		DefaultStatus: http.StatusCreated,
		Errors: []int{
			http.StatusBadRequest,
			http.StatusUnauthorized,
			http.StatusNotFound,
		},
	}, func(ctx context.Context, input *struct {
		ProjectID string            `path:"project_id"`
		Body      domain.RunRequest `json:"body"`
	}) (*struct {
		Body domain.ExecutionSummary `json:"body"`
	}, error) {
		principal, authErr := principalFromRequest(ctx)
		if authErr != nil {
			return nil, authErr
		}
		summary, err := h.Runner.Trigger(ctx, input.ProjectID, principal.User.ID, input.Body)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.ExecutionSummary `json:"body"`
		}{Body: summary}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-active-runs",
		Method:      http.MethodGet,
		Path:        "/projects/{project_id}/active-runs",
		Summary:     "List running and pending runs of a project",
	}, func(ctx context.Context, input *struct {
		ProjectID string `path:"project_id"`
	}) (*struct {
		Body []domain.ActiveRun `json:"body"`
	}, error) {
		return &struct {
			Body []domain.ActiveRun `json:"body"`
		}{Body: nonNilSlice(h.Runner.ActiveRuns(input.ProjectID))}, nil
	})
}

func (h *handler) registerResults(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "get-result",
		Method:      http.MethodGet,
		Path:        "/results/{result_id}",
		Summary:     "Synthesized result detail",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		ResultID string `path:"result_id"`
	}) (*struct {
		Body domain.ExecutionDetail `json:"body"`
	}, error) {
		d, err := h.Synth.GetResultDetail(ctx, input.ResultID)
		if err != nil {
			return nil, handleError(err)
		}
		h.Metrics.ResultSynthesized(d.Status)
		return &struct {
			Body domain.ExecutionDetail `json:"body"`
		}{Body: d}, nil
	})
}

func (h *handler) registerEvents(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "list-events",
		Method:      http.MethodGet,
		Path:        "/events",
		Summary:     "List recent activity, newest first",
	}, func(ctx context.Context, input *struct {
		ProjectID string `query:"project_id"`
		Type      string `query:"type"`
		Limit     int    `query:"limit" default:"50"`
	}) (*struct {
		Body []domain.Event `json:"body"`
	}, error) {
		limit := normalizeLimit(input.Limit)
		items := make([]domain.Event, 0, limit)
		for _, evt := range h.Events.Latest(0) {
			if input.ProjectID != "" && evt.ProjectID != input.ProjectID {
				continue
			}
			if input.Type != "" && evt.Type != input.Type {
				continue
			}
			items = append(items, evt)
			if len(items) == limit {
				break
			}
		}
		return &struct {
			Body []domain.Event `json:"body"`
		}{Body: items}, nil
	})
}

// createProject stores p and records it. Shared by the API and the form.
func (h *handler) createProject(ctx context.Context, p domain.Project, actorID string) error {
	if err := h.Store.AddProject(ctx, p); err != nil {
		return err
	}
	h.Metrics.ProjectCreated()
	h.Events.Append(events.ProjectCreated, p.ID, p.ID, actorID, events.Payload{"name": p.Name, "department": p.Department})
	h.Logger.Info("project created", "project", p.ID, "actor", actorID)
	return nil
}

// history gathers the history screen of projectID.
func (h *handler) history(ctx context.Context, projectID string) (HistoryResponse, error) {
	p, err := h.Store.GetProject(ctx, projectID)
	if err != nil {
		return HistoryResponse{}, err
	}
	execs, err := h.Store.ListExecutions(ctx, projectID)
	if err != nil {
		return HistoryResponse{}, err
	}
	return HistoryResponse{
		Project:    p,
		Stats:      catalog.HistoryStats(execs),
		ActiveRuns: nonNilSlice(h.Runner.ActiveRuns(projectID)),
		Executions: nonNilSlice(execs),
	}, nil
}
