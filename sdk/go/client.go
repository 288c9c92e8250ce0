package qadashsdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Client is a minimal QA dashboard HTTP API client.
type Client struct {
	BaseURL     string
	BasePath    string
	BearerToken string
	HTTPClient  *http.Client
	Timeout     time.Duration
}

// New creates a client with sane defaults.
func New(baseURL string) *Client {
	return &Client{
		BaseURL:  baseURL,
		BasePath: "/api/v0",
		Timeout:  30 * time.Second,
	}
}

// Project is a catalog entry.
type Project struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Department  string  `json:"department"`
	Domain      string  `json:"domain"`
	Status      string  `json:"status"`
	Description string  `json:"description,omitempty"`
	LastRun     *string `json:"last_run,omitempty"`
	TotalRuns   int     `json:"total_runs"`
}

// ExecutionSummary is one row of a project's run history.
type ExecutionSummary struct {
	ResultID      string `json:"result_id"`
	ProjectID     string `json:"project_id"`
	ExecutionDate string `json:"execution_date"`
	Status        string `json:"status"`
	Duration      string `json:"duration"`
	Environment   string `json:"environment"`
}

type Checkpoint struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Outcome    string   `json:"outcome"`
	Confidence float64  `json:"confidence"`
	Reasoning  string   `json:"reasoning"`
	Evidence   []string `json:"evidence"`
}

type Insight struct {
	Type    string `json:"type"`
	Title   string `json:"title"`
	Content string `json:"content"`
}

type LogLine struct {
	Timestamp string `json:"timestamp"`
	Level     string `json:"level"`
	Message   string `json:"message"`
}

type DocumentReference struct {
	Name         string `json:"name"`
	Type         string `json:"type"`
	Path         string `json:"path"`
	LastModified string `json:"last_modified"`
}

type KnowledgeSources struct {
	ExecutionLogs      []LogLine           `json:"execution_logs"`
	DocumentReferences []DocumentReference `json:"document_references"`
}

// ExecutionDetail is the full report of a result.
type ExecutionDetail struct {
	ExecutionSummary
	ProjectName       string           `json:"project_name"`
	CompletedDate     string           `json:"completed_date"`
	OverallConfidence float64          `json:"overall_confidence"`
	Checkpoints       []Checkpoint     `json:"checkpoints"`
	Insights          []Insight        `json:"insights"`
	KnowledgeSources  KnowledgeSources `json:"knowledge_sources"`
}

// ActiveRun is an in-flight or queued run.
type ActiveRun struct {
	ResultID            string  `json:"result_id"`
	ProjectID           string  `json:"project_id"`
	Status              string  `json:"status"`
	Progress            int     `json:"progress"`
	StartTime           *string `json:"start_time,omitempty"`
	EstimatedCompletion *string `json:"estimated_completion,omitempty"`
}

// RunRequest holds the optional fields of a run trigger.
type RunRequest struct {
	ReferenceID   string `json:"reference_id,omitempty"`
	Environment   string `json:"environment,omitempty"`
	ExecutionDate string `json:"execution_date,omitempty"`
	Notes         string `json:"notes,omitempty"`
}

type User struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Role       string `json:"role"`
	Email      string `json:"email"`
	Department string `json:"department"`
	Avatar     string `json:"avatar"`
}

// Event represents an activity log entry.
type Event struct {
	ID        int64          `json:"id"`
	TS        string         `json:"ts"`
	Type      string         `json:"type"`
	ProjectID string         `json:"project_id,omitempty"`
	EntityID  string         `json:"entity_id,omitempty"`
	ActorID   string         `json:"actor_id,omitempty"`
	Payload   map[string]any `json:"payload,omitempty"`
}

// Stats is the history header of a project.
type Stats struct {
	TotalRuns int    `json:"total_runs"`
	PassRate  int    `json:"pass_rate"`
	LastRun   string `json:"last_run"`
}

// History is a project with its run history.
type History struct {
	Project    Project            `json:"project"`
	Stats      Stats              `json:"stats"`
	ActiveRuns []ActiveRun        `json:"active_runs"`
	Executions []ExecutionSummary `json:"executions"`
}

type CreateProjectInput struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Department  string `json:"department,omitempty"`
	Domain      string `json:"domain,omitempty"`
	Description string `json:"description,omitempty"`
}

// UpdateProjectInput carries the fields to change; nil fields are kept.
type UpdateProjectInput struct {
	Name        *string `json:"name,omitempty"`
	Department  *string `json:"department,omitempty"`
	Domain      *string `json:"domain,omitempty"`
	Status      *string `json:"status,omitempty"`
	Description *string `json:"description,omitempty"`
}

// ProjectQuery filters ListProjects. Empty fields match everything.
type ProjectQuery struct {
	Search     string
	Status     string
	Department string
	Sort       string
}

// APIError wraps non-2xx responses.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
	Body       string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("api error: status=%d code=%s message=%s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("api error: status=%d body=%s", e.StatusCode, e.Body)
}

// Login exchanges credentials for a bearer token, which the client keeps.
func (c *Client) Login(ctx context.Context, email, password string) (string, User, error) {
	var resp struct {
		Token string `json:"token"`
		User  User   `json:"user"`
	}
	err := c.do(ctx, http.MethodPost, "auth/login", map[string]any{"email": email, "password": password}, &resp)
	if err != nil {
		return "", User{}, err
	}
	c.BearerToken = resp.Token
	return resp.Token, resp.User, nil
}

func (c *Client) Me(ctx context.Context) (User, error) {
	var resp User
	err := c.do(ctx, http.MethodGet, "me", nil, &resp)
	return resp, err
}

// ListProjects returns the catalog filtered by q.
func (c *Client) ListProjects(ctx context.Context, q ProjectQuery) ([]Project, error) {
	v := url.Values{}
	for key, val := range map[string]string{"q": q.Search, "status": q.Status, "department": q.Department, "sort": q.Sort} {
		if val != "" {
			v.Set(key, val)
		}
	}
	endpoint := "projects"
	if len(v) > 0 {
		endpoint += "?" + v.Encode()
	}
	var resp []Project
	err := c.do(ctx, http.MethodGet, endpoint, nil, &resp)
	return resp, err
}

func (c *Client) CreateProject(ctx context.Context, in CreateProjectInput) (Project, error) {
	var resp Project
	err := c.do(ctx, http.MethodPost, "projects", in, &resp)
	return resp, err
}

func (c *Client) UpdateProject(ctx context.Context, id string, in UpdateProjectInput) (Project, error) {
	var resp Project
	err := c.do(ctx, http.MethodPatch, "projects/"+url.PathEscape(id), in, &resp)
	return resp, err
}

// History returns the project with its stats, active runs and executions.
func (c *Client) History(ctx context.Context, projectID string) (History, error) {
	var resp History
	err := c.do(ctx, http.MethodGet, "projects/"+url.PathEscape(projectID), nil, &resp)
	return resp, err
}

func (c *Client) Executions(ctx context.Context, projectID string) ([]ExecutionSummary, error) {
	var resp []ExecutionSummary
	err := c.do(ctx, http.MethodGet, fmt.Sprintf("projects/%s/executions", url.PathEscape(projectID)), nil, &resp)
	return resp, err
}

// TriggerRun starts a run and blocks until the server records its result.
func (c *Client) TriggerRun(ctx context.Context, projectID string, req RunRequest) (ExecutionSummary, error) {
	var resp ExecutionSummary
	err := c.do(ctx, http.MethodPost, fmt.Sprintf("projects/%s/runs", url.PathEscape(projectID)), req, &resp)
	return resp, err
}

func (c *Client) ActiveRuns(ctx context.Context, projectID string) ([]ActiveRun, error) {
	var resp []ActiveRun
	err := c.do(ctx, http.MethodGet, fmt.Sprintf("projects/%s/active-runs", url.PathEscape(projectID)), nil, &resp)
	return resp, err
}

// Result fetches the synthesized detail of a result id.
func (c *Client) Result(ctx context.Context, resultID string) (ExecutionDetail, error) {
	var resp ExecutionDetail
	err := c.do(ctx, http.MethodGet, "results/"+url.PathEscape(resultID), nil, &resp)
	return resp, err
}

// Events returns recent activity, newest first.
func (c *Client) Events(ctx context.Context, projectID string, limit int) ([]Event, error) {
	v := url.Values{}
	if projectID != "" {
		v.Set("project_id", projectID)
	}
	if limit > 0 {
		v.Set("limit", fmt.Sprintf("%d", limit))
	}
	endpoint := "events"
	if len(v) > 0 {
		endpoint += "?" + v.Encode()
	}
	var resp []Event
	err := c.do(ctx, http.MethodGet, endpoint, nil, &resp)
	return resp, err
}

func (c *Client) do(ctx context.Context, method, endpoint string, body any, out any) error {
	if c.HTTPClient == nil {
		c.HTTPClient = &http.Client{Timeout: c.Timeout}
	}
	url := c.base() + "/" + strings.TrimLeft(endpoint, "/")
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return err
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, url, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.BearerToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.BearerToken)
	}
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		apiErr := &APIError{StatusCode: resp.StatusCode, Body: string(b)}
		var env struct {
			Error struct {
				Code    string `json:"code"`
				Message string `json:"message"`
			} `json:"error"`
		}
		if json.Unmarshal(b, &env) == nil {
			apiErr.Code = env.Error.Code
			apiErr.Message = env.Error.Message
		}
		return apiErr
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}

func (c *Client) base() string {
	basePath := strings.Trim(c.BasePath, "/")
	if basePath == "" {
		return strings.TrimRight(c.BaseURL, "/")
	}
	return strings.TrimRight(c.BaseURL, "/") + "/" + basePath
}
