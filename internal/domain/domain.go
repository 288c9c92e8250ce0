package domain

const (
	ProjectActive   = "Active"
	ProjectDraft    = "Draft"
	ProjectArchived = "Archived"
)

const (
	StatusPass    = "Pass"
	StatusFail    = "Fail"
	StatusPartial = "Partial"
	StatusNR      = "NR"
	StatusNA      = "NA"
)

const (
	RunRunning = "Running"
	RunPending = "Pending"
)

// ProjectStatuses lists the catalog status filter values in display order.
var ProjectStatuses = []string{ProjectActive, ProjectDraft, ProjectArchived}

// Departments lists the departments offered by the create-project form.
var Departments = []string{"Engineering", "Product", "Design", "QA", "Marketing"}

// Environments lists the run environments offered by the trigger form.
var Environments = []string{"Production", "UAT", "Staging", "Development"}

type Project struct {
	ID          string  `json:"id" yaml:"id"`
	Name        string  `json:"name" yaml:"name"`
	Department  string  `json:"department" yaml:"department"`
	Domain      string  `json:"domain" yaml:"domain"`
	Status      string  `json:"status" yaml:"status" enum:"Active,Draft,Archived"`
	Description string  `json:"description,omitempty" yaml:"description"`
	LastRun     *string `json:"last_run,omitempty" yaml:"last_run" format:"date-time"`
	TotalRuns   int     `json:"total_runs" yaml:"total_runs"`
}

// ProjectPatch carries the fields of a partial project update; nil fields are left untouched.
type ProjectPatch struct {
	Name        *string `json:"name,omitempty"`
	Department  *string `json:"department,omitempty"`
	Domain      *string `json:"domain,omitempty"`
	Status      *string `json:"status,omitempty" enum:"Active,Draft,Archived"`
	Description *string `json:"description,omitempty"`
	LastRun     *string `json:"last_run,omitempty" format:"date-time"`
	TotalRuns   *int    `json:"total_runs,omitempty"`
}

// Apply merges the non-nil patch fields into p.
func (pp ProjectPatch) Apply(p Project) Project {
	if pp.Name != nil {
		p.Name = *pp.Name
	}
	if pp.Department != nil {
		p.Department = *pp.Department
	}
	if pp.Domain != nil {
		p.Domain = *pp.Domain
	}
	if pp.Status != nil {
		p.Status = *pp.Status
	}
	if pp.Description != nil {
		p.Description = *pp.Description
	}
	if pp.LastRun != nil {
		v := *pp.LastRun
		p.LastRun = &v
	}
	if pp.TotalRuns != nil {
		p.TotalRuns = *pp.TotalRuns
	}
	return p
}

// Empty reports whether the patch changes nothing.
func (pp ProjectPatch) Empty() bool {
	return pp.Name == nil && pp.Department == nil && pp.Domain == nil && pp.Status == nil &&
		pp.Description == nil && pp.LastRun == nil && pp.TotalRuns == nil
}

type ExecutionSummary struct {
	ResultID      string `json:"result_id" yaml:"result_id"`
	ProjectID     string `json:"project_id" yaml:"project_id"`
	ExecutionDate string `json:"execution_date" yaml:"execution_date" format:"date-time"`
	Status        string `json:"status" yaml:"status" enum:"Pass,Fail,Partial,NR,NA"`
	Duration      string `json:"duration" yaml:"duration"`
	Environment   string `json:"environment" yaml:"environment"`
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
	Timestamp string `json:"timestamp" format:"date-time"`
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

// ExecutionDetail is the synthesized report for one execution. It is never stored.
type ExecutionDetail struct {
	ExecutionSummary
	ProjectName       string           `json:"project_name"`
	CompletedDate     string           `json:"completed_date" format:"date-time"`
	OverallConfidence float64          `json:"overall_confidence"`
	Checkpoints       []Checkpoint     `json:"checkpoints"`
	Insights          []Insight        `json:"insights"`
	KnowledgeSources  KnowledgeSources `json:"knowledge_sources"`
}

type User struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Role       string `json:"role"`
	Email      string `json:"email"`
	Department string `json:"department"`
	Avatar     string `json:"avatar"`
}

type ActiveRun struct {
	ResultID            string  `json:"result_id" yaml:"result_id"`
	ProjectID           string  `json:"project_id" yaml:"project_id"`
	Status              string  `json:"status" yaml:"status" enum:"Running,Pending"`
	Progress            int     `json:"progress" yaml:"progress"`
	StartTime           *string `json:"start_time,omitempty" yaml:"start_time" format:"date-time"`
	EstimatedCompletion *string `json:"estimated_completion,omitempty" yaml:"estimated_completion" format:"date-time"`
}

// RunRequest holds the trigger-run form.
type RunRequest struct {
	ReferenceID   string `json:"reference_id,omitempty"`
	Environment   string `json:"environment,omitempty" enum:"Production,UAT,Staging,Development"`
	ExecutionDate string `json:"execution_date,omitempty"`
	Notes         string `json:"notes,omitempty"`
}

type Event struct {
	ID        int64          `json:"id"`
	TS        string         `json:"ts" format:"date-time"`
	Type      string         `json:"type"`
	ProjectID string         `json:"project_id,omitempty"`
	EntityID  string         `json:"entity_id,omitempty"`
	ActorID   string         `json:"actor_id,omitempty"`
	Payload   map[string]any `json:"payload,omitempty"`
}
