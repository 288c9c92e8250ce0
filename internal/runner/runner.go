// Package runner simulates QA runs: a triggered run is tracked as active for a
// fixed delay and then recorded in the project's history.
package runner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"qadash/internal/domain"
	"qadash/internal/events"
	"qadash/internal/metrics"
	"qadash/internal/store"
)

const DefaultDelay = 1500 * time.Millisecond

// ErrInvalidRequest marks a run request the runner cannot accept.
var ErrInvalidRequest = errors.New("invalid run request")

// DefaultOutcomes weights the status of a completed run.
var DefaultOutcomes = map[string]int{
	domain.StatusPass:    6,
	domain.StatusFail:    2,
	domain.StatusPartial: 1,
	domain.StatusNR:      1,
}

type Options struct {
	Delay    time.Duration
	Outcomes map[string]int
	// Static returns fixed active runs of a project shown after the
	// in-flight ones. An empty id asks for every project.
	Static  func(projectID string) []domain.ActiveRun
	Events  *events.Log
	Metrics *metrics.Metrics
	Logger  *slog.Logger
}

type Runner struct {
	store    store.Store
	delay    time.Duration
	outcomes []outcome
	static   func(string) []domain.ActiveRun
	events   *events.Log
	metrics  *metrics.Metrics
	logger   *slog.Logger

	Now     func() time.Time
	Float64 func() float64
	Sleep   func(time.Duration)
	NewID   func() string

	mu     sync.Mutex
	active map[string]inflight
	// serializes the read-modify-write of project run counters
	bump sync.Mutex
}

type outcome struct {
	status string
	weight int
}

type inflight struct {
	run     domain.ActiveRun
	started time.Time
}

func New(s store.Store, opts Options) *Runner {
	weights := opts.Outcomes
	if len(weights) == 0 {
		weights = DefaultOutcomes
	}
	outcomes := make([]outcome, 0, len(weights))
	for status, w := range weights {
		if w > 0 {
			outcomes = append(outcomes, outcome{status: status, weight: w})
		}
	}
	sort.Slice(outcomes, func(i, j int) bool { return outcomes[i].status < outcomes[j].status })
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Runner{
		store:    s,
		delay:    opts.Delay,
		outcomes: outcomes,
		static:   opts.Static,
		events:   opts.Events,
		metrics:  opts.Metrics,
		logger:   logger,
		Now:      time.Now,
		Float64:  rand.Float64,
		Sleep:    time.Sleep,
		NewID:    uuid.NewString,
		active:   map[string]inflight{},
	}
}

// Trigger runs a simulated QA pass for projectID. It blocks for the
// configured delay regardless of ctx and always records a result.
func (r *Runner) Trigger(ctx context.Context, projectID, actorID string, req domain.RunRequest) (domain.ExecutionSummary, error) {
	if _, err := r.store.GetProject(ctx, projectID); err != nil {
		return domain.ExecutionSummary{}, err
	}
	env := req.Environment
	if env == "" {
		env = domain.Environments[0]
	}
	started := r.Now().UTC()
	execDate, err := executionDate(req.ExecutionDate, started)
	if err != nil {
		return domain.ExecutionSummary{}, err
	}
	resultID := r.resultID(started)

	r.begin(resultID, projectID, started)
	r.metrics.RunTriggered(env)
	r.appendEvent(events.RunTriggered, projectID, resultID, actorID, events.Payload{
		"environment":  env,
		"reference_id": req.ReferenceID,
		"notes":        req.Notes,
	})
	r.logger.Info("run triggered", "project", projectID, "result", resultID, "environment", env)

	if r.delay > 0 {
		r.Sleep(r.delay)
	}

	summary := domain.ExecutionSummary{
		ResultID:      resultID,
		ProjectID:     projectID,
		ExecutionDate: execDate,
		Status:        r.pickStatus(),
		Duration:      r.duration(),
		Environment:   env,
	}
	// The run has already happened; persist it even if the caller went away.
	persistCtx := context.WithoutCancel(ctx)
	err = r.complete(persistCtx, summary)
	r.end(resultID)
	if err != nil {
		return domain.ExecutionSummary{}, fmt.Errorf("record run %s: %w", resultID, err)
	}
	r.metrics.RunCompleted(summary.Status)
	r.appendEvent(events.RunCompleted, projectID, resultID, actorID, events.Payload{
		"status":   summary.Status,
		"duration": summary.Duration,
	})
	r.logger.Info("run completed", "project", projectID, "result", resultID, "status", summary.Status)
	return summary, nil
}

func (r *Runner) complete(ctx context.Context, summary domain.ExecutionSummary) error {
	r.bump.Lock()
	defer r.bump.Unlock()
	if err := r.store.AddExecution(ctx, summary.ProjectID, summary); err != nil {
		return err
	}
	p, err := r.store.GetProject(ctx, summary.ProjectID)
	if err != nil {
		return err
	}
	lastRun := summary.ExecutionDate
	total := p.TotalRuns + 1
	return r.store.UpdateProject(ctx, summary.ProjectID, domain.ProjectPatch{LastRun: &lastRun, TotalRuns: &total})
}

// ActiveRuns returns the in-flight runs of projectID, oldest first, followed
// by its static runs. An empty projectID selects every project.
func (r *Runner) ActiveRuns(projectID string) []domain.ActiveRun {
	now := r.Now().UTC()
	r.mu.Lock()
	running := make([]inflight, 0, len(r.active))
	for _, f := range r.active {
		if projectID == "" || f.run.ProjectID == projectID {
			running = append(running, f)
		}
	}
	r.mu.Unlock()
	sort.Slice(running, func(i, j int) bool {
		if running[i].started.Equal(running[j].started) {
			return running[i].run.ResultID < running[j].run.ResultID
		}
		return running[i].started.Before(running[j].started)
	})

	res := make([]domain.ActiveRun, 0, len(running))
	for _, f := range running {
		run := f.run
		run.Progress = r.progress(f.started, now)
		res = append(res, run)
	}
	if r.static != nil {
		res = append(res, r.static(projectID)...)
	}
	return res
}

func (r *Runner) begin(resultID, projectID string, started time.Time) {
	start := started.Format(time.RFC3339)
	eta := started.Add(r.delay).Format(time.RFC3339)
	r.mu.Lock()
	r.active[resultID] = inflight{
		run: domain.ActiveRun{
			ResultID:            resultID,
			ProjectID:           projectID,
			Status:              domain.RunRunning,
			StartTime:           &start,
			EstimatedCompletion: &eta,
		},
		started: started,
	}
	r.mu.Unlock()
}

func (r *Runner) end(resultID string) {
	r.mu.Lock()
	delete(r.active, resultID)
	r.mu.Unlock()
}

func (r *Runner) progress(started, now time.Time) int {
	if r.delay <= 0 {
		return 99
	}
	pct := int(now.Sub(started) * 100 / r.delay)
	switch {
	case pct < 0:
		return 0
	case pct > 99:
		return 99
	}
	return pct
}

func (r *Runner) resultID(now time.Time) string {
	hex := strings.ReplaceAll(r.NewID(), "-", "")
	if len(hex) > 8 {
		hex = hex[:8]
	}
	return fmt.Sprintf("RES-%s-%s", now.Format("20060102"), strings.ToUpper(hex))
}

func (r *Runner) pickStatus() string {
	total := 0
	for _, o := range r.outcomes {
		total += o.weight
	}
	if total == 0 {
		return domain.StatusPass
	}
	n := int(r.Float64() * float64(total))
	for _, o := range r.outcomes {
		if n < o.weight {
			return o.status
		}
		n -= o.weight
	}
	return r.outcomes[len(r.outcomes)-1].status
}

// duration formats a run length between 30s and 15m30s.
func (r *Runner) duration() string {
	secs := 30 + int(r.Float64()*900)
	return fmt.Sprintf("%dm %02ds", secs/60, secs%60)
}

func (r *Runner) appendEvent(evtType, projectID, entityID, actorID string, payload events.Payload) {
	if r.events == nil {
		return
	}
	r.events.Append(evtType, projectID, entityID, actorID, payload)
}

// executionDate keeps the requested calendar day with the trigger's clock
// time. An empty request uses the trigger time.
func executionDate(requested string, now time.Time) (string, error) {
	if requested == "" {
		return now.Format(time.RFC3339), nil
	}
	if t, err := time.Parse(time.RFC3339, requested); err == nil {
		return t.UTC().Format(time.RFC3339), nil
	}
	day, err := time.Parse("2006-01-02", requested)
	if err != nil {
		return "", fmt.Errorf("invalid execution date %q: %w", requested, ErrInvalidRequest)
	}
	t := time.Date(day.Year(), day.Month(), day.Day(), now.Hour(), now.Minute(), now.Second(), 0, time.UTC)
	return t.Format(time.RFC3339), nil
}
