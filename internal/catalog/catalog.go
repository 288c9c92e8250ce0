// Package catalog holds the pure list logic behind the dashboard screens.
package catalog

import (
	"sort"
	"strings"
	"time"

	"qadash/internal/domain"
)

const (
	ViewCard  = "card"
	ViewTable = "table"
)

const (
	SortID      = "id"
	SortName    = "name"
	SortLastRun = "lastRun"
)

// Filter is the catalog query. Empty fields match everything.
type Filter struct {
	Query      string
	Status     string
	Department string
	Sort       string
}

// Active reports whether any narrowing filter is set.
func (f Filter) Active() bool {
	return f.Query != "" || f.Status != "" || f.Department != ""
}

// Apply returns the projects matching f. The search is a case-insensitive
// substring match on id or description; status and department match exactly.
// Without a sort key the input order is kept.
func Apply(projects []domain.Project, f Filter) []domain.Project {
	q := strings.ToLower(strings.TrimSpace(f.Query))
	res := make([]domain.Project, 0, len(projects))
	for _, p := range projects {
		if q != "" && !strings.Contains(strings.ToLower(p.ID), q) && !strings.Contains(strings.ToLower(p.Description), q) {
			continue
		}
		if f.Status != "" && p.Status != f.Status {
			continue
		}
		if f.Department != "" && p.Department != f.Department {
			continue
		}
		res = append(res, p)
	}
	switch f.Sort {
	case SortID:
		sort.SliceStable(res, func(i, j int) bool { return res[i].ID < res[j].ID })
	case SortName:
		sort.SliceStable(res, func(i, j int) bool { return strings.ToLower(res[i].Name) < strings.ToLower(res[j].Name) })
	case SortLastRun:
		// most recent first, never-run projects last
		sort.SliceStable(res, func(i, j int) bool { return lastRun(res[i]) > lastRun(res[j]) })
	}
	return res
}

func lastRun(p domain.Project) string {
	if p.LastRun == nil {
		return ""
	}
	return *p.LastRun
}

// Departments returns the distinct departments of projects plus the form
// defaults, sorted.
func Departments(projects []domain.Project) []string {
	seen := map[string]bool{}
	for _, d := range domain.Departments {
		seen[d] = true
	}
	for _, p := range projects {
		if p.Department != "" {
			seen[p.Department] = true
		}
	}
	res := make([]string, 0, len(seen))
	for d := range seen {
		res = append(res, d)
	}
	sort.Strings(res)
	return res
}

// Stats summarizes a project's history.
type Stats struct {
	TotalRuns int    `json:"total_runs"`
	PassRate  int    `json:"pass_rate"`
	LastRun   string `json:"last_run"`
}

// HistoryStats computes the history header for executions listed newest
// first. Pass rate is a rounded percentage; LastRun is "Never" without runs.
func HistoryStats(executions []domain.ExecutionSummary) Stats {
	s := Stats{TotalRuns: len(executions), LastRun: "Never"}
	if s.TotalRuns == 0 {
		return s
	}
	passed := 0
	for _, e := range executions {
		if e.Status == domain.StatusPass {
			passed++
		}
	}
	s.PassRate = (passed*100 + s.TotalRuns/2) / s.TotalRuns
	s.LastRun = FormatDate(executions[0].ExecutionDate)
	return s
}

// FormatDate renders an RFC 3339 timestamp or plain date as "Jan 2, 2006",
// falling back to the raw value.
func FormatDate(v string) string {
	if t, ok := parseTime(v); ok {
		return t.Format("Jan 2, 2006")
	}
	return v
}

// FormatDateTime renders a timestamp as "Jan 2, 2006, 15:04".
func FormatDateTime(v string) string {
	if t, ok := parseTime(v); ok {
		return t.Format("Jan 2, 2006, 15:04")
	}
	return v
}

func parseTime(v string) (time.Time, bool) {
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, v); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
