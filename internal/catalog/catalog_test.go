package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"qadash/internal/domain"
)

func strPtr(s string) *string { return &s }

var projects = []domain.Project{
	{ID: "FIN-001", Name: "Ledger", Department: "Engineering", Status: domain.ProjectActive, Description: "Daily reconciliation", LastRun: strPtr("2025-03-12T09:30:00Z")},
	{ID: "RSK-014", Name: "credit scoring", Department: "Product", Status: domain.ProjectActive, Description: "Scorecard drift", LastRun: strPtr("2025-03-13T09:30:00Z")},
	{ID: "MKT-003", Name: "Attribution", Department: "Marketing", Status: domain.ProjectArchived, Description: "Retired FIN dashboards"},
}

func ids(ps []domain.Project) []string {
	var res []string
	for _, p := range ps {
		res = append(res, p.ID)
	}
	return res
}

func TestApplySearch(t *testing.T) {
	assert.Equal(t, []string{"FIN-001", "MKT-003"}, ids(Apply(projects, Filter{Query: "fin"})))
	assert.Equal(t, []string{"RSK-014"}, ids(Apply(projects, Filter{Query: "  DRIFT "})))
	assert.Empty(t, Apply(projects, Filter{Query: "ledger"}), "name is not searched")
}

func TestApplyEqualityFilters(t *testing.T) {
	assert.Equal(t, []string{"FIN-001", "RSK-014"}, ids(Apply(projects, Filter{Status: domain.ProjectActive})))
	assert.Equal(t, []string{"RSK-014"}, ids(Apply(projects, Filter{Status: domain.ProjectActive, Department: "Product"})))
	assert.Empty(t, Apply(projects, Filter{Status: "active"}))
}

func TestApplySort(t *testing.T) {
	assert.Equal(t, []string{"FIN-001", "MKT-003", "RSK-014"}, ids(Apply(projects, Filter{Sort: SortID})))
	assert.Equal(t, []string{"MKT-003", "RSK-014", "FIN-001"}, ids(Apply(projects, Filter{Sort: SortName})))
	assert.Equal(t, []string{"RSK-014", "FIN-001", "MKT-003"}, ids(Apply(projects, Filter{Sort: SortLastRun})))
	assert.Equal(t, []string{"FIN-001", "RSK-014", "MKT-003"}, ids(Apply(projects, Filter{})))
}

func TestFilterActive(t *testing.T) {
	assert.False(t, Filter{Sort: SortID}.Active())
	assert.True(t, Filter{Department: "QA"}.Active())
}

func TestHistoryStats(t *testing.T) {
	assert.Equal(t, Stats{LastRun: "Never"}, HistoryStats(nil))

	execs := []domain.ExecutionSummary{
		{Status: domain.StatusPass, ExecutionDate: "2025-03-12T09:30:00Z"},
		{Status: domain.StatusFail, ExecutionDate: "2025-03-11T09:30:00Z"},
		{Status: domain.StatusPass, ExecutionDate: "2025-03-10T09:30:00Z"},
	}
	assert.Equal(t, Stats{TotalRuns: 3, PassRate: 67, LastRun: "Mar 12, 2025"}, HistoryStats(execs))
}

func TestDepartmentsIncludesDefaults(t *testing.T) {
	deps := Departments([]domain.Project{{Department: "Risk"}})
	assert.Contains(t, deps, "Risk")
	assert.Contains(t, deps, "Engineering")
}

func TestFormatDate(t *testing.T) {
	assert.Equal(t, "Mar 1, 2025", FormatDate("2025-03-01"))
	assert.Equal(t, "Mar 1, 2025, 10:05", FormatDateTime("2025-03-01T10:05:00Z"))
	assert.Equal(t, "Never", FormatDate("Never"))
}
