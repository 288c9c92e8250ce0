package synth

import (
	"time"

	"qadash/internal/domain"
)

// Checkpoints returns the fixed checkpoint list attached to every result.
func Checkpoints() []domain.Checkpoint {
	return []domain.Checkpoint{
		{
			ID:         "CP-001",
			Name:       "Data Integrity Check",
			Outcome:    "PASS",
			Confidence: 99.2,
			Reasoning:  "Integrity verification confirmed that every primary key in the ingestion set is unique and valid. Cross-field validation found no discrepancies across 50,000 records.",
			Evidence:   []string{"Data_Volume_Report.pdf", "Ingestion_Log_v2.txt"},
		},
		{
			ID:         "CP-002",
			Name:       "Compliance Validation",
			Outcome:    "PASS",
			Confidence: 97.5,
			Reasoning:  "The policy scanner verified adherence to ISO 27001 data handling requirements. Sensitive fields are encrypted at rest. Two minor formatting warnings were corrected automatically.",
			Evidence:   []string{"Compliance_Scan_Result.json"},
		},
		{
			ID:         "CP-003",
			Name:       "Performance Metrics",
			Outcome:    "PASS",
			Confidence: 98.8,
			Reasoning:  "Average response time was 45ms against a 200ms SLA. Throughput held at 1,200 req/sec for the whole load test window.",
			Evidence:   []string{"Load_Test_Summary.csv", "Latency_Distribution_Chart.png"},
		},
	}
}

// Insights returns the fixed insight list attached to every result.
func Insights() []domain.Insight {
	return []domain.Insight{
		{
			Type:    "AI Analysis",
			Title:   "Data Reliability Assessment",
			Content: "Cross-reference validation confirms 99.8% accuracy across key performance indicators. 15,000 data points correlate strongly with historical benchmarks for this reporting period.",
		},
		{
			Type:    "Rule Evaluation",
			Title:   "Compliance Check",
			Content: "Passed. All examined records meet the FY2025 standard.",
		},
		{
			Type:    "Recommendation",
			Title:   "Optimization Opportunity",
			Content: "The ingestion pipeline shows a bottleneck during peak hours. Scaling the ingestion service or moving heavy loads off-peak should improve processing efficiency by about 15%.",
		},
	}
}

// ExecutionLogs returns the log lines of a run, stamped relative to now.
func ExecutionLogs(now time.Time) []domain.LogLine {
	at := func(d time.Duration) string { return now.Add(d).UTC().Format(time.RFC3339Nano) }
	return []domain.LogLine{
		{Timestamp: at(0), Level: "INFO", Message: "QA Run initiated for project"},
		{Timestamp: at(2 * time.Second), Level: "INFO", Message: "Loading knowledge base documents"},
		{Timestamp: at(5 * time.Second), Level: "INFO", Message: "Starting checkpoint evaluation"},
		{Timestamp: at(10 * time.Second), Level: "INFO", Message: "All checkpoints passed successfully"},
	}
}

// DocumentReferences returns the fixed reference documents.
func DocumentReferences() []domain.DocumentReference {
	return []domain.DocumentReference{
		{Name: "Compliance Guidelines 2025", Type: "PDF", Path: "/Compliance/Guidelines.pdf", LastModified: "2025-01-15"},
		{Name: "Risk Assessment Framework", Type: "DOCX", Path: "/Risk/Framework.docx", LastModified: "2025-02-20"},
	}
}
