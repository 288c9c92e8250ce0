// Package synth fabricates the full result report for an execution from its
// stored summary and a fixed template.
package synth

import (
	"context"
	"errors"
	"math"
	"math/rand/v2"
	"strings"
	"time"

	"qadash/internal/domain"
	"qadash/internal/store"
)

// Confidence ranges by outcome. Pass draws from the upper range, every other
// status from the lower one.
const (
	PassMin  = 85.0
	PassMax  = 99.9
	OtherMin = 40.0
	OtherMax = 65.0
)

const (
	ModeRandom      = "random"
	ModeCheckpoints = "checkpoints"
)

type Synthesizer struct {
	Store store.Store
	// Mode selects how overall confidence is computed.
	Mode    string
	Float64 func() float64
	Now     func() time.Time
}

func New(s store.Store, mode string) Synthesizer {
	return Synthesizer{Store: s, Mode: mode, Float64: rand.Float64, Now: time.Now}
}

func (s Synthesizer) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s Synthesizer) float64() float64 {
	if s.Float64 != nil {
		return s.Float64()
	}
	return rand.Float64()
}

// GetResultDetail resolves resultID and builds its detail record. Every call
// builds a fresh record, so random confidence differs between calls.
func (s Synthesizer) GetResultDetail(ctx context.Context, resultID string) (domain.ExecutionDetail, error) {
	summary, err := s.Store.FindExecution(ctx, resultID)
	if err != nil {
		return domain.ExecutionDetail{}, err
	}
	projectName := summary.ProjectID
	p, err := s.Store.GetProject(ctx, summary.ProjectID)
	switch {
	case err == nil:
		projectName = p.Name
	case !errors.Is(err, store.ErrNotFound):
		return domain.ExecutionDetail{}, err
	}
	checkpoints := Checkpoints()
	return domain.ExecutionDetail{
		ExecutionSummary:  summary,
		ProjectName:       projectName,
		CompletedDate:     summary.ExecutionDate,
		OverallConfidence: s.confidence(summary, checkpoints),
		Checkpoints:       checkpoints,
		Insights:          Insights(),
		KnowledgeSources: domain.KnowledgeSources{
			ExecutionLogs:      ExecutionLogs(s.now()),
			DocumentReferences: DocumentReferences(),
		},
	}, nil
}

func (s Synthesizer) confidence(summary domain.ExecutionSummary, checkpoints []domain.Checkpoint) float64 {
	lo, hi := OtherMin, OtherMax
	if passed(summary.Status) {
		lo, hi = PassMin, PassMax
	}
	if s.Mode == ModeCheckpoints {
		return round1(clamp(meanConfidence(checkpoints), lo, hi))
	}
	return round1(lo + s.float64()*(hi-lo))
}

// passed reports whether status is Pass, ignoring case.
func passed(status string) bool {
	return strings.EqualFold(status, domain.StatusPass)
}

func meanConfidence(cps []domain.Checkpoint) float64 {
	if len(cps) == 0 {
		return 0
	}
	var sum float64
	for _, cp := range cps {
		sum += cp.Confidence
	}
	return sum / float64(len(cps))
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
