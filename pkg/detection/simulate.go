package detection

import (
	"context"
	"math/rand/v2"
	"time"

	"github.com/menta2k/dermascan/pkg/types"
)

// SimulatedCondition is one entry of the offline catalog
type SimulatedCondition struct {
	Name       string
	Severities []types.Severity
}

// SimulationCatalog is the fixed set of conditions the simulation draws from
var SimulationCatalog = []SimulatedCondition{
	{"Acne", []types.Severity{types.SeverityMild, types.SeverityModerate}},
	{"Eczema", []types.Severity{types.SeverityMild, types.SeverityModerate, types.SeveritySevere}},
	{"Psoriasis", []types.Severity{types.SeverityMild, types.SeverityModerate, types.SeveritySevere}},
	{"Ringworm", []types.Severity{types.SeverityMild, types.SeverityModerate}},
	{"Rosacea", []types.Severity{types.SeverityMild, types.SeverityModerate}},
	{"Hives", []types.Severity{types.SeverityMild, types.SeverityModerate}},
	{"Vitiligo", []types.Severity{types.SeverityMild, types.SeverityModerate}},
}

// Simulated confidence is drawn from [SimMinConfidence, SimMinConfidence+SimConfidenceSpan)
const (
	SimMinConfidence  = 70
	SimConfidenceSpan = 25
)

// Simulator produces placeholder results when no provider answer is available
type Simulator struct {
	delay time.Duration
	intN  func(n int) int
}

// NewSimulator creates a simulator. A nil intN uses the global math/rand/v2 source.
func NewSimulator(delay time.Duration, intN func(n int) int) *Simulator {
	if intN == nil {
		intN = rand.IntN
	}
	return &Simulator{delay: delay, intN: intN}
}

// Wait sleeps for the configured delay or until ctx is done
func (s *Simulator) Wait(ctx context.Context) error {
	if s.delay <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(s.delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Pick draws a condition, one of its severities and a confidence percentage
func (s *Simulator) Pick() (string, types.Severity, int) {
	cond := SimulationCatalog[s.intN(len(SimulationCatalog))]
	severity := cond.Severities[s.intN(len(cond.Severities))]
	percent := SimMinConfidence + s.intN(SimConfidenceSpan)
	return cond.Name, severity, percent
}
