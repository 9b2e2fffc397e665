// Package policy maps raw confidence scores to percentages and severity buckets.
package policy

import (
	"math"
	"strings"

	"github.com/menta2k/dermascan/pkg/types"
)

// ConfidenceThreshold is the minimum raw confidence for a prediction to be kept
const ConfidenceThreshold = 0.35

// NoConditionLabel is the sentinel label of a "nothing detected" result
const NoConditionLabel = "No Skin Disease Detected"

// Severity cutoffs on the rounded percentage. Both are exclusive lower bounds.
const (
	SevereAbove   = 80
	ModerateAbove = 50
)

// Classification is the policy's verdict for one score
type Classification struct {
	ConfidencePercent int
	Severity          types.Severity
}

// Qualifies reports whether a raw confidence clears the threshold
func Qualifies(raw float64) bool {
	return raw >= ConfidenceThreshold
}

// Percent rounds a [0,1] score to an integer percentage in [0,100]
func Percent(raw float64) int {
	p := int(math.Round(raw * 100))
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}

// SeverityFor buckets a percentage: >80 severe, >50 moderate, otherwise mild
func SeverityFor(percent int) types.Severity {
	switch {
	case percent > SevereAbove:
		return types.SeveritySevere
	case percent > ModerateAbove:
		return types.SeverityModerate
	default:
		return types.SeverityMild
	}
}

// Classify converts a raw confidence into a percentage and severity
func Classify(raw float64) Classification {
	p := Percent(raw)
	return Classification{ConfidencePercent: p, Severity: SeverityFor(p)}
}

// ClassifyLabel is Classify with the sentinel override: the no-condition label
// always yields severity none at 100%.
func ClassifyLabel(label string, raw float64) Classification {
	if IsNoCondition(label) {
		return Classification{ConfidencePercent: 100, Severity: types.SeverityNone}
	}
	return Classify(raw)
}

// IsNoCondition reports whether label is the sentinel
func IsNoCondition(label string) bool {
	return strings.EqualFold(strings.TrimSpace(label), NoConditionLabel)
}
