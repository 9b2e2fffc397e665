package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/menta2k/dermascan/pkg/types"
)

func TestSeverityBoundaries(t *testing.T) {
	tests := []struct {
		percent  int
		expected types.Severity
	}{
		{0, types.SeverityMild},
		{35, types.SeverityMild},
		{50, types.SeverityMild},
		{51, types.SeverityModerate},
		{80, types.SeverityModerate},
		{81, types.SeveritySevere},
		{100, types.SeveritySevere},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, SeverityFor(tt.percent), "percent %d", tt.percent)
	}
}

func TestClassify(t *testing.T) {
	c := Classify(0.92)
	assert.Equal(t, 92, c.ConfidencePercent)
	assert.Equal(t, types.SeveritySevere, c.Severity)

	c = Classify(0.81)
	assert.Equal(t, 81, c.ConfidencePercent)
	assert.Equal(t, types.SeveritySevere, c.Severity)

	c = Classify(0.8)
	assert.Equal(t, 80, c.ConfidencePercent)
	assert.Equal(t, types.SeverityModerate, c.Severity)
}

func TestClassifyLabelSentinel(t *testing.T) {
	c := ClassifyLabel(NoConditionLabel, 0.1)
	assert.Equal(t, 100, c.ConfidencePercent)
	assert.Equal(t, types.SeverityNone, c.Severity)

	c = ClassifyLabel("no skin disease detected", 0.99)
	assert.Equal(t, types.SeverityNone, c.Severity)

	c = ClassifyLabel("Acne", 0.6)
	assert.Equal(t, 60, c.ConfidencePercent)
	assert.Equal(t, types.SeverityModerate, c.Severity)
}

func TestPercentClamp(t *testing.T) {
	assert.Equal(t, 0, Percent(-0.2))
	assert.Equal(t, 100, Percent(1.7))
	assert.Equal(t, 35, Percent(0.35))
}

func TestQualifies(t *testing.T) {
	assert.True(t, Qualifies(0.35))
	assert.True(t, Qualifies(0.9))
	assert.False(t, Qualifies(0.3499))
}
