package library

import (
	"fmt"

	"github.com/menta2k/dermascan/pkg/types"
)

// NoConditionSuggestions accompany a "no condition detected" result
var NoConditionSuggestions = []string{
	"Your skin appears healthy in the analyzed image.",
	"Continue maintaining good skincare habits.",
	"Protect your skin from excessive sun exposure.",
	"Stay hydrated and maintain a balanced diet for healthy skin.",
	"If you have concerns, consult a dermatologist for a professional evaluation.",
}

var severityAdvice = map[types.Severity][]string{
	types.SeveritySevere: {
		"Consult a dermatologist as soon as possible for a professional diagnosis.",
		"Avoid self-medicating or applying new products to the affected area.",
	},
	types.SeverityModerate: {
		"Consider scheduling an appointment with a dermatologist.",
		"Keep the affected area clean and avoid scratching.",
	},
	types.SeverityMild: {
		"Monitor the affected area for changes over the next few days.",
		"Keep the skin clean and moisturized.",
	},
}

const disclaimer = "This analysis is not a medical diagnosis. Seek professional advice if symptoms persist or worsen."

// maxTreatments caps how many catalog treatments are folded into suggestions
const maxTreatments = 2

// Suggestions builds the ordered advice list for a label and severity
func Suggestions(label string, severity types.Severity) []string {
	if severity == types.SeverityNone {
		out := make([]string, len(NoConditionSuggestions))
		copy(out, NoConditionSuggestions)
		return out
	}

	var out []string
	out = append(out, severityAdvice[severity]...)
	if d, ok := Match(label); ok {
		n := len(d.Treatments)
		if n > maxTreatments {
			n = maxTreatments
		}
		out = append(out, d.Treatments[:n]...)
		out = append(out, fmt.Sprintf("Learn more about %s in the condition library.", d.Name))
	}
	return append(out, disclaimer)
}
