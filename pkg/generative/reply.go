// Package generative holds the prompt and reply parsing shared by the
// generative-vision providers.
package generative

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/pkg/errors"

	"github.com/menta2k/dermascan/pkg/client"
	"github.com/menta2k/dermascan/pkg/policy"
	"github.com/menta2k/dermascan/pkg/types"
)

// Prompt is the fixed instruction sent alongside the image
const Prompt = `You are a dermatology AI assistant. Analyze this skin image and identify any potential skin conditions.

                    Respond in JSON format only with these exact fields:
                    {
                      "disease": "Name of the skin condition detected",
                      "confidence": <number between 60-95>,
                      "severity": "mild" | "moderate" | "severe",
                      "description": "Brief description of what you observe"
                    }

                    If you cannot identify a skin condition or the image is not suitable for analysis, respond with:
                    {
                      "disease": "Unable to detect",
                      "confidence": 0,
                      "severity": "mild",
                      "description": "Reason why analysis could not be performed"
                    }

                    Be conservative in your assessment. Only return JSON, no other text.`

// UnableToDetect is the label the model uses when it declines
const UnableToDetect = "Unable to detect"

// Reply is the JSON object the model is asked to produce
type Reply struct {
	Disease     string  `json:"disease"`
	Confidence  float64 `json:"confidence"`
	Severity    string  `json:"severity"`
	Description string  `json:"description"`
}

var reTrailingComma = regexp.MustCompile(`,(\s*[}\]])`)

// ParseReply extracts the first balanced JSON object from free-form model output
func ParseReply(raw string) (*Reply, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, errors.Wrap(client.ErrParse, "empty model output")
	}
	obj, ok := ExtractObject(stripFences(raw))
	if !ok {
		return nil, errors.WithStack(client.ErrParse)
	}
	obj = reTrailingComma.ReplaceAllString(obj, "$1")

	var reply Reply
	if err := json.Unmarshal([]byte(obj), &reply); err != nil {
		return nil, errors.Wrapf(client.ErrParse, "decode %q: %v", obj, err)
	}
	return &reply, nil
}

// Predictions converts a reply into at most one prediction. Declined or
// below-threshold replies yield none.
func (r *Reply) Predictions() []types.RawPrediction {
	label := strings.TrimSpace(r.Disease)
	if label == "" || strings.EqualFold(label, UnableToDetect) {
		return nil
	}
	raw := r.Confidence
	if raw > 1 {
		raw /= 100
	}
	if !policy.Qualifies(raw) {
		return nil
	}
	return []types.RawPrediction{{
		Label:         label,
		RawConfidence: raw,
		Description:   strings.TrimSpace(r.Description),
	}}
}

// ExtractObject returns the first balanced {...} substring of s. Braces inside
// JSON strings are ignored.
func ExtractObject(s string) (string, bool) {
	start := strings.IndexByte(s, '{')
	for start >= 0 {
		depth := 0
		inString, escaped := false, false
		for i := start; i < len(s); i++ {
			c := s[i]
			if inString {
				switch {
				case escaped:
					escaped = false
				case c == '\\':
					escaped = true
				case c == '"':
					inString = false
				}
				continue
			}
			switch c {
			case '"':
				inString = true
			case '{':
				depth++
			case '}':
				depth--
				if depth == 0 {
					return s[start : i+1], true
				}
			}
		}
		// unbalanced from this brace; try the next one
		next := strings.IndexByte(s[start+1:], '{')
		if next < 0 {
			break
		}
		start += next + 1
	}
	return "", false
}

// stripFences removes a surrounding markdown code fence
func stripFences(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "```") {
		if i := strings.Index(raw, "\n"); i >= 0 {
			raw = raw[i+1:]
		}
		if j := strings.LastIndex(raw, "```"); j >= 0 {
			raw = raw[:j]
		}
	}
	return strings.TrimSpace(raw)
}
