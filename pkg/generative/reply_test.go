package generative

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/menta2k/dermascan/pkg/client"
)

func TestExtractObject(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
		ok   bool
	}{
		{"plain", `{"a":1}`, `{"a":1}`, true},
		{"prose around", `Sure! {"a":{"b":2}} hope that helps {"c":3}`, `{"a":{"b":2}}`, true},
		{"brace in string", `{"a":"}{"}`, `{"a":"}{"}`, true},
		{"escaped quote", `{"a":"x\"}"}`, `{"a":"x\"}"}`, true},
		{"none", `no json here`, "", false},
		{"unbalanced", `{"a":1`, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ExtractObject(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseReply(t *testing.T) {
	raw := "```json\n{\n  \"disease\": \"Eczema\",\n  \"confidence\": 82,\n  \"severity\": \"moderate\",\n  \"description\": \"Dry red patches\",\n}\n```"
	reply, err := ParseReply(raw)
	require.NoError(t, err)
	assert.Equal(t, "Eczema", reply.Disease)
	assert.Equal(t, 82.0, reply.Confidence)

	preds := reply.Predictions()
	require.Len(t, preds, 1)
	assert.Equal(t, "Eczema", preds[0].Label)
	assert.InDelta(t, 0.82, preds[0].RawConfidence, 1e-9)
	assert.Nil(t, preds[0].Box)
	assert.Equal(t, "Dry red patches", preds[0].Description)
}

func TestParseReplyFailures(t *testing.T) {
	for _, raw := range []string{"", "   ", "I cannot help with that", `{"disease": }`} {
		_, err := ParseReply(raw)
		require.Error(t, err, raw)
		assert.True(t, errors.Is(err, client.ErrParse), raw)
	}
}

func TestPredictionsDeclined(t *testing.T) {
	r := &Reply{Disease: "Unable to detect", Confidence: 0}
	assert.Empty(t, r.Predictions())

	r = &Reply{Disease: "Acne", Confidence: 20}
	assert.Empty(t, r.Predictions())

	r = &Reply{Disease: "Acne", Confidence: 0.7}
	preds := r.Predictions()
	require.Len(t, preds, 1)
	assert.InDelta(t, 0.7, preds[0].RawConfidence, 1e-9)
}
