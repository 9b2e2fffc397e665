package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/menta2k/dermascan/pkg/client"
	"github.com/menta2k/dermascan/pkg/generative"
	"github.com/menta2k/dermascan/pkg/types"
)

func replyWithText(text string) string {
	resp := map[string]any{
		"candidates": []any{
			map[string]any{
				"content": map[string]any{
					"parts": []any{map[string]any{"text": text}},
				},
			},
		},
	}
	b, _ := json.Marshal(resp)
	return string(b)
}

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := NewClient(srv.URL, types.GenerativeConfig{APIKey: "gkey"}, 5*time.Second)
	require.NoError(t, err)
	return c
}

func TestRequestContract(t *testing.T) {
	var got GenerateContentRequest
	var path, key string

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		key = r.URL.Query().Get("key")
		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &got))
		_, _ = io.WriteString(w, replyWithText(`{"disease":"Psoriasis","confidence":88,"severity":"severe","description":"scaly plaques"}`))
	})

	res, err := c.Analyze(context.Background(), types.DetectionRequest{Image: []byte{1, 2, 3}, MIMEType: "image/png"})
	require.NoError(t, err)

	assert.Equal(t, "/v1beta/models/gemini-2.0-flash:generateContent", path)
	assert.Equal(t, "gkey", key)
	require.Len(t, got.Contents, 1)
	require.Len(t, got.Contents[0].Parts, 2)
	assert.Equal(t, generative.Prompt, got.Contents[0].Parts[0].Text)
	require.NotNil(t, got.Contents[0].Parts[1].InlineData)
	assert.Equal(t, "image/png", got.Contents[0].Parts[1].InlineData.MimeType)
	assert.Equal(t, "AQID", got.Contents[0].Parts[1].InlineData.Data)

	require.Len(t, res.Predictions, 1)
	assert.Equal(t, "Psoriasis", res.Predictions[0].Label)
	assert.InDelta(t, 0.88, res.Predictions[0].RawConfidence, 1e-9)
	assert.Nil(t, res.Predictions[0].Box)
}

func TestUnableToDetectYieldsNoPredictions(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, replyWithText(`Here you go: {"disease":"Unable to detect","confidence":0,"severity":"mild","description":"blurry"}`))
	})
	res, err := c.Analyze(context.Background(), types.DetectionRequest{Image: []byte{1}})
	require.NoError(t, err)
	assert.Empty(t, res.Predictions)
}

func TestFailures(t *testing.T) {
	tests := map[string]struct {
		handler http.HandlerFunc
		target  error
	}{
		"http error": {
			handler: func(w http.ResponseWriter, r *http.Request) { http.Error(w, "quota", http.StatusTooManyRequests) },
			target:  client.ErrUpstreamFailure,
		},
		"no candidates": {
			handler: func(w http.ResponseWriter, r *http.Request) { _, _ = io.WriteString(w, `{"candidates":[]}`) },
			target:  client.ErrUpstreamFailure,
		},
		"no json in text": {
			handler: func(w http.ResponseWriter, r *http.Request) { _, _ = io.WriteString(w, replyWithText("I can't tell.")) },
			target:  client.ErrParse,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			c := newTestClient(t, tt.handler)
			_, err := c.Analyze(context.Background(), types.DetectionRequest{Image: []byte{1}})
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.target), err.Error())
		})
	}
}
