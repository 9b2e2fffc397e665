package ollama

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/menta2k/dermascan/pkg/client"
	"github.com/menta2k/dermascan/pkg/types"
)

func chatServer(t *testing.T, content string, status int) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/chat" {
			http.NotFound(w, r)
			return
		}
		var req map[string]any
		_ = json.NewDecoder(r.Body).Decode(&req)
		assert.Equal(t, "llava", req["model"])

		if status != http.StatusOK {
			w.WriteHeader(status)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": "model not found"})
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"model":   "llava",
			"message": map[string]string{"role": "assistant", "content": content},
			"done":    true,
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestNewClientValidation(t *testing.T) {
	_, err := NewClient(types.LocalConfig{URL: "http://localhost:11434"}, 0)
	assert.Error(t, err)

	_, err = NewClient(types.LocalConfig{URL: "not a url", Model: "llava"}, 0)
	assert.Error(t, err)

	c, err := NewClient(types.LocalConfig{URL: "http://localhost:11434/api/chat", Model: "llava"}, 0)
	require.NoError(t, err)
	assert.Equal(t, 300*time.Second, c.timeout)
}

func TestAnalyze(t *testing.T) {
	srv := chatServer(t, `{"disease":"Hives","confidence":77,"severity":"moderate","description":"raised welts"}`, http.StatusOK)
	c, err := NewClient(types.LocalConfig{URL: srv.URL, Model: "llava"}, 5*time.Second)
	require.NoError(t, err)

	res, err := c.Analyze(context.Background(), types.DetectionRequest{Image: []byte{1, 2, 3}})
	require.NoError(t, err)
	require.Len(t, res.Predictions, 1)
	assert.Equal(t, "Hives", res.Predictions[0].Label)
	assert.InDelta(t, 0.77, res.Predictions[0].RawConfidence, 1e-9)
}

func TestAnalyzeUpstreamError(t *testing.T) {
	srv := chatServer(t, "", http.StatusNotFound)
	c, err := NewClient(types.LocalConfig{URL: srv.URL, Model: "llava"}, 5*time.Second)
	require.NoError(t, err)

	_, err = c.Analyze(context.Background(), types.DetectionRequest{Image: []byte{1}})
	require.Error(t, err)
	assert.True(t, errors.Is(err, client.ErrUpstreamFailure))
}
