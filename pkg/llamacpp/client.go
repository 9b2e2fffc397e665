package llamacpp

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/menta2k/dermascan/pkg/client"
	"github.com/menta2k/dermascan/pkg/generative"
	"github.com/menta2k/dermascan/pkg/types"
)

// DefaultURL is the local llama-server address; the API server itself takes :8080
const DefaultURL = "http://localhost:8081"

type Client struct {
	baseURL    string
	model      string
	httpClient *http.Client
}

// OpenAI-compatible message format
type Message struct {
	Role    string      `json:"role"`
	Content interface{} `json:"content"` // Can be string or []ContentPart
}

type ContentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *ImageURL `json:"image_url,omitempty"`
}

type ImageURL struct {
	URL string `json:"url"`
}

// OpenAI-compatible chat completion request
type ChatCompletionRequest struct {
	Model       string    `json:"model,omitempty"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature,omitempty"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
	Stream      bool      `json:"stream"`
}

// OpenAI-compatible chat completion response
type ChatCompletionResponse struct {
	Choices []Choice `json:"choices"`
}

type Choice struct {
	Index        int     `json:"index"`
	Message      Message `json:"message"`
	FinishReason string  `json:"finish_reason,omitempty"`
}

// NewClient creates a client for a llama.cpp server. The model is optional:
// llama-server answers with whatever model it loaded.
func NewClient(cfg types.LocalConfig, timeout time.Duration) (*Client, error) {
	serverURL := cfg.URL
	if serverURL == "" {
		serverURL = DefaultURL
	}
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}

	return &Client{
		baseURL: strings.TrimSuffix(serverURL, "/"),
		model:   cfg.Model,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}, nil
}

// Analyze sends the prompt and the image as a data URL and parses the reply
func (c *Client) Analyze(ctx context.Context, req types.DetectionRequest) (*types.AdapterResult, error) {
	mimeType := req.MIMEType
	if mimeType == "" {
		mimeType = "image/jpeg"
	}

	chatReq := ChatCompletionRequest{
		Model: c.model,
		Messages: []Message{
			{
				Role: "user",
				Content: []ContentPart{
					{Type: "text", Text: generative.Prompt},
					{
						Type: "image_url",
						ImageURL: &ImageURL{
							URL: "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(req.Image),
						},
					},
				},
			},
		},
		Temperature: 0.2,
		MaxTokens:   1024,
		Stream:      false,
	}

	respBody, err := c.sendRequest(ctx, "/v1/chat/completions", chatReq)
	if err != nil {
		return nil, err
	}

	var resp ChatCompletionResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, errors.Wrapf(client.ErrUpstreamFailure, "decode llama.cpp response: %v", err)
	}
	if len(resp.Choices) == 0 {
		return nil, errors.Wrap(client.ErrUpstreamFailure, "no choices in response")
	}

	text := messageText(resp.Choices[0].Message.Content)
	if text == "" {
		return nil, errors.Wrap(client.ErrUpstreamFailure, "empty response from llama.cpp server")
	}

	reply, err := generative.ParseReply(text)
	if err != nil {
		return nil, err
	}
	return &types.AdapterResult{Predictions: reply.Predictions()}, nil
}

// messageText handles both string and array content
func messageText(content interface{}) string {
	switch content := content.(type) {
	case string:
		return content
	case []interface{}:
		for _, item := range content {
			if partMap, ok := item.(map[string]interface{}); ok {
				if text, ok := partMap["text"].(string); ok && text != "" {
					return text
				}
			}
		}
	}
	return ""
}

func (c *Client) sendRequest(ctx context.Context, endpoint string, payload interface{}) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(payload); err != nil {
		return nil, errors.Wrapf(client.ErrUpstreamFailure, "marshal request: %v", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+endpoint, &buf)
	if err != nil {
		return nil, errors.Wrapf(client.ErrUpstreamFailure, "create request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrapf(client.ErrUpstreamFailure, "send request: %v", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrapf(client.ErrUpstreamFailure, "read response: %v", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, errors.Wrapf(client.ErrUpstreamFailure, "server returned status %d: %s", resp.StatusCode, string(body))
	}

	return body, nil
}
