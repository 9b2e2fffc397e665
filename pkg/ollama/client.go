package ollama

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/ollama/ollama/api"
	"github.com/pkg/errors"

	"github.com/menta2k/dermascan/pkg/client"
	"github.com/menta2k/dermascan/pkg/generative"
	"github.com/menta2k/dermascan/pkg/types"
)

// Client wraps the Ollama API client for a self-hosted vision model
type Client struct {
	client  *api.Client
	model   string
	timeout time.Duration
}

// NewClient creates a new Ollama client
func NewClient(cfg types.LocalConfig, timeout time.Duration) (*Client, error) {
	if cfg.Model == "" {
		return nil, fmt.Errorf("ollama: model is required")
	}

	// Parse the provided URL
	parsedURL, err := url.Parse(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %v", err)
	}
	if parsedURL.Scheme == "" || parsedURL.Host == "" {
		return nil, fmt.Errorf("invalid URL: %q", cfg.URL)
	}

	// Create base URL from the provided URL (removing path like /api/chat)
	baseURL := &url.URL{
		Scheme: parsedURL.Scheme,
		Host:   parsedURL.Host,
	}

	if timeout <= 0 {
		timeout = 300 * time.Second // CPU inference is slow
	}

	return &Client{
		client:  api.NewClient(baseURL, http.DefaultClient),
		model:   cfg.Model,
		timeout: timeout,
	}, nil
}

// Analyze sends the image with the shared prompt and parses the embedded JSON reply
func (c *Client) Analyze(ctx context.Context, req types.DetectionRequest) (*types.AdapterResult, error) {
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	streamFalse := false
	chatReq := &api.ChatRequest{
		Model: c.model,
		Messages: []api.Message{
			{
				Role:    "user",
				Content: generative.Prompt,
				Images:  []api.ImageData{api.ImageData(req.Image)},
			},
		},
		Stream: &streamFalse,
		Options: map[string]any{
			"temperature": 0.2,
		},
	}

	var content string
	err := c.client.Chat(ctx, chatReq, func(resp api.ChatResponse) error {
		content += resp.Message.Content
		return nil
	})
	if err != nil {
		return nil, errors.Wrapf(client.ErrUpstreamFailure, "ollama chat: %v", err)
	}

	reply, err := generative.ParseReply(content)
	if err != nil {
		return nil, err
	}
	return &types.AdapterResult{Predictions: reply.Predictions()}, nil
}
