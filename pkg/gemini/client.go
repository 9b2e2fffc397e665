package gemini

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/menta2k/dermascan/pkg/client"
	"github.com/menta2k/dermascan/pkg/generative"
	"github.com/menta2k/dermascan/pkg/types"
)

const (
	DefaultBaseURL = "https://generativelanguage.googleapis.com"
	DefaultModel   = "gemini-2.0-flash"
)

type Client struct {
	baseURL    string
	model      string
	apiKey     string
	httpClient *http.Client
}

// Request body types for generateContent

type InlineData struct {
	MimeType string `json:"mime_type"`
	Data     string `json:"data"`
}

type Part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *InlineData `json:"inline_data,omitempty"`
}

type Content struct {
	Parts []Part `json:"parts"`
}

type GenerateContentRequest struct {
	Contents []Content `json:"contents"`
}

type GenerateContentResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

func NewClient(baseURL string, cfg types.GenerativeConfig, timeout time.Duration) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini: api key is required")
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		model:   DefaultModel,
		apiKey:  cfg.APIKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}, nil
}

// Analyze sends the image with the fixed prompt and parses the JSON embedded in the reply
func (c *Client) Analyze(ctx context.Context, req types.DetectionRequest) (*types.AdapterResult, error) {
	mimeType := req.MIMEType
	if mimeType == "" {
		mimeType = "image/jpeg"
	}

	body := GenerateContentRequest{
		Contents: []Content{{
			Parts: []Part{
				{Text: generative.Prompt},
				{InlineData: &InlineData{
					MimeType: mimeType,
					Data:     base64.StdEncoding.EncodeToString(req.Image),
				}},
			},
		}},
	}

	text, err := c.generate(ctx, body)
	if err != nil {
		return nil, err
	}

	reply, err := generative.ParseReply(text)
	if err != nil {
		return nil, err
	}
	return &types.AdapterResult{Predictions: reply.Predictions()}, nil
}

func (c *Client) generate(ctx context.Context, body GenerateContentRequest) (string, error) {
	// the prompt contains '<' and '>', keep them literal
	var payload bytes.Buffer
	enc := json.NewEncoder(&payload)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(body); err != nil {
		return "", errors.Wrapf(client.ErrUpstreamFailure, "marshal request: %v", err)
	}

	endpoint := fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s", c.baseURL, c.model, url.QueryEscape(c.apiKey))
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, &payload)
	if err != nil {
		return "", errors.Wrapf(client.ErrUpstreamFailure, "build request: %v", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", errors.Wrapf(client.ErrUpstreamFailure, "gemini request: %v", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", errors.Wrapf(client.ErrUpstreamFailure, "read body: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", errors.Wrapf(client.ErrUpstreamFailure, "gemini HTTP %d: %s", resp.StatusCode, truncate(string(data), 512))
	}

	var gr GenerateContentResponse
	if err := json.Unmarshal(data, &gr); err != nil {
		return "", errors.Wrapf(client.ErrUpstreamFailure, "decode gemini response: %v", err)
	}
	if len(gr.Candidates) == 0 || len(gr.Candidates[0].Content.Parts) == 0 || gr.Candidates[0].Content.Parts[0].Text == "" {
		return "", errors.Wrap(client.ErrUpstreamFailure, "gemini response has no text")
	}
	return gr.Candidates[0].Content.Parts[0].Text, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
