// Package roboflow adapts the hosted detector/classifier inference endpoint.
package roboflow

import (
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
	"github.com/menta2k/dermascan/pkg/policy"
	"github.com/menta2k/dermascan/pkg/types"
)

// DefaultBaseURL is the serverless inference host
const DefaultBaseURL = "https://serverless.roboflow.com"

// DefaultTopConfidence is assumed when the alternate classifier shape omits
// its confidence (or reports zero).
const DefaultTopConfidence = 0.75

// maxErrorBody bounds how much of a failed response is kept for the error message
const maxErrorBody = 512

// Client calls one model on the inference endpoint
type Client struct {
	baseURL    string
	apiKey     string
	modelID    string
	httpClient *http.Client
}

// NewClient creates a client for the given model. An empty baseURL uses DefaultBaseURL.
func NewClient(baseURL string, cfg types.DetectorConfig, timeout time.Duration) (*Client, error) {
	if cfg.APIKey == "" || cfg.ModelID == "" {
		return nil, fmt.Errorf("roboflow: api key and model id are required")
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		apiKey:  cfg.APIKey,
		modelID: strings.Trim(cfg.ModelID, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}, nil
}

// prediction is a detection entry; classification models reuse the key
// without the geometry fields
type prediction struct {
	X          float64  `json:"x"`
	Y          float64  `json:"y"`
	Width      *float64 `json:"width"`
	Height     *float64 `json:"height"`
	Class      string   `json:"class"`
	Confidence float64  `json:"confidence"`
}

// box returns nil unless the entry localizes something
func (p prediction) box() *types.Box {
	if p.Width == nil || p.Height == nil || *p.Width <= 0 || *p.Height <= 0 {
		return nil
	}
	return &types.Box{CenterX: p.X, CenterY: p.Y, Width: *p.Width, Height: *p.Height}
}

type predictedClass struct {
	Class      string  `json:"class"`
	Confidence float64 `json:"confidence"`
}

// response covers all three shapes; pointer/slice fields distinguish absence
type response struct {
	Predictions      *[]prediction    `json:"predictions"`
	PredictedClasses []predictedClass `json:"predicted_classes"`
	Top              string           `json:"top"`
	Confidence       *float64         `json:"confidence"`
	Image            *struct {
		Width  int `json:"width"`
		Height int `json:"height"`
	} `json:"image"`
}

// Analyze posts the base64 image and normalizes whichever shape comes back
func (c *Client) Analyze(ctx context.Context, req types.DetectionRequest) (*types.AdapterResult, error) {
	endpoint := fmt.Sprintf("%s/%s?api_key=%s", c.baseURL, c.modelID, url.QueryEscape(c.apiKey))
	body := base64.StdEncoding.EncodeToString(req.Image)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(body))
	if err != nil {
		return nil, errors.Wrapf(client.ErrUpstreamFailure, "build request: %v", err)
	}
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, errors.Wrapf(client.ErrUpstreamFailure, "roboflow request: %v", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrapf(client.ErrUpstreamFailure, "read body: %v", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		if len(data) > maxErrorBody {
			data = data[:maxErrorBody]
		}
		return nil, errors.Wrapf(client.ErrUpstreamFailure, "roboflow HTTP %d: %s", resp.StatusCode, string(data))
	}

	return parseResponse(data)
}

// parseResponse maps the detection, classification and top-label shapes onto
// one AdapterResult
func parseResponse(data []byte) (*types.AdapterResult, error) {
	var r response
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, errors.Wrapf(client.ErrUpstreamFailure, "decode roboflow response: %v", err)
	}

	switch {
	case r.Predictions != nil:
		result := &types.AdapterResult{}
		if r.Image != nil {
			result.ImageWidth, result.ImageHeight = r.Image.Width, r.Image.Height
		}
		for _, p := range *r.Predictions {
			if !policy.Qualifies(p.Confidence) {
				continue
			}
			result.Predictions = append(result.Predictions, types.RawPrediction{
				Label:         p.Class,
				RawConfidence: p.Confidence,
				Box:           p.box(),
			})
		}
		return result, nil

	case len(r.PredictedClasses) > 0:
		// ranked; only the top entry counts
		top := r.PredictedClasses[0]
		if !policy.Qualifies(top.Confidence) {
			return &types.AdapterResult{}, nil
		}
		return &types.AdapterResult{Predictions: []types.RawPrediction{{
			Label:         top.Class,
			RawConfidence: top.Confidence,
		}}}, nil

	case r.Top != "":
		conf := DefaultTopConfidence
		if r.Confidence != nil && *r.Confidence != 0 {
			conf = *r.Confidence
		}
		if !policy.Qualifies(conf) {
			return &types.AdapterResult{}, nil
		}
		return &types.AdapterResult{Predictions: []types.RawPrediction{{
			Label:         r.Top,
			RawConfidence: conf,
		}}}, nil
	}

	return nil, errors.Wrap(client.ErrUpstreamFailure, "unrecognized roboflow response shape")
}
