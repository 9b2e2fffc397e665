package client

import (
	"context"

	"github.com/pkg/errors"

	"github.com/menta2k/dermascan/pkg/types"
)

var (
	// ErrUpstreamFailure covers transport errors, non-2xx statuses and bodies
	// that match none of the known response shapes.
	ErrUpstreamFailure = errors.New("upstream failure")
	// ErrParse is returned when a generative reply carries no usable JSON object.
	ErrParse = errors.New("no parsable json object in model output")
)

// VisionClient turns one detection request into provider-agnostic predictions
type VisionClient interface {
	Analyze(ctx context.Context, req types.DetectionRequest) (*types.AdapterResult, error)
}
