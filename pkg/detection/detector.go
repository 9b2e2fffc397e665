package detection

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/menta2k/dermascan/pkg/client"
	"github.com/menta2k/dermascan/pkg/library"
	"github.com/menta2k/dermascan/pkg/policy"
	"github.com/menta2k/dermascan/pkg/types"
)

// Resolver builds the vision client for a provider configuration
type Resolver func(cfg types.ProviderConfig) (client.VisionClient, error)

// Config holds tunables for the normalizer
type Config struct {
	// SimulationDelay is the artificial latency of the simulation path
	SimulationDelay time.Duration
	// IntN draws a uniform integer in [0,n); defaults to math/rand/v2.IntN
	IntN   func(n int) int
	Now    func() time.Time
	NewID  func() string
	Logger *zap.Logger
}

// DefaultConfig mirrors real inference latency on the simulation path
func DefaultConfig() Config {
	return Config{SimulationDelay: 2 * time.Second}
}

// Detector resolves a provider, calls it and normalizes the outcome into a Detection
type Detector struct {
	resolve   Resolver
	simulator *Simulator
	now       func() time.Time
	newID     func() string
	logger    *zap.Logger
}

// NewDetector creates a detector with the default configuration
func NewDetector(resolve Resolver) *Detector {
	return NewDetectorWithConfig(resolve, DefaultConfig())
}

// NewDetectorWithConfig creates a detector with custom configuration
func NewDetectorWithConfig(resolve Resolver, cfg Config) *Detector {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.NewID == nil {
		cfg.NewID = uuid.NewString
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &Detector{
		resolve:   resolve,
		simulator: NewSimulator(cfg.SimulationDelay, cfg.IntN),
		now:       cfg.Now,
		newID:     cfg.NewID,
		logger:    cfg.Logger,
	}
}

// Analyze runs one detection attempt. Upstream failures never surface: they
// fall back to a simulated result. The only error returned is the context's.
func (d *Detector) Analyze(ctx context.Context, req types.DetectionRequest) (*types.Detection, error) {
	provider := string(req.Provider.Kind)

	if !req.Provider.Configured() || d.resolve == nil {
		d.logger.Info("no provider configured, simulating", zap.String("provider", provider))
		return d.Simulate(ctx, req)
	}

	vc, err := d.resolve(req.Provider)
	if err != nil {
		d.logger.Warn("provider unavailable, simulating", zap.String("provider", provider), zap.Error(err))
		return d.Simulate(ctx, req)
	}

	result, err := vc.Analyze(ctx, req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		d.logger.Warn("provider failed, simulating", zap.String("provider", provider), zap.Error(err))
		return d.Simulate(ctx, req)
	}

	detection := d.Normalize(result, req)
	d.logger.Info("detection complete",
		zap.String("provider", provider),
		zap.String("label", detection.Label),
		zap.Int("confidence", detection.ConfidencePercent),
		zap.Int("boxes", len(detection.Boxes)),
	)
	return detection, nil
}

// Normalize turns adapter output into a Detection. The highest-confidence
// prediction becomes the primary label; every qualifying prediction with a box
// is kept as an overlay box.
func (d *Detector) Normalize(result *types.AdapterResult, req types.DetectionRequest) *types.Detection {
	if result == nil {
		return d.NoCondition(req)
	}

	qualifying := lo.Filter(result.Predictions, func(p types.RawPrediction, _ int) bool {
		return policy.Qualifies(p.RawConfidence)
	})
	if len(qualifying) == 0 {
		return d.NoCondition(req)
	}

	top := lo.MaxBy(qualifying, func(a, b types.RawPrediction) bool {
		return a.RawConfidence > b.RawConfidence
	})
	if policy.IsNoCondition(top.Label) {
		return d.NoCondition(req)
	}
	cls := policy.ClassifyLabel(top.Label, top.RawConfidence)

	det := d.base(req)
	det.Label = top.Label
	det.ConfidencePercent = cls.ConfidencePercent
	det.Severity = cls.Severity
	det.Description = top.Description
	det.Suggestions = library.Suggestions(top.Label, cls.Severity)

	for _, p := range qualifying {
		if p.Box == nil {
			continue
		}
		det.Boxes = append(det.Boxes, types.LabeledBox{
			Box:               *p.Box,
			Label:             p.Label,
			ConfidencePercent: policy.Percent(p.RawConfidence),
		})
	}
	if len(det.Boxes) > 0 {
		det.ImageWidth, det.ImageHeight = result.ImageWidth, result.ImageHeight
	}
	return det
}

// NoCondition is the fixed "nothing detected" result
func (d *Detector) NoCondition(req types.DetectionRequest) *types.Detection {
	cls := policy.ClassifyLabel(policy.NoConditionLabel, 1)

	det := d.base(req)
	det.Label = policy.NoConditionLabel
	det.ConfidencePercent = cls.ConfidencePercent
	det.Severity = cls.Severity
	det.Suggestions = library.Suggestions(policy.NoConditionLabel, cls.Severity)
	det.NoConditionDetected = true
	return det
}

// Simulate waits the configured delay and returns a randomly parameterized result
func (d *Detector) Simulate(ctx context.Context, req types.DetectionRequest) (*types.Detection, error) {
	if err := d.simulator.Wait(ctx); err != nil {
		return nil, err
	}
	label, severity, percent := d.simulator.Pick()

	det := d.base(req)
	det.Label = label
	det.ConfidencePercent = percent
	det.Severity = severity
	det.Suggestions = library.Suggestions(label, severity)
	det.IsSimulated = true
	return det, nil
}

func (d *Detector) base(req types.DetectionRequest) *types.Detection {
	return &types.Detection{
		ID:        d.newID(),
		ImageSrc:  req.ImageSrc,
		CreatedAt: d.now(),
	}
}
