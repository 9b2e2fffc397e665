// Package dermascan detects skin conditions in photos through interchangeable
// vision providers and renders the findings as an annotated overlay.
//
// Basic usage:
//
//	package main
//
//	import (
//		"context"
//		"fmt"
//		"log"
//
//		"github.com/menta2k/dermascan"
//		"github.com/menta2k/dermascan/pkg/types"
//	)
//
//	func main() {
//		svc := dermascan.New(dermascan.DefaultOptions())
//
//		req, err := svc.RequestFromSource("photo.jpg", types.ProviderConfig{
//			Kind:     types.ProviderRoboflow,
//			Detector: types.DetectorConfig{APIKey: "key", ModelID: "skin-disease/1"},
//		})
//		if err != nil {
//			log.Fatal(err)
//		}
//
//		det, err := svc.Detect(context.Background(), req)
//		if err != nil {
//			log.Fatal(err)
//		}
//		fmt.Printf("%s (%d%%, %s)\n", det.Label, det.ConfidencePercent, det.Severity)
//	}
//
// The package consists of these components:
//
//  1. Adapters (pkg/roboflow, pkg/gemini, pkg/ollama, pkg/llamacpp): call one upstream each
//     and return provider-agnostic predictions
//  2. Policy (pkg/policy): confidence threshold and severity buckets
//  3. Detection (pkg/detection): normalizes adapter output into a Detection,
//     falling back to a simulated result when the provider fails
//  4. Annotate (pkg/annotate): per-label colors, layout and the box overlay
//  5. Library (pkg/library): static condition catalog and label matching
//
// A Detection never carries an upstream error. When the provider is missing or
// fails, the result is simulated and marked IsSimulated.
package dermascan

import (
	"context"
	"fmt"
	"image"
	"io"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/menta2k/dermascan/pkg/annotate"
	"github.com/menta2k/dermascan/pkg/client"
	"github.com/menta2k/dermascan/pkg/detection"
	"github.com/menta2k/dermascan/pkg/gemini"
	"github.com/menta2k/dermascan/pkg/library"
	"github.com/menta2k/dermascan/pkg/llamacpp"
	"github.com/menta2k/dermascan/pkg/ollama"
	"github.com/menta2k/dermascan/pkg/processing"
	"github.com/menta2k/dermascan/pkg/roboflow"
	"github.com/menta2k/dermascan/pkg/types"
)

// Version of the dermascan library
const Version = "1.0.0"

// Options configures a Service
type Options struct {
	// Upstream endpoints; empty uses each adapter's default
	RoboflowBaseURL string
	GeminiBaseURL   string
	// Timeout bounds each upstream call
	Timeout time.Duration
	// MaxUploadDim downsizes larger images before upload; zero disables
	MaxUploadDim  int
	UploadQuality int
	Detection     detection.Config
	Render        annotate.Options
	Logger        *zap.Logger
}

// DefaultOptions returns options with default values
func DefaultOptions() Options {
	return Options{
		Timeout:       60 * time.Second,
		UploadQuality: 90,
		Detection:     detection.DefaultConfig(),
		Render: annotate.Options{
			ContainerWidth: 800,
			MaxHeight:      annotate.DefaultMaxHeight,
		},
	}
}

// Service provides a high-level interface for detection, matching and annotation
type Service struct {
	detector  *detection.Detector
	processor *processing.Processor
	opts      Options
	logger    *zap.Logger
}

// New creates a Service. Provider clients are resolved per request.
func New(opts Options) *Service {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.UploadQuality <= 0 {
		opts.UploadQuality = 90
	}
	opts.Detection.Logger = opts.Logger.Named("detection")
	return NewWithResolver(NewResolver(opts), opts)
}

// NewWithResolver creates a Service with a custom provider resolver
func NewWithResolver(resolve detection.Resolver, opts Options) *Service {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Service{
		detector:  detection.NewDetectorWithConfig(resolve, opts.Detection),
		processor: processing.NewProcessor(),
		opts:      opts,
		logger:    opts.Logger,
	}
}

// NewResolver builds the adapter for a provider selection
func NewResolver(opts Options) detection.Resolver {
	return func(cfg types.ProviderConfig) (client.VisionClient, error) {
		switch cfg.Kind {
		case types.ProviderRoboflow:
			return roboflow.NewClient(opts.RoboflowBaseURL, cfg.Detector, opts.Timeout)
		case types.ProviderGemini:
			return gemini.NewClient(opts.GeminiBaseURL, cfg.Generative, opts.Timeout)
		case types.ProviderOllama:
			return ollama.NewClient(cfg.Local, opts.Timeout)
		case types.ProviderLlamaCpp:
			return llamacpp.NewClient(cfg.Local, opts.Timeout)
		}
		return nil, errors.Errorf("unknown provider %q", cfg.Kind)
	}
}

// RequestFromDataURL builds a request from a data URL or bare base64 payload.
// The original string is echoed back as the Detection's image source.
func RequestFromDataURL(src string, provider types.ProviderConfig) (types.DetectionRequest, error) {
	data, mimeType, err := processing.ParseDataURL(src)
	if err != nil {
		return types.DetectionRequest{}, err
	}
	return types.DetectionRequest{
		Image:    data,
		MIMEType: mimeType,
		ImageSrc: src,
		Provider: provider,
	}, nil
}

// RequestFromSource loads an image from a file path, URL or data URL
func (s *Service) RequestFromSource(source string, provider types.ProviderConfig) (types.DetectionRequest, error) {
	data, mimeType, err := s.processor.LoadSmart(source)
	if err != nil {
		return types.DetectionRequest{}, err
	}
	return types.DetectionRequest{
		Image:    data,
		MIMEType: mimeType,
		ImageSrc: source,
		Provider: provider,
	}, nil
}

// Detect runs one analysis and attaches catalog matches. The only error is
// context cancellation or an image that cannot be prepared for upload.
func (s *Service) Detect(ctx context.Context, req types.DetectionRequest) (*types.Detection, error) {
	if s.opts.MaxUploadDim > 0 && len(req.Image) > 0 {
		data, mimeType, err := s.processor.PrepareForUpload(req.Image, req.MIMEType, s.opts.MaxUploadDim, s.opts.UploadQuality)
		if err != nil {
			return nil, fmt.Errorf("failed to prepare image: %w", err)
		}
		req.Image, req.MIMEType = data, mimeType
	}

	det, err := s.detector.Analyze(ctx, req)
	if err != nil {
		return nil, err
	}
	det.Conditions = MatchConditions(det)
	return det, nil
}

// MatchConditions lists each distinct detected label, primary first then
// boxes in order, with its catalog entry when one matches. Labels compare
// case-insensitively. A no-condition result has none.
func MatchConditions(det *types.Detection) []types.ConditionMatch {
	if det == nil || det.NoConditionDetected {
		return nil
	}

	all := []types.ConditionMatch{{Label: det.Label, ConfidencePercent: det.ConfidencePercent}}
	for _, b := range det.Boxes {
		all = append(all, types.ConditionMatch{Label: b.Label, ConfidencePercent: b.ConfidencePercent})
	}
	uniq := lo.UniqBy(all, func(m types.ConditionMatch) string { return strings.ToLower(m.Label) })
	for i := range uniq {
		if info, ok := library.Match(uniq[i].Label); ok {
			uniq[i].Disease = info
		}
	}
	return uniq
}

// Annotate draws boxes over img. Zero-valued fields of opts take the
// service's render defaults.
func (s *Service) Annotate(img image.Image, boxes []types.LabeledBox, opts annotate.Options) (image.Image, []annotate.LegendEntry, error) {
	if opts.ContainerWidth == 0 {
		opts.ContainerWidth = s.opts.Render.ContainerWidth
	}
	if opts.MaxHeight == 0 {
		opts.MaxHeight = s.opts.Render.MaxHeight
	}
	out, err := annotate.Render(img, boxes, opts)
	if err != nil {
		return nil, nil, err
	}
	return out, annotate.Legend(boxes), nil
}

// AnnotateDetection decodes the detection's image bytes and draws its boxes
func (s *Service) AnnotateDetection(data []byte, det *types.Detection, zoom annotate.Zoom) (image.Image, []annotate.LegendEntry, error) {
	img, err := s.Decode(data)
	if err != nil {
		return nil, nil, err
	}
	return s.Annotate(img, det.Boxes, annotate.Options{
		Zoom:        zoom,
		ImageWidth:  det.ImageWidth,
		ImageHeight: det.ImageHeight,
	})
}

// Decode decodes JPEG, PNG or WebP bytes. Empty images are rejected.
func (s *Service) Decode(data []byte) (image.Image, error) {
	img, err := s.processor.Decode(data)
	if err != nil {
		return nil, err
	}
	if err := s.processor.Validate(img, 1); err != nil {
		return nil, err
	}
	return img, nil
}

// Inspect decodes data and reports its dimensions
func (s *Service) Inspect(data []byte) (processing.ImageInfo, error) {
	img, err := s.Decode(data)
	if err != nil {
		return processing.ImageInfo{}, err
	}
	return s.processor.Info(img), nil
}

// Encode writes img as jpg, png or webp
func (s *Service) Encode(w io.Writer, img image.Image, format string, quality int) error {
	return s.processor.Encode(w, img, format, quality, false)
}

// SaveImage saves an image to file
func (s *Service) SaveImage(img image.Image, path, format string, quality int) error {
	return s.processor.SaveImage(img, path, format, quality, false)
}

// GetVersion returns the library version
func GetVersion() string {
	return Version
}
