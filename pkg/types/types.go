package types

import "time"

// Severity is the coarse severity bucket attached to a detection
type Severity string

const (
	SeverityNone     Severity = "none"
	SeverityMild     Severity = "mild"
	SeverityModerate Severity = "moderate"
	SeveritySevere   Severity = "severe"
)

// ProviderKind names an upstream vision provider
type ProviderKind string

const (
	ProviderRoboflow ProviderKind = "roboflow"
	ProviderGemini   ProviderKind = "gemini"
	ProviderOllama   ProviderKind = "ollama"
	ProviderLlamaCpp ProviderKind = "llamacpp"
)

// DetectorConfig holds credentials for the hosted detector/classifier
type DetectorConfig struct {
	APIKey  string `json:"apiKey"`
	ModelID string `json:"modelId"`
}

// GenerativeConfig holds credentials for the hosted generative-vision model
type GenerativeConfig struct {
	APIKey string `json:"apiKey"`
}

// LocalConfig points at a self-hosted generative-vision model
type LocalConfig struct {
	URL   string `json:"url"`
	Model string `json:"model"`
}

// ProviderConfig selects the provider for one analysis and carries its credentials.
// It is passed explicitly into every call.
type ProviderConfig struct {
	Kind       ProviderKind     `json:"provider"`
	Detector   DetectorConfig   `json:"detector"`
	Generative GenerativeConfig `json:"generative"`
	Local      LocalConfig      `json:"local"`
}

// Configured reports whether the selected provider has everything it needs
func (c ProviderConfig) Configured() bool {
	switch c.Kind {
	case ProviderRoboflow:
		return c.Detector.APIKey != "" && c.Detector.ModelID != ""
	case ProviderGemini:
		return c.Generative.APIKey != ""
	case ProviderOllama:
		return c.Local.URL != "" && c.Local.Model != ""
	case ProviderLlamaCpp:
		return c.Local.URL != ""
	}
	return false
}

// DetectionRequest is one analysis attempt
type DetectionRequest struct {
	// Image is the decoded image payload
	Image    []byte
	MIMEType string
	// ImageSrc is the caller's original representation (usually a data URL),
	// echoed back on the Detection.
	ImageSrc string
	Provider ProviderConfig
}

// Box is a center-based bounding box in source-image pixels
type Box struct {
	CenterX float64 `json:"x"`
	CenterY float64 `json:"y"`
	Width   float64 `json:"width"`
	Height  float64 `json:"height"`
}

// RawPrediction is a provider-agnostic prediction as returned by an adapter
type RawPrediction struct {
	Label         string  `json:"label"`
	RawConfidence float64 `json:"rawConfidence"`
	Box           *Box    `json:"box,omitempty"`
	Description   string  `json:"description,omitempty"`
}

// AdapterResult is everything an adapter extracted from one upstream response
type AdapterResult struct {
	Predictions []RawPrediction
	// ImageWidth and ImageHeight are the dimensions box coordinates refer to,
	// zero when the provider did not report them.
	ImageWidth  int
	ImageHeight int
}

// LabeledBox is a qualifying box carried on a Detection
type LabeledBox struct {
	Box
	Label             string `json:"class"`
	ConfidencePercent int    `json:"confidence"`
}

// DiseaseInfo is a static catalog entry
type DiseaseInfo struct {
	ID              string   `json:"id"`
	Name            string   `json:"name"`
	Description     string   `json:"description"`
	Severity        string   `json:"severity"`
	Symptoms        []string `json:"symptoms"`
	Causes          []string `json:"causes"`
	Treatments      []string `json:"treatments"`
	Prevention      []string `json:"prevention"`
	WhenToSeeDoctor []string `json:"whenToSeeDoctor"`
}

// ConditionMatch pairs one detected label with its catalog entry, if any
type ConditionMatch struct {
	Label             string       `json:"name"`
	ConfidencePercent int          `json:"confidence"`
	Disease           *DiseaseInfo `json:"info,omitempty"`
}

// Detection is the canonical analysis result
type Detection struct {
	ID                  string           `json:"id"`
	ImageSrc            string           `json:"imageSrc,omitempty"`
	Label               string           `json:"disease"`
	ConfidencePercent   int              `json:"confidence"`
	Severity            Severity         `json:"severity"`
	Suggestions         []string         `json:"suggestions"`
	CreatedAt           time.Time        `json:"timestamp"`
	Boxes               []LabeledBox     `json:"predictions,omitempty"`
	ImageWidth          int              `json:"imageWidth,omitempty"`
	ImageHeight         int              `json:"imageHeight,omitempty"`
	NoConditionDetected bool             `json:"noDiseaseDetected"`
	IsSimulated         bool             `json:"isSimulated,omitempty"`
	Description         string           `json:"description,omitempty"`
	Notes               string           `json:"notes,omitempty"`
	Conditions          []ConditionMatch `json:"conditions,omitempty"`
}
