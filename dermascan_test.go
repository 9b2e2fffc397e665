package dermascan

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/menta2k/dermascan/pkg/annotate"
	"github.com/menta2k/dermascan/pkg/processing"
	"github.com/menta2k/dermascan/pkg/types"
)

// createTestImage creates a simple test image
func createTestImage(width, height int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{200, 150, 130, 255})
		}
	}
	return img
}

func testDataURL(t *testing.T) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, createTestImage(64, 48)))
	return processing.EncodeDataURL(buf.Bytes(), "image/png")
}

func testOptions(roboflowURL string) Options {
	opts := DefaultOptions()
	opts.RoboflowBaseURL = roboflowURL
	opts.Detection.SimulationDelay = 0
	return opts
}

var roboflowProvider = types.ProviderConfig{
	Kind:     types.ProviderRoboflow,
	Detector: types.DetectorConfig{APIKey: "key", ModelID: "skin/2"},
}

func TestDetectWithRoboflowDetector(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/skin/2", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"image": {"width": 64, "height": 48},
			"predictions": [
				{"x": 20, "y": 20, "width": 10, "height": 10, "class": "eczema", "confidence": 0.62},
				{"x": 40, "y": 30, "width": 12, "height": 8, "class": "Tinea Corporis", "confidence": 0.91},
				{"x": 10, "y": 10, "width": 4, "height": 4, "class": "Eczema", "confidence": 0.5}
			]
		}`))
	}))
	defer srv.Close()

	svc := New(testOptions(srv.URL))
	src := testDataURL(t)
	req, err := RequestFromDataURL(src, roboflowProvider)
	require.NoError(t, err)

	det, err := svc.Detect(context.Background(), req)
	require.NoError(t, err)
	assert.False(t, det.IsSimulated)
	assert.Equal(t, "Tinea Corporis", det.Label)
	assert.Equal(t, 91, det.ConfidencePercent)
	assert.Equal(t, types.SeveritySevere, det.Severity)
	assert.Equal(t, src, det.ImageSrc)
	assert.Len(t, det.Boxes, 3)
	assert.Equal(t, 64, det.ImageWidth)

	// primary first, then distinct box labels case-insensitively
	require.Len(t, det.Conditions, 2)
	assert.Equal(t, "Tinea Corporis", det.Conditions[0].Label)
	require.NotNil(t, det.Conditions[0].Disease)
	assert.Equal(t, "ringworm", det.Conditions[0].Disease.ID)
	assert.Equal(t, "eczema", det.Conditions[1].Label)
	assert.Equal(t, 62, det.Conditions[1].ConfidencePercent)
	require.NotNil(t, det.Conditions[1].Disease)
	assert.Equal(t, "eczema", det.Conditions[1].Disease.ID)
}

func TestDetectFallsBackWhenUpstreamFails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	defer srv.Close()

	svc := New(testOptions(srv.URL))
	req, err := RequestFromDataURL(testDataURL(t), roboflowProvider)
	require.NoError(t, err)

	det, err := svc.Detect(context.Background(), req)
	require.NoError(t, err)
	assert.True(t, det.IsSimulated)
	assert.NotEmpty(t, det.Conditions)
}

func TestDetectNoCondition(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"predictions": []}`))
	}))
	defer srv.Close()

	svc := New(testOptions(srv.URL))
	req, err := RequestFromDataURL(testDataURL(t), roboflowProvider)
	require.NoError(t, err)

	det, err := svc.Detect(context.Background(), req)
	require.NoError(t, err)
	assert.True(t, det.NoConditionDetected)
	assert.Empty(t, det.Conditions)
}

func TestDetectDownsizesUpload(t *testing.T) {
	var got []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		buf := new(bytes.Buffer)
		_, _ = buf.ReadFrom(r.Body)
		got = buf.Bytes()
		_, _ = w.Write([]byte(`{"top": "Acne", "confidence": 0.8}`))
	}))
	defer srv.Close()

	opts := testOptions(srv.URL)
	opts.MaxUploadDim = 32
	svc := New(opts)
	req, err := RequestFromDataURL(testDataURL(t), roboflowProvider)
	require.NoError(t, err)

	det, err := svc.Detect(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "Acne", det.Label)

	data, mimeType, err := processing.ParseDataURL(string(got))
	require.NoError(t, err)
	assert.Equal(t, "image/jpeg", mimeType)
	img, err := svc.Decode(data)
	require.NoError(t, err)
	assert.Equal(t, 32, img.Bounds().Dx())
}

func TestRequestFromDataURLRejectsGarbage(t *testing.T) {
	_, err := RequestFromDataURL("data:image/png;base64,***", roboflowProvider)
	assert.Error(t, err)
}

func TestMatchConditions(t *testing.T) {
	assert.Nil(t, MatchConditions(nil))
	assert.Nil(t, MatchConditions(&types.Detection{NoConditionDetected: true, Label: "No Skin Disease Detected"}))

	matches := MatchConditions(&types.Detection{Label: "Mystery Rash", ConfidencePercent: 70})
	require.Len(t, matches, 1)
	assert.Nil(t, matches[0].Disease)
}

func TestNewResolver(t *testing.T) {
	resolve := NewResolver(DefaultOptions())

	_, err := resolve(roboflowProvider)
	assert.NoError(t, err)
	_, err = resolve(types.ProviderConfig{Kind: types.ProviderGemini, Generative: types.GenerativeConfig{APIKey: "g"}})
	assert.NoError(t, err)
	_, err = resolve(types.ProviderConfig{Kind: types.ProviderOllama, Local: types.LocalConfig{URL: "http://localhost:11434", Model: "llava"}})
	assert.NoError(t, err)
	_, err = resolve(types.ProviderConfig{Kind: types.ProviderLlamaCpp, Local: types.LocalConfig{URL: "http://localhost:8081"}})
	assert.NoError(t, err)
	_, err = resolve(types.ProviderConfig{Kind: "openai"})
	assert.Error(t, err)
}

func TestAnnotateDetection(t *testing.T) {
	svc := New(DefaultOptions())
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, createTestImage(200, 100)))

	det := &types.Detection{
		Boxes: []types.LabeledBox{
			{Box: types.Box{CenterX: 50, CenterY: 50, Width: 20, Height: 20}, Label: "Acne", ConfidencePercent: 70},
			{Box: types.Box{CenterX: 150, CenterY: 50, Width: 20, Height: 20}, Label: "Acne", ConfidencePercent: 45},
		},
	}
	img, legend, err := svc.AnnotateDetection(buf.Bytes(), det, annotate.Zoom(0.5))
	require.NoError(t, err)
	assert.Equal(t, 400, img.Bounds().Dx())
	assert.Equal(t, 200, img.Bounds().Dy())
	require.Len(t, legend, 1)
	assert.Equal(t, 70, legend[0].ConfidencePercent)

	var out bytes.Buffer
	require.NoError(t, svc.Encode(&out, img, "png", 90))
	assert.NotZero(t, out.Len())
}

func TestInspect(t *testing.T) {
	svc := New(DefaultOptions())
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, createTestImage(120, 60)))

	info, err := svc.Inspect(buf.Bytes())
	require.NoError(t, err)
	assert.Equal(t, 120, info.Width)
	assert.Equal(t, 60, info.Height)
	assert.Equal(t, 2.0, info.AspectRatio)

	_, err = svc.Inspect([]byte("nope"))
	assert.Error(t, err)
}

func TestGetVersion(t *testing.T) {
	assert.Equal(t, Version, GetVersion())
}
