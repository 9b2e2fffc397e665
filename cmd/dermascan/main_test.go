package main

import (
	"bytes"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/menta2k/dermascan/internal/config"
	"github.com/menta2k/dermascan/pkg/types"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var buf bytes.Buffer
	app.Writer = &buf
	err := app.Run(append([]string{"dermascan"}, args...))
	return buf.String(), err
}

func TestMatchCommand(t *testing.T) {
	out, err := run(t, "match", "Tinea Corporis", "unknown thing")
	require.NoError(t, err)
	assert.Contains(t, out, "Tinea Corporis: Ringworm (ringworm)")
	assert.Contains(t, out, "unknown thing: no match")

	_, err = run(t, "match")
	assert.Error(t, err)
}

func TestLibraryCommand(t *testing.T) {
	out, err := run(t, "library")
	require.NoError(t, err)
	assert.Contains(t, out, "melanoma")
	assert.Contains(t, out, "Hives (Urticaria)")
}

func TestConfigInit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfg", "config.json")

	out, err := run(t, "config", "init", "--path", path)
	require.NoError(t, err)
	assert.Contains(t, out, path)

	cfg, err := config.LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, config.Default(), cfg)

	_, err = run(t, "config", "init", "--path", path)
	assert.Error(t, err)

	_, err = run(t, "config", "init", "--path", path, "--force")
	assert.NoError(t, err)
}

func TestAnalyzeSimulatesWithoutCredentials(t *testing.T) {
	t.Setenv("DERMASCAN_SIMULATION_DELAY", "0s")
	t.Setenv("DERMASCAN_LOGGING_LEVEL", "error")
	t.Setenv("ROBOFLOW_API_KEY", "")
	t.Setenv("GEMINI_API_KEY", "")

	dir := t.TempDir()
	img := image.NewRGBA(image.Rect(0, 0, 32, 32))
	for i := range img.Pix {
		img.Pix[i] = 200
	}
	img.Set(0, 0, color.RGBA{255, 0, 0, 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	src := filepath.Join(dir, "arm.png")
	require.NoError(t, os.WriteFile(src, buf.Bytes(), 0o644))

	outDir := filepath.Join(dir, "out")
	out, err := run(t, "analyze", "--provider", "roboflow", "--out", outDir, src)
	require.NoError(t, err)
	assert.Contains(t, out, "[simulated]")

	data, err := os.ReadFile(filepath.Join(outDir, "arm.json"))
	require.NoError(t, err)
	var det types.Detection
	require.NoError(t, json.Unmarshal(data, &det))
	assert.True(t, det.IsSimulated)
	assert.Equal(t, src, det.ImageSrc)
}

func TestAnalyzeRequiresSource(t *testing.T) {
	_, err := run(t, "analyze")
	assert.Error(t, err)
}
