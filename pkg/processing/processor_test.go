package processing

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// createTestImage creates a gradient test image
func createTestImage(width, height int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			r := uint8((x * 255) / width)
			g := uint8((y * 255) / height)
			img.Set(x, y, color.RGBA{r, g, 128, 255})
		}
	}
	return img
}

func pngBytes(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestDataURLRoundTrip(t *testing.T) {
	data := pngBytes(t, createTestImage(8, 8))
	u := EncodeDataURL(data, "image/png")

	got, mimeType, err := ParseDataURL(u)
	require.NoError(t, err)
	assert.Equal(t, "image/png", mimeType)
	assert.Equal(t, data, got)
}

func TestParseDataURLBareBase64(t *testing.T) {
	data := pngBytes(t, createTestImage(4, 4))
	u := EncodeDataURL(data, "image/png")

	got, mimeType, err := ParseDataURL(u[len("data:image/png;base64,"):])
	require.NoError(t, err)
	assert.Equal(t, "image/png", mimeType)
	assert.Equal(t, data, got)
}

func TestParseDataURLErrors(t *testing.T) {
	for _, s := range []string{"", "data:image/png;base64", "data:image/png,abc", "data:image/png;base64,!!!"} {
		_, _, err := ParseDataURL(s)
		assert.Error(t, err, s)
	}
}

func TestDecodeAndInfo(t *testing.T) {
	p := NewProcessor()
	img, err := p.Decode(pngBytes(t, createTestImage(40, 20)))
	require.NoError(t, err)

	info := p.Info(img)
	assert.Equal(t, 40, info.Width)
	assert.Equal(t, 20, info.Height)
	assert.Equal(t, 2.0, info.AspectRatio)

	_, err = p.Decode([]byte("not an image"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	p := NewProcessor()
	assert.NoError(t, p.Validate(createTestImage(64, 64), 32))
	assert.Error(t, p.Validate(createTestImage(16, 64), 32))
}

func TestPrepareForUpload(t *testing.T) {
	p := NewProcessor()
	data := pngBytes(t, createTestImage(200, 100))

	same, mimeType, err := p.PrepareForUpload(data, "image/png", 0, 85)
	require.NoError(t, err)
	assert.Equal(t, data, same)
	assert.Equal(t, "image/png", mimeType)

	small, mimeType, err := p.PrepareForUpload(data, "image/png", 50, 85)
	require.NoError(t, err)
	assert.Equal(t, "image/jpeg", mimeType)
	img, err := p.Decode(small)
	require.NoError(t, err)
	assert.Equal(t, 50, img.Bounds().Dx())
	assert.Equal(t, 25, img.Bounds().Dy())
}

func TestEncodeFormats(t *testing.T) {
	p := NewProcessor()
	img := createTestImage(16, 16)

	for _, format := range []string{"png", "jpg"} {
		var buf bytes.Buffer
		require.NoError(t, p.Encode(&buf, img, format, 90, false), format)
		decoded, err := p.Decode(buf.Bytes())
		require.NoError(t, err, format)
		assert.Equal(t, 16, decoded.Bounds().Dx())
	}

	var buf bytes.Buffer
	assert.Error(t, p.Encode(&buf, img, "tiff", 90, false))
	assert.Equal(t, "image/webp", MIMEType("webp"))
	assert.Equal(t, "image/jpeg", MIMEType("jpg"))
}

func TestLoadSmart(t *testing.T) {
	p := NewProcessor()
	data := pngBytes(t, createTestImage(10, 10))

	dir := t.TempDir()
	path := filepath.Join(dir, "skin.png")
	require.NoError(t, os.WriteFile(path, data, 0o644))

	got, mimeType, err := p.LoadSmart(path)
	require.NoError(t, err)
	assert.Equal(t, "image/png", mimeType)
	assert.Equal(t, data, got)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(data)
	}))
	defer srv.Close()

	got, mimeType, err = p.LoadSmart(srv.URL + "/skin.png")
	require.NoError(t, err)
	assert.Equal(t, "image/png", mimeType)
	assert.Equal(t, data, got)

	got, _, err = p.LoadSmart(EncodeDataURL(data, "image/png"))
	require.NoError(t, err)
	assert.Equal(t, data, got)
}

func TestLoadFromURLRejectsNonImage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte("<html></html>"))
	}))
	defer srv.Close()

	_, _, err := NewProcessor().LoadFromURL(srv.URL)
	assert.Error(t, err)

	_, _, err = NewProcessor().LoadFromURL("ftp://example.com/a.png")
	assert.Error(t, err)
}
