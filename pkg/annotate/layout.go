package annotate

import "math"

// DefaultMaxHeight caps the base display height
const DefaultMaxHeight = 500

// Size is a display size in logical units
type Size struct {
	Width  float64
	Height float64
}

// Layout fits an image of natural size into containerW wide and maxH high
// while preserving its aspect ratio. The result is the 1.0 zoom size.
func Layout(naturalW, naturalH int, containerW, maxH float64) Size {
	if naturalW <= 0 || naturalH <= 0 {
		return Size{}
	}
	if containerW <= 0 {
		containerW = float64(naturalW)
	}
	if maxH <= 0 {
		maxH = DefaultMaxHeight
	}

	aspect := float64(naturalW) / float64(naturalH)
	size := Size{Width: containerW, Height: containerW / aspect}
	if size.Height > maxH {
		size.Height = maxH
		size.Width = maxH * aspect
	}
	return size
}

// Zoom is the interactive scale applied on top of the base layout
type Zoom float64

const (
	MinZoom  Zoom = 0.5
	MaxZoom  Zoom = 2.0
	ZoomStep Zoom = 0.25
)

// Clamp keeps z within [MinZoom, MaxZoom]. Zero means 1.0.
func (z Zoom) Clamp() Zoom {
	switch {
	case z == 0:
		return 1
	case z < MinZoom:
		return MinZoom
	case z > MaxZoom:
		return MaxZoom
	}
	return z
}

// In steps up, stopping at MaxZoom
func (z Zoom) In() Zoom {
	return min(z.Clamp()+ZoomStep, MaxZoom)
}

// Out steps down, stopping at MinZoom
func (z Zoom) Out() Zoom {
	return max(z.Clamp()-ZoomStep, MinZoom)
}

// Percent is the zoom as a rounded percentage
func (z Zoom) Percent() int {
	return int(math.Round(float64(z.Clamp()) * 100))
}

// CanvasSize is the pixel size of the raster surface for a layout and zoom.
// Fractional pixels are truncated.
func CanvasSize(base Size, z Zoom) (int, int) {
	z = z.Clamp()
	w := int(base.Width * float64(z))
	h := int(base.Height * float64(z))
	return max(w, 1), max(h, 1)
}
