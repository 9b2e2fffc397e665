package annotate

import (
	"fmt"
	"image/color"
	"math"

	"github.com/menta2k/dermascan/pkg/types"
)

// Drawing constants for boxes and label chips
const (
	FillAlpha   = 0.1
	StrokeWidth = 3.0
	FontSize    = 14.0
	TextHeight  = 20.0
	LabelPad    = 6.0
)

var textColor = color.RGBA{R: 255, G: 255, B: 255, A: 255}

// Op is a drawing operation
type Op int

const (
	OpImage Op = iota
	OpFillRect
	OpStrokeRect
	OpText
)

func (o Op) String() string {
	switch o {
	case OpImage:
		return "image"
	case OpFillRect:
		return "fill"
	case OpStrokeRect:
		return "stroke"
	case OpText:
		return "text"
	}
	return fmt.Sprintf("Op(%d)", int(o))
}

// Command is one drawing step in canvas pixel space. For OpText, (X, Y) is
// the baseline origin.
type Command struct {
	Op        Op
	X, Y      float64
	W, H      float64
	Color     color.Color
	LineWidth float64
	Text      string
}

// Options controls the overlay layout
type Options struct {
	// ContainerWidth is the available display width; zero means the natural width
	ContainerWidth float64
	// MaxHeight caps the base display height; zero means DefaultMaxHeight
	MaxHeight float64
	Zoom      Zoom
	// ImageWidth and ImageHeight are the dimensions box coordinates refer
	// to. Zero falls back to the natural image size.
	ImageWidth  int
	ImageHeight int
}

// Measurer returns the advance width of text in the label font
type Measurer func(text string) float64

// Canvas is a planned raster surface and the commands that draw it
type Canvas struct {
	Width    int
	Height   int
	Commands []Command
}

// LabelText is the chip text for a box
func LabelText(b types.LabeledBox) string {
	return fmt.Sprintf("%s %d%%", b.Label, b.ConfidencePercent)
}

// Plan lays out the canvas for an image of natural size and produces the
// ordered draw commands: the scaled image first, then per box a translucent
// fill, its outline, the label chip and the label text.
func Plan(naturalW, naturalH int, boxes []types.LabeledBox, opts Options, measure Measurer) Canvas {
	base := Layout(naturalW, naturalH, opts.ContainerWidth, opts.MaxHeight)
	if base.Width == 0 {
		return Canvas{}
	}
	w, h := CanvasSize(base, opts.Zoom)

	c := Canvas{Width: w, Height: h}
	c.Commands = append(c.Commands, Command{Op: OpImage, W: float64(w), H: float64(h)})
	if len(boxes) == 0 {
		return c
	}

	refW, refH := opts.ImageWidth, opts.ImageHeight
	if refW <= 0 {
		refW = naturalW
	}
	if refH <= 0 {
		refH = naturalH
	}
	scaleX := float64(w) / float64(refW)
	scaleY := float64(h) / float64(refH)

	for _, b := range boxes {
		col := ColorOf(b.Label)
		fill := color.NRGBA{R: col.R, G: col.G, B: col.B, A: uint8(math.Round(FillAlpha * 255))}

		boxX := (b.CenterX - b.Width/2) * scaleX
		boxY := (b.CenterY - b.Height/2) * scaleY
		boxW := b.Width * scaleX
		boxH := b.Height * scaleY

		text := LabelText(b)
		labelY := boxY + boxH
		if boxY > TextHeight+LabelPad*2 {
			labelY = boxY - TextHeight - LabelPad
		}

		c.Commands = append(c.Commands,
			Command{Op: OpFillRect, X: boxX, Y: boxY, W: boxW, H: boxH, Color: fill},
			Command{Op: OpStrokeRect, X: boxX, Y: boxY, W: boxW, H: boxH, Color: col, LineWidth: StrokeWidth},
			Command{Op: OpFillRect, X: boxX, Y: labelY, W: measure(text) + LabelPad*2, H: TextHeight + LabelPad, Color: col},
			Command{Op: OpText, X: boxX + LabelPad, Y: labelY + TextHeight, Color: textColor, Text: text},
		)
	}
	return c
}
