package annotate

import (
	"image"
	"sync"

	"github.com/disintegration/imaging"
	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"github.com/pkg/errors"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"

	"github.com/menta2k/dermascan/pkg/types"
)

var labelFont = sync.OnceValues(func() (*truetype.Font, error) {
	return truetype.Parse(gobold.TTF)
})

// newFace returns a fresh label face. Faces cache glyphs and are not safe
// for concurrent use.
func newFace() (font.Face, error) {
	f, err := labelFont()
	if err != nil {
		return nil, errors.Wrap(err, "parse label font")
	}
	return truetype.NewFace(f, &truetype.Options{Size: FontSize}), nil
}

// Render draws src scaled to the planned canvas with every box and label on top
func Render(src image.Image, boxes []types.LabeledBox, opts Options) (image.Image, error) {
	if src == nil {
		return nil, errors.New("no source image")
	}
	b := src.Bounds()
	if b.Dx() == 0 || b.Dy() == 0 {
		return nil, errors.Errorf("empty source image %dx%d", b.Dx(), b.Dy())
	}

	face, err := newFace()
	if err != nil {
		return nil, err
	}
	defer face.Close()

	measure := func(text string) float64 {
		return float64(font.MeasureString(face, text)) / 64
	}
	plan := Plan(b.Dx(), b.Dy(), boxes, opts, measure)

	dc := gg.NewContext(plan.Width, plan.Height)
	dc.SetFontFace(face)
	for _, cmd := range plan.Commands {
		switch cmd.Op {
		case OpImage:
			dc.DrawImage(imaging.Resize(src, plan.Width, plan.Height, imaging.Lanczos), 0, 0)
		case OpFillRect:
			dc.SetColor(cmd.Color)
			dc.DrawRectangle(cmd.X, cmd.Y, cmd.W, cmd.H)
			dc.Fill()
		case OpStrokeRect:
			dc.SetColor(cmd.Color)
			dc.SetLineWidth(cmd.LineWidth)
			dc.DrawRectangle(cmd.X, cmd.Y, cmd.W, cmd.H)
			dc.Stroke()
		case OpText:
			dc.SetColor(cmd.Color)
			dc.DrawString(cmd.Text, cmd.X, cmd.Y)
		}
	}
	return dc.Image(), nil
}
