package features

import (
	"image"
	"math"

	"github.com/fogleman/gg"
	"github.com/lucasb-eyer/go-colorful"

	"go.viam.com/describer/utils"
)

// PlotFeatures draws every filled feature on img as a circle of its scale with a line
// showing its orientation, and saves the result as a PNG. The hue of a feature is its
// orientation.
func PlotFeatures(img image.Image, feats []PointFeature, outName string) error {
	b := img.Bounds()
	dc := gg.NewContext(b.Dx(), b.Dy())
	dc.DrawImage(img, -b.Min.X, -b.Min.Y)

	dc.SetLineWidth(1)
	for _, f := range feats {
		if f.IsZero() {
			continue
		}
		x, y := float64(f.X), float64(f.Y)
		r := math.Max(float64(f.Scale), 1)
		angle := float64(f.Orientation)
		dc.SetColor(colorful.Hsv(utils.RadToDeg(utils.ModAngRad(angle)), 1, 1))
		dc.DrawCircle(x, y, r)
		dc.Stroke()
		dc.DrawLine(x, y, x+r*math.Cos(angle), y+r*math.Sin(angle))
		dc.Stroke()
	}
	return dc.SavePNG(outName)
}
