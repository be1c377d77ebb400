package rimage

import (
	"image"
	"math"

	"gonum.org/v1/gonum/mat"

	"go.viam.com/describer/utils"
)

// SameImgSize compares images to see if they have the same extent.
func SameImgSize(g1, g2 image.Image) bool {
	return g1.Bounds().Size() == g2.Bounds().Size()
}

// GrayToFloat64 converts a gray image to a matrix (rows = y, cols = x) with values in [0, 1].
func GrayToFloat64(img *image.Gray) *mat.Dense {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	out := mat.NewDense(h, w, nil)
	for y := 0; y < h; y++ {
		row := img.Pix[y*img.Stride : y*img.Stride+w]
		for x, v := range row {
			out.Set(y, x, float64(v)/255.)
		}
	}
	return out
}

// HalfSample downsamples m by two in each dimension, averaging 2x2 blocks.
// Odd trailing rows and columns are dropped.
func HalfSample(m *mat.Dense) *mat.Dense {
	h, w := m.Dims()
	hh, hw := utils.MaxInt(h/2, 1), utils.MaxInt(w/2, 1)
	out := mat.NewDense(hh, hw, nil)
	for y := 0; y < hh; y++ {
		y0, y1 := utils.MinInt(2*y, h-1), utils.MinInt(2*y+1, h-1)
		for x := 0; x < hw; x++ {
			x0, x1 := utils.MinInt(2*x, w-1), utils.MinInt(2*x+1, w-1)
			out.Set(y, x, 0.25*(m.At(y0, x0)+m.At(y0, x1)+m.At(y1, x0)+m.At(y1, x1)))
		}
	}
	return out
}

// BilinearAt samples m at the sub-pixel location (x, y). Coordinates outside the
// matrix are clamped to its border.
func BilinearAt(m *mat.Dense, x, y float64) float64 {
	h, w := m.Dims()
	x = utils.ClampF64(x, 0, float64(w-1))
	y = utils.ClampF64(y, 0, float64(h-1))
	x0, y0 := int(math.Floor(x)), int(math.Floor(y))
	x1, y1 := utils.MinInt(x0+1, w-1), utils.MinInt(y0+1, h-1)
	fx, fy := x-float64(x0), y-float64(y0)
	top := (1-fx)*m.At(y0, x0) + fx*m.At(y0, x1)
	bottom := (1-fx)*m.At(y1, x0) + fx*m.At(y1, x1)
	return (1-fy)*top + fy*bottom
}

// GrayAtClamped returns the pixel value of img at (x, y), clamped to the image bounds.
func GrayAtClamped(img *image.Gray, x, y int) uint8 {
	b := img.Bounds()
	x = utils.ClampInt(x, b.Min.X, b.Max.X-1)
	y = utils.ClampInt(y, b.Min.Y, b.Max.Y-1)
	return img.GrayAt(x, y).Y
}
