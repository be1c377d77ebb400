package akaze

import (
	"math"

	"go.viam.com/describer/features"
	"go.viam.com/describer/rimage"
)

const (
	// half side of the M-LDB pattern, in level sigmas.
	mldbPatternSize = 10
	// samples per cell side.
	mldbCellSamples = 4
)

// mldbGrids are the grid divisions of the M-LDB pattern. With 3 channels per cell the
// pairwise comparisons give 3*(6+36+120) = 486 bits.
var mldbGrids = []int{2, 3, 4}

// ComputeMLDBDescriptor computes the 486 comparisons of the full M-LDB descriptor of f.
// The square pattern aligned with the feature orientation is divided in 2x2, 3x3 and 4x4
// grids; every cell is summarized by its mean intensity and mean rotated derivatives, and
// every pair of cells of a grid is compared channel by channel.
func ComputeMLDBDescriptor(ev *Evolution, octave int, f features.PointFeature) [features.MLDBBits]bool {
	ratio := OctaveRatio(octave)
	scale := math.Max(1, float64(f.Scale)/(DescriptorUnit*ratio))
	xf, yf := float64(f.X)/ratio, float64(f.Y)/ratio
	co, si := math.Cos(float64(f.Orientation)), math.Sin(float64(f.Orientation))

	var bits [features.MLDBBits]bool
	pos := 0
	for _, n := range mldbGrids {
		values := mldbCellValues(ev, n, xf, yf, scale, co, si)
		for a := 0; a < n*n; a++ {
			for b := a + 1; b < n*n; b++ {
				for c := 0; c < 3; c++ {
					bits[pos] = values[3*a+c] > values[3*b+c]
					pos++
				}
			}
		}
	}
	return bits
}

// mldbCellValues returns, for each cell of an n x n grid in row major order, the mean of
// Lt and of the derivatives rotated into the feature frame.
func mldbCellValues(ev *Evolution, n int, xf, yf, scale, co, si float64) []float64 {
	values := make([]float64, 3*n*n)
	cellSide := 2 * mldbPatternSize * scale / float64(n)
	step := cellSide / mldbCellSamples
	origin := -mldbPatternSize * scale
	for cy := 0; cy < n; cy++ {
		for cx := 0; cx < n; cx++ {
			var di, dx, dy float64
			for sy := 0; sy < mldbCellSamples; sy++ {
				for sx := 0; sx < mldbCellSamples; sx++ {
					// pattern coordinates of the sample, then rotated into the image.
					px := origin + float64(cx)*cellSide + (float64(sx)+0.5)*step
					py := origin + float64(cy)*cellSide + (float64(sy)+0.5)*step
					x := xf + px*co - py*si
					y := yf + px*si + py*co
					lx := rimage.BilinearAt(ev.Lx, x, y)
					ly := rimage.BilinearAt(ev.Ly, x, y)
					di += rimage.BilinearAt(ev.Lt, x, y)
					dx += lx*co + ly*si
					dy += -lx*si + ly*co
				}
			}
			cell := 3 * (cy*n + cx)
			const count = mldbCellSamples * mldbCellSamples
			values[cell] = di / count
			values[cell+1] = dx / count
			values[cell+2] = dy / count
		}
	}
	return values
}
