// Package liop computes Local Intensity Order Pattern descriptors. The descriptor is
// rotation invariant: neighbors of every patch pixel are sampled relative to the direction
// from the patch center, so no orientation is needed.
package liop

import (
	"image"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"go.viam.com/describer/features"
	"go.viam.com/describer/rimage"
)

const (
	// DescriptorLength is NumBins * 4!.
	DescriptorLength = NumBins * numPermutations
	// NumBins is the number of ordinal bins.
	NumBins         = 6
	numPermutations = 24
	numNeighbors    = 4
)

// Extractor holds the LIOP sampling parameters.
type Extractor struct {
	// PatchRadius is the radius in pixels of the normalized patch.
	PatchRadius int
	// NeighborRadius is the distance between a pixel and its sampled neighbors.
	NeighborRadius float64
	// SmoothingSigma is applied to the normalized patch before sampling.
	SmoothingSigma float64
	// WeightThreshold is the intensity difference, in [0, 1] units, above which a pair of
	// neighbors adds to the pixel weight.
	WeightThreshold float64
}

// NewExtractor returns an Extractor with the standard parameters.
func NewExtractor() *Extractor {
	return &Extractor{
		PatchRadius:     20,
		NeighborRadius:  6,
		SmoothingSigma:  1.2,
		WeightThreshold: 5. / 255.,
	}
}

type patchPixel struct {
	x, y  int
	value float64
}

// Extract computes the descriptor of the circular region of radius f.Scale around f. All
// values are in [0, 1] and the descriptor has unit L2 norm unless the region is flat.
func (e *Extractor) Extract(img *image.Gray, f features.PointFeature) [DescriptorLength]float32 {
	var out [DescriptorLength]float32
	patch, err := e.normalizedPatch(img, f)
	if err != nil {
		return out
	}

	r := e.PatchRadius
	inner := float64(r - 1)
	pixels := make([]patchPixel, 0, (2*r+1)*(2*r+1))
	for y := -r; y <= r; y++ {
		for x := -r; x <= r; x++ {
			if math.Hypot(float64(x), float64(y)) > inner {
				continue
			}
			pixels = append(pixels, patchPixel{x, y, patch.At(y+r, x+r)})
		}
	}
	sort.SliceStable(pixels, func(i, j int) bool {
		return pixels[i].value < pixels[j].value
	})

	var hist [DescriptorLength]float64
	for rank, p := range pixels {
		bin := rank * NumBins / len(pixels)
		theta := 0.0
		if p.x != 0 || p.y != 0 {
			theta = math.Atan2(float64(p.y), float64(p.x))
		}
		var neighbors [numNeighbors]float64
		for k := range neighbors {
			a := theta + float64(k)*math.Pi/2
			nx := float64(p.x+r) + e.NeighborRadius*math.Cos(a)
			ny := float64(p.y+r) + e.NeighborRadius*math.Sin(a)
			neighbors[k] = rimage.BilinearAt(patch, nx, ny)
		}
		hist[bin*numPermutations+permutationIndex(neighbors)] += e.weight(neighbors)
	}

	if norm := floats.Norm(hist[:], 2); norm > 0 {
		floats.Scale(1/norm, hist[:])
	}
	for i, v := range hist {
		out[i] = float32(math.Min(1, v))
	}
	return out
}

// normalizedPatch resamples the region around f to a (2r+1)^2 patch and smooths it.
func (e *Extractor) normalizedPatch(img *image.Gray, f features.PointFeature) (*mat.Dense, error) {
	r := e.PatchRadius
	side := 2*r + 1
	radius := math.Max(float64(f.Scale), 1)
	step := radius / float64(r)
	patch := mat.NewDense(side, side, nil)
	for py := 0; py < side; py++ {
		for px := 0; px < side; px++ {
			x := float64(f.X) + float64(px-r)*step
			y := float64(f.Y) + float64(py-r)*step
			patch.Set(py, px, grayBilinear(img, x, y)/255.)
		}
	}
	return rimage.GaussianBlurFloat64(patch, e.SmoothingSigma)
}

func grayBilinear(img *image.Gray, x, y float64) float64 {
	x0, y0 := int(math.Floor(x)), int(math.Floor(y))
	fx, fy := x-float64(x0), y-float64(y0)
	minPt := img.Bounds().Min
	at := func(x, y int) float64 {
		return float64(rimage.GrayAtClamped(img, minPt.X+x, minPt.Y+y))
	}
	top := (1-fx)*at(x0, y0) + fx*at(x0+1, y0)
	bottom := (1-fx)*at(x0, y0+1) + fx*at(x0+1, y0+1)
	return (1-fy)*top + fy*bottom
}

// weight is 1 plus the number of neighbor pairs whose difference exceeds the threshold.
func (e *Extractor) weight(n [numNeighbors]float64) float64 {
	w := 1.0
	for i := 0; i < numNeighbors; i++ {
		for j := i + 1; j < numNeighbors; j++ {
			if math.Abs(n[i]-n[j]) > e.WeightThreshold {
				w++
			}
		}
	}
	return w
}

// permutationIndex maps the intensity order of the four neighbors to [0, 24) using the
// Lehmer code of their ranks. Ties keep sampling order.
func permutationIndex(n [numNeighbors]float64) int {
	var order [numNeighbors]int
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order[:], func(a, b int) bool {
		return n[order[a]] < n[order[b]]
	})
	idx := 0
	for i := 0; i < numNeighbors; i++ {
		smaller := 0
		for j := i + 1; j < numNeighbors; j++ {
			if order[j] < order[i] {
				smaller++
			}
		}
		idx = idx*(numNeighbors-i) + smaller
	}
	return idx
}
