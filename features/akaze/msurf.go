package akaze

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"go.viam.com/describer/features"
	"go.viam.com/describer/rimage"
	"go.viam.com/describer/utils"
)

// ComputeMSURFDescriptor computes the 64 float M-SURF descriptor of f on the given level.
// A 24x24 (in level sigmas) window aligned with the feature orientation is split in 4x4
// overlapping subregions of 9x9 samples; each subregion contributes the gaussian weighted
// sums of dx, dy, |dx| and |dy|. The descriptor is L2 normalized.
func ComputeMSURFDescriptor(ev *Evolution, octave int, f features.PointFeature) features.FloatDescriptor {
	const (
		sampleStep  = 1
		patternSize = 12
	)
	ratio := OctaveRatio(octave)
	scale := math.Max(1, math.Round(float64(f.Scale)/(DescriptorUnit*ratio)))
	xf, yf := float64(f.X)/ratio, float64(f.Y)/ratio
	co, si := math.Cos(float64(f.Orientation)), math.Sin(float64(f.Orientation))

	var desc [features.MSURFLength]float64
	dcount := 0
	// subregions start every 5 samples and span 9, overlapping by 4.
	cx := -0.5
	for i := -patternSize; i < patternSize-8; i += 5 {
		cx++
		cy := -0.5
		for j := -patternSize; j < patternSize-8; j += 5 {
			cy++
			var dx, dy, mdx, mdy float64
			ky := float64(i + sampleStep)
			kx := float64(j + sampleStep)
			xs := xf + (-kx*scale*si + ky*scale*co)
			ys := yf + (kx*scale*co + ky*scale*si)
			for k := i; k < i+9; k++ {
				for l := j; l < j+9; l++ {
					sampleY := float64(k)*scale*co + float64(l)*scale*si + yf
					sampleX := -float64(k)*scale*si + float64(l)*scale*co + xf
					gaussS1 := utils.Gaussian(xs-sampleX, ys-sampleY, 2.5*scale)
					rx := rimage.BilinearAt(ev.Lx, sampleX, sampleY)
					ry := rimage.BilinearAt(ev.Ly, sampleX, sampleY)
					rry := gaussS1 * (rx*co + ry*si)
					rrx := gaussS1 * (-rx*si + ry*co)
					dx += rrx
					dy += rry
					mdx += math.Abs(rrx)
					mdy += math.Abs(rry)
				}
			}
			gaussS2 := utils.Gaussian(cx-2, cy-2, 1.5)
			desc[dcount] = dx * gaussS2
			desc[dcount+1] = dy * gaussS2
			desc[dcount+2] = mdx * gaussS2
			desc[dcount+3] = mdy * gaussS2
			dcount += 4
		}
	}

	if norm := floats.Norm(desc[:], 2); norm > 0 {
		floats.Scale(1/norm, desc[:])
	}
	var out features.FloatDescriptor
	for i, v := range desc {
		out[i] = float32(v)
	}
	return out
}
