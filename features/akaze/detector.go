package akaze

import (
	"image"
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"

	"go.viam.com/describer/utils"
)

// keypointCapacityHint sizes the initial keypoint buffer. It is not a limit.
const keypointCapacityHint = 5000

// Detector finds AKAZE keypoints. The zero value is ready to use and safe for concurrent use.
type Detector struct{}

// Detect builds the scale space of img and returns its Hessian determinant extrema with
// the scale space levels they were found on. factor relates keypoint sizes to level sigmas
// (Size = factor * Esigma).
func (Detector) Detect(img *image.Gray, cfg Config, factor float64) ([]Keypoint, []*Evolution, error) {
	evolutions, err := ComputeScaleSpace(img, cfg)
	if err != nil {
		return nil, nil, err
	}
	return FindExtrema(evolutions, cfg.Threshold, factor), evolutions, nil
}

// FindExtrema returns the local maxima of the Hessian determinant above threshold, after
// suppressing weaker responses close in position and scale.
func FindExtrema(evolutions []*Evolution, threshold, factor float64) []Keypoint {
	candidates := make([]Keypoint, 0, keypointCapacityHint)
	for i, ev := range evolutions {
		ratio := ev.Ratio()
		h, w := ev.Ldet.Dims()
		border := ev.SigmaSize + 1
		for y := border; y < h-border; y++ {
			for x := border; x < w-border; x++ {
				v := ev.Ldet.At(y, x)
				if v <= threshold || !isLocalMax(ev.Ldet, x, y, v) {
					continue
				}
				candidates = append(candidates, Keypoint{
					X:        float64(x) * ratio,
					Y:        float64(y) * ratio,
					Size:     ev.Esigma * factor,
					Response: v,
					Octave:   ev.Octave,
					ClassID:  i,
				})
			}
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Response > candidates[j].Response
	})
	kept := make([]Keypoint, 0, len(candidates))
	for _, c := range candidates {
		if !suppressed(c, kept, evolutions) {
			kept = append(kept, c)
		}
	}
	// restore a scan order independent of responses.
	sort.SliceStable(kept, func(i, j int) bool {
		if kept[i].ClassID != kept[j].ClassID {
			return kept[i].ClassID < kept[j].ClassID
		}
		if kept[i].Y != kept[j].Y {
			return kept[i].Y < kept[j].Y
		}
		return kept[i].X < kept[j].X
	})
	return kept
}

func isLocalMax(m *mat.Dense, x, y int, v float64) bool {
	for dy := -1; dy <= 1; dy++ {
		for dx := -1; dx <= 1; dx++ {
			if dx == 0 && dy == 0 {
				continue
			}
			if m.At(y+dy, x+dx) >= v {
				return false
			}
		}
	}
	return true
}

// suppressed reports whether a stronger keypoint on the same or an adjacent level lies
// within the level sigma of c.
func suppressed(c Keypoint, kept []Keypoint, evolutions []*Evolution) bool {
	radius := evolutions[c.ClassID].Esigma
	for _, k := range kept {
		if utils.AbsInt(k.ClassID-c.ClassID) > 1 {
			continue
		}
		dx, dy := k.X-c.X, k.Y-c.Y
		if dx*dx+dy*dy < radius*radius {
			return true
		}
	}
	return false
}

// RefineSubpixel fits a quadratic to the Hessian response around every keypoint and moves
// it to the fitted maximum. Keypoints whose offset exceeds one pixel, or whose fit is
// degenerate, are dropped. The input slice is not modified.
func (Detector) RefineSubpixel(kps []Keypoint, evolutions []*Evolution) []Keypoint {
	out := make([]Keypoint, 0, len(kps))
	for _, kp := range kps {
		ev := evolutions[kp.ClassID]
		ratio := ev.Ratio()
		x := utils.RoundInt(kp.X / ratio)
		y := utils.RoundInt(kp.Y / ratio)
		h, w := ev.Ldet.Dims()
		if x < 1 || y < 1 || x >= w-1 || y >= h-1 {
			continue
		}
		l := ev.Ldet
		dx := 0.5 * (l.At(y, x+1) - l.At(y, x-1))
		dy := 0.5 * (l.At(y+1, x) - l.At(y-1, x))
		dxx := l.At(y, x+1) + l.At(y, x-1) - 2*l.At(y, x)
		dyy := l.At(y+1, x) + l.At(y-1, x) - 2*l.At(y, x)
		dxy := 0.25 * (l.At(y+1, x+1) + l.At(y-1, x-1) - l.At(y-1, x+1) - l.At(y+1, x-1))

		hessian := mat.NewDense(2, 2, []float64{dxx, dxy, dxy, dyy})
		grad := mat.NewVecDense(2, []float64{-dx, -dy})
		var offset mat.VecDense
		if err := offset.SolveVec(hessian, grad); err != nil {
			continue
		}
		ox, oy := offset.AtVec(0), offset.AtVec(1)
		if math.IsNaN(ox) || math.IsNaN(oy) || math.Abs(ox) > 1 || math.Abs(oy) > 1 {
			continue
		}
		kp.X = (float64(x)+ox)*ratio + 0.5*(ratio-1)
		kp.Y = (float64(y)+oy)*ratio + 0.5*(ratio-1)
		out = append(out, kp)
	}
	return out
}

// MainOrientation returns the dominant gradient direction around kp, in [0, 2pi). Gaussian
// weighted gradients sampled in a disc of radius 6 level sigmas are accumulated in a
// sliding pi/3 angular window; the window with the largest sum gives the angle.
func (Detector) MainOrientation(kp Keypoint, ev *Evolution) float64 {
	ratio := ev.Ratio()
	s := math.Max(1, math.Round(ev.Esigma/ratio))
	xf, yf := kp.X/ratio, kp.Y/ratio
	h, w := ev.Lx.Dims()

	type response struct{ x, y, angle float64 }
	responses := make([]response, 0, 113)
	for i := -6; i <= 6; i++ {
		for j := -6; j <= 6; j++ {
			if i*i+j*j >= 36 {
				continue
			}
			ix := utils.ClampInt(utils.RoundInt(xf+float64(i)*s), 0, w-1)
			iy := utils.ClampInt(utils.RoundInt(yf+float64(j)*s), 0, h-1)
			weight := utils.Gaussian(float64(i), float64(j), 2.5)
			rx, ry := weight*ev.Lx.At(iy, ix), weight*ev.Ly.At(iy, ix)
			responses = append(responses, response{rx, ry, utils.ModAngRad(math.Atan2(ry, rx))})
		}
	}

	best, angle := 0.0, 0.0
	const window = math.Pi / 3
	for ang1 := 0.0; ang1 < 2*math.Pi; ang1 += 0.15 {
		ang2 := utils.ModAngRad(ang1 + window)
		sumX, sumY := 0.0, 0.0
		for _, r := range responses {
			var inWindow bool
			if ang1 < ang2 {
				inWindow = ang1 < r.angle && r.angle < ang2
			} else {
				inWindow = r.angle > ang1 || r.angle < ang2
			}
			if inWindow {
				sumX += r.x
				sumY += r.y
			}
		}
		if norm := sumX*sumX + sumY*sumY; norm > best {
			best = norm
			angle = utils.ModAngRad(math.Atan2(sumY, sumX))
		}
	}
	return angle
}
