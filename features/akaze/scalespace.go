package akaze

import (
	"image"
	"math"
	"sort"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"go.viam.com/describer/rimage"
	"go.viam.com/describer/utils"
)

const (
	// explicit diffusion is stable for steps up to 0.25.
	maxDiffusionStep = 0.25
	// used when the image has no gradient at all.
	defaultContrastFactor = 0.03
	// per octave reduction of the contrast factor.
	contrastFactorDecay = 0.75
	minImageSide        = 8
)

// ComputeScaleSpace builds the nonlinear scale space of img: the image is smoothed with a
// gaussian of sigma0, then diffused with a Perona-Malik conductance over NumOctaves *
// NumSublevels levels. Each octave is computed on an image half the size of the previous.
func ComputeScaleSpace(img *image.Gray, cfg Config) ([]*Evolution, error) {
	b := img.Bounds()
	if b.Dx() < minImageSide || b.Dy() < minImageSide {
		return nil, errors.Errorf("image too small for scale space: %dx%d", b.Dx(), b.Dy())
	}
	if err := cfg.Validate("akaze"); err != nil {
		return nil, err
	}

	l0, err := rimage.GaussianBlurFloat64(rimage.GrayToFloat64(img), cfg.Sigma0)
	if err != nil {
		return nil, err
	}
	kcontrast, err := ContrastFactor(l0, cfg.ContrastPercentile)
	if err != nil {
		return nil, err
	}

	evolutions := make([]*Evolution, 0, cfg.NumOctaves*cfg.NumSublevels)
	for o := 0; o < cfg.NumOctaves; o++ {
		for s := 0; s < cfg.NumSublevels; s++ {
			esigma := cfg.Sigma0 * math.Pow(2, float64(o)+float64(s)/float64(cfg.NumSublevels))
			ev := &Evolution{
				Esigma:   esigma,
				Etime:    0.5 * esigma * esigma,
				Octave:   o,
				Sublevel: s,
			}
			if len(evolutions) == 0 {
				ev.Lt = l0
			} else {
				prev := evolutions[len(evolutions)-1]
				lt := prev.Lt
				if s == 0 {
					h, w := lt.Dims()
					if h/2 < minImageSide || w/2 < minImageSide {
						return computeDerivatives(evolutions, cfg), nil
					}
					lt = rimage.HalfSample(lt)
					kcontrast *= contrastFactorDecay
				}
				// diffusion times are expressed in full resolution pixels.
				dt := (ev.Etime - prev.Etime) / math.Pow(4, float64(o))
				ev.Lt, err = diffuse(lt, kcontrast, dt)
				if err != nil {
					return nil, err
				}
			}
			evolutions = append(evolutions, ev)
		}
	}
	return computeDerivatives(evolutions, cfg), nil
}

// ContrastFactor returns the given percentile of the nonzero gradient magnitudes of m,
// computed after an extra gaussian smoothing of sigma 1.
func ContrastFactor(m *mat.Dense, percentile float64) (float64, error) {
	smoothed, err := rimage.GaussianBlurFloat64(m, 1.0)
	if err != nil {
		return 0, err
	}
	lx, ly := rimage.ScharrX(smoothed), rimage.ScharrY(smoothed)
	h, w := m.Dims()
	mags := make([]float64, 0, h*w)
	for y := 1; y < h-1; y++ {
		for x := 1; x < w-1; x++ {
			g := math.Hypot(lx.At(y, x), ly.At(y, x))
			if g > 0 {
				mags = append(mags, g)
			}
		}
	}
	if len(mags) == 0 {
		return defaultContrastFactor, nil
	}
	sort.Float64s(mags)
	return stat.Quantile(percentile, stat.Empirical, mags, nil), nil
}

// diffuse runs explicit nonlinear diffusion steps on lt for a total time dt.
func diffuse(lt *mat.Dense, kcontrast, dt float64) (*mat.Dense, error) {
	smoothed, err := rimage.GaussianBlurFloat64(lt, 1.0)
	if err != nil {
		return nil, err
	}
	g := conductance(smoothed, kcontrast)

	cur := mat.DenseCopyOf(lt)
	if dt <= 0 {
		return cur, nil
	}
	nsteps := int(math.Ceil(dt / maxDiffusionStep))
	tau := dt / float64(nsteps)
	h, w := cur.Dims()
	next := mat.NewDense(h, w, nil)
	for step := 0; step < nsteps; step++ {
		src := cur
		utils.ParallelForEachIndex(h, func(y int) {
			yp, ym := utils.MinInt(y+1, h-1), utils.MaxInt(y-1, 0)
			for x := 0; x < w; x++ {
				xp, xm := utils.MinInt(x+1, w-1), utils.MaxInt(x-1, 0)
				l, gc := src.At(y, x), g.At(y, x)
				flux := (g.At(y, xp)+gc)*(src.At(y, xp)-l) -
					(gc+g.At(y, xm))*(l-src.At(y, xm)) +
					(g.At(yp, x)+gc)*(src.At(yp, x)-l) -
					(gc+g.At(ym, x))*(l-src.At(ym, x))
				next.Set(y, x, l+0.5*tau*flux)
			}
		})
		cur, next = next, cur
	}
	return cur, nil
}

// conductance computes the Perona-Malik g2 function 1 / (1 + |grad L|^2 / k^2).
func conductance(l *mat.Dense, kcontrast float64) *mat.Dense {
	lx, ly := rimage.ScharrX(l), rimage.ScharrY(l)
	h, w := l.Dims()
	k2 := kcontrast * kcontrast
	g := mat.NewDense(h, w, nil)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			dx, dy := lx.At(y, x), ly.At(y, x)
			g.Set(y, x, 1/(1+(dx*dx+dy*dy)/k2))
		}
	}
	return g
}

// computeDerivatives fills the scale normalized derivatives and Hessian determinant of
// every evolution.
func computeDerivatives(evolutions []*Evolution, cfg Config) []*Evolution {
	for _, ev := range evolutions {
		ratio := ev.Ratio()
		ev.SigmaSize = utils.MaxInt(1, utils.RoundInt(ev.Esigma*cfg.DerivativeFactor/ratio))
		s := ev.SigmaSize
		ev.Lx = centralDiff(ev.Lt, s, true)
		ev.Ly = centralDiff(ev.Lt, s, false)
		lxx := centralDiff(ev.Lx, s, true)
		lyy := centralDiff(ev.Ly, s, false)
		lxy := centralDiff(ev.Lx, s, false)
		h, w := ev.Lt.Dims()
		ev.Ldet = mat.NewDense(h, w, nil)
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				ev.Ldet.Set(y, x, lxx.At(y, x)*lyy.At(y, x)-lxy.At(y, x)*lxy.At(y, x))
			}
		}
	}
	return evolutions
}

// centralDiff returns s * dL/dx (or dL/dy) estimated with a central difference of step s,
// which is (L(x+s) - L(x-s)) / 2. Borders are replicated.
func centralDiff(m *mat.Dense, s int, alongX bool) *mat.Dense {
	h, w := m.Dims()
	out := mat.NewDense(h, w, nil)
	utils.ParallelForEachIndex(h, func(y int) {
		for x := 0; x < w; x++ {
			var a, b float64
			if alongX {
				a = m.At(y, utils.MinInt(x+s, w-1))
				b = m.At(y, utils.MaxInt(x-s, 0))
			} else {
				a = m.At(utils.MinInt(y+s, h-1), x)
				b = m.At(utils.MaxInt(y-s, 0), x)
			}
			out.Set(y, x, 0.5*(a-b))
		}
	})
	return out
}
