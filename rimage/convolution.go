package rimage

import (
	"math"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"go.viam.com/describer/utils"
)

// Kernel1D is a one dimensional filter applied along rows or columns.
type Kernel1D []float64

// Size returns the number of taps of the kernel.
func (k Kernel1D) Size() int {
	return len(k)
}

// Normalize returns a copy of the kernel whose taps sum to 1.
func (k Kernel1D) Normalize() Kernel1D {
	out := make(Kernel1D, len(k))
	copy(out, k)
	sum := floats.Sum(out)
	if sum != 0 {
		floats.Scale(1/sum, out)
	}
	return out
}

// GetGaussianKernel returns a normalized gaussian kernel of standard deviation sigma.
// The kernel covers +/- 3 sigma, with at least 3 taps.
func GetGaussianKernel(sigma float64) (Kernel1D, error) {
	if sigma <= 0 {
		return nil, errors.Errorf("gaussian sigma must be positive, got %v", sigma)
	}
	half := int(math.Ceil(3 * sigma))
	if half < 1 {
		half = 1
	}
	k := make(Kernel1D, 2*half+1)
	for i := -half; i <= half; i++ {
		k[i+half] = math.Exp(-float64(i*i) / (2 * sigma * sigma))
	}
	return k.Normalize(), nil
}

// ConvolveSeparableFloat64 convolves m with kx along rows and ky along columns.
// Borders are replicated.
func ConvolveSeparableFloat64(m *mat.Dense, kx, ky Kernel1D) *mat.Dense {
	h, w := m.Dims()
	tmp := mat.NewDense(h, w, nil)
	halfX := kx.Size() / 2
	utils.ParallelForEachIndex(h, func(y int) {
		for x := 0; x < w; x++ {
			sum := 0.0
			for i, kv := range kx {
				xx := utils.ClampInt(x+i-halfX, 0, w-1)
				sum += kv * m.At(y, xx)
			}
			tmp.Set(y, x, sum)
		}
	})
	out := mat.NewDense(h, w, nil)
	halfY := ky.Size() / 2
	utils.ParallelForEachIndex(h, func(y int) {
		for x := 0; x < w; x++ {
			sum := 0.0
			for i, kv := range ky {
				yy := utils.ClampInt(y+i-halfY, 0, h-1)
				sum += kv * tmp.At(yy, x)
			}
			out.Set(y, x, sum)
		}
	})
	return out
}

// GaussianBlurFloat64 smooths m with an isotropic gaussian of standard deviation sigma.
func GaussianBlurFloat64(m *mat.Dense, sigma float64) (*mat.Dense, error) {
	k, err := GetGaussianKernel(sigma)
	if err != nil {
		return nil, err
	}
	return ConvolveSeparableFloat64(m, k, k), nil
}

// GetScharrKernels returns the separable smoothing and differentiation parts of the
// normalized 3x3 Scharr operator.
func GetScharrKernels() (smooth, deriv Kernel1D) {
	return Kernel1D{3.0 / 16, 10.0 / 16, 3.0 / 16}, Kernel1D{-0.5, 0, 0.5}
}

// ScharrX returns the horizontal Scharr derivative of m.
func ScharrX(m *mat.Dense) *mat.Dense {
	smooth, deriv := GetScharrKernels()
	return ConvolveSeparableFloat64(m, deriv, smooth)
}

// ScharrY returns the vertical Scharr derivative of m.
func ScharrY(m *mat.Dense) *mat.Dense {
	smooth, deriv := GetScharrKernels()
	return ConvolveSeparableFloat64(m, smooth, deriv)
}
