// Package akaze implements an AKAZE style detector: a nonlinear diffusion scale space,
// Hessian determinant keypoints with subpixel refinement and dominant orientation, and the
// M-SURF and M-LDB descriptors computed on the scale space.
package akaze

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// DescriptorUnit relates a feature scale to the sigma of its scale space level: a feature
// of scale s found on a level of sigma e (full resolution pixels) has s = factor * e, and
// descriptors sample the level in steps of s / DescriptorUnit.
var DescriptorUnit = 10 * math.Sqrt2

// Keypoint is a detected scale space extremum. X and Y are full resolution pixels.
type Keypoint struct {
	X        float64
	Y        float64
	Size     float64
	Angle    float64
	Response float64
	Octave   int
	// ClassID is the index of the evolution the keypoint was found on.
	ClassID int
}

// Evolution is one level of the nonlinear scale space.
type Evolution struct {
	// Lt is the diffused image, Lx and Ly its scale normalized first derivatives and Ldet
	// the scale normalized Hessian determinant.
	Lt, Lx, Ly, Ldet *mat.Dense
	// Esigma is the level sigma in full resolution pixels, Etime the diffusion time.
	Esigma, Etime float64
	Octave        int
	Sublevel      int
	// SigmaSize is the derivative step in level pixels.
	SigmaSize int
}

// Ratio returns the downsampling factor of the evolution octave.
func (e *Evolution) Ratio() float64 {
	return math.Pow(2, float64(e.Octave))
}

// OctaveRatio returns 2^octave.
func OctaveRatio(octave int) float64 {
	return math.Pow(2, float64(octave))
}
