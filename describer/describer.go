// Package describer detects keypoints on grayscale images and computes one descriptor per
// keypoint, in the representation selected by its Params.
package describer

import (
	"image"
	"math"
	"time"

	"github.com/edaniels/golog"
	"github.com/pkg/errors"

	"go.viam.com/describer/features"
	"go.viam.com/describer/features/akaze"
	"go.viam.com/describer/features/liop"
	"go.viam.com/describer/rimage"
	"go.viam.com/describer/utils"
)

// ErrMaskSize is returned when the mask and the image extents differ.
var ErrMaskSize = errors.New("mask size does not match image size")

// Detector finds keypoints and the scale space levels they live on.
type Detector interface {
	// Detect returns the keypoints of img and the scale space they were found in. factor
	// relates keypoint sizes to level sigmas.
	Detect(img *image.Gray, cfg akaze.Config, factor float64) ([]akaze.Keypoint, []*akaze.Evolution, error)
	// RefineSubpixel returns the keypoints moved to their subpixel position. Keypoints
	// that cannot be refined may be dropped.
	RefineSubpixel(kps []akaze.Keypoint, slices []*akaze.Evolution) []akaze.Keypoint
	// MainOrientation returns the dominant gradient angle around kp, in radians.
	MainOrientation(kp akaze.Keypoint, slice *akaze.Evolution) float64
}

// Encoders computes raw descriptors for a feature.
type Encoders interface {
	Gradient(slice *akaze.Evolution, octave int, f features.PointFeature) [features.MSURFLength]float32
	// IntensityOrder returns values in [0, 1].
	IntensityOrder(img *image.Gray, f features.PointFeature) [features.LIOPLength]float32
	Difference(slice *akaze.Evolution, octave int, f features.PointFeature) [features.MLDBBits]bool
}

// DefaultEncoders computes M-SURF and M-LDB descriptors on the scale space and LIOP
// descriptors on the input image.
type DefaultEncoders struct {
	LIOP *liop.Extractor
}

// NewDefaultEncoders returns encoders with the default LIOP extractor.
func NewDefaultEncoders() *DefaultEncoders {
	return &DefaultEncoders{LIOP: liop.NewExtractor()}
}

// Gradient computes an M-SURF descriptor.
func (e *DefaultEncoders) Gradient(
	slice *akaze.Evolution, octave int, f features.PointFeature,
) [features.MSURFLength]float32 {
	return akaze.ComputeMSURFDescriptor(slice, octave, f)
}

// IntensityOrder computes a LIOP descriptor.
func (e *DefaultEncoders) IntensityOrder(img *image.Gray, f features.PointFeature) [features.LIOPLength]float32 {
	return e.LIOP.Extract(img, f)
}

// Difference computes the unpacked M-LDB bits.
func (e *DefaultEncoders) Difference(
	slice *akaze.Evolution, octave int, f features.PointFeature,
) [features.MLDBBits]bool {
	return akaze.ComputeMLDBDescriptor(slice, octave, f)
}

// Describer turns images into regions. It is safe for concurrent use as long as its
// params are not changed during a call.
type Describer struct {
	params     Params
	detector   Detector
	encoders   Encoders
	logger     golog.Logger
	sequential bool
}

// Option configures a Describer.
type Option func(*Describer)

// WithDetector replaces the default AKAZE detector.
func WithDetector(detector Detector) Option {
	return func(d *Describer) {
		d.detector = detector
	}
}

// WithEncoders replaces the default descriptor encoders.
func WithEncoders(encoders Encoders) Option {
	return func(d *Describer) {
		d.encoders = encoders
	}
}

// Sequential fills descriptors on the calling goroutine. Output is identical to the
// parallel fill.
func Sequential() Option {
	return func(d *Describer) {
		d.sequential = true
	}
}

// NewDescriber returns a Describer using params.
func NewDescriber(params Params, logger golog.Logger, opts ...Option) *Describer {
	d := &Describer{
		params:   params,
		detector: akaze.Detector{},
		encoders: NewDefaultEncoders(),
		logger:   logger,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Params returns the current parameters.
func (d *Describer) Params() Params {
	return d.params
}

// SetParams replaces the parameters used by later calls.
func (d *Describer) SetParams(params Params) {
	d.params = params
}

// SetPreset applies preset to the detection threshold. See Params.SetPreset.
func (d *Describer) SetPreset(preset Preset) error {
	return d.params.SetPreset(preset)
}

// Allocate returns empty regions of the representation of the current descriptor kind.
func (d *Describer) Allocate() features.Regions {
	return Allocate(d.params.Kind)
}

// Describe detects the keypoints of img and describes each of them. A non nil mask must
// have the extent of img; keypoints whose rounded position falls on a nonzero mask pixel
// keep a zero feature and descriptor, so indices still match the detected keypoints.
func (d *Describer) Describe(img, mask *image.Gray) (features.Regions, error) {
	if mask != nil && !rimage.SameImgSize(img, mask) {
		return nil, errors.Wrapf(ErrMaskSize, "image is %v, mask is %v", img.Bounds().Size(), mask.Bounds().Size())
	}
	params := d.params
	factor := params.Kind.DescFactor()

	start := time.Now()
	kps, slices, err := d.detector.Detect(img, params.Options, factor)
	if err != nil {
		return nil, err
	}
	kps = d.detector.RefineSubpixel(kps, slices)
	d.logger.Debugw("detected keypoints", "count", len(kps), "levels", len(slices), "elapsed", time.Since(start))

	regions, fill := newRegionFiller(params.Kind, img, d.encoders)
	regions.Resize(len(kps))

	describeOne := func(i int) {
		kp := kps[i]
		if mask != nil && isMasked(mask, kp) {
			return
		}
		var angle float64
		if params.Orientation {
			angle = d.detector.MainOrientation(kp, slices[kp.ClassID])
		}
		f := features.NewPointFeature(kp.X, kp.Y, kp.Size, angle)
		fill(i, f, slices[kp.ClassID], kp.Octave)
	}

	start = time.Now()
	if d.sequential {
		for i := range kps {
			describeOne(i)
		}
	} else {
		utils.ParallelForEachIndex(len(kps), describeOne)
	}

	if mask != nil {
		masked := 0
		for i := 0; i < regions.Len(); i++ {
			if regions.IsMasked(i) {
				masked++
			}
		}
		d.logger.Debugw("described keypoints", "kind", params.Kind, "masked", masked, "elapsed", time.Since(start))
	} else {
		d.logger.Debugw("described keypoints", "kind", params.Kind, "elapsed", time.Since(start))
	}
	return regions, nil
}

// isMasked reports whether the mask pixel under the keypoint is nonzero. Positions outside
// the mask are clamped to its border.
func isMasked(mask *image.Gray, kp akaze.Keypoint) bool {
	b := mask.Bounds()
	x := utils.ClampInt(utils.RoundInt(kp.X), 0, b.Dx()-1)
	y := utils.ClampInt(utils.RoundInt(kp.Y), 0, b.Dy()-1)
	return mask.GrayAt(b.Min.X+x, b.Min.Y+y).Y > 0
}

// quantize maps v in [0, 1] to [0, 255], rounding to nearest.
func quantize(v float32) uint8 {
	return uint8(math.Round(utils.ClampF64(float64(v), 0, 1) * 255))
}
