package describer

import (
	"fmt"
	"image"

	"go.viam.com/describer/features"
	"go.viam.com/describer/features/akaze"
)

// fillFunc writes the feature and descriptor of slot i. Calls for different slots may run
// concurrently.
type fillFunc func(i int, f features.PointFeature, slice *akaze.Evolution, octave int)

// Allocate returns empty regions for kind: *features.FloatRegions for MSURF,
// *features.LiopRegions for LIOP and *features.BinaryRegions for MLDB. It panics on an
// unknown kind.
func Allocate(kind DescriptorKind) features.Regions {
	regions, _ := newRegionFiller(kind, nil, nil)
	return regions
}

func newRegionFiller(kind DescriptorKind, img *image.Gray, enc Encoders) (features.Regions, fillFunc) {
	switch kind {
	case MSURF:
		regions := &features.FloatRegions{}
		return regions, func(i int, f features.PointFeature, slice *akaze.Evolution, octave int) {
			regions.Feats[i] = f
			regions.Descs[i] = enc.Gradient(slice, octave, f)
		}
	case LIOP:
		regions := &features.LiopRegions{}
		return regions, func(i int, f features.PointFeature, slice *akaze.Evolution, octave int) {
			regions.Feats[i] = f
			half := f
			half.Scale /= 2
			values := enc.IntensityOrder(img, half)
			desc := &regions.Descs[i]
			for j, v := range values {
				desc[j] = quantize(v)
			}
		}
	case MLDB:
		regions := &features.BinaryRegions{}
		return regions, func(i int, f features.PointFeature, slice *akaze.Evolution, octave int) {
			regions.Feats[i] = f
			bits := enc.Difference(slice, octave, f)
			regions.Descs[i] = features.PackBits(&bits)
		}
	default:
		panic(fmt.Sprintf("invariant violation: cannot allocate regions for %v", kind))
	}
}
