// Package features contains the geometric features and descriptor containers produced by
// the image describers, the packed binary descriptor layout, and their on-disk formats.
package features

import "fmt"

// PointFeature is a detected point with its scale and orientation, independent of the
// descriptor computed for it. Coordinates are full resolution pixels.
type PointFeature struct {
	X           float32
	Y           float32
	Scale       float32
	Orientation float32
}

// NewPointFeature builds a PointFeature from float64 values.
func NewPointFeature(x, y, scale, orientation float64) PointFeature {
	return PointFeature{float32(x), float32(y), float32(scale), float32(orientation)}
}

// IsZero reports whether f is the zero value, which marks a slot that was never filled.
// Detected features always have a positive scale.
func (f PointFeature) IsZero() bool {
	return f == PointFeature{}
}

func (f PointFeature) String() string {
	return fmt.Sprintf("%g %g %g %g", f.X, f.Y, f.Scale, f.Orientation)
}
