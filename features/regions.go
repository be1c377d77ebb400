package features

import (
	"encoding/binary"
	"io"

	"github.com/pkg/errors"
)

const (
	maxDescriptors = 1 << 24
	// descriptors are read in chunks of this many, so a corrupt count fails on a short
	// read before the full slice is allocated.
	readChunk = 4096
)

// Regions holds the features detected on an image and their descriptors. Features and
// descriptors are index aligned: entry i of both describes the same keypoint.
type Regions interface {
	// Len returns the number of slots.
	Len() int
	// Resize sets the number of slots. Newly added slots hold zero values.
	Resize(n int)
	// Features returns the features, one per slot.
	Features() []PointFeature
	// IsMasked reports whether slot i was left empty because its keypoint was masked out.
	IsMasked(i int) bool
	// DescriptorLength returns the number of elements of one descriptor.
	DescriptorLength() int
	// IsBinary reports whether descriptors are packed bit strings.
	IsBinary() bool
	// ElementType names the descriptor element type.
	ElementType() string
	// Compact returns new regions holding only the filled slots, and for each of them
	// its index in the receiver.
	Compact() (Regions, []int)

	WriteFeatures(w io.Writer) error
	ReadFeatures(r io.Reader) error
	WriteDescriptors(w io.Writer) error
	ReadDescriptors(r io.Reader) error
}

// DescriptorRegions stores features and descriptors of a single representation.
type DescriptorRegions[D Descriptor] struct {
	Feats []PointFeature
	Descs []D
}

type (
	// FloatRegions holds gradient (M-SURF) descriptors.
	FloatRegions = DescriptorRegions[FloatDescriptor]
	// LiopRegions holds byte quantized intensity order descriptors.
	LiopRegions = DescriptorRegions[LiopDescriptor]
	// BinaryRegions holds packed difference (M-LDB) descriptors.
	BinaryRegions = DescriptorRegions[BinaryDescriptor]
)

// Len returns the number of slots.
func (r *DescriptorRegions[D]) Len() int {
	return len(r.Feats)
}

// Resize sets the number of slots of both sequences.
func (r *DescriptorRegions[D]) Resize(n int) {
	r.Feats = resize(r.Feats, n)
	r.Descs = resize(r.Descs, n)
}

func resize[T any](s []T, n int) []T {
	if n <= cap(s) {
		old := len(s)
		s = s[:n]
		var zero T
		for i := old; i < n; i++ {
			s[i] = zero
		}
		return s
	}
	out := make([]T, n)
	copy(out, s)
	return out
}

// Features returns the features.
func (r *DescriptorRegions[D]) Features() []PointFeature {
	return r.Feats
}

// Descriptors returns the descriptors.
func (r *DescriptorRegions[D]) Descriptors() []D {
	return r.Descs
}

// IsMasked reports whether slot i holds no feature.
func (r *DescriptorRegions[D]) IsMasked(i int) bool {
	return r.Feats[i].IsZero()
}

// DescriptorLength returns the number of elements of one descriptor.
func (r *DescriptorRegions[D]) DescriptorLength() int {
	var d D
	return d.Length()
}

// IsBinary reports whether descriptors are packed bit strings.
func (r *DescriptorRegions[D]) IsBinary() bool {
	var d D
	return d.IsBinary()
}

// ElementType names the descriptor element type.
func (r *DescriptorRegions[D]) ElementType() string {
	var d D
	return d.ElementType()
}

// Compact returns the filled slots and their indices in r.
func (r *DescriptorRegions[D]) Compact() (Regions, []int) {
	out := &DescriptorRegions[D]{
		Feats: make([]PointFeature, 0, len(r.Feats)),
		Descs: make([]D, 0, len(r.Descs)),
	}
	indices := make([]int, 0, len(r.Feats))
	for i := range r.Feats {
		if r.IsMasked(i) {
			continue
		}
		out.Feats = append(out.Feats, r.Feats[i])
		out.Descs = append(out.Descs, r.Descs[i])
		indices = append(indices, i)
	}
	return out, indices
}

// WriteFeatures writes one "x y scale orientation" line per slot.
func (r *DescriptorRegions[D]) WriteFeatures(w io.Writer) error {
	return WriteFeatures(w, r.Feats)
}

// ReadFeatures replaces the features with the ones read from rd. The descriptors are
// resized to match.
func (r *DescriptorRegions[D]) ReadFeatures(rd io.Reader) error {
	feats, err := ReadFeatures(rd)
	if err != nil {
		return err
	}
	r.Feats = feats
	r.Descs = resize(r.Descs, len(feats))
	return nil
}

// WriteDescriptors writes the descriptor count as a little endian uint64 followed by the
// raw descriptors.
func (r *DescriptorRegions[D]) WriteDescriptors(w io.Writer) error {
	if err := binary.Write(w, binary.LittleEndian, uint64(len(r.Descs))); err != nil {
		return errors.Wrap(err, "writing descriptor count")
	}
	if err := binary.Write(w, binary.LittleEndian, r.Descs); err != nil {
		return errors.Wrap(err, "writing descriptors")
	}
	return nil
}

// ReadDescriptors reads descriptors written by WriteDescriptors. The features are resized
// to match.
func (r *DescriptorRegions[D]) ReadDescriptors(rd io.Reader) error {
	var n uint64
	if err := binary.Read(rd, binary.LittleEndian, &n); err != nil {
		return errors.Wrap(err, "reading descriptor count")
	}
	if n > maxDescriptors {
		return errors.Errorf("descriptor count %d exceeds limit of %d", n, maxDescriptors)
	}
	total := int(n)
	descs := make([]D, 0, min(total, readChunk))
	chunk := make([]D, min(total, readChunk))
	for len(descs) < total {
		chunk = chunk[:min(total-len(descs), readChunk)]
		if err := binary.Read(rd, binary.LittleEndian, chunk); err != nil {
			return errors.Wrapf(err, "reading descriptor %d of %d", len(descs), n)
		}
		descs = append(descs, chunk...)
	}
	r.Descs = descs
	r.Feats = resize(r.Feats, int(n))
	return nil
}
