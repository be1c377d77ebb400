package features

const (
	// MSURFLength is the number of floats of a gradient (M-SURF) descriptor.
	MSURFLength = 64
	// LIOPLength is the number of bins of an intensity-order (LIOP) descriptor.
	LIOPLength = 144
	// MLDBBits is the number of comparisons of a difference (M-LDB) descriptor.
	MLDBBits = 486
	// MLDBBytes is the packed size of a difference descriptor, ceil(486/8).
	MLDBBytes = (MLDBBits + 7) / 8
)

// FloatDescriptor is a floating point gradient descriptor.
type FloatDescriptor [MSURFLength]float32

// LiopDescriptor is an intensity order descriptor quantized to bytes.
type LiopDescriptor [LIOPLength]uint8

// BinaryDescriptor is a difference descriptor packed LSB first, see PackBits.
type BinaryDescriptor [MLDBBytes]uint8

// Descriptor is the set of concrete descriptor representations.
type Descriptor interface {
	FloatDescriptor | LiopDescriptor | BinaryDescriptor
	// Length is the number of stored elements.
	Length() int
	// IsBinary is true when the descriptor is compared with the Hamming distance.
	IsBinary() bool
	// ElementType names the stored element type.
	ElementType() string
}

// Length returns 64.
func (FloatDescriptor) Length() int { return MSURFLength }

// IsBinary returns false.
func (FloatDescriptor) IsBinary() bool { return false }

// ElementType returns "float32".
func (FloatDescriptor) ElementType() string { return "float32" }

// Length returns 144.
func (LiopDescriptor) Length() int { return LIOPLength }

// IsBinary returns false.
func (LiopDescriptor) IsBinary() bool { return false }

// ElementType returns "uint8".
func (LiopDescriptor) ElementType() string { return "uint8" }

// Length returns 61.
func (BinaryDescriptor) Length() int { return MLDBBytes }

// IsBinary returns true.
func (BinaryDescriptor) IsBinary() bool { return true }

// ElementType returns "uint8".
func (BinaryDescriptor) ElementType() string { return "uint8" }
