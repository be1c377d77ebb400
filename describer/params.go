package describer

import (
	"math"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"go.viam.com/describer/features/akaze"
)

var (
	// ErrInvalidPreset is returned when applying an unknown preset.
	ErrInvalidPreset = errors.New("invalid preset")
	// ErrInvalidDescriptorKind is returned when decoding or validating an unknown descriptor kind.
	ErrInvalidDescriptorKind = errors.New("invalid descriptor kind")
)

// DescriptorKind selects the descriptor computed for every keypoint.
type DescriptorKind int

const (
	// MSURF is the floating point gradient descriptor.
	MSURF DescriptorKind = iota
	// LIOP is the byte quantized, rotation invariant intensity order descriptor.
	LIOP
	// MLDB is the packed binary difference descriptor.
	MLDB
)

var descriptorKindNames = map[DescriptorKind]string{
	MSURF: "MSURF",
	LIOP:  "LIOP",
	MLDB:  "MLDB",
}

func (k DescriptorKind) String() string {
	if name, ok := descriptorKindNames[k]; ok {
		return name
	}
	return "DescriptorKind(" + strconv.Itoa(int(k)) + ")"
}

// Validate returns an error if k is not one of the known kinds.
func (k DescriptorKind) Validate() error {
	if _, ok := descriptorKindNames[k]; !ok {
		return errors.Wrapf(ErrInvalidDescriptorKind, "%d", int(k))
	}
	return nil
}

// DescFactor returns the ratio between keypoint sizes and scale space sigmas used when
// sampling descriptors of this kind.
func (k DescriptorKind) DescFactor() float64 {
	if k == MLDB {
		return 11 * math.Sqrt2
	}
	return 10 * math.Sqrt2
}

// ParseDescriptorKind parses a kind name, ignoring case.
func ParseDescriptorKind(s string) (DescriptorKind, error) {
	for k, name := range descriptorKindNames {
		if strings.EqualFold(name, s) {
			return k, nil
		}
	}
	return 0, errors.Wrapf(ErrInvalidDescriptorKind, "%q", s)
}

// MarshalText encodes the kind name.
func (k DescriptorKind) MarshalText() ([]byte, error) {
	if err := k.Validate(); err != nil {
		return nil, err
	}
	return []byte(k.String()), nil
}

// UnmarshalText decodes a kind name.
func (k *DescriptorKind) UnmarshalText(text []byte) error {
	parsed, err := ParseDescriptorKind(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// Preset scales the detection threshold to trade speed for more keypoints.
type Preset int

const (
	// NormalPreset uses the default threshold.
	NormalPreset Preset = iota
	// HighPreset divides the default threshold by 10.
	HighPreset
	// UltraPreset divides the default threshold by 100.
	UltraPreset
)

var presetNames = map[Preset]string{
	NormalPreset: "NORMAL",
	HighPreset:   "HIGH",
	UltraPreset:  "ULTRA",
}

func (p Preset) String() string {
	if name, ok := presetNames[p]; ok {
		return name
	}
	return "Preset(" + strconv.Itoa(int(p)) + ")"
}

// ParsePreset parses a preset name, ignoring case.
func ParsePreset(s string) (Preset, error) {
	for p, name := range presetNames {
		if strings.EqualFold(name, s) {
			return p, nil
		}
	}
	return 0, errors.Wrapf(ErrInvalidPreset, "%q", s)
}

// Params configures a Describer.
type Params struct {
	Options     akaze.Config   `json:"options"`
	Kind        DescriptorKind `json:"descriptor_kind"`
	Orientation bool           `json:"orientation"`
}

// DefaultParams returns the default detector options with M-SURF descriptors and
// orientation estimation.
func DefaultParams() Params {
	return Params{
		Options:     akaze.DefaultConfig(),
		Kind:        MSURF,
		Orientation: true,
	}
}

// SetPreset sets the detection threshold from the default one. An unknown preset returns
// an error wrapping ErrInvalidPreset and leaves the threshold unchanged.
func (p *Params) SetPreset(preset Preset) error {
	base := akaze.DefaultConfig().Threshold
	switch preset {
	case NormalPreset:
		p.Options.Threshold = base
	case HighPreset:
		p.Options.Threshold = base / 10.
	case UltraPreset:
		p.Options.Threshold = base / 100.
	default:
		return errors.Wrap(ErrInvalidPreset, preset.String())
	}
	return nil
}
