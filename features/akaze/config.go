package akaze

import (
	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"go.viam.com/utils"
)

// Config holds the parameters of the scale space and the detector.
type Config struct {
	NumOctaves   int     `json:"num_octaves"`
	NumSublevels int     `json:"num_sublevels"`
	Sigma0       float64 `json:"sigma0"`
	// Threshold is the minimum Hessian determinant response of a keypoint, for images
	// scaled to [0, 1].
	Threshold float64 `json:"threshold"`
	// ContrastPercentile is the gradient magnitude percentile used as the diffusion
	// contrast factor.
	ContrastPercentile float64 `json:"contrast_percentile"`
	// DerivativeFactor scales the level sigma to get the derivative step.
	DerivativeFactor float64 `json:"derivative_factor"`
}

// DefaultConfig returns the default detector parameters.
func DefaultConfig() Config {
	return Config{
		NumOctaves:         4,
		NumSublevels:       4,
		Sigma0:             1.6,
		Threshold:          0.0008,
		ContrastPercentile: 0.7,
		DerivativeFactor:   1.5,
	}
}

// Validate ensures all parts of the config are valid.
func (cfg *Config) Validate(path string) error {
	var err error
	if cfg.NumOctaves < 1 {
		err = multierr.Append(err, errors.New("num_octaves should be >= 1"))
	}
	if cfg.NumSublevels < 1 {
		err = multierr.Append(err, errors.New("num_sublevels should be >= 1"))
	}
	if cfg.Sigma0 <= 0 {
		err = multierr.Append(err, errors.New("sigma0 should be > 0"))
	}
	if cfg.Threshold < 0 {
		err = multierr.Append(err, errors.New("threshold should be >= 0"))
	}
	if cfg.ContrastPercentile <= 0 || cfg.ContrastPercentile >= 1 {
		err = multierr.Append(err, errors.New("contrast_percentile should be in (0, 1)"))
	}
	if cfg.DerivativeFactor <= 0 {
		err = multierr.Append(err, errors.New("derivative_factor should be > 0"))
	}
	if err != nil {
		return utils.NewConfigValidationError(path, err)
	}
	return nil
}
