package describer

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/invopop/jsonschema"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"go.viam.com/utils"
)

// LoadParams reads params from a JSON file. Fields missing from the file keep their
// default values.
func LoadParams(file string) (*Params, error) {
	//nolint:gosec
	f, err := os.Open(filepath.Clean(file))
	if err != nil {
		return nil, errors.Wrap(err, "path error")
	}
	defer utils.UncheckedErrorFunc(f.Close)
	params := DefaultParams()
	if err := json.NewDecoder(f).Decode(&params); err != nil {
		return nil, errors.Wrapf(err, "error decoding %q", file)
	}
	return &params, nil
}

// WriteParams writes params to a JSON file.
func WriteParams(params Params, file string) error {
	data, err := json.MarshalIndent(params, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Clean(file), append(data, '\n'), 0o600)
}

// Validate ensures all parts of the params are valid.
func (p *Params) Validate(path string) error {
	var err error
	if optErr := p.Options.Validate(path + ".options"); optErr != nil {
		err = multierr.Append(err, optErr)
	}
	if kindErr := p.Kind.Validate(); kindErr != nil {
		err = multierr.Append(err, utils.NewConfigValidationError(path+".descriptor_kind", kindErr))
	}
	return err
}

// ParamsSchema returns the JSON schema of the params file.
func ParamsSchema() *jsonschema.Schema {
	return jsonschema.Reflect(&Params{})
}
