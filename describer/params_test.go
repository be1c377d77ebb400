package describer

import (
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"go.viam.com/test"

	"go.viam.com/describer/features/akaze"
)

func TestSetPreset(t *testing.T) {
	t0 := akaze.DefaultConfig().Threshold
	params := DefaultParams()

	test.That(t, params.SetPreset(HighPreset), test.ShouldBeNil)
	test.That(t, params.Options.Threshold, test.ShouldAlmostEqual, t0/10)
	test.That(t, params.SetPreset(UltraPreset), test.ShouldBeNil)
	test.That(t, params.Options.Threshold, test.ShouldAlmostEqual, t0/100)
	test.That(t, params.SetPreset(NormalPreset), test.ShouldBeNil)
	test.That(t, params.Options.Threshold, test.ShouldEqual, t0)

	params.Options.Threshold = 0.123
	err := params.SetPreset(Preset(42))
	test.That(t, errors.Is(err, ErrInvalidPreset), test.ShouldBeTrue)
	test.That(t, params.Options.Threshold, test.ShouldEqual, 0.123)
}

func TestParsePreset(t *testing.T) {
	for s, expected := range map[string]Preset{
		"NORMAL": NormalPreset,
		"high":   HighPreset,
		"Ultra":  UltraPreset,
	} {
		p, err := ParsePreset(s)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, p, test.ShouldEqual, expected)
	}
	_, err := ParsePreset("extreme")
	test.That(t, errors.Is(err, ErrInvalidPreset), test.ShouldBeTrue)
	test.That(t, UltraPreset.String(), test.ShouldEqual, "ULTRA")
	test.That(t, Preset(9).String(), test.ShouldEqual, "Preset(9)")
}

func TestDescriptorKind(t *testing.T) {
	test.That(t, MSURF.DescFactor(), test.ShouldEqual, 10*math.Sqrt2)
	test.That(t, LIOP.DescFactor(), test.ShouldEqual, 10*math.Sqrt2)
	test.That(t, MLDB.DescFactor(), test.ShouldEqual, 11*math.Sqrt2)

	k, err := ParseDescriptorKind("mldb")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, k, test.ShouldEqual, MLDB)
	_, err = ParseDescriptorKind("SIFT")
	test.That(t, errors.Is(err, ErrInvalidDescriptorKind), test.ShouldBeTrue)

	test.That(t, LIOP.Validate(), test.ShouldBeNil)
	test.That(t, errors.Is(DescriptorKind(3).Validate(), ErrInvalidDescriptorKind), test.ShouldBeTrue)
	test.That(t, DescriptorKind(3).String(), test.ShouldEqual, "DescriptorKind(3)")
}

func TestParamsJSON(t *testing.T) {
	params := DefaultParams()
	params.Kind = LIOP
	params.Orientation = false
	test.That(t, params.SetPreset(HighPreset), test.ShouldBeNil)

	data, err := json.Marshal(params)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, string(data), test.ShouldContainSubstring, `"descriptor_kind":"LIOP"`)

	var decoded Params
	test.That(t, json.Unmarshal(data, &decoded), test.ShouldBeNil)
	test.That(t, decoded, test.ShouldResemble, params)

	err = json.Unmarshal([]byte(`{"descriptor_kind":"SIFT"}`), &decoded)
	test.That(t, errors.Is(err, ErrInvalidDescriptorKind), test.ShouldBeTrue)

	_, err = json.Marshal(Params{Kind: DescriptorKind(5)})
	test.That(t, err, test.ShouldNotBeNil)
}

func TestLoadWriteParams(t *testing.T) {
	dir := t.TempDir()
	fn := filepath.Join(dir, "params.json")

	params := DefaultParams()
	params.Kind = MLDB
	params.Options.NumOctaves = 3
	test.That(t, WriteParams(params, fn), test.ShouldBeNil)

	loaded, err := LoadParams(fn)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, *loaded, test.ShouldResemble, params)
	test.That(t, loaded.Validate("describer"), test.ShouldBeNil)

	partial := filepath.Join(dir, "partial.json")
	test.That(t, os.WriteFile(partial, []byte(`{"descriptor_kind": "MLDB"}`), 0o600), test.ShouldBeNil)
	loaded, err = LoadParams(partial)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, loaded.Kind, test.ShouldEqual, MLDB)
	test.That(t, loaded.Orientation, test.ShouldBeTrue)
	test.That(t, loaded.Options, test.ShouldResemble, akaze.DefaultConfig())

	_, err = LoadParams(filepath.Join(dir, "missing.json"))
	test.That(t, err, test.ShouldNotBeNil)

	bad := filepath.Join(dir, "bad.json")
	test.That(t, os.WriteFile(bad, []byte(`{"descriptor_kind": 12`), 0o600), test.ShouldBeNil)
	_, err = LoadParams(bad)
	test.That(t, err, test.ShouldNotBeNil)
}

func TestParamsValidate(t *testing.T) {
	params := DefaultParams()
	test.That(t, params.Validate("describer"), test.ShouldBeNil)

	params.Options.NumOctaves = 0
	params.Kind = DescriptorKind(8)
	err := params.Validate("describer")
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "describer.options")
	test.That(t, err.Error(), test.ShouldContainSubstring, "num_octaves")
	test.That(t, err.Error(), test.ShouldContainSubstring, "describer.descriptor_kind")
}

func TestParamsSchema(t *testing.T) {
	data, err := json.Marshal(ParamsSchema())
	test.That(t, err, test.ShouldBeNil)
	test.That(t, string(data), test.ShouldContainSubstring, "descriptor_kind")
	test.That(t, string(data), test.ShouldContainSubstring, "num_octaves")
	test.That(t, string(data), test.ShouldContainSubstring, "orientation")
}
