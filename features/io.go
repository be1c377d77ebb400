package features

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"go.viam.com/utils"
)

// WriteFeatures writes one "x y scale orientation" line per feature.
func WriteFeatures(w io.Writer, feats []PointFeature) error {
	bw := bufio.NewWriter(w)
	for _, f := range feats {
		if _, err := fmt.Fprintln(bw, f.String()); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// ReadFeatures reads features written by WriteFeatures. Blank lines are ignored.
func ReadFeatures(r io.Reader) ([]PointFeature, error) {
	var feats []PointFeature
	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		var f PointFeature
		if _, err := fmt.Sscan(text, &f.X, &f.Y, &f.Scale, &f.Orientation); err != nil {
			return nil, errors.Wrapf(err, "bad feature on line %d", line)
		}
		feats = append(feats, f)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return feats, nil
}

// SaveRegions writes the features and descriptors of regions to two files.
func SaveRegions(regions Regions, featuresPath, descriptorsPath string) (err error) {
	featFile, err := os.Create(filepath.Clean(featuresPath))
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Combine(err, featFile.Close())
	}()
	if err := regions.WriteFeatures(featFile); err != nil {
		return errors.Wrapf(err, "writing %q", featuresPath)
	}

	descFile, err := os.Create(filepath.Clean(descriptorsPath))
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Combine(err, descFile.Close())
	}()
	bw := bufio.NewWriter(descFile)
	if err := regions.WriteDescriptors(bw); err != nil {
		return errors.Wrapf(err, "writing %q", descriptorsPath)
	}
	return bw.Flush()
}

// LoadRegions reads features and descriptors written by SaveRegions into regions, which
// must be of the representation that was saved.
func LoadRegions(regions Regions, featuresPath, descriptorsPath string) error {
	//nolint:gosec
	featFile, err := os.Open(filepath.Clean(featuresPath))
	if err != nil {
		return err
	}
	defer utils.UncheckedErrorFunc(featFile.Close)
	feats, err := ReadFeatures(featFile)
	if err != nil {
		return errors.Wrapf(err, "reading %q", featuresPath)
	}

	//nolint:gosec
	descFile, err := os.Open(filepath.Clean(descriptorsPath))
	if err != nil {
		return err
	}
	defer utils.UncheckedErrorFunc(descFile.Close)
	if err := regions.ReadDescriptors(bufio.NewReader(descFile)); err != nil {
		return errors.Wrapf(err, "reading %q", descriptorsPath)
	}
	if regions.Len() != len(feats) {
		return errors.Errorf("%d features but %d descriptors", len(feats), regions.Len())
	}
	copy(regions.Features(), feats)
	return nil
}
