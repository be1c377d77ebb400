package main

import (
	"encoding/json"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"

	"github.com/edaniels/golog"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"

	"go.viam.com/describer/describer"
	"go.viam.com/describer/features"
	"go.viam.com/describer/features/matching"
	"go.viam.com/describer/rimage"
)

type describeResult struct {
	name    string
	regions int
	masked  int
}

// paramsFromFlags returns the params of the config file, if any, with the kind, preset and
// orientation flags applied on top when given.
func paramsFromFlags(c *cli.Context) (describer.Params, error) {
	params := describer.DefaultParams()
	if fn := c.String(flagConfig); fn != "" {
		loaded, err := describer.LoadParams(fn)
		if err != nil {
			return params, err
		}
		params = *loaded
	}
	if c.IsSet(flagKind) || c.String(flagConfig) == "" {
		kind, err := describer.ParseDescriptorKind(c.String(flagKind))
		if err != nil {
			return params, err
		}
		params.Kind = kind
	}
	if c.IsSet(flagPreset) {
		preset, err := describer.ParsePreset(c.String(flagPreset))
		if err != nil {
			return params, err
		}
		if err := params.SetPreset(preset); err != nil {
			return params, err
		}
	}
	if c.Bool(flagNoOrientation) {
		params.Orientation = false
	}
	return params, params.Validate("describer")
}

func describeAction(c *cli.Context, logger golog.Logger) error {
	images := c.Args().Slice()
	if len(images) == 0 {
		return errors.New("no image given")
	}
	masks := c.StringSlice(flagMask)
	if len(masks) > 1 && len(masks) != len(images) {
		return errors.Errorf("got %d masks for %d images", len(masks), len(images))
	}
	if c.Int(flagParallel) < 1 {
		return errors.Errorf("--%s should be >= 1", flagParallel)
	}
	params, err := paramsFromFlags(c)
	if err != nil {
		return err
	}
	var opts []describer.Option
	if c.Bool(flagSequential) {
		opts = append(opts, describer.Sequential())
	}
	d := describer.NewDescriber(params, logger, opts...)
	outDir := c.String(flagOut)

	results := make([]describeResult, len(images))
	g, ctx := errgroup.WithContext(c.Context)
	g.SetLimit(c.Int(flagParallel))
	for i, fn := range images {
		i, fn := i, fn
		var maskFn string
		switch len(masks) {
		case 0:
		case 1:
			maskFn = masks[0]
		default:
			maskFn = masks[i]
		}
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			res, err := describeImage(d, fn, maskFn, outDir, c.Int(flagMaxDim), c.Bool(flagPlot))
			if err != nil {
				return errors.Wrapf(err, "describing %q", fn)
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	for _, res := range results {
		fmt.Fprintf(c.App.Writer, "%s: %d regions (%d masked)\n", res.name, res.regions, res.masked)
	}
	return nil
}

func describeImage(d *describer.Describer, fn, maskFn, outDir string, maxDim int, plot bool) (describeResult, error) {
	img, err := rimage.ReadGrayFromFile(fn)
	if err != nil {
		return describeResult{}, err
	}
	var mask *image.Gray
	if maskFn != "" {
		if mask, err = rimage.ReadMaskFromFile(maskFn); err != nil {
			return describeResult{}, err
		}
	}
	if mask != nil && !rimage.SameImgSize(img, mask) {
		return describeResult{}, errors.Wrapf(describer.ErrMaskSize, "mask %q", maskFn)
	}
	small, smallMask, scale := downscale(img, mask, maxDim)
	regions, err := d.Describe(small, smallMask)
	if err != nil {
		return describeResult{}, err
	}
	rescaleFeatures(regions.Features(), scale)

	prefix := filepath.Join(outDir, strings.TrimSuffix(filepath.Base(fn), filepath.Ext(fn)))
	if err := features.SaveRegions(regions, prefix+".feat", prefix+".desc"); err != nil {
		return describeResult{}, err
	}
	if plot {
		if err := features.PlotFeatures(img, regions.Features(), prefix+"_features.png"); err != nil {
			return describeResult{}, err
		}
	}
	res := describeResult{name: prefix, regions: regions.Len()}
	for i := 0; i < regions.Len(); i++ {
		if regions.IsMasked(i) {
			res.masked++
		}
	}
	return res, nil
}

func loadRegions(kind describer.DescriptorKind, prefix string) (features.Regions, error) {
	regions := describer.Allocate(kind)
	if err := features.LoadRegions(regions, prefix+".feat", prefix+".desc"); err != nil {
		return nil, err
	}
	return regions, nil
}

func matchAction(c *cli.Context, logger golog.Logger) error {
	if c.NArg() != 2 {
		return errors.New("expected two region path prefixes")
	}
	kind, err := describer.ParseDescriptorKind(c.String(flagKind))
	if err != nil {
		return err
	}
	r1, err := loadRegions(kind, c.Args().Get(0))
	if err != nil {
		return err
	}
	r2, err := loadRegions(kind, c.Args().Get(1))
	if err != nil {
		return err
	}
	cfg := &matching.MatchingConfig{
		DoCrossCheck: c.Bool(flagCrossCheck),
		MaxDist:      c.Float64(flagMaxDist),
		Ratio:        c.Float64(flagRatio),
	}
	matches, err := matching.MatchRegions(r1, r2, cfg, logger)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "%d matches\n", len(matches))
	if len(matches) == 0 {
		return nil
	}

	summary, err := matching.Summarize(matches)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "distance mean %.4g median %.4g stddev %.4g p90 %.4g\n",
		summary.Mean, summary.Median, summary.StdDev, summary.P90)
	if c.Bool(flagTextHist) {
		if err := matching.FprintHistogram(c.App.Writer, matches, 10, 40); err != nil {
			return err
		}
	}

	top := matches
	if n := c.Int(flagTop); n >= 0 && n < len(top) {
		top = top[:n]
	}
	feats1, feats2, err := matching.GetMatchingFeatures(top, r1.Features(), r2.Features())
	if err != nil {
		return err
	}
	t := table.NewWriter()
	t.AppendHeader(table.Row{"#", "Index 1", "Feature 1", "Index 2", "Feature 2", "Distance"})
	for i, m := range top {
		t.AppendRow(table.Row{i, m.Idx1, feats1[i].String(), m.Idx2, feats2[i].String(), fmt.Sprintf("%.4g", m.Distance)})
	}
	fmt.Fprintln(c.App.Writer, t.Render())

	if fn := c.String(flagHist); fn != "" {
		return matching.PlotDistanceHistogram(matches, 32, fn)
	}
	return nil
}

func writeConfigAction(c *cli.Context) error {
	if c.NArg() != 1 {
		return errors.New("expected an output file")
	}
	params := describer.DefaultParams()
	kind, err := describer.ParseDescriptorKind(c.String(flagKind))
	if err != nil {
		return err
	}
	params.Kind = kind
	preset, err := describer.ParsePreset(c.String(flagPreset))
	if err != nil {
		return err
	}
	if err := params.SetPreset(preset); err != nil {
		return err
	}
	if err := describer.WriteParams(params, c.Args().First()); err != nil {
		return err
	}
	if fn := c.String(flagSchema); fn != "" {
		data, err := json.MarshalIndent(describer.ParamsSchema(), "", "  ")
		if err != nil {
			return err
		}
		return os.WriteFile(filepath.Clean(fn), data, 0o600)
	}
	return nil
}
