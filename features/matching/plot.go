package matching

import (
	"github.com/pkg/errors"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	// registers the raster output formats
	_ "gonum.org/v1/plot/vg/vgimg"
)

// PlotDistanceHistogram saves a histogram of the match distances. The image format is
// taken from the extension of outName.
func PlotDistanceHistogram(matches []DescriptorMatch, bins int, outName string) error {
	if len(matches) == 0 {
		return errors.New("no matches to plot")
	}
	values := make(plotter.Values, len(matches))
	for i, m := range matches {
		values[i] = m.Distance
	}
	p := plot.New()
	p.Title.Text = "match distances"
	p.X.Label.Text = "distance"
	p.Y.Label.Text = "matches"
	hist, err := plotter.NewHist(values, bins)
	if err != nil {
		return err
	}
	p.Add(hist)
	return p.Save(6*vg.Inch, 4*vg.Inch, outName)
}
