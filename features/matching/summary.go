package matching

import (
	"io"

	"github.com/aybabtme/uniplot/histogram"
	"github.com/montanaflynn/stats"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
)

// Summary describes the distribution of match distances.
type Summary struct {
	Count  int
	Mean   float64
	Median float64
	StdDev float64
	P90    float64
}

func distances(matches []DescriptorMatch) []float64 {
	out := make([]float64, len(matches))
	for i, m := range matches {
		out[i] = m.Distance
	}
	return out
}

// Summarize computes the distance statistics of matches.
func Summarize(matches []DescriptorMatch) (Summary, error) {
	if len(matches) == 0 {
		return Summary{}, errors.New("no matches to summarize")
	}
	data := stats.Float64Data(distances(matches))
	mean, err1 := data.Mean()
	median, err2 := data.Median()
	sd, err3 := data.StandardDeviation()
	p90, err4 := data.Percentile(90)
	if err := multierr.Combine(err1, err2, err3, err4); err != nil {
		return Summary{}, err
	}
	return Summary{Count: len(matches), Mean: mean, Median: median, StdDev: sd, P90: p90}, nil
}

// FprintHistogram writes a text histogram of the match distances to w.
func FprintHistogram(w io.Writer, matches []DescriptorMatch, bins, width int) error {
	if len(matches) == 0 {
		return errors.New("no matches to plot")
	}
	hist := histogram.Hist(bins, distances(matches))
	return histogram.Fprint(w, hist, histogram.Linear(width))
}
