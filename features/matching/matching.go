// Package matching pairs the descriptors of two region sets.
package matching

import (
	"math"
	"math/bits"

	"github.com/edaniels/golog"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"

	"go.viam.com/describer/features"
	"go.viam.com/describer/utils"
)

// MatchingConfig contains the parameters for matching descriptors.
type MatchingConfig struct {
	DoCrossCheck bool `json:"do_cross_check"`
	// MaxDist rejects matches whose distance is not below it. 0 disables the filter.
	MaxDist float64 `json:"max_dist"`
	// Ratio rejects matches whose distance is not below Ratio times the distance to the
	// second nearest descriptor. 0 disables the filter.
	Ratio float64 `json:"ratio"`
}

// DescriptorMatch contains the index of a match in the first and second set of regions.
type DescriptorMatch struct {
	Idx1     int
	Idx2     int
	Distance float64
}

// MatchRegions matches every described slot of r1 to its nearest described slot of r2.
// Binary descriptors are compared with the Hamming distance, the others with the L2
// distance. Masked slots are skipped. Matches are sorted by increasing distance.
func MatchRegions(r1, r2 features.Regions, cfg *MatchingConfig, logger golog.Logger) ([]DescriptorMatch, error) {
	var matches []DescriptorMatch
	switch a := r1.(type) {
	case *features.FloatRegions:
		b, ok := r2.(*features.FloatRegions)
		if !ok {
			return nil, mismatchError(r1, r2)
		}
		matches = match(a, b, func(x, y *features.FloatDescriptor) float64 { return l2(x[:], y[:]) }, cfg)
	case *features.LiopRegions:
		b, ok := r2.(*features.LiopRegions)
		if !ok {
			return nil, mismatchError(r1, r2)
		}
		matches = match(a, b, func(x, y *features.LiopDescriptor) float64 { return l2(x[:], y[:]) }, cfg)
	case *features.BinaryRegions:
		b, ok := r2.(*features.BinaryRegions)
		if !ok {
			return nil, mismatchError(r1, r2)
		}
		matches = match(a, b, func(x, y *features.BinaryDescriptor) float64 {
			return float64(HammingDistance(x, y))
		}, cfg)
	default:
		return nil, errors.Errorf("cannot match regions of type %T", r1)
	}
	logger.Debugw("matched regions", "first", r1.Len(), "second", r2.Len(), "matches", len(matches))
	return matches, nil
}

func mismatchError(r1, r2 features.Regions) error {
	return errors.Errorf("cannot match regions of type %T with regions of type %T", r1, r2)
}

// HammingDistance returns the number of differing bits of two binary descriptors.
func HammingDistance(a, b *features.BinaryDescriptor) int {
	dist := 0
	for i := range a {
		dist += bits.OnesCount8(a[i] ^ b[i])
	}
	return dist
}

func l2[T float32 | uint8](a, b []T) float64 {
	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return math.Sqrt(sum)
}

func described(feats []features.PointFeature) []int {
	out := make([]int, 0, len(feats))
	for i, f := range feats {
		if !f.IsZero() {
			out = append(out, i)
		}
	}
	return out
}

type nearest struct {
	idx    int
	best   float64
	second float64
}

func match[D features.Descriptor](
	r1, r2 *features.DescriptorRegions[D],
	dist func(a, b *D) float64,
	cfg *MatchingConfig,
) []DescriptorMatch {
	valid1 := described(r1.Feats)
	valid2 := described(r2.Feats)
	if len(valid1) == 0 || len(valid2) == 0 {
		return nil
	}

	distances := make([][]float64, len(valid1))
	utils.ParallelForEachIndex(len(valid1), func(i int) {
		row := make([]float64, len(valid2))
		d1 := &r1.Descs[valid1[i]]
		for j, idx2 := range valid2 {
			row[j] = dist(d1, &r2.Descs[idx2])
		}
		distances[i] = row
	})

	forward := make([]nearest, len(valid1))
	for i, row := range distances {
		forward[i] = argmin2(len(row), func(j int) float64 { return row[j] })
	}
	var backward []nearest
	if cfg.DoCrossCheck {
		backward = make([]nearest, len(valid2))
		for j := range valid2 {
			backward[j] = argmin2(len(valid1), func(i int) float64 { return distances[i][j] })
		}
	}

	matches := make([]DescriptorMatch, 0, len(valid1))
	dists := make([]float64, 0, len(valid1))
	for i, n := range forward {
		if cfg.DoCrossCheck && backward[n.idx].idx != i {
			continue
		}
		if cfg.MaxDist > 0 && n.best >= cfg.MaxDist {
			continue
		}
		if cfg.Ratio > 0 && !math.IsInf(n.second, 1) && n.best >= cfg.Ratio*n.second {
			continue
		}
		matches = append(matches, DescriptorMatch{Idx1: valid1[i], Idx2: valid2[n.idx], Distance: n.best})
		dists = append(dists, n.best)
	}

	// floats.Argsort is not stable, so ties are broken by the first index afterwards.
	sortedIndices := make([]int, len(dists))
	floats.Argsort(dists, sortedIndices)
	sorted := make([]DescriptorMatch, len(matches))
	for i, idx := range sortedIndices {
		sorted[i] = matches[idx]
	}
	stabilize(sorted)
	return sorted
}

// argmin2 returns the index of the smallest of n values, along with the smallest and second
// smallest values. The first index wins ties.
func argmin2(n int, at func(int) float64) nearest {
	out := nearest{idx: -1, best: math.Inf(1), second: math.Inf(1)}
	for k := 0; k < n; k++ {
		v := at(k)
		switch {
		case v < out.best:
			out.second = out.best
			out.best = v
			out.idx = k
		case v < out.second:
			out.second = v
		}
	}
	return out
}

// stabilize orders runs of equal distances by Idx1.
func stabilize(matches []DescriptorMatch) {
	for start := 0; start < len(matches); {
		end := start + 1
		for end < len(matches) && matches[end].Distance == matches[start].Distance {
			end++
		}
		run := matches[start:end]
		for i := 1; i < len(run); i++ {
			for j := i; j > 0 && run[j].Idx1 < run[j-1].Idx1; j-- {
				run[j], run[j-1] = run[j-1], run[j]
			}
		}
		start = end
	}
}

// GetMatchingFeatures takes the matches and the features of both region sets and returns
// the corresponding matched features.
func GetMatchingFeatures(
	matches []DescriptorMatch, feats1, feats2 []features.PointFeature,
) ([]features.PointFeature, []features.PointFeature, error) {
	matched1 := make([]features.PointFeature, len(matches))
	matched2 := make([]features.PointFeature, len(matches))
	for i, m := range matches {
		if m.Idx1 < 0 || m.Idx1 >= len(feats1) {
			return nil, nil, errors.Errorf("match %d refers to feature %d of %d in first set", i, m.Idx1, len(feats1))
		}
		if m.Idx2 < 0 || m.Idx2 >= len(feats2) {
			return nil, nil, errors.Errorf("match %d refers to feature %d of %d in second set", i, m.Idx2, len(feats2))
		}
		matched1[i] = feats1[m.Idx1]
		matched2[i] = feats2[m.Idx2]
	}
	return matched1, matched2, nil
}
