package cohort

import (
	"fmt"
	"slices"

	"github.com/samber/lo"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Summary holds the order statistics and spread of a numeric sample.
type Summary struct {
	Count  int     `json:"count"`
	Median float64 `json:"median"`
	StdDev float64 `json:"std_dev"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
}

// Median returns the middle value of xs, averaging the two middle values
// when len(xs) is even.
func Median(xs []float64) (float64, error) {
	if len(xs) == 0 {
		return 0, fmt.Errorf("median of empty sequence: %w", ErrInvalidInput)
	}
	sorted := slices.Clone(xs)
	slices.Sort(sorted)

	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2], nil
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2, nil
}

// PopulationStdDev returns the biased (divide by n) standard deviation.
func PopulationStdDev(xs []float64) (float64, error) {
	if len(xs) == 0 {
		return 0, fmt.Errorf("standard deviation of empty sequence: %w", ErrInvalidInput)
	}
	return stat.PopStdDev(xs, nil), nil
}

// PercentileRank returns the mean-rank percentile of v within xs:
//
//	100 * (count(x < v) + 0.5*count(x == v)) / len(xs)
//
// The result is always within [0, 100].
func PercentileRank(xs []float64, v float64) (float64, error) {
	if len(xs) == 0 {
		return 0, fmt.Errorf("percentile rank in empty sequence: %w", ErrInvalidInput)
	}
	var below, equal int
	for _, x := range xs {
		switch {
		case x < v:
			below++
		case x == v:
			equal++
		}
	}
	return 100 * (float64(below) + 0.5*float64(equal)) / float64(len(xs)), nil
}

// Summarize computes median, population standard deviation, min and max.
func Summarize(xs []float64) (Summary, error) {
	if len(xs) == 0 {
		return Summary{}, fmt.Errorf("summarize empty sequence: %w", ErrInvalidInput)
	}
	median, err := Median(xs)
	if err != nil {
		return Summary{}, err
	}
	sd, err := PopulationStdDev(xs)
	if err != nil {
		return Summary{}, err
	}
	return Summary{
		Count:  len(xs),
		Median: median,
		StdDev: sd,
		Min:    floats.Min(xs),
		Max:    floats.Max(xs),
	}, nil
}

// CallerCount is the number of matched observations a caller flagged.
type CallerCount struct {
	Caller string `json:"caller"`
	Count  int    `json:"count"`
}

func (c CallerCount) String() string {
	return fmt.Sprintf("%s: %d", c.Caller, c.Count)
}

// TallyCallers counts, for every caller name, how many observations list it.
func TallyCallers(observations []VariantObservation) map[string]int {
	counts := make(map[string]int)
	for _, obs := range observations {
		for _, caller := range obs.Callers {
			counts[caller]++
		}
	}
	return counts
}

// SortedCallerCounts orders a tally by caller name.
func SortedCallerCounts(counts map[string]int) []CallerCount {
	callers := lo.Keys(counts)
	slices.Sort(callers)
	return lo.Map(callers, func(caller string, _ int) CallerCount {
		return CallerCount{Caller: caller, Count: counts[caller]}
	})
}
