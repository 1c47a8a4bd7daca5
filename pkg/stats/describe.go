// Package stats computes the distribution summaries reported for every
// territory and the percentile-based MBF index.
package stats

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// ErrDegenerate is returned when a percentile cannot be taken or would be
// used as a zero denominator.
var ErrDegenerate = errors.New("degenerate statistic")

const (
	// NoData is how an invalid Summary value is rendered.
	NoData = "no data"
	// Undefined marks a value whose denominator was degenerate.
	Undefined = "undefined"
)

// Summary is the distribution of one territory sample. Valid is false when
// the sample was empty; the numeric fields are then meaningless.
type Summary struct {
	N      int
	Mean   float64
	StdDev float64
	Median float64
	IQR    float64
	Valid  bool
}

// Describe returns the population mean and standard deviation (no Bessel
// correction), the median and the inter-quartile range of samples. An empty
// sample yields a Summary with Valid unset.
func Describe(samples []float64) Summary {
	if len(samples) == 0 {
		return Summary{}
	}
	sorted := append([]float64(nil), samples...)
	sort.Float64s(sorted)

	mean, std := stat.PopMeanStdDev(sorted, nil)
	return Summary{
		N:      len(sorted),
		Mean:   mean,
		StdDev: std,
		Median: quantileSorted(sorted, 0.5),
		IQR:    quantileSorted(sorted, 0.75) - quantileSorted(sorted, 0.25),
		Valid:  true,
	}
}

// Statistic names one value of a Summary.
type Statistic string

const (
	StatMean   Statistic = "mean"
	StatStdDev Statistic = "stdev"
	StatMedian Statistic = "median"
	StatIQR    Statistic = "iqr"
)

// Statistics lists the reported statistics in report order.
var Statistics = []Statistic{StatMean, StatStdDev, StatMedian, StatIQR}

// Value returns the named statistic and whether it is defined.
func (s Summary) Value(name Statistic) (float64, bool) {
	if !s.Valid {
		return 0, false
	}
	switch name {
	case StatMean:
		return s.Mean, true
	case StatStdDev:
		return s.StdDev, true
	case StatMedian:
		return s.Median, true
	case StatIQR:
		return s.IQR, true
	}
	return 0, false
}

// Format renders the named statistic, or NoData.
func (s Summary) Format(name Statistic) string {
	v, ok := s.Value(name)
	if !ok {
		return NoData
	}
	return fmt.Sprintf("%.6g", v)
}

// Percentile returns the p-th percentile (0..100) of values using linear
// interpolation between closest ranks: for n sorted values the position is
// (n-1)*p/100.
func Percentile(values []float64, p float64) (float64, error) {
	if len(values) == 0 {
		return 0, fmt.Errorf("percentile of empty sample: %w", ErrDegenerate)
	}
	if p < 0 || p > 100 || math.IsNaN(p) {
		return 0, fmt.Errorf("percentile %v out of range [0, 100]", p)
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	return quantileSorted(sorted, p/100), nil
}

func quantileSorted(sorted []float64, q float64) float64 {
	h := float64(len(sorted)-1) * q
	lo := math.Floor(h)
	i := int(lo)
	if i+1 >= len(sorted) {
		return sorted[len(sorted)-1]
	}
	return sorted[i] + (h-lo)*(sorted[i+1]-sorted[i])
}
