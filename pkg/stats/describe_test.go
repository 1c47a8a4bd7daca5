package stats

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestPercentileLinearInterpolation verifies linear interpolation between closest ranks
func TestPercentileLinearInterpolation(t *testing.T) {
	tests := []struct {
		name   string
		values []float64
		p      float64
		want   float64
	}{
		{"single", []float64{4}, 75, 4},
		{"q3 of four", []float64{1, 2, 3, 4}, 75, 3.25},
		{"median even", []float64{4, 1, 3, 2}, 50, 2.5},
		{"q1 of five", []float64{5, 1, 4, 2, 3}, 25, 2},
		{"max", []float64{1, 9, 3}, 100, 9},
		{"min", []float64{1, 9, 3}, 0, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Percentile(tt.values, tt.p)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-12)
		})
	}
}

func TestPercentileErrors(t *testing.T) {
	_, err := Percentile(nil, 75)
	assert.True(t, errors.Is(err, ErrDegenerate))
	_, err = Percentile([]float64{1}, 101)
	assert.Error(t, err)
}

func TestPercentileDoesNotSortInput(t *testing.T) {
	in := []float64{3, 1, 2}
	_, err := Percentile(in, 50)
	require.NoError(t, err)
	assert.Equal(t, []float64{3, 1, 2}, in)
}

// TestDescribe verifies population statistics of a small sample
func TestDescribe(t *testing.T) {
	s := Describe([]float64{2, 4, 4, 4, 5, 5, 7, 9})
	require.True(t, s.Valid)
	assert.Equal(t, 8, s.N)
	assert.InDelta(t, 5.0, s.Mean, 1e-12)
	// population standard deviation of the classic example is exactly 2
	assert.InDelta(t, 2.0, s.StdDev, 1e-12)
	assert.InDelta(t, 4.5, s.Median, 1e-12)
	// q1 = 4, q3 = 5.5
	assert.InDelta(t, 1.5, s.IQR, 1e-12)
}

// TestDescribeEmptyIsNoData verifies that an empty sample reports no data
func TestDescribeEmptyIsNoData(t *testing.T) {
	s := Describe(nil)
	assert.False(t, s.Valid)
	for _, name := range Statistics {
		_, ok := s.Value(name)
		assert.False(t, ok, name)
		assert.Equal(t, NoData, s.Format(name))
	}
}

func TestSummaryFormat(t *testing.T) {
	s := Describe([]float64{1, 2, 3})
	assert.Equal(t, "2", s.Format(StatMean))
	assert.Equal(t, "1", s.Format(StatIQR))
	v, ok := s.Value(StatStdDev)
	assert.True(t, ok)
	assert.InDelta(t, math.Sqrt(2.0/3.0), v, 1e-12)
}
