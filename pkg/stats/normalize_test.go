package stats

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"

	"cabgcompare/internal/models"
)

func pointCloud(values []float64) (*models.Dataset, *models.Field) {
	points := make([]r3.Vec, len(values))
	for i := range points {
		points[i] = r3.Vec{X: float64(i)}
	}
	ds := models.NewDataset(models.UnstructuredGrid, points, nil)
	f, err := ds.AddField("ImageScalars", models.PointData, values)
	if err != nil {
		panic(err)
	}
	return ds, f
}

// TestNormalize verifies that the index field is values divided by the 75th percentile
func TestNormalize(t *testing.T) {
	ds, f := pointCloud([]float64{1, 2, 3, 4})
	ref, out, err := NewNormalizer().Normalize(ds, f)
	require.NoError(t, err)
	assert.InDelta(t, 3.25, ref, 1e-12)
	assert.Equal(t, IndexField, out.Name)
	assert.Equal(t, models.PointData, out.Association)
	assert.InDelta(t, 4/3.25, out.Values[3], 1e-12)

	// source untouched, new field attached alongside
	assert.Equal(t, []float64{1, 2, 3, 4}, f.Values)
	assert.Len(t, ds.Fields(models.PointData), 2)
}

// TestNormalizeIdempotentAtReference verifies that normalizing an index leaves its reference at one
func TestNormalizeIdempotentAtReference(t *testing.T) {
	ds, f := pointCloud([]float64{12.5, 0.3, 7, 99, 41, 3.3, 18, 0.01, 64})
	n := NewNormalizer()
	_, idx, err := n.Normalize(ds, f)
	require.NoError(t, err)

	n2 := &Normalizer{Percentile: 75, Output: "IndexIndex"}
	ref, again, err := n2.Normalize(ds, idx)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, ref, 1e-12)
	p75, err := Percentile(again.Values, 75)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, p75, 1e-12)
}

// TestNormalizeDegenerate verifies that a zero reference is reported as degenerate
func TestNormalizeDegenerate(t *testing.T) {
	ds, f := pointCloud([]float64{0, 0, 0, 0, 5})
	_, _, err := NewNormalizer().Normalize(ds, f)
	assert.True(t, errors.Is(err, ErrDegenerate))

	empty := models.NewDataset(models.UnstructuredGrid, nil, nil)
	ef, err := empty.AddField("ImageScalars", models.PointData, nil)
	require.NoError(t, err)
	_, _, err = NewNormalizer().Normalize(empty, ef)
	assert.True(t, errors.Is(err, ErrDegenerate))
}

func TestNormalizeByNameMissing(t *testing.T) {
	ds, _ := pointCloud([]float64{1})
	_, _, err := NewNormalizer().NormalizeByName(ds, "nope")
	assert.True(t, errors.Is(err, models.ErrMissingField))
}
