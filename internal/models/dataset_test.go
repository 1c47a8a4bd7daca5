package models

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"
)

// twoVoxels builds two unit voxels sharing a face along x.
func twoVoxels() *Dataset {
	var points []r3.Vec
	for z := 0; z < 2; z++ {
		for y := 0; y < 2; y++ {
			for x := 0; x < 3; x++ {
				points = append(points, r3.Vec{X: float64(x), Y: float64(y), Z: float64(z)})
			}
		}
	}
	id := func(x, y, z int) int { return z*6 + y*3 + x }
	voxel := func(x int) Cell {
		return Cell{Type: Voxel, PointIDs: []int{
			id(x, 0, 0), id(x+1, 0, 0), id(x, 1, 0), id(x+1, 1, 0),
			id(x, 0, 1), id(x+1, 0, 1), id(x, 1, 1), id(x+1, 1, 1),
		}}
	}
	return NewDataset(UnstructuredGrid, points, []Cell{voxel(0), voxel(1)})
}

// TestGetFieldMissing verifies the typed missing field error
func TestGetFieldMissing(t *testing.T) {
	ds := twoVoxels()
	_, err := ds.AddField("ImageScalars", CellData, []float64{1, 2})
	require.NoError(t, err)

	_, err = ds.GetField("ImageScalars", PointData)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMissingField))
	var mfe *MissingFieldError
	require.True(t, errors.As(err, &mfe))
	assert.Equal(t, "ImageScalars", mfe.Name)
	assert.Equal(t, PointData, mfe.Association)

	f, err := ds.FindField("ImageScalars")
	require.NoError(t, err)
	assert.Equal(t, CellData, f.Association)
}

// TestAddFieldLengthAndReplace verifies length checks and replacement of a same-named field
func TestAddFieldLengthAndReplace(t *testing.T) {
	ds := twoVoxels()
	_, err := ds.AddField("bad", CellData, []float64{1})
	assert.Error(t, err)

	_, err = ds.AddField("a", PointData, make([]float64, 12))
	require.NoError(t, err)
	_, err = ds.AddField("b", PointData, make([]float64, 12))
	require.NoError(t, err)
	_, err = ds.AddField("a", PointData, append(make([]float64, 11), 7))
	require.NoError(t, err)

	fields := ds.Fields(PointData)
	require.Len(t, fields, 2)
	assert.Equal(t, "a", fields[0].Name)
	assert.Equal(t, 7.0, fields[0].Values[11])
}

// TestCellBoundsAndCentroid verifies cell and dataset bounds and the cell centroid
func TestCellBoundsAndCentroid(t *testing.T) {
	ds := twoVoxels()
	b := ds.CellBounds(1)
	assert.Equal(t, r3.Vec{X: 1, Y: 0, Z: 0}, b.Min)
	assert.Equal(t, r3.Vec{X: 2, Y: 1, Z: 1}, b.Max)
	assert.Equal(t, r3.Vec{X: 1.5, Y: 0.5, Z: 0.5}, ds.CellCentroid(1))

	all := ds.Bounds()
	assert.Equal(t, r3.Vec{}, all.Min)
	assert.Equal(t, r3.Vec{X: 2, Y: 1, Z: 1}, all.Max)
	assert.Equal(t, r3.Box{}, NewDataset(PolyData, nil, nil).Bounds())
}

// TestSubsetCarriesFields verifies that a cell subset keeps its point and cell fields
func TestSubsetCarriesFields(t *testing.T) {
	ds := twoVoxels()
	pv := make([]float64, 12)
	for i := range pv {
		pv[i] = float64(i)
	}
	_, err := ds.AddField("p", PointData, pv)
	require.NoError(t, err)
	_, err = ds.AddField("c", CellData, []float64{10, 20})
	require.NoError(t, err)

	sub := ds.Subset([]int{1})
	assert.Equal(t, 1, sub.NumCells())
	assert.Equal(t, 8, sub.NumPoints())
	c, err := sub.GetField("c", CellData)
	require.NoError(t, err)
	assert.Equal(t, []float64{20}, c.Values)

	p, err := sub.GetField("p", PointData)
	require.NoError(t, err)
	want := []float64{1, 2, 4, 5, 7, 8, 10, 11}
	if diff := cmp.Diff(want, p.Values); diff != "" {
		t.Errorf("point field mismatch (-want +got):\n%s", diff)
	}
}

func TestPointSubset(t *testing.T) {
	ds := twoVoxels()
	_, err := ds.AddField("c", CellData, []float64{10, 20})
	require.NoError(t, err)
	sub := ds.PointSubset([]int{0, 5})
	assert.Equal(t, 2, sub.NumPoints())
	assert.Equal(t, 2, sub.NumCells())
	assert.Empty(t, sub.Fields(CellData))
	assert.Equal(t, r3.Vec{X: 2, Y: 1, Z: 0}, sub.Points[1])
}
