package morphology

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"

	"cabgcompare/internal/models"
	"cabgcompare/internal/testutil"
)

// TestTriangulateCube verifies that a cube of quads becomes twelve triangles
func TestTriangulateCube(t *testing.T) {
	m, err := Triangulate(testutil.Cube(r3.Vec{}, 2))
	require.NoError(t, err)
	assert.Len(t, m.TriangleSlice(), 12)
}

// TestTriangulateSkipsLinesAndRejectsBadIDs verifies that line cells are ignored and out-of-range point ids fail
func TestTriangulateSkipsLinesAndRejectsBadIDs(t *testing.T) {
	ds := models.NewDataset(models.PolyData, []r3.Vec{{}, {X: 1}, {Y: 1}}, []models.Cell{
		{Type: models.Line, PointIDs: []int{0, 1}},
		{Type: models.Triangle, PointIDs: []int{0, 1, 2}},
	})
	m, err := Triangulate(ds)
	require.NoError(t, err)
	assert.Len(t, m.TriangleSlice(), 1)

	ds.Cells = append(ds.Cells, models.Cell{Type: models.Triangle, PointIDs: []int{0, 1, 9}})
	_, err = Triangulate(ds)
	assert.Error(t, err)
}

// TestTriangulateStripAndPixel verifies strip and pixel triangulation
func TestTriangulateStripAndPixel(t *testing.T) {
	pts := []r3.Vec{{}, {X: 1}, {Y: 1}, {X: 1, Y: 1}, {Y: 2}}
	ds := models.NewDataset(models.PolyData, pts, []models.Cell{
		{Type: models.TriangleStrip, PointIDs: []int{0, 1, 2, 3, 4}},
		{Type: models.Pixel, PointIDs: []int{0, 1, 2, 3}},
	})
	m, err := Triangulate(ds)
	require.NoError(t, err)
	assert.Len(t, m.TriangleSlice(), 5)
}

// TestMassPropertiesCube verifies volume and area of closed boxes
func TestMassPropertiesCube(t *testing.T) {
	props, err := ComputeMassProperties(testutil.Cube(r3.Vec{X: 5, Y: -3, Z: 1}, 2), true, 1e-8)
	require.NoError(t, err)
	assert.InDelta(t, 8.0, props.Volume, 1e-9)
	assert.InDelta(t, 24.0, props.Area, 1e-9)

	box, err := ComputeMassProperties(testutil.BoxSurface(r3.Vec{}, r3.Vec{X: 1, Y: 2, Z: 3}), false, 0)
	require.NoError(t, err)
	assert.InDelta(t, 6.0, box.Volume, 1e-9)
	assert.InDelta(t, 22.0, box.Area, 1e-9)
}

// TestMassPropertiesEmpty verifies that a surface without triangles is rejected
func TestMassPropertiesEmpty(t *testing.T) {
	_, err := ComputeMassProperties(models.NewDataset(models.PolyData, nil, nil), true, 1e-8)
	assert.True(t, errors.Is(err, ErrEmptySurface))
}

// TestCleanWeldsNearDuplicates verifies that vertices within the weld distance are merged
func TestCleanWeldsNearDuplicates(t *testing.T) {
	const d = 1e-10
	pts := []r3.Vec{{}, {X: 1}, {Y: 1}, {X: 1 + d}, {Y: 1 + d}, {X: 1, Y: 1}}
	ds := models.NewDataset(models.PolyData, pts, []models.Cell{
		{Type: models.Triangle, PointIDs: []int{0, 1, 2}},
		{Type: models.Triangle, PointIDs: []int{3, 5, 4}},
	})
	raw, err := Prepare(ds, false, 0)
	require.NoError(t, err)
	assert.Equal(t, 6, ToDataset(raw).NumPoints())

	cleaned, err := Prepare(ds, true, 1e-8)
	require.NoError(t, err)
	out := ToDataset(cleaned)
	assert.Equal(t, 4, out.NumPoints())
	assert.Equal(t, 2, out.NumCells())
}

// TestWallThicknessNestedCubes verifies the corner distances between two nested cubes, with and without cleaning
func TestWallThicknessNestedCubes(t *testing.T) {
	endo := testutil.Cube(r3.Vec{}, 2)
	epi := testutil.Cube(r3.Vec{}, 4)

	for _, clean := range []bool{true, false} {
		wt := NewWallThickness()
		wt.Clean = clean
		surf, f, err := wt.Compute(endo, epi)
		require.NoError(t, err)
		assert.Equal(t, DistanceField, f.Name)
		assert.Equal(t, 8, surf.NumPoints())
		for _, v := range f.Values {
			assert.InDelta(t, math.Sqrt(3), v, 1e-9)
		}
	}
}

// TestWallThicknessUnsignedInside verifies that distances are positive when the query surface lies inside
func TestWallThicknessUnsignedInside(t *testing.T) {
	endo := testutil.Cube(r3.Vec{}, 4)
	epi := testutil.Cube(r3.Vec{}, 2)
	_, f, err := NewWallThickness().Compute(endo, epi)
	require.NoError(t, err)
	for _, v := range f.Values {
		assert.InDelta(t, 1.0, v, 1e-9)
	}
}

// TestWallThicknessWithoutCleaningAugmentsInPlace verifies that the input surface itself receives the field when cleaning is off
func TestWallThicknessWithoutCleaningAugmentsInPlace(t *testing.T) {
	endo := testutil.Cube(r3.Vec{}, 2)
	epi := testutil.Cube(r3.Vec{}, 4)
	wt := NewWallThickness()
	wt.Clean = false
	surf, _, err := wt.Compute(endo, epi)
	require.NoError(t, err)
	assert.Same(t, epi, surf)
	_, err = epi.GetField(DistanceField, models.PointData)
	assert.NoError(t, err)
}

// TestWallThicknessKeepsEpicardiumFields verifies that cleaning the
// epicardium does not drop the point fields it already carries
func TestWallThicknessKeepsEpicardiumFields(t *testing.T) {
	endo := testutil.Cube(r3.Vec{}, 2)
	epi := testutil.Cube(r3.Vec{}, 4)
	heights := make([]float64, epi.NumPoints())
	for i, p := range epi.Points {
		heights[i] = p.Z
	}
	_, err := epi.AddField("Height", models.PointData, heights)
	require.NoError(t, err)

	surf, _, err := NewWallThickness().Compute(endo, epi)
	require.NoError(t, err)
	require.NotSame(t, epi, surf)

	var names []string
	for _, f := range surf.Fields(models.PointData) {
		names = append(names, f.Name)
	}
	assert.ElementsMatch(t, []string{"Height", DistanceField}, names)

	h, err := surf.GetField("Height", models.PointData)
	require.NoError(t, err)
	for i, p := range surf.Points {
		assert.Equal(t, p.Z, h.Values[i])
	}
}

// TestCarryPointFieldsAfterWeld verifies that welded vertices take the
// value of the nearest source point
func TestCarryPointFieldsAfterWeld(t *testing.T) {
	const d = 1e-10
	pts := []r3.Vec{{}, {X: 1}, {Y: 1}, {X: 1 + d}, {Y: 1 + d}, {X: 1, Y: 1}}
	src := models.NewDataset(models.PolyData, pts, []models.Cell{
		{Type: models.Triangle, PointIDs: []int{0, 1, 2}},
		{Type: models.Triangle, PointIDs: []int{3, 5, 4}},
	})
	_, err := src.AddField("id", models.PointData, []float64{0, 1, 2, 3, 4, 5})
	require.NoError(t, err)

	m, err := Prepare(src, true, 1e-8)
	require.NoError(t, err)
	dst := ToDataset(m)
	require.NoError(t, CarryPointFields(src, dst))

	f, err := dst.GetField("id", models.PointData)
	require.NoError(t, err)
	require.Len(t, f.Values, dst.NumPoints())
	for i, p := range dst.Points {
		assert.InDelta(t, p.X, pts[int(f.Values[i])].X, 1e-9)
		assert.InDelta(t, p.Y, pts[int(f.Values[i])].Y, 1e-9)
	}
}
