package flow

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cabgcompare/internal/models"
	"cabgcompare/internal/testutil"
	"cabgcompare/pkg/config"
)

func mmConstants() config.PhysicalConstants {
	return config.PhysicalConstants{Unit: config.Millimetre, TissueDensity: 1.05}
}

// TestIntegrateFlowTwoVoxels verifies flow, volume and average flow of two unit voxels in millimetres
func TestIntegrateFlowTwoVoxels(t *testing.T) {
	ds := testutil.VoxelGrid(2, 1, 1, 1)
	_, err := ds.AddField("ImageScalars", models.CellData, []float64{10, 20})
	require.NoError(t, err)

	in, err := NewIntegrator(mmConstants())
	require.NoError(t, err)
	assert.Equal(t, mmConstants(), in.Constants())
	res, err := in.IntegrateFlow(ds, "ImageScalars")
	require.NoError(t, err)

	assert.InDelta(t, 0.000315, res.TotalFlow, 1e-15)
	assert.Equal(t, 2, res.CellCount)
	assert.InDelta(t, 0.002, res.TotalVolume, 1e-15)
	assert.InDelta(t, 1.0, res.AverageCellVolume, 1e-15)
	avg, ok := res.AverageFlow()
	require.True(t, ok)
	assert.InDelta(t, 0.0001575, avg, 1e-15)
	assert.InDeltaSlice(t, []float64{0.000105, 0.00021}, res.CellFlow, 1e-15)
}

// TestIntegrateFlowCentimetre verifies the centimetre scaling
func TestIntegrateFlowCentimetre(t *testing.T) {
	ds := testutil.VoxelGrid(1, 1, 1, 0.2)
	_, err := ds.AddField("ImageScalars", models.CellData, []float64{100})
	require.NoError(t, err)
	in, err := NewIntegrator(config.PhysicalConstants{Unit: config.Centimetre, TissueDensity: 1.05})
	require.NoError(t, err)
	res, err := in.IntegrateFlow(ds, "ImageScalars")
	require.NoError(t, err)
	// 0.008 cm³ * 100 mL/min/100g * 1.05 g/mL / 100
	assert.InDelta(t, 0.0084, res.TotalFlow, 1e-12)
	assert.InDelta(t, 0.008, res.TotalVolume, 1e-12)
}

// TestIntegrateFlowLinearInDensity verifies that scaling every density scales the flow by the same factor
func TestIntegrateFlowLinearInDensity(t *testing.T) {
	ds := testutil.VoxelGrid(3, 2, 2, 1.5)
	base := make([]float64, ds.NumCells())
	for i := range base {
		base[i] = float64(i*7%5) + 0.25
	}
	in, err := NewIntegrator(mmConstants())
	require.NoError(t, err)

	_, err = ds.AddField("mbf", models.CellData, base)
	require.NoError(t, err)
	r1, err := in.IntegrateFlow(ds, "mbf")
	require.NoError(t, err)

	for _, k := range []float64{0, 0.5, 3, 17.25} {
		scaled := make([]float64, len(base))
		for i, v := range base {
			scaled[i] = k * v
		}
		_, err = ds.AddField("mbf", models.CellData, scaled)
		require.NoError(t, err)
		rk, err := in.IntegrateFlow(ds, "mbf")
		require.NoError(t, err)
		assert.InDelta(t, k*r1.TotalFlow, rk.TotalFlow, 1e-12, "k=%v", k)
	}
}

// TestIntegrateFlowPointField verifies the fallback that averages a point field over cell vertices
func TestIntegrateFlowPointField(t *testing.T) {
	ds := testutil.VoxelGrid(1, 1, 1, 1)
	vals := make([]float64, ds.NumPoints())
	for i := range vals {
		vals[i] = float64(i) // mean 3.5
	}
	_, err := ds.AddField("mbf", models.PointData, vals)
	require.NoError(t, err)
	in, err := NewIntegrator(mmConstants())
	require.NoError(t, err)
	res, err := in.IntegrateFlow(ds, "mbf")
	require.NoError(t, err)
	assert.Equal(t, []float64{3.5}, res.Densities)
	assert.InDelta(t, 3.5*1.05/1e5, res.TotalFlow, 1e-15)
}

// TestIntegrateFlowEmpty verifies that an empty territory integrates to zero without error
func TestIntegrateFlowEmpty(t *testing.T) {
	ds := models.NewDataset(models.UnstructuredGrid, nil, nil)
	_, err := ds.AddField("mbf", models.CellData, nil)
	require.NoError(t, err)
	in, err := NewIntegrator(mmConstants())
	require.NoError(t, err)
	res, err := in.IntegrateFlow(ds, "mbf")
	require.NoError(t, err)
	assert.False(t, res.HasData())
	assert.Zero(t, res.TotalFlow)
	_, ok := res.AverageFlow()
	assert.False(t, ok)
}

func TestIntegrateFlowMissingField(t *testing.T) {
	in, err := NewIntegrator(mmConstants())
	require.NoError(t, err)
	_, err = in.IntegrateFlow(testutil.VoxelGrid(1, 1, 1, 1), "mbf")
	assert.True(t, errors.Is(err, models.ErrMissingField))
}

// TestNewIntegratorValidates verifies that unknown units and non-positive densities are rejected
func TestNewIntegratorValidates(t *testing.T) {
	_, err := NewIntegrator(config.PhysicalConstants{Unit: "m", TissueDensity: 1})
	assert.Error(t, err)
	_, err = NewIntegrator(config.PhysicalConstants{Unit: config.Millimetre})
	assert.Error(t, err)
}
