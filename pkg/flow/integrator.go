// Package flow converts myocardial blood flow densities into physical flow
// by integrating them over the cells of a territory.
package flow

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/spatial/r3"

	"cabgcompare/internal/models"
	"cabgcompare/pkg/config"
)

// Result holds the integrated flow of one dataset.
type Result struct {
	// TotalFlow is in mL/min.
	TotalFlow float64
	// CellFlow is the contribution of each cell, in mL/min.
	CellFlow []float64
	// Densities is the MBF value used for each cell.
	Densities []float64
	CellCount int
	// TotalVolume is in mL.
	TotalVolume float64
	// AverageCellVolume is in cubic input units (mm³ or cm³).
	AverageCellVolume float64
}

// HasData reports whether any cell contributed.
func (r *Result) HasData() bool { return r.CellCount > 0 }

// AverageFlow returns TotalFlow/CellCount, false when there are no cells.
func (r *Result) AverageFlow() (float64, bool) {
	if r.CellCount == 0 {
		return 0, false
	}
	return r.TotalFlow / float64(r.CellCount), true
}

// Integrator computes flow = density * cell volume * tissue density, scaled
// from cubic input units and per-100 g densities to mL/min.
//
// Cell volume is the product of the cell's bounding box extents. That is
// exact for axis-aligned voxels, which is what MBF maps resampled from
// images contain, and only an approximation for any other cell shape.
type Integrator struct {
	constants   config.PhysicalConstants
	flowScale   float64
	volumeScale float64
}

// NewIntegrator validates the constants and returns an integrator.
func NewIntegrator(c config.PhysicalConstants) (*Integrator, error) {
	in := &Integrator{constants: c}
	switch c.Unit {
	case config.Millimetre:
		in.flowScale = 1.0 / 1000 / 100
		in.volumeScale = 1.0 / 1000
	case config.Centimetre:
		in.flowScale = 1.0 / 100
		in.volumeScale = 1
	default:
		return nil, fmt.Errorf("unknown unit %q", c.Unit)
	}
	if c.TissueDensity <= 0 {
		return nil, fmt.Errorf("tissue density must be positive, got %v", c.TissueDensity)
	}
	return in, nil
}

// Constants returns the constants the integrator was built with.
func (in *Integrator) Constants() config.PhysicalConstants { return in.constants }

// CellVolume returns the bounding box volume |dx|*|dy|*|dz|.
func CellVolume(b r3.Box) float64 {
	return math.Abs(b.Max.X-b.Min.X) * math.Abs(b.Max.Y-b.Min.Y) * math.Abs(b.Max.Z-b.Min.Z)
}

// IntegrateFlow integrates the density field fieldName over every cell of
// ds. A cell field is used directly; a point field contributes the mean of
// each cell's vertex values. An empty dataset gives a zero Result.
func (in *Integrator) IntegrateFlow(ds *models.Dataset, fieldName string) (*Result, error) {
	densities, err := cellDensities(ds, fieldName)
	if err != nil {
		return nil, err
	}

	n := ds.NumCells()
	res := &Result{
		CellFlow:  make([]float64, n),
		Densities: densities,
		CellCount: n,
	}
	var rawVolume float64
	for i := 0; i < n; i++ {
		v := CellVolume(ds.CellBounds(i))
		rawVolume += v
		res.CellFlow[i] = densities[i] * v * in.constants.TissueDensity * in.flowScale
	}
	res.TotalFlow = floats.Sum(res.CellFlow)
	res.TotalVolume = rawVolume * in.volumeScale
	if n > 0 {
		res.AverageCellVolume = rawVolume / float64(n)
	}
	return res, nil
}

func cellDensities(ds *models.Dataset, fieldName string) ([]float64, error) {
	if f, err := ds.GetField(fieldName, models.CellData); err == nil {
		return f.Values, nil
	}
	pf, err := ds.GetField(fieldName, models.PointData)
	if err != nil {
		return nil, &models.MissingFieldError{Name: fieldName, Association: models.CellData}
	}
	out := make([]float64, ds.NumCells())
	for i, c := range ds.Cells {
		if len(c.PointIDs) == 0 {
			continue
		}
		var sum float64
		for _, id := range c.PointIDs {
			sum += pf.Values[id]
		}
		out[i] = sum / float64(len(c.PointIDs))
	}
	return out, nil
}
