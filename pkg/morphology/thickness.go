package morphology

import (
	"fmt"
	"math"

	"github.com/unixpickle/model3d/model3d"

	"cabgcompare/internal/models"
	"cabgcompare/pkg/spatial"
)

// DistanceField is the name of the wall thickness array.
const DistanceField = "Distance"

// WallThickness measures the unsigned distance from every point of an
// epicardial surface to the endocardial surface.
type WallThickness struct {
	// Clean triangulates and welds both surfaces first.
	Clean   bool
	Epsilon float64
	Field   string
}

// NewWallThickness returns a computer that cleans surfaces with a tight
// weld tolerance and writes DistanceField.
func NewWallThickness() *WallThickness {
	return &WallThickness{Clean: true, Epsilon: 1e-8, Field: DistanceField}
}

// Compute returns the query surface carrying the distance field. When
// cleaning is enabled the returned surface is the welded triangulation of
// epicardium, with every epicardium point field carried over from the
// nearest source vertex; otherwise epicardium itself is augmented in place.
func (w *WallThickness) Compute(endocardium, epicardium *models.Dataset) (*models.Dataset, *models.Field, error) {
	ref, err := Prepare(endocardium, w.Clean, w.Epsilon)
	if err != nil {
		return nil, nil, fmt.Errorf("endocardium: %w", err)
	}
	if len(ref.TriangleSlice()) == 0 {
		return nil, nil, fmt.Errorf("endocardium: %w", ErrEmptySurface)
	}

	query := epicardium
	if w.Clean {
		m, err := Prepare(epicardium, true, w.Epsilon)
		if err != nil {
			return nil, nil, fmt.Errorf("epicardium: %w", err)
		}
		query = ToDataset(m)
		if err := CarryPointFields(epicardium, query); err != nil {
			return nil, nil, fmt.Errorf("epicardium: %w", err)
		}
	}

	sdf := model3d.MeshToSDF(ref)
	dist := make([]float64, query.NumPoints())
	for i, p := range query.Points {
		dist[i] = math.Abs(sdf.SDF(model3d.Coord3D{X: p.X, Y: p.Y, Z: p.Z}))
	}
	f, err := query.AddField(w.Field, models.PointData, dist)
	if err != nil {
		return nil, nil, err
	}
	return query, f, nil
}

// CarryPointFields copies every point field of src onto dst, taking each
// dst point's value from the nearest src point. Welding only moves points
// by the weld tolerance, so the nearest source is one of the merged ones.
func CarryPointFields(src, dst *models.Dataset) error {
	fields := src.Fields(models.PointData)
	if len(fields) == 0 || dst.NumPoints() == 0 {
		return nil
	}
	ix, err := spatial.NewIndex(src.Points)
	if err != nil {
		return err
	}
	nearest := make([]int, dst.NumPoints())
	for i, p := range dst.Points {
		nearest[i], _ = ix.FindNearest(p)
	}
	for _, f := range fields {
		values := make([]float64, len(nearest))
		for i, id := range nearest {
			values[i] = f.Values[id]
		}
		if _, err := dst.AddField(f.Name, models.PointData, values); err != nil {
			return err
		}
	}
	return nil
}
