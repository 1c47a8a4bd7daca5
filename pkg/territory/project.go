package territory

import (
	"fmt"

	"gonum.org/v1/gonum/spatial/r3"

	"cabgcompare/internal/models"
	"cabgcompare/pkg/spatial"
)

// DefaultField is the name of the territory label array.
const DefaultField = "TerritoryMaps"

// Projector copies a volumetric field onto the points of a surface by
// nearest-neighbour lookup.
type Projector struct {
	// Field is read from the volume and written to the surface under the same name.
	Field string
}

// NewProjector returns a projector for the TerritoryMaps field.
func NewProjector() *Projector {
	return &Projector{Field: DefaultField}
}

// Project adds Field to the point data of surface. Each surface point takes
// the value of the closest volume sample: the volume points when the field
// is point data, otherwise the cell centroids. Lookups go through a k-d tree
// so the cost is O(P_surface log P_volume).
func (p *Projector) Project(surface, volume *models.Dataset) (*models.Field, error) {
	src, samples, err := p.samples(volume)
	if err != nil {
		return nil, err
	}
	ix, err := spatial.NewIndex(samples)
	if err != nil {
		return nil, fmt.Errorf("project %s: %w", p.Field, err)
	}
	out := make([]float64, surface.NumPoints())
	for i, pt := range surface.Points {
		id, _ := ix.FindNearest(pt)
		out[i] = src.Values[id]
	}
	return surface.AddField(p.Field, models.PointData, out)
}

func (p *Projector) samples(volume *models.Dataset) (*models.Field, []r3.Vec, error) {
	if f, err := volume.GetField(p.Field, models.PointData); err == nil {
		return f, volume.Points, nil
	}
	f, err := volume.GetField(p.Field, models.CellData)
	if err != nil {
		return nil, nil, &models.MissingFieldError{Name: p.Field, Association: models.PointData}
	}
	centroids := make([]r3.Vec, volume.NumCells())
	for i := range centroids {
		centroids[i] = volume.CellCentroid(i)
	}
	return f, centroids, nil
}
