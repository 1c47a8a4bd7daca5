package morphology

import (
	"errors"
	"math"

	"cabgcompare/internal/models"
)

// ErrEmptySurface is returned when a surface has no triangles to measure.
var ErrEmptySurface = errors.New("surface has no triangles")

// MassProperties are the integral measures of a triangulated surface.
type MassProperties struct {
	// Volume enclosed by the surface; meaningful only for closed surfaces.
	Volume float64
	Area   float64
}

// ComputeMassProperties triangulates ds (welding it when clean is set) and
// returns its enclosed volume and total area in input units.
func ComputeMassProperties(ds *models.Dataset, clean bool, epsilon float64) (MassProperties, error) {
	m, err := Prepare(ds, clean, epsilon)
	if err != nil {
		return MassProperties{}, err
	}
	if len(m.TriangleSlice()) == 0 {
		return MassProperties{}, ErrEmptySurface
	}
	return MassProperties{
		Volume: math.Abs(m.Volume()),
		Area:   m.Area(),
	}, nil
}
