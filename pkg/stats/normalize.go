package stats

import (
	"fmt"

	"gonum.org/v1/gonum/floats"

	"cabgcompare/internal/models"
)

// IndexField is the name of the normalized MBF array.
const IndexField = "IndexMBF"

// Normalizer divides a field by one of its own percentiles.
type Normalizer struct {
	// Percentile is the reference percentile, 75 by default.
	Percentile float64
	// Output is the name of the written field, IndexField by default.
	Output string
}

// NewNormalizer returns the 75th-percentile normalizer writing IndexMBF.
func NewNormalizer() *Normalizer {
	return &Normalizer{Percentile: 75, Output: IndexField}
}

// Normalize writes field/P(field) into a new field on ds at the same
// association as the source and returns the reference percentile together
// with the new field. ds is modified in place.
func (n *Normalizer) Normalize(ds *models.Dataset, field *models.Field) (float64, *models.Field, error) {
	ref, err := Percentile(field.Values, n.Percentile)
	if err != nil {
		return 0, nil, fmt.Errorf("normalize %s: %w", field.Name, err)
	}
	if ref == 0 {
		return 0, nil, fmt.Errorf("normalize %s: %vth percentile is zero: %w", field.Name, n.Percentile, ErrDegenerate)
	}
	scaled := append([]float64(nil), field.Values...)
	floats.Scale(1/ref, scaled)
	out, err := ds.AddField(n.Output, field.Association, scaled)
	if err != nil {
		return 0, nil, err
	}
	return ref, out, nil
}

// NormalizeByName looks up name on ds (point data first) and normalizes it.
func (n *Normalizer) NormalizeByName(ds *models.Dataset, name string) (float64, *models.Field, error) {
	field, err := ds.FindField(name)
	if err != nil {
		return 0, nil, err
	}
	return n.Normalize(ds, field)
}
