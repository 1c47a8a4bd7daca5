package territory

import (
	"fmt"

	"cabgcompare/internal/models"
)

// DefaultTolerance absorbs integer labels stored as floats.
const DefaultTolerance = 1e-6

// Extractor selects the elements of a dataset whose field value lies in a
// closed range. Every range is widened by Tolerance on both sides, so
// ExtractRange(id, id) selects exactly the elements labelled id and
// ExtractRange(lo, hi) selects the integer labels lo..hi. This one
// convention is used for points and cells alike.
type Extractor struct {
	Tolerance float64
}

// NewExtractor returns an extractor with DefaultTolerance.
func NewExtractor() *Extractor {
	return &Extractor{Tolerance: DefaultTolerance}
}

func (e *Extractor) inRange(v, low, high float64) bool {
	return v >= low-e.Tolerance && v <= high+e.Tolerance
}

// ExtractRange returns the sub-dataset of elements at association a whose
// field value v satisfies low <= v <= high. The field must exist at that
// association. With PointData the result holds the matching points as
// vertex cells; with CellData it holds the matching cells and the points
// they use. No match yields an empty dataset, not an error.
func (e *Extractor) ExtractRange(ds *models.Dataset, fieldName string, low, high float64, a models.Association) (*models.Dataset, error) {
	if low > high {
		return nil, fmt.Errorf("extract %s: empty range [%v, %v]", fieldName, low, high)
	}
	field, err := ds.GetField(fieldName, a)
	if err != nil {
		return nil, err
	}
	return e.extract(ds, field, func(v float64) bool { return e.inRange(v, low, high) }), nil
}

// ExtractLabel selects the elements labelled id.
func (e *Extractor) ExtractLabel(ds *models.Dataset, fieldName string, id int, a models.Association) (*models.Dataset, error) {
	return e.ExtractRange(ds, fieldName, float64(id), float64(id), a)
}

// ExtractLabels selects, in one pass, the elements labelled with any of ids.
func (e *Extractor) ExtractLabels(ds *models.Dataset, fieldName string, ids []int, a models.Association) (*models.Dataset, error) {
	field, err := ds.GetField(fieldName, a)
	if err != nil {
		return nil, err
	}
	return e.extract(ds, field, func(v float64) bool { return e.matchesAny(v, ids) }), nil
}

func (e *Extractor) extract(ds *models.Dataset, field *models.Field, keep func(float64) bool) *models.Dataset {
	var ids []int
	for i, v := range field.Values {
		if keep(v) {
			ids = append(ids, i)
		}
	}
	if field.Association == models.CellData {
		return ds.Subset(ids)
	}
	return ds.PointSubset(ids)
}

// PointToCell adds a cell field named like the point field fieldName whose
// value for each cell is the mean of the cell's vertex values.
func PointToCell(ds *models.Dataset, fieldName string) (*models.Field, error) {
	pf, err := ds.GetField(fieldName, models.PointData)
	if err != nil {
		return nil, err
	}
	values := make([]float64, ds.NumCells())
	for i, c := range ds.Cells {
		if len(c.PointIDs) == 0 {
			continue
		}
		var sum float64
		for _, id := range c.PointIDs {
			sum += pf.Values[id]
		}
		values[i] = sum / float64(len(c.PointIDs))
	}
	return ds.AddField(fieldName, models.CellData, values)
}

// ExtractCellsByPointLabels selects the cells whose every vertex carries
// one of ids in the point field fieldName. Cells straddling two territories
// belong to neither.
func (e *Extractor) ExtractCellsByPointLabels(ds *models.Dataset, fieldName string, ids []int) (*models.Dataset, error) {
	pf, err := ds.GetField(fieldName, models.PointData)
	if err != nil {
		return nil, err
	}
	var keep []int
	for i, c := range ds.Cells {
		if len(c.PointIDs) == 0 {
			continue
		}
		all := true
		for _, p := range c.PointIDs {
			if !e.matchesAny(pf.Values[p], ids) {
				all = false
				break
			}
		}
		if all {
			keep = append(keep, i)
		}
	}
	return ds.Subset(keep), nil
}

func (e *Extractor) matchesAny(v float64, ids []int) bool {
	for _, id := range ids {
		if e.inRange(v, float64(id), float64(id)) {
			return true
		}
	}
	return false
}
