// Package models holds the geometric datasets shared by every stage of the
// comparison pipeline: volumetric MBF maps and the cardiac surface meshes.
package models

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// ErrMissingField is returned (wrapped in a *MissingFieldError) when a named
// scalar array is absent at the association a consumer expects.
var ErrMissingField = errors.New("missing field")

// Association tells whether a field carries one value per point or per cell.
type Association int

const (
	PointData Association = iota
	CellData
)

func (a Association) String() string {
	switch a {
	case PointData:
		return "point"
	case CellData:
		return "cell"
	default:
		return fmt.Sprintf("Association(%d)", int(a))
	}
}

// Kind distinguishes unstructured volumes from polygonal surfaces. It only
// matters to the file layer, which writes .vtu or .vtp accordingly.
type Kind int

const (
	UnstructuredGrid Kind = iota
	PolyData
)

// CellType uses the VTK cell type codes so cells round-trip through files.
type CellType uint8

const (
	Vertex        CellType = 1
	PolyVertex    CellType = 2
	Line          CellType = 3
	PolyLine      CellType = 4
	Triangle      CellType = 5
	TriangleStrip CellType = 6
	Polygon       CellType = 7
	Pixel         CellType = 8
	Quad          CellType = 9
	Tetra         CellType = 10
	Voxel         CellType = 11
	Hexahedron    CellType = 12
	Wedge         CellType = 13
	Pyramid       CellType = 14
)

// Cell is an ordered list of point indices.
type Cell struct {
	Type     CellType
	PointIDs []int
}

// Field is a named scalar array attached to a dataset. A *Field obtained from
// GetField is the typed handle passed between pipeline stages.
type Field struct {
	Name        string
	Association Association
	Values      []float64
}

// Len returns the number of values in the field.
func (f *Field) Len() int { return len(f.Values) }

// MissingFieldError names the array that could not be found.
type MissingFieldError struct {
	Name        string
	Association Association
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("missing %s field %q", e.Association, e.Name)
}

func (e *MissingFieldError) Unwrap() error { return ErrMissingField }

// Dataset is an unstructured collection of cells over a shared point set,
// with named scalar fields on points and cells. Surfaces and volumes are
// both represented by it; they never share point indices, so any
// correspondence between them is geometric.
type Dataset struct {
	Kind   Kind
	Points []r3.Vec
	Cells  []Cell

	pointFields []*Field
	cellFields  []*Field
}

// NewDataset creates a dataset over the given points and cells.
func NewDataset(kind Kind, points []r3.Vec, cells []Cell) *Dataset {
	return &Dataset{Kind: kind, Points: points, Cells: cells}
}

// NumPoints returns the number of points.
func (d *Dataset) NumPoints() int { return len(d.Points) }

// NumCells returns the number of cells.
func (d *Dataset) NumCells() int { return len(d.Cells) }

// NumElements returns the number of points or cells depending on a.
func (d *Dataset) NumElements(a Association) int {
	if a == CellData {
		return len(d.Cells)
	}
	return len(d.Points)
}

// Fields returns the fields at association a in insertion order.
func (d *Dataset) Fields(a Association) []*Field {
	if a == CellData {
		return d.cellFields
	}
	return d.pointFields
}

// AddField attaches a new array. An existing array with the same name and
// association is replaced; every other field is left untouched.
func (d *Dataset) AddField(name string, a Association, values []float64) (*Field, error) {
	if n := d.NumElements(a); len(values) != n {
		return nil, fmt.Errorf("field %q has %d values, dataset has %d %s elements", name, len(values), n, a)
	}
	f := &Field{Name: name, Association: a, Values: values}
	list := d.fieldList(a)
	for i, existing := range *list {
		if existing.Name == name {
			(*list)[i] = f
			return f, nil
		}
	}
	*list = append(*list, f)
	return f, nil
}

// GetField looks up a field by name at the expected association.
func (d *Dataset) GetField(name string, a Association) (*Field, error) {
	for _, f := range d.Fields(a) {
		if f.Name == name {
			return f, nil
		}
	}
	return nil, &MissingFieldError{Name: name, Association: a}
}

// FindField looks up a field at either association, points first.
func (d *Dataset) FindField(name string) (*Field, error) {
	if f, err := d.GetField(name, PointData); err == nil {
		return f, nil
	}
	if f, err := d.GetField(name, CellData); err == nil {
		return f, nil
	}
	return nil, &MissingFieldError{Name: name, Association: PointData}
}

func (d *Dataset) fieldList(a Association) *[]*Field {
	if a == CellData {
		return &d.cellFields
	}
	return &d.pointFields
}

// CellBounds returns the axis-aligned bounding box of cell i.
func (d *Dataset) CellBounds(i int) r3.Box {
	return boundsOf(d.Points, d.Cells[i].PointIDs)
}

// CellCentroid returns the mean of the cell's vertices.
func (d *Dataset) CellCentroid(i int) r3.Vec {
	var sum r3.Vec
	ids := d.Cells[i].PointIDs
	if len(ids) == 0 {
		return sum
	}
	for _, id := range ids {
		sum = r3.Add(sum, d.Points[id])
	}
	return r3.Scale(1/float64(len(ids)), sum)
}

// Bounds returns the bounding box of every point.
func (d *Dataset) Bounds() r3.Box {
	ids := make([]int, len(d.Points))
	for i := range ids {
		ids[i] = i
	}
	return boundsOf(d.Points, ids)
}

func boundsOf(points []r3.Vec, ids []int) r3.Box {
	if len(ids) == 0 {
		return r3.Box{}
	}
	b := r3.Box{
		Min: r3.Vec{X: math.Inf(1), Y: math.Inf(1), Z: math.Inf(1)},
		Max: r3.Vec{X: math.Inf(-1), Y: math.Inf(-1), Z: math.Inf(-1)},
	}
	for _, id := range ids {
		p := points[id]
		b.Min.X = math.Min(b.Min.X, p.X)
		b.Min.Y = math.Min(b.Min.Y, p.Y)
		b.Min.Z = math.Min(b.Min.Z, p.Z)
		b.Max.X = math.Max(b.Max.X, p.X)
		b.Max.Y = math.Max(b.Max.Y, p.Y)
		b.Max.Z = math.Max(b.Max.Z, p.Z)
	}
	return b
}

// Subset builds a new dataset from the given cells. Referenced points are
// compacted in first-use order and every point and cell field is carried
// over for the retained elements.
func (d *Dataset) Subset(cellIDs []int) *Dataset {
	remap := make(map[int]int)
	var pointIDs []int
	cells := make([]Cell, len(cellIDs))
	for i, cid := range cellIDs {
		src := d.Cells[cid]
		ids := make([]int, len(src.PointIDs))
		for j, pid := range src.PointIDs {
			n, ok := remap[pid]
			if !ok {
				n = len(pointIDs)
				remap[pid] = n
				pointIDs = append(pointIDs, pid)
			}
			ids[j] = n
		}
		cells[i] = Cell{Type: src.Type, PointIDs: ids}
	}
	points := make([]r3.Vec, len(pointIDs))
	for i, pid := range pointIDs {
		points[i] = d.Points[pid]
	}

	out := NewDataset(d.Kind, points, cells)
	for _, f := range d.pointFields {
		out.pointFields = append(out.pointFields, &Field{Name: f.Name, Association: PointData, Values: gather(f.Values, pointIDs)})
	}
	for _, f := range d.cellFields {
		out.cellFields = append(out.cellFields, &Field{Name: f.Name, Association: CellData, Values: gather(f.Values, cellIDs)})
	}
	return out
}

// PointSubset builds a dataset holding only the given points, each wrapped
// in a vertex cell. Point fields are carried over; cell fields are dropped.
func (d *Dataset) PointSubset(pointIDs []int) *Dataset {
	points := make([]r3.Vec, len(pointIDs))
	cells := make([]Cell, len(pointIDs))
	for i, pid := range pointIDs {
		points[i] = d.Points[pid]
		cells[i] = Cell{Type: Vertex, PointIDs: []int{i}}
	}
	out := NewDataset(d.Kind, points, cells)
	for _, f := range d.pointFields {
		out.pointFields = append(out.pointFields, &Field{Name: f.Name, Association: PointData, Values: gather(f.Values, pointIDs)})
	}
	return out
}

func gather(values []float64, ids []int) []float64 {
	out := make([]float64, len(ids))
	for i, id := range ids {
		out[i] = values[id]
	}
	return out
}
