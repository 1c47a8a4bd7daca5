package meshio

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strconv"

	"gonum.org/v1/gonum/spatial/r3"

	"cabgcompare/internal/models"
)

type vtkFile struct {
	XMLName    xml.Name    `xml:"VTKFile"`
	Type       string      `xml:"type,attr"`
	Version    string      `xml:"version,attr"`
	ByteOrder  string      `xml:"byte_order,attr"`
	HeaderType string      `xml:"header_type,attr,omitempty"`
	Compressor string      `xml:"compressor,attr,omitempty"`
	Grid       *vtkDataSet `xml:"UnstructuredGrid,omitempty"`
	Poly       *vtkDataSet `xml:"PolyData,omitempty"`
}

type vtkDataSet struct {
	Pieces []vtkPiece `xml:"Piece"`
}

type vtkPiece struct {
	NumberOfPoints int        `xml:"NumberOfPoints,attr"`
	NumberOfCells  int        `xml:"NumberOfCells,attr,omitempty"`
	NumberOfVerts  int        `xml:"NumberOfVerts,attr,omitempty"`
	NumberOfLines  int        `xml:"NumberOfLines,attr,omitempty"`
	NumberOfStrips int        `xml:"NumberOfStrips,attr,omitempty"`
	NumberOfPolys  int        `xml:"NumberOfPolys,attr,omitempty"`
	PointData      *vtkArrays `xml:"PointData,omitempty"`
	CellData       *vtkArrays `xml:"CellData,omitempty"`
	Points         *vtkArrays `xml:"Points,omitempty"`
	Cells          *vtkArrays `xml:"Cells,omitempty"`
	Verts          *vtkArrays `xml:"Verts,omitempty"`
	Lines          *vtkArrays `xml:"Lines,omitempty"`
	Strips         *vtkArrays `xml:"Strips,omitempty"`
	Polys          *vtkArrays `xml:"Polys,omitempty"`
}

type vtkArrays struct {
	Arrays []vtkDataArray `xml:"DataArray"`
}

type vtkDataArray struct {
	Type               string `xml:"type,attr"`
	Name               string `xml:"Name,attr,omitempty"`
	NumberOfComponents int    `xml:"NumberOfComponents,attr,omitempty"`
	Format             string `xml:"format,attr"`
	Offset             string `xml:"offset,attr,omitempty"`
	Text               string `xml:",chardata"`
}

func (a *vtkArrays) named(name string) *vtkDataArray {
	if a == nil {
		return nil
	}
	for i := range a.Arrays {
		if a.Arrays[i].Name == name {
			return &a.Arrays[i]
		}
	}
	return nil
}

// appended is the raw or base64 payload of an <AppendedData> section.
type appended struct {
	data   []byte
	base64 bool
}

// splitAppended separates the <AppendedData> payload, which need not be
// valid XML, from the document so the rest can go through encoding/xml.
func splitAppended(doc []byte) ([]byte, *appended, error) {
	start := bytes.Index(doc, []byte("<AppendedData"))
	if start < 0 {
		return doc, nil, nil
	}
	tagEnd := bytes.IndexByte(doc[start:], '>')
	if tagEnd < 0 {
		return nil, nil, fmt.Errorf("unterminated AppendedData tag")
	}
	tag := doc[start : start+tagEnd+1]
	body := doc[start+tagEnd+1:]
	us := bytes.IndexByte(body, '_')
	if us < 0 {
		return nil, nil, fmt.Errorf("AppendedData without '_' marker")
	}
	body = body[us+1:]
	if end := bytes.LastIndex(body, []byte("</AppendedData>")); end >= 0 {
		body = body[:end]
	}

	app := &appended{data: body, base64: bytes.Contains(tag, []byte(`encoding="base64"`))}
	if app.base64 {
		app.data = bytes.TrimSpace(body)
	}
	head := append(append([]byte(nil), doc[:start]...), []byte("</VTKFile>")...)
	return head, app, nil
}

type vtkReader struct {
	codec    codec
	appended *appended
}

func (r *vtkReader) values(a *vtkDataArray) ([]float64, error) {
	switch a.Format {
	case "ascii":
		return parseASCII(a.Text)
	case "binary":
		raw, err := r.codec.readBase64([]byte(a.Text))
		if err != nil {
			return nil, err
		}
		return toFloat64(raw, a.Type, r.codec.order)
	case "appended":
		if r.appended == nil {
			return nil, fmt.Errorf("array %q refers to missing AppendedData", a.Name)
		}
		off, err := strconv.Atoi(a.Offset)
		if err != nil || off < 0 || off > len(r.appended.data) {
			return nil, fmt.Errorf("array %q: bad offset %q", a.Name, a.Offset)
		}
		var raw []byte
		if r.appended.base64 {
			raw, err = r.codec.readBase64(r.appended.data[off:])
		} else {
			raw, err = r.codec.readRaw(r.appended.data[off:])
		}
		if err != nil {
			return nil, err
		}
		return toFloat64(raw, a.Type, r.codec.order)
	}
	return nil, fmt.Errorf("%w: array format %q", ErrUnsupportedFormat, a.Format)
}

func (r *vtkReader) ints(a *vtkDataArray) ([]int, error) {
	v, err := r.values(a)
	if err != nil {
		return nil, err
	}
	out := make([]int, len(v))
	for i, x := range v {
		out[i] = int(x)
	}
	return out, nil
}

// ReadVTK decodes a VTK XML UnstructuredGrid or PolyData document. Only
// single-component point and cell arrays become fields; vector arrays are
// skipped. Multiple pieces are concatenated.
func ReadVTK(rd io.Reader) (*models.Dataset, error) {
	doc, err := io.ReadAll(rd)
	if err != nil {
		return nil, err
	}
	head, app, err := splitAppended(doc)
	if err != nil {
		return nil, err
	}
	var f vtkFile
	if err := xml.Unmarshal(head, &f); err != nil {
		return nil, fmt.Errorf("parsing VTK XML: %w", err)
	}
	c, err := newCodec(f.ByteOrder, f.HeaderType, f.Compressor)
	if err != nil {
		return nil, err
	}
	r := &vtkReader{codec: c, appended: app}

	var set *vtkDataSet
	var kind models.Kind
	switch {
	case f.Type == "UnstructuredGrid" && f.Grid != nil:
		set, kind = f.Grid, models.UnstructuredGrid
	case f.Type == "PolyData" && f.Poly != nil:
		set, kind = f.Poly, models.PolyData
	default:
		return nil, fmt.Errorf("%w: VTK type %q", ErrUnsupportedFormat, f.Type)
	}

	ds := models.NewDataset(kind, nil, nil)
	pointFields := newFieldAccumulator()
	cellFields := newFieldAccumulator()
	for i := range set.Pieces {
		p := &set.Pieces[i]
		base := len(ds.Points)
		points, err := r.readPoints(p)
		if err != nil {
			return nil, fmt.Errorf("piece %d points: %w", i, err)
		}
		ds.Points = append(ds.Points, points...)

		var cells []models.Cell
		if kind == models.UnstructuredGrid {
			cells, err = r.readGridCells(p)
		} else {
			cells, err = r.readPolyCells(p)
		}
		if err != nil {
			return nil, fmt.Errorf("piece %d cells: %w", i, err)
		}
		for j := range cells {
			for k := range cells[j].PointIDs {
				id := cells[j].PointIDs[k]
				if id < 0 || id >= len(points) {
					return nil, fmt.Errorf("piece %d cell %d: point id %d out of range", i, j, id)
				}
				cells[j].PointIDs[k] = id + base
			}
		}
		ds.Cells = append(ds.Cells, cells...)

		if err := pointFields.add(r, p.PointData, len(points), i); err != nil {
			return nil, err
		}
		if err := cellFields.add(r, p.CellData, len(cells), i); err != nil {
			return nil, err
		}
	}

	for _, acc := range []struct {
		a   models.Association
		fld *fieldAccumulator
	}{{models.PointData, pointFields}, {models.CellData, cellFields}} {
		for _, name := range acc.fld.order {
			if _, err := ds.AddField(name, acc.a, acc.fld.values[name]); err != nil {
				return nil, err
			}
		}
	}
	return ds, nil
}

type fieldAccumulator struct {
	order  []string
	values map[string][]float64
}

func newFieldAccumulator() *fieldAccumulator {
	return &fieldAccumulator{values: make(map[string][]float64)}
}

func (fa *fieldAccumulator) add(r *vtkReader, arrays *vtkArrays, n, piece int) error {
	if arrays == nil {
		return nil
	}
	for i := range arrays.Arrays {
		a := &arrays.Arrays[i]
		if a.NumberOfComponents > 1 || a.Name == "" {
			continue
		}
		v, err := r.values(a)
		if err != nil {
			return fmt.Errorf("array %q: %w", a.Name, err)
		}
		if len(v) != n {
			return fmt.Errorf("array %q has %d values, piece %d has %d elements", a.Name, len(v), piece, n)
		}
		if _, ok := fa.values[a.Name]; !ok {
			fa.order = append(fa.order, a.Name)
		}
		fa.values[a.Name] = append(fa.values[a.Name], v...)
	}
	return nil
}

func (r *vtkReader) readPoints(p *vtkPiece) ([]r3.Vec, error) {
	if p.NumberOfPoints == 0 {
		return nil, nil
	}
	if p.Points == nil || len(p.Points.Arrays) == 0 {
		return nil, fmt.Errorf("missing Points array")
	}
	v, err := r.values(&p.Points.Arrays[0])
	if err != nil {
		return nil, err
	}
	if len(v) != 3*p.NumberOfPoints {
		return nil, fmt.Errorf("got %d coordinates for %d points", len(v), p.NumberOfPoints)
	}
	points := make([]r3.Vec, p.NumberOfPoints)
	for i := range points {
		points[i] = r3.Vec{X: v[3*i], Y: v[3*i+1], Z: v[3*i+2]}
	}
	return points, nil
}

// connectivity returns the per-cell point lists of a Cells/Verts/... section.
func (r *vtkReader) connectivity(a *vtkArrays, n int) ([][]int, error) {
	if n == 0 {
		return nil, nil
	}
	conn := a.named("connectivity")
	offs := a.named("offsets")
	if conn == nil || offs == nil {
		return nil, fmt.Errorf("missing connectivity or offsets")
	}
	ids, err := r.ints(conn)
	if err != nil {
		return nil, err
	}
	offsets, err := r.ints(offs)
	if err != nil {
		return nil, err
	}
	// newer writers prepend a leading zero
	if len(offsets) == n+1 && offsets[0] == 0 {
		offsets = offsets[1:]
	}
	if len(offsets) != n {
		return nil, fmt.Errorf("got %d offsets for %d cells", len(offsets), n)
	}
	out := make([][]int, n)
	prev := 0
	for i, end := range offsets {
		if end < prev || end > len(ids) {
			return nil, fmt.Errorf("bad offset %d for cell %d", end, i)
		}
		out[i] = append([]int(nil), ids[prev:end]...)
		prev = end
	}
	return out, nil
}

func (r *vtkReader) readGridCells(p *vtkPiece) ([]models.Cell, error) {
	if p.NumberOfCells == 0 {
		return nil, nil
	}
	if p.Cells == nil {
		return nil, fmt.Errorf("missing Cells section")
	}
	lists, err := r.connectivity(p.Cells, p.NumberOfCells)
	if err != nil {
		return nil, err
	}
	ta := p.Cells.named("types")
	if ta == nil {
		return nil, fmt.Errorf("missing cell types")
	}
	types, err := r.ints(ta)
	if err != nil {
		return nil, err
	}
	if len(types) != len(lists) {
		return nil, fmt.Errorf("got %d types for %d cells", len(types), len(lists))
	}
	cells := make([]models.Cell, len(lists))
	for i := range lists {
		cells[i] = models.Cell{Type: models.CellType(types[i]), PointIDs: lists[i]}
	}
	return cells, nil
}

// readPolyCells returns cells in VTK PolyData order: verts, lines, polys, strips.
func (r *vtkReader) readPolyCells(p *vtkPiece) ([]models.Cell, error) {
	var cells []models.Cell
	sections := []struct {
		arrays *vtkArrays
		n      int
		typeOf func(int) models.CellType
	}{
		{p.Verts, p.NumberOfVerts, func(n int) models.CellType { return pick(n == 1, models.Vertex, models.PolyVertex) }},
		{p.Lines, p.NumberOfLines, func(n int) models.CellType { return pick(n == 2, models.Line, models.PolyLine) }},
		{p.Polys, p.NumberOfPolys, polyType},
		{p.Strips, p.NumberOfStrips, func(int) models.CellType { return models.TriangleStrip }},
	}
	for _, s := range sections {
		if s.n == 0 {
			continue
		}
		if s.arrays == nil {
			return nil, fmt.Errorf("missing section for %d cells", s.n)
		}
		lists, err := r.connectivity(s.arrays, s.n)
		if err != nil {
			return nil, err
		}
		for _, ids := range lists {
			cells = append(cells, models.Cell{Type: s.typeOf(len(ids)), PointIDs: ids})
		}
	}
	return cells, nil
}

func polyType(n int) models.CellType {
	switch n {
	case 3:
		return models.Triangle
	case 4:
		return models.Quad
	}
	return models.Polygon
}

func pick(cond bool, a, b models.CellType) models.CellType {
	if cond {
		return a
	}
	return b
}
