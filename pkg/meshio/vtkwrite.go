package meshio

import (
	"encoding/xml"
	"fmt"
	"io"
	"strconv"
	"strings"

	"cabgcompare/internal/models"
)

// Encoding selects how arrays are stored in written VTK files.
type Encoding int

const (
	// ASCII writes every value in shortest round-trip decimal form.
	ASCII Encoding = iota
	// Binary writes inline base64 arrays with UInt64 headers.
	Binary
)

// Options control VTK output. A nil *Options writes ASCII.
type Options struct {
	Encoding Encoding
	// Compress zlib-compresses binary arrays.
	Compress bool
}

type vtkWriter struct {
	opts Options
}

func (w *vtkWriter) array(name, typ string, ncomp int, values []float64) (vtkDataArray, error) {
	a := vtkDataArray{Type: typ, Name: name}
	if ncomp > 1 {
		a.NumberOfComponents = ncomp
	}
	if w.opts.Encoding == ASCII {
		a.Format = "ascii"
		var b strings.Builder
		for i, v := range values {
			if i > 0 {
				b.WriteByte(' ')
			}
			b.WriteString(strconv.FormatFloat(v, 'g', -1, 64))
		}
		a.Text = b.String()
		return a, nil
	}
	a.Format = "binary"
	text, err := encodeBase64(fromFloat64(values, typ), w.opts.Compress)
	if err != nil {
		return a, err
	}
	a.Text = text
	return a, nil
}

func (w *vtkWriter) fields(fields []*models.Field, order []int) (*vtkArrays, error) {
	out := &vtkArrays{}
	for _, f := range fields {
		values := f.Values
		if order != nil {
			values = make([]float64, len(order))
			for i, src := range order {
				values[i] = f.Values[src]
			}
		}
		a, err := w.array(f.Name, "Float64", 1, values)
		if err != nil {
			return nil, err
		}
		out.Arrays = append(out.Arrays, a)
	}
	return out, nil
}

func (w *vtkWriter) topology(cells []models.Cell, withTypes bool) (*vtkArrays, error) {
	var conn, offs, types []float64
	for _, c := range cells {
		ids := c.PointIDs
		if c.Type == models.Pixel && !withTypes {
			ids = []int{ids[0], ids[1], ids[3], ids[2]}
		}
		for _, id := range ids {
			conn = append(conn, float64(id))
		}
		offs = append(offs, float64(len(conn)))
		types = append(types, float64(c.Type))
	}
	out := &vtkArrays{}
	for _, spec := range []struct {
		name, typ string
		values    []float64
	}{
		{"connectivity", "Int64", conn},
		{"offsets", "Int64", offs},
		{"types", "UInt8", types},
	} {
		if spec.name == "types" && !withTypes {
			continue
		}
		a, err := w.array(spec.name, spec.typ, 1, spec.values)
		if err != nil {
			return nil, err
		}
		out.Arrays = append(out.Arrays, a)
	}
	return out, nil
}

// WriteVTK encodes ds as a VTK XML document of the given kind. PolyData
// output stores cells grouped as verts, lines, polys, strips, and cell
// fields are permuted to match; 3-D cells cannot be written as PolyData.
func WriteVTK(out io.Writer, ds *models.Dataset, kind models.Kind, opts *Options) error {
	w := &vtkWriter{}
	if opts != nil {
		w.opts = *opts
	}

	f := vtkFile{Version: "1.0", ByteOrder: "LittleEndian", HeaderType: "UInt64"}
	if w.opts.Encoding == Binary && w.opts.Compress {
		f.Compressor = "vtkZLibDataCompressor"
	}

	coords := make([]float64, 0, 3*len(ds.Points))
	for _, p := range ds.Points {
		coords = append(coords, p.X, p.Y, p.Z)
	}
	pts, err := w.array("Points", "Float64", 3, coords)
	if err != nil {
		return err
	}
	piece := vtkPiece{NumberOfPoints: ds.NumPoints(), Points: &vtkArrays{Arrays: []vtkDataArray{pts}}}
	if piece.PointData, err = w.fields(ds.Fields(models.PointData), nil); err != nil {
		return err
	}

	switch kind {
	case models.UnstructuredGrid:
		f.Type = "UnstructuredGrid"
		piece.NumberOfCells = ds.NumCells()
		if piece.Cells, err = w.topology(ds.Cells, true); err != nil {
			return err
		}
		if piece.CellData, err = w.fields(ds.Fields(models.CellData), nil); err != nil {
			return err
		}
		f.Grid = &vtkDataSet{Pieces: []vtkPiece{piece}}
	case models.PolyData:
		f.Type = "PolyData"
		var groups [4][]int
		for i, c := range ds.Cells {
			g, err := polySection(c.Type)
			if err != nil {
				return fmt.Errorf("cell %d: %w", i, err)
			}
			groups[g] = append(groups[g], i)
		}
		var order []int
		sections := []**vtkArrays{&piece.Verts, &piece.Lines, &piece.Polys, &piece.Strips}
		counts := []*int{&piece.NumberOfVerts, &piece.NumberOfLines, &piece.NumberOfPolys, &piece.NumberOfStrips}
		for g, ids := range groups {
			if len(ids) == 0 {
				continue
			}
			cells := make([]models.Cell, len(ids))
			for i, id := range ids {
				cells[i] = ds.Cells[id]
			}
			if *sections[g], err = w.topology(cells, false); err != nil {
				return err
			}
			*counts[g] = len(ids)
			order = append(order, ids...)
		}
		if piece.CellData, err = w.fields(ds.Fields(models.CellData), order); err != nil {
			return err
		}
		f.Poly = &vtkDataSet{Pieces: []vtkPiece{piece}}
	default:
		return fmt.Errorf("%w: dataset kind %d", ErrUnsupportedFormat, kind)
	}

	if _, err := io.WriteString(out, xml.Header); err != nil {
		return err
	}
	enc := xml.NewEncoder(out)
	enc.Indent("", "  ")
	if err := enc.Encode(f); err != nil {
		return err
	}
	_, err = io.WriteString(out, "\n")
	return err
}

// polySection maps a cell type to its PolyData section index.
func polySection(t models.CellType) (int, error) {
	switch t {
	case models.Vertex, models.PolyVertex:
		return 0, nil
	case models.Line, models.PolyLine:
		return 1, nil
	case models.Triangle, models.Quad, models.Polygon, models.Pixel:
		return 2, nil
	case models.TriangleStrip:
		return 3, nil
	}
	return 0, fmt.Errorf("%w: cell type %d in PolyData", ErrUnsupportedFormat, t)
}
