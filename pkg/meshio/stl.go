package meshio

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/spatial/r3"

	"cabgcompare/internal/models"
)

// ReadSTL decodes binary or ASCII STL into a PolyData of triangles.
// Coincident vertices are merged so the result is indexed.
func ReadSTL(rd io.Reader) (*models.Dataset, error) {
	data, err := io.ReadAll(rd)
	if err != nil {
		return nil, err
	}
	b := newTriangleBuilder()
	if len(data) >= 84 {
		n := binary.LittleEndian.Uint32(data[80:84])
		if uint64(len(data)) == 84+50*uint64(n) {
			for i := 0; i < int(n); i++ {
				rec := data[84+50*i:]
				var tri [3]r3.Vec
				for k := 0; k < 3; k++ {
					off := 12 + 12*k
					tri[k] = r3.Vec{
						X: float64(math.Float32frombits(binary.LittleEndian.Uint32(rec[off:]))),
						Y: float64(math.Float32frombits(binary.LittleEndian.Uint32(rec[off+4:]))),
						Z: float64(math.Float32frombits(binary.LittleEndian.Uint32(rec[off+8:]))),
					}
				}
				b.add(tri)
			}
			return b.dataset(), nil
		}
	}
	if !bytes.HasPrefix(bytes.TrimSpace(data), []byte("solid")) {
		return nil, fmt.Errorf("%w: not an STL file", ErrUnsupportedFormat)
	}

	sc := bufio.NewScanner(bytes.NewReader(data))
	var tri [3]r3.Vec
	k := 0
	line := 0
	for sc.Scan() {
		line++
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 || fields[0] != "vertex" {
			continue
		}
		if len(fields) != 4 {
			return nil, fmt.Errorf("line %d: malformed vertex", line)
		}
		var c [3]float64
		for i := range c {
			if c[i], err = strconv.ParseFloat(fields[i+1], 64); err != nil {
				return nil, fmt.Errorf("line %d: %w", line, err)
			}
		}
		tri[k] = r3.Vec{X: c[0], Y: c[1], Z: c[2]}
		k++
		if k == 3 {
			b.add(tri)
			k = 0
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if k != 0 {
		return nil, fmt.Errorf("incomplete facet at end of file")
	}
	return b.dataset(), nil
}

type triangleBuilder struct {
	index  map[r3.Vec]int
	points []r3.Vec
	cells  []models.Cell
}

func newTriangleBuilder() *triangleBuilder {
	return &triangleBuilder{index: make(map[r3.Vec]int)}
}

func (b *triangleBuilder) add(tri [3]r3.Vec) {
	ids := make([]int, 3)
	for k, p := range tri {
		id, ok := b.index[p]
		if !ok {
			id = len(b.points)
			b.index[p] = id
			b.points = append(b.points, p)
		}
		ids[k] = id
	}
	b.cells = append(b.cells, models.Cell{Type: models.Triangle, PointIDs: ids})
}

func (b *triangleBuilder) dataset() *models.Dataset {
	return models.NewDataset(models.PolyData, b.points, b.cells)
}

// WriteSTL writes the triangles of ds as binary STL. Polygons are fanned;
// fields are not representable and are dropped.
func WriteSTL(w io.Writer, ds *models.Dataset) error {
	var tris [][3]r3.Vec
	for i, c := range ds.Cells {
		switch c.Type {
		case models.Triangle, models.Quad, models.Polygon:
			for k := 1; k+1 < len(c.PointIDs); k++ {
				tris = append(tris, [3]r3.Vec{ds.Points[c.PointIDs[0]], ds.Points[c.PointIDs[k]], ds.Points[c.PointIDs[k+1]]})
			}
		case models.Vertex, models.PolyVertex, models.Line, models.PolyLine:
		default:
			return fmt.Errorf("cell %d: %w: cell type %d in STL", i, ErrUnsupportedFormat, c.Type)
		}
	}

	bw := bufio.NewWriter(w)
	header := make([]byte, 80)
	copy(header, "cabgcompare")
	bw.Write(header)
	binary.Write(bw, binary.LittleEndian, uint32(len(tris)))
	for _, t := range tris {
		n := r3.Cross(r3.Sub(t[1], t[0]), r3.Sub(t[2], t[0]))
		if l := r3.Norm(n); l > 0 {
			n = r3.Scale(1/l, n)
		}
		rec := []float32{float32(n.X), float32(n.Y), float32(n.Z)}
		for _, p := range t {
			rec = append(rec, float32(p.X), float32(p.Y), float32(p.Z))
		}
		binary.Write(bw, binary.LittleEndian, rec)
		binary.Write(bw, binary.LittleEndian, uint16(0))
	}
	return bw.Flush()
}
