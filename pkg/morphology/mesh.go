// Package morphology measures cardiac surfaces: cavity volume, surface
// area and the local wall thickness between endocardium and epicardium.
// Triangle-level geometry is delegated to model3d.
package morphology

import (
	"fmt"
	"sort"

	"github.com/unixpickle/model3d/model3d"
	"gonum.org/v1/gonum/spatial/r3"

	"cabgcompare/internal/models"
)

// Triangulate converts the 2-D cells of a surface into triangles. Polygons
// and quads are fanned from their first vertex, strips alternate winding,
// and vertex or line cells are skipped.
func Triangulate(ds *models.Dataset) (*model3d.Mesh, error) {
	m := model3d.NewMesh()
	coord := func(id int) (model3d.Coord3D, error) {
		if id < 0 || id >= len(ds.Points) {
			return model3d.Coord3D{}, fmt.Errorf("point id %d out of range", id)
		}
		p := ds.Points[id]
		return model3d.Coord3D{X: p.X, Y: p.Y, Z: p.Z}, nil
	}
	add := func(a, b, c int) error {
		ca, err := coord(a)
		if err != nil {
			return err
		}
		cb, err := coord(b)
		if err != nil {
			return err
		}
		cc, err := coord(c)
		if err != nil {
			return err
		}
		if ca == cb || cb == cc || ca == cc {
			return nil
		}
		m.Add(&model3d.Triangle{ca, cb, cc})
		return nil
	}

	for i, c := range ds.Cells {
		ids := c.PointIDs
		var err error
		switch c.Type {
		case models.Triangle, models.Polygon, models.Quad:
			for k := 1; k+1 < len(ids) && err == nil; k++ {
				err = add(ids[0], ids[k], ids[k+1])
			}
		case models.Pixel:
			if len(ids) != 4 {
				err = fmt.Errorf("pixel with %d points", len(ids))
				break
			}
			if err = add(ids[0], ids[1], ids[3]); err == nil {
				err = add(ids[0], ids[3], ids[2])
			}
		case models.TriangleStrip:
			for k := 0; k+2 < len(ids) && err == nil; k++ {
				if k%2 == 0 {
					err = add(ids[k], ids[k+1], ids[k+2])
				} else {
					err = add(ids[k+1], ids[k], ids[k+2])
				}
			}
		}
		if err != nil {
			return nil, fmt.Errorf("cell %d: %w", i, err)
		}
	}
	return m, nil
}

// Clean merges vertices closer than epsilon and drops the triangles that
// collapse as a result.
func Clean(m *model3d.Mesh, epsilon float64) *model3d.Mesh {
	repaired := m.Repair(epsilon)
	out := model3d.NewMesh()
	for _, t := range repaired.TriangleSlice() {
		if t[0] == t[1] || t[1] == t[2] || t[0] == t[2] {
			continue
		}
		out.Add(t)
	}
	return out
}

// Prepare triangulates a surface and, when clean is set, welds it.
func Prepare(ds *models.Dataset, clean bool, epsilon float64) (*model3d.Mesh, error) {
	m, err := Triangulate(ds)
	if err != nil {
		return nil, err
	}
	if clean {
		m = Clean(m, epsilon)
	}
	return m, nil
}

// ToDataset converts a mesh back into a PolyData surface of triangle cells.
// Triangles are sorted so that equal meshes give identical datasets.
func ToDataset(m *model3d.Mesh) *models.Dataset {
	tris := m.TriangleSlice()
	sort.Slice(tris, func(i, j int) bool { return triangleLess(tris[i], tris[j]) })

	index := make(map[model3d.Coord3D]int)
	var points []r3.Vec
	cells := make([]models.Cell, 0, len(tris))
	for _, t := range tris {
		ids := make([]int, 3)
		for k, c := range t {
			id, ok := index[c]
			if !ok {
				id = len(points)
				index[c] = id
				points = append(points, r3.Vec{X: c.X, Y: c.Y, Z: c.Z})
			}
			ids[k] = id
		}
		cells = append(cells, models.Cell{Type: models.Triangle, PointIDs: ids})
	}
	return models.NewDataset(models.PolyData, points, cells)
}

func triangleLess(a, b *model3d.Triangle) bool {
	for k := 0; k < 3; k++ {
		if a[k] != b[k] {
			return coordLess(a[k], b[k])
		}
	}
	return false
}

func coordLess(a, b model3d.Coord3D) bool {
	if a.X != b.X {
		return a.X < b.X
	}
	if a.Y != b.Y {
		return a.Y < b.Y
	}
	return a.Z < b.Z
}
