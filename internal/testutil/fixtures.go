// Package testutil builds small synthetic datasets for tests.
package testutil

import (
	"gonum.org/v1/gonum/spatial/r3"

	"cabgcompare/internal/models"
)

// VoxelGrid returns an nx*ny*nz grid of axis-aligned voxels of edge
// length spacing with its origin at zero. Cells are ordered x fastest.
func VoxelGrid(nx, ny, nz int, spacing float64) *models.Dataset {
	px, py := nx+1, ny+1
	var points []r3.Vec
	for z := 0; z <= nz; z++ {
		for y := 0; y <= ny; y++ {
			for x := 0; x <= nx; x++ {
				points = append(points, r3.Vec{X: float64(x) * spacing, Y: float64(y) * spacing, Z: float64(z) * spacing})
			}
		}
	}
	id := func(x, y, z int) int { return z*px*py + y*px + x }
	var cells []models.Cell
	for z := 0; z < nz; z++ {
		for y := 0; y < ny; y++ {
			for x := 0; x < nx; x++ {
				cells = append(cells, models.Cell{Type: models.Voxel, PointIDs: []int{
					id(x, y, z), id(x+1, y, z), id(x, y+1, z), id(x+1, y+1, z),
					id(x, y, z+1), id(x+1, y, z+1), id(x, y+1, z+1), id(x+1, y+1, z+1),
				}})
			}
		}
	}
	return models.NewDataset(models.UnstructuredGrid, points, cells)
}

// BoxSurface returns the closed surface of an axis-aligned box as six
// outward-facing quads.
func BoxSurface(min, max r3.Vec) *models.Dataset {
	points := []r3.Vec{
		{X: min.X, Y: min.Y, Z: min.Z},
		{X: max.X, Y: min.Y, Z: min.Z},
		{X: max.X, Y: max.Y, Z: min.Z},
		{X: min.X, Y: max.Y, Z: min.Z},
		{X: min.X, Y: min.Y, Z: max.Z},
		{X: max.X, Y: min.Y, Z: max.Z},
		{X: max.X, Y: max.Y, Z: max.Z},
		{X: min.X, Y: max.Y, Z: max.Z},
	}
	quad := func(a, b, c, d int) models.Cell {
		return models.Cell{Type: models.Quad, PointIDs: []int{a, b, c, d}}
	}
	cells := []models.Cell{
		quad(0, 3, 2, 1), // -z
		quad(4, 5, 6, 7), // +z
		quad(0, 1, 5, 4), // -y
		quad(2, 3, 7, 6), // +y
		quad(0, 4, 7, 3), // -x
		quad(1, 2, 6, 5), // +x
	}
	return models.NewDataset(models.PolyData, points, cells)
}

// Cube returns BoxSurface of a cube of the given edge centred at c.
func Cube(c r3.Vec, edge float64) *models.Dataset {
	h := r3.Vec{X: edge / 2, Y: edge / 2, Z: edge / 2}
	return BoxSurface(r3.Sub(c, h), r3.Add(c, h))
}
