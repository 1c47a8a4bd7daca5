// Package spatial provides the nearest-point lookup used to carry fields
// between datasets that share no point indices.
package spatial

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/spatial/kdtree"
	"gonum.org/v1/gonum/spatial/r3"
)

// ErrEmptyIndex is returned when an index is built over zero points.
var ErrEmptyIndex = errors.New("spatial index has no points")

// samplePoint is a point tagged with its index in the source point set.
// The tree reorders its backing slice while building, so the tag is the
// only link back to the source.
type samplePoint struct {
	r3.Vec
	ID int
}

// Compare implements the kdtree.Comparable interface
func (p samplePoint) Compare(c kdtree.Comparable, d kdtree.Dim) float64 {
	q := c.(samplePoint)
	switch d {
	case 0:
		return p.X - q.X
	case 1:
		return p.Y - q.Y
	case 2:
		return p.Z - q.Z
	default:
		panic("illegal dimension")
	}
}

// Dims returns the number of dimensions for the KD-tree
func (p samplePoint) Dims() int { return 3 }

// Distance returns the squared Euclidean distance between two points
func (p samplePoint) Distance(c kdtree.Comparable) float64 {
	q := c.(samplePoint)
	dx := p.X - q.X
	dy := p.Y - q.Y
	dz := p.Z - q.Z
	return dx*dx + dy*dy + dz*dz
}

// samplePoints satisfies kdtree.Interface
type samplePoints []samplePoint

func (p samplePoints) Index(i int) kdtree.Comparable         { return p[i] }
func (p samplePoints) Len() int                              { return len(p) }
func (p samplePoints) Slice(start, end int) kdtree.Interface { return p[start:end] }

// Pivot uses the median of medians so that a given point set always yields
// the same tree.
func (p samplePoints) Pivot(d kdtree.Dim) int {
	plane := pointPlane{samplePoints: p, Dim: d}
	return kdtree.Partition(plane, kdtree.MedianOfMedians(plane))
}

// pointPlane implements sort.Interface and kdtree.SortSlicer for samplePoints
type pointPlane struct {
	samplePoints
	kdtree.Dim
}

func (p pointPlane) Less(i, j int) bool {
	a, b := p.samplePoints[i], p.samplePoints[j]
	var av, bv float64
	switch p.Dim {
	case 0:
		av, bv = a.X, b.X
	case 1:
		av, bv = a.Y, b.Y
	case 2:
		av, bv = a.Z, b.Z
	default:
		panic("illegal dimension")
	}
	if av != bv {
		return av < bv
	}
	return a.ID < b.ID
}

func (p pointPlane) Slice(start, end int) kdtree.SortSlicer {
	return pointPlane{samplePoints: p.samplePoints[start:end], Dim: p.Dim}
}

func (p pointPlane) Swap(i, j int) {
	p.samplePoints[i], p.samplePoints[j] = p.samplePoints[j], p.samplePoints[i]
}

// Index answers nearest-point queries over a fixed point set in
// O(log n) expected time per query. It is read-only after construction and
// safe for concurrent queries.
type Index struct {
	tree *kdtree.Tree
	n    int
}

// NewIndex builds a k-d tree over points. The input slice is not modified.
func NewIndex(points []r3.Vec) (*Index, error) {
	if len(points) == 0 {
		return nil, ErrEmptyIndex
	}
	samples := make(samplePoints, len(points))
	for i, p := range points {
		samples[i] = samplePoint{Vec: p, ID: i}
	}
	return &Index{tree: kdtree.New(samples, false), n: len(points)}, nil
}

// Len returns the number of indexed points.
func (ix *Index) Len() int { return ix.n }

// FindNearest returns the index (in the slice passed to NewIndex) of the
// point closest to q, and the Euclidean distance to it.
func (ix *Index) FindNearest(q r3.Vec) (int, float64) {
	c, d2 := ix.tree.Nearest(samplePoint{Vec: q, ID: -1})
	return c.(samplePoint).ID, math.Sqrt(d2)
}
