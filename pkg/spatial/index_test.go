package spatial

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"
)

func TestNewIndexEmpty(t *testing.T) {
	_, err := NewIndex(nil)
	assert.True(t, errors.Is(err, ErrEmptyIndex))
}

// TestFindNearestMatchesBruteForce verifies nearest lookups against a linear scan
func TestFindNearestMatchesBruteForce(t *testing.T) {
	rnd := rand.New(rand.NewSource(7))
	points := make([]r3.Vec, 500)
	for i := range points {
		points[i] = r3.Vec{X: rnd.Float64() * 50, Y: rnd.Float64() * 50, Z: rnd.Float64() * 50}
	}
	orig := append([]r3.Vec(nil), points...)

	ix, err := NewIndex(points)
	require.NoError(t, err)
	assert.Equal(t, orig, points, "input slice must not be reordered")
	assert.Equal(t, 500, ix.Len())

	for q := 0; q < 200; q++ {
		query := r3.Vec{X: rnd.Float64() * 60, Y: rnd.Float64() * 60, Z: rnd.Float64() * 60}
		best, bestDist := -1, math.Inf(1)
		for i, p := range points {
			if d := r3.Norm(r3.Sub(p, query)); d < bestDist {
				best, bestDist = i, d
			}
		}
		got, dist := ix.FindNearest(query)
		assert.InDelta(t, bestDist, dist, 1e-9)
		assert.Equal(t, best, got)
	}
}

func TestFindNearestExactHit(t *testing.T) {
	points := []r3.Vec{{X: 0}, {X: 1}, {X: 2}, {Y: 5}}
	ix, err := NewIndex(points)
	require.NoError(t, err)
	for i, p := range points {
		id, d := ix.FindNearest(p)
		assert.Equal(t, i, id)
		assert.Zero(t, d)
	}
}

// TestFindNearestTiesAreStable verifies that equidistant points resolve the same way on every query
func TestFindNearestTiesAreStable(t *testing.T) {
	points := []r3.Vec{{X: -1}, {X: 1}, {Y: 1}, {Y: -1}}
	ix, err := NewIndex(points)
	require.NoError(t, err)
	first, _ := ix.FindNearest(r3.Vec{})
	for i := 0; i < 20; i++ {
		id, d := ix.FindNearest(r3.Vec{})
		assert.Equal(t, first, id)
		assert.Equal(t, 1.0, d)
	}
}
