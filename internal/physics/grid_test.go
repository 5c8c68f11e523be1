package physics

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
)

func query(g *Grid, minX, minZ, maxX, maxZ float64) []int {
	var out []int
	g.Query(minX, minZ, maxX, maxZ, func(h int) { out = append(out, h) })
	sort.Ints(out)
	return out
}

func TestGrid_QueryReturnsOverlappingCells(t *testing.T) {
	g := NewGrid(10)
	g.Insert(0, 1, 1)
	g.Insert(1, 9, 9)   // same cell as 0
	g.Insert(2, 15, 1)  // east neighbour
	g.Insert(3, -1, -1) // negative coordinates floor to cell -1
	g.Insert(4, 55, 55)
	assert.Equal(t, 5, g.Len())

	assert.Equal(t, []int{0, 1}, query(g, 2, 2, 3, 3))
	assert.Equal(t, []int{0, 1, 2}, query(g, 5, 5, 12, 5))
	assert.Equal(t, []int{0, 1, 3}, query(g, -0.5, -0.5, 0.5, 0.5))
	assert.Empty(t, query(g, 30, 30, 35, 35))
}

func TestGrid_WideQueryScansUsedCells(t *testing.T) {
	g := NewGrid(1)
	g.Insert(7, 0, 0)
	g.Insert(8, 500, 500)
	g.Insert(9, -500, 0)
	// 百萬格的範圍只掃三個已用格子
	assert.Equal(t, []int{7, 8}, query(g, -1, -1, 1000, 1000))
}

func TestGrid_ResetReusesCells(t *testing.T) {
	g := NewGrid(10)
	g.Insert(0, 1, 1)
	g.Insert(1, 25, 25)
	g.Reset()
	assert.Zero(t, g.Len())
	assert.Empty(t, query(g, 0, 0, 30, 30))

	g.Insert(2, 2, 2)
	assert.Equal(t, []int{2}, query(g, 0, 0, 30, 30))
	g.Reset()
	g.Reset()
	assert.Len(t, g.cells, 0, "cells empty across a whole step are dropped")
}

func TestGrid_NonPositiveSize(t *testing.T) {
	g := NewGrid(0)
	g.Insert(1, 0.5, 0.5)
	assert.Equal(t, []int{1}, query(g, 0, 0, 0.9, 0.9))
}
