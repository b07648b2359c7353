package main

import (
	"math/rand"
	"testing"
)

func TestGridCellAt(t *testing.T) {
	g := NewGrid(10, 20, 20)

	tests := []struct {
		x, y     float64
		col, row int
	}{
		{0, 0, 0, 0},
		{19.99, 19.99, 0, 0},
		{20, 0, 1, 0},
		{45, 61, 2, 3},
		{199.9, 399.9, 9, 19},
		// off the map clamps to the edge cells
		{-5, -5, 0, 0},
		{200, 400, 9, 19},
		{1000, 50, 9, 2},
	}
	for _, tt := range tests {
		c := g.CellAt(tt.x, tt.y)
		if c.Column != tt.col || c.Row != tt.row {
			t.Errorf("CellAt(%v,%v) = (%d,%d), want (%d,%d)", tt.x, tt.y, c.Column, c.Row, tt.col, tt.row)
		}
	}
}

func TestGridCellCentre(t *testing.T) {
	g := NewGrid(3, 3, 20)
	c := g.Cell(1, 2)
	if c.X != 30 || c.Y != 50 {
		t.Errorf("centre of (1,2) = (%v,%v), want (30,50)", c.X, c.Y)
	}
	if c.Type != CellGrassland {
		t.Errorf("new grid cell type = %s, want grassland", c.Type)
	}
}

func TestGridCellsOfFootprintInsideOneCell(t *testing.T) {
	g := NewGrid(10, 10, 20)
	cells := g.CellsOfFootprint(Rect{X: 30, Y: 30, Width: 5, Length: 5})
	if len(cells) != 1 {
		t.Fatalf("expected 1 cell, got %d", len(cells))
	}
	if cells[0] != g.Cell(1, 1) {
		t.Errorf("expected cell (1,1), got (%d,%d)", cells[0].Column, cells[0].Row)
	}
}

func TestGridCellsOfFootprintStraddlingCorner(t *testing.T) {
	g := NewGrid(10, 10, 20)
	cells := g.CellsOfFootprint(Rect{X: 40, Y: 40, Width: 2, Length: 2})
	if len(cells) != 4 {
		t.Fatalf("expected 4 cells, got %d", len(cells))
	}
	seen := make(map[*Cell]bool)
	for _, c := range cells {
		if seen[c] {
			t.Errorf("cell (%d,%d) listed twice", c.Column, c.Row)
		}
		seen[c] = true
	}
	for _, want := range []*Cell{g.Cell(1, 1), g.Cell(1, 2), g.Cell(2, 1), g.Cell(2, 2)} {
		if !seen[want] {
			t.Errorf("missing cell (%d,%d)", want.Column, want.Row)
		}
	}
}

func TestGridCellsOfFootprintStraddlingBorder(t *testing.T) {
	g := NewGrid(10, 10, 20)
	cells := g.CellsOfFootprint(Rect{X: 40, Y: 30, Width: 2, Length: 2})
	if len(cells) != 2 {
		t.Fatalf("expected 2 cells, got %d", len(cells))
	}
	if cells[0] != g.Cell(1, 1) || cells[1] != g.Cell(2, 1) {
		t.Errorf("unexpected cells (%d,%d) (%d,%d)", cells[0].Column, cells[0].Row, cells[1].Column, cells[1].Row)
	}
}

func TestGridCellsWithinRadius(t *testing.T) {
	g := NewGrid(20, 20, 20)

	cells := g.CellsWithinRadius(210, 210, 5) // centre cell (10,10)
	if len(cells) != 11*11 {
		t.Fatalf("expected 121 cells, got %d", len(cells))
	}
	// column-major
	if cells[0] != g.Cell(5, 5) || cells[1] != g.Cell(5, 6) || cells[11] != g.Cell(6, 5) {
		t.Error("cells are not in column-major order")
	}
	if cells[len(cells)-1] != g.Cell(15, 15) {
		t.Error("last cell should be (15,15)")
	}
}

func TestGridCellsWithinRadiusClipped(t *testing.T) {
	g := NewGrid(20, 20, 20)

	cells := g.CellsWithinRadius(5, 5, 5) // corner cell (0,0)
	if len(cells) != 6*6 {
		t.Fatalf("expected 36 cells, got %d", len(cells))
	}
	for _, c := range cells {
		if c.Column > 5 || c.Row > 5 {
			t.Errorf("cell (%d,%d) outside the clipped block", c.Column, c.Row)
		}
	}

	small := NewGrid(3, 2, 20)
	if n := len(small.CellsWithinRadius(30, 20, 5)); n != 6 {
		t.Errorf("block on a 3x2 grid should hold all 6 cells, got %d", n)
	}
}

func TestGridContains(t *testing.T) {
	g := NewGrid(10, 20, 20)
	if !g.Contains(0, 0) || !g.Contains(200, 400) || !g.Contains(100, 100) {
		t.Error("points on the map should be contained")
	}
	if g.Contains(-0.1, 10) || g.Contains(10, 400.1) {
		t.Error("points off the map should not be contained")
	}
}

func TestGridRandomCell(t *testing.T) {
	g := NewGrid(5, 5, 20)
	rng := rand.New(rand.NewSource(1))

	target := g.Cell(3, 4)
	got := g.RandomCell(rng, func(c *Cell) bool { return c == target })
	if got != target {
		t.Errorf("expected the only acceptable cell, got %v", got)
	}
	if g.RandomCell(rng, func(*Cell) bool { return false }) != nil {
		t.Error("expected nil when no cell qualifies")
	}
}

func TestGenerateTerrainDeterministic(t *testing.T) {
	a := NewGrid(20, 20, 20)
	b := NewGrid(20, 20, 20)
	GenerateTerrain(a, rand.New(rand.NewSource(42)), DefaultTerrain())
	GenerateTerrain(b, rand.New(rand.NewSource(42)), DefaultTerrain())

	water := 0
	for i, c := range a.Cells() {
		if c.Type != b.Cells()[i].Type {
			t.Fatalf("cell (%d,%d) differs between equal seeds", c.Column, c.Row)
		}
		if c.Type == CellWater {
			water++
		}
	}
	if water == 0 {
		t.Error("default terrain should contain water")
	}
}

func TestGenerateTerrainEmptyConfig(t *testing.T) {
	g := NewGrid(8, 8, 20)
	GenerateTerrain(g, rand.New(rand.NewSource(7)), TerrainConfig{})
	for _, c := range g.Cells() {
		if c.Type != CellGrassland {
			t.Fatalf("cell (%d,%d) is %s, want grassland", c.Column, c.Row, c.Type)
		}
	}
}
