package main

import (
	"math"
	"math/rand"
)

// CellType is the terrain of a cell. Unit speed tables and building
// placement rules are keyed by it.
type CellType string

const (
	CellGrassland CellType = "grassland"
	CellForest    CellType = "forest"
	CellWater     CellType = "water"
	CellMountain  CellType = "mountain"
)

// Point is a continuous position in world units
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Rect is an axis-aligned footprint centred on (X, Y)
type Rect struct {
	X      float64
	Y      float64
	Width  float64
	Length float64
}

// CellCoord identifies a cell by column and row
type CellCoord struct {
	Column int `json:"c"`
	Row    int `json:"r"`
}

// Cell is one square of the grid. Coordinates and terrain never change
// during a match; only the occupancy sets do.
type Cell struct {
	Column int
	Row    int
	X, Y   float64 // centre
	Type   CellType

	buildings *orderedIndex[string, *Building]
	units     *orderedIndex[string, *Unit]
}

// Coord returns the cell's grid coordinates
func (c *Cell) Coord() CellCoord {
	return CellCoord{Column: c.Column, Row: c.Row}
}

// Buildings returns the buildings occupying the cell in insertion order
func (c *Cell) Buildings() []*Building {
	return c.buildings.Values()
}

// Units returns the units occupying the cell in insertion order
func (c *Cell) Units() []*Unit {
	return c.units.Values()
}

// HasBuilding reports whether the building with id occupies the cell
func (c *Cell) HasBuilding(id string) bool {
	return c.buildings.Has(id)
}

// HasUnit reports whether the unit with id occupies the cell
func (c *Cell) HasUnit(id string) bool {
	return c.units.Has(id)
}

// ToState returns the wire form of the cell
func (c *Cell) ToState() CellState {
	return CellState{Column: c.Column, Row: c.Row, Type: c.Type}
}

// Grid is the static terrain layout of a match, partitioned into square
// cells of Side world units. Queries never fail: coordinates off the map
// clamp to the nearest edge cell.
type Grid struct {
	Columns int
	Rows    int
	Side    float64
	cells   []*Cell // column-major: index = column*Rows + row
}

// NewGrid creates an all-grassland grid
func NewGrid(columns, rows int, side float64) *Grid {
	g := &Grid{
		Columns: columns,
		Rows:    rows,
		Side:    side,
		cells:   make([]*Cell, columns*rows),
	}
	for col := 0; col < columns; col++ {
		for row := 0; row < rows; row++ {
			g.cells[col*rows+row] = &Cell{
				Column:    col,
				Row:       row,
				X:         (float64(col) + 0.5) * side,
				Y:         (float64(row) + 0.5) * side,
				Type:      CellGrassland,
				buildings: newOrderedIndex[string, *Building](),
				units:     newOrderedIndex[string, *Unit](),
			}
		}
	}
	return g
}

// Width returns the map width in world units
func (g *Grid) Width() float64 { return float64(g.Columns) * g.Side }

// Height returns the map height in world units
func (g *Grid) Height() float64 { return float64(g.Rows) * g.Side }

// Contains reports whether (x, y) lies on the map
func (g *Grid) Contains(x, y float64) bool {
	return x >= 0 && y >= 0 && x <= g.Width() && y <= g.Height()
}

// Cell returns the cell at column/row, clamped to the grid
func (g *Grid) Cell(column, row int) *Cell {
	column = clampInt(column, 0, g.Columns-1)
	row = clampInt(row, 0, g.Rows-1)
	return g.cells[column*g.Rows+row]
}

// Cells returns every cell in column-major order
func (g *Grid) Cells() []*Cell {
	return g.cells
}

// CellAt returns the cell containing (x, y)
func (g *Grid) CellAt(x, y float64) *Cell {
	return g.Cell(int(math.Floor(x/g.Side)), int(math.Floor(y/g.Side)))
}

// CellOf returns the cell containing p
func (g *Grid) CellOf(p Point) *Cell {
	return g.CellAt(p.X, p.Y)
}

// CellsOfFootprint returns the distinct cells touched by the corners of r,
// in corner order: left-bottom, left-top, right-top, right-bottom.
func (g *Grid) CellsOfFootprint(r Rect) []*Cell {
	hw := r.Width / 2
	hl := r.Length / 2
	corners := [4]Point{
		{r.X - hw, r.Y + hl},
		{r.X - hw, r.Y - hl},
		{r.X + hw, r.Y - hl},
		{r.X + hw, r.Y + hl},
	}
	result := make([]*Cell, 0, 4)
	for _, p := range corners {
		c := g.CellOf(p)
		dup := false
		for _, existing := range result {
			if existing == c {
				dup = true
				break
			}
		}
		if !dup {
			result = append(result, c)
		}
	}
	return result
}

// CellsWithinRadius returns the square block of cells at most radius cells
// away from the cell containing (x, y), clipped to the grid, column-major.
func (g *Grid) CellsWithinRadius(x, y float64, radius int) []*Cell {
	center := g.CellAt(x, y)
	minC := clampInt(center.Column-radius, 0, g.Columns-1)
	maxC := clampInt(center.Column+radius, 0, g.Columns-1)
	minR := clampInt(center.Row-radius, 0, g.Rows-1)
	maxR := clampInt(center.Row+radius, 0, g.Rows-1)

	result := make([]*Cell, 0, (maxC-minC+1)*(maxR-minR+1))
	for col := minC; col <= maxC; col++ {
		for row := minR; row <= maxR; row++ {
			result = append(result, g.cells[col*g.Rows+row])
		}
	}
	return result
}

// RandomCell picks a uniformly random cell satisfying accept. It falls back
// to a linear scan when sampling keeps missing and returns nil if no cell
// qualifies.
func (g *Grid) RandomCell(rng *rand.Rand, accept func(*Cell) bool) *Cell {
	for i := 0; i < 64; i++ {
		c := g.cells[rng.Intn(len(g.cells))]
		if accept(c) {
			return c
		}
	}
	for _, c := range g.cells {
		if accept(c) {
			return c
		}
	}
	return nil
}
