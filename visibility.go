package main

// VisibilityRadius is how far, in cells, an observer sees
const VisibilityRadius = 5

// VisibilityEngine is the only place a player's observed set grows
type VisibilityEngine struct {
	grid   *Grid
	radius int
}

// NewVisibilityEngine creates an engine with the given radius in cells
func NewVisibilityEngine(grid *Grid, radius int) *VisibilityEngine {
	return &VisibilityEngine{grid: grid, radius: radius}
}

// NewlyObserved returns the cells around p that the player did not observe
// yet and appends them to the player's observed set. Calling it again
// without any movement returns nothing.
func (v *VisibilityEngine) NewlyObserved(p Point, player *Player) []*Cell {
	block := v.grid.CellsWithinRadius(p.X, p.Y, v.radius)
	fresh := make([]*Cell, 0, len(block))
	for _, c := range block {
		if !player.Observes(c) {
			fresh = append(fresh, c)
		}
	}
	player.Observe(fresh)
	return fresh
}
