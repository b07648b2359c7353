package main

import "math/rand"

// TerrainConfig controls how many features GenerateTerrain paints
type TerrainConfig struct {
	Lakes        int
	Forests      int
	Ridges       int
	MaxBlobCells int // radius in cells of the largest lake/forest
}

// DefaultTerrain returns the terrain mix used for regular matches
func DefaultTerrain() TerrainConfig {
	return TerrainConfig{
		Lakes:        2,
		Forests:      3,
		Ridges:       1,
		MaxBlobCells: 2,
	}
}

// GenerateTerrain paints features onto an all-grassland grid.
// The same seed always produces the same map.
func GenerateTerrain(g *Grid, rng *rand.Rand, cfg TerrainConfig) {
	maxR := cfg.MaxBlobCells
	if maxR < 1 {
		maxR = 1
	}
	for i := 0; i < cfg.Forests; i++ {
		paintBlob(g, rng, CellForest, 1+rng.Intn(maxR))
	}
	for i := 0; i < cfg.Lakes; i++ {
		paintBlob(g, rng, CellWater, 1+rng.Intn(maxR))
	}
	for i := 0; i < cfg.Ridges; i++ {
		paintRidge(g, rng)
	}
}

// paintBlob fills a rough disc of the given radius (in cells)
func paintBlob(g *Grid, rng *rand.Rand, t CellType, radius int) {
	cc := rng.Intn(g.Columns)
	cr := rng.Intn(g.Rows)
	r2 := radius * radius
	for dc := -radius; dc <= radius; dc++ {
		for dr := -radius; dr <= radius; dr++ {
			if dc*dc+dr*dr > r2 {
				continue
			}
			col, row := cc+dc, cr+dr
			if col < 0 || row < 0 || col >= g.Columns || row >= g.Rows {
				continue
			}
			g.Cell(col, row).Type = t
		}
	}
}

// paintRidge draws a short random walk of mountain cells
func paintRidge(g *Grid, rng *rand.Rand) {
	col := rng.Intn(g.Columns)
	row := rng.Intn(g.Rows)
	length := 3 + rng.Intn(4)
	for i := 0; i < length; i++ {
		g.Cell(col, row).Type = CellMountain
		col = clampInt(col+rng.Intn(3)-1, 0, g.Columns-1)
		row = clampInt(row+rng.Intn(3)-1, 0, g.Rows-1)
	}
}
