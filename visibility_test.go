package main

import "testing"

func TestNewlyObservedIsIdempotent(t *testing.T) {
	g := NewGrid(20, 20, 20)
	v := NewVisibilityEngine(g, VisibilityRadius)
	p := NewPlayer(1, "alice")

	first := v.NewlyObserved(Point{X: 210, Y: 210}, p)
	if len(first) != 11*11 {
		t.Fatalf("first observation: %d cells, want 121", len(first))
	}
	if again := v.NewlyObserved(Point{X: 210, Y: 210}, p); len(again) != 0 {
		t.Errorf("repeat observation returned %d cells, want 0", len(again))
	}
	if p.ObservedCount() != 121 {
		t.Errorf("observed set holds %d cells, want 121", p.ObservedCount())
	}
}

func TestNewlyObservedReturnsOnlyTheFrontier(t *testing.T) {
	g := NewGrid(20, 20, 20)
	v := NewVisibilityEngine(g, VisibilityRadius)
	p := NewPlayer(1, "alice")

	v.NewlyObserved(Point{X: 210, Y: 210}, p)
	// one cell to the right uncovers a single new column
	fresh := v.NewlyObserved(Point{X: 230, Y: 210}, p)
	if len(fresh) != 11 {
		t.Fatalf("got %d new cells, want 11", len(fresh))
	}
	for _, c := range fresh {
		if c.Column != 16 {
			t.Errorf("unexpected new cell (%d,%d)", c.Column, c.Row)
		}
	}
}

func TestObservedSetOnlyGrows(t *testing.T) {
	g := NewGrid(20, 20, 20)
	v := NewVisibilityEngine(g, 2)
	p := NewPlayer(1, "alice")

	route := []Point{{10, 10}, {90, 10}, {90, 200}, {10, 10}}
	prev := 0
	for _, pt := range route {
		v.NewlyObserved(pt, p)
		if p.ObservedCount() < prev {
			t.Fatalf("observed set shrank from %d to %d", prev, p.ObservedCount())
		}
		prev = p.ObservedCount()
	}
	// every cell ever observed is still there
	for _, c := range g.CellsWithinRadius(10, 10, 2) {
		if !p.Observes(c) {
			t.Errorf("cell (%d,%d) dropped from the observed set", c.Column, c.Row)
		}
	}
	if len(p.VisitedCells()) != p.ObservedCount() {
		t.Errorf("visited snapshot has %d cells, observed %d", len(p.VisitedCells()), p.ObservedCount())
	}
}
