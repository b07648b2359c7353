package main

import "testing"

func TestPlayerObserveKeepsFirstSnapshot(t *testing.T) {
	g := NewGrid(4, 4, 20)
	p := NewPlayer(1, "alice")

	c := g.Cell(1, 1)
	p.Observe([]*Cell{c, g.Cell(2, 1)})
	before := p.VisitedCells()[0]

	c.Type = CellWater
	p.Observe([]*Cell{c})

	if p.ObservedCount() != 2 {
		t.Errorf("observed = %d, want 2", p.ObservedCount())
	}
	if got := p.VisitedCells()[0]; got != before {
		t.Errorf("visited snapshot changed to %+v", got)
	}
	if !p.Observes(c) || p.Observes(g.Cell(3, 3)) {
		t.Error("Observes disagrees with the observed set")
	}
	if !p.ObservesAny([]*Cell{g.Cell(0, 0), c}) || p.ObservesAny([]*Cell{g.Cell(0, 0)}) {
		t.Error("ObservesAny disagrees with the observed set")
	}
}

func TestOpponentRecordSighting(t *testing.T) {
	r := NewOpponentRecord(2, "bob")

	u := UnitState{ID: "u1", OwnerID: 2, Type: UnitScout, X: 10, Y: 10}
	if !r.sightUnit(u) {
		t.Fatal("first sighting should be stored")
	}
	if r.sightUnit(u) {
		t.Error("an identical copy should be a no-op")
	}

	r.sightUnit(UnitState{ID: "u2", OwnerID: 2, Type: UnitScout})
	moved := u
	moved.X = 30
	if !r.sightUnit(moved) {
		t.Fatal("a changed copy should replace the old one")
	}
	units := r.Units()
	if len(units) != 2 || units[1].ID != "u1" || units[1].X != 30 {
		t.Errorf("units = %+v, want the fresh u1 copy last", units)
	}

	r.sightBuilding(BuildingState{ID: "b1", OwnerID: 2, Type: BuildingTower})
	state := r.ToState()
	if state.ID != 2 || state.Name != "bob" || len(state.Buildings) != 1 || len(state.Units) != 2 {
		t.Errorf("state = %+v", state)
	}
}
