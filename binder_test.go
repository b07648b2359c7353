package main

import (
	"errors"
	"testing"
)

func newBinderFixture() (*Grid, *Binder, *Player, *Player) {
	g := NewGrid(20, 20, 20)
	b := NewBinder(g)
	alice := NewPlayer(1, "alice")
	bob := NewPlayer(2, "bob")
	b.RegisterPlayer(alice)
	b.RegisterPlayer(bob)
	return g, b, alice, bob
}

func TestRegisterPlayerIsSymmetric(t *testing.T) {
	b := NewBinder(NewGrid(5, 5, 20))
	alice := NewPlayer(1, "alice")
	bob := NewPlayer(2, "bob")
	carol := NewPlayer(3, "carol")

	if pairs := b.RegisterPlayer(alice); len(pairs) != 0 {
		t.Errorf("first player got %d pairings", len(pairs))
	}
	b.RegisterPlayer(bob)
	pairs := b.RegisterPlayer(carol)
	if len(pairs) != 2 || pairs[0].Existing != alice || pairs[1].Existing != bob {
		t.Fatalf("pairings not in roster order: %+v", pairs)
	}

	for _, p := range []*Player{alice, bob, carol} {
		if len(p.Opponents()) != 2 {
			t.Errorf("%s has %d opponent records, want 2", p.Name, len(p.Opponents()))
		}
		for _, q := range []*Player{alice, bob, carol} {
			if p == q {
				if p.Opponent(q.ID) != nil {
					t.Errorf("%s holds a record about itself", p.Name)
				}
				continue
			}
			if rec := p.Opponent(q.ID); rec == nil || rec.Name != q.Name {
				t.Errorf("%s is missing a record about %s", p.Name, q.Name)
			}
		}
	}
	if pairs[0].Record != alice.Opponent(carol.ID) {
		t.Error("pairing should carry the record stored on the existing player")
	}
}

func TestInsertBuildingReachesObservers(t *testing.T) {
	g, b, alice, bob := newBinderFixture()
	bob.Observe(g.CellsWithinRadius(50, 50, 1))

	bld := NewBuilding(BuildingTower, alice.ID, Point{X: 50, Y: 50})
	observers := b.InsertBuilding(alice, bld)

	if len(observers) != 1 || observers[0] != bob {
		t.Fatalf("observers = %v, want bob", observers)
	}
	if _, ok := bob.Opponent(alice.ID).Building(bld.ID); !ok {
		t.Error("bob's record should hold the building")
	}
	if !g.Cell(2, 2).HasBuilding(bld.ID) {
		t.Error("cell (2,2) should be occupied")
	}
	if len(bld.OccupiedCells()) != 1 {
		t.Errorf("building claims %d cells, want 1", len(bld.OccupiedCells()))
	}
}

func TestInsertBuildingUnseen(t *testing.T) {
	_, b, alice, bob := newBinderFixture()

	bld := NewBuilding(BuildingTower, alice.ID, Point{X: 350, Y: 350})
	if observers := b.InsertBuilding(alice, bld); len(observers) != 0 {
		t.Errorf("nobody watches that corner, got %d observers", len(observers))
	}
	if len(bob.Opponent(alice.ID).Buildings()) != 0 {
		t.Error("bob should not know about the building")
	}
	if _, ok := alice.Building(bld.ID); !ok {
		t.Error("alice should own the building")
	}
}

func TestReconcileVisibilityKeepsOneCopy(t *testing.T) {
	g, b, alice, bob := newBinderFixture()
	bld := NewBuilding(BuildingMain, alice.ID, Point{X: 40, Y: 40})
	b.InsertBuilding(alice, bld)

	cells := g.CellsWithinRadius(40, 40, 2)
	bob.Observe(cells)

	first := b.ReconcileVisibility(bob, cells)
	if len(first.Buildings) != 1 {
		t.Fatalf("first reconcile surfaced %d buildings, want 1 (the building spans 4 cells)", len(first.Buildings))
	}
	for i := 0; i < 3; i++ {
		if again := b.ReconcileVisibility(bob, cells); !again.Empty() {
			t.Errorf("reconcile %d surfaced %+v, want nothing", i, again)
		}
	}
	if n := len(bob.Opponent(alice.ID).Buildings()); n != 1 {
		t.Errorf("record holds %d copies, want 1", n)
	}
	if own := b.ReconcileVisibility(alice, cells); !own.Empty() {
		t.Error("own entities must never surface")
	}
}

func TestReconcileReplacesStaleCopy(t *testing.T) {
	g, b, alice, bob := newBinderFixture()
	u := NewUnit(UnitInfantry, alice.ID, Point{X: 30, Y: 30})
	b.InsertUnit(alice, u)

	around := g.CellsWithinRadius(30, 30, 0)
	bob.Observe(around)
	b.ReconcileVisibility(bob, around)

	// move the unit somewhere bob cannot see; his copy stays where it was
	if observers, err := b.RelocateUnit(u, Point{X: 250, Y: 250}); err != nil || len(observers) != 0 {
		t.Fatalf("relocate: observers=%v err=%v", observers, err)
	}
	stale, _ := bob.Opponent(alice.ID).Unit(u.ID)
	if stale.X != 30 || stale.Y != 30 {
		t.Fatalf("stale copy at (%v,%v), want (30,30)", stale.X, stale.Y)
	}

	far := g.CellsWithinRadius(250, 250, 0)
	bob.Observe(far)
	got := b.ReconcileVisibility(bob, far)
	if len(got.Units) != 1 || got.Units[0].X != 250 {
		t.Fatalf("reconcile surfaced %+v", got)
	}
	units := bob.Opponent(alice.ID).Units()
	if len(units) != 1 || units[0].X != 250 || units[0].Y != 250 {
		t.Errorf("record units = %+v, want a single fresh copy", units)
	}
}

func TestRelocateUnitMovesOccupancy(t *testing.T) {
	g, b, alice, bob := newBinderFixture()
	u := NewUnit(UnitInfantry, alice.ID, Point{X: 30, Y: 30})
	b.InsertUnit(alice, u)
	bob.Observe([]*Cell{g.Cell(3, 1)})

	observers, err := b.RelocateUnit(u, Point{X: 70, Y: 30})
	if err != nil {
		t.Fatal(err)
	}
	if len(observers) != 1 || observers[0] != bob {
		t.Errorf("observers = %v, want bob", observers)
	}
	if g.Cell(1, 1).HasUnit(u.ID) {
		t.Error("old cell still holds the unit")
	}
	if !g.Cell(3, 1).HasUnit(u.ID) {
		t.Error("new cell does not hold the unit")
	}
	if err := b.CheckOccupancy(); err != nil {
		t.Errorf("occupancy after relocate: %v", err)
	}
}

func TestRelocateUnitDetectsMismatch(t *testing.T) {
	g, b, alice, _ := newBinderFixture()
	u := NewUnit(UnitInfantry, alice.ID, Point{X: 30, Y: 30})
	b.InsertUnit(alice, u)

	g.Cell(1, 1).units.Delete(u.ID)
	if _, err := b.RelocateUnit(u, Point{X: 70, Y: 30}); !errors.Is(err, ErrOccupancyMismatch) {
		t.Errorf("err = %v, want ErrOccupancyMismatch", err)
	}
}

func TestCheckOccupancy(t *testing.T) {
	g, b, alice, bob := newBinderFixture()
	b.InsertBuilding(alice, NewBuilding(BuildingMain, alice.ID, Point{X: 40, Y: 40}))
	u := NewUnit(UnitScout, bob.ID, Point{X: 200, Y: 200})
	b.InsertUnit(bob, u)

	if err := b.CheckOccupancy(); err != nil {
		t.Fatalf("fresh binder: %v", err)
	}

	// a cell holding a unit that does not claim it
	stray := NewUnit(UnitScout, bob.ID, Point{X: 10, Y: 10})
	g.Cell(0, 0).units.Put(stray.ID, stray)
	if err := b.CheckOccupancy(); !errors.Is(err, ErrOccupancyMismatch) {
		t.Errorf("stray occupant: err = %v", err)
	}
	g.Cell(0, 0).units.Delete(stray.ID)

	// a unit claiming a cell that does not hold it
	u.occupied[0].units.Delete(u.ID)
	if err := b.CheckOccupancy(); !errors.Is(err, ErrOccupancyMismatch) {
		t.Errorf("missing occupant: err = %v", err)
	}
}
