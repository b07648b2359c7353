package main

import "fmt"

// Binder owns a match's canonical collections and keeps cell occupancy,
// entity cell lists and every player's opponent records consistent.
// It never talks to clients; callers turn its return values into envelopes.
type Binder struct {
	grid    *Grid
	players *orderedIndex[PlayerID, *Player]
}

// NewBinder creates a binder over grid with an empty roster
func NewBinder(grid *Grid) *Binder {
	return &Binder{
		grid:    grid,
		players: newOrderedIndex[PlayerID, *Player](),
	}
}

// Player returns a roster member by id
func (b *Binder) Player(id PlayerID) (*Player, bool) {
	return b.players.Get(id)
}

// Players returns the roster in join order
func (b *Binder) Players() []*Player {
	return b.players.Values()
}

// OpponentPairing tells an existing player about the record created for a
// newly registered opponent
type OpponentPairing struct {
	Existing *Player
	Record   *OpponentRecord
}

// RegisterPlayer adds p to the roster and creates a pair of empty opponent
// records between p and every existing player, in roster order.
func (b *Binder) RegisterPlayer(p *Player) []OpponentPairing {
	pairs := make([]OpponentPairing, 0, b.players.Len())
	b.players.Each(func(_ PlayerID, existing *Player) bool {
		p.opponents.Put(existing.ID, NewOpponentRecord(existing.ID, existing.Name))

		rec := NewOpponentRecord(p.ID, p.Name)
		existing.opponents.Put(p.ID, rec)
		pairs = append(pairs, OpponentPairing{Existing: existing, Record: rec})
		return true
	})
	b.players.Put(p.ID, p)
	return pairs
}

// InsertBuilding registers bld as owned by owner, occupies its cells and
// copies it into the record of every other player observing one of them.
// It returns those players.
func (b *Binder) InsertBuilding(owner *Player, bld *Building) []*Player {
	owner.buildings.Put(bld.ID, bld)

	cells := b.grid.CellsOfFootprint(bld.Footprint())
	for _, c := range cells {
		c.buildings.Put(bld.ID, bld)
	}
	bld.occupied = cells

	state := bld.ToState()
	return b.propagate(owner.ID, cells, func(rec *OpponentRecord) bool {
		return rec.sightBuilding(state)
	})
}

// InsertUnit registers u as owned by owner, occupies its cells and copies
// it into the record of every other player observing one of them.
// It returns those players.
func (b *Binder) InsertUnit(owner *Player, u *Unit) []*Player {
	owner.units.Put(u.ID, u)

	cells := b.grid.CellsOfFootprint(u.Footprint())
	for _, c := range cells {
		c.units.Put(u.ID, u)
	}
	u.occupied = cells

	state := u.ToState()
	return b.propagate(owner.ID, cells, func(rec *OpponentRecord) bool {
		return rec.sightUnit(state)
	})
}

// RelocateUnit moves u to pos, moves its occupancy to the cells of the new
// footprint and refreshes the copy held by every other player observing one
// of those cells. Players that only observed the old cells keep their last
// sighting. It returns the players whose copy changed.
func (b *Binder) RelocateUnit(u *Unit, pos Point) ([]*Player, error) {
	for _, c := range u.occupied {
		if !c.units.Delete(u.ID) {
			return nil, fmt.Errorf("unit %s missing from cell (%d,%d): %w", u.ID, c.Column, c.Row, ErrOccupancyMismatch)
		}
	}

	u.X, u.Y = pos.X, pos.Y
	cells := b.grid.CellsOfFootprint(u.Footprint())
	for _, c := range cells {
		c.units.Put(u.ID, u)
	}
	u.occupied = cells

	state := u.ToState()
	return b.propagate(u.OwnerID, cells, func(rec *OpponentRecord) bool {
		return rec.sightUnit(state)
	}), nil
}

// Surfaced lists the opponent entities a reconciliation added or refreshed
type Surfaced struct {
	Buildings []BuildingState
	Units     []UnitState
}

// Empty reports whether nothing surfaced
func (s Surfaced) Empty() bool {
	return len(s.Buildings) == 0 && len(s.Units) == 0
}

// ReconcileVisibility copies every opponent entity standing on cells into
// player's records. A stale copy with the same id is replaced (the latest
// sighting wins); an identical copy is left alone and not reported.
func (b *Binder) ReconcileVisibility(player *Player, cells []*Cell) Surfaced {
	var out Surfaced
	seen := make(map[string]bool)

	for _, c := range cells {
		c.buildings.Each(func(id string, bld *Building) bool {
			if bld.OwnerID == player.ID || seen[id] {
				return true
			}
			seen[id] = true
			rec := player.Opponent(bld.OwnerID)
			if rec == nil {
				return true
			}
			state := bld.ToState()
			if rec.sightBuilding(state) {
				out.Buildings = append(out.Buildings, state)
			}
			return true
		})
		c.units.Each(func(id string, u *Unit) bool {
			if u.OwnerID == player.ID || seen[id] {
				return true
			}
			seen[id] = true
			rec := player.Opponent(u.OwnerID)
			if rec == nil {
				return true
			}
			state := u.ToState()
			if rec.sightUnit(state) {
				out.Units = append(out.Units, state)
			}
			return true
		})
	}
	return out
}

// propagate applies sight to the record about owner held by every other
// player observing one of cells, returning those whose record changed
func (b *Binder) propagate(owner PlayerID, cells []*Cell, sight func(*OpponentRecord) bool) []*Player {
	var observers []*Player
	b.players.Each(func(_ PlayerID, other *Player) bool {
		if other.ID == owner || !other.ObservesAny(cells) {
			return true
		}
		if rec := other.Opponent(owner); rec != nil && sight(rec) {
			observers = append(observers, other)
		}
		return true
	})
	return observers
}

// CheckOccupancy verifies that every entity is present in each cell it
// claims and that every cell occupant claims that cell.
func (b *Binder) CheckOccupancy() error {
	claims := func(cells []*Cell, c *Cell) bool {
		for _, oc := range cells {
			if oc == c {
				return true
			}
		}
		return false
	}

	for _, p := range b.players.Values() {
		for _, bld := range p.Buildings() {
			for _, c := range bld.occupied {
				if !c.HasBuilding(bld.ID) {
					return fmt.Errorf("building %s not in cell (%d,%d): %w", bld.ID, c.Column, c.Row, ErrOccupancyMismatch)
				}
			}
		}
		for _, u := range p.Units() {
			for _, c := range u.occupied {
				if !c.HasUnit(u.ID) {
					return fmt.Errorf("unit %s not in cell (%d,%d): %w", u.ID, c.Column, c.Row, ErrOccupancyMismatch)
				}
			}
		}
	}

	for _, c := range b.grid.Cells() {
		for _, bld := range c.Buildings() {
			if !claims(bld.occupied, c) {
				return fmt.Errorf("cell (%d,%d) holds building %s that does not claim it: %w", c.Column, c.Row, bld.ID, ErrOccupancyMismatch)
			}
		}
		for _, u := range c.Units() {
			if !claims(u.occupied, c) {
				return fmt.Errorf("cell (%d,%d) holds unit %s that does not claim it: %w", c.Column, c.Row, u.ID, ErrOccupancyMismatch)
			}
		}
	}
	return nil
}
