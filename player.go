package main

// Player is one user's state inside a match: what they own, what they can
// see, and what they know about each opponent.
type Player struct {
	ID   PlayerID
	Name string

	buildings *orderedIndex[string, *Building]
	units     *orderedIndex[string, *Unit]
	// observed cells receive live updates; the set only grows
	observed *orderedIndex[CellCoord, *Cell]
	// visited holds the state of each cell captured when it was first
	// observed; it is only sent as a snapshot on (re)join
	visited   *orderedIndex[CellCoord, CellState]
	opponents *orderedIndex[PlayerID, *OpponentRecord]
}

// NewPlayer creates a player with empty knowledge
func NewPlayer(id PlayerID, name string) *Player {
	return &Player{
		ID:        id,
		Name:      name,
		buildings: newOrderedIndex[string, *Building](),
		units:     newOrderedIndex[string, *Unit](),
		observed:  newOrderedIndex[CellCoord, *Cell](),
		visited:   newOrderedIndex[CellCoord, CellState](),
		opponents: newOrderedIndex[PlayerID, *OpponentRecord](),
	}
}

// Observes reports whether c is in the observed set
func (p *Player) Observes(c *Cell) bool {
	return p.observed.Has(c.Coord())
}

// ObservesAny reports whether any of cells is observed
func (p *Player) ObservesAny(cells []*Cell) bool {
	for _, c := range cells {
		if p.observed.Has(c.Coord()) {
			return true
		}
	}
	return false
}

// Observe adds cells to the observed set and records their snapshot.
// Already observed cells are ignored.
func (p *Player) Observe(cells []*Cell) {
	for _, c := range cells {
		key := c.Coord()
		if p.observed.Has(key) {
			continue
		}
		p.observed.Put(key, c)
		p.visited.Put(key, c.ToState())
	}
}

// ObservedCount returns the size of the observed set
func (p *Player) ObservedCount() int {
	return p.observed.Len()
}

// ObservedCells returns the observed cells in the order they were observed
func (p *Player) ObservedCells() []*Cell {
	return p.observed.Values()
}

// VisitedCells returns the visited-cell snapshot
func (p *Player) VisitedCells() []CellState {
	return p.visited.Values()
}

// Building returns an owned building by id
func (p *Player) Building(id string) (*Building, bool) {
	return p.buildings.Get(id)
}

// Unit returns an owned unit by id
func (p *Player) Unit(id string) (*Unit, bool) {
	return p.units.Get(id)
}

// Buildings returns the owned buildings in placement order
func (p *Player) Buildings() []*Building {
	return p.buildings.Values()
}

// Units returns the owned units in spawn order
func (p *Player) Units() []*Unit {
	return p.units.Values()
}

// Opponent returns the knowledge record about opponent id
func (p *Player) Opponent(id PlayerID) *OpponentRecord {
	rec, _ := p.opponents.Get(id)
	return rec
}

// Opponents returns the knowledge records in roster order
func (p *Player) Opponents() []*OpponentRecord {
	return p.opponents.Values()
}

// OpponentRecord is a player's private mirror of one opponent. It holds
// value copies taken at the moment of observation, so it may lag behind
// the canonical entities until they are observed again.
type OpponentRecord struct {
	OwnerID PlayerID
	Name    string

	buildings *orderedIndex[string, BuildingState]
	units     *orderedIndex[string, UnitState]
}

// NewOpponentRecord creates an empty record about owner
func NewOpponentRecord(owner PlayerID, name string) *OpponentRecord {
	return &OpponentRecord{
		OwnerID:   owner,
		Name:      name,
		buildings: newOrderedIndex[string, BuildingState](),
		units:     newOrderedIndex[string, UnitState](),
	}
}

// Building returns the known copy of a building
func (r *OpponentRecord) Building(id string) (BuildingState, bool) {
	return r.buildings.Get(id)
}

// Unit returns the known copy of a unit
func (r *OpponentRecord) Unit(id string) (UnitState, bool) {
	return r.units.Get(id)
}

// Buildings returns the known building copies, oldest sighting first
func (r *OpponentRecord) Buildings() []BuildingState {
	return r.buildings.Values()
}

// Units returns the known unit copies, oldest sighting first
func (r *OpponentRecord) Units() []UnitState {
	return r.units.Values()
}

// sightBuilding stores s, replacing any older copy with the same id.
// It returns false when the stored copy was already identical.
func (r *OpponentRecord) sightBuilding(s BuildingState) bool {
	if old, ok := r.buildings.Get(s.ID); ok && old == s {
		return false
	}
	r.buildings.Replace(s.ID, s)
	return true
}

// sightUnit stores s, replacing any older copy with the same id.
// It returns false when the stored copy was already identical.
func (r *OpponentRecord) sightUnit(s UnitState) bool {
	if old, ok := r.units.Get(s.ID); ok && old == s {
		return false
	}
	r.units.Replace(s.ID, s)
	return true
}

// ToState returns the wire form of the record
func (r *OpponentRecord) ToState() OpponentState {
	return OpponentState{
		ID:        r.OwnerID,
		Name:      r.Name,
		Buildings: r.Buildings(),
		Units:     r.Units(),
	}
}
