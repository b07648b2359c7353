package main

// PlayerID is the authenticated user id that owns a player's entities
type PlayerID int64

// BuildingType selects a building's footprint and placement rules
type BuildingType string

const (
	BuildingMain     BuildingType = "main"
	BuildingBarracks BuildingType = "barracks"
	BuildingTower    BuildingType = "tower"
)

// BuildingDef describes a building type
type BuildingDef struct {
	Width   float64
	Length  float64
	Terrain map[CellType]bool // terrain the footprint may stand on
}

var landOnly = map[CellType]bool{CellGrassland: true, CellForest: true}

// BuildingDefs lists every placeable building type
var BuildingDefs = map[BuildingType]BuildingDef{
	BuildingMain:     {Width: 5, Length: 5, Terrain: landOnly},
	BuildingBarracks: {Width: 4, Length: 4, Terrain: landOnly},
	BuildingTower:    {Width: 2, Length: 2, Terrain: map[CellType]bool{CellGrassland: true, CellForest: true, CellMountain: true}},
}

// UnitType selects a unit's footprint and per-terrain speed table
type UnitType string

const (
	UnitInfantry UnitType = "infantry"
	UnitScout    UnitType = "scout"
)

// UnitDef describes a unit type. Speeds are world units per second;
// a missing or zero entry makes the terrain impassable.
type UnitDef struct {
	Width  float64
	Length float64
	Speeds map[CellType]float64
}

// UnitDefs lists every spawnable unit type
var UnitDefs = map[UnitType]UnitDef{
	UnitInfantry: {
		Width: 2, Length: 2,
		Speeds: map[CellType]float64{CellGrassland: 2, CellForest: 1, CellMountain: 0.5},
	},
	UnitScout: {
		Width: 2, Length: 2,
		Speeds: map[CellType]float64{CellGrassland: 4, CellForest: 2},
	},
}

// Building is a canonical building. Only the binder mutates its occupancy.
type Building struct {
	ID      string
	OwnerID PlayerID
	Type    BuildingType
	X, Y    float64
	Width   float64
	Length  float64

	occupied []*Cell
}

// NewBuilding creates a building of typ centred on pos with a fresh id.
// It returns nil for unknown types.
func NewBuilding(typ BuildingType, owner PlayerID, pos Point) *Building {
	def, ok := BuildingDefs[typ]
	if !ok {
		return nil
	}
	return &Building{
		ID:      GenerateID(),
		OwnerID: owner,
		Type:    typ,
		X:       pos.X,
		Y:       pos.Y,
		Width:   def.Width,
		Length:  def.Length,
	}
}

// Footprint returns the building's rectangle
func (b *Building) Footprint() Rect {
	return Rect{X: b.X, Y: b.Y, Width: b.Width, Length: b.Length}
}

// OccupiedCells returns the cells the building stands on
func (b *Building) OccupiedCells() []*Cell {
	return b.occupied
}

// ToState returns a value copy of the public fields
func (b *Building) ToState() BuildingState {
	return BuildingState{
		ID:      b.ID,
		OwnerID: b.OwnerID,
		Type:    b.Type,
		X:       b.X,
		Y:       b.Y,
		Width:   b.Width,
		Length:  b.Length,
	}
}

// Unit is a canonical mobile unit. Its position changes only through
// direct placement or the movement scheduler.
type Unit struct {
	ID      string
	OwnerID PlayerID
	Type    UnitType
	X, Y    float64
	Width   float64
	Length  float64

	speeds   map[CellType]float64
	occupied []*Cell
}

// NewUnit creates a unit of typ at pos with a fresh id.
// It returns nil for unknown types.
func NewUnit(typ UnitType, owner PlayerID, pos Point) *Unit {
	def, ok := UnitDefs[typ]
	if !ok {
		return nil
	}
	return &Unit{
		ID:      GenerateID(),
		OwnerID: owner,
		Type:    typ,
		X:       pos.X,
		Y:       pos.Y,
		Width:   def.Width,
		Length:  def.Length,
		speeds:  def.Speeds,
	}
}

// Position returns the unit's centre
func (u *Unit) Position() Point {
	return Point{X: u.X, Y: u.Y}
}

// Footprint returns the unit's rectangle at its current position
func (u *Unit) Footprint() Rect {
	return Rect{X: u.X, Y: u.Y, Width: u.Width, Length: u.Length}
}

// SpeedOn returns the unit's speed on the cell's terrain; 0 means impassable
func (u *Unit) SpeedOn(c *Cell) float64 {
	return u.speeds[c.Type]
}

// OccupiedCells returns the cells the unit currently stands on
func (u *Unit) OccupiedCells() []*Cell {
	return u.occupied
}

// ToState returns a value copy of the public fields
func (u *Unit) ToState() UnitState {
	return UnitState{
		ID:      u.ID,
		OwnerID: u.OwnerID,
		Type:    u.Type,
		X:       u.X,
		Y:       u.Y,
		Width:   u.Width,
		Length:  u.Length,
	}
}
