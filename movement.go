package main

import "time"

// Movement is a unit travelling along a verified path. The unit's position
// is always derived from the path, NextPoint and Progress, never integrated,
// so repeated ticks do not drift.
type Movement struct {
	ID           string // id of the accepted move intent
	Unit         *Unit
	Path         Path
	Start        time.Time
	LastAdvanced time.Time
	// NextPoint is the index of the path point the unit is heading for;
	// it equals len(Path.Points) once the unit has arrived
	NextPoint int
	// Progress is the distance travelled past Path.Points[NextPoint-1]
	Progress float64
}

// Arrived reports whether the unit reached the end of its path
func (m *Movement) Arrived() bool {
	return m.NextPoint >= len(m.Path.Points)
}

// Position returns the unit's location on the path
func (m *Movement) Position() Point {
	if m.Arrived() {
		return m.Path.End()
	}
	a := m.Path.Points[m.NextPoint-1]
	b := m.Path.Points[m.NextPoint]
	seg := Distance(a, b)
	if seg < geomEpsilon {
		return b
	}
	f := m.Progress / seg
	return Point{X: a.X + (b.X-a.X)*f, Y: a.Y + (b.Y-a.Y)*f}
}

// advance consumes dt seconds of travel, crossing as many segments as the
// time allows at the speed of each segment's cell. It returns the time left
// over after arrival.
func (m *Movement) advance(dt float64) float64 {
	for dt > 0 && !m.Arrived() {
		cell := m.Path.Cells[m.NextPoint-1]
		speed := m.Unit.SpeedOn(cell)
		if speed <= 0 {
			m.haltHere()
			return dt
		}

		a := m.Path.Points[m.NextPoint-1]
		b := m.Path.Points[m.NextPoint]
		remaining := Distance(a, b) - m.Progress
		need := remaining / speed
		if need <= dt+geomEpsilon {
			dt -= need
			m.NextPoint++
			m.Progress = 0
			continue
		}
		m.Progress += dt * speed
		dt = 0
	}
	if dt < 0 {
		dt = 0
	}
	return dt
}

// haltHere cuts the path at the current position and marks it arrived
func (m *Movement) haltHere() {
	pos := m.Position()
	m.Path.Points = append(m.Path.Points[:m.NextPoint:m.NextPoint], pos)
	m.Path.Cells = m.Path.Cells[:m.NextPoint]
	m.NextPoint = len(m.Path.Points)
	m.Progress = 0
}

// MovementStep reports one advance of a movement
type MovementStep struct {
	Movement  *Movement
	Position  Point
	Arrived   bool
	Observers []*Player // other players whose copy of the unit changed
	At        time.Time
}

// MovementScheduler advances every active movement of a match. A unit has at
// most one movement; starting another one preempts it.
type MovementScheduler struct {
	binder    *Binder
	movements *orderedIndex[string, *Movement] // by unit id
	onStep    func(MovementStep)
}

// NewMovementScheduler creates a scheduler that relocates units through
// binder and reports each step to onStep
func NewMovementScheduler(binder *Binder, onStep func(MovementStep)) *MovementScheduler {
	return &MovementScheduler{
		binder:    binder,
		movements: newOrderedIndex[string, *Movement](),
		onStep:    onStep,
	}
}

// Start sets unit travelling along path, discarding any movement it had.
// An empty path only cancels; Start then returns nil.
func (s *MovementScheduler) Start(id string, unit *Unit, path Path, now time.Time) *Movement {
	s.movements.Delete(unit.ID)
	if path.Empty() {
		return nil
	}
	m := &Movement{
		ID:           id,
		Unit:         unit,
		Path:         path,
		Start:        now,
		LastAdvanced: now,
		NextPoint:    1,
	}
	s.movements.Put(unit.ID, m)
	return m
}

// MovementOf returns the active movement of a unit
func (s *MovementScheduler) MovementOf(unitID string) (*Movement, bool) {
	return s.movements.Get(unitID)
}

// Active returns the number of units in motion
func (s *MovementScheduler) Active() int {
	return s.movements.Len()
}

// Tick advances every movement to now in start order. An error means the
// binder's bookkeeping is broken and the match cannot continue.
func (s *MovementScheduler) Tick(now time.Time) error {
	for _, m := range s.movements.Values() {
		if err := s.step(m, now); err != nil {
			return err
		}
	}
	return nil
}

// FinishMovementOfUnit advances unit's movement to at, outside the regular
// tick. It removes the movement if the unit arrives and does nothing when
// the unit is not moving.
func (s *MovementScheduler) FinishMovementOfUnit(unit *Unit, at time.Time) error {
	m, ok := s.movements.Get(unit.ID)
	if !ok {
		return nil
	}
	return s.step(m, at)
}

func (s *MovementScheduler) step(m *Movement, now time.Time) error {
	dt := now.Sub(m.LastAdvanced).Seconds()
	if dt <= 0 {
		return nil
	}
	m.LastAdvanced = now
	m.advance(dt)

	pos := m.Position()
	observers, err := s.binder.RelocateUnit(m.Unit, pos)
	if err != nil {
		return err
	}
	arrived := m.Arrived()
	if arrived {
		s.movements.Delete(m.Unit.ID)
	}
	if s.onStep != nil {
		s.onStep(MovementStep{
			Movement:  m,
			Position:  pos,
			Arrived:   arrived,
			Observers: observers,
			At:        now,
		})
	}
	return nil
}
