package main

import (
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/sasha-s/go-deadlock"
	"github.com/sirupsen/logrus"
)

// Broadcaster interface for sending messages to clients
type Broadcaster interface {
	Send(msg interface{})
}

// Match is one running game. It is a single sequential authority: every
// exported method and every tick hold mu for their whole duration, so the
// binder, verifier and scheduler never see concurrent access.
type Match struct {
	ID      string
	Started time.Time
	cfg     MatchConfig

	mu         deadlock.Mutex
	grid       *Grid
	binder     *Binder
	visibility *VisibilityEngine
	verifier   *PathVerifier
	mover      *MovementScheduler
	ticks      *TickDriver
	rng        *rand.Rand
	clients    map[PlayerID]Broadcaster
	idleSince  time.Time
	running    bool
	stop       chan struct{}

	now     func() time.Time
	onClose func(m *Match) // called without mu held once the match stops itself
	log     *logrus.Entry
}

// NewMatch creates a match with freshly generated terrain
func NewMatch(cfg MatchConfig) *Match {
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))
	grid := NewGrid(cfg.Columns, cfg.Rows, cfg.CellSide)
	GenerateTerrain(grid, rng, cfg.Terrain)
	return newMatch(cfg, grid, rng, time.Now)
}

func newMatch(cfg MatchConfig, grid *Grid, rng *rand.Rand, now func() time.Time) *Match {
	id := GenerateID()
	binder := NewBinder(grid)
	m := &Match{
		ID:         id,
		Started:    now(),
		cfg:        cfg,
		grid:       grid,
		binder:     binder,
		visibility: NewVisibilityEngine(grid, cfg.VisibilityRadius),
		verifier:   NewPathVerifier(grid),
		rng:        rng,
		clients:    make(map[PlayerID]Broadcaster),
		running:    true,
		stop:       make(chan struct{}),
		now:        now,
		log:        Log.WithField("match", id),
	}
	m.idleSince = now()
	m.mover = NewMovementScheduler(binder, m.onMovementStep)
	m.ticks = NewTickDriver(now())
	m.ticks.Subscribe(func(_, _ time.Duration, at time.Time) error {
		return m.mover.Tick(at)
	})
	if cfg.CheckInvariants {
		m.ticks.Subscribe(func(_, _ time.Duration, _ time.Time) error {
			return m.binder.CheckOccupancy()
		})
	}
	return m
}

// Run starts the tick loop; it returns when the match stops
func (m *Match) Run() {
	ticker := time.NewTicker(m.cfg.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.update()
		case <-m.stop:
			return
		}
	}
}

// Stop terminates the tick loop
func (m *Match) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stopLocked()
}

func (m *Match) stopLocked() {
	if m.running {
		m.running = false
		close(m.stop)
	}
}

// update runs one tick
func (m *Match) update() {
	m.mu.Lock()
	defer m.mu.Unlock()
	defer m.guard(nil)

	if !m.running {
		return
	}
	if err := m.ticks.Fire(m.now()); err != nil {
		m.fail(err)
	}
}

// guard turns a panic inside the match into a match failure. Only the
// panicking match stops; the process and other matches keep running.
func (m *Match) guard(err *error) {
	r := recover()
	if r == nil {
		return
	}
	m.fail(fmt.Errorf("panic: %v", r))
	if err != nil {
		*err = ErrMatchClosed
	}
}

// fail stops the match after an unrecoverable error and tells everyone
func (m *Match) fail(err error) {
	if !m.running {
		return
	}
	m.log.WithError(err).Error("match failed, shutting down")
	m.broadcast(Envelope{T: MsgClosed, Data: ClosedMsg{MatchID: m.ID, Reason: "internal error"}})
	m.stopLocked()
	if m.onClose != nil {
		go m.onClose(m)
	}
}

// Join adds user to the match, places their starting building and sends
// and returns their initial view. A user already in the match gets the full
// view again and client replaces any previous connection.
func (m *Match) Join(user PlayerID, name string, client Broadcaster) (view InitialView, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	defer m.guard(&err)

	if !m.running {
		return InitialView{}, ErrMatchClosed
	}
	if p, ok := m.binder.Player(user); ok {
		m.attach(user, client)
		view = m.viewOf(p)
		m.sendTo(user, Envelope{T: MsgJoined, Data: view})
		m.log.WithField("player", user).Info("player rejoined")
		return view, nil
	}
	if len(m.binder.Players()) >= m.cfg.MaxPlayers {
		return InitialView{}, ErrMatchFull
	}

	def := BuildingDefs[BuildingMain]
	start := m.grid.RandomCell(m.rng, func(c *Cell) bool {
		return m.canHost(Rect{X: c.X, Y: c.Y, Width: def.Width, Length: def.Length}, func(c *Cell) bool {
			return def.Terrain[c.Type]
		})
	})
	if start == nil {
		return InitialView{}, fmt.Errorf("no room for a starting building: %w", ErrMatchFull)
	}

	p := NewPlayer(user, name)
	for _, pair := range m.binder.RegisterPlayer(p) {
		m.sendTo(pair.Existing.ID, Envelope{T: MsgOpponent, Data: pair.Record.ToState()})
	}
	m.attach(user, client)

	bld := NewBuilding(BuildingMain, user, Point{X: start.X, Y: start.Y})
	m.insertBuilding(p, bld)

	m.log.WithFields(logrus.Fields{
		"player": user,
		"name":   name,
		"column": start.Column,
		"row":    start.Row,
	}).Info("player joined")
	view = m.viewOf(p)
	m.sendTo(user, Envelope{T: MsgJoined, Data: view})
	return view, nil
}

// Detach forgets client if it is still user's connection. The player and
// their moving units stay in the match.
func (m *Match) Detach(user PlayerID, client Broadcaster) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if cur, ok := m.clients[user]; ok && cur == client {
		delete(m.clients, user)
		if len(m.clients) == 0 {
			m.idleSince = m.now()
		}
	}
}

// PlaceBuilding places a building for user
func (m *Match) PlaceBuilding(user PlayerID, in PlaceIntent) (state BuildingState, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	defer m.guard(&err)

	p, err := m.player(user)
	if err != nil {
		return BuildingState{}, err
	}
	def, ok := BuildingDefs[in.Type]
	if !ok {
		return BuildingState{}, fmt.Errorf("unknown building type %q: %w", in.Type, ErrMalformedIntent)
	}
	rect := Rect{X: in.X, Y: in.Y, Width: def.Width, Length: def.Length}
	if err := m.checkFootprint(p, rect, func(c *Cell) bool { return def.Terrain[c.Type] }); err != nil {
		return BuildingState{}, err
	}

	bld := NewBuilding(in.Type, user, Point{X: in.X, Y: in.Y})
	change := m.insertBuilding(p, bld)
	state = bld.ToState()

	m.sendTo(user, Envelope{T: MsgPlaced, Data: state})
	if !change.Empty() {
		m.sendTo(user, Envelope{T: MsgMap, Data: change})
	}
	m.log.WithFields(logrus.Fields{"player": user, "building": bld.ID, "type": bld.Type}).Debug("building placed")
	return state, nil
}

// SpawnUnit creates a unit for user
func (m *Match) SpawnUnit(user PlayerID, in SpawnIntent) (state UnitState, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	defer m.guard(&err)

	p, err := m.player(user)
	if err != nil {
		return UnitState{}, err
	}
	u := NewUnit(in.Type, user, Point{X: in.X, Y: in.Y})
	if u == nil {
		return UnitState{}, fmt.Errorf("unknown unit type %q: %w", in.Type, ErrMalformedIntent)
	}
	if err := m.checkFootprint(p, u.Footprint(), func(c *Cell) bool { return u.SpeedOn(c) > 0 }); err != nil {
		return UnitState{}, err
	}

	for _, o := range m.binder.InsertUnit(p, u) {
		m.sendTo(o.ID, Envelope{T: MsgMap, Data: MapChange{Units: []UnitState{u.ToState()}}})
	}
	state = u.ToState()
	m.sendTo(user, Envelope{T: MsgSpawned, Data: state})
	if change := m.reveal(p, u.Position()); !change.Empty() {
		m.sendTo(user, Envelope{T: MsgMap, Data: change})
	}
	m.log.WithFields(logrus.Fields{"player": user, "unit": u.ID, "type": u.Type}).Debug("unit spawned")
	return state, nil
}

// MoveUnit verifies and starts a move. The unit's current movement is first
// advanced to now, so the new route starts where the unit actually is. A
// rejected move leaves the unit and its current movement untouched.
func (m *Match) MoveUnit(user PlayerID, in MoveIntent) (acc MoveAccepted, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	defer m.guard(&err)

	p, err := m.player(user)
	if err != nil {
		return MoveAccepted{}, err
	}
	if in.ID == "" || len(in.Path) == 0 {
		return MoveAccepted{}, fmt.Errorf("move needs an id and at least one waypoint: %w", ErrMalformedIntent)
	}
	for _, wp := range in.Path {
		if math.IsNaN(wp.X) || math.IsNaN(wp.Y) || !m.grid.Contains(wp.X, wp.Y) {
			return MoveAccepted{}, fmt.Errorf("waypoint (%v,%v) off the map: %w", wp.X, wp.Y, ErrMalformedIntent)
		}
	}
	u, ok := p.Unit(in.UnitID)
	if !ok {
		return MoveAccepted{}, fmt.Errorf("unit %s: %w", in.UnitID, ErrUnauthorizedReference)
	}

	now := m.now()
	if err := m.mover.FinishMovementOfUnit(u, now); err != nil {
		m.fail(err)
		return MoveAccepted{}, ErrMatchClosed
	}

	verdict := m.verifier.Verify(p, u, in.Path)
	if verdict.Outcome == PathRejected {
		m.log.WithFields(logrus.Fields{"player": user, "unit": u.ID, "move": in.ID}).Debug("move rejected")
		return MoveAccepted{}, verdict.Err()
	}

	m.mover.Start(in.ID, u, verdict.Path, now)
	acc = MoveAccepted{ID: in.ID, UnitID: u.ID, Start: now.UnixMilli()}
	if verdict.Outcome == PathSliced {
		acc.Sliced = true
		acc.Path = verdict.Path.Points
	}
	m.sendTo(user, Envelope{T: MsgMoveOK, Data: acc})
	return acc, nil
}

// onMovementStep runs under mu from the scheduler
func (m *Match) onMovementStep(step MovementStep) {
	u := step.Movement.Unit
	copyOf := MapChange{Units: []UnitState{u.ToState()}}
	for _, o := range step.Observers {
		m.sendTo(o.ID, Envelope{T: MsgMap, Data: copyOf})
	}

	owner, ok := m.binder.Player(u.OwnerID)
	if !ok {
		return
	}
	m.sendTo(owner.ID, Envelope{T: MsgProgress, Data: ProgressReport{
		MoveID:    step.Movement.ID,
		UnitID:    u.ID,
		X:         step.Position.X,
		Y:         step.Position.Y,
		NextPoint: step.Movement.NextPoint,
		At:        step.At.UnixMilli(),
		Arrived:   step.Arrived,
	}})
	if change := m.reveal(owner, step.Position); !change.Empty() {
		m.sendTo(owner.ID, Envelope{T: MsgMap, Data: change})
	}
}

// insertBuilding registers bld, notifies observers and expands the owner's
// visibility. The returned change has not been sent to the owner.
func (m *Match) insertBuilding(owner *Player, bld *Building) MapChange {
	for _, o := range m.binder.InsertBuilding(owner, bld) {
		m.sendTo(o.ID, Envelope{T: MsgMap, Data: MapChange{Buildings: []BuildingState{bld.ToState()}}})
	}
	return m.reveal(owner, Point{X: bld.X, Y: bld.Y})
}

// reveal expands p's observed set around at and surfaces what stands there
func (m *Match) reveal(p *Player, at Point) MapChange {
	fresh := m.visibility.NewlyObserved(at, p)
	if len(fresh) == 0 {
		return MapChange{}
	}
	surfaced := m.binder.ReconcileVisibility(p, fresh)
	return MapChange{
		Cells:     cellStates(fresh),
		Buildings: surfaced.Buildings,
		Units:     surfaced.Units,
	}
}

// checkFootprint validates a placement rectangle for p
func (m *Match) checkFootprint(p *Player, r Rect, terrainOK func(*Cell) bool) error {
	if math.IsNaN(r.X) || math.IsNaN(r.Y) ||
		!m.grid.Contains(r.X-r.Width/2, r.Y-r.Length/2) ||
		!m.grid.Contains(r.X+r.Width/2, r.Y+r.Length/2) {
		return fmt.Errorf("footprint leaves the map: %w", ErrInvalidPlacement)
	}
	for _, c := range m.grid.CellsOfFootprint(r) {
		if !p.Observes(c) {
			return fmt.Errorf("cell (%d,%d) not observed: %w", c.Column, c.Row, ErrInvalidPlacement)
		}
		if !terrainOK(c) {
			return fmt.Errorf("cell (%d,%d) is %s: %w", c.Column, c.Row, c.Type, ErrInvalidPlacement)
		}
		if len(c.Buildings()) > 0 {
			return fmt.Errorf("cell (%d,%d) already built on: %w", c.Column, c.Row, ErrInvalidPlacement)
		}
	}
	return nil
}

// canHost reports whether r fits on the map over free, acceptable cells
func (m *Match) canHost(r Rect, terrainOK func(*Cell) bool) bool {
	if !m.grid.Contains(r.X-r.Width/2, r.Y-r.Length/2) || !m.grid.Contains(r.X+r.Width/2, r.Y+r.Length/2) {
		return false
	}
	for _, c := range m.grid.CellsOfFootprint(r) {
		if !terrainOK(c) || len(c.Buildings()) > 0 || len(c.Units()) > 0 {
			return false
		}
	}
	return true
}

func (m *Match) player(user PlayerID) (*Player, error) {
	if !m.running {
		return nil, ErrMatchClosed
	}
	p, ok := m.binder.Player(user)
	if !ok {
		return nil, ErrNotJoined
	}
	return p, nil
}

func (m *Match) attach(user PlayerID, client Broadcaster) {
	if client != nil {
		m.clients[user] = client
	}
}

func (m *Match) viewOf(p *Player) InitialView {
	view := InitialView{
		MatchID:   m.ID,
		PlayerID:  p.ID,
		Columns:   m.grid.Columns,
		Rows:      m.grid.Rows,
		Side:      m.grid.Side,
		Buildings: make([]BuildingState, 0, len(p.Buildings())),
		Units:     make([]UnitState, 0, len(p.Units())),
		Observed:  cellStates(p.ObservedCells()),
		Visited:   p.VisitedCells(),
		Opponents: make([]OpponentState, 0, len(p.Opponents())),
	}
	for _, b := range p.Buildings() {
		view.Buildings = append(view.Buildings, b.ToState())
	}
	for _, u := range p.Units() {
		view.Units = append(view.Units, u.ToState())
	}
	for _, rec := range p.Opponents() {
		view.Opponents = append(view.Opponents, rec.ToState())
	}
	return view
}

func cellStates(cells []*Cell) []CellState {
	out := make([]CellState, len(cells))
	for i, c := range cells {
		out[i] = c.ToState()
	}
	return out
}

// sendTo enqueues msg for user's connection, if any
func (m *Match) sendTo(user PlayerID, msg interface{}) {
	if c, ok := m.clients[user]; ok {
		c.Send(msg)
	}
}

func (m *Match) broadcast(msg interface{}) {
	for _, c := range m.clients {
		c.Send(msg)
	}
}

// Running reports whether the match still accepts intents
func (m *Match) Running() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}

// Open reports whether a new player could join
func (m *Match) Open() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running && len(m.binder.Players()) < m.cfg.MaxPlayers
}

// HasPlayer reports whether user is in the roster
func (m *Match) HasPlayer(user PlayerID) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.binder.Player(user)
	return ok
}

// PlayerCount returns the number of players
func (m *Match) PlayerCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.binder.Players())
}

// IdleSince returns when the last client detached. ok is false while any
// client is attached.
func (m *Match) IdleSince() (since time.Time, ok bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.clients) > 0 {
		return time.Time{}, false
	}
	return m.idleSince, true
}

// Info returns the match's list entry
func (m *Match) Info() MatchInfo {
	m.mu.Lock()
	defer m.mu.Unlock()
	return MatchInfo{
		ID:         m.ID,
		Players:    len(m.binder.Players()),
		MaxPlayers: m.cfg.MaxPlayers,
	}
}
