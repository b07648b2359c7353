package main

import "encoding/json"

// Client -> Server message types
const (
	MsgRegister = "register"
	MsgLogin    = "login"
	MsgAuth     = "auth"
	MsgJoin     = "join"
	MsgPlace    = "place" // place a building
	MsgSpawn    = "spawn" // spawn a unit
	MsgMove     = "move"
	MsgList     = "list" // list matches
)

// Server -> Client message types
const (
	MsgAuthOK       = "auth_ok"
	MsgJoined       = "joined"   // initial view, also on rejoin
	MsgOpponent     = "opponent" // a new opponent joined the match
	MsgPlaced       = "placed"
	MsgSpawned      = "spawned"
	MsgMoveOK       = "move_ok"
	MsgMoveRejected = "move_rejected"
	MsgProgress     = "progress" // own unit advanced or arrived
	MsgMap          = "map"      // map-change delta
	MsgMatches      = "matches"
	MsgClosed       = "closed" // match stopped by the server
	MsgError        = "error"
)

// Envelope wraps all outgoing messages with a type field
type Envelope struct {
	T    string      `json:"t"`
	Data interface{} `json:"d,omitempty"`
}

// InEnvelope is used for incoming JSON messages; json.RawMessage avoids double-unmarshal
type InEnvelope struct {
	T string          `json:"t"`
	D json.RawMessage `json:"d,omitempty"`
}

// CellState is the wire form of a cell
type CellState struct {
	Column int      `json:"c"`
	Row    int      `json:"r"`
	Type   CellType `json:"t"`
}

// BuildingState is a value copy of a building. Opponent records store these,
// never the canonical building.
type BuildingState struct {
	ID      string       `json:"id"`
	OwnerID PlayerID     `json:"o"`
	Type    BuildingType `json:"k"`
	X       float64      `json:"x"`
	Y       float64      `json:"y"`
	Width   float64      `json:"w"`
	Length  float64      `json:"l"`
}

// UnitState is a value copy of a unit
type UnitState struct {
	ID      string   `json:"id"`
	OwnerID PlayerID `json:"o"`
	Type    UnitType `json:"k"`
	X       float64  `json:"x"`
	Y       float64  `json:"y"`
	Width   float64  `json:"w"`
	Length  float64  `json:"l"`
}

// OpponentState is what a player knows about one opponent
type OpponentState struct {
	ID        PlayerID        `json:"id"`
	Name      string          `json:"n"`
	Buildings []BuildingState `json:"b"`
	Units     []UnitState     `json:"u"`
}

// MapChange carries newly observed cells and newly seen or refreshed
// opponent entities. Empty slots are omitted.
type MapChange struct {
	Cells     []CellState     `json:"cells,omitempty"`
	Buildings []BuildingState `json:"buildings,omitempty"`
	Units     []UnitState     `json:"units,omitempty"`
}

// Empty reports whether the change carries nothing
func (m MapChange) Empty() bool {
	return len(m.Cells) == 0 && len(m.Buildings) == 0 && len(m.Units) == 0
}

// InitialView is sent on join and rejoin
type InitialView struct {
	MatchID   string          `json:"match"`
	PlayerID  PlayerID        `json:"id"`
	Columns   int             `json:"cols"`
	Rows      int             `json:"rows"`
	Side      float64         `json:"side"`
	Buildings []BuildingState `json:"buildings"`
	Units     []UnitState     `json:"units"`
	Observed  []CellState     `json:"observed"`
	Visited   []CellState     `json:"visited"`
	Opponents []OpponentState `json:"opponents"`
}

// JoinMsg asks to join a match; without a match id any open match is used
type JoinMsg struct {
	MatchID string `json:"match,omitempty"`
}

// PlaceIntent asks to place a building centred on (X, Y)
type PlaceIntent struct {
	Type BuildingType `json:"type" jsonschema:"enum=main,enum=barracks,enum=tower"`
	X    float64      `json:"x"`
	Y    float64      `json:"y"`
}

// SpawnIntent asks to spawn a unit centred on (X, Y)
type SpawnIntent struct {
	Type UnitType `json:"type" jsonschema:"enum=infantry,enum=scout"`
	X    float64  `json:"x"`
	Y    float64  `json:"y"`
}

// MoveIntent asks to move a unit through the given waypoints. The route
// starts at the unit's current position; ID is chosen by the client and
// echoed back.
type MoveIntent struct {
	ID     string  `json:"id" jsonschema:"minLength=1"`
	UnitID string  `json:"unit" jsonschema:"minLength=1"`
	Path   []Point `json:"path" jsonschema:"minItems=1"`
}

// MoveAccepted confirms a move. When Sliced is set, Path holds the
// truncated route the unit will actually follow.
type MoveAccepted struct {
	ID     string  `json:"id"`
	UnitID string  `json:"unit"`
	Start  int64   `json:"start"` // unix millis
	Sliced bool    `json:"sliced,omitempty"`
	Path   []Point `json:"path,omitempty"`
}

// MoveRejected tells the owner a move was refused; the unit is unchanged
type MoveRejected struct {
	ID     string `json:"id"`
	UnitID string `json:"unit"`
	Reason string `json:"reason"`
}

// ProgressReport is sent to the owner after each movement step
type ProgressReport struct {
	MoveID    string  `json:"id"`
	UnitID    string  `json:"unit"`
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	NextPoint int     `json:"next"` // index of the path point the unit heads for
	At        int64   `json:"at"`   // unix millis of the step
	Arrived   bool    `json:"arrived,omitempty"`
}

// MatchInfo is used in the match list
type MatchInfo struct {
	ID         string `json:"id"`
	Players    int    `json:"players"`
	MaxPlayers int    `json:"max"`
}

// ServerStats is served by /api/stats; counters cover the last day
type ServerStats struct {
	Online      int            `json:"online"`
	Matches     int            `json:"matches"`
	ActiveToday int            `json:"active_today"`
	Events      map[string]int `json:"events"`
	Ended       MatchStats     `json:"ended"`
}

// ClosedMsg tells players their match was stopped
type ClosedMsg struct {
	MatchID string `json:"match"`
	Reason  string `json:"reason"`
}

// ErrorMsg sends error to client
type ErrorMsg struct {
	Msg string `json:"msg"`
}

// RegisterMsg creates an account
type RegisterMsg struct {
	Username string `json:"username" jsonschema:"minLength=2,maxLength=16"`
	Password string `json:"password" jsonschema:"minLength=4"`
}

// LoginMsg authenticates with username and password
type LoginMsg struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// AuthMsg authenticates with a previously issued token
type AuthMsg struct {
	Token string `json:"token"`
}

// AuthOKMsg is sent after a successful register, login or auth
type AuthOKMsg struct {
	Token    string   `json:"token"`
	Username string   `json:"username"`
	PlayerID PlayerID `json:"pid"`
}
