package main

import (
	"database/sql"
	"encoding/json"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// Event types recorded in the match event log
const (
	EvtMatchStart = "match_start"
	EvtMatchEnd   = "match_end"
	EvtPlayerJoin = "player_join"
	EvtConnect    = "connect"
	EvtDisconnect = "disconnect"
)

const (
	eventBuffer     = 1024
	eventBatchSize  = 50
	eventFlushEvery = 5 * time.Second
)

// EventTracker receives match lifecycle events
type EventTracker interface {
	Track(evtType string, user PlayerID, matchID string, data interface{})
}

// LoggedEvent is one row of the event log
type LoggedEvent struct {
	Type    string
	User    PlayerID
	MatchID string
	Data    string // JSON, may be empty
	At      time.Time
}

// EventLog writes events to the database in batches from a background
// goroutine. Match state itself is never persisted; only what happened.
type EventLog struct {
	db     *DB
	events chan LoggedEvent
	stop   chan struct{}
	once   sync.Once
	wg     sync.WaitGroup
}

// NewEventLog creates and starts the background writer
func NewEventLog(db *DB) *EventLog {
	l := &EventLog{
		db:     db,
		events: make(chan LoggedEvent, eventBuffer),
		stop:   make(chan struct{}),
	}
	l.wg.Add(1)
	go l.writer()
	return l
}

// Track enqueues an event without blocking; events are dropped when the
// buffer is full
func (l *EventLog) Track(evtType string, user PlayerID, matchID string, data interface{}) {
	evt := LoggedEvent{Type: evtType, User: user, MatchID: matchID, At: time.Now().UTC()}
	if data != nil {
		if b, err := json.Marshal(data); err == nil {
			evt.Data = string(b)
		}
	}
	select {
	case l.events <- evt:
	default:
		Log.WithField("event", evtType).Debug("event log full, dropping event")
	}
}

// Stop flushes pending events and stops the writer
func (l *EventLog) Stop() {
	l.once.Do(func() { close(l.stop) })
	l.wg.Wait()
}

func (l *EventLog) writer() {
	defer l.wg.Done()

	batch := make([]LoggedEvent, 0, eventBatchSize)
	ticker := time.NewTicker(eventFlushEvery)
	defer ticker.Stop()

	for {
		select {
		case evt := <-l.events:
			batch = append(batch, evt)
			if len(batch) >= eventBatchSize {
				l.flush(batch)
				batch = batch[:0]
			}
		case <-ticker.C:
			l.flush(batch)
			batch = batch[:0]
		case <-l.stop:
			for {
				select {
				case evt := <-l.events:
					batch = append(batch, evt)
				default:
					l.flush(batch)
					return
				}
			}
		}
	}
}

func (l *EventLog) flush(events []LoggedEvent) {
	if l.db == nil || len(events) == 0 {
		return
	}
	tx, err := l.db.conn.Begin()
	if err != nil {
		Log.WithError(err).Warn("event log: begin failed")
		return
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`INSERT INTO match_events (event_type, player_id, match_id, data, created_at) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		Log.WithError(err).Warn("event log: prepare failed")
		return
	}
	defer stmt.Close()

	for _, evt := range events {
		user := sql.NullInt64{Int64: int64(evt.User), Valid: evt.User > 0}
		match := sql.NullString{String: evt.MatchID, Valid: evt.MatchID != ""}
		data := sql.NullString{String: evt.Data, Valid: evt.Data != ""}
		if _, err := stmt.Exec(evt.Type, user, match, data, evt.At.Format(time.RFC3339)); err != nil {
			Log.WithError(err).WithField("event", evt.Type).Warn("event log: insert failed")
		}
	}
	if err := tx.Commit(); err != nil {
		Log.WithError(err).WithFields(logrus.Fields{"events": len(events)}).Warn("event log: commit failed")
	}
}

// ActivePlayers returns the number of distinct players with any event in
// the last days days
func (l *EventLog) ActivePlayers(days int) (int, error) {
	var count int
	err := l.db.conn.QueryRow(`
		SELECT COUNT(DISTINCT player_id) FROM match_events
		WHERE player_id IS NOT NULL AND created_at >= date('now', '-' || ? || ' days')
	`, days).Scan(&count)
	return count, err
}

// EventCounts returns the count of each event type in the last days days
func (l *EventLog) EventCounts(days int) (map[string]int, error) {
	rows, err := l.db.conn.Query(`
		SELECT event_type, COUNT(*) FROM match_events
		WHERE created_at >= date('now', '-' || ? || ' days')
		GROUP BY event_type
	`, days)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make(map[string]int)
	for rows.Next() {
		var typ string
		var count int
		if err := rows.Scan(&typ, &count); err != nil {
			return nil, err
		}
		result[typ] = count
	}
	return result, rows.Err()
}

// MatchStats summarises the matches that ended in a period
type MatchStats struct {
	Ended       int     `json:"ended"`
	AvgDuration float64 `json:"avg_duration"` // seconds
	AvgPlayers  float64 `json:"avg_players"`
}

// EndedMatches aggregates match_end events of the last days days
func (l *EventLog) EndedMatches(days int) (MatchStats, error) {
	var s MatchStats
	var dur, players sql.NullFloat64
	err := l.db.conn.QueryRow(`
		SELECT COUNT(*),
			AVG(CAST(json_extract(data, '$.duration') AS REAL)),
			AVG(CAST(json_extract(data, '$.players') AS REAL))
		FROM match_events
		WHERE event_type = ? AND json_valid(data) AND created_at >= date('now', '-' || ? || ' days')
	`, EvtMatchEnd, days).Scan(&s.Ended, &dur, &players)
	s.AvgDuration = dur.Float64
	s.AvgPlayers = players.Float64
	return s, err
}

// matchEnd is the payload of a match_end event
type matchEnd struct {
	Duration float64 `json:"duration"`
	Players  int     `json:"players"`
}
