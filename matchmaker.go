package main

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// MatchIdleTimeout is how long a match with no attached clients survives.
// It is a var so tests can shorten it.
var MatchIdleTimeout = 2 * time.Minute

// reapInterval is how often idle matches are looked for
var reapInterval = 10 * time.Second

// MatchManager creates matches on demand and routes users to them
type MatchManager struct {
	mu         sync.RWMutex
	matches    *orderedIndex[string, *Match] // creation order
	byUser     map[PlayerID]string
	cfg        MatchConfig
	maxMatches int
	events     EventTracker
}

// NewMatchManager creates a manager that starts matches with cfg
func NewMatchManager(cfg MatchConfig, maxMatches int) *MatchManager {
	return &MatchManager{
		matches:    newOrderedIndex[string, *Match](),
		byUser:     make(map[PlayerID]string),
		cfg:        cfg,
		maxMatches: maxMatches,
	}
}

// TrackEvents sends match lifecycle events to t
func (mm *MatchManager) TrackEvents(t EventTracker) {
	mm.mu.Lock()
	mm.events = t
	mm.mu.Unlock()
}

func (mm *MatchManager) track(evtType string, user PlayerID, matchID string, data interface{}) {
	mm.mu.RLock()
	t := mm.events
	mm.mu.RUnlock()
	if t != nil {
		t.Track(evtType, user, matchID, data)
	}
}

// Join puts user into a match and returns it with the user's initial view.
// A user already playing goes back to their match. Otherwise matchID picks
// a specific match, and an empty matchID picks the oldest open match or
// starts a new one.
func (mm *MatchManager) Join(user PlayerID, name string, client Broadcaster, matchID string) (*Match, InitialView, error) {
	m, err := mm.pick(user, matchID)
	if err != nil {
		return nil, InitialView{}, err
	}
	view, err := m.Join(user, name, client)
	if err != nil {
		return nil, InitialView{}, fmt.Errorf("match %s: %w", m.ID, err)
	}

	mm.mu.Lock()
	_, known := mm.byUser[user]
	mm.byUser[user] = m.ID
	mm.mu.Unlock()
	if !known {
		mm.track(EvtPlayerJoin, user, m.ID, nil)
	}
	return m, view, nil
}

func (mm *MatchManager) pick(user PlayerID, matchID string) (*Match, error) {
	mm.mu.Lock()
	defer mm.mu.Unlock()

	if id, ok := mm.byUser[user]; ok {
		if m, ok := mm.matches.Get(id); ok && m.Running() {
			return m, nil
		}
		delete(mm.byUser, user)
	}

	if matchID != "" {
		m, ok := mm.matches.Get(matchID)
		if !ok {
			return nil, ErrMatchNotFound
		}
		return m, nil
	}

	var open *Match
	mm.matches.Each(func(_ string, m *Match) bool {
		if m.Open() {
			open = m
			return false
		}
		return true
	})
	if open != nil {
		return open, nil
	}

	if mm.matches.Len() >= mm.maxMatches {
		return nil, ErrTooManyMatches
	}
	m := NewMatch(mm.cfg)
	m.onClose = mm.remove
	mm.matches.Put(m.ID, m)
	go m.Run()
	Log.WithField("match", m.ID).Info("match started")
	if mm.events != nil {
		mm.events.Track(EvtMatchStart, user, m.ID, nil)
	}
	return m, nil
}

// Get returns a match by id
func (mm *MatchManager) Get(id string) (*Match, bool) {
	mm.mu.RLock()
	defer mm.mu.RUnlock()
	return mm.matches.Get(id)
}

// MatchOfUser returns the match user plays in
func (mm *MatchManager) MatchOfUser(user PlayerID) (*Match, bool) {
	mm.mu.RLock()
	defer mm.mu.RUnlock()
	id, ok := mm.byUser[user]
	if !ok {
		return nil, false
	}
	return mm.matches.Get(id)
}

// List returns info about all matches in creation order
func (mm *MatchManager) List() []MatchInfo {
	mm.mu.RLock()
	matches := mm.matches.Values()
	mm.mu.RUnlock()

	list := make([]MatchInfo, 0, len(matches))
	for _, m := range matches {
		list = append(list, m.Info())
	}
	return list
}

// Count returns the number of live matches
func (mm *MatchManager) Count() int {
	mm.mu.RLock()
	defer mm.mu.RUnlock()
	return mm.matches.Len()
}

// remove stops m and forgets it along with its users
func (mm *MatchManager) remove(m *Match) {
	m.Stop()

	mm.mu.Lock()
	if !mm.matches.Delete(m.ID) {
		mm.mu.Unlock()
		return
	}
	for user, id := range mm.byUser {
		if id == m.ID {
			delete(mm.byUser, user)
		}
	}
	mm.mu.Unlock()

	Log.WithField("match", m.ID).Info("match removed")
	mm.track(EvtMatchEnd, 0, m.ID, matchEnd{
		Duration: time.Since(m.Started).Seconds(),
		Players:  m.PlayerCount(),
	})
}

// ReapIdle removes every match that has had no attached client for
// MatchIdleTimeout and returns how many it removed
func (mm *MatchManager) ReapIdle(now time.Time) int {
	mm.mu.RLock()
	matches := mm.matches.Values()
	mm.mu.RUnlock()

	n := 0
	for _, m := range matches {
		since, idle := m.IdleSince()
		if idle && now.Sub(since) >= MatchIdleTimeout {
			mm.remove(m)
			n++
		}
	}
	return n
}

// Run reaps idle matches until ctx is done, then stops every match
func (mm *MatchManager) Run(ctx context.Context) {
	ticker := time.NewTicker(reapInterval)
	defer ticker.Stop()

	for {
		select {
		case now := <-ticker.C:
			mm.ReapIdle(now)
		case <-ctx.Done():
			mm.Shutdown()
			return
		}
	}
}

// Shutdown stops and removes every match
func (mm *MatchManager) Shutdown() {
	mm.mu.RLock()
	matches := mm.matches.Values()
	mm.mu.RUnlock()
	for _, m := range matches {
		mm.remove(m)
	}
}
