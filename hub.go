package main

import "sync"

const (
	maxConnsPerIP = 5
	maxTotalConns = 1000
)

// Hub manages all connected clients and routes them to matches
type Hub struct {
	mu         sync.RWMutex
	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	matches    *MatchManager
	// Connection limiting (mutex-protected, accessed from HTTP handlers)
	connMu     sync.Mutex
	ipConns    map[string]int
	totalConns int
	// Auth & DB
	db     *DB
	auth   *Auth
	events *EventLog
	// Online auth users: user id -> *Client
	onlineMu    sync.RWMutex
	onlineUsers map[PlayerID]*Client
}

// NewHub creates a new Hub over the account database and match manager.
// Match lifecycle events go to the hub's event log.
func NewHub(db *DB, matches *MatchManager) *Hub {
	h := &Hub{
		clients:     make(map[*Client]bool),
		register:    make(chan *Client, 64),
		unregister:  make(chan *Client, 64),
		matches:     matches,
		ipConns:     make(map[string]int),
		db:          db,
		auth:        NewAuth(db),
		events:      NewEventLog(db),
		onlineUsers: make(map[PlayerID]*Client),
	}
	matches.TrackEvents(h.events)
	return h
}

// Close flushes the event log
func (h *Hub) Close() {
	h.events.Stop()
}

func (h *Hub) CanAccept(ip string) bool {
	h.connMu.Lock()
	defer h.connMu.Unlock()
	if h.totalConns >= maxTotalConns {
		return false
	}
	if h.ipConns[ip] >= maxConnsPerIP {
		return false
	}
	return true
}

func (h *Hub) TrackConnect(ip string) {
	h.connMu.Lock()
	defer h.connMu.Unlock()
	h.ipConns[ip]++
	h.totalConns++
}

func (h *Hub) TrackDisconnect(ip string) {
	h.connMu.Lock()
	defer h.connMu.Unlock()
	h.ipConns[ip]--
	if h.ipConns[ip] <= 0 {
		delete(h.ipConns, ip)
	}
	h.totalConns--
}

// Run processes register/unregister events
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
			h.events.Track(EvtConnect, client.userID, "", nil)

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			h.mu.Unlock()
			// Units keep moving; the match only loses the connection
			if client.match != nil {
				client.match.Detach(client.userID, client)
			}
			if client.userID != 0 {
				h.SetOffline(client.userID, client)
			}
			h.events.Track(EvtDisconnect, client.userID, "", nil)
		}
	}
}

// SetOnline marks an authenticated user as online
func (h *Hub) SetOnline(user PlayerID, client *Client) {
	h.onlineMu.Lock()
	defer h.onlineMu.Unlock()
	h.onlineUsers[user] = client
}

// SetOffline removes an authenticated user from online tracking unless a
// newer connection took over
func (h *Hub) SetOffline(user PlayerID, client *Client) {
	h.onlineMu.Lock()
	defer h.onlineMu.Unlock()
	if h.onlineUsers[user] == client {
		delete(h.onlineUsers, user)
	}
}

// IsOnline checks if a user is online
func (h *Hub) IsOnline(user PlayerID) bool {
	h.onlineMu.RLock()
	defer h.onlineMu.RUnlock()
	_, ok := h.onlineUsers[user]
	return ok
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// TotalConns returns the tracked connection count
func (h *Hub) TotalConns() int {
	h.connMu.Lock()
	defer h.connMu.Unlock()
	return h.totalConns
}
