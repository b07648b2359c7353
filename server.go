package main

import (
	"encoding/json"
	"net"
	"net/http"
	"net/url"
	"path/filepath"
	"regexp"

	"github.com/gorilla/websocket"
)

var uuidPathRe = regexp.MustCompile(`^/[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$`)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true // Non-browser clients don't send Origin
		}
		u, err := url.Parse(origin)
		if err != nil {
			return false
		}
		return u.Host == r.Host
	},
}

func extractIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// SetupRoutes configures HTTP routes
func SetupRoutes(hub *Hub, cfg Config) *http.ServeMux {
	mux := http.NewServeMux()

	if cfg.ClientDir != "" {
		// Serve static files with no-cache so browsers always revalidate
		fs := http.FileServer(http.Dir(cfg.ClientDir))
		mux.Handle("/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Cache-Control", "no-cache")
			// SPA: serve index.html for root and match id paths
			if r.URL.Path == "/" || uuidPathRe.MatchString(r.URL.Path) {
				http.ServeFile(w, r, filepath.Join(cfg.ClientDir, "index.html"))
				return
			}
			fs.ServeHTTP(w, r)
		}))
	}

	// WebSocket endpoint
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		ip := extractIP(r)
		if !hub.CanAccept(ip) {
			http.Error(w, "too many connections", http.StatusServiceUnavailable)
			return
		}

		// A bearer token authenticates the connection up front
		var user PlayerID
		var username string
		if token, ok := bearerToken(r.Header.Get("Authorization")); ok {
			id, name, err := hub.auth.ValidateToken(token)
			if err != nil {
				http.Error(w, ErrNotAuthenticated.Error(), http.StatusUnauthorized)
				return
			}
			user, username = id, name
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			Log.WithError(err).WithField("remote", ip).Warn("upgrade failed")
			return
		}

		hub.TrackConnect(ip)

		client := NewClient(hub, conn, ip, codecFor(r.URL.Query().Get("enc")))
		if user != 0 {
			client.authenticate(user, username)
		}
		hub.register <- client

		go client.WritePump()
		go client.ReadPump()
	})

	mux.HandleFunc("POST /api/login", func(w http.ResponseWriter, r *http.Request) {
		var msg LoginMsg
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxMessageSize)).Decode(&msg); err != nil {
			writeJSON(w, http.StatusBadRequest, ErrorMsg{Msg: ErrMalformedIntent.Error()})
			return
		}
		id, token, err := hub.auth.Login(msg.Username, msg.Password, extractIP(r))
		if err != nil {
			writeJSON(w, http.StatusUnauthorized, ErrorMsg{Msg: err.Error()})
			return
		}
		writeJSON(w, http.StatusOK, AuthOKMsg{Token: token, Username: msg.Username, PlayerID: id})
	})

	mux.HandleFunc("GET /api/renew", func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r.Header.Get("Authorization"))
		if !ok {
			writeJSON(w, http.StatusUnauthorized, ErrorMsg{Msg: ErrNotAuthenticated.Error()})
			return
		}
		id, username, err := hub.auth.ValidateToken(token)
		if err != nil {
			writeJSON(w, http.StatusUnauthorized, ErrorMsg{Msg: ErrNotAuthenticated.Error()})
			return
		}
		fresh, err := hub.auth.Renew(token)
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, ErrorMsg{Msg: "internal error"})
			return
		}
		writeJSON(w, http.StatusOK, AuthOKMsg{Token: fresh, Username: username, PlayerID: id})
	})

	mux.HandleFunc("GET /api/matches", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, hub.matches.List())
	})

	mux.HandleFunc("GET /api/stats", func(w http.ResponseWriter, r *http.Request) {
		stats := ServerStats{Online: hub.ClientCount(), Matches: hub.matches.Count()}
		var err error
		if stats.ActiveToday, err = hub.events.ActivePlayers(1); err == nil {
			if stats.Events, err = hub.events.EventCounts(1); err == nil {
				stats.Ended, err = hub.events.EndedMatches(1)
			}
		}
		if err != nil {
			Log.WithError(err).Warn("stats query failed")
			writeJSON(w, http.StatusInternalServerError, ErrorMsg{Msg: "internal error"})
			return
		}
		writeJSON(w, http.StatusOK, stats)
	})

	mux.HandleFunc("GET /protocol/schema.json", serveProtocolSchema)
	mux.HandleFunc("GET /matches/{id}/invite.png", serveInvite(hub, cfg.PublicURL))

	return mux
}
