package main

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/skip2/go-qrcode"
)

const inviteQRSize = 256

// inviteURL builds the link a QR invite points to. base may be empty, in
// which case the request's own host is used.
func inviteURL(base string, r *http.Request, matchID string) string {
	if base == "" {
		scheme := "http"
		if r.TLS != nil {
			scheme = "https"
		}
		base = scheme + "://" + r.Host
	}
	q := url.Values{"match": []string{matchID}}
	return strings.TrimRight(base, "/") + "/?" + q.Encode()
}

// serveInvite renders a QR code that opens the client on a given match
func serveInvite(hub *Hub, publicURL string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		if _, ok := hub.matches.Get(id); !ok {
			http.Error(w, ErrMatchNotFound.Error(), http.StatusNotFound)
			return
		}
		png, err := qrcode.Encode(inviteURL(publicURL, r, id), qrcode.Medium, inviteQRSize)
		if err != nil {
			Log.WithError(err).WithField("match", id).Error("invite QR encode failed")
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		w.Header().Set("Cache-Control", "no-cache")
		w.Write(png)
	}
}
