package server

import (
	"net"
	"net/http"
	"net/url"

	"github.com/gorilla/websocket"

	"orbitfight/transport"
)

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

// SetupRoutes configures the game socket, the public pages and the admin
// surface. auth and db may be nil, which leaves those routes answering 503.
func SetupRoutes(s *Server, auth *Auth, db *DB) *http.ServeMux {
	mux := http.NewServeMux()
	// read once; the settings belong to the tick goroutine afterwards
	msgLimit := s.cfg.MaxMessagesPerSec

	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		ip := extractIP(r)
		if !s.hub.CanAccept(ip) {
			http.Error(w, "too many connections", http.StatusServiceUnavailable)
			return
		}

		ws, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			s.log.Warnf("upgrade error: %v", err)
			return
		}

		s.hub.TrackConnect(ip)
		conn := transport.NewConn(ws, msgLimit)
		conn.OnClose = func() { s.hub.TrackDisconnect(ip) }
		conn.Start()
		if !s.hub.Offer(conn) {
			s.log.Warnf("An incoming connection has failed: accept backlog full")
			conn.Close()
		}
	})

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("/join.png", handleJoinQR(s.cfg.PublicURL))

	admin := &adminAPI{srv: s, auth: auth, db: db}
	admin.register(mux)
	return mux
}
