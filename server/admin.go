package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/skip2/go-qrcode"

	"orbitfight/game"
)

const (
	qrSize           = 256
	leaderboardLimit = 20
)

// adminAPI serves the command surface over HTTP. Every call into the game
// goes through Server.Call so it runs on the tick goroutine.
type adminAPI struct {
	srv  *Server
	auth *Auth
	db   *DB
}

func (a *adminAPI) register(mux *http.ServeMux) {
	mux.HandleFunc("POST /admin/login", a.handleLogin)
	mux.HandleFunc("GET /admin/entity", a.guard(a.handleEntity))
	mux.HandleFunc("GET /admin/count", a.guard(a.handleCount))
	mux.HandleFunc("POST /admin/reset", a.guard(a.handleReset))
	mux.HandleFunc("POST /admin/say", a.guard(a.handleSay))
	mux.HandleFunc("GET /admin/players", a.guard(a.handlePlayers))
	mux.HandleFunc("GET /admin/leaderboard", a.guard(a.handleLeaderboard))
	mux.HandleFunc("GET /admin/world", a.guard(a.handleWorld))
}

func (a *adminAPI) guard(next http.HandlerFunc) http.HandlerFunc {
	if a.auth == nil {
		return func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "admin disabled", http.StatusServiceUnavailable)
		}
	}
	return a.auth.Require(next)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func (a *adminAPI) handleLogin(w http.ResponseWriter, r *http.Request) {
	if a.auth == nil {
		http.Error(w, "admin disabled", http.StatusServiceUnavailable)
		return
	}
	var body struct {
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	token, err := a.auth.Login(body.Password, extractIP(r))
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnauthorized)
		return
	}
	writeJSON(w, map[string]string{"token": token})
}

// call runs fn on the tick goroutine, answering 503 if the loop is gone.
func (a *adminAPI) call(w http.ResponseWriter, r *http.Request, fn func()) bool {
	if err := a.srv.Call(r.Context(), fn); err != nil {
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
		return false
	}
	return true
}

func (a *adminAPI) handleEntity(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseUint(r.URL.Query().Get("id"), 10, 32)
	if err != nil {
		http.Error(w, "bad id", http.StatusBadRequest)
		return
	}
	var snap game.Snapshot
	var ok bool
	if !a.call(w, r, func() { snap, ok = a.srv.LookupEntity(game.ID(id)) }) {
		return
	}
	if !ok {
		http.Error(w, fmt.Sprintf("no entity %d", id), http.StatusNotFound)
		return
	}
	writeJSON(w, snap)
}

func (a *adminAPI) handleCount(w http.ResponseWriter, r *http.Request) {
	var n int
	if !a.call(w, r, func() { n = a.srv.EntityCount() }) {
		return
	}
	writeJSON(w, map[string]int{"count": n, "connections": a.srv.hub.TotalConns()})
}

func (a *adminAPI) handleReset(w http.ResponseWriter, r *http.Request) {
	var n int
	if !a.call(w, r, func() {
		a.srv.RegenerateWorld()
		n = a.srv.EntityCount()
	}) {
		return
	}
	writeJSON(w, map[string]int{"count": n})
}

func (a *adminAPI) handleSay(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Message string `json:"message"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Message == "" {
		http.Error(w, "invalid message", http.StatusBadRequest)
		return
	}
	if !a.call(w, r, func() { a.srv.BroadcastChat(body.Message) }) {
		return
	}
	writeJSON(w, map[string]bool{"ok": true})
}

func (a *adminAPI) handlePlayers(w http.ResponseWriter, r *http.Request) {
	var players []PlayerInfo
	if !a.call(w, r, func() { players = a.srv.Players() }) {
		return
	}
	writeJSON(w, players)
}

func (a *adminAPI) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	if a.db == nil {
		http.Error(w, "stats disabled", http.StatusServiceUnavailable)
		return
	}
	rows, err := a.db.Leaderboard(leaderboardLimit)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, rows)
}

// handleWorld streams the msgpack world dump.
func (a *adminAPI) handleWorld(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	var err error
	if !a.call(w, r, func() { err = game.SaveWorld(&buf, a.srv.world) }) {
		return
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/msgpack")
	_, _ = w.Write(buf.Bytes())
}

// handleJoinQR renders the client connect URL as a QR code.
func handleJoinQR(publicURL string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		target := publicURL
		if target == "" {
			target = "ws://" + r.Host + "/ws"
		}
		png, err := qrcode.Encode(target, qrcode.Medium, qrSize)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(png)
	}
}
