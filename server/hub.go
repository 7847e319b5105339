package server

import (
	"sync"

	"orbitfight/transport"
)

const (
	maxConnsPerIP = 5
	maxTotalConns = 256
	registerBuf   = 64
)

// Hub sits between the HTTP handlers and the tick loop: handlers hand new
// connections over, and the tick drains them into the spare session slot.
// Connection counting is guarded by a mutex because handlers run
// concurrently.
type Hub struct {
	register chan transport.Link

	connMu     sync.Mutex
	ipConns    map[string]int
	totalConns int
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{
		register: make(chan transport.Link, registerBuf),
		ipConns:  make(map[string]int),
	}
}

// CanAccept reports whether another connection from ip fits the limits.
func (h *Hub) CanAccept(ip string) bool {
	h.connMu.Lock()
	defer h.connMu.Unlock()
	if h.totalConns >= maxTotalConns {
		return false
	}
	return h.ipConns[ip] < maxConnsPerIP
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

// Offer hands link to the tick loop. It returns false when the backlog is
// full; the caller then owns the link and should close it.
func (h *Hub) Offer(link transport.Link) bool {
	select {
	case h.register <- link:
		return true
	default:
		return false
	}
}

// TotalConns returns the tracked connection count.
func (h *Hub) TotalConns() int {
	h.connMu.Lock()
	defer h.connMu.Unlock()
	return h.totalConns
}
