package server

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"orbitfight/game"
	"orbitfight/transport"
)

const maxNameLen = 16

// State is where a session is in its lifecycle.
type State uint8

const (
	StateConnecting State = iota
	StateActive
	StateTimedOut
	StateDisconnected
	StateRemoved
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateActive:
		return "active"
	case StateTimedOut:
		return "timed out"
	case StateDisconnected:
		return "disconnected"
	case StateRemoved:
		return "removed"
	}
	return fmt.Sprintf("state(%d)", uint8(s))
}

// Session is the server-side bookkeeping for one connection and the ship it
// controls. Only the tick goroutine touches it.
type Session struct {
	ID       game.OwnerID
	Username string
	IP       string
	Port     int
	State    State

	// LastAck and LastPingSent are simulated seconds.
	LastAck      float64
	LastPingSent float64

	Controls game.Controls
	ViewW    float64
	ViewH    float64

	// Ship is the controlled entity; zero once it is gone.
	Ship game.ID

	link transport.Link
}

func newSession(id game.OwnerID) *Session {
	return &Session{ID: id, State: StateConnecting}
}

// Name is the username, or ip:port before the client has introduced itself.
func (s *Session) Name() string {
	if s.Username != "" {
		return s.Username
	}
	return fmt.Sprintf("%s:%d", s.IP, s.Port)
}

// Send queues one packet for the peer.
func (s *Session) Send(pkt []byte) error {
	if s.link == nil {
		return transport.ErrClosed
	}
	return s.link.Send(pkt)
}

func (s *Session) attach(link transport.Link) {
	s.link = link
	s.IP, s.Port = link.RemoteAddr()
}

// SanitizeName trims a requested username to maxNameLen bytes and drops
// control characters and surrounding space.
func SanitizeName(name string) string {
	name = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, name)
	name = strings.TrimSpace(name)
	if len(name) > maxNameLen {
		name = name[:maxNameLen]
		// don't cut a rune in half
		for len(name) > 0 && !utf8.ValidString(name) {
			name = name[:len(name)-1]
		}
	}
	return name
}
