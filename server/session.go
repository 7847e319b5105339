package server

import (
	"errors"
	"math/rand/v2"
	"slices"

	"orbitfight/game"
	"orbitfight/transport"
)

// accept turns the spare slot into an active session on link, primes it
// with the whole world and gives it a ship. A fresh spare is allocated.
func (s *Server) accept(link transport.Link) *Session {
	sess := s.spare
	sess.attach(link)
	sess.State = StateActive
	sess.LastAck = s.world.Time
	s.roster = append(s.roster, sess)
	s.log.Infof("%s has connected.", sess.Name())

	for _, pkt := range game.BatchPackets(s.world.Entities()) {
		s.sendTo(sess, pkt)
	}

	ship := game.NewEntity(game.KindShip)
	ship.Owner = sess.ID
	ship.Color = shipColor(s.rng)
	ship.Ship.Name = sess.Name()
	s.world.PlaceShip(ship)
	s.world.Spawn(ship)
	sess.Ship = ship.ID
	s.sendTo(sess, game.WelcomePacket(ship.ID))

	s.ledger.Track(EvtConnect, sess.Name())

	s.nextSession++
	s.spare = newSession(s.nextSession)
	return sess
}

// pollSessions runs keepalive bookkeeping and drains inbound packets for
// every session. Sessions removed along the way are skipped.
func (s *Server) pollSessions() {
	roster := slices.Clone(s.roster)
	for _, sess := range roster {
		if sess.State != StateActive {
			continue
		}
		s.pollSession(sess)
	}
}

func (s *Server) pollSession(sess *Session) {
	now := s.world.Time
	if now-sess.LastAck > s.cfg.MaxAckTime {
		s.removeSession(sess, StateTimedOut)
		return
	}
	keepalive := s.cfg.KeepaliveTime
	if now-sess.LastAck > keepalive && now-sess.LastPingSent > keepalive {
		err := sess.Send(game.AckPacket())
		switch {
		case errors.Is(err, transport.ErrClosed):
			s.removeSession(sess, StateDisconnected)
			return
		case err != nil:
			s.log.Warnf("Error when trying to send ping packet to player %s: %v", sess.Name(), err)
		}
		sess.LastPingSent = now
	}

	for sess.State == StateActive {
		pkt, err := sess.link.Recv()
		if err != nil {
			if errors.Is(err, transport.ErrRateLimited) {
				s.log.Warnf("rate limit exceeded for %s, disconnecting", sess.Name())
			}
			s.removeSession(sess, StateDisconnected)
			return
		}
		if pkt == nil {
			return
		}
		sess.LastAck = s.world.Time
		s.handlePacket(sess, pkt)
	}
}

// removeSession closes the connection, drops the session from the roster
// and destroys its ship. It runs at most once per session and reports
// whether this call did the removal.
func (s *Server) removeSession(sess *Session, reason State) bool {
	if sess.State != StateActive {
		return false
	}
	sess.State = reason
	switch reason {
	case StateTimedOut:
		s.log.Infof("Player %s's connection has timed out.", sess.Name())
		s.ledger.Track(EvtTimeout, sess.Name())
	default:
		s.log.Infof("Player %s has disconnected.", sess.Name())
		s.ledger.Track(EvtDisconnect, sess.Name())
	}
	if sess.link != nil {
		_ = sess.link.Close()
	}
	if i := slices.Index(s.roster, sess); i >= 0 {
		s.roster = slices.Delete(s.roster, i, i+1)
	}
	if sess.Ship != 0 {
		s.world.Destroy(sess.Ship)
		sess.Ship = 0
	}
	sess.State = StateRemoved
	return true
}

// controlShips applies every session's held controls to its ship.
func (s *Server) controlShips() {
	for _, sess := range s.roster {
		if ship, ok := s.world.Store().Get(sess.Ship); ok {
			s.world.Control(ship, sess.Controls)
		}
	}
}

// sessionByOwner finds the active session with the given id.
func (s *Server) sessionByOwner(id game.OwnerID) *Session {
	if id == 0 {
		return nil
	}
	for _, sess := range s.roster {
		if sess.ID == id {
			return sess
		}
	}
	return nil
}

func (s *Server) sendTo(sess *Session, pkt []byte) {
	if err := sess.Send(pkt); err != nil && !errors.Is(err, transport.ErrClosed) {
		s.log.Warnf("send to %s: %v", sess.Name(), err)
	}
}

// broadcast queues pkt for every session. A closed peer is left for the
// next poll to remove.
func (s *Server) broadcast(pkt []byte) {
	for _, sess := range s.roster {
		s.sendTo(sess, pkt)
	}
}

func shipColor(rng *rand.Rand) [3]uint8 {
	return [3]uint8{
		uint8(96 + rng.IntN(160)),
		uint8(96 + rng.IntN(160)),
		uint8(96 + rng.IntN(160)),
	}
}
