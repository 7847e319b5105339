package server

import (
	"orbitfight/game"
)

// handlePacket applies one inbound packet from sess. Bad packets are
// dropped; they never cost the session its connection.
func (s *Server) handlePacket(sess *Session, pkt []byte) {
	op, r, err := game.ReadOpcode(pkt)
	if err != nil {
		s.log.Debugf("drop packet from %s: %v", sess.Name(), err)
		return
	}
	switch op {
	case game.OpAck:
		// lastAck is already stamped
	case game.OpControls:
		c := game.Controls(r.U8())
		if r.Err() != nil {
			return
		}
		sess.Controls = c
	case game.OpHello:
		name := r.Str()
		viewW, viewH := r.F64(), r.F64()
		if err := r.Err(); err != nil {
			s.log.Debugf("drop hello from %s: %v", sess.Name(), err)
			return
		}
		s.hello(sess, SanitizeName(name), viewW, viewH)
	default:
		s.log.Debugf("unexpected opcode %d from %s", op, sess.Name())
	}
}

// hello records the client's username and view size and renames its ship.
func (s *Server) hello(sess *Session, name string, viewW, viewH float64) {
	sess.ViewW, sess.ViewH = viewW, viewH
	if name == "" || name == sess.Username {
		return
	}
	old := sess.Name()
	sess.Username = name
	s.log.Infof("%s is now known as %s.", old, name)
	if ship, ok := s.world.Store().Get(sess.Ship); ok {
		ship.Ship.Name = name
		s.broadcast(game.CreatePacket(ship))
	}
}
