package game

import (
	"errors"
	"fmt"
)

// Opcode is the first byte of every packet.
type Opcode uint8

const (
	OpAck      Opcode = 0 // also sent as ping
	OpCreate   Opcode = 1
	OpDelete   Opcode = 2
	OpChat     Opcode = 3
	OpBatch    Opcode = 4 // priming burst of creates
	OpSync     Opcode = 5
	OpControls Opcode = 6 // client -> server
	OpHello    Opcode = 7 // client -> server
	OpWelcome  Opcode = 8
)

// maxBatch is the most creates one Batch packet carries.
const maxBatch = 256

var (
	ErrUnknownKind   = errors.New("unknown entity kind")
	ErrUnknownOpcode = errors.New("unknown opcode")
	ErrEmptyPacket   = errors.New("empty packet")
)

// ReadOpcode splits a packet into its opcode and a reader over the payload.
func ReadOpcode(pkt []byte) (Opcode, *Reader, error) {
	if len(pkt) == 0 {
		return 0, nil, ErrEmptyPacket
	}
	op := Opcode(pkt[0])
	if op > OpWelcome {
		return op, nil, fmt.Errorf("%w %d", ErrUnknownOpcode, op)
	}
	return op, NewReader(pkt[1:]), nil
}

// EncodeCreate writes [kind, id, x, y, velX, velY, kind fields].
func EncodeCreate(w *Writer, e *Entity) {
	w.U8(uint8(e.Kind))
	w.U32(uint32(e.ID))
	w.F64(e.X)
	w.F64(e.Y)
	w.F64(e.VelX)
	w.F64(e.VelY)
	switch e.Kind {
	case KindShip:
		s := e.Ship
		w.F64(s.Heading)
		w.F64(s.LastBoosted)
		w.F64(s.LastShot)
		w.F64(s.HyperCharge)
		writeColor(w, e.Color)
		w.Str(s.Name)
	case KindGravitySource:
		w.F64(e.Radius)
		w.F64(e.Mass)
		writeColor(w, e.Color)
		w.U8(uint8(e.Source.Class))
	}
}

// DecodeCreate reads a create payload into a fresh ghost. The id comes from
// the wire; the caller finalizes the ghost with Store.Adopt or World.Upsert.
func DecodeCreate(r *Reader) (*Entity, error) {
	kind := Kind(r.U8())
	if err := r.Err(); err != nil {
		return nil, err
	}
	if !kind.Valid() {
		return nil, fmt.Errorf("%w %d", ErrUnknownKind, kind)
	}
	e := NewEntity(kind)
	e.ID = ID(r.U32())
	e.X = r.F64()
	e.Y = r.F64()
	e.VelX = r.F64()
	e.VelY = r.F64()
	switch kind {
	case KindShip:
		s := e.Ship
		s.Heading = r.F64()
		s.LastBoosted = r.F64()
		s.LastShot = r.F64()
		s.HyperCharge = r.F64()
		e.Color = readColor(r)
		s.Name = r.Str()
	case KindGravitySource:
		e.Radius = r.F64()
		e.Mass = r.F64()
		e.Color = readColor(r)
		e.Source.Class = WellClass(r.U8())
	}
	if err := r.Err(); err != nil {
		return nil, err
	}
	return e, nil
}

// EncodeSync writes [kind, id, mutable fields].
func EncodeSync(w *Writer, e *Entity) {
	w.U8(uint8(e.Kind))
	w.U32(uint32(e.ID))
	w.F64(e.X)
	w.F64(e.Y)
	w.F64(e.VelX)
	w.F64(e.VelY)
	if e.Kind == KindShip {
		w.F64(e.Ship.Heading)
	}
}

// DecodeSync reads one sync entry into the entity lookup resolves. Entries
// for unknown ids are read into a scratch ghost and dropped. Fields not in a
// sync entry are left untouched.
func DecodeSync(r *Reader, lookup func(ID) (*Entity, bool)) (*Entity, error) {
	kind := Kind(r.U8())
	id := ID(r.U32())
	if err := r.Err(); err != nil {
		return nil, err
	}
	if !kind.Valid() {
		return nil, fmt.Errorf("%w %d", ErrUnknownKind, kind)
	}
	target, ok := lookup(id)
	if !ok || target.Kind != kind {
		target = NewEntity(kind)
		ok = false
	}
	x, y, vx, vy := r.F64(), r.F64(), r.F64(), r.F64()
	var heading float64
	if kind == KindShip {
		heading = r.F64()
	}
	if err := r.Err(); err != nil {
		return nil, err
	}
	target.X, target.Y, target.VelX, target.VelY = x, y, vx, vy
	if target.Ship != nil {
		target.Ship.Heading = heading
	}
	if !ok {
		return nil, nil
	}
	return target, nil
}

func writeColor(w *Writer, c [3]uint8) {
	w.U8(c[0])
	w.U8(c[1])
	w.U8(c[2])
}

func readColor(r *Reader) [3]uint8 {
	return [3]uint8{r.U8(), r.U8(), r.U8()}
}

// AckPacket is the empty ack, also used as a ping.
func AckPacket() []byte {
	return NewWriter(OpAck).Bytes()
}

// CreatePacket announces one entity.
func CreatePacket(e *Entity) []byte {
	w := NewWriter(OpCreate)
	EncodeCreate(w, e)
	return w.Bytes()
}

// DeletePacket announces the destruction of id.
func DeletePacket(id ID) []byte {
	w := NewWriter(OpDelete)
	w.U32(uint32(id))
	return w.Bytes()
}

// ChatPacket carries one chat line.
func ChatPacket(msg string) []byte {
	w := NewWriter(OpChat)
	w.Str(msg)
	return w.Bytes()
}

// WelcomePacket tells a session which ship it controls.
func WelcomePacket(id ID) []byte {
	w := NewWriter(OpWelcome)
	w.U32(uint32(id))
	return w.Bytes()
}

// ControlsPacket carries the client's movement flags.
func ControlsPacket(c Controls) []byte {
	w := NewWriter(OpControls)
	w.U8(uint8(c))
	return w.Bytes()
}

// HelloPacket introduces a client.
func HelloPacket(username string, viewW, viewH float64) []byte {
	w := NewWriter(OpHello)
	w.Str(username)
	w.F64(viewW)
	w.F64(viewH)
	return w.Bytes()
}

// BatchPackets encodes a priming burst, splitting it every maxBatch entities.
func BatchPackets(ents []*Entity) [][]byte {
	var out [][]byte
	for len(ents) > 0 {
		n := min(len(ents), maxBatch)
		w := NewWriter(OpBatch)
		w.U16(uint16(n))
		for _, e := range ents[:n] {
			EncodeCreate(w, e)
		}
		out = append(out, w.Bytes())
		ents = ents[n:]
	}
	return out
}

// SyncPackets encodes the mutable state of ents, split like BatchPackets.
func SyncPackets(ents []*Entity) [][]byte {
	var out [][]byte
	for len(ents) > 0 {
		n := min(len(ents), maxBatch)
		w := NewWriter(OpSync)
		w.U16(uint16(n))
		for _, e := range ents[:n] {
			EncodeSync(w, e)
		}
		out = append(out, w.Bytes())
		ents = ents[n:]
	}
	return out
}

// DecodeBatch reads a batch payload. Decoding stops at the first bad entry;
// what was decoded before it is returned with the error.
func DecodeBatch(r *Reader) ([]*Entity, error) {
	n := int(r.U16())
	if err := r.Err(); err != nil {
		return nil, err
	}
	out := make([]*Entity, 0, n)
	for i := 0; i < n; i++ {
		e, err := DecodeCreate(r)
		if err != nil {
			return out, err
		}
		out = append(out, e)
	}
	return out, nil
}
