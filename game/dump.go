package game

import (
	"fmt"
	"io"

	"github.com/vmihailenco/msgpack/v5"
)

// worldDump is the on-disk form of a world: simulated time plus every
// entity that does not belong to a session.
type worldDump struct {
	Time     float64      `msgpack:"t"`
	Entities []dumpEntity `msgpack:"e"`
}

type dumpEntity struct {
	ID     ID        `msgpack:"id"`
	Kind   Kind      `msgpack:"k"`
	X      float64   `msgpack:"x"`
	Y      float64   `msgpack:"y"`
	VelX   float64   `msgpack:"vx"`
	VelY   float64   `msgpack:"vy"`
	Mass   float64   `msgpack:"m"`
	Radius float64   `msgpack:"r"`
	Color  [3]uint8  `msgpack:"c"`
	Class  WellClass `msgpack:"cl,omitempty"`
}

// SaveWorld writes every non-ship entity of w as msgpack.
func SaveWorld(out io.Writer, w *World) error {
	d := worldDump{Time: w.Time}
	for _, e := range w.store.list {
		if e.Kind == KindShip {
			continue
		}
		de := dumpEntity{
			ID:     e.ID,
			Kind:   e.Kind,
			X:      e.X,
			Y:      e.Y,
			VelX:   e.VelX,
			VelY:   e.VelY,
			Mass:   e.Mass,
			Radius: e.Radius,
			Color:  e.Color,
		}
		if e.Source != nil {
			de.Class = e.Source.Class
		}
		d.Entities = append(d.Entities, de)
	}
	if err := msgpack.NewEncoder(out).Encode(&d); err != nil {
		return fmt.Errorf("encode world: %w", err)
	}
	return nil
}

// LoadWorld adopts the entities of a dump into w, keeping their ids, and
// returns how many were loaded. Unknown kinds are skipped.
func LoadWorld(in io.Reader, w *World) (int, error) {
	var d worldDump
	if err := msgpack.NewDecoder(in).Decode(&d); err != nil {
		return 0, fmt.Errorf("decode world: %w", err)
	}
	n := 0
	for _, de := range d.Entities {
		if !de.Kind.Valid() || de.Kind == KindShip {
			continue
		}
		e := NewEntity(de.Kind)
		e.ID = de.ID
		e.X, e.Y, e.VelX, e.VelY = de.X, de.Y, de.VelX, de.VelY
		e.Mass, e.Radius = de.Mass, de.Radius
		e.Color = de.Color
		if e.Source != nil {
			e.Source.Class = de.Class
		}
		if w.store.Adopt(e) {
			n++
		}
	}
	if d.Time > w.Time {
		w.Time = d.Time
	}
	return n, nil
}
