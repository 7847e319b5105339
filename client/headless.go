package client

import (
	"go.uber.org/zap"

	"orbitfight/game"
)

// Headless is a Renderer for terminals: it reports what it would draw at
// debug level every Every frames.
type Headless struct {
	Log   *zap.SugaredLogger
	Every int

	frames int
}

func (h *Headless) Render(snaps []game.Snapshot, own game.ID) {
	h.frames++
	if h.Log == nil || h.Every <= 0 || h.frames%h.Every != 0 {
		return
	}
	for _, s := range snaps {
		if s.ID == own {
			h.Log.Debugf("frame %d: %d entities, own ship at (%.0f, %.0f), %d trail points",
				h.frames, len(snaps), s.X, s.Y, len(s.Trail))
			return
		}
	}
	h.Log.Debugf("frame %d: %d entities", h.frames, len(snaps))
}
