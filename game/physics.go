package game

import "math"

func integrate(e *Entity, dt float64) {
	e.X += e.VelX * dt
	e.Y += e.VelY * dt
}

// applyGravity pulls every other live entity toward s. There is no
// softening: an entity sitting exactly on s's centre gets NaN velocity.
func (w *World) applyGravity(s *Entity, dt float64) {
	k := -s.Mass * dt * w.params.G
	for _, e := range w.store.list {
		if e == s {
			continue
		}
		dx, dy := e.X-s.X, e.Y-s.Y
		factor := k / math.Pow(dx*dx+dy*dy, 1.5)
		e.VelX += dx * factor
		e.VelY += dy * factor
	}
}
