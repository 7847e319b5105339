package game

// Predict runs integration and gravity forward for steps ticks of dt,
// recording every ship's path into its Trajectory, then restores every
// entity to the state it had before the call. Collisions and gameplay are
// not simulated.
func (w *World) Predict(steps int, dt float64) {
	ents := w.store.snapshot(nil)
	for _, e := range ents {
		e.Save()
		if e.Kind == KindShip {
			e.Trajectory = e.Trajectory[:0]
		}
	}
	for i := 0; i < steps; i++ {
		for _, e := range ents {
			integrate(e, dt)
		}
		for _, s := range ents {
			if s.Kind == KindGravitySource {
				w.applyGravity(s, dt)
			}
		}
		for _, e := range ents {
			if e.Kind == KindShip {
				e.Trajectory = append(e.Trajectory, Point{e.X, e.Y})
			}
		}
	}
	for _, e := range ents {
		e.Restore()
	}
}
