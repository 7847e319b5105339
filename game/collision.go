package game

import "math"

// CheckCollision checks if two circles overlap
func CheckCollision(x1, y1, r1, x2, y2, r2 float64) bool {
	dx := x2 - x1
	dy := y2 - y1
	radSum := r1 + r2
	return dx*dx+dy*dy <= radSum*radSum
}

// Overlapping reports whether two entities are in exact contact.
func Overlapping(a, b *Entity) bool {
	return CheckCollision(a.X, a.Y, a.Radius, b.X, b.Y, b.Radius)
}

// resolve runs the narrow phase for every cached neighbour of e. The cache
// is copied first because a collision may destroy either side.
func (w *World) resolve(e *Entity) {
	w.scratch = append(w.scratch[:0], e.near...)
	for _, id := range w.scratch {
		if e.dead {
			return
		}
		o, ok := w.store.Get(id)
		if !ok {
			continue
		}
		if Overlapping(e, o) {
			w.Collide(e, o, true)
		}
	}
}

// Collide resolves one contact from e's side. With mirror set the same
// resolution is then applied once from o's side.
func (w *World) Collide(e, o *Entity, mirror bool) {
	if e.Kind == KindProjectile && w.Authoritative {
		w.projectileHit(e, o, mirror)
		return
	}
	w.respond(e, o, mirror)
}

// projectileHit applies the gameplay outcome of a projectile contact.
func (w *World) projectileHit(p, o *Entity, mirror bool) {
	w.log.Debugf("bullet collision: %d-%d of type %s", p.ID, o.ID, o.Kind)
	switch o.Kind {
	case KindShip:
		w.hooks.ShipKilled(o, p)
		w.Destroy(p.ID)
	case KindGravitySource:
		w.Destroy(p.ID)
	default:
		w.respond(p, o, mirror)
	}
}

// respond is the generic momentum exchange, in y-down screen space. Headings
// are measured y-up, hence the flipped y terms.
func (w *World) respond(e, o *Entity, mirror bool) {
	if o.Kind == KindProjectile {
		return
	}
	dVx, dVy := e.VelX-o.VelX, o.VelY-e.VelY
	if Dst2(dVx, dVy) > 0.1 {
		w.log.Debugf("collision: %d-%d", e.ID, o.ID)
	}
	inHeading := math.Atan2(e.Y-o.Y, o.X-e.X)
	velHeading := math.Atan2(dVy, dVx)
	massFactor := math.Min(o.Mass/e.Mass, 1.0)
	factor := massFactor * math.Cos(math.Abs(DeltaAngle(inHeading, velHeading))) * w.params.Restitution
	if factor < 0 {
		return
	}
	vel := Dst(dVx, dVy)
	inX, inY := math.Cos(inHeading), math.Sin(inHeading)
	e.VelX -= vel*inX*factor + w.params.Friction*dVx
	e.VelY += vel*inY*factor + w.params.Friction*dVy
	rs := e.Radius + o.Radius
	e.X = (e.X + (o.X-rs*inX)*massFactor) / (1 + massFactor)
	e.Y = (e.Y + (o.Y+rs*inY)*massFactor) / (1 + massFactor)
	if mirror {
		w.Collide(o, e, false)
	}
}
