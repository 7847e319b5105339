package game

import "math"

// Controls is the 8-bit movement flag set a session sends each change.
type Controls uint8

const (
	Forward Controls = 1 << iota
	Backward
	TurnRight
	TurnLeft
	Boost
	HyperBoost
	PrimaryFire
	SecondaryFire
)

// Has reports whether every flag in f is set.
func (c Controls) Has(f Controls) bool {
	return c&f == f
}

const (
	accel              = 0.015
	rotateSpeed        = 2.0
	boostCooldown      = 12.0
	boostStrength      = 1.5
	reloadTime         = 8.0
	shootPower         = 2.0
	hyperboostStrength = 0.12
	hyperboostTime     = 20.0 * 60.0
	hyperboostTurnMult = 0.02
)

// Control applies one tick of input to a ship. Only an authoritative world
// spawns projectiles; both sides stamp the reload timer.
func (w *World) Control(ship *Entity, c Controls) {
	s := ship.Ship
	if s == nil {
		return
	}
	if c&HyperBoost == 0 {
		s.HyperCharge = 0
	}
	if c == 0 {
		return
	}
	dt := w.Delta
	rad := s.Heading * degToRad
	xMul, yMul := math.Cos(rad), math.Sin(rad)

	if c.Has(Forward) {
		ship.addVelocity(accel*xMul*dt, accel*yMul*dt)
	} else if c.Has(Backward) {
		ship.addVelocity(-accel*xMul*dt, -accel*yMul*dt)
	}

	turn := rotateSpeed * dt
	if c.Has(HyperBoost) {
		s.HyperCharge = math.Min(s.HyperCharge+dt, hyperboostTime)
		if s.HyperCharge >= hyperboostTime {
			ship.addVelocity(hyperboostStrength*xMul*dt, hyperboostStrength*yMul*dt)
			turn *= hyperboostTurnMult
		}
	}
	if c.Has(TurnLeft) {
		s.Heading += turn
	} else if c.Has(TurnRight) {
		s.Heading -= turn
	}

	if c.Has(Boost) && s.LastBoosted+boostCooldown < w.Time {
		ship.addVelocity(boostStrength*xMul, boostStrength*yMul)
		s.LastBoosted = w.Time
	}
	if c.Has(PrimaryFire) && s.LastShot+reloadTime < w.Time {
		if w.Authoritative {
			w.Fire(ship, xMul, yMul)
		}
		s.LastShot = w.Time
	}
}

// Fire spawns a projectile ahead of the ship along (xMul, yMul) (y-up) and
// applies the recoil.
func (w *World) Fire(ship *Entity, xMul, yMul float64) *Entity {
	p := NewEntity(KindProjectile)
	offset := ship.Radius + p.Radius*2
	p.X = ship.X + offset*xMul
	p.Y = ship.Y - offset*yMul
	p.VelX = ship.VelX + shootPower*xMul
	p.VelY = ship.VelY - shootPower*yMul
	p.Owner = ship.Owner
	ship.addVelocity(-shootPower*xMul*p.Mass/ship.Mass, -shootPower*yMul*p.Mass/ship.Mass)
	return w.Spawn(p)
}

// addVelocity takes a y-up delta.
func (e *Entity) addVelocity(dx, dy float64) {
	e.VelX += dx
	e.VelY -= dy
}
