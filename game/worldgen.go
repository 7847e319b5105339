package game

import (
	"math"
	"math/rand/v2"
)

const (
	minOrbit        = 1500.0
	orbitSpacing    = 1100.0
	shipOrbitMin    = 900.0
	shipOrbitJitter = 500.0
	blackHoleRadius = 12.0
	blackHoleMass   = 4000.0
)

// Generate spawns a star at the origin and a ring of planets on circular
// orbits around it. The same seed yields the same system.
func (w *World) Generate(seed uint64) {
	w.rng = rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	p := w.params

	star := NewSource(p.StarRadius, p.StarMass, WellStar)
	star.Color = [3]uint8{255, 229, 97}
	w.Spawn(star)

	for i := 0; i < p.PlanetCount; i++ {
		dist := minOrbit + float64(i)*orbitSpacing + w.rng.Float64()*orbitSpacing*0.5
		var planet *Entity
		if w.rng.IntN(8) == 0 {
			planet = NewSource(blackHoleRadius, blackHoleMass, WellBlackHole)
			planet.Color = [3]uint8{20, 0, 30}
		} else {
			radius := 20 + w.rng.Float64()*40
			planet = NewSource(radius, radius*radius*0.25, WellOrdinary)
			planet.Color = [3]uint8{
				uint8(64 + w.rng.IntN(192)),
				uint8(64 + w.rng.IntN(192)),
				uint8(64 + w.rng.IntN(192)),
			}
		}
		w.orbit(planet, star, dist, w.rng.Float64()*2*math.Pi)
		w.Spawn(planet)
	}
}

// PlaceShip puts a ship on a circular orbit around the star, or at the
// origin at rest if there is none.
func (w *World) PlaceShip(ship *Entity) {
	star := w.Star()
	if star == nil {
		ship.X, ship.Y, ship.VelX, ship.VelY = 0, 0, 0, 0
		return
	}
	dist := star.Radius + shipOrbitMin + w.rng.Float64()*shipOrbitJitter
	w.orbit(ship, star, dist, w.rng.Float64()*2*math.Pi)
	if ship.Ship != nil {
		ship.Ship.Heading = 90
	}
}

// orbit places e at dist from center at the given angle, moving
// counter-clockwise at circular orbit speed.
func (w *World) orbit(e, center *Entity, dist, angle float64) {
	speed := math.Sqrt(w.params.G * center.Mass / dist)
	cos, sin := math.Cos(angle), math.Sin(angle)
	e.X = center.X + dist*cos
	e.Y = center.Y + dist*sin
	e.VelX = center.VelX - speed*sin
	e.VelY = center.VelY + speed*cos
}

// Regenerate replaces the system: every non-ship entity is destroyed, a new
// system is generated and announced, and every ship is re-placed.
func (w *World) Regenerate(seed uint64) {
	w.Delta = 0
	w.store.Clear(func(e *Entity) bool { return e.Kind == KindShip })
	w.Generate(seed)
	w.store.Each(func(e *Entity) {
		if e.Kind == KindShip {
			w.PlaceShip(e)
		}
	})
}
