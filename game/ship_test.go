package game

import (
	"math"
	"testing"
)

func TestFireHeadingZero(t *testing.T) {
	w, h := newTestWorld(true)
	w.Time = 100
	w.Delta = 1
	ship := w.Spawn(NewEntity(KindShip))
	ship.VelX = 1
	ship.Owner = 4

	w.Control(ship, PrimaryFire)

	if len(h.created) != 2 {
		t.Fatalf("expected ship and projectile created, got %v", h.created)
	}
	p, ok := w.Store().Get(h.created[1])
	if !ok || p.Kind != KindProjectile {
		t.Fatal("expected a projectile")
	}
	if !approx(p.VelX, 3) || !approx(p.VelY, 0) {
		t.Errorf("projectile velocity: expected (3, 0), got (%g, %g)", p.VelX, p.VelY)
	}
	if !approx(ship.VelX, 0.6) {
		t.Errorf("ship velX after recoil: expected 0.6, got %g", ship.VelX)
	}
	if want := ship.Radius + 2*ProjectileRadius; !approx(p.X, want) || !approx(p.Y, 0) {
		t.Errorf("projectile position: expected (%g, 0), got (%g, %g)", want, p.X, p.Y)
	}
	if p.Owner != 4 {
		t.Errorf("projectile owner: expected 4, got %d", p.Owner)
	}
	if ship.Ship.LastShot != 100 {
		t.Errorf("expected lastShot stamped, got %g", ship.Ship.LastShot)
	}
}

func TestFireHeadingNinetyGoesUpScreen(t *testing.T) {
	w, _ := newTestWorld(true)
	ship := w.Spawn(NewEntity(KindShip))
	ship.Ship.Heading = 90
	rad := 90 * degToRad

	p := w.Fire(ship, math.Cos(rad), math.Sin(rad))

	if !approx(p.VelY, -2) || math.Abs(p.VelX) > 1e-12 {
		t.Errorf("expected (0, -2), got (%g, %g)", p.VelX, p.VelY)
	}
	if p.Y >= ship.Y {
		t.Errorf("projectile should spawn above the ship, got y=%g", p.Y)
	}
}

func TestFireRespectsReload(t *testing.T) {
	w, h := newTestWorld(true)
	w.Time = 100
	ship := w.Spawn(NewEntity(KindShip))

	w.Control(ship, PrimaryFire)
	w.Time += 1
	w.Control(ship, PrimaryFire)

	if len(h.created) != 2 {
		t.Errorf("expected one shot within the reload window, got %d creates", len(h.created)-1)
	}
}

func TestFireNonAuthoritativeStampsOnly(t *testing.T) {
	w, _ := newTestWorld(false)
	w.Time = 100
	ship := w.Spawn(NewEntity(KindShip))

	w.Control(ship, PrimaryFire)

	if w.Count() != 1 {
		t.Errorf("non-authoritative world spawned %d entities", w.Count()-1)
	}
	if ship.Ship.LastShot != 100 {
		t.Errorf("expected lastShot stamped, got %g", ship.Ship.LastShot)
	}
	if ship.VelX != 0 {
		t.Errorf("no recoil expected, got %g", ship.VelX)
	}
}

func TestControlThrustAndTurn(t *testing.T) {
	w, _ := newTestWorld(true)
	w.Delta = 2
	ship := w.Spawn(NewEntity(KindShip))

	w.Control(ship, Forward|TurnLeft)

	if !approx(ship.VelX, accel*2) || ship.VelY != 0 {
		t.Errorf("expected velX %g, got (%g, %g)", accel*2, ship.VelX, ship.VelY)
	}
	if ship.Ship.Heading != rotateSpeed*2 {
		t.Errorf("expected heading %g, got %g", rotateSpeed*2, ship.Ship.Heading)
	}

	w.Control(ship, TurnRight|Backward)
	if ship.Ship.Heading != 0 {
		t.Errorf("expected heading back to 0, got %g", ship.Ship.Heading)
	}
}

func TestControlBoostCooldown(t *testing.T) {
	w, _ := newTestWorld(true)
	w.Time = 50
	ship := w.Spawn(NewEntity(KindShip))

	w.Control(ship, Boost)
	if !approx(ship.VelX, boostStrength) {
		t.Fatalf("expected boost %g, got %g", boostStrength, ship.VelX)
	}
	w.Time += 1
	w.Control(ship, Boost)
	if !approx(ship.VelX, boostStrength) {
		t.Errorf("boost should be on cooldown, got %g", ship.VelX)
	}
}

func TestControlHyperboostCharges(t *testing.T) {
	w, _ := newTestWorld(true)
	w.Delta = hyperboostTime / 2
	ship := w.Spawn(NewEntity(KindShip))

	w.Control(ship, HyperBoost)
	if ship.VelX != 0 {
		t.Fatal("hyperboost should not thrust before fully charged")
	}
	w.Control(ship, HyperBoost|TurnLeft)
	if ship.Ship.HyperCharge != hyperboostTime {
		t.Errorf("expected full charge, got %g", ship.Ship.HyperCharge)
	}
	if !approx(ship.VelX, hyperboostStrength*w.Delta) {
		t.Errorf("expected hyperboost thrust, got %g", ship.VelX)
	}
	if want := rotateSpeed * w.Delta * hyperboostTurnMult; !approx(ship.Ship.Heading, want) {
		t.Errorf("expected damped turn %g, got %g", want, ship.Ship.Heading)
	}

	w.Control(ship, 0)
	if ship.Ship.HyperCharge != 0 {
		t.Errorf("releasing hyperboost should reset the charge, got %g", ship.Ship.HyperCharge)
	}
}
