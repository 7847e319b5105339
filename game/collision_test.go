package game

import (
	"math"
	"testing"
)

func TestCheckCollision(t *testing.T) {
	// Overlapping circles
	if !CheckCollision(0, 0, 10, 15, 0, 10) {
		t.Error("circles should collide (overlapping)")
	}

	// Touching circles
	if !CheckCollision(0, 0, 10, 20, 0, 10) {
		t.Error("circles should collide (touching)")
	}

	// Non-overlapping circles
	if CheckCollision(0, 0, 10, 25, 0, 10) {
		t.Error("circles should not collide")
	}
}

func headOn(w *World) (e, o *Entity) {
	e = w.Spawn(NewEntity(KindShip))
	e.Mass, e.Radius = 1, 8
	e.VelX = 1
	o = w.Spawn(NewEntity(KindShip))
	o.Mass, o.Radius = 1, 8
	o.X = 15
	o.VelX = -1
	return e, o
}

func TestCollideHeadOn(t *testing.T) {
	w, _ := newTestWorld(true)
	w.Params().Restitution = 0.5
	w.Params().Friction = 0
	e, o := headOn(w)

	w.Collide(e, o, true)

	const eps = 1e-9
	if math.Abs(e.VelX) > eps {
		t.Errorf("e.velX: expected 0, got %g", e.VelX)
	}
	if math.Abs(e.X+0.5) > eps {
		t.Errorf("e.x: expected -0.5, got %g", e.X)
	}
	if math.Abs(o.VelX+0.5) > eps {
		t.Errorf("o.velX: expected -0.5, got %g", o.VelX)
	}
	if math.Abs(o.X-15.25) > eps {
		t.Errorf("o.x: expected 15.25, got %g", o.X)
	}
	if math.Abs(e.Y) > eps || math.Abs(o.Y) > eps || math.Abs(e.VelY) > eps || math.Abs(o.VelY) > eps {
		t.Errorf("expected no vertical motion, got e=(%g,%g) o=(%g,%g)", e.Y, e.VelY, o.Y, o.VelY)
	}
}

func TestCollideMirrorMatchesTwoOneSidedCalls(t *testing.T) {
	a, _ := newTestWorld(true)
	b, _ := newTestWorld(true)
	e1, o1 := headOn(a)
	e2, o2 := headOn(b)
	o1.Y, o2.Y = 3, 3
	o1.VelY, o2.VelY = 0.25, 0.25

	a.Collide(e1, o1, true)
	b.Collide(e2, o2, false)
	b.Collide(o2, e2, false)

	if e1.X != e2.X || e1.Y != e2.Y || e1.VelX != e2.VelX || e1.VelY != e2.VelY {
		t.Errorf("e differs: (%g,%g,%g,%g) vs (%g,%g,%g,%g)", e1.X, e1.Y, e1.VelX, e1.VelY, e2.X, e2.Y, e2.VelX, e2.VelY)
	}
	if o1.X != o2.X || o1.Y != o2.Y || o1.VelX != o2.VelX || o1.VelY != o2.VelY {
		t.Errorf("o differs: (%g,%g,%g,%g) vs (%g,%g,%g,%g)", o1.X, o1.Y, o1.VelX, o1.VelY, o2.X, o2.Y, o2.VelX, o2.VelY)
	}
}

func TestCollideSeparatingIsNoop(t *testing.T) {
	w, _ := newTestWorld(true)
	e, o := headOn(w)
	e.VelX, o.VelX = -1, 1

	w.Collide(e, o, true)

	if e.X != 0 || e.VelX != -1 || o.X != 15 || o.VelX != 1 {
		t.Errorf("separating pair should be untouched, got e=(%g,%g) o=(%g,%g)", e.X, e.VelX, o.X, o.VelX)
	}
}

func TestRespondIgnoresProjectileTarget(t *testing.T) {
	w, _ := newTestWorld(true)
	ship := w.Spawn(NewEntity(KindShip))
	ship.VelX = 1
	p := w.Spawn(NewEntity(KindProjectile))
	p.X = 5
	p.VelX = -1

	w.Collide(ship, p, false)

	if ship.X != 0 || ship.VelX != 1 {
		t.Errorf("ship should not react to a projectile, got x=%g vx=%g", ship.X, ship.VelX)
	}
}

func TestProjectileKillsShip(t *testing.T) {
	w, h := newTestWorld(true)
	ship := w.Spawn(NewEntity(KindShip))
	p := w.Spawn(NewEntity(KindProjectile))
	p.X = 4

	w.Collide(p, ship, true)

	if len(h.killed) != 1 || h.killed[0] != [2]ID{ship.ID, p.ID} {
		t.Fatalf("expected one kill of %d by %d, got %v", ship.ID, p.ID, h.killed)
	}
	if p.Alive() {
		t.Error("projectile should be destroyed")
	}
	if !ship.Alive() {
		t.Error("the world leaves ship removal to the hook")
	}
}

func TestProjectileHitsSource(t *testing.T) {
	w, h := newTestWorld(true)
	src := w.Spawn(NewSource(20, 100, WellOrdinary))
	p := w.Spawn(NewEntity(KindProjectile))
	p.X = 10
	p.VelX = -1

	w.Collide(p, src, true)

	if p.Alive() {
		t.Error("projectile should be destroyed")
	}
	if src.VelX != 0 || src.X != 0 {
		t.Errorf("source should be untouched, got x=%g vx=%g", src.X, src.VelX)
	}
	if len(h.killed) != 0 {
		t.Errorf("expected no kills, got %v", h.killed)
	}
}

func TestProjectilePairBouncesGenerically(t *testing.T) {
	w, _ := newTestWorld(true)
	p := w.Spawn(NewEntity(KindProjectile))
	p.VelX = 1
	q := w.Spawn(NewEntity(KindProjectile))
	q.X = 6
	q.VelX = -1

	w.Collide(p, q, true)

	if !p.Alive() || !q.Alive() {
		t.Fatal("projectile pair should survive")
	}
	if p.VelX != 1 {
		t.Errorf("generic response skips projectile targets, got vx=%g", p.VelX)
	}
}

func TestNonAuthoritativeProjectileBounces(t *testing.T) {
	w, h := newTestWorld(false)
	ship := w.Spawn(NewEntity(KindShip))
	p := w.Spawn(NewEntity(KindProjectile))
	p.X = 10
	p.VelX = -1

	w.Collide(p, ship, true)

	if !p.Alive() {
		t.Fatal("projectile should survive on a non-authoritative world")
	}
	if len(h.killed) != 0 {
		t.Errorf("expected no kills, got %v", h.killed)
	}
	if p.VelX == -1 {
		t.Error("expected the projectile to bounce off the ship")
	}
}
