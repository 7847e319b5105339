package game

import (
	"math/rand/v2"

	"go.uber.org/zap"
)

// Params are the physics tunables. The world keeps a pointer so a config
// reload on the tick goroutine takes effect on the next step.
type Params struct {
	G             float64
	Restitution   float64
	Friction      float64
	ScanSpacing   float64 // simulated seconds between neighbour rescans
	ScanDistance2 float64
	StarMass      float64
	StarRadius    float64
	PlanetCount   int
}

// DefaultParams returns the stock tunables. With ScanSpacing 0.25 and
// ScanDistance2 1e4 the neighbour cache stays conservative at dt=1 for
// contact radii up to about 200.
func DefaultParams() Params {
	return Params{
		G:             1.0,
		Restitution:   0.6,
		Friction:      0.0005,
		ScanSpacing:   0.25,
		ScanDistance2: 10000,
		StarMass:      50000,
		StarRadius:    200,
		PlanetCount:   6,
	}
}

// Hooks receives gameplay side effects. Only an authoritative world calls
// them.
type Hooks interface {
	EntityCreated(e *Entity)
	EntityDestroyed(e *Entity)
	ShipKilled(ship, projectile *Entity)
}

type nopHooks struct{}

func (nopHooks) EntityCreated(*Entity)       {}
func (nopHooks) EntityDestroyed(*Entity)     {}
func (nopHooks) ShipKilled(*Entity, *Entity) {}

// World is the process-owned simulation state: the entity store, simulated
// time and the tick pipeline. It is not safe for concurrent use; the owner
// drives it from a single tick goroutine.
type World struct {
	// Authoritative worlds decide gameplay outcomes and spawn projectiles.
	Authoritative bool
	// Time is simulated seconds.
	Time float64
	// Delta is the dt of the current step.
	Delta float64

	params *Params
	store  *Store
	hooks  Hooks
	log    *zap.SugaredLogger
	rng    *rand.Rand

	iter    []*Entity
	scratch []ID
}

// NewWorld creates an empty world. A nil logger discards output.
func NewWorld(params *Params, authoritative bool, log *zap.SugaredLogger) *World {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	if params == nil {
		p := DefaultParams()
		params = &p
	}
	w := &World{
		Authoritative: authoritative,
		params:        params,
		store:         NewStore(),
		hooks:         nopHooks{},
		log:           log,
		rng:           rand.New(rand.NewPCG(1, 2)),
	}
	w.store.onDestroy = w.entityDestroyed
	return w
}

// SetHooks installs the side-effect receiver. Nil restores the no-op.
func (w *World) SetHooks(h Hooks) {
	if h == nil {
		h = nopHooks{}
	}
	w.hooks = h
}

// Params returns the live tunables.
func (w *World) Params() *Params {
	return w.params
}

// Store exposes the entity store.
func (w *World) Store() *Store {
	return w.store
}

// Spawn adds a ghost to the store and, on an authoritative world, announces
// its creation.
func (w *World) Spawn(e *Entity) *Entity {
	w.store.Add(e)
	if w.Authoritative {
		w.hooks.EntityCreated(e)
	}
	return e
}

// Destroy removes an entity; false if it was not live.
func (w *World) Destroy(id ID) bool {
	return w.store.Destroy(id)
}

func (w *World) entityDestroyed(e *Entity) {
	w.log.Debugf("Deleting entity id %d", e.ID)
	if w.Authoritative {
		w.hooks.EntityDestroyed(e)
	}
}

// Upsert adopts a decoded entity, or overwrites the live entity with the
// same id. It returns the live instance.
func (w *World) Upsert(e *Entity) *Entity {
	if cur, ok := w.store.Get(e.ID); ok {
		if cur.Kind == e.Kind {
			cur.copyFrom(e)
			return cur
		}
		w.store.Destroy(cur.ID)
	}
	w.store.Adopt(e)
	return e
}

// Lookup returns a read-only copy of the entity with the given id.
func (w *World) Lookup(id ID) (Snapshot, bool) {
	e, ok := w.store.Get(id)
	if !ok {
		return Snapshot{}, false
	}
	return e.Snapshot(), true
}

// Count returns the number of live entities.
func (w *World) Count() int {
	return w.store.Len()
}

// Snapshots returns read-only copies of every live entity.
func (w *World) Snapshots() []Snapshot {
	out := make([]Snapshot, 0, w.store.Len())
	for _, e := range w.store.list {
		out = append(out, e.Snapshot())
	}
	return out
}

// Entities returns the live entities in store order. The slice is a copy;
// the entities are not.
func (w *World) Entities() []*Entity {
	return w.store.snapshot(nil)
}

// Star returns the first star, or nil.
func (w *World) Star() *Entity {
	for _, e := range w.store.list {
		if e.Source != nil && e.Source.Class == WellStar {
			return e
		}
	}
	return nil
}

// Step advances the world by dt (60 units per simulated second):
// integrate, apply gravity, rescan due neighbour caches, resolve contacts.
func (w *World) Step(dt float64) {
	w.Delta = dt
	w.Time += dt / 60

	w.iter = w.store.snapshot(w.iter)
	ents := w.iter
	for _, e := range ents {
		integrate(e, dt)
	}
	for _, s := range ents {
		if s.Kind == KindGravitySource {
			w.applyGravity(s, dt)
		}
	}
	for _, e := range ents {
		if w.Time-e.lastScan > w.params.ScanSpacing {
			w.rescan(e)
		}
	}
	for _, e := range ents {
		if !e.dead {
			w.resolve(e)
		}
	}
	for i := range w.iter {
		w.iter[i] = nil
	}
}
