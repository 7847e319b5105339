package game

import "fmt"

// Kind is both the in-memory variant tag and the wire tag of an entity.
type Kind uint8

const (
	KindShip          Kind = 0
	KindGravitySource Kind = 1
	KindProjectile    Kind = 2
)

// Valid reports whether k names a known entity variant.
func (k Kind) Valid() bool {
	return k <= KindProjectile
}

func (k Kind) String() string {
	switch k {
	case KindShip:
		return "ship"
	case KindGravitySource:
		return "gravity source"
	case KindProjectile:
		return "projectile"
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// ID identifies an entity for the lifetime of the process. IDs are never
// reused, so a stale ID simply fails to resolve.
type ID uint32

// OwnerID is a weak back-reference to the session controlling an entity.
// Zero means unowned.
type OwnerID uint32

// WellClass is the cosmetic classification of a gravity source.
type WellClass uint8

const (
	WellOrdinary WellClass = iota
	WellStar
	WellBlackHole
)

// Default masses and radii per kind.
const (
	ShipMass         = 0.1
	ShipRadius       = 8.0
	ProjectileMass   = 0.02
	ProjectileRadius = 4.0
	SourceMass       = 100.0
)

// Point is one sample of a trajectory log.
type Point struct {
	X, Y float64
}

// ShipState holds the Ship-only fields.
type ShipState struct {
	Heading     float64 // degrees, counter-clockwise, 0 = +x
	LastBoosted float64
	LastShot    float64
	HyperCharge float64
	Name        string
}

// SourceState holds the GravitySource-only fields.
type SourceState struct {
	Class WellClass
}

// Entity is one simulation object. Exactly one of Ship/Source is non-nil for
// the matching kind; projectiles carry neither.
type Entity struct {
	ID     ID
	Kind   Kind
	X, Y   float64
	VelX   float64
	VelY   float64
	Mass   float64
	Radius float64
	Color  [3]uint8
	Ghost  bool
	Owner  OwnerID

	Ship   *ShipState
	Source *SourceState

	// Trajectory is filled by World.Predict for trail rendering.
	Trajectory []Point

	near     []ID
	lastScan float64
	dead     bool
	saved    *savedState
}

type savedState struct {
	x, y, velX, velY float64
	mass, radius     float64
	lastScan         float64
	near             []ID
	ship             ShipState
}

// NewEntity builds a raw ghost instance of the given kind with that kind's
// defaults. It has no id and is not registered anywhere until a Store adds or
// adopts it.
func NewEntity(kind Kind) *Entity {
	e := &Entity{
		Kind:     kind,
		Ghost:    true,
		Color:    [3]uint8{255, 255, 255},
		lastScan: scanNever,
	}
	switch kind {
	case KindShip:
		e.Mass = ShipMass
		e.Radius = ShipRadius
		e.Ship = &ShipState{
			LastBoosted: -boostCooldown,
			LastShot:    -reloadTime,
		}
	case KindGravitySource:
		e.Mass = SourceMass
		e.Source = &SourceState{}
	case KindProjectile:
		e.Mass = ProjectileMass
		e.Radius = ProjectileRadius
		e.Color = [3]uint8{180, 0, 0}
	}
	return e
}

// NewSource builds a ghost gravity source with the given radius and mass.
func NewSource(radius, mass float64, class WellClass) *Entity {
	e := NewEntity(KindGravitySource)
	e.Radius = radius
	e.Mass = mass
	e.Source.Class = class
	return e
}

// Alive reports whether the entity is still registered.
func (e *Entity) Alive() bool {
	return !e.dead && !e.Ghost
}

// Neighbors returns a copy of the entity's current collision candidates.
func (e *Entity) Neighbors() []ID {
	out := make([]ID, len(e.near))
	copy(out, e.near)
	return out
}

// Save copies the mutable state into the snapshot slot.
func (e *Entity) Save() {
	if e.saved == nil {
		e.saved = &savedState{}
	}
	s := e.saved
	s.x, s.y, s.velX, s.velY = e.X, e.Y, e.VelX, e.VelY
	s.mass, s.radius = e.Mass, e.Radius
	s.lastScan = e.lastScan
	s.near = append(s.near[:0], e.near...)
	if e.Ship != nil {
		s.ship = *e.Ship
	}
}

// Restore writes the last saved snapshot back. It is a no-op if Save was
// never called.
func (e *Entity) Restore() {
	s := e.saved
	if s == nil {
		return
	}
	e.X, e.Y, e.VelX, e.VelY = s.x, s.y, s.velX, s.velY
	e.Mass, e.Radius = s.mass, s.radius
	e.lastScan = s.lastScan
	e.near = append(e.near[:0], s.near...)
	if e.Ship != nil {
		*e.Ship = s.ship
	}
}

// Snapshot is a read-only copy of an entity handed to renderers and
// command callers.
type Snapshot struct {
	ID      ID       `json:"id"`
	Kind    Kind     `json:"kind"`
	X       float64  `json:"x"`
	Y       float64  `json:"y"`
	VelX    float64  `json:"vx"`
	VelY    float64  `json:"vy"`
	Mass    float64  `json:"mass"`
	Radius  float64  `json:"radius"`
	Color   [3]uint8 `json:"color"`
	Heading float64  `json:"heading,omitempty"`
	Name    string   `json:"name,omitempty"`
	Trail   []Point  `json:"-"`
}

// Snapshot returns a read-only copy of e.
func (e *Entity) Snapshot() Snapshot {
	s := Snapshot{
		ID:     e.ID,
		Kind:   e.Kind,
		X:      e.X,
		Y:      e.Y,
		VelX:   e.VelX,
		VelY:   e.VelY,
		Mass:   e.Mass,
		Radius: e.Radius,
		Color:  e.Color,
		Trail:  append([]Point(nil), e.Trajectory...),
	}
	if e.Ship != nil {
		s.Heading = e.Ship.Heading
		s.Name = e.Ship.Name
	}
	return s
}

// copyFrom overwrites e's wire-visible state with src's, keeping identity,
// neighbour cache and scan timer.
func (e *Entity) copyFrom(src *Entity) {
	e.X, e.Y, e.VelX, e.VelY = src.X, src.Y, src.VelX, src.VelY
	e.Mass, e.Radius = src.Mass, src.Radius
	e.Color = src.Color
	if e.Ship != nil && src.Ship != nil {
		*e.Ship = *src.Ship
	}
	if e.Source != nil && src.Source != nil {
		*e.Source = *src.Source
	}
}
