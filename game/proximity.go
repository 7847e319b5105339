package game

import "math"

// scanNever marks a cache that has never been built, so the first step
// after creation always rescans.
var scanNever = math.Inf(-1)

// minClosing2 floors the squared relative speed so near-equal velocities
// don't blow up the metric.
const minClosing2 = 0.5

// ProximityMetric is the broad-phase score of o as seen from e: squared gap
// beyond contact, divided by squared closing speed. Lower means sooner.
func ProximityMetric(e, o *Entity) float64 {
	rs := e.Radius + o.Radius
	gap := Dst2(math.Abs(e.X-o.X), math.Abs(e.Y-o.Y)) - rs*rs
	return gap / math.Max(minClosing2, Dst2(o.VelX-e.VelX, o.VelY-e.VelY))
}

// rescan rebuilds e's neighbour cache in place. The relation is one-way:
// e listing o says nothing about o listing e.
func (w *World) rescan(e *Entity) {
	limit := w.params.ScanDistance2
	i := 0
	for _, o := range w.store.list {
		if o == e {
			continue
		}
		if ProximityMetric(e, o) < limit {
			if i == len(e.near) {
				e.near = append(e.near, o.ID)
			} else {
				e.near[i] = o.ID
			}
			i++
		}
	}
	e.near = e.near[:i]
	e.lastScan = w.Time
}

// Rescan forces an immediate rebuild of every neighbour cache.
func (w *World) Rescan() {
	for _, e := range w.store.list {
		w.rescan(e)
	}
}
