package game

import "testing"

func TestStoreIDsNeverReused(t *testing.T) {
	s := NewStore()
	seen := make(map[ID]bool)
	var last ID
	for round := 0; round < 5; round++ {
		var ids []ID
		for i := 0; i < 4; i++ {
			e := s.Create(KindProjectile, nil)
			if e.ID <= last {
				t.Fatalf("id %d not greater than previous %d", e.ID, last)
			}
			if seen[e.ID] {
				t.Fatalf("id %d handed out twice", e.ID)
			}
			seen[e.ID] = true
			last = e.ID
			ids = append(ids, e.ID)
		}
		s.Destroy(ids[1])
		s.Destroy(ids[3])
	}
	if s.Len() != 10 {
		t.Errorf("expected 10 live entities, got %d", s.Len())
	}
}

func TestStoreFirstIDIsOne(t *testing.T) {
	s := NewStore()
	if e := s.Create(KindShip, nil); e.ID != 1 {
		t.Errorf("expected first id 1, got %d", e.ID)
	}
}

func TestStoreCreateRunsInit(t *testing.T) {
	s := NewStore()
	e := s.Create(KindShip, func(e *Entity) { e.X = 42 })
	if e.X != 42 {
		t.Errorf("init not applied, x=%g", e.X)
	}
	if e.Ghost {
		t.Error("created entity should not be a ghost")
	}
}

func TestStoreDestroyPurgesNeighborCaches(t *testing.T) {
	w, _ := newTestWorld(true)
	var ents []*Entity
	for i := 0; i < 4; i++ {
		e := w.Spawn(NewEntity(KindShip))
		e.X = float64(i) * 20
		ents = append(ents, e)
	}
	w.Rescan()
	victim := ents[0]
	for _, e := range ents[1:] {
		if !contains(e.near, victim.ID) {
			t.Fatalf("precondition: %d should list %d", e.ID, victim.ID)
		}
	}

	if !w.Destroy(victim.ID) {
		t.Fatal("destroy should report a live entity")
	}

	for _, e := range ents[1:] {
		if contains(e.near, victim.ID) {
			t.Errorf("%d still lists destroyed %d", e.ID, victim.ID)
		}
	}
	if _, ok := w.Store().Get(victim.ID); ok {
		t.Error("destroyed id should not resolve")
	}
	if victim.Alive() {
		t.Error("destroyed entity should report dead")
	}
	if w.Destroy(victim.ID) {
		t.Error("second destroy should be a no-op")
	}
}

func TestStoreDestroyKeepsIndexConsistent(t *testing.T) {
	s := NewStore()
	a := s.Create(KindShip, nil)
	b := s.Create(KindShip, nil)
	c := s.Create(KindShip, nil)

	s.Destroy(a.ID)

	for _, want := range []*Entity{b, c} {
		got, ok := s.Get(want.ID)
		if !ok || got != want {
			t.Errorf("id %d resolves to the wrong entity after swap-removal", want.ID)
		}
	}
}

func TestStoreEachSkipsDestroyedDuringWalk(t *testing.T) {
	s := NewStore()
	a := s.Create(KindShip, nil)
	b := s.Create(KindShip, nil)
	c := s.Create(KindShip, nil)

	var visited []ID
	s.Each(func(e *Entity) {
		visited = append(visited, e.ID)
		if e == a {
			s.Destroy(c.ID)
		}
	})

	if len(visited) != 2 || visited[0] != a.ID || visited[1] != b.ID {
		t.Errorf("expected [%d %d], got %v", a.ID, b.ID, visited)
	}
}

func TestStoreAdopt(t *testing.T) {
	s := NewStore()
	e := NewEntity(KindGravitySource)
	e.ID = 50
	if !s.Adopt(e) {
		t.Fatal("adopt should accept a fresh id")
	}
	dup := NewEntity(KindGravitySource)
	dup.ID = 50
	if s.Adopt(dup) {
		t.Error("adopt should refuse a live id")
	}
	if next := s.Create(KindShip, nil); next.ID != 51 {
		t.Errorf("expected next id 51 after adopting 50, got %d", next.ID)
	}
}

func TestStoreClearKeeps(t *testing.T) {
	s := NewStore()
	ship := s.Create(KindShip, nil)
	s.Create(KindGravitySource, nil)
	s.Create(KindProjectile, nil)

	s.Clear(func(e *Entity) bool { return e.Kind == KindShip })

	if s.Len() != 1 {
		t.Fatalf("expected 1 entity, got %d", s.Len())
	}
	if _, ok := s.Get(ship.ID); !ok {
		t.Error("ship should survive the clear")
	}
}

func TestStoreDestroyHook(t *testing.T) {
	s := NewStore()
	var got []ID
	s.onDestroy = func(e *Entity) {
		if _, ok := s.Get(e.ID); ok {
			t.Error("entity should have left the store before the hook")
		}
		got = append(got, e.ID)
	}
	e := s.Create(KindShip, nil)
	s.Destroy(e.ID)
	s.Destroy(e.ID)
	if len(got) != 1 {
		t.Errorf("expected the hook once, got %v", got)
	}
}

func contains(ids []ID, id ID) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
