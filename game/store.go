package game

// Store owns the live entities. The list is kept compact by swap-removal;
// index maps an id to its slot.
type Store struct {
	list   []*Entity
	index  map[ID]int
	nextID ID

	// onDestroy runs after the entity has left the store and every cache
	// but before it is marked dead.
	onDestroy func(*Entity)
}

// NewStore returns an empty store. The first assigned id is 1.
func NewStore() *Store {
	return &Store{
		index:  make(map[ID]int),
		nextID: 1,
	}
}

// Create builds an entity of the given kind, lets init adjust it, and adds it.
func (s *Store) Create(kind Kind, init func(*Entity)) *Entity {
	e := NewEntity(kind)
	if init != nil {
		init(e)
	}
	s.Add(e)
	return e
}

// Add finalizes a ghost: it gets the next id and joins the store.
func (s *Store) Add(e *Entity) *Entity {
	e.ID = s.nextID
	s.nextID++
	s.insert(e)
	return e
}

// Adopt finalizes an entity whose id came from the wire. It returns false,
// leaving the store untouched, if that id is already live.
func (s *Store) Adopt(e *Entity) bool {
	if _, ok := s.index[e.ID]; ok {
		return false
	}
	if e.ID >= s.nextID {
		s.nextID = e.ID + 1
	}
	s.insert(e)
	return true
}

func (s *Store) insert(e *Entity) {
	e.Ghost = false
	e.dead = false
	s.index[e.ID] = len(s.list)
	s.list = append(s.list, e)
}

// Get resolves an id. Destroyed and unknown ids return false.
func (s *Store) Get(id ID) (*Entity, bool) {
	i, ok := s.index[id]
	if !ok {
		return nil, false
	}
	return s.list[i], true
}

// Len returns the number of live entities.
func (s *Store) Len() int {
	return len(s.list)
}

// Destroy removes the entity with the given id, purges it from every
// neighbour cache and fires the destroy hook. Unknown ids are ignored.
func (s *Store) Destroy(id ID) bool {
	i, ok := s.index[id]
	if !ok {
		return false
	}
	e := s.list[i]
	last := len(s.list) - 1
	if i != last {
		moved := s.list[last]
		s.list[i] = moved
		s.index[moved.ID] = i
	}
	s.list[last] = nil
	s.list = s.list[:last]
	delete(s.index, id)

	for _, o := range s.list {
		o.near = removeID(o.near, id)
	}
	if s.onDestroy != nil {
		s.onDestroy(e)
	}
	e.dead = true
	e.near = nil
	return true
}

// Each calls fn for every entity live at the time of the call. Entities
// destroyed during the walk are skipped.
func (s *Store) Each(fn func(*Entity)) {
	snap := make([]*Entity, len(s.list))
	copy(snap, s.list)
	for _, e := range snap {
		if e.dead {
			continue
		}
		fn(e)
	}
}

// Clear destroys every entity for which keep returns false.
func (s *Store) Clear(keep func(*Entity) bool) {
	s.Each(func(e *Entity) {
		if keep == nil || !keep(e) {
			s.Destroy(e.ID)
		}
	})
}

// snapshot copies the live list into buf, reusing its storage.
func (s *Store) snapshot(buf []*Entity) []*Entity {
	return append(buf[:0], s.list...)
}

func removeID(ids []ID, id ID) []ID {
	for i, v := range ids {
		if v == id {
			last := len(ids) - 1
			ids[i] = ids[last]
			return ids[:last]
		}
	}
	return ids
}
