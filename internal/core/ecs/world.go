package ecs

// World is the top-level ECS container. It owns the entity pool, the component
// registry, and a deferred destruction queue flushed by CleanupSystem each tick.
// Accessed only from the simulation goroutine, no locks.
type World struct {
	pool         *EntityPool
	registry     *Registry
	destroyQueue []EntityID
}

// componentPtr constrains P to be *T and carry a ComponentType tag.
type componentPtr[T any] interface {
	*T
	Component
}

func NewWorld() *World {
	return &World{
		pool:         NewEntityPool(),
		registry:     NewRegistry(),
		destroyQueue: make([]EntityID, 0, 64),
	}
}

func (w *World) Pool() *EntityPool   { return w.pool }
func (w *World) Registry() *Registry { return w.registry }

func (w *World) CreateEntity() EntityID {
	return w.pool.Create()
}

func (w *World) Alive(id EntityID) bool {
	return w.pool.Alive(id)
}

// DestroyEntity removes the entity and all of its components in one step.
// Destroying a dead or unknown entity is a no-op.
func (w *World) DestroyEntity(id EntityID) {
	if !w.pool.Alive(id) {
		return
	}
	w.registry.RemoveAll(id)
	w.pool.Destroy(id)
}

// MarkForDestruction queues an entity for end-of-tick cleanup.
func (w *World) MarkForDestruction(id EntityID) {
	w.destroyQueue = append(w.destroyQueue, id)
}

// PendingDestruction reports whether id is queued for cleanup this tick.
func (w *World) PendingDestruction(id EntityID) bool {
	for _, q := range w.destroyQueue {
		if q == id {
			return true
		}
	}
	return false
}

// FlushDestroyQueue destroys all queued entities and clears their components.
// Called by CleanupSystem at the end of each tick.
func (w *World) FlushDestroyQueue() int {
	n := 0
	for _, id := range w.destroyQueue {
		if w.pool.Alive(id) {
			n++
		}
		w.DestroyEntity(id)
	}
	w.destroyQueue = w.destroyQueue[:0]
	return n
}

// Has reports whether a live entity carries a component of type t.
// Unknown tags are simply not present.
func (w *World) Has(id EntityID, t ComponentType) bool {
	s := w.registry.Lookup(t)
	return s != nil && s.Has(id)
}

// Remove detaches the component of type t from id, if present.
func (w *World) Remove(id EntityID, t ComponentType) {
	if s := w.registry.Lookup(t); s != nil {
		s.Remove(id)
	}
}

// Add attaches c to id, overwriting any component of the same type.
// Returns false if id is not alive.
func Add[T any, P componentPtr[T]](w *World, id EntityID, c P) bool {
	if !w.pool.Alive(id) {
		return false
	}
	storeFor[T, P](w, true).Set(id, (*T)(c))
	return true
}

// Get returns the component of type T attached to id.
func Get[T any, P componentPtr[T]](w *World, id EntityID) (P, bool) {
	s := storeFor[T, P](w, false)
	if s == nil {
		return nil, false
	}
	c, ok := s.Get(id)
	if !ok {
		return nil, false
	}
	return P(c), true
}

// HasOf is Has keyed by Go type instead of tag.
func HasOf[T any, P componentPtr[T]](w *World, id EntityID) bool {
	return w.Has(id, tagOf[T, P]())
}

// RemoveOf is Remove keyed by Go type instead of tag.
func RemoveOf[T any, P componentPtr[T]](w *World, id EntityID) {
	w.Remove(id, tagOf[T, P]())
}

// StoreOf returns the typed table for T, or nil if nothing of T was ever added.
func StoreOf[T any, P componentPtr[T]](w *World) *PtrComponentStore[T] {
	return storeFor[T, P](w, false)
}

func tagOf[T any, P componentPtr[T]]() ComponentType {
	var zero T
	return P(&zero).ComponentType()
}

func storeFor[T any, P componentPtr[T]](w *World, create bool) *PtrComponentStore[T] {
	tag := tagOf[T, P]()
	if s, ok := w.registry.Lookup(tag).(*PtrComponentStore[T]); ok {
		return s
	}
	if !create {
		return nil
	}
	s := NewPtrComponentStore[T]()
	w.registry.Register(tag, s)
	return s
}
