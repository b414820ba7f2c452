package ecs

import "sort"

// ComponentType is the closed tag that identifies a component table.
// Tags are declared once, as constants, next to the component structs.
type ComponentType uint8

// Component is implemented by every component struct (on its value receiver)
// so the World can route it to its table without reflection.
type Component interface {
	ComponentType() ComponentType
}

// Store is implemented by all component stores so the Registry can
// bulk-remove an entity's data from every store on destroy and so views can
// pick the smallest table as their driver.
type Store interface {
	Remove(id EntityID)
	Has(id EntityID) bool
	Len() int
	IDs() []EntityID
}

// PtrComponentStore is a generic typed map store for ECS components.
// No reflect, no interface{}, pure generics.
type PtrComponentStore[T any] struct {
	data map[EntityID]*T
}

func NewPtrComponentStore[T any]() *PtrComponentStore[T] {
	return &PtrComponentStore[T]{
		data: make(map[EntityID]*T, 256),
	}
}

func (s *PtrComponentStore[T]) Set(id EntityID, c *T) {
	s.data[id] = c
}

func (s *PtrComponentStore[T]) Get(id EntityID) (*T, bool) {
	if s == nil {
		return nil, false
	}
	c, ok := s.data[id]
	return c, ok
}

func (s *PtrComponentStore[T]) Remove(id EntityID) {
	delete(s.data, id)
}

func (s *PtrComponentStore[T]) Has(id EntityID) bool {
	if s == nil {
		return false
	}
	_, ok := s.data[id]
	return ok
}

func (s *PtrComponentStore[T]) Len() int {
	if s == nil {
		return 0
	}
	return len(s.data)
}

// IDs returns the entities holding this component in map order.
func (s *PtrComponentStore[T]) IDs() []EntityID {
	if s == nil {
		return nil
	}
	out := make([]EntityID, 0, len(s.data))
	for id := range s.data {
		out = append(out, id)
	}
	return out
}

// SortedIDs is IDs in ascending EntityID order.
func (s *PtrComponentStore[T]) SortedIDs() []EntityID {
	out := s.IDs()
	sortIDs(out)
	return out
}

// Each visits every component in ascending EntityID order.
func (s *PtrComponentStore[T]) Each(fn func(EntityID, *T)) {
	for _, id := range s.SortedIDs() {
		if c, ok := s.data[id]; ok {
			fn(id, c)
		}
	}
}

func sortIDs(ids []EntityID) {
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
}
