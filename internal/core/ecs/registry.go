package ecs

// Registry tracks all component stores, indexed by their ComponentType tag,
// and supports bulk cleanup on entity destroy.
type Registry struct {
	stores []Store
}

func NewRegistry() *Registry {
	return &Registry{
		stores: make([]Store, 0, 16),
	}
}

// Register installs a store under its tag, replacing any previous store.
func (r *Registry) Register(t ComponentType, store Store) {
	for int(t) >= len(r.stores) {
		r.stores = append(r.stores, nil)
	}
	r.stores[t] = store
}

// Lookup returns the store for a tag, or nil if nothing was ever stored under it.
func (r *Registry) Lookup(t ComponentType) Store {
	if int(t) >= len(r.stores) {
		return nil
	}
	return r.stores[t]
}

// RemoveAll clears the given entity from every registered component store.
func (r *Registry) RemoveAll(id EntityID) {
	for _, s := range r.stores {
		if s != nil {
			s.Remove(id)
		}
	}
}
