package ecs

// View returns every live entity that currently has all of the listed
// component types, in ascending EntityID order. With no types it returns every
// live entity. The smallest table drives the scan and the remaining tables are
// only checked for those candidates.
func (w *World) View(types ...ComponentType) []EntityID {
	if len(types) == 0 {
		return w.pool.Live()
	}

	stores := make([]Store, len(types))
	driver := 0
	for i, t := range types {
		s := w.registry.Lookup(t)
		if s == nil || s.Len() == 0 {
			return nil
		}
		stores[i] = s
		if s.Len() < stores[driver].Len() {
			driver = i
		}
	}

	candidates := stores[driver].IDs()
	out := candidates[:0]
	for _, id := range candidates {
		match := true
		for i, s := range stores {
			if i == driver {
				continue
			}
			if !s.Has(id) {
				match = false
				break
			}
		}
		if match {
			out = append(out, id)
		}
	}
	sortIDs(out)
	return out
}

// Each2 iterates over entities that have both component A and B.
// It iterates over the smaller store and checks the larger one.
func Each2[A, B any](sa *PtrComponentStore[A], sb *PtrComponentStore[B], fn func(EntityID, *A, *B)) {
	if sa.Len() == 0 || sb.Len() == 0 {
		return
	}
	var ids []EntityID
	if sa.Len() <= sb.Len() {
		ids = sa.SortedIDs()
	} else {
		ids = sb.SortedIDs()
	}
	for _, id := range ids {
		a, ok := sa.data[id]
		if !ok {
			continue
		}
		if b, ok := sb.data[id]; ok {
			fn(id, a, b)
		}
	}
}

// Each3 iterates over entities that have components A, B, and C.
func Each3[A, B, C any](sa *PtrComponentStore[A], sb *PtrComponentStore[B], sc *PtrComponentStore[C], fn func(EntityID, *A, *B, *C)) {
	if sa.Len() == 0 || sb.Len() == 0 || sc.Len() == 0 {
		return
	}
	// Iterate the smallest store
	var ids []EntityID
	switch {
	case sa.Len() <= sb.Len() && sa.Len() <= sc.Len():
		ids = sa.SortedIDs()
	case sb.Len() <= sc.Len():
		ids = sb.SortedIDs()
	default:
		ids = sc.SortedIDs()
	}
	for _, id := range ids {
		a, ok := sa.data[id]
		if !ok {
			continue
		}
		b, ok := sb.data[id]
		if !ok {
			continue
		}
		if c, ok := sc.data[id]; ok {
			fn(id, a, b, c)
		}
	}
}
