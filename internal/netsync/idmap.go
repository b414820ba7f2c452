package netsync

import (
	"sort"

	"github.com/civsim/engine/internal/core/ecs"
)

// IDMap translates between remote (authoritative) ids and local entity ids.
// Both directions are kept in step.
type IDMap struct {
	toLocal  map[uint64]ecs.EntityID
	toRemote map[ecs.EntityID]uint64
}

func NewIDMap() *IDMap {
	return &IDMap{
		toLocal:  make(map[uint64]ecs.EntityID),
		toRemote: make(map[ecs.EntityID]uint64),
	}
}

// Bind links remote to local, replacing any earlier binding of either side.
func (m *IDMap) Bind(remote uint64, local ecs.EntityID) {
	if old, ok := m.toLocal[remote]; ok {
		delete(m.toRemote, old)
	}
	if old, ok := m.toRemote[local]; ok {
		delete(m.toLocal, old)
	}
	m.toLocal[remote] = local
	m.toRemote[local] = remote
}

func (m *IDMap) Local(remote uint64) (ecs.EntityID, bool) {
	id, ok := m.toLocal[remote]
	return id, ok
}

func (m *IDMap) Remote(local ecs.EntityID) (uint64, bool) {
	id, ok := m.toRemote[local]
	return id, ok
}

// Unbind drops the binding of a remote id.
func (m *IDMap) Unbind(remote uint64) {
	if local, ok := m.toLocal[remote]; ok {
		delete(m.toRemote, local)
	}
	delete(m.toLocal, remote)
}

func (m *IDMap) Len() int { return len(m.toLocal) }

// Remotes returns every bound remote id, ascending.
func (m *IDMap) Remotes() []uint64 {
	out := make([]uint64, 0, len(m.toLocal))
	for r := range m.toLocal {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
