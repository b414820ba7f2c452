package netsync

import (
	"encoding/binary"
	"fmt"
	"sort"

	"github.com/cespare/xxhash/v2"

	"github.com/civsim/engine/internal/component"
	"github.com/civsim/engine/internal/core/ecs"
	"github.com/civsim/engine/internal/ledger"
)

// IdentityIDs maps local ids to themselves; the authoritative side uses it
// so its digest is keyed the same way as a client's mapped one.
func IdentityIDs(id ecs.EntityID) (uint64, bool) { return uint64(id), true }

type digestRow struct {
	remote uint64
	local  ecs.EntityID
}

// Digest hashes the synchronized part of the world: every owned, positioned
// entity with an id under ids, ordered by that id, plus the ledger. Entities
// pending destruction are left out.
func Digest(w *ecs.World, l *ledger.Ledger, ids func(ecs.EntityID) (uint64, bool)) string {
	var rows []digestRow
	for _, id := range w.View(component.TypePosition, component.TypeOwner) {
		if w.PendingDestruction(id) {
			continue
		}
		if r, ok := ids(id); ok {
			rows = append(rows, digestRow{remote: r, local: id})
		}
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].remote < rows[j].remote })

	h := xxhash.New()
	buf := make([]byte, 0, 64)
	put := func(vs ...int64) {
		buf = buf[:0]
		for _, v := range vs {
			buf = binary.LittleEndian.AppendUint64(buf, uint64(v))
		}
		_, _ = h.Write(buf)
	}

	for _, r := range rows {
		pos, _ := ecs.Get[component.Position](w, r.local)
		own, _ := ecs.Get[component.Owner](w, r.local)
		put(int64(r.remote), int64(own.Player), int64(pos.X), int64(pos.Y))
		if u, ok := ecs.Get[component.Unit](w, r.local); ok {
			_, _ = h.WriteString(u.Type)
			put(int64(u.MP), int64(u.Health))
		}
		if c, ok := ecs.Get[component.City](w, r.local); ok {
			_, _ = h.WriteString(c.Name)
			put(int64(c.Population))
		}
		if b, ok := ecs.Get[component.Building](w, r.local); ok {
			_, _ = h.WriteString(b.Name)
		}
	}
	if l != nil {
		for _, civ := range l.Civs() {
			if v := l.Get(civ); v != 0 {
				_, _ = h.WriteString(string(civ))
				put(int64(v))
			}
		}
	}
	return fmt.Sprintf("%016x", h.Sum64())
}
