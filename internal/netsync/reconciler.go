package netsync

import (
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/civsim/engine/internal/component"
	"github.com/civsim/engine/internal/core/ecs"
	"github.com/civsim/engine/internal/core/event"
	"github.com/civsim/engine/internal/grid"
	"github.com/civsim/engine/internal/handler"
	"github.com/civsim/engine/internal/world"
)

// ErrUnmapped is returned for actions naming a remote id with no local
// entity. The action is skipped and a resync requested.
var ErrUnmapped = errors.New("unmapped remote entity")

// Stats counts reconciler outcomes.
type Stats struct {
	FullStates    int
	Updates       int
	Rejected      int
	Applied       int
	Skipped       int
	EchoesDropped int
	Desyncs       int
}

// Reconciler corrects the local World from authoritative messages. It runs
// on the simulation goroutine; each message is applied in one call.
type Reconciler struct {
	d   *handler.Deps
	ids *IDMap

	lastSeq   uint64
	haveState bool
	resync    bool
	stats     Stats
}

func NewReconciler(d *handler.Deps) *Reconciler {
	return &Reconciler{d: d, ids: NewIDMap()}
}

func (r *Reconciler) IDs() *IDMap { return r.ids }

// NeedsResync reports whether the local World is known to have diverged and
// a full state should be requested.
func (r *Reconciler) NeedsResync() bool { return r.resync }

func (r *Reconciler) Stats() Stats { return r.stats }

// Handle applies one decoded envelope.
func (r *Reconciler) Handle(env Envelope) error {
	switch env.Type {
	case TypeFullState:
		if env.FullState == nil {
			return fmt.Errorf("%w: full_state without body", ErrMalformed)
		}
		return r.ApplyFullState(env.FullState)
	case TypeUpdate:
		if env.Update == nil {
			return fmt.Errorf("%w: update without body", ErrMalformed)
		}
		return r.ApplyUpdate(env.Update)
	default:
		return fmt.Errorf("%w: unexpected %q from authority", ErrMalformed, env.Type)
	}
}

// ApplyFullState makes the World match a snapshot: listed entities are
// created or updated, mapped entities the snapshot omits are destroyed.
// Pending local commands are dropped only when entering sync or
// recovering from a resync; otherwise they are still forwarded. Applying
// the same snapshot twice leaves the World unchanged the second time.
func (r *Reconciler) ApplyFullState(fs *FullState) error {
	d := r.d
	if !r.haveState || r.resync {
		d.Queue.Clear()
	}

	seen := make(map[uint64]bool, len(fs.Entities))
	var buildings []EntityState
	for _, es := range fs.Entities {
		seen[es.ID] = true
		switch es.Kind {
		case KindBuilding:
			// builders are cities; bind those first
			buildings = append(buildings, es)
		case KindUnit, KindCity:
			if err := r.applyEntity(es); err != nil {
				d.Log.Warn("snapshot entity skipped", zap.Uint64("remote", es.ID), zap.Error(err))
				r.resync = true
			}
		default:
			d.Log.Warn("snapshot entity of unknown kind", zap.Uint64("remote", es.ID), zap.String("kind", es.Kind))
		}
	}
	for _, es := range buildings {
		if err := r.applyEntity(es); err != nil {
			d.Log.Warn("snapshot entity skipped", zap.Uint64("remote", es.ID), zap.Error(err))
		}
	}

	for _, remote := range r.ids.Remotes() {
		if seen[remote] {
			continue
		}
		local, _ := r.ids.Local(remote)
		d.World.DestroyEntity(local)
		r.ids.Unbind(remote)
	}

	s := d.State
	if seat := component.PlayerID(fs.Seat); seat != component.NoPlayer && seat != s.LocalPlayer {
		d.Log.Info("seat assigned by authority",
			zap.Int("seat", int(seat)),
			zap.Int("configured", int(s.LocalPlayer)))
		s.LocalPlayer = seat
	}
	s.Turn = max(fs.Turn, 1)
	s.CurrentPlayer = component.PlayerID(fs.CurrentPlayer)
	s.Phase = world.TurnActive
	if s.Selected != 0 && !d.World.Alive(s.Selected) {
		s.Selected = 0
	}
	r.setStockpiles(fs.Stockpiles, true)

	r.lastSeq = fs.Seq
	r.haveState = true
	r.resync = false
	r.stats.FullStates++
	r.raise(event.ReasonSync | event.ReasonTurn | event.ReasonResources)
	d.Log.Info("full state applied",
		zap.Uint64("seq", fs.Seq),
		zap.Uint64("turn", fs.Turn),
		zap.Int("entities", len(fs.Entities)))
	return nil
}

// applyEntity creates or updates one snapshot entity.
func (r *Reconciler) applyEntity(es EntityState) error {
	w := r.d.World
	local, ok := r.ids.Local(es.ID)
	if ok && (!w.Alive(local) || kindOf(w, local) != es.Kind) {
		w.DestroyEntity(local)
		r.ids.Unbind(es.ID)
		ok = false
	}

	owner := component.Owner{Player: component.PlayerID(es.Player), Civ: component.CivID(es.Civ)}
	if owner.Civ == "" {
		owner.Civ = r.d.State.CivOf(owner.Player)
	}
	at := grid.Tile{X: es.X, Y: es.Y}

	switch es.Kind {
	case KindUnit:
		var ud UnitData
		if err := decodeData(es.Data, &ud); err != nil {
			return err
		}
		if !ok {
			id, err := r.newUnit(owner, es.Type)
			if err != nil {
				return err
			}
			local = id
		}
		u, _ := ecs.Get[component.Unit](w, local)
		u.MP = ud.MP
		if ud.MaxMP > 0 {
			u.MaxMP = ud.MaxMP
		}
		if ud.Health > 0 {
			u.Health = ud.Health
		}
		ecs.RemoveOf[component.Path](w, local)
		if ud.NewlyPurchased {
			ecs.Add(w, local, &component.NewlyPurchased{})
		} else {
			ecs.RemoveOf[component.NewlyPurchased](w, local)
		}

	case KindCity:
		var cd CityData
		if err := decodeData(es.Data, &cd); err != nil {
			return err
		}
		if !ok {
			local = handler.CreateCity(r.d, owner, at, cd.Name)
		}
		c, _ := ecs.Get[component.City](w, local)
		c.Name = cd.Name
		c.Population = max(cd.Population, 1)
		c.GrowthProgress = cd.GrowthProgress
		c.GrowthTarget = cd.GrowthTarget
		ecs.Add(w, local, &component.Stockpile{Food: cd.Food, Gold: cd.Gold})
		q := &component.ProductionQueue{}
		for _, it := range cd.Queue {
			item := component.QueueItem{Kind: component.ItemUnit, Name: it.Name, Cost: it.Cost}
			if it.Kind == KindBuilding {
				item.Kind = component.ItemBuilding
				item.Tile = grid.Tile{X: it.X, Y: it.Y}
			}
			q.Items = append(q.Items, item)
		}
		ecs.Add(w, local, q)

	case KindBuilding:
		var bd BuildingData
		if err := decodeData(es.Data, &bd); err != nil {
			return err
		}
		builder, _ := r.ids.Local(bd.Builder)
		if !ok {
			id, err := handler.PlaceBuilding(r.d, owner, builder, es.Type, at)
			if err != nil {
				return err
			}
			local = id
		} else if b, found := ecs.Get[component.Building](w, local); found {
			b.Builder = builder
		}
	}

	ecs.Add(w, local, &component.Position{Tile: at})
	ecs.Add(w, local, &owner)
	r.ids.Bind(es.ID, local)
	return nil
}

func (r *Reconciler) newUnit(owner component.Owner, unitType string) (ecs.EntityID, error) {
	stats, ok := r.d.Tables.Civs.UnitStats(r.d.Tables.Units, string(owner.Civ), unitType)
	if !ok {
		return 0, fmt.Errorf("%w: unit %q", handler.ErrUnknownType, unitType)
	}
	w := r.d.World
	id := w.CreateEntity()
	ecs.Add(w, id, &component.Unit{
		Type:       stats.Type,
		MP:         stats.MP,
		MaxMP:      stats.MP,
		Sight:      stats.Sight,
		Health:     stats.Health,
		MaxHealth:  stats.Health,
		Attack:     stats.Attack,
		Defense:    stats.Defense,
		FoundsCity: stats.FoundsCity,
	})
	ecs.Add(w, id, &component.Selectable{})
	return id, nil
}

func kindOf(w *ecs.World, id ecs.EntityID) string {
	switch {
	case ecs.HasOf[component.Unit](w, id):
		return KindUnit
	case ecs.HasOf[component.City](w, id):
		return KindCity
	case ecs.HasOf[component.Building](w, id):
		return KindBuilding
	default:
		return ""
	}
}

func decodeData(raw json.RawMessage, v any) error {
	if len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("%w: entity data: %v", ErrMalformed, err)
	}
	return nil
}

// setStockpiles overwrites ledger entries. With reset, civs missing from
// the message are zeroed.
func (r *Reconciler) setStockpiles(stock map[string]int, reset bool) {
	l := r.d.Ledger
	if reset {
		for _, civ := range l.Civs() {
			if _, ok := stock[string(civ)]; !ok {
				l.Set(civ, 0)
			}
		}
	}
	for civ, v := range stock {
		l.Set(component.CivID(civ), v)
	}
	if len(stock) > 0 {
		r.raise(event.ReasonResources)
	}
}

// ApplyUpdate applies an incremental message. Updates must arrive in
// sequence: a repeated or older one is dropped, while a gap or a turn
// behind the local one is rejected and a resync requested. A higher turn
// advances the local turn first; the actions are then replayed in order.
// An action that cannot be replayed means the World has diverged.
func (r *Reconciler) ApplyUpdate(u *Update) error {
	d := r.d
	if !r.haveState {
		r.resync = true
		r.stats.Rejected++
		return fmt.Errorf("%w: update %d before any full state", ErrOutOfOrder, u.Seq)
	}
	if u.Seq != r.lastSeq+1 || u.Turn < d.State.Turn {
		r.stats.Rejected++
		if u.Seq > r.lastSeq {
			r.resync = true
		}
		d.Log.Debug("update rejected",
			zap.Uint64("seq", u.Seq),
			zap.Uint64("last_seq", r.lastSeq),
			zap.Uint64("turn", u.Turn),
			zap.Uint64("local_turn", d.State.Turn))
		return fmt.Errorf("%w: seq %d turn %d (have seq %d turn %d)", ErrOutOfOrder, u.Seq, u.Turn, r.lastSeq, d.State.Turn)
	}
	r.lastSeq = u.Seq
	r.stats.Updates++

	current := component.PlayerID(u.CurrentPlayer)
	if u.Turn > d.State.Turn {
		handler.AdvanceTurn(d, u.Turn, current)
	} else if d.State.CurrentPlayer != current {
		d.State.CurrentPlayer = current
		r.raise(event.ReasonTurn)
	}

	for i := range u.Actions {
		a := &u.Actions[i]
		if err := r.replay(a); err != nil {
			r.stats.Skipped++
			r.resync = true
			d.Log.Warn("action skipped", zap.String("type", a.Type), zap.String("action", a.ID), zap.Error(err))
			continue
		}
		r.stats.Applied++
	}

	r.setStockpiles(u.Stockpiles, false)

	if u.Digest != "" {
		if local := Digest(d.World, d.Ledger, r.ids.Remote); local != u.Digest {
			r.resync = true
			r.stats.Desyncs++
			d.Log.Warn("state digest mismatch",
				zap.Uint64("seq", u.Seq),
				zap.String("remote", u.Digest),
				zap.String("local", local))
		}
	}
	return nil
}

func (r *Reconciler) raise(reason event.Reason) {
	if r.d.Bus != nil {
		r.d.Bus.Raise(reason)
	}
}

func (r *Reconciler) local(remote uint64) (ecs.EntityID, error) {
	id, ok := r.ids.Local(remote)
	if !ok || !r.d.World.Alive(id) {
		return 0, fmt.Errorf("%w: %d", ErrUnmapped, remote)
	}
	return id, nil
}

func (r *Reconciler) replay(a *Action) error {
	d := r.d
	player := component.PlayerID(a.Player)
	at := grid.Tile{X: a.X, Y: a.Y}

	switch a.Type {
	case ActEndTurn:
		// the turn advance already accounts for it
		if player == d.State.LocalPlayer {
			r.stats.EchoesDropped++
		}
		return nil

	case ActMoveTo:
		id, err := r.local(a.Entity)
		if err != nil {
			return err
		}
		if a.Cost == nil {
			return fmt.Errorf("%w: move_to without cost", ErrMalformed)
		}
		return handler.PlaceUnit(d, id, at, *a.Cost)

	case ActFoundCity:
		settler, err := r.local(a.Entity)
		if err != nil {
			return err
		}
		if a.Created == 0 {
			return fmt.Errorf("%w: found_city without created id", ErrUnmapped)
		}
		pos, _ := ecs.Get[component.Position](d.World, settler)
		own, _ := ecs.Get[component.Owner](d.World, settler)
		if pos == nil || own == nil {
			return fmt.Errorf("%w: settler %d", handler.ErrInvalidTarget, a.Entity)
		}
		city := handler.CreateCity(d, *own, pos.Tile, a.Name)
		d.World.DestroyEntity(settler)
		r.ids.Unbind(a.Entity)
		r.ids.Bind(a.Created, city)
		if d.State.Selected == settler {
			d.State.Selected = city
		}
		return nil

	case ActSpawnUnit:
		if a.Created == 0 {
			return fmt.Errorf("%w: spawn_unit without created id", ErrUnmapped)
		}
		civ := d.State.CivOf(player)
		if a.Target != 0 {
			city, err := r.local(a.Target)
			if err != nil {
				return err
			}
			if own, ok := ecs.Get[component.Owner](d.World, city); ok {
				civ = own.Civ
			}
			handler.PopQueueHead(d, city, component.ItemUnit, a.Name)
		}
		id, err := handler.SpawnUnit(d, player, civ, a.Name, at)
		if err != nil {
			return err
		}
		ecs.Add(d.World, id, &component.NewlyPurchased{})
		r.ids.Bind(a.Created, id)
		r.raise(event.ReasonProduction)
		return nil

	case ActSpawnBuilding:
		if a.Created == 0 {
			return fmt.Errorf("%w: spawn_building without created id", ErrUnmapped)
		}
		city, err := r.local(a.Target)
		if err != nil {
			return err
		}
		own, _ := ecs.Get[component.Owner](d.World, city)
		if own == nil {
			return fmt.Errorf("%w: city %d", handler.ErrInvalidTarget, a.Target)
		}
		handler.PopQueueHead(d, city, component.ItemBuilding, a.Name)
		id, err := handler.PlaceBuilding(d, *own, city, a.Name, at)
		if err != nil {
			return err
		}
		r.ids.Bind(a.Created, id)
		return nil

	case ActProduceUnit, ActBuildBuilding:
		city, err := r.local(a.Target)
		if err != nil {
			return err
		}
		item := component.QueueItem{Kind: component.ItemUnit, Name: a.Name}
		if a.Cost != nil {
			item.Cost = *a.Cost
		}
		if a.Type == ActBuildBuilding {
			item.Kind = component.ItemBuilding
			item.Tile = at
		}
		return handler.AppendQueue(d, city, item)

	case ActAttack:
		if a.Result == nil {
			return fmt.Errorf("%w: attack without result", ErrMalformed)
		}
		atk, err := r.local(a.Entity)
		if err != nil {
			return err
		}
		def, err := r.local(a.Target)
		if err != nil {
			return err
		}
		res := handler.ApplyDamage(d, atk, def, a.Result.AttackerDamage, a.Result.DefenderDamage)
		if u, ok := ecs.Get[component.Unit](d.World, atk); ok {
			u.MP = 0
		}
		if res.DefenderDefeated {
			r.ids.Unbind(a.Target)
		}
		if res.AttackerDefeated {
			r.ids.Unbind(a.Entity)
		}
		return nil

	case ActDestroy:
		id, err := r.local(a.Entity)
		if err != nil {
			return err
		}
		d.World.MarkForDestruction(id)
		r.ids.Unbind(a.Entity)
		r.raise(event.ReasonCombat)
		return nil

	case ActGrow:
		id, err := r.local(a.Entity)
		if err != nil {
			return err
		}
		c, ok := ecs.Get[component.City](d.World, id)
		if !ok {
			return fmt.Errorf("%w: %d is not a city", handler.ErrInvalidTarget, a.Entity)
		}
		c.Population = max(a.Size, 1)
		if d.Growth != nil {
			d.Growth.Init(c)
		}
		r.raise(event.ReasonCity)
		return nil

	default:
		return fmt.Errorf("%w: action type %q", ErrMalformed, a.Type)
	}
}
