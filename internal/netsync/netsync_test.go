package netsync

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/civsim/engine/internal/component"
	"github.com/civsim/engine/internal/config"
	"github.com/civsim/engine/internal/core/command"
	"github.com/civsim/engine/internal/core/ecs"
	"github.com/civsim/engine/internal/core/event"
	"github.com/civsim/engine/internal/data"
	"github.com/civsim/engine/internal/grid"
	"github.com/civsim/engine/internal/growth"
	"github.com/civsim/engine/internal/handler"
	"github.com/civsim/engine/internal/ledger"
	"github.com/civsim/engine/internal/world"
)

func intp(n int) *int { return &n }

func newDeps(t *testing.T, authority world.Authority) *handler.Deps {
	t.Helper()
	cfg, err := config.Load("")
	require.NoError(t, err)
	tables, err := data.LoadTables("../data/testdata")
	require.NoError(t, err)

	state := world.NewState(authority)
	state.AddPlayer(world.PlayerInfo{ID: 1, Civ: "rome"})
	state.AddPlayer(world.PlayerInfo{ID: 2, Civ: "egypt"})
	state.LocalPlayer = 1

	return &handler.Deps{
		Config:  cfg,
		Log:     zap.NewNop(),
		World:   ecs.NewWorld(),
		State:   state,
		Queue:   command.NewQueue(),
		Bus:     event.NewBus(),
		Terrain: grid.Uniform(10, 10),
		Ledger:  ledger.New(),
		Tables:  tables,
		Growth:  &growth.Backoff{Base: 2},
	}
}

// host builds an authoritative world with two units, a city with a queued
// building, a placed building and a stockpile.
func host(t *testing.T) *handler.Deps {
	t.Helper()
	h := newDeps(t, world.LocalAuthoritative)
	_, err := handler.SpawnUnit(h, 1, "rome", "warrior", grid.Tile{X: 2, Y: 2})
	require.NoError(t, err)
	_, err = handler.SpawnUnit(h, 2, "egypt", "scout", grid.Tile{X: 7, Y: 7})
	require.NoError(t, err)
	city := handler.CreateCity(h, component.Owner{Player: 1, Civ: "rome"}, grid.Tile{X: 4, Y: 4}, "Roma")
	_, err = handler.CreateBuilding(h, city, "granary", grid.Tile{X: 5, Y: 4})
	require.NoError(t, err)
	require.NoError(t, handler.AppendQueue(h, city, component.QueueItem{Kind: component.ItemUnit, Name: "warrior", Cost: 20}))
	h.Ledger.Set("rome", 50)
	return h
}

func synced(t *testing.T) (*handler.Deps, *handler.Deps, *Reconciler) {
	t.Helper()
	h := host(t)
	c := newDeps(t, world.RemoteAuthoritative)
	r := NewReconciler(c)
	require.NoError(t, r.ApplyFullState(Snapshot(h, 1)))
	return h, c, r
}

func unitAt(t *testing.T, d *handler.Deps, at grid.Tile) ecs.EntityID {
	t.Helper()
	for _, id := range d.World.View(component.TypeUnit, component.TypePosition) {
		if pos, _ := ecs.Get[component.Position](d.World, id); pos.Tile == at {
			return id
		}
	}
	t.Fatalf("no unit at %s", at)
	return 0
}

func TestFullStateConvergesAndIsIdempotent(t *testing.T) {
	h, c, r := synced(t)
	want := Digest(h.World, h.Ledger, IdentityIDs)
	assert.Equal(t, want, Digest(c.World, c.Ledger, r.IDs().Remote))

	entities := len(c.World.View())
	mapped := r.IDs().Len()
	first := Digest(c.World, c.Ledger, r.IDs().Remote)

	c.Queue.Push(command.EndTurn{Meta: command.NewMeta(1, command.OriginLocal)})
	require.NoError(t, r.ApplyFullState(Snapshot(h, 1)))

	assert.Equal(t, first, Digest(c.World, c.Ledger, r.IDs().Remote))
	assert.Len(t, c.World.View(), entities)
	assert.Equal(t, mapped, r.IDs().Len())
	assert.Equal(t, 1, c.Queue.Len(), "a routine full state keeps pending commands")
	assert.Equal(t, 2, r.Stats().FullStates)
	assert.False(t, r.NeedsResync())

	city, ok := handler.CityAt(c, grid.Tile{X: 4, Y: 4})
	require.True(t, ok)
	q, _ := ecs.Get[component.ProductionQueue](c.World, city)
	require.Len(t, q.Items, 1)
	assert.Equal(t, "warrior", q.Items[0].Name)
	assert.Equal(t, 50, c.Ledger.Get("rome"))
}

func TestFullStateDestroysOmittedEntities(t *testing.T) {
	h, c, r := synced(t)
	scout := unitAt(t, c, grid.Tile{X: 7, Y: 7})

	h.World.DestroyEntity(unitAt(t, h, grid.Tile{X: 7, Y: 7}))
	require.NoError(t, r.ApplyFullState(Snapshot(h, 2)))

	assert.False(t, c.World.Alive(scout))
	assert.Equal(t, Digest(h.World, h.Ledger, IdentityIDs), Digest(c.World, c.Ledger, r.IDs().Remote))
}

func TestUpdateRejectsStaleMessages(t *testing.T) {
	c := newDeps(t, world.RemoteAuthoritative)
	r := NewReconciler(c)

	err := r.ApplyUpdate(&Update{Seq: 1, Turn: 1})
	assert.ErrorIs(t, err, ErrOutOfOrder)
	assert.True(t, r.NeedsResync())

	require.NoError(t, r.ApplyFullState(&FullState{Seq: 5, Turn: 3, CurrentPlayer: 1}))
	assert.False(t, r.NeedsResync())

	assert.ErrorIs(t, r.ApplyUpdate(&Update{Seq: 5, Turn: 3, CurrentPlayer: 1}), ErrOutOfOrder)
	assert.False(t, r.NeedsResync(), "a repeated update is dropped quietly")

	assert.ErrorIs(t, r.ApplyUpdate(&Update{Seq: 6, Turn: 2, CurrentPlayer: 1}), ErrOutOfOrder)
	assert.True(t, r.NeedsResync(), "an update behind the local turn means divergence")
	assert.Equal(t, uint64(3), c.State.Turn)

	require.NoError(t, r.ApplyFullState(&FullState{Seq: 5, Turn: 3, CurrentPlayer: 1}))
	assert.ErrorIs(t, r.ApplyUpdate(&Update{Seq: 8, Turn: 3, CurrentPlayer: 2}), ErrOutOfOrder)
	assert.True(t, r.NeedsResync(), "a gap means missed updates")
	assert.Equal(t, component.PlayerID(1), c.State.CurrentPlayer)
	assert.Equal(t, 4, r.Stats().Rejected)

	require.NoError(t, r.ApplyUpdate(&Update{Seq: 6, Turn: 3, CurrentPlayer: 2}))
	assert.Equal(t, component.PlayerID(2), c.State.CurrentPlayer)
}

func TestMoveToReplayOverwritesPosition(t *testing.T) {
	h, c, r := synced(t)
	remote := uint64(unitAt(t, h, grid.Tile{X: 2, Y: 2}))
	local := unitAt(t, c, grid.Tile{X: 2, Y: 2})

	require.NoError(t, r.ApplyUpdate(&Update{Seq: 2, Turn: 1, CurrentPlayer: 1, Actions: []Action{
		{Type: ActMoveTo, Player: 1, Entity: remote, X: 3, Y: 2, Cost: intp(1)},
	}}))
	pos, _ := ecs.Get[component.Position](c.World, local)
	u, _ := ecs.Get[component.Unit](c.World, local)
	assert.Equal(t, grid.Tile{X: 3, Y: 2}, pos.Tile)
	assert.Equal(t, 1, u.MP)
	assert.False(t, ecs.HasOf[component.Path](c.World, local))

	require.NoError(t, r.ApplyUpdate(&Update{Seq: 3, Turn: 1, CurrentPlayer: 1, Actions: []Action{
		{Type: ActMoveTo, Player: 1, Entity: remote, X: 6, Y: 2, Cost: intp(3)},
	}}))
	assert.Equal(t, grid.Tile{X: 6, Y: 2}, pos.Tile)
	assert.Equal(t, 0, u.MP)
	assert.False(t, r.NeedsResync())
}

func TestMoveToWithoutCostIsSkipped(t *testing.T) {
	h, c, r := synced(t)
	remote := uint64(unitAt(t, h, grid.Tile{X: 2, Y: 2}))
	local := unitAt(t, c, grid.Tile{X: 2, Y: 2})

	require.NoError(t, r.ApplyUpdate(&Update{Seq: 2, Turn: 1, CurrentPlayer: 1, Actions: []Action{
		{Type: ActMoveTo, Player: 1, Entity: remote, X: 4, Y: 2},
	}}))

	pos, _ := ecs.Get[component.Position](c.World, local)
	assert.Equal(t, grid.Tile{X: 2, Y: 2}, pos.Tile)
	assert.Equal(t, 1, r.Stats().Skipped)
	assert.True(t, r.NeedsResync())
}

func TestTurnAdvanceDropsSelfEcho(t *testing.T) {
	_, c, r := synced(t)
	local := unitAt(t, c, grid.Tile{X: 2, Y: 2})
	u, _ := ecs.Get[component.Unit](c.World, local)
	u.MP = 0

	require.NoError(t, r.ApplyUpdate(&Update{Seq: 2, Turn: 2, CurrentPlayer: 2, Actions: []Action{
		{Type: ActEndTurn, Player: 1},
	}}))

	assert.Equal(t, uint64(2), c.State.Turn)
	assert.Equal(t, component.PlayerID(2), c.State.CurrentPlayer)
	assert.Equal(t, 2, u.MP)
	assert.Equal(t, 1, r.Stats().EchoesDropped)
	began, ok := command.PeekAs[command.TurnBegan](c.Queue)
	require.True(t, ok)
	assert.Equal(t, uint64(2), began.Turn)
}

func TestUnmappedActionIsSkipped(t *testing.T) {
	h, c, r := synced(t)
	remote := uint64(unitAt(t, h, grid.Tile{X: 2, Y: 2}))

	require.NoError(t, r.ApplyUpdate(&Update{Seq: 2, Turn: 1, CurrentPlayer: 1, Actions: []Action{
		{Type: ActMoveTo, Player: 1, Entity: 9999, X: 1, Y: 1},
		{Type: ActMoveTo, Player: 1, Entity: remote, X: 2, Y: 3, Cost: intp(1)},
	}}))

	assert.True(t, r.NeedsResync())
	assert.Equal(t, 1, r.Stats().Skipped)
	assert.Equal(t, 1, r.Stats().Applied)
	pos, _ := ecs.Get[component.Position](c.World, unitAt(t, c, grid.Tile{X: 2, Y: 3}))
	assert.Equal(t, grid.Tile{X: 2, Y: 3}, pos.Tile)

	require.NoError(t, r.ApplyFullState(Snapshot(h, 3)))
	assert.False(t, r.NeedsResync())
}

func TestSpawnReplayConsumesQueueHead(t *testing.T) {
	h, c, r := synced(t)
	cityRemote, ok := handler.CityAt(h, grid.Tile{X: 4, Y: 4})
	require.True(t, ok)

	require.NoError(t, r.ApplyUpdate(&Update{
		Seq: 2, Turn: 1, CurrentPlayer: 1,
		Actions: []Action{
			{Type: ActSpawnUnit, Player: 1, Target: uint64(cityRemote), Created: 500, Name: "warrior", X: 4, Y: 4},
		},
		Stockpiles: map[string]int{"rome": 30},
	}))

	city, _ := handler.CityAt(c, grid.Tile{X: 4, Y: 4})
	q, _ := ecs.Get[component.ProductionQueue](c.World, city)
	assert.Empty(t, q.Items)
	spawned, ok := r.IDs().Local(500)
	require.True(t, ok)
	assert.True(t, ecs.HasOf[component.NewlyPurchased](c.World, spawned))
	u, _ := ecs.Get[component.Unit](c.World, spawned)
	assert.Equal(t, 12, u.Attack)
	assert.Equal(t, 30, c.Ledger.Get("rome"))
}

func TestFoundCityAndAttackReplay(t *testing.T) {
	h, c, r := synced(t)
	warrior := uint64(unitAt(t, h, grid.Tile{X: 2, Y: 2}))
	scout := uint64(unitAt(t, h, grid.Tile{X: 7, Y: 7}))
	settlerHost, err := handler.SpawnUnit(h, 1, "rome", "settler", grid.Tile{X: 1, Y: 8})
	require.NoError(t, err)
	require.NoError(t, r.ApplyFullState(Snapshot(h, 2)))

	require.NoError(t, r.ApplyUpdate(&Update{Seq: 3, Turn: 1, CurrentPlayer: 1, Actions: []Action{
		{Type: ActFoundCity, Player: 1, Entity: uint64(settlerHost), Created: 700, Name: "Antium"},
		{Type: ActAttack, Player: 1, Entity: warrior, Target: scout, Result: &AttackResult{DefenderDamage: 60, AttackerDamage: 5}},
	}}))

	city, ok := r.IDs().Local(700)
	require.True(t, ok)
	cc, _ := ecs.Get[component.City](c.World, city)
	assert.Equal(t, "Antium", cc.Name)
	_, mapped := r.IDs().Local(uint64(settlerHost))
	assert.False(t, mapped)

	_, mapped = r.IDs().Local(scout)
	assert.False(t, mapped)
	assert.Equal(t, 1, c.World.FlushDestroyQueue())
	local, _ := r.IDs().Local(warrior)
	u, _ := ecs.Get[component.Unit](c.World, local)
	assert.Equal(t, 100, u.Health)
	assert.Equal(t, 0, u.MP)
}

func TestJournalUpdatesConverge(t *testing.T) {
	h, c, r := synced(t)
	h.Journal = handler.NewJournal()
	warrior := unitAt(t, h, grid.Tile{X: 2, Y: 2})
	city, ok := handler.CityAt(h, grid.Tile{X: 4, Y: 4})
	require.True(t, ok)

	require.NoError(t, handler.OrderMove(h, warrior, 1, grid.Tile{X: 3, Y: 2}))
	require.NoError(t, handler.EnqueueUnit(h, city, 1, "scout"))
	require.NoError(t, handler.EndTurn(h, 1))

	updates := Updates(h, h.Journal.Drain())
	require.Len(t, updates, 2, "one update per turn")
	assert.Equal(t, uint64(1), updates[0].Turn)
	assert.Equal(t, 1, updates[0].CurrentPlayer)
	require.Len(t, updates[0].Actions, 3)
	assert.Equal(t, ActMoveTo, updates[0].Actions[0].Type)
	require.NotNil(t, updates[0].Actions[0].Cost)
	assert.Equal(t, ActProduceUnit, updates[0].Actions[1].Type)
	assert.Equal(t, ActEndTurn, updates[0].Actions[2].Type)
	assert.Empty(t, updates[0].Digest)

	last := updates[1]
	assert.Equal(t, uint64(2), last.Turn)
	assert.Equal(t, 2, last.CurrentPlayer)
	assert.Equal(t, 50, last.Stockpiles["rome"])
	assert.Equal(t, Digest(h.World, h.Ledger, IdentityIDs), last.Digest)

	for i, u := range updates {
		u.Seq = uint64(2 + i)
		require.NoError(t, r.ApplyUpdate(u))
	}
	assert.False(t, r.NeedsResync())
	assert.Equal(t, 3, r.Stats().Applied)
	assert.Equal(t, uint64(2), c.State.Turn)
	assert.Equal(t, Digest(h.World, h.Ledger, IdentityIDs), Digest(c.World, c.Ledger, r.IDs().Remote))

	cc, _ := handler.CityAt(c, grid.Tile{X: 4, Y: 4})
	q, _ := ecs.Get[component.ProductionQueue](c.World, cc)
	require.Len(t, q.Items, 2)
	assert.Equal(t, "scout", q.Items[1].Name)
}

func TestDigestMismatchRequestsResync(t *testing.T) {
	h, _, r := synced(t)
	require.NoError(t, r.ApplyUpdate(&Update{Seq: 2, Turn: 1, CurrentPlayer: 1,
		Digest: Digest(h.World, h.Ledger, IdentityIDs)}))
	assert.False(t, r.NeedsResync())

	h.Ledger.Set("rome", 49)
	require.NoError(t, r.ApplyUpdate(&Update{Seq: 3, Turn: 1, CurrentPlayer: 1,
		Digest: Digest(h.World, h.Ledger, IdentityIDs)}))
	assert.True(t, r.NeedsResync())
	assert.Equal(t, 1, r.Stats().Desyncs)
}

func TestCodecRoundTrip(t *testing.T) {
	h := host(t)
	for _, compress := range []bool{false, true} {
		codec, err := NewCodec(compress)
		require.NoError(t, err)
		frame, err := codec.Encode(Envelope{Type: TypeFullState, FullState: Snapshot(h, 9)})
		require.NoError(t, err)
		assert.Equal(t, compress, bytes.HasPrefix(frame, zstdMagic))

		env, err := codec.Decode(frame)
		require.NoError(t, err)
		require.NotNil(t, env.FullState)
		assert.Equal(t, uint64(9), env.FullState.Seq)
		assert.Len(t, env.FullState.Entities, 4)
		codec.Close()
	}
}

func TestCodecRejectsMalformed(t *testing.T) {
	codec, err := NewCodec(false)
	require.NoError(t, err)
	defer codec.Close()

	tests := []struct {
		name  string
		frame string
	}{
		{"not json", `{"type":`},
		{"unknown type", `{"type":"chat"}`},
		{"missing body", `{"type":"update"}`},
		{"negative seq", `{"type":"update","update":{"seq":-1,"turn":1,"current_player":1}}`},
		{"unknown action", `{"type":"update","update":{"seq":1,"turn":1,"current_player":1,"actions":[{"type":"teleport","player":1}]}}`},
		{"bad digest", `{"type":"update","update":{"seq":1,"turn":1,"current_player":1,"digest":"xyz"}}`},
		{"corrupt zstd", string(append(append([]byte{}, zstdMagic...), 1, 2, 3))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := codec.Decode([]byte(tt.frame))
			assert.ErrorIs(t, err, ErrMalformed)
		})
	}
}

func TestCodecEnforcesFrameLimit(t *testing.T) {
	u := &Update{Seq: 1, Turn: 1, CurrentPlayer: 1}
	for i := 0; i < 200; i++ {
		u.Actions = append(u.Actions, Action{Type: ActEndTurn, Player: 1})
	}
	env := Envelope{Type: TypeUpdate, Update: u}

	plain, err := NewCodec(false)
	require.NoError(t, err)
	defer plain.Close()
	raw, err := plain.Encode(env)
	require.NoError(t, err)
	packer, err := NewCodec(true)
	require.NoError(t, err)
	defer packer.Close()
	packed, err := packer.Encode(env)
	require.NoError(t, err)

	limit := int64(len(raw) / 2)
	require.Less(t, int64(len(packed)), limit)
	small, err := NewCodec(false, WithMaxFrame(limit))
	require.NoError(t, err)
	defer small.Close()

	_, err = small.Decode(raw)
	assert.ErrorIs(t, err, ErrMalformed, "oversized plain frame")
	_, err = small.Decode(packed)
	assert.ErrorIs(t, err, ErrMalformed, "small frame inflating past the limit")

	got, err := plain.Decode(packed)
	require.NoError(t, err)
	assert.Len(t, got.Update.Actions, 200)
}

func TestHandleRejectsClientActions(t *testing.T) {
	c := newDeps(t, world.RemoteAuthoritative)
	r := NewReconciler(c)
	err := r.Handle(Envelope{Type: TypeAction, Action: &Action{Type: ActEndTurn}})
	assert.ErrorIs(t, err, ErrMalformed)
}

type frames [][]byte

func (f *frames) Send(b []byte) error {
	*f = append(*f, b)
	return nil
}

func TestForwarderEncodesRemoteIDs(t *testing.T) {
	h, c, r := synced(t)
	codec, err := NewCodec(false)
	require.NoError(t, err)
	var out frames
	fw := NewForwarder(codec, r.IDs(), &out, zap.NewNop())

	local := unitAt(t, c, grid.Tile{X: 2, Y: 2})
	cmd := command.MoveTo{Meta: command.NewMeta(1, command.OriginLocal), Unit: local, To: grid.Tile{X: 5, Y: 5}}
	require.NoError(t, fw.Forward(cmd))
	require.NoError(t, fw.Forward(command.EndTurn{Meta: command.NewMeta(1, command.OriginLocal)}))
	require.Len(t, out, 2)

	env, err := codec.Decode(out[0])
	require.NoError(t, err)
	require.NotNil(t, env.Action)
	assert.Equal(t, ActMoveTo, env.Action.Type)
	assert.Equal(t, cmd.ID, env.Action.ID)
	assert.Equal(t, uint64(unitAt(t, h, grid.Tile{X: 2, Y: 2})), env.Action.Entity)
	assert.Equal(t, 5, env.Action.X)

	err = fw.Forward(command.Attack{Meta: command.NewMeta(1, command.OriginLocal), Attacker: local, Defender: 12345})
	assert.ErrorIs(t, err, ErrUnmapped)
	err = fw.Forward(command.Select{Meta: command.NewMeta(1, command.OriginLocal), Entity: local})
	assert.ErrorIs(t, err, ErrMalformed)
	assert.Equal(t, 2, fw.Sent())
}
