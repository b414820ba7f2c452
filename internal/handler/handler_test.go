package handler

import (
	"testing"

	"github.com/civsim/engine/internal/component"
	"github.com/civsim/engine/internal/config"
	"github.com/civsim/engine/internal/core/command"
	"github.com/civsim/engine/internal/core/ecs"
	"github.com/civsim/engine/internal/core/event"
	"github.com/civsim/engine/internal/data"
	"github.com/civsim/engine/internal/grid"
	"github.com/civsim/engine/internal/growth"
	"github.com/civsim/engine/internal/ledger"
	"github.com/civsim/engine/internal/world"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func intp(n int) *int { return &n }

func testTables(t *testing.T) *data.Tables {
	t.Helper()
	units, err := data.NewUnitTable([]data.UnitTemplate{
		{Type: "settler", MP: 2, Sight: 1, Health: 20, Defense: 1, Cost: 30, FoundsCity: true},
		{Type: "warrior", MP: 2, Sight: 2, Health: 100, Attack: 10, Defense: 8, Cost: 20},
		{Type: "scout", MP: 4, Sight: 3, Health: 60, Attack: 3, Defense: 3, Cost: 15},
	})
	require.NoError(t, err)
	buildings, err := data.NewBuildingTable([]data.BuildingTemplate{
		{Name: "granary", Cost: 40, Yields: grid.Yields{Food: 2}},
		{Name: "watchtower", Cost: 25, Sight: 2},
	})
	require.NoError(t, err)
	civs, err := data.NewCivTable([]data.CivTemplate{
		{ID: "rome", CityNames: []string{"Roma", "Antium"}, UnitOverrides: map[string]data.UnitOverride{"warrior": {Attack: intp(12)}}},
		{ID: "egypt"},
	})
	require.NoError(t, err)
	terrain, err := data.NewTerrainTable([]data.TerrainType{{Code: 1, Name: "plains", MoveCost: 1, Passable: true}})
	require.NoError(t, err)
	return &data.Tables{Units: units, Buildings: buildings, Civs: civs, Terrain: terrain}
}

func newDeps(t *testing.T) *Deps {
	t.Helper()
	cfg, err := config.Load("")
	require.NoError(t, err)

	state := world.NewState(world.LocalAuthoritative)
	state.AddPlayer(world.PlayerInfo{ID: 1, Civ: "rome"})
	state.AddPlayer(world.PlayerInfo{ID: 2, Civ: "egypt"})
	state.LocalPlayer = 1

	return &Deps{
		Config:  cfg,
		Log:     zap.NewNop(),
		World:   ecs.NewWorld(),
		State:   state,
		Queue:   command.NewQueue(),
		Bus:     event.NewBus(),
		Terrain: grid.Uniform(10, 10),
		Ledger:  ledger.New(),
		Tables:  testTables(t),
		Growth:  &growth.Backoff{Base: 2},
	}
}

func spawn(t *testing.T, d *Deps, player component.PlayerID, unitType string, at grid.Tile) ecs.EntityID {
	t.Helper()
	civ := d.State.CivOf(player)
	id, err := SpawnUnit(d, player, civ, unitType, at)
	require.NoError(t, err)
	return id
}

func TestSpawnUnitAppliesCivOverride(t *testing.T) {
	d := newDeps(t)
	roman := spawn(t, d, 1, "warrior", grid.Tile{X: 1, Y: 1})
	egyptian := spawn(t, d, 2, "warrior", grid.Tile{X: 2, Y: 1})

	u, _ := ecs.Get[component.Unit](d.World, roman)
	assert.Equal(t, 12, u.Attack)
	u, _ = ecs.Get[component.Unit](d.World, egyptian)
	assert.Equal(t, 10, u.Attack)

	_, err := SpawnUnit(d, 1, "rome", "catapult", grid.Tile{})
	assert.ErrorIs(t, err, ErrUnknownType)
}

func TestMoveOrderSpansTurns(t *testing.T) {
	d := newDeps(t)
	id := spawn(t, d, 1, "warrior", grid.Tile{X: 0, Y: 0})

	require.NoError(t, OrderMove(d, id, 1, grid.Tile{X: 5, Y: 0}))
	pos, _ := ecs.Get[component.Position](d.World, id)
	u, _ := ecs.Get[component.Unit](d.World, id)
	assert.Equal(t, grid.Tile{X: 2, Y: 0}, pos.Tile)
	assert.Zero(t, u.MP)

	p, ok := ecs.Get[component.Path](d.World, id)
	require.True(t, ok)
	assert.Equal(t, grid.Tile{X: 2, Y: 0}, p.Tiles[0])
	assert.Equal(t, grid.Tile{X: 5, Y: 0}, p.Tiles[len(p.Tiles)-1])

	assert.False(t, AdvanceUnit(d, id), "no MP left this turn")

	RestoreUnits(d)
	assert.True(t, AdvanceUnit(d, id))
	assert.Equal(t, grid.Tile{X: 4, Y: 0}, pos.Tile)

	RestoreUnits(d)
	assert.True(t, AdvanceUnit(d, id))
	assert.Equal(t, grid.Tile{X: 5, Y: 0}, pos.Tile)
	assert.Equal(t, 1, u.MP)
	assert.False(t, ecs.HasOf[component.Path](d.World, id), "finished order is removed")
	assert.True(t, d.Bus.Pending().Has(event.ReasonUnitMoved))
}

func TestMoveRejections(t *testing.T) {
	d := newDeps(t)
	mine := spawn(t, d, 1, "warrior", grid.Tile{X: 0, Y: 0})
	theirs := spawn(t, d, 2, "warrior", grid.Tile{X: 9, Y: 9})

	assert.ErrorIs(t, OrderMove(d, theirs, 1, grid.Tile{X: 8, Y: 9}), ErrNotOwner)
	assert.ErrorIs(t, OrderMove(d, theirs, 2, grid.Tile{X: 8, Y: 9}), ErrNotYourTurn)
	assert.ErrorIs(t, OrderMove(d, mine, 1, grid.Tile{X: 20, Y: 0}), ErrNoPath)

	ecs.Add(d.World, mine, &component.NewlyPurchased{})
	assert.ErrorIs(t, OrderMove(d, mine, 1, grid.Tile{X: 1, Y: 0}), ErrNewlyPurchased)
}

func TestPlaceUnitClampsMP(t *testing.T) {
	d := newDeps(t)
	id := spawn(t, d, 1, "warrior", grid.Tile{X: 0, Y: 0})
	ecs.Add(d.World, id, &component.Path{Tiles: []grid.Tile{{X: 0, Y: 0}, {X: 1, Y: 0}}})

	require.NoError(t, PlaceUnit(d, id, grid.Tile{X: 3, Y: 3}, 5))
	pos, _ := ecs.Get[component.Position](d.World, id)
	u, _ := ecs.Get[component.Unit](d.World, id)
	assert.Equal(t, grid.Tile{X: 3, Y: 3}, pos.Tile)
	assert.Zero(t, u.MP)
	assert.False(t, ecs.HasOf[component.Path](d.World, id))

	RestoreUnits(d)
	assert.ErrorIs(t, PlaceUnit(d, id, grid.Tile{X: 3, Y: 4}, -1), ErrInvalidTarget)
	assert.Equal(t, grid.Tile{X: 3, Y: 3}, pos.Tile)
	assert.Equal(t, 2, u.MP)
}

func TestJournalRecordsOutcomes(t *testing.T) {
	d := newDeps(t)
	id := spawn(t, d, 1, "warrior", grid.Tile{X: 0, Y: 0})
	require.NoError(t, OrderMove(d, id, 1, grid.Tile{X: 1, Y: 0}))
	assert.Nil(t, d.Journal, "recording without a journal is a no-op")

	d.Journal = NewJournal()
	require.NoError(t, OrderMove(d, id, 1, grid.Tile{X: 2, Y: 0}))
	require.NoError(t, EndTurn(d, 1))

	got := d.Journal.Drain()
	require.Len(t, got, 2)
	assert.Equal(t, OutcomeMove, got[0].Kind)
	assert.Equal(t, id, got[0].Entity)
	assert.Equal(t, grid.Tile{X: 2, Y: 0}, got[0].Tile)
	assert.Equal(t, 1, got[0].Cost)
	assert.Equal(t, uint64(1), got[0].Turn)
	assert.Equal(t, component.PlayerID(1), got[0].Current)
	assert.Equal(t, OutcomeEndTurn, got[1].Kind)
	assert.Equal(t, uint64(1), got[1].Turn)
	assert.Zero(t, d.Journal.Len())
}

func TestFoundCityConsumesSettler(t *testing.T) {
	d := newDeps(t)
	settler := spawn(t, d, 1, "settler", grid.Tile{X: 4, Y: 4})
	warrior := spawn(t, d, 1, "warrior", grid.Tile{X: 4, Y: 4})
	d.State.Selected = settler

	_, err := FoundCity(d, warrior, 1, "")
	assert.ErrorIs(t, err, ErrNotSettler)

	city, err := FoundCity(d, settler, 1, "")
	require.NoError(t, err)
	assert.False(t, d.World.Alive(settler))
	assert.Equal(t, city, d.State.Selected)

	c, ok := ecs.Get[component.City](d.World, city)
	require.True(t, ok)
	assert.Equal(t, "Roma", c.Name)
	assert.Equal(t, 1, c.Population)
	assert.Equal(t, 2, c.GrowthTarget)

	second := spawn(t, d, 1, "settler", grid.Tile{X: 4, Y: 4})
	_, err = FoundCity(d, second, 1, "")
	assert.ErrorIs(t, err, ErrTileTaken)
	assert.True(t, d.World.Alive(second))
}

func foundCity(t *testing.T, d *Deps, player component.PlayerID, at grid.Tile) ecs.EntityID {
	t.Helper()
	return CreateCity(d, component.Owner{Player: player, Civ: d.State.CivOf(player)}, at, "")
}

func TestProductionWaitsForStockpile(t *testing.T) {
	d := newDeps(t)
	city := foundCity(t, d, 1, grid.Tile{X: 5, Y: 5})

	require.NoError(t, EnqueueUnit(d, city, 1, "Warrior"))
	assert.Zero(t, CompleteProduction(d, city))

	d.Ledger.Add("rome", 25)
	assert.Equal(t, 1, CompleteProduction(d, city))
	assert.Equal(t, 5, d.Ledger.Get("rome"))

	units := d.World.View(component.TypeUnit, component.TypeNewlyPurchased)
	require.Len(t, units, 1)
	pos, _ := ecs.Get[component.Position](d.World, units[0])
	assert.Equal(t, grid.Tile{X: 5, Y: 5}, pos.Tile)

	q, _ := ecs.Get[component.ProductionQueue](d.World, city)
	assert.Empty(t, q.Items)
}

func TestFailedBuildingIsRefunded(t *testing.T) {
	d := newDeps(t)
	city := foundCity(t, d, 1, grid.Tile{X: 5, Y: 5})
	spot := grid.Tile{X: 6, Y: 5}

	require.NoError(t, EnqueueBuilding(d, city, 1, "granary", spot))
	require.NoError(t, EnqueueUnit(d, city, 1, "scout"))
	assert.ErrorIs(t, EnqueueBuilding(d, city, 1, "granary", grid.Tile{X: 9, Y: 9}), ErrInvalidTile)

	// the tile is taken between queueing and completion
	_, err := CreateBuilding(d, city, "watchtower", spot)
	require.NoError(t, err)

	d.Ledger.Add("rome", 50)
	assert.Equal(t, 1, CompleteProduction(d, city), "granary dropped, scout built")
	assert.Equal(t, 35, d.Ledger.Get("rome"))
}

func TestAttackAdjacentEnemy(t *testing.T) {
	d := newDeps(t)
	atk := spawn(t, d, 1, "warrior", grid.Tile{X: 2, Y: 2})
	def := spawn(t, d, 2, "warrior", grid.Tile{X: 3, Y: 2})
	far := spawn(t, d, 2, "scout", grid.Tile{X: 5, Y: 5})
	friend := spawn(t, d, 1, "scout", grid.Tile{X: 2, Y: 3})

	_, err := Attack(d, atk, far, 1)
	assert.ErrorIs(t, err, ErrNotAdjacent)
	_, err = Attack(d, atk, friend, 1)
	assert.ErrorIs(t, err, ErrInvalidTarget)

	res, err := Attack(d, atk, def, 1)
	require.NoError(t, err)
	// 20*12/8 = 30 dealt; 10*8/12 = 6 taken
	assert.Equal(t, 30, res.DefenderDamage)
	assert.Equal(t, 6, res.AttackerDamage)
	assert.False(t, res.DefenderDefeated)

	u, _ := ecs.Get[component.Unit](d.World, atk)
	assert.Zero(t, u.MP)
	assert.Equal(t, 94, u.Health)
	_, err = Attack(d, atk, def, 1)
	assert.ErrorIs(t, err, ErrNoMovement)

	du, _ := ecs.Get[component.Unit](d.World, def)
	du.Health = 10
	RestoreUnits(d)
	res, err = Attack(d, atk, def, 1)
	require.NoError(t, err)
	assert.True(t, res.DefenderDefeated)
	assert.Zero(t, res.AttackerDamage)
	assert.True(t, d.World.PendingDestruction(def))
	assert.Equal(t, 1, d.World.FlushDestroyQueue())
	assert.False(t, d.World.Alive(def))
}

func TestEndTurnRestoresUnits(t *testing.T) {
	d := newDeps(t)
	id := spawn(t, d, 1, "warrior", grid.Tile{X: 0, Y: 0})
	u, _ := ecs.Get[component.Unit](d.World, id)
	u.MP = 0
	ecs.Add(d.World, id, &component.NewlyPurchased{})

	assert.ErrorIs(t, EndTurn(d, 2), ErrNotYourTurn)
	require.NoError(t, EndTurn(d, 1))

	assert.Equal(t, 2, u.MP)
	assert.False(t, ecs.HasOf[component.NewlyPurchased](d.World, id))
	assert.Equal(t, uint64(2), d.State.Turn)
	assert.Equal(t, component.PlayerID(2), d.State.CurrentPlayer)
	assert.Equal(t, world.TurnActive, d.State.Phase)

	tb, ok := command.PeekAs[command.TurnBegan](d.Queue)
	require.True(t, ok)
	assert.Equal(t, uint64(2), tb.Turn)

	assert.False(t, AdvanceTurn(d, 2, 1), "turns never repeat")
}

func TestSelectOnlyOwnSelectable(t *testing.T) {
	d := newDeps(t)
	mine := spawn(t, d, 1, "warrior", grid.Tile{})
	theirs := spawn(t, d, 2, "warrior", grid.Tile{X: 1})

	require.NoError(t, Select(d, mine, 1))
	assert.Equal(t, mine, d.State.Selected)
	assert.ErrorIs(t, Select(d, theirs, 1), ErrNotOwner)
	assert.ErrorIs(t, Select(d, mine, 2), ErrNotOwner)
	assert.Equal(t, mine, d.State.Selected)
}
