// Package sim assembles the World, the command queue, the system pipeline
// and the network reconciler into one Simulation. Everything in a
// Simulation runs on the goroutine that calls Tick.
package sim

import (
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/civsim/engine/internal/component"
	"github.com/civsim/engine/internal/config"
	"github.com/civsim/engine/internal/core/command"
	"github.com/civsim/engine/internal/core/ecs"
	"github.com/civsim/engine/internal/core/event"
	coresys "github.com/civsim/engine/internal/core/system"
	"github.com/civsim/engine/internal/data"
	"github.com/civsim/engine/internal/fog"
	"github.com/civsim/engine/internal/grid"
	"github.com/civsim/engine/internal/growth"
	"github.com/civsim/engine/internal/handler"
	"github.com/civsim/engine/internal/ledger"
	"github.com/civsim/engine/internal/mapgen"
	"github.com/civsim/engine/internal/netsync"
	"github.com/civsim/engine/internal/scripting"
	"github.com/civsim/engine/internal/system"
	"github.com/civsim/engine/internal/world"
)

// Options carries what New cannot build itself.
type Options struct {
	Config    *config.Config
	Log       *zap.Logger
	Tables    *data.Tables
	Terrain   grid.Terrain
	Scripting *scripting.Engine

	// Link joins a remote authority. Required under remote authority.
	Link system.Link
	// Accept hands over newly connected peers when hosting. Nil disables
	// hosting.
	Accept func() system.Peer
	// Autoplay lets the bot drive the local seat too.
	Autoplay bool

	Projection grid.Projection
}

// Simulation is one running game.
type Simulation struct {
	ID string

	deps   *handler.Deps
	runner *coresys.Runner
	codec  *netsync.Codec
	rec    *netsync.Reconciler

	fog        *system.FogSystem
	production *system.ProductionSystem
	host       *system.HostSystem
	forwarder  *netsync.Forwarder
	link       system.Link
}

// New wires a Simulation from opts. The World is empty until NewGame or
// the first full state from the authority.
func New(opts Options) (*Simulation, error) {
	cfg := opts.Config
	if cfg == nil || opts.Tables == nil || opts.Terrain == nil {
		return nil, fmt.Errorf("sim: config, tables and terrain are required")
	}
	log := opts.Log
	if log == nil {
		log = zap.NewNop()
	}

	authority, ok := world.ParseAuthority(cfg.Simulation.Authority)
	if !ok {
		return nil, fmt.Errorf("sim: unknown authority %q", cfg.Simulation.Authority)
	}
	if authority == world.RemoteAuthoritative && opts.Link == nil {
		return nil, fmt.Errorf("sim: remote authority needs a link")
	}

	state := world.NewState(authority)
	for _, p := range cfg.Simulation.Players {
		state.AddPlayer(world.PlayerInfo{
			ID:   component.PlayerID(p.ID),
			Civ:  component.CivID(p.Civ),
			Name: p.Name,
			Bot:  p.Bot,
		})
	}
	state.LocalPlayer = component.PlayerID(cfg.Simulation.LocalPlayer)
	for _, p := range state.Players() {
		if opts.Tables.Civs.Get(string(p.Civ)) == nil {
			return nil, fmt.Errorf("sim: player %d plays unknown civilization %q", p.ID, p.Civ)
		}
	}

	policy, err := growth.New(cfg.Growth.Policy, growth.Options{
		BackoffBase:    cfg.Growth.BackoffBase,
		MaxPopulation:  cfg.Growth.MaxPopulation,
		ThresholdBase:  cfg.Growth.ThresholdBase,
		ThresholdSteps: cfg.Growth.ThresholdStep,
	})
	if err != nil {
		return nil, err
	}

	codec, err := netsync.NewCodec(cfg.Network.Compress, netsync.WithMaxFrame(cfg.Network.MaxFrameBytes))
	if err != nil {
		return nil, fmt.Errorf("sim: codec: %w", err)
	}

	id := uuid.NewString()
	deps := &handler.Deps{
		Config:    cfg,
		Log:       log.With(zap.String("match", id)),
		World:     ecs.NewWorld(),
		State:     state,
		Queue:     command.NewQueue(),
		Bus:       event.NewBus(),
		Terrain:   opts.Terrain,
		Ledger:    ledger.New(),
		Tables:    opts.Tables,
		Scripting: opts.Scripting,
		Growth:    policy,
	}

	s := &Simulation{
		ID:     id,
		deps:   deps,
		runner: coresys.NewRunner(),
		codec:  codec,
		rec:    netsync.NewReconciler(deps),
		link:   opts.Link,
	}
	s.register(opts)
	return s, nil
}

func (s *Simulation) register(opts Options) {
	d := s.deps
	maxPerTick := d.Config.Network.MaxMessagesPerTick
	r := s.runner

	remote := d.State.Authority == world.RemoteAuthoritative
	if remote {
		r.Register(system.NewNetworkSystem(d, opts.Link, s.codec, s.rec, maxPerTick))
	}
	if opts.Accept != nil && !remote {
		s.host = system.NewHostSystem(d, s.codec, opts.Accept, maxPerTick)
		r.Register(s.host)
	}
	r.Register(system.NewBotSystem(d, s.controls(opts)))
	if remote {
		s.forwarder = netsync.NewForwarder(s.codec, s.rec.IDs(), opts.Link, d.Log)
		r.Register(system.NewForwardSystem(d, s.forwarder))
	}
	r.Register(system.NewSelectionSystem(d))
	r.Register(system.NewTurnSystem(d))
	r.Register(system.NewMovementSystem(d))
	r.Register(system.NewFoundCitySystem(d))
	s.production = system.NewProductionSystem(d)
	r.Register(s.production)
	r.Register(system.NewCombatSystem(d))
	r.Register(system.NewYieldSystem(d))
	r.Register(system.NewGrowthSystem(d))
	s.fog = system.NewFogSystem(d)
	r.Register(s.fog)
	r.Register(system.NewScreenSystem(d.World, opts.Projection))
	if s.host != nil {
		r.Register(system.NewPublishSystem(s.host))
	}
	r.Register(system.NewNotifySystem(d.Bus))
	r.Register(system.NewCleanupSystem(d))
}

// controls reports the seats this process plays by itself: bots under
// local authority, plus the local seat with autoplay. A remote authority
// runs its own bots.
func (s *Simulation) controls(opts Options) func(component.PlayerID) bool {
	state := s.deps.State
	return func(p component.PlayerID) bool {
		if p == state.LocalPlayer {
			return opts.Autoplay
		}
		if state.Authority != world.LocalAuthoritative {
			return false
		}
		info, ok := state.Player(p)
		return ok && info.Bot
	}
}

// NewGame seeds a fresh match: each civilization's starting production
// and its starting units on spread-out start tiles. Under remote authority
// the World comes from the authority instead and NewGame does nothing.
func (s *Simulation) NewGame() error {
	d := s.deps
	if d.State.Authority != world.LocalAuthoritative {
		return nil
	}
	players := d.State.Players()
	starts := mapgen.StartTiles(d.Terrain, len(players))
	if len(starts) < len(players) {
		return fmt.Errorf("sim: map has room for %d of %d players", len(starts), len(players))
	}
	for i, p := range players {
		civ := d.Tables.Civs.Get(string(p.Civ))
		d.Ledger.Add(p.Civ, civ.StartingProduction)
		for _, unitType := range civ.StartingUnits {
			if _, err := handler.SpawnUnit(d, p.ID, p.Civ, unitType, starts[i]); err != nil {
				return fmt.Errorf("sim: starting %s for player %d: %w", unitType, p.ID, err)
			}
		}
		d.Log.Info("player seated",
			zap.Int("player", int(p.ID)),
			zap.String("civ", string(p.Civ)),
			zap.Stringer("start", starts[i]),
			zap.Bool("bot", p.Bot))
	}
	d.Bus.Raise(event.ReasonUnitMoved | event.ReasonResources)
	return nil
}

// Push queues a command for the next tick.
func (s *Simulation) Push(cmd command.Command) {
	s.deps.Queue.Push(cmd)
}

// Tick runs the pipeline once and returns the tick number.
func (s *Simulation) Tick() uint64 {
	return s.runner.Tick()
}

// Subscribe registers fn for the per-tick StateChanged notification.
func (s *Simulation) Subscribe(fn func(event.StateChanged)) {
	s.deps.Bus.Subscribe(fn)
}

// Snapshot returns the current World as a full-state message. When
// hosting it carries the seq of the last update sent to peers.
func (s *Simulation) Snapshot() *netsync.FullState {
	seq := s.runner.CurrentTick()
	if s.host != nil {
		seq = s.host.Seq()
	}
	return netsync.Snapshot(s.deps, seq)
}

// Digest hashes the current World and ledger, keyed by the authority's
// entity ids.
func (s *Simulation) Digest() string {
	ids := netsync.IdentityIDs
	if s.deps.State.Authority == world.RemoteAuthoritative {
		ids = s.rec.IDs().Remote
	}
	return netsync.Digest(s.deps.World, s.deps.Ledger, ids)
}

func (s *Simulation) Deps() *handler.Deps             { return s.deps }
func (s *Simulation) State() *world.State             { return s.deps.State }
func (s *Simulation) Fog() *fog.Engine                { return s.fog.Engine() }
func (s *Simulation) Reconciler() *netsync.Reconciler { return s.rec }

// Over reports whether the configured turn limit has passed.
func (s *Simulation) Over() bool {
	limit := s.deps.Config.Simulation.MaxTurns
	return limit > 0 && s.deps.State.Turn > uint64(limit)
}

// Disconnected reports whether the link to a remote authority has closed.
// A hosted or offline game is never disconnected.
func (s *Simulation) Disconnected() bool {
	if s.deps.State.Authority != world.RemoteAuthoritative {
		return false
	}
	c, ok := s.link.(interface{ IsClosed() bool })
	return ok && c.IsClosed()
}

// Summary counts what the match produced so far.
type Summary struct {
	Turn      uint64
	Ticks     uint64
	Units     int
	Cities    int
	Buildings int
	Completed int
	Forwarded int
	Peers     int
	Ledger    map[component.CivID]int
	Sync      netsync.Stats
}

func (s *Simulation) Summary() Summary {
	d := s.deps
	w := d.World
	out := Summary{
		Turn:      d.State.Turn,
		Ticks:     s.runner.CurrentTick(),
		Units:     len(w.View(component.TypeUnit)),
		Cities:    len(w.View(component.TypeCity)),
		Buildings: len(w.View(component.TypeBuilding)),
		Completed: s.production.Completed(),
		Ledger:    make(map[component.CivID]int),
		Sync:      s.rec.Stats(),
	}
	if s.forwarder != nil {
		out.Forwarded = s.forwarder.Sent()
	}
	if s.host != nil {
		out.Peers = s.host.Peers()
	}
	for _, civ := range d.Ledger.Civs() {
		out.Ledger[civ] = d.Ledger.Get(civ)
	}
	return out
}

// Close releases the codec.
func (s *Simulation) Close() {
	s.codec.Close()
}
