package system

import (
	"github.com/civsim/engine/internal/core/command"
	coresys "github.com/civsim/engine/internal/core/system"
	"github.com/civsim/engine/internal/handler"
	"github.com/civsim/engine/internal/netsync"
	"github.com/civsim/engine/internal/world"
	"go.uber.org/zap"
)

// Link is the simulation's side of a transport session.
type Link interface {
	Inbox() <-chan []byte
	Send(frame []byte) error
}

// NetworkSystem hands the frames that arrived since the last tick to the
// reconciler and asks for a full state when the World has diverged.
// Phase 0 (Input).
type NetworkSystem struct {
	deps       *handler.Deps
	link       Link
	codec      *netsync.Codec
	rec        *netsync.Reconciler
	maxPerTick int
	requested  bool
}

func NewNetworkSystem(deps *handler.Deps, link Link, codec *netsync.Codec, rec *netsync.Reconciler, maxPerTick int) *NetworkSystem {
	if maxPerTick <= 0 {
		maxPerTick = 32
	}
	return &NetworkSystem{deps: deps, link: link, codec: codec, rec: rec, maxPerTick: maxPerTick}
}

func (s *NetworkSystem) Phase() coresys.Phase { return coresys.PhaseInput }

func (s *NetworkSystem) Update(tick uint64) {
	for i := 0; i < s.maxPerTick; i++ {
		select {
		case frame := <-s.link.Inbox():
			s.apply(tick, frame)
		default:
			goto drained
		}
	}
drained:

	if !s.rec.NeedsResync() {
		s.requested = false
		return
	}
	if s.requested {
		return
	}
	frame, err := s.codec.Encode(netsync.Envelope{Type: netsync.TypeResync})
	if err == nil {
		err = s.link.Send(frame)
	}
	if err != nil {
		s.deps.Log.Warn("resync request failed", zap.Error(err))
		return
	}
	s.requested = true
	s.deps.Log.Info("resync requested", zap.Uint64("tick", tick))
}

func (s *NetworkSystem) apply(tick uint64, frame []byte) {
	env, err := s.codec.Decode(frame)
	if err != nil {
		s.deps.Log.Warn("frame rejected", zap.Uint64("tick", tick), zap.Error(err))
		return
	}
	if err := s.rec.Handle(env); err != nil {
		s.deps.Log.Debug("message not applied",
			zap.Uint64("tick", tick),
			zap.String("type", env.Type),
			zap.Error(err))
	}
}

// forwardable is every player command the authority resolves.
var forwardable = command.And(
	command.FromOrigin(command.OriginLocal),
	command.OfKind(command.KindMoveTo, command.KindFoundCity, command.KindProduceUnit,
		command.KindBuildBuilding, command.KindEndTurn, command.KindAttack),
)

// ForwardSystem sends local player commands to the remote authority. They
// leave the queue and change nothing locally until the authority's update
// arrives. Does nothing under local authority. Phase 0 (Input).
type ForwardSystem struct {
	deps *handler.Deps
	out  netsync.Outbox
}

func NewForwardSystem(deps *handler.Deps, out netsync.Outbox) *ForwardSystem {
	return &ForwardSystem{deps: deps, out: out}
}

func (s *ForwardSystem) Phase() coresys.Phase { return coresys.PhaseInput }

func (s *ForwardSystem) Update(_ uint64) {
	d := s.deps
	if d.State.Authority.Simulates(world.DomainTurn) {
		return
	}
	for {
		cmd, ok := d.Queue.Pop(forwardable)
		if !ok {
			return
		}
		if err := s.out.Forward(cmd); err != nil {
			d.Log.Debug("forward dropped", zap.Stringer("kind", cmd.Kind()), zap.Error(err))
		}
	}
}
