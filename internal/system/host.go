package system

import (
	"github.com/civsim/engine/internal/component"
	coresys "github.com/civsim/engine/internal/core/system"
	"github.com/civsim/engine/internal/handler"
	"github.com/civsim/engine/internal/netsync"
	"go.uber.org/zap"
)

// Peer is a connected client of a hosted game.
type Peer interface {
	Link
	IsClosed() bool
	Close()
}

// seated is a peer bound to the one seat it may act for.
type seated struct {
	Peer
	seat component.PlayerID
}

// HostSystem serves remote players from a local-authoritative simulation.
// Each new peer takes the lowest free human seat other than the host's own
// and gets a full state; its actions are accepted for that seat only.
// Phase 0 (Input).
type HostSystem struct {
	deps       *handler.Deps
	codec      *netsync.Codec
	accept     func() Peer
	maxPerTick int

	peers []*seated
	// seq numbers the updates sent so far; a full state carries the seq of
	// the last update it already includes
	seq uint64
}

// NewHostSystem takes accept, a non-blocking source of new peers that
// returns nil when none is waiting. It gives deps a journal if it has
// none.
func NewHostSystem(deps *handler.Deps, codec *netsync.Codec, accept func() Peer, maxPerTick int) *HostSystem {
	if maxPerTick <= 0 {
		maxPerTick = 32
	}
	if deps.Journal == nil {
		deps.Journal = handler.NewJournal()
	}
	return &HostSystem{deps: deps, codec: codec, accept: accept, maxPerTick: maxPerTick}
}

func (s *HostSystem) Phase() coresys.Phase { return coresys.PhaseInput }

// Peers returns the number of connected peers.
func (s *HostSystem) Peers() int { return len(s.peers) }

// Seq returns the sequence number of the last update sent.
func (s *HostSystem) Seq() uint64 { return s.seq }

// Seat returns the seat bound to the i-th connected peer.
func (s *HostSystem) Seat(i int) component.PlayerID {
	if i < 0 || i >= len(s.peers) {
		return component.NoPlayer
	}
	return s.peers[i].seat
}

func (s *HostSystem) Update(tick uint64) {
	d := s.deps
	for p := s.accept(); p != nil; p = s.accept() {
		seat := s.freeSeat()
		if seat == component.NoPlayer {
			d.Log.Warn("peer refused, no free seat", zap.Int("peers", len(s.peers)))
			p.Close()
			continue
		}
		sp := &seated{Peer: p, seat: seat}
		s.peers = append(s.peers, sp)
		d.Log.Info("peer seated", zap.Int("seat", int(seat)))
		s.sendState(sp)
	}

	live := s.peers[:0]
	for _, p := range s.peers {
		if p.IsClosed() {
			d.Log.Info("peer left", zap.Int("seat", int(p.seat)))
			continue
		}
		live = append(live, p)
		s.drain(tick, p)
	}
	for i := len(live); i < len(s.peers); i++ {
		s.peers[i] = nil
	}
	s.peers = live
}

// freeSeat picks the lowest human seat that neither the host nor another
// peer plays. Bot seats stay with the host.
func (s *HostSystem) freeSeat() component.PlayerID {
	st := s.deps.State
	taken := map[component.PlayerID]bool{st.LocalPlayer: true}
	for _, p := range s.peers {
		taken[p.seat] = true
	}
	for _, info := range st.Players() {
		if !info.Bot && !taken[info.ID] {
			return info.ID
		}
	}
	return component.NoPlayer
}

func (s *HostSystem) drain(tick uint64, p *seated) {
	d := s.deps
	for i := 0; i < s.maxPerTick; i++ {
		var frame []byte
		select {
		case frame = <-p.Inbox():
		default:
			return
		}
		env, err := s.codec.Decode(frame)
		if err != nil {
			d.Log.Warn("peer frame rejected", zap.Uint64("tick", tick), zap.Error(err))
			continue
		}
		switch env.Type {
		case netsync.TypeResync:
			s.sendState(p)
		case netsync.TypeAction:
			if env.Action == nil {
				continue
			}
			cmd, err := netsync.ToCommand(*env.Action)
			if err == nil && cmd.Header().Player != p.seat {
				err = handler.ErrNotOwner
			}
			if err != nil {
				d.Log.Debug("peer action dropped",
					zap.String("type", env.Action.Type),
					zap.Int("seat", int(p.seat)),
					zap.Int("claimed", env.Action.Player),
					zap.Error(err))
				continue
			}
			d.Queue.Push(cmd)
		default:
			d.Log.Debug("unexpected peer message", zap.String("type", env.Type))
		}
	}
}

func (s *HostSystem) sendState(p *seated) {
	fs := netsync.Snapshot(s.deps, s.seq)
	fs.Seat = int(p.seat)
	frame, err := s.codec.Encode(netsync.Envelope{Type: netsync.TypeFullState, FullState: fs})
	if err != nil {
		s.deps.Log.Error("encode full state", zap.Error(err))
		return
	}
	if err := p.Send(frame); err != nil {
		s.deps.Log.Debug("send full state", zap.Error(err))
	}
}

// publish drains the journal into updates and sends them to every peer.
// Without peers the outcomes are dropped; a later peer starts from a full
// state.
func (s *HostSystem) publish() {
	outcomes := s.deps.Journal.Drain()
	if len(s.peers) == 0 {
		return
	}
	for _, u := range netsync.Updates(s.deps, outcomes) {
		s.seq++
		u.Seq = s.seq
		frame, err := s.codec.Encode(netsync.Envelope{Type: netsync.TypeUpdate, Update: u})
		if err != nil {
			s.deps.Log.Error("encode update", zap.Uint64("seq", u.Seq), zap.Error(err))
			continue
		}
		for _, p := range s.peers {
			if err := p.Send(frame); err != nil {
				s.deps.Log.Debug("publish", zap.Int("seat", int(p.seat)), zap.Error(err))
			}
		}
	}
}

// PublishSystem sends peers an update after any tick that changed the
// host's state. Phase 4 (Output), registered before NotifySystem.
type PublishSystem struct {
	host *HostSystem
}

func NewPublishSystem(host *HostSystem) *PublishSystem {
	return &PublishSystem{host: host}
}

func (s *PublishSystem) Phase() coresys.Phase { return coresys.PhaseOutput }

func (s *PublishSystem) Update(_ uint64) {
	if s.host.deps.Bus.Pending() != 0 || s.host.deps.Journal.Len() > 0 {
		s.host.publish()
	}
}
