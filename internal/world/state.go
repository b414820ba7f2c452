package world

import (
	"github.com/civsim/engine/internal/component"
	"github.com/civsim/engine/internal/core/command"
	"github.com/civsim/engine/internal/core/ecs"
)

// TurnPhase is the turn state machine position.
type TurnPhase uint8

const (
	TurnActive TurnPhase = iota
	TurnAdvancing
)

func (p TurnPhase) String() string {
	if p == TurnAdvancing {
		return "advancing"
	}
	return "active"
}

// PlayerInfo is one seat at the table.
type PlayerInfo struct {
	ID   component.PlayerID
	Civ  component.CivID
	Name string
	Bot  bool
}

// State is the per-simulation bundle of turn, seat and selection data.
// One State per simulation; systems receive it by pointer. Accessed only
// from the simulation goroutine, no locks.
type State struct {
	Turn          uint64
	Phase         TurnPhase
	CurrentPlayer component.PlayerID
	LocalPlayer   component.PlayerID
	Selected      ecs.EntityID
	Authority     Authority

	players []PlayerInfo
}

func NewState(authority Authority) *State {
	return &State{Turn: 1, Authority: authority}
}

// AddPlayer seats a player. Seats rotate in the order they were added.
// The first seat becomes the current player.
func (s *State) AddPlayer(p PlayerInfo) {
	for i := range s.players {
		if s.players[i].ID == p.ID {
			s.players[i] = p
			return
		}
	}
	s.players = append(s.players, p)
	if s.CurrentPlayer == component.NoPlayer {
		s.CurrentPlayer = p.ID
	}
}

// Players returns the seats in rotation order.
func (s *State) Players() []PlayerInfo { return s.players }

// Player returns the seat with id.
func (s *State) Player(id component.PlayerID) (PlayerInfo, bool) {
	for _, p := range s.players {
		if p.ID == id {
			return p, true
		}
	}
	return PlayerInfo{}, false
}

// CivOf returns the civilization played by id, or "" if unseated.
func (s *State) CivOf(id component.PlayerID) component.CivID {
	p, _ := s.Player(id)
	return p.Civ
}

// NextPlayer returns the seat after the current one, wrapping around.
// It reports whether the rotation wrapped back to the first seat.
func (s *State) NextPlayer() (component.PlayerID, bool) {
	if len(s.players) == 0 {
		return s.CurrentPlayer, true
	}
	for i, p := range s.players {
		if p.ID == s.CurrentPlayer {
			next := (i + 1) % len(s.players)
			return s.players[next].ID, next == 0
		}
	}
	return s.players[0].ID, true
}

// IsLocalTurn reports whether the local seat may act.
func (s *State) IsLocalTurn() bool {
	return s.CurrentPlayer == s.LocalPlayer
}

// Applies reports whether a command of the given origin may mutate domain d.
// Remote-origin commands are authoritative replays and always apply.
func (s *State) Applies(d Domain, origin command.Origin) bool {
	if origin == command.OriginRemote {
		return true
	}
	return s.Authority.Simulates(d)
}
