package netsync

import (
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/civsim/engine/internal/component"
	"github.com/civsim/engine/internal/core/command"
	"github.com/civsim/engine/internal/core/ecs"
	"github.com/civsim/engine/internal/grid"
)

// Outbox receives local commands that the remote authority must resolve.
type Outbox interface {
	Forward(cmd command.Command) error
}

// Sender delivers an encoded frame to the transport. It must not block.
type Sender interface {
	Send(frame []byte) error
}

// Forwarder turns local commands into action envelopes addressed with
// remote ids.
type Forwarder struct {
	codec *Codec
	ids   *IDMap
	out   Sender
	log   *zap.Logger

	sent int
}

func NewForwarder(codec *Codec, ids *IDMap, out Sender, log *zap.Logger) *Forwarder {
	return &Forwarder{codec: codec, ids: ids, out: out, log: log}
}

// Sent returns the number of actions handed to the transport.
func (f *Forwarder) Sent() int { return f.sent }

// Forward encodes cmd and sends it. Commands without a wire form (Select,
// TurnBegan) are rejected.
func (f *Forwarder) Forward(cmd command.Command) error {
	a, err := f.Action(cmd)
	if err != nil {
		return err
	}
	frame, err := f.codec.Encode(Envelope{Type: TypeAction, Action: &a})
	if err != nil {
		return err
	}
	if err := f.out.Send(frame); err != nil {
		return fmt.Errorf("forward %s: %w", a.Type, err)
	}
	f.sent++
	f.log.Debug("command forwarded", zap.String("type", a.Type), zap.String("action", a.ID))
	return nil
}

// Action translates cmd to its wire form.
func (f *Forwarder) Action(cmd command.Command) (Action, error) {
	meta := cmd.Header()
	a := Action{ID: meta.ID, Player: int(meta.Player)}
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	var err error
	switch c := cmd.(type) {
	case command.MoveTo:
		a.Type = ActMoveTo
		a.Entity, err = f.remote(c.Unit)
		a.X, a.Y = c.To.X, c.To.Y
	case command.FoundCity:
		a.Type = ActFoundCity
		a.Entity, err = f.remote(c.Unit)
		a.Name = c.Name
	case command.ProduceUnit:
		a.Type = ActProduceUnit
		a.Target, err = f.remote(c.City)
		a.Name = c.UnitType
	case command.BuildBuilding:
		a.Type = ActBuildBuilding
		a.Target, err = f.remote(c.City)
		a.Name = c.Building
		a.X, a.Y = c.Tile.X, c.Tile.Y
	case command.Attack:
		a.Type = ActAttack
		if a.Entity, err = f.remote(c.Attacker); err == nil {
			a.Target, err = f.remote(c.Defender)
		}
	case command.EndTurn:
		a.Type = ActEndTurn
	default:
		return a, fmt.Errorf("%w: %s has no wire form", ErrMalformed, cmd.Kind())
	}
	return a, err
}

func (f *Forwarder) remote(local ecs.EntityID) (uint64, error) {
	r, ok := f.ids.Remote(local)
	if !ok {
		return 0, fmt.Errorf("%w: local entity %d", ErrUnmapped, local)
	}
	return r, nil
}

// ToCommand is the inverse of Forwarder.Action on the authoritative side,
// where remote ids are local entity ids.
func ToCommand(a Action) (command.Command, error) {
	meta := command.Meta{ID: a.ID, Player: component.PlayerID(a.Player), Origin: command.OriginLocal}
	if meta.ID == "" {
		meta.ID = uuid.NewString()
	}
	at := grid.Tile{X: a.X, Y: a.Y}
	switch a.Type {
	case ActMoveTo:
		return command.MoveTo{Meta: meta, Unit: ecs.EntityID(a.Entity), To: at}, nil
	case ActFoundCity:
		return command.FoundCity{Meta: meta, Unit: ecs.EntityID(a.Entity), Name: a.Name}, nil
	case ActProduceUnit:
		return command.ProduceUnit{Meta: meta, City: ecs.EntityID(a.Target), UnitType: a.Name}, nil
	case ActBuildBuilding:
		return command.BuildBuilding{Meta: meta, City: ecs.EntityID(a.Target), Building: a.Name, Tile: at}, nil
	case ActAttack:
		return command.Attack{Meta: meta, Attacker: ecs.EntityID(a.Entity), Defender: ecs.EntityID(a.Target)}, nil
	case ActEndTurn:
		return command.EndTurn{Meta: meta}, nil
	default:
		return nil, fmt.Errorf("%w: %q is not a player action", ErrMalformed, a.Type)
	}
}
