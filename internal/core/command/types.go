package command

import (
	"fmt"

	"github.com/civsim/engine/internal/component"
	"github.com/civsim/engine/internal/core/ecs"
	"github.com/civsim/engine/internal/grid"
	"github.com/google/uuid"
)

// Kind tags a command type.
type Kind uint8

const (
	KindSelect Kind = iota + 1
	KindMoveTo
	KindFoundCity
	KindProduceUnit
	KindBuildBuilding
	KindEndTurn
	KindAttack
	KindTurnBegan
)

func (k Kind) String() string {
	switch k {
	case KindSelect:
		return "Select"
	case KindMoveTo:
		return "MoveTo"
	case KindFoundCity:
		return "FoundCity"
	case KindProduceUnit:
		return "ProduceUnit"
	case KindBuildBuilding:
		return "BuildBuilding"
	case KindEndTurn:
		return "EndTurn"
	case KindAttack:
		return "Attack"
	case KindTurnBegan:
		return "TurnBegan"
	default:
		return fmt.Sprintf("Unknown(%d)", int(k))
	}
}

// Origin says where a command came from. Remote-origin commands are
// authoritative replays and are always applied.
type Origin uint8

const (
	OriginLocal Origin = iota
	OriginRemote
	OriginSystem
)

// Meta is the header every command carries.
type Meta struct {
	ID     string
	Player component.PlayerID
	Origin Origin
}

func (m Meta) Header() Meta { return m }

// NewMeta stamps a fresh command id.
func NewMeta(player component.PlayerID, origin Origin) Meta {
	return Meta{ID: uuid.NewString(), Player: player, Origin: origin}
}

// Command is an immutable intent or simulation event.
type Command interface {
	Kind() Kind
	Header() Meta
}

type Select struct {
	Meta
	Entity ecs.EntityID
}

type MoveTo struct {
	Meta
	Unit ecs.EntityID
	To   grid.Tile
}

type FoundCity struct {
	Meta
	Unit ecs.EntityID
	Name string
}

type ProduceUnit struct {
	Meta
	City     ecs.EntityID
	UnitType string
}

type BuildBuilding struct {
	Meta
	City     ecs.EntityID
	Building string
	Tile     grid.Tile
}

type EndTurn struct {
	Meta
}

type Attack struct {
	Meta
	Attacker ecs.EntityID
	Defender ecs.EntityID
}

// TurnBegan is raised once per turn transition.
type TurnBegan struct {
	Meta
	Turn uint64
}

func (Select) Kind() Kind        { return KindSelect }
func (MoveTo) Kind() Kind        { return KindMoveTo }
func (FoundCity) Kind() Kind     { return KindFoundCity }
func (ProduceUnit) Kind() Kind   { return KindProduceUnit }
func (BuildBuilding) Kind() Kind { return KindBuildBuilding }
func (EndTurn) Kind() Kind       { return KindEndTurn }
func (Attack) Kind() Kind        { return KindAttack }
func (TurnBegan) Kind() Kind     { return KindTurnBegan }
