// Package netsync keeps a client's World converged with a remote
// authoritative simulation: wire messages, their codec, the identity map
// and the reconciler that applies snapshots and replays actions.
package netsync

import "encoding/json"

// Envelope types.
const (
	TypeFullState = "full_state"
	TypeUpdate    = "update"
	TypeAction    = "action"
	TypeResync    = "resync"
)

// Entity kinds in a snapshot.
const (
	KindUnit     = "unit"
	KindCity     = "city"
	KindBuilding = "building"
)

// Action types.
const (
	ActMoveTo        = "move_to"
	ActFoundCity     = "found_city"
	ActProduceUnit   = "produce_unit"
	ActBuildBuilding = "build_building"
	ActEndTurn       = "end_turn"
	ActAttack        = "attack"
	ActSpawnUnit     = "spawn_unit"
	ActSpawnBuilding = "spawn_building"
	ActDestroy       = "destroy"
	ActGrow          = "grow"
)

// Envelope is the single top-level wire message.
type Envelope struct {
	Type      string     `json:"type"`
	FullState *FullState `json:"full_state,omitempty"`
	Update    *Update    `json:"update,omitempty"`
	Action    *Action    `json:"action,omitempty"`
}

// EntityState is one entity of a full-state snapshot. ID is the remote id.
// Data is opaque per kind: UnitData, CityData or BuildingData.
type EntityState struct {
	ID     uint64          `json:"id"`
	Kind   string          `json:"kind"`
	Player int             `json:"player"`
	Civ    string          `json:"civ,omitempty"`
	Type   string          `json:"type,omitempty"`
	X      int             `json:"x"`
	Y      int             `json:"y"`
	Data   json.RawMessage `json:"data,omitempty"`
}

type UnitData struct {
	MP             int  `json:"mp"`
	MaxMP          int  `json:"max_mp"`
	Health         int  `json:"health"`
	NewlyPurchased bool `json:"newly_purchased,omitempty"`
}

type QueueItemData struct {
	Kind string `json:"kind"` // "unit" or "building"
	Name string `json:"name"`
	Cost int    `json:"cost"`
	X    int    `json:"x,omitempty"`
	Y    int    `json:"y,omitempty"`
}

type CityData struct {
	Name           string          `json:"name"`
	Population     int             `json:"population"`
	GrowthProgress int             `json:"growth_progress"`
	GrowthTarget   int             `json:"growth_target"`
	Food           int             `json:"food"`
	Gold           int             `json:"gold"`
	Queue          []QueueItemData `json:"queue,omitempty"`
}

type BuildingData struct {
	Builder uint64 `json:"builder,omitempty"`
}

// FullState is an initial or resync snapshot. Seq is the sequence number
// of the last update it includes. Seat is the player the receiving peer
// plays, when the sender assigns seats.
type FullState struct {
	Seq           uint64         `json:"seq"`
	Turn          uint64         `json:"turn"`
	CurrentPlayer int            `json:"current_player"`
	Seat          int            `json:"seat,omitempty"`
	Entities      []EntityState  `json:"entities"`
	Stockpiles    map[string]int `json:"stockpiles,omitempty"`
}

// AttackResult carries the authoritative damage of an attack.
type AttackResult struct {
	AttackerDamage int `json:"attacker_damage"`
	DefenderDamage int `json:"defender_damage"`
}

// Action is one replayed or forwarded player action. Entity, Target and
// Created are remote ids. Size is the new population of a grow action.
type Action struct {
	ID      string        `json:"id,omitempty"`
	Type    string        `json:"type"`
	Player  int           `json:"player"`
	Entity  uint64        `json:"entity,omitempty"`
	Target  uint64        `json:"target,omitempty"`
	Created uint64        `json:"created,omitempty"`
	X       int           `json:"x,omitempty"`
	Y       int           `json:"y,omitempty"`
	Cost    *int          `json:"cost,omitempty"`
	Name    string        `json:"name,omitempty"`
	Size    int           `json:"size,omitempty"`
	Result  *AttackResult `json:"result,omitempty"`
}

// Update is an incremental authoritative message.
type Update struct {
	Seq           uint64         `json:"seq"`
	Turn          uint64         `json:"turn"`
	CurrentPlayer int            `json:"current_player"`
	Actions       []Action       `json:"actions,omitempty"`
	Stockpiles    map[string]int `json:"stockpiles,omitempty"`
	Digest        string         `json:"digest,omitempty"`
}
