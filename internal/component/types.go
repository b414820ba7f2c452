package component

import "github.com/civsim/engine/internal/core/ecs"

// Component type tags. The set is closed: adding a component means adding a
// tag here.
const (
	TypePosition ecs.ComponentType = iota + 1
	TypeOwner
	TypeUnit
	TypePath
	TypeCity
	TypeBuilding
	TypeStockpile
	TypeProductionQueue
	TypeScreenPos
	TypeNewlyPurchased
	TypeSelectable
)

// PlayerID identifies a seat in the game (local human, remote human, or bot).
type PlayerID int

// NoPlayer is the zero PlayerID; real seats start at 1.
const NoPlayer PlayerID = 0

// CivID keys a civilization definition and its production ledger entry.
type CivID string
