package system

// Phase defines execution ordering within a single tick.
type Phase int

const (
	PhaseInput      Phase = iota // 0: apply network messages, forward local intents
	PhasePreUpdate               // 1: selection and other UI-only intents
	PhaseUpdate                  // 2: game logic driven by commands
	PhasePostUpdate              // 3: yields, growth, visibility
	PhaseOutput                  // 4: screen cache, state-changed notification
	PhaseCleanup                 // 5: destroy queued entities, retire TurnBegan
)

// System is the interface every pipeline system implements. Update runs
// exactly once per tick and must not block.
type System interface {
	Phase() Phase
	Update(tick uint64)
}
