package command

// Predicate selects commands from the queue.
type Predicate func(Command) bool

// OfKind matches any of the given kinds.
func OfKind(kinds ...Kind) Predicate {
	return func(c Command) bool {
		k := c.Kind()
		for _, want := range kinds {
			if k == want {
				return true
			}
		}
		return false
	}
}

// FromOrigin matches commands with the given origin.
func FromOrigin(o Origin) Predicate {
	return func(c Command) bool { return c.Header().Origin == o }
}

// And matches when every predicate matches.
func And(ps ...Predicate) Predicate {
	return func(c Command) bool {
		for _, p := range ps {
			if !p(c) {
				return false
			}
		}
		return true
	}
}

// Queue is a FIFO of commands. It is not double-buffered: a command pushed
// during a tick is visible to every system that runs later in the same tick.
// Accessed only from the simulation goroutine, no locks.
type Queue struct {
	items []Command
}

func NewQueue() *Queue {
	return &Queue{items: make([]Command, 0, 32)}
}

func (q *Queue) Push(c Command) {
	q.items = append(q.items, c)
}

// Pop removes and returns the oldest command matching p. The remaining
// commands keep their relative order.
func (q *Queue) Pop(p Predicate) (Command, bool) {
	for i, c := range q.items {
		if p(c) {
			copy(q.items[i:], q.items[i+1:])
			q.items[len(q.items)-1] = nil
			q.items = q.items[:len(q.items)-1]
			return c, true
		}
	}
	return nil, false
}

// Peek is Pop without removal.
func (q *Queue) Peek(p Predicate) (Command, bool) {
	for _, c := range q.items {
		if p(c) {
			return c, true
		}
	}
	return nil, false
}

// Clear drops every queued command.
func (q *Queue) Clear() {
	for i := range q.items {
		q.items[i] = nil
	}
	q.items = q.items[:0]
}

func (q *Queue) Len() int { return len(q.items) }

// Snapshot returns a copy of the queued commands, oldest first.
func (q *Queue) Snapshot() []Command {
	out := make([]Command, len(q.items))
	copy(out, q.items)
	return out
}

// PopAs pops the oldest command of concrete type T.
func PopAs[T Command](q *Queue) (T, bool) {
	c, ok := q.Pop(func(c Command) bool {
		_, ok := c.(T)
		return ok
	})
	if !ok {
		var zero T
		return zero, false
	}
	return c.(T), true
}

// PeekAs is PopAs without removal.
func PeekAs[T Command](q *Queue) (T, bool) {
	c, ok := q.Peek(func(c Command) bool {
		_, ok := c.(T)
		return ok
	})
	if !ok {
		var zero T
		return zero, false
	}
	return c.(T), true
}
