package flow

// Direction is the way the user last moved
type Direction int

const (
	Forward  Direction = 1
	Backward Direction = -1
)

// Navigator is the position state machine. Its only state is AtQuestion(i)
// plus the last direction of travel; every transition is filtered by a
// visibility predicate and clamps at the sequence bounds.
type Navigator struct {
	Index     int
	Direction Direction
	Len       int
}

// NewNavigator positions at the first visible step
func NewNavigator(n int, visible func(int) bool) Navigator {
	return Navigator{Index: 0, Direction: Forward, Len: n}.Reconcile(visible)
}

// Advance moves to the next visible step; it stays put at the end
func (n Navigator) Advance(visible func(int) bool) Navigator {
	n.Direction = Forward
	if i, ok := n.scan(n.Index+1, Forward, visible); ok {
		n.Index = i
	}
	return n
}

// Retreat moves to the previous visible step; it stays put at the start
func (n Navigator) Retreat(visible func(int) bool) Navigator {
	n.Direction = Backward
	if i, ok := n.scan(n.Index-1, Backward, visible); ok {
		n.Index = i
	}
	return n
}

// JumpTo moves directly to step i when it is visible
func (n Navigator) JumpTo(i int, visible func(int) bool) (Navigator, bool) {
	if i < 0 || i >= n.Len || !visible(i) {
		return n, false
	}
	if i < n.Index {
		n.Direction = Backward
	} else if i > n.Index {
		n.Direction = Forward
	}
	n.Index = i
	return n, true
}

// Reconcile leaves the current step if it became invisible, continuing in
// the last direction and falling back to the other one.
func (n Navigator) Reconcile(visible func(int) bool) Navigator {
	if n.Len == 0 || visible(n.Index) {
		return n
	}
	dir := n.Direction
	if dir == 0 {
		dir = Forward
	}
	if i, ok := n.scan(n.Index+int(dir), dir, visible); ok {
		n.Index = i
		return n
	}
	if i, ok := n.scan(n.Index-int(dir), -dir, visible); ok {
		n.Index = i
	}
	return n
}

// AtStart reports whether no visible step precedes the current one
func (n Navigator) AtStart(visible func(int) bool) bool {
	_, ok := n.scan(n.Index-1, Backward, visible)
	return !ok
}

// AtEnd reports whether no visible step follows the current one
func (n Navigator) AtEnd(visible func(int) bool) bool {
	_, ok := n.scan(n.Index+1, Forward, visible)
	return !ok
}

func (n Navigator) scan(from int, dir Direction, visible func(int) bool) (int, bool) {
	for i := from; i >= 0 && i < n.Len; i += int(dir) {
		if visible(i) {
			return i, true
		}
	}
	return 0, false
}
