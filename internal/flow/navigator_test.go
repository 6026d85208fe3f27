package flow

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func visibleSet(idx ...int) func(int) bool {
	m := map[int]bool{}
	for _, i := range idx {
		m[i] = true
	}
	return func(i int) bool { return m[i] }
}

func TestNavigatorAdvanceRetreatSkip(t *testing.T) {
	vis := visibleSet(0, 2, 3, 5)
	n := NewNavigator(6, vis)
	assert.Equal(t, 0, n.Index)

	n = n.Advance(vis)
	assert.Equal(t, 2, n.Index)
	n = n.Advance(vis)
	n = n.Advance(vis)
	assert.Equal(t, 5, n.Index)
	n = n.Advance(vis)
	assert.Equal(t, 5, n.Index, "clamps at the end")
	assert.True(t, n.AtEnd(vis))

	n = n.Retreat(vis)
	assert.Equal(t, 3, n.Index)
	assert.Equal(t, Backward, n.Direction)
	n = n.Retreat(vis)
	n = n.Retreat(vis)
	n = n.Retreat(vis)
	assert.Equal(t, 0, n.Index, "clamps at the start")
	assert.True(t, n.AtStart(vis))
}

func TestNavigatorStartsAtFirstVisible(t *testing.T) {
	n := NewNavigator(4, visibleSet(2, 3))
	assert.Equal(t, 2, n.Index)
}

func TestNavigatorReconcile(t *testing.T) {
	tests := []struct {
		name    string
		nav     Navigator
		visible []int
		want    int
	}{
		{"still visible", Navigator{Index: 2, Direction: Backward, Len: 5}, []int{1, 2, 3}, 2},
		{"forward skips ahead", Navigator{Index: 2, Direction: Forward, Len: 5}, []int{1, 4}, 4},
		{"backward skips back", Navigator{Index: 2, Direction: Backward, Len: 5}, []int{1, 4}, 1},
		{"default direction is forward", Navigator{Index: 2, Len: 5}, []int{1, 4}, 4},
		{"forward falls back", Navigator{Index: 3, Direction: Forward, Len: 5}, []int{0, 1}, 1},
		{"backward falls back", Navigator{Index: 1, Direction: Backward, Len: 5}, []int{3}, 3},
		{"nothing visible", Navigator{Index: 1, Direction: Forward, Len: 3}, nil, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.nav.Reconcile(visibleSet(tt.visible...))
			assert.Equal(t, tt.want, got.Index)
		})
	}
}

func TestNavigatorJumpTo(t *testing.T) {
	vis := visibleSet(0, 1, 3)
	n := NewNavigator(4, vis)

	n, ok := n.JumpTo(3, vis)
	assert.True(t, ok)
	assert.Equal(t, Forward, n.Direction)

	_, ok = n.JumpTo(2, vis)
	assert.False(t, ok)

	n, ok = n.JumpTo(1, vis)
	assert.True(t, ok)
	assert.Equal(t, Backward, n.Direction)
}
