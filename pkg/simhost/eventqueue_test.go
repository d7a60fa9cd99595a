package simhost_test

import (
	"testing"

	"github.com/kleascm/chaos-faultinjector/pkg/core"
	"github.com/kleascm/chaos-faultinjector/pkg/simhost"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventQueuePopsInTickOrder(t *testing.T) {
	q := simhost.NewEventQueue()
	a := &core.Event{Name: "a"}
	b := &core.Event{Name: "b"}
	c := &core.Event{Name: "c"}

	q.Push(b, 20)
	q.Push(a, 10)
	q.Push(c, 30)

	_, at, ok := q.Pop()
	require.True(t, ok)
	assert.Equal(t, core.Tick(10), at)

	_, at, ok = q.Pop()
	require.True(t, ok)
	assert.Equal(t, core.Tick(20), at)

	_, at, ok = q.Pop()
	require.True(t, ok)
	assert.Equal(t, core.Tick(30), at)

	_, _, ok = q.Pop()
	assert.False(t, ok)
}

// Ties at the same tick resolve in insertion (scheduling) order.
func TestEventQueueTiesResolveByInsertionOrder(t *testing.T) {
	q := simhost.NewEventQueue()
	first := &core.Event{Name: "first"}
	second := &core.Event{Name: "second"}

	q.Push(first, 5)
	q.Push(second, 5)

	ev, _, ok := q.Pop()
	require.True(t, ok)
	assert.Same(t, first, ev)

	ev, _, ok = q.Pop()
	require.True(t, ok)
	assert.Same(t, second, ev)
}

// Pushing an already-pending event reschedules it rather than adding a
// second entry (core.Host's "at most one pending" contract).
func TestEventQueuePushReplacesPending(t *testing.T) {
	q := simhost.NewEventQueue()
	ev := &core.Event{Name: "ev"}

	q.Push(ev, 100)
	assert.Equal(t, 1, q.Len())
	q.Push(ev, 5)
	assert.Equal(t, 1, q.Len())

	_, at, ok := q.Pop()
	require.True(t, ok)
	assert.Equal(t, core.Tick(5), at)
}

func TestEventQueueRemove(t *testing.T) {
	q := simhost.NewEventQueue()
	ev := &core.Event{Name: "ev"}
	q.Push(ev, 1)
	assert.True(t, q.Contains(ev))

	q.Remove(ev)
	assert.False(t, q.Contains(ev))
	assert.Equal(t, 0, q.Len())
}

// A binary-heap regression guard: popping a large, randomly-ordered
// batch always yields non-decreasing ticks.
func TestEventQueueHeapOrderingUnderLoad(t *testing.T) {
	q := simhost.NewEventQueue()
	ticks := []core.Tick{50, 3, 77, 1, 42, 9, 9, 0, 1000, 23}
	for i, tk := range ticks {
		q.Push(&core.Event{Name: "e"}, tk)
		_ = i
	}

	var last core.Tick = -1
	count := 0
	for {
		_, at, ok := q.Pop()
		if !ok {
			break
		}
		assert.GreaterOrEqual(t, at, last)
		last = at
		count++
	}
	assert.Equal(t, len(ticks), count)
}
