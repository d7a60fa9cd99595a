/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: eventqueue.go
Description: Binary min-heap event queue for the CHAOS demo host. Orders pending
events by (tick, sequence) so ties between events scheduled for the same tick
resolve in insertion order, using the usual bubbleUp/bubbleDown binary-heap
shape with the ordering key being an event's arrival tick.
*/

package simhost

import (
	"sync"

	"github.com/kleascm/chaos-faultinjector/pkg/core"
)

type pendingEvent struct {
	ev  *core.Event
	at  core.Tick
	seq int64
}

// EventQueue is a thread-safe binary-heap priority queue of pending events,
// ordered by tick and, within a tick, by scheduling order.
type EventQueue struct {
	mu     sync.Mutex
	heap   []*pendingEvent
	seq    int64
	byEvnt map[*core.Event]*pendingEvent
}

// NewEventQueue creates an empty event queue.
func NewEventQueue() *EventQueue {
	return &EventQueue{
		heap:   make([]*pendingEvent, 0, 64),
		byEvnt: make(map[*core.Event]*pendingEvent),
	}
}

// Push schedules ev to fire at tick at. If ev is already pending, it is
// re-scheduled (matches the "at most one pending firing per event"
// contract documented on core.Host).
func (q *EventQueue) Push(ev *core.Event, at core.Tick) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if pe, ok := q.byEvnt[ev]; ok {
		q.remove(pe)
	}

	q.seq++
	pe := &pendingEvent{ev: ev, at: at, seq: q.seq}
	q.heap = append(q.heap, pe)
	q.byEvnt[ev] = pe
	q.bubbleUp(len(q.heap) - 1)
}

// Remove squashes a pending event, if any. No-op if ev is not scheduled.
func (q *EventQueue) Remove(ev *core.Event) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if pe, ok := q.byEvnt[ev]; ok {
		q.remove(pe)
	}
}

// Contains reports whether ev currently has a pending firing.
func (q *EventQueue) Contains(ev *core.Event) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	_, ok := q.byEvnt[ev]
	return ok
}

// Len reports the number of pending events.
func (q *EventQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.heap)
}

// Pop removes and returns the earliest-scheduled pending event, or nil if
// the queue is empty.
func (q *EventQueue) Pop() (*core.Event, core.Tick, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.heap) == 0 {
		return nil, 0, false
	}
	root := q.heap[0]
	last := len(q.heap) - 1
	q.heap[0] = q.heap[last]
	q.heap = q.heap[:last]
	delete(q.byEvnt, root.ev)
	if len(q.heap) > 0 {
		q.bubbleDown(0)
	}
	return root.ev, root.at, true
}

func (q *EventQueue) remove(pe *pendingEvent) {
	idx := -1
	for i, e := range q.heap {
		if e == pe {
			idx = i
			break
		}
	}
	if idx < 0 {
		return
	}
	last := len(q.heap) - 1
	q.heap[idx] = q.heap[last]
	q.heap = q.heap[:last]
	delete(q.byEvnt, pe.ev)
	if idx < len(q.heap) {
		q.bubbleDown(idx)
		q.bubbleUp(idx)
	}
}

func (q *EventQueue) less(i, j int) bool {
	a, b := q.heap[i], q.heap[j]
	if a.at != b.at {
		return a.at < b.at
	}
	return a.seq < b.seq
}

func (q *EventQueue) bubbleUp(i int) {
	for i > 0 {
		parent := (i - 1) / 2
		if !q.less(i, parent) {
			break
		}
		q.heap[i], q.heap[parent] = q.heap[parent], q.heap[i]
		i = parent
	}
}

func (q *EventQueue) bubbleDown(i int) {
	n := len(q.heap)
	for {
		left, right := 2*i+1, 2*i+2
		smallest := i
		if left < n && q.less(left, smallest) {
			smallest = left
		}
		if right < n && q.less(right, smallest) {
			smallest = right
		}
		if smallest == i {
			break
		}
		q.heap[i], q.heap[smallest] = q.heap[smallest], q.heap[i]
		i = smallest
	}
}
