package sim

import "container/heap"

// Timeline is a min-priority queue of Events ordered by (Time asc, seq asc),
// where seq is a monotonically increasing insertion counter. The seq
// tiebreak is required for determinism: two events scheduled for the same
// instant would otherwise have no reproducible order.
//
// Cancellation (remove-by-handle) is implemented with a tombstone flag on
// the Event rather than heap-index bookkeeping: Remove marks the event
// cancelled in O(1) and PopMin skips cancelled entries as it drains them.
// This keeps Push/PopMin at the heap's ordinary O(log n) without needing to
// track each event's live index as the heap reshuffles.
type Timeline struct {
	items  eventHeap
	nextSeq uint64
}

// NewTimeline returns an empty Timeline.
func NewTimeline() *Timeline {
	t := &Timeline{}
	heap.Init(&t.items)
	return t
}

// Push inserts an event and returns a handle usable with Remove. O(log n).
func (t *Timeline) Push(e *Event) EventHandle {
	e.seq = t.nextSeq
	t.nextSeq++
	e.cancelled = false
	heap.Push(&t.items, e)
	return e
}

// PopMin removes and returns the earliest non-cancelled event, or nil if the
// Timeline is empty. O(log n) amortized (may pop several tombstoned entries
// internally).
func (t *Timeline) PopMin() *Event {
	for t.items.Len() > 0 {
		e := heap.Pop(&t.items).(*Event)
		if e.cancelled {
			continue
		}
		return e
	}
	return nil
}

// PeekTime returns the time of the earliest live event, or false if the
// Timeline has no live events.
func (t *Timeline) PeekTime() (Time, bool) {
	for t.items.Len() > 0 {
		top := t.items[0]
		if top.cancelled {
			heap.Pop(&t.items)
			continue
		}
		return top.Time, true
	}
	return 0, false
}

// Remove cancels a previously pushed event. Idempotent; removing an event
// that has already been popped or cancelled is a no-op. Used to cancel a
// pending timeout when an activity resumes early via signal or pad
// delivery.
func (t *Timeline) Remove(h EventHandle) {
	if h == nil {
		return
	}
	h.cancelled = true
}

// Len reports the number of entries still held, including tombstoned ones
// not yet drained. Mostly useful for metrics/monitoring gauges.
func (t *Timeline) Len() int {
	return t.items.Len()
}

type eventHeap []*Event

func (h eventHeap) Len() int { return len(h) }

func (h eventHeap) Less(i, j int) bool {
	if h[i].Time != h[j].Time {
		return h[i].Time < h[j].Time
	}
	return h[i].seq < h[j].seq
}

func (h eventHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *eventHeap) Push(x interface{}) {
	e := x.(*Event)
	e.index = len(*h)
	*h = append(*h, e)
}

func (h *eventHeap) Pop() interface{} {
	old := *h
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	e.index = -1
	*h = old[:n-1]
	return e
}
