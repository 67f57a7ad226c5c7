// Package mergeiter implements the k-way lazy merge over ordered record
// streams described by the Merge Iterator component: descending by
// timestamp, ties broken by descending seq, via a max-heap over stream
// heads. Grounded on the teacher's own container/heap idiom
// (modules/backendscheduler's tenant priority queue) rather than a
// third-party priority-queue library, since the teacher itself reaches
// for container/heap for this exact shape of problem.
package mergeiter

import "container/heap"

// Stream is a single ordered (descending timestamp, then descending seq)
// source of records. Implementations are expected to be cheap to probe
// repeatedly; mergeiter pulls exactly one element ahead of what it has
// yielded, never materializing a stream eagerly.
type Stream[T any] interface {
	// Peek returns the current head without consuming it. ok is false once
	// the stream is exhausted.
	Peek() (v T, ok bool)
	// Next consumes and returns the current head, advancing the stream.
	Next() (v T, ok bool)
}

// SliceStream adapts a pre-sorted (descending) slice into a Stream, the
// common case for a single IndexBlock's search results.
type SliceStream[T any] struct {
	items []T
	pos   int
}

// NewSliceStream wraps items, which callers must have already sorted
// descending by the same key Less compares on.
func NewSliceStream[T any](items []T) *SliceStream[T] {
	return &SliceStream[T]{items: items}
}

func (s *SliceStream[T]) Peek() (T, bool) {
	var zero T
	if s.pos >= len(s.items) {
		return zero, false
	}
	return s.items[s.pos], true
}

func (s *SliceStream[T]) Next() (T, bool) {
	v, ok := s.Peek()
	if ok {
		s.pos++
	}
	return v, ok
}

// Less reports whether a strictly precedes b in the merged output's order
// (a should be yielded before b).
type Less[T any] func(a, b T) bool

// Merge lazily merges streams into a single stream in the order Less
// defines, consuming one element at a time from whichever stream's current
// head sorts first, via a max-heap (by Less) over stream heads.
func Merge[T any](streams []Stream[T], less Less[T]) Stream[T] {
	h := &streamHeap[T]{less: less}
	for _, s := range streams {
		if v, ok := s.Peek(); ok {
			h.items = append(h.items, headItem[T]{stream: s, head: v})
		}
	}
	heap.Init(h)
	return &mergedStream[T]{heap: h}
}

type headItem[T any] struct {
	stream Stream[T]
	head   T
}

type streamHeap[T any] struct {
	items []headItem[T]
	less  Less[T]
}

func (h *streamHeap[T]) Len() int { return len(h.items) }
func (h *streamHeap[T]) Less(i, j int) bool {
	return h.less(h.items[i].head, h.items[j].head)
}
func (h *streamHeap[T]) Swap(i, j int) { h.items[i], h.items[j] = h.items[j], h.items[i] }
func (h *streamHeap[T]) Push(x any)    { h.items = append(h.items, x.(headItem[T])) }
func (h *streamHeap[T]) Pop() any {
	old := h.items
	n := len(old)
	item := old[n-1]
	h.items = old[:n-1]
	return item
}

type mergedStream[T any] struct {
	heap *streamHeap[T]
}

func (m *mergedStream[T]) Peek() (T, bool) {
	var zero T
	if m.heap.Len() == 0 {
		return zero, false
	}
	return m.heap.items[0].head, true
}

func (m *mergedStream[T]) Next() (T, bool) {
	if m.heap.Len() == 0 {
		var zero T
		return zero, false
	}
	top := m.heap.items[0]
	val, _ := top.stream.Next() // consumes the head already observed via Peek

	// Requeue the winning stream with its new head, or drop it once
	// exhausted.
	if newHead, ok := top.stream.Peek(); ok {
		m.heap.items[0].head = newHead
		heap.Fix(m.heap, 0)
	} else {
		heap.Pop(m.heap)
	}
	return val, true
}

// Drain collects every element of s into a slice, in order. Intended for
// tests and small bounded result sets; callers on the hot path should pull
// incrementally via Next instead.
func Drain[T any](s Stream[T]) []T {
	var out []T
	for {
		v, ok := s.Next()
		if !ok {
			return out
		}
		out = append(out, v)
	}
}
