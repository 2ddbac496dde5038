// Package queue provides a bounded priority queue for top-k selection.
package queue

// Item is one search candidate: a row position in the index and its
// distance to the query.
type Item struct {
	Row      int
	Distance float32
}

// TopK keeps the k best (smallest-distance) candidates seen so far using a
// max-heap of size k. Ordering is fully deterministic: ties on distance are
// resolved by row position, so earlier insertions win.
type TopK struct {
	k     int
	items []Item
}

// NewTopK creates a collector for the k nearest candidates.
func NewTopK(k int) *TopK {
	return &TopK{
		k:     k,
		items: make([]Item, 0, k),
	}
}

// worse reports whether a ranks after b (larger distance, or equal distance
// and later row).
func worse(a, b Item) bool {
	if a.Distance != b.Distance {
		return a.Distance > b.Distance
	}
	return a.Row > b.Row
}

// Push offers a candidate. If the collector is full and the candidate is
// worse than the current worst, it is discarded.
func (q *TopK) Push(it Item) {
	if len(q.items) < q.k {
		q.items = append(q.items, it)
		q.siftUp(len(q.items) - 1)
		return
	}
	if q.k == 0 || !worse(q.items[0], it) {
		return
	}
	q.items[0] = it
	q.siftDown(0)
}

// Len returns the number of collected candidates.
func (q *TopK) Len() int { return len(q.items) }

// Sorted drains the collector and returns the candidates ordered by
// ascending distance (row position breaking ties). The collector is empty
// afterwards.
func (q *TopK) Sorted() []Item {
	out := make([]Item, len(q.items))
	for i := len(q.items) - 1; i >= 0; i-- {
		out[i] = q.pop()
	}
	return out
}

func (q *TopK) pop() Item {
	n := len(q.items)
	root := q.items[0]
	q.items[0] = q.items[n-1]
	q.items = q.items[:n-1]
	if len(q.items) > 0 {
		q.siftDown(0)
	}
	return root
}

func (q *TopK) siftUp(i int) {
	for i > 0 {
		p := (i - 1) / 2
		if !worse(q.items[i], q.items[p]) {
			return
		}
		q.items[i], q.items[p] = q.items[p], q.items[i]
		i = p
	}
}

func (q *TopK) siftDown(i int) {
	n := len(q.items)
	for {
		l := 2*i + 1
		if l >= n {
			return
		}
		top := l
		if r := l + 1; r < n && worse(q.items[r], q.items[l]) {
			top = r
		}
		if !worse(q.items[top], q.items[i]) {
			return
		}
		q.items[i], q.items[top] = q.items[top], q.items[i]
		i = top
	}
}
