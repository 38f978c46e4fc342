package sim

import (
	"container/heap"
	"time"
)

type event struct {
	at   time.Duration
	seq  uint64
	name string
	run  func(s *Simulator) error
}

// eventQueue orders events by time, then by the order they were scheduled in
type eventQueue []*event

func (q eventQueue) Len() int {
	return len(q)
}

func (q eventQueue) Less(i, j int) bool {
	if q[i].at != q[j].at {
		return q[i].at < q[j].at
	}
	return q[i].seq < q[j].seq
}

func (q eventQueue) Swap(i, j int) {
	q[i], q[j] = q[j], q[i]
}

func (q *eventQueue) Push(x any) {
	*q = append(*q, x.(*event))
}

func (q *eventQueue) Pop() any {
	old := *q
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	*q = old[:n-1]
	return e
}

func (q *eventQueue) peek() *event {
	if len(*q) == 0 {
		return nil
	}
	return (*q)[0]
}

func (q *eventQueue) push(e *event) {
	heap.Push(q, e)
}

func (q *eventQueue) pop() *event {
	return heap.Pop(q).(*event)
}
