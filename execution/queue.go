package execution

import (
	"container/heap"
	"time"

	"github.com/rustyeddy/binscan/broker"
)

type settlement struct {
	tradeID    string
	orderID    string
	asset      string
	instrument broker.InstrumentType
	due        time.Time
	graceEnd   time.Time
	attempts   int
	stuck      bool

	seq   uint64
	index int
}

// dueQueue orders settlements by due time, then by enqueue order.
type dueQueue []*settlement

func (q dueQueue) Len() int { return len(q) }

func (q dueQueue) Less(i, j int) bool {
	if q[i].due.Equal(q[j].due) {
		return q[i].seq < q[j].seq
	}
	return q[i].due.Before(q[j].due)
}

func (q dueQueue) Swap(i, j int) {
	q[i], q[j] = q[j], q[i]
	q[i].index = i
	q[j].index = j
}

func (q *dueQueue) Push(x any) {
	s := x.(*settlement)
	s.index = len(*q)
	*q = append(*q, s)
}

func (q *dueQueue) Pop() any {
	old := *q
	n := len(old)
	s := old[n-1]
	old[n-1] = nil
	s.index = -1
	*q = old[:n-1]
	return s
}

func (q *dueQueue) peek() *settlement {
	if len(*q) == 0 {
		return nil
	}
	return (*q)[0]
}

func (q *dueQueue) remove(tradeID string) bool {
	for _, s := range *q {
		if s.tradeID == tradeID {
			heap.Remove(q, s.index)
			return true
		}
	}
	return false
}

// onlyStuck reports whether every queued settlement has exhausted its
// retries.
func (q dueQueue) onlyStuck() bool {
	for _, s := range q {
		if !s.stuck {
			return false
		}
	}
	return true
}
