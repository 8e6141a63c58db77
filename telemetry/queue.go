package telemetry

import (
	"sync"

	"github.com/jitsucom/crashnative/logging"
	"github.com/jitsucom/crashnative/metrics"
)

const DefaultQueueCapacity = 4096

//Queue buffers items tracked before the telemetry context is ready.
//It is a ring buffer: when full the oldest item is dropped
type Queue struct {
	mu      sync.Mutex
	items   []*Item
	head    int
	size    int
	ready   bool
	dropped uint64
}

func NewQueue(capacity int) *Queue {
	if capacity <= 0 {
		capacity = DefaultQueueCapacity
	}

	return &Queue{items: make([]*Item, capacity)}
}

//Enqueue buffers the item. Returns false if the queue has been drained already: the caller must send the item directly
func (q *Queue) Enqueue(item *Item) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.ready {
		return false
	}

	capacity := len(q.items)
	if q.size == capacity {
		q.items[q.head] = nil
		q.head = (q.head + 1) % capacity
		q.size--
		q.dropped++
		metrics.PreInitItemDropped()
		if q.dropped == 1 || q.dropped%1000 == 0 {
			logging.Warnf("Telemetry queue is full (capacity %d). Oldest items are dropped: %d dropped so far", capacity, q.dropped)
		}
	}

	q.items[(q.head+q.size)%capacity] = item
	q.size++
	return true
}

//DrainInto marks the queue ready (once) and passes every buffered item to send in original order.
//Returns false if the queue has been drained before
func (q *Queue) DrainInto(send func(*Item)) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.ready {
		return false
	}
	q.ready = true

	capacity := len(q.items)
	for i := 0; i < q.size; i++ {
		idx := (q.head + i) % capacity
		send(q.items[idx])
		q.items[idx] = nil
	}
	q.head = 0
	q.size = 0

	return true
}

func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()

	return q.size
}

func (q *Queue) Dropped() uint64 {
	q.mu.Lock()
	defer q.mu.Unlock()

	return q.dropped
}

func (q *Queue) IsReady() bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	return q.ready
}
