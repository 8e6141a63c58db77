package telemetry

import (
	"sync"

	"go.uber.org/atomic"
)

//Collector counts tracked items per kind
type Collector struct {
	counters sync.Map
}

func (c *Collector) Item(kind Kind) {
	counter, _ := c.counters.LoadOrStore(kind, atomic.NewUint64(0))
	counter.(*atomic.Uint64).Inc()
}

//Cut returns counters and resets them
func (c *Collector) Cut() map[Kind]uint64 {
	result := map[Kind]uint64{}
	c.counters.Range(func(key, value interface{}) bool {
		if n := value.(*atomic.Uint64).Swap(0); n > 0 {
			result[key.(Kind)] = n
		}
		return true
	})
	return result
}
