package telemetry

import (
	"fmt"
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestQueueKeepsMostRecent(t *testing.T) {
	q := NewQueue(DefaultQueueCapacity)
	for i := 0; i < 5000; i++ {
		require.True(t, q.Enqueue(NewEvent(strconv.Itoa(i), nil, nil)))
	}

	require.Equal(t, DefaultQueueCapacity, q.Len())
	require.Equal(t, uint64(5000-DefaultQueueCapacity), q.Dropped())

	var drained []string
	require.True(t, q.DrainInto(func(item *Item) {
		drained = append(drained, item.Data.BaseData.(*EventData).Name)
	}))

	require.Len(t, drained, DefaultQueueCapacity)
	for i, name := range drained {
		require.Equal(t, strconv.Itoa(5000-DefaultQueueCapacity+i), name, fmt.Sprintf("position %d", i))
	}
}

func TestQueueDrainOnce(t *testing.T) {
	q := NewQueue(10)
	require.True(t, q.Enqueue(NewTrace("a", Information, nil)))
	require.False(t, q.IsReady())

	count := 0
	require.True(t, q.DrainInto(func(*Item) { count++ }))
	require.Equal(t, 1, count)
	require.True(t, q.IsReady())

	require.False(t, q.Enqueue(NewTrace("b", Information, nil)), "drained queue must reject items")
	require.False(t, q.DrainInto(func(*Item) { count++ }))
	require.Equal(t, 1, count)
	require.Equal(t, 0, q.Len())
}
