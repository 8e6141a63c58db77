package meta

import (
	"context"
	"sync"
)

//InMemory is a non-durable Storage. Used in tests and when persistence is disabled
type InMemory struct {
	mu     sync.RWMutex
	values map[string]string
}

func NewInMemory() *InMemory {
	return &InMemory{values: map[string]string{}}
}

func (im *InMemory) ReadAllText(ctx context.Context, key string) (string, bool, error) {
	im.mu.RLock()
	defer im.mu.RUnlock()

	value, ok := im.values[key]
	return value, ok, nil
}

func (im *InMemory) WriteAllText(ctx context.Context, key, value string) error {
	im.mu.Lock()
	defer im.mu.Unlock()

	im.values[key] = value
	return nil
}

func (im *InMemory) RemoveKey(ctx context.Context, key string) error {
	im.mu.Lock()
	defer im.mu.Unlock()

	delete(im.values, key)
	return nil
}

func (im *InMemory) Type() string {
	return InMemoryType
}

func (im *InMemory) Close() error {
	return nil
}
