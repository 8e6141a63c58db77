package inmemory

import (
	"sync"

	"github.com/jitsucom/crashnative/locks"
)

//LockFactory is an in-memory based LockFactory. Locks with equal names are mutually exclusive
type LockFactory struct {
	locks *sync.Map
}

func NewLockFactory() *LockFactory {
	return &LockFactory{
		locks: &sync.Map{},
	}
}

//CreateLock returns lock instance (not yet locked)
func (lf *LockFactory) CreateLock(name string) locks.Lock {
	return newLock(name, lf.locks.LoadOrStore, lf.locks.Delete)
}
