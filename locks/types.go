package locks

import (
	"errors"
	"time"
)

//ErrAlreadyLocked is returned by TryLock when the resource is held by another owner
var ErrAlreadyLocked = errors.New("Resource has been already locked")

//LockFactory creates lock and returns it (without locking)
type LockFactory interface {
	CreateLock(name string) Lock
}

//Lock is a named non re-entrant lock
type Lock interface {
	//TryLock attempts to acquire the lock within timeout. timeout = 0 means a single non-blocking attempt
	TryLock(timeout time.Duration) (bool, error)
	Unlock()
}
