package ipc

import (
	"errors"
	"fmt"

	"github.com/gofrs/flock"
)

// ErrAlreadyLocked indicates another live process holds the singleton lock.
var ErrAlreadyLocked = errors.New("daemon lock is held by another process")

// Lock is the singleton guard. Exactly one daemon per lock path can hold it;
// the OS releases it automatically if the holder dies.
type Lock struct {
	fl *flock.Flock
}

// Acquire takes the lock without blocking. ErrAlreadyLocked means a live
// daemon already owns the path.
func Acquire(path string) (*Lock, error) {
	fl := flock.New(path)
	ok, err := fl.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire daemon lock: %w", err)
	}
	if !ok {
		return nil, ErrAlreadyLocked
	}
	return &Lock{fl: fl}, nil
}

// Release drops the lock. Safe to call once on shutdown.
func (l *Lock) Release() error {
	if l == nil || l.fl == nil {
		return nil
	}
	return l.fl.Unlock()
}
