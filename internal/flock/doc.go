// Package flock provides cross-platform advisory file locking.
//
// The output envelope is written under an exclusive, non-blocking lock so a
// second concurrent run fails fast instead of interleaving writes.
//
// Usage:
//
//	f, _ := os.OpenFile(path, os.O_WRONLY|os.O_CREATE, 0o644)
//	release, err := flock.Hold(f)
//	if err != nil {
//	    // another process is writing path
//	}
//	defer release()
package flock

import (
	"fmt"
	"os"

	"github.com/mrz1836/configseal/internal/errors"
)

// Hold takes an exclusive non-blocking lock on f. Failure to lock is
// reported as ErrOutputLocked. The returned release func unlocks f; it does
// not close it.
func Hold(f *os.File) (func(), error) {
	if err := Exclusive(f.Fd()); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", errors.ErrOutputLocked, f.Name(), err)
	}
	return func() {
		_ = Unlock(f.Fd())
	}, nil
}
