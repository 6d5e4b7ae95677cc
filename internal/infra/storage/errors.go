// Package storage holds error kinds shared by the persistence drivers.
package storage

import "errors"

// ErrUnavailable wraps infrastructure failures of the persistent store so the
// transport layer can report them as server-side faults rather than client ones.
var ErrUnavailable = errors.New("storage: repository unavailable")
