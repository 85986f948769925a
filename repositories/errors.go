package repositories

import "errors"

// ErrNotFound is returned when a document does not exist or is not owned by
// the caller.
var ErrNotFound = errors.New("document not found")
