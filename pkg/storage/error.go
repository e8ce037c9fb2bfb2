package storage

import "errors"

// ErrNotFound is returned when a record doesn't exist in the store.
var ErrNotFound = errors.New("record not found")
