package datastore

import "errors"

var (
	// ErrKeyNotFound is returned when a key does not exist in the store.
	ErrKeyNotFound = errors.New("datastore: key not found")
)
