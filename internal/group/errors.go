package group

import "errors"

var (
	// ErrGroupNotFound is returned when a group identity does not exist in
	// the store.
	ErrGroupNotFound = errors.New("group: not found")

	// ErrNotContainer is returned when a child edge is requested on a leaf
	// group. Leaves model concrete devices and never own children.
	ErrNotContainer = errors.New("group: not a container")
)
