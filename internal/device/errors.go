package device

import "errors"

var (
	// ErrDeviceHasChildren is returned when DeleteDevice targets a
	// container group. Containers must be dismantled through a group
	// management path, not the device-removal path.
	ErrDeviceHasChildren = errors.New("device: attempted to delete group instead of device")

	// ErrNoPendingLink is returned when a link confirmation arrives while
	// no handshake is pending.
	ErrNoPendingLink = errors.New("device: no link handshake pending")

	// ErrLinkProtocol is returned when a link message from a peer is
	// malformed (for example, the advertised temporary root is missing
	// from the payload). The local store is left untouched so the caller
	// can drop or report the bad message.
	ErrLinkProtocol = errors.New("device: link protocol violation")
)
