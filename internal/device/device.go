package device

import (
	"fmt"
	"sort"

	"github.com/google/uuid"

	"github.com/princeton-sns/noise-go/internal/datastore"
	"github.com/princeton-sns/noise-go/internal/group"
)

// Logger defines the logging interface used by the Device controller.
// This allows different logging implementations to be used.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// LinkState describes where a device stands in the linking handshake.
type LinkState int

const (
	// LinkStateStandalone means no link handshake is in flight.
	LinkStateStandalone LinkState = iota
	// LinkStatePending means this device was created to join a peer's
	// linked set and has not yet adopted the merged hierarchy.
	LinkStatePending
)

// String returns the lowercase name of the state.
func (s LinkState) String() string {
	if s == LinkStatePending {
		return "pending"
	}
	return "standalone"
}

// Device is the per-device controller. It owns the device's group table
// and its opaque data store, and is the only handle through which either
// is mutated.
type Device struct {
	idkey            string
	linkedName       string
	pendingLinkIdkey string
	groups           *group.Store
	data             datastore.Store
	logger           Logger
}

// Options carries the optional construction parameters for a Device.
type Options struct {
	// LinkedName names the container group rooting "all devices linked
	// with me". When empty a fresh unique identity is generated, so a
	// device linked to nobody still has a well-formed one-element set.
	LinkedName string

	// PendingLinkIdkey is the idkey of the peer this device was created
	// to join, when known up front. The merge itself happens later via
	// the Update/Confirm exchange.
	PendingLinkIdkey string

	// Data is the opaque application key/value store this device owns.
	// Defaults to an in-memory store.
	Data datastore.Store
}

// New constructs a device controller around idkey.
//
// It creates the device's own leaf group and its linked-root container,
// links the leaf under the root, and records the pending peer idkey if the
// device was created specifically to join an existing linked set.
func New(idkey string, opts Options) *Device {
	linkedName := opts.LinkedName
	if linkedName == "" {
		linkedName = uuid.New().String()
	}

	data := opts.Data
	if data == nil {
		data = datastore.NewMemoryStore()
	}

	groups := group.NewStore()
	groups.SetGroup(linkedName, group.New(linkedName, false, true))
	groups.SetGroup(idkey, group.New(idkey, false, false))
	// Both groups were just created and the root is a container, so the
	// link cannot fail.
	_ = groups.LinkGroups(linkedName, idkey)

	return &Device{
		idkey:            idkey,
		linkedName:       linkedName,
		pendingLinkIdkey: opts.PendingLinkIdkey,
		groups:           groups,
		data:             data,
		logger:           noopLogger{},
	}
}

// SetLogger sets the logger for the device controller.
func (d *Device) SetLogger(logger Logger) {
	d.logger = logger
}

// Idkey returns this device's own identity.
func (d *Device) Idkey() string {
	return d.idkey
}

// LinkedName returns the identity of the linked-root container group.
func (d *Device) LinkedName() string {
	return d.linkedName
}

// PendingLinkIdkey returns the idkey of the peer a handshake is pending
// against, or "" when standalone.
func (d *Device) PendingLinkIdkey() string {
	return d.pendingLinkIdkey
}

// LinkState reports whether a link handshake is in flight.
func (d *Device) LinkState() LinkState {
	if d.pendingLinkIdkey != "" {
		return LinkStatePending
	}
	return LinkStateStandalone
}

// Groups returns the device's group table.
func (d *Device) Groups() *group.Store {
	return d.groups
}

// Data returns the device's opaque application data store.
func (d *Device) Data() datastore.Store {
	return d.data
}

// LinkedDevices returns the identities of every device in this device's
// linked set, including this device itself.
func (d *Device) LinkedDevices() (map[string]struct{}, error) {
	return d.groups.ResolveIDs(d.linkedName)
}

// LinkedDevicesExcludingSelf returns the linked set minus this device,
// sorted. Used to build fan-out lists ("everyone but me").
func (d *Device) LinkedDevicesExcludingSelf() ([]string, error) {
	return d.linkedDevicesExcluding(d.idkey)
}

// LinkedDevicesExcludingSelfAndOther returns the linked set minus this
// device and one named peer, sorted.
func (d *Device) LinkedDevicesExcludingSelfAndOther(other string) ([]string, error) {
	return d.linkedDevicesExcluding(d.idkey, other)
}

func (d *Device) linkedDevicesExcluding(excluded ...string) ([]string, error) {
	devices, err := d.LinkedDevices()
	if err != nil {
		return nil, err
	}
	for _, id := range excluded {
		delete(devices, id)
	}

	out := make([]string, 0, len(devices))
	for id := range devices {
		out = append(out, id)
	}
	sort.Strings(out)
	return out, nil
}

// UpdateLinkedGroup merges a joining peer's exported hierarchy into this
// device's own, grafting everything under the permanent linked root.
//
// sender is the peer's idkey, tempLinkedName the peer's temporary root
// identity, and membersToAdd the peer's exported subgroup table (the full
// closure under tempLinkedName). Every reference to the temporary root is
// rewritten to this device's permanent root before installation; the
// temporary root itself is not installed, its edges are merged directly
// into the permanent root. This device's linked name never changes.
//
// A malformed payload returns an ErrLinkProtocol error before any local
// mutation. The caller's map is never modified.
func (d *Device) UpdateLinkedGroup(sender, tempLinkedName string, membersToAdd map[string]*group.Group) error {
	permLinkedName := d.linkedName

	tempRoot, ok := membersToAdd[tempLinkedName]
	if !ok {
		return fmt.Errorf("%w: temp root %s missing from exported hierarchy", ErrLinkProtocol, tempLinkedName)
	}
	if !tempRoot.IsContainer() {
		return fmt.Errorf("%w: temp root %s is not a container", ErrLinkProtocol, tempLinkedName)
	}

	// Validate the payload up front so a protocol violation leaves the
	// local table untouched.
	if _, ok := membersToAdd[permLinkedName]; ok {
		return fmt.Errorf("%w: payload overlaps local root %s", ErrLinkProtocol, permLinkedName)
	}
	for parent := range tempRoot.Parents {
		pg, ok := d.lookupEdgeTarget(parent, membersToAdd)
		if !ok {
			return fmt.Errorf("%w: temp root references unknown parent %s", ErrLinkProtocol, parent)
		}
		if !pg.IsContainer() {
			return fmt.Errorf("%w: temp root parent %s is not a container", ErrLinkProtocol, parent)
		}
	}
	for child := range tempRoot.Children {
		if _, ok := membersToAdd[child]; !ok {
			return fmt.Errorf("%w: temp root references unknown child %s", ErrLinkProtocol, child)
		}
	}

	// Install every exported group except the temporary root, with edge
	// references to the temporary root redirected to the permanent one.
	for id, g := range membersToAdd {
		if id == tempLinkedName {
			continue
		}
		installed := g.DeepCopy()
		installed.ReplaceID(tempLinkedName, permLinkedName)
		d.groups.SetGroup(id, installed)
	}

	// Merge the temporary root's edges into the permanent root. Targets
	// were validated above (present and, for parents, containers) and
	// installed before this point, so the edge inserts cannot fail.
	for parent := range tempRoot.Parents {
		if err := d.groups.AddParent(permLinkedName, parent); err != nil {
			return fmt.Errorf("%w: %w", ErrLinkProtocol, err)
		}
	}
	for child := range tempRoot.Children {
		if err := d.groups.AddChild(permLinkedName, child); err != nil {
			return fmt.Errorf("%w: %w", ErrLinkProtocol, err)
		}
	}

	d.logger.Info("linked group updated",
		"sender", sender,
		"temp_root", tempLinkedName,
		"merged_groups", len(membersToAdd)-1,
	)
	return nil
}

// lookupEdgeTarget resolves an identity referenced by the peer's temporary
// root against the payload first, then the local table.
func (d *Device) lookupEdgeTarget(id string, payload map[string]*group.Group) (*group.Group, bool) {
	if g, ok := payload[id]; ok {
		return g, true
	}
	g, err := d.groups.GetGroup(id)
	if err != nil {
		return nil, false
	}
	return g, true
}

// ConfirmUpdateLinkedGroup adopts the receiving peer's authoritative
// post-merge state, completing the handshake on the joining side.
//
// newLinkedName is the agreed final root identity (the receiver's linked
// name) and newGroups the receiver's full post-merge table. The device
// deletes its now-obsolete ephemeral root, re-points its linked name,
// installs every group from the snapshot, and clears the pending idkey.
//
// Returns ErrNoPendingLink when no handshake is pending.
func (d *Device) ConfirmUpdateLinkedGroup(newLinkedName string, newGroups map[string]*group.Group) error {
	if d.pendingLinkIdkey == "" {
		return ErrNoPendingLink
	}
	if _, ok := newGroups[newLinkedName]; !ok {
		return fmt.Errorf("%w: agreed root %s missing from snapshot", ErrLinkProtocol, newLinkedName)
	}
	// The snapshot must carry this device's own leaf, otherwise the leaf's
	// parent edges would keep pointing at the root deleted below.
	if _, ok := newGroups[d.idkey]; !ok {
		return fmt.Errorf("%w: own leaf %s missing from snapshot", ErrLinkProtocol, d.idkey)
	}

	// The ephemeral root collapsed into the peer's root during the merge;
	// the snapshot installed below overwrites everything that referenced
	// it.
	if err := d.groups.DeleteGroup(d.linkedName); err != nil {
		return err
	}

	oldLinkedName := d.linkedName
	d.linkedName = newLinkedName
	for id, g := range newGroups {
		d.groups.SetGroup(id, g.DeepCopy())
	}

	peer := d.pendingLinkIdkey
	d.pendingLinkIdkey = ""

	d.logger.Info("link confirmed",
		"peer", peer,
		"old_root", oldLinkedName,
		"new_root", newLinkedName,
		"groups", len(newGroups),
	)
	return nil
}

// DeleteDevice removes one device's leaf entry from the DAG.
//
// The target must be a genuine leaf; deleting a container through this
// path returns ErrDeviceHasChildren with the store unmodified. On success
// the leaf is detached from every former parent and its entry removed.
// Parents left empty are not cascaded.
func (d *Device) DeleteDevice(toDelete string) error {
	g, err := d.groups.GetGroup(toDelete)
	if err != nil {
		return err
	}
	if g.IsContainer() {
		return fmt.Errorf("%w: %s", ErrDeviceHasChildren, toDelete)
	}

	parents := make([]string, 0, len(g.Parents))
	for parent := range g.Parents {
		parents = append(parents, parent)
	}
	for _, parent := range parents {
		if err := d.groups.RemoveChild(parent, toDelete); err != nil {
			return err
		}
	}

	if err := d.groups.DeleteGroup(toDelete); err != nil {
		return err
	}

	d.logger.Info("device deleted", "idkey", toDelete)
	return nil
}
