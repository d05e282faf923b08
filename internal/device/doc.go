// Package device provides the per-device controller for the Noise client
// core.
//
// A Device owns one group.Store (the local replica of the access-control
// DAG) and one datastore.Store (the opaque application key/value store).
// It bootstraps the two groups every device needs, its own leaf and the
// container that roots "all devices linked with me", and implements the
// three-phase linking protocol that merges two independently created
// hierarchies when a new device joins an existing linked set:
//
//  1. The joining device is constructed with the peer's idkey pending and
//     a freshly generated temporary linked root.
//  2. The receiving device grafts the joiner's exported hierarchy onto its
//     own permanent root (UpdateLinkedGroup), rewriting every reference to
//     the temporary root along the way.
//  3. The joining device adopts the receiver's authoritative post-merge
//     snapshot (ConfirmUpdateLinkedGroup) and clears its pending state.
//
// Each side applies a purely local mutation once it holds the other side's
// payload; there is no distributed transaction. Delivering the messages in
// order is the transport collaborator's responsibility. In particular,
// the confirm payload carries the receiver's post-merge snapshot and must
// not arrive before the merge has happened.
//
// # Thread Safety
//
// A Device and the stores it owns are single-owner, mutable-through-one-
// handle state. All operations are synchronous and run to completion;
// there is no locking because there is no sharing.
package device
