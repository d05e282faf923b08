// Package group implements the access-control group DAG that backs the
// Noise linked-device model.
//
// Groups form a directed acyclic graph rather than a tree: a group may be a
// member of several parents at once. Nodes are held in a single table keyed
// by identity (Store), and edges are stored as identity sets on each node,
// so there are no inter-node pointers to manage; every reference is a
// by-value lookup into the owning Store.
//
// # Key Types
//
//   - Group: one DAG node holding identity, contact classification, parent
//     set, and an optional child set (a nil child set marks a leaf, i.e. a
//     concrete device)
//   - Store: the per-device group table with mutation and closure queries
//
// # Invariants
//
// Store mutators maintain two structural invariants:
//
//   - Edge mirroring: child ∈ parent.Children exactly when
//     parent ∈ child.Parents. Every mutator updates both sides.
//   - Leaf immutability: a group created as a leaf never acquires children.
//     Mutators reject child edges on leaves with ErrNotContainer.
//
// SetGroup is the one escape hatch: it installs an entry verbatim without
// edge validation, and exists for bulk installs (merging a peer's exported
// hierarchy) where edges are consistent by construction.
//
// # Thread Safety
//
// A Store is single-owner state: it belongs to exactly one device
// controller and is never shared between goroutines. Methods are
// synchronous and perform no locking.
package group
