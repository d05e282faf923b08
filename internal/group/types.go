package group

// Group is one node in the access DAG.
//
// The Children field encodes the leaf/container distinction: nil means the
// group is a leaf (a concrete device) and can never own children, while a
// non-nil, possibly empty, set means the group is a container. The
// distinction is fixed at construction and never flips.
type Group struct {
	// ID is the opaque identity of the group. It is the group's key in the
	// owning Store and is stable for the group's lifetime unless rewritten
	// by the link merge protocol.
	ID string `json:"id"`

	// ContactLevel is a classification flag carried opaquely on behalf of
	// the contacts layer. Nothing in this package or in the device
	// controller branches on it; it is stored and propagated only.
	ContactLevel bool `json:"contact_level"`

	// Parents holds the identities of groups this group is a direct
	// member of. Empty for a root.
	Parents map[string]struct{} `json:"parents"`

	// Children holds the identities of this group's direct members.
	// nil marks a leaf.
	Children map[string]struct{} `json:"children"`
}

// New creates a group with no edges. isContainer fixes the leaf/container
// shape for the group's lifetime: containers start with an empty child set,
// leaves with none.
func New(id string, contactLevel, isContainer bool) *Group {
	g := &Group{
		ID:           id,
		ContactLevel: contactLevel,
		Parents:      make(map[string]struct{}),
	}
	if isContainer {
		g.Children = make(map[string]struct{})
	}
	return g
}

// IsContainer reports whether the group may own children.
func (g *Group) IsContainer() bool {
	return g.Children != nil
}

// DeepCopy returns a copy of the group that shares no state with the
// original. Used when exporting hierarchies to a peer so the live table
// cannot be mutated through the export.
func (g *Group) DeepCopy() *Group {
	dup := &Group{
		ID:           g.ID,
		ContactLevel: g.ContactLevel,
		Parents:      copySet(g.Parents),
	}
	if g.Children != nil {
		dup.Children = copySet(g.Children)
	}
	return dup
}

// ReplaceID rewrites every occurrence of oldID in the group's parent and
// child sets to newID. It is a pure edge-set substitution on this one group
// and does not touch any store; the merge protocol uses it to redirect a
// peer's temporary root identity to the local permanent one.
func (g *Group) ReplaceID(oldID, newID string) {
	replaceInSet(g.Parents, oldID, newID)
	replaceInSet(g.Children, oldID, newID)
}

// copySet returns a copy of an identity set. The input must be non-nil.
func copySet(set map[string]struct{}) map[string]struct{} {
	dup := make(map[string]struct{}, len(set))
	for id := range set {
		dup[id] = struct{}{}
	}
	return dup
}

// replaceInSet swaps oldID for newID in a set. No-op on nil sets or when
// oldID is absent.
func replaceInSet(set map[string]struct{}, oldID, newID string) {
	if set == nil {
		return
	}
	if _, ok := set[oldID]; !ok {
		return
	}
	delete(set, oldID)
	set[newID] = struct{}{}
}
