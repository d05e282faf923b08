package group

import "fmt"

// Store is the per-device group table.
//
// It owns every Group reachable from the device's hierarchy, keyed by
// identity. One Store exists per device controller; replicas on other
// devices converge only through the explicit link protocol messages, never
// through shared memory.
type Store struct {
	groups map[string]*Group
}

// NewStore creates an empty group table.
func NewStore() *Store {
	return &Store{
		groups: make(map[string]*Group),
	}
}

// SetGroup inserts or overwrites the entry for id.
//
// No edge validation is performed: this is the bulk-install path used when
// adopting a peer's hierarchy, where edges are consistent across the batch
// by construction. Callers making related writes are responsible for
// keeping the mirrored-edge invariant across them.
func (s *Store) SetGroup(id string, g *Group) {
	s.groups[id] = g
}

// GetGroup retrieves a group by identity.
// Returns ErrGroupNotFound if the identity does not exist.
func (s *Store) GetGroup(id string) (*Group, error) {
	g, ok := s.groups[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrGroupNotFound, id)
	}
	return g, nil
}

// AllGroups returns a deep-copied snapshot of the whole table, keyed by
// identity. This is the authoritative payload a device exports after a
// merge so the confirming peer can adopt its state.
func (s *Store) AllGroups() map[string]*Group {
	snapshot := make(map[string]*Group, len(s.groups))
	for id, g := range s.groups {
		snapshot[id] = g.DeepCopy()
	}
	return snapshot
}

// Len returns the number of groups in the table.
func (s *Store) Len() int {
	return len(s.groups)
}

// LinkGroups establishes the bidirectional parent/child edge between two
// existing groups.
//
// Returns ErrGroupNotFound if either identity is absent, and
// ErrNotContainer if parentID names a leaf. The edge is idempotent: linking
// an existing edge is a no-op.
func (s *Store) LinkGroups(parentID, childID string) error {
	return s.addEdge(parentID, childID)
}

// AddParent records parentID as a parent of id, updating both edge sets.
// The parent must be a container.
func (s *Store) AddParent(id, parentID string) error {
	return s.addEdge(parentID, id)
}

// AddChild records childID as a child of id, updating both edge sets.
// The group id must be a container.
func (s *Store) AddChild(id, childID string) error {
	return s.addEdge(id, childID)
}

// addEdge inserts childID into parent's children and parentID into child's
// parents, preserving edge mirroring.
func (s *Store) addEdge(parentID, childID string) error {
	parent, err := s.GetGroup(parentID)
	if err != nil {
		return err
	}
	child, err := s.GetGroup(childID)
	if err != nil {
		return err
	}
	if !parent.IsContainer() {
		return fmt.Errorf("%w: %s", ErrNotContainer, parentID)
	}

	parent.Children[childID] = struct{}{}
	child.Parents[parentID] = struct{}{}
	return nil
}

// RemoveParent removes parentID from id's parents and id from parentID's
// children. A missing edge is a no-op; missing groups are an error.
func (s *Store) RemoveParent(id, parentID string) error {
	return s.removeEdge(parentID, id)
}

// RemoveChild removes the parent/child edge from both sides. A missing
// edge is a no-op; missing groups are an error.
func (s *Store) RemoveChild(parentID, childID string) error {
	return s.removeEdge(parentID, childID)
}

func (s *Store) removeEdge(parentID, childID string) error {
	parent, err := s.GetGroup(parentID)
	if err != nil {
		return err
	}
	child, err := s.GetGroup(childID)
	if err != nil {
		return err
	}

	if parent.Children != nil {
		delete(parent.Children, childID)
	}
	delete(child.Parents, parentID)
	return nil
}

// DeleteGroup removes the entry for id outright.
//
// The caller must already have detached the group's edges; dangling
// references are tolerated only inside the link merge window, which
// rewrites references before removing entries.
func (s *Store) DeleteGroup(id string) error {
	if _, ok := s.groups[id]; !ok {
		return fmt.Errorf("%w: %s", ErrGroupNotFound, id)
	}
	delete(s.groups, id)
	return nil
}

// ResolveIDs computes the set of leaf identities transitively reachable
// from the given roots by descending child edges. Roots that are
// themselves leaves are included. The result answers "which concrete
// devices belong to these groups".
//
// Returns ErrGroupNotFound if a root or any referenced child is absent.
func (s *Store) ResolveIDs(roots ...string) (map[string]struct{}, error) {
	leaves := make(map[string]struct{})
	visited := make(map[string]struct{})

	frontier := make([]string, len(roots))
	copy(frontier, roots)

	for len(frontier) > 0 {
		id := frontier[len(frontier)-1]
		frontier = frontier[:len(frontier)-1]

		if _, seen := visited[id]; seen {
			continue
		}
		visited[id] = struct{}{}

		g, err := s.GetGroup(id)
		if err != nil {
			return nil, err
		}
		if !g.IsContainer() {
			leaves[id] = struct{}{}
			continue
		}
		for child := range g.Children {
			frontier = append(frontier, child)
		}
	}

	return leaves, nil
}

// AllSubgroups computes the full closure of groups reachable from id via
// child edges, including id itself, returned as a deep-copied table keyed
// by identity. This is the payload a device exports when proposing a link.
//
// Returns ErrGroupNotFound if id or any referenced child is absent.
func (s *Store) AllSubgroups(id string) (map[string]*Group, error) {
	closure := make(map[string]*Group)

	frontier := []string{id}
	for len(frontier) > 0 {
		next := frontier[len(frontier)-1]
		frontier = frontier[:len(frontier)-1]

		if _, seen := closure[next]; seen {
			continue
		}

		g, err := s.GetGroup(next)
		if err != nil {
			return nil, err
		}
		closure[next] = g.DeepCopy()

		for child := range g.Children {
			frontier = append(frontier, child)
		}
	}

	return closure, nil
}
