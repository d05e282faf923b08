package group

import (
	"errors"
	"strings"
	"testing"
)

// buildStore creates a store seeded with the given groups.
// Convention: id prefixed "c:" is a container, anything else a leaf.
func buildStore(t *testing.T, ids ...string) *Store {
	t.Helper()

	s := NewStore()
	for _, id := range ids {
		s.SetGroup(id, New(id, false, strings.HasPrefix(id, "c:")))
	}
	return s
}

// checkMirrored asserts the edge-mirroring invariant over the whole table:
// child is in parent.Children exactly when parent is in child.Parents.
func checkMirrored(t *testing.T, s *Store) {
	t.Helper()

	for id, g := range s.groups {
		for parent := range g.Parents {
			pg, err := s.GetGroup(parent)
			if err != nil {
				t.Fatalf("group %s has dangling parent %s", id, parent)
			}
			if _, ok := pg.Children[id]; !ok {
				t.Errorf("edge not mirrored: %s lists parent %s, but %s does not list child %s", id, parent, parent, id)
			}
		}
		for child := range g.Children {
			cg, err := s.GetGroup(child)
			if err != nil {
				t.Fatalf("group %s has dangling child %s", id, child)
			}
			if _, ok := cg.Parents[id]; !ok {
				t.Errorf("edge not mirrored: %s lists child %s, but %s does not list parent %s", id, child, child, id)
			}
		}
	}
}

func TestGetGroup_NotFound(t *testing.T) {
	s := NewStore()

	_, err := s.GetGroup("nope")
	if !errors.Is(err, ErrGroupNotFound) {
		t.Errorf("GetGroup() error = %v, want ErrGroupNotFound", err)
	}
}

func TestSetGroup_Overwrites(t *testing.T) {
	s := buildStore(t, "c:root")

	s.SetGroup("c:root", New("c:root", true, true))

	g, err := s.GetGroup("c:root")
	if err != nil {
		t.Fatalf("GetGroup() error = %v", err)
	}
	if !g.ContactLevel {
		t.Error("overwrite did not replace the entry")
	}
	if s.Len() != 1 {
		t.Errorf("Len() = %d, want 1", s.Len())
	}
}

func TestLinkGroups(t *testing.T) {
	s := buildStore(t, "c:root", "phone")

	if err := s.LinkGroups("c:root", "phone"); err != nil {
		t.Fatalf("LinkGroups() error = %v", err)
	}

	root, _ := s.GetGroup("c:root")
	phone, _ := s.GetGroup("phone")
	if _, ok := root.Children["phone"]; !ok {
		t.Error("parent missing child edge")
	}
	if _, ok := phone.Parents["c:root"]; !ok {
		t.Error("child missing parent edge")
	}
	checkMirrored(t, s)

	// Linking again is idempotent.
	if err := s.LinkGroups("c:root", "phone"); err != nil {
		t.Fatalf("repeat LinkGroups() error = %v", err)
	}
	if len(root.Children) != 1 || len(phone.Parents) != 1 {
		t.Error("repeat link duplicated edges")
	}
}

func TestLinkGroups_LeafParent(t *testing.T) {
	s := buildStore(t, "phone", "laptop")

	err := s.LinkGroups("phone", "laptop")
	if !errors.Is(err, ErrNotContainer) {
		t.Errorf("LinkGroups() error = %v, want ErrNotContainer", err)
	}

	// A failed link must not leave a half edge.
	laptop, _ := s.GetGroup("laptop")
	if len(laptop.Parents) != 0 {
		t.Errorf("laptop.Parents = %v, want empty after failed link", laptop.Parents)
	}
	phone, _ := s.GetGroup("phone")
	if phone.Children != nil {
		t.Error("leaf acquired children through failed link")
	}
}

func TestLinkGroups_MissingGroup(t *testing.T) {
	s := buildStore(t, "c:root")

	if err := s.LinkGroups("c:root", "ghost"); !errors.Is(err, ErrGroupNotFound) {
		t.Errorf("LinkGroups(missing child) error = %v, want ErrGroupNotFound", err)
	}
	if err := s.LinkGroups("ghost", "c:root"); !errors.Is(err, ErrGroupNotFound) {
		t.Errorf("LinkGroups(missing parent) error = %v, want ErrGroupNotFound", err)
	}
}

func TestAddParentAddChild_Mirrored(t *testing.T) {
	s := buildStore(t, "c:root", "c:sub", "phone")

	if err := s.AddParent("c:sub", "c:root"); err != nil {
		t.Fatalf("AddParent() error = %v", err)
	}
	if err := s.AddChild("c:sub", "phone"); err != nil {
		t.Fatalf("AddChild() error = %v", err)
	}

	root, _ := s.GetGroup("c:root")
	if _, ok := root.Children["c:sub"]; !ok {
		t.Error("AddParent did not update the parent's child set")
	}
	phone, _ := s.GetGroup("phone")
	if _, ok := phone.Parents["c:sub"]; !ok {
		t.Error("AddChild did not update the child's parent set")
	}
	checkMirrored(t, s)
}

func TestAddChild_OnLeaf(t *testing.T) {
	s := buildStore(t, "phone", "laptop")

	if err := s.AddChild("phone", "laptop"); !errors.Is(err, ErrNotContainer) {
		t.Errorf("AddChild() error = %v, want ErrNotContainer", err)
	}
}

func TestRemoveChild(t *testing.T) {
	s := buildStore(t, "c:root", "phone")
	if err := s.LinkGroups("c:root", "phone"); err != nil {
		t.Fatalf("LinkGroups() error = %v", err)
	}

	if err := s.RemoveChild("c:root", "phone"); err != nil {
		t.Fatalf("RemoveChild() error = %v", err)
	}

	root, _ := s.GetGroup("c:root")
	phone, _ := s.GetGroup("phone")
	if len(root.Children) != 0 {
		t.Errorf("root.Children = %v, want empty", root.Children)
	}
	if len(phone.Parents) != 0 {
		t.Errorf("phone.Parents = %v, want empty", phone.Parents)
	}

	// Removing an absent edge is a no-op.
	if err := s.RemoveChild("c:root", "phone"); err != nil {
		t.Errorf("RemoveChild(absent edge) error = %v, want nil", err)
	}

	// Removing an edge on a missing group is reported.
	if err := s.RemoveChild("c:root", "ghost"); !errors.Is(err, ErrGroupNotFound) {
		t.Errorf("RemoveChild(missing group) error = %v, want ErrGroupNotFound", err)
	}
}

func TestRemoveParent(t *testing.T) {
	s := buildStore(t, "c:root", "c:sub")
	if err := s.LinkGroups("c:root", "c:sub"); err != nil {
		t.Fatalf("LinkGroups() error = %v", err)
	}

	if err := s.RemoveParent("c:sub", "c:root"); err != nil {
		t.Fatalf("RemoveParent() error = %v", err)
	}
	sub, _ := s.GetGroup("c:sub")
	root, _ := s.GetGroup("c:root")
	if len(sub.Parents) != 0 || len(root.Children) != 0 {
		t.Error("RemoveParent left a half edge")
	}
}

func TestDeleteGroup(t *testing.T) {
	s := buildStore(t, "phone")

	if err := s.DeleteGroup("phone"); err != nil {
		t.Fatalf("DeleteGroup() error = %v", err)
	}
	if s.Len() != 0 {
		t.Errorf("Len() = %d, want 0", s.Len())
	}
	if err := s.DeleteGroup("phone"); !errors.Is(err, ErrGroupNotFound) {
		t.Errorf("DeleteGroup(absent) error = %v, want ErrGroupNotFound", err)
	}
}

// diamondStore builds:
//
//	c:root -> {phone, c:work}
//	c:work -> {laptop, c:shared}
//	c:home -> {c:shared}
//	c:shared -> {tablet}
func diamondStore(t *testing.T) *Store {
	t.Helper()

	s := buildStore(t, "c:root", "c:work", "c:home", "c:shared", "phone", "laptop", "tablet")
	edges := [][2]string{
		{"c:root", "phone"},
		{"c:root", "c:work"},
		{"c:work", "laptop"},
		{"c:work", "c:shared"},
		{"c:home", "c:shared"},
		{"c:shared", "tablet"},
	}
	for _, e := range edges {
		if err := s.LinkGroups(e[0], e[1]); err != nil {
			t.Fatalf("LinkGroups(%s, %s) error = %v", e[0], e[1], err)
		}
	}
	checkMirrored(t, s)
	return s
}

func TestResolveIDs(t *testing.T) {
	s := diamondStore(t)

	leaves, err := s.ResolveIDs("c:root")
	if err != nil {
		t.Fatalf("ResolveIDs() error = %v", err)
	}
	want := []string{"phone", "laptop", "tablet"}
	if len(leaves) != len(want) {
		t.Fatalf("ResolveIDs() = %v, want %v", leaves, want)
	}
	for _, id := range want {
		if _, ok := leaves[id]; !ok {
			t.Errorf("ResolveIDs() missing %s", id)
		}
	}
}

func TestResolveIDs_LeafRootAndDedup(t *testing.T) {
	s := diamondStore(t)

	// A leaf root resolves to itself; tablet is reachable from both
	// c:work and c:home but appears once.
	leaves, err := s.ResolveIDs("phone", "c:work", "c:home")
	if err != nil {
		t.Fatalf("ResolveIDs() error = %v", err)
	}
	want := map[string]struct{}{"phone": {}, "laptop": {}, "tablet": {}}
	if len(leaves) != len(want) {
		t.Fatalf("ResolveIDs() = %v, want %v", leaves, want)
	}
	for id := range want {
		if _, ok := leaves[id]; !ok {
			t.Errorf("ResolveIDs() missing %s", id)
		}
	}
}

func TestResolveIDs_MissingRoot(t *testing.T) {
	s := diamondStore(t)

	if _, err := s.ResolveIDs("ghost"); !errors.Is(err, ErrGroupNotFound) {
		t.Errorf("ResolveIDs(ghost) error = %v, want ErrGroupNotFound", err)
	}
}

func TestAllSubgroups(t *testing.T) {
	s := diamondStore(t)

	closure, err := s.AllSubgroups("c:work")
	if err != nil {
		t.Fatalf("AllSubgroups() error = %v", err)
	}
	want := []string{"c:work", "laptop", "c:shared", "tablet"}
	if len(closure) != len(want) {
		t.Fatalf("AllSubgroups() has %d entries, want %d: %v", len(closure), len(want), closure)
	}
	for _, id := range want {
		if _, ok := closure[id]; !ok {
			t.Errorf("AllSubgroups() missing %s", id)
		}
	}
}

func TestAllSubgroups_ReturnsCopies(t *testing.T) {
	s := diamondStore(t)

	closure, err := s.AllSubgroups("c:root")
	if err != nil {
		t.Fatalf("AllSubgroups() error = %v", err)
	}

	closure["c:root"].Children["intruder"] = struct{}{}

	root, _ := s.GetGroup("c:root")
	if _, ok := root.Children["intruder"]; ok {
		t.Error("mutating the exported closure changed the live table")
	}
}

func TestAllGroups_ReturnsCopies(t *testing.T) {
	s := diamondStore(t)

	snapshot := s.AllGroups()
	if len(snapshot) != s.Len() {
		t.Fatalf("AllGroups() has %d entries, want %d", len(snapshot), s.Len())
	}

	snapshot["phone"].Parents["intruder"] = struct{}{}

	phone, _ := s.GetGroup("phone")
	if _, ok := phone.Parents["intruder"]; ok {
		t.Error("mutating the snapshot changed the live table")
	}
}

// TestInvariants_MutationSequence drives a mixed mutation sequence and
// checks edge mirroring and leaf immutability after every step.
func TestInvariants_MutationSequence(t *testing.T) {
	s := buildStore(t, "c:a", "c:b", "x", "y", "z")

	steps := []struct {
		name string
		op   func() error
	}{
		{"link a-x", func() error { return s.LinkGroups("c:a", "x") }},
		{"link a-b", func() error { return s.LinkGroups("c:a", "c:b") }},
		{"add parent b to y", func() error { return s.AddParent("y", "c:b") }},
		{"add child z to b", func() error { return s.AddChild("c:b", "z") }},
		{"add second parent a to y", func() error { return s.AddParent("y", "c:a") }},
		{"remove child x from a", func() error { return s.RemoveChild("c:a", "x") }},
		{"remove parent b from y", func() error { return s.RemoveParent("y", "c:b") }},
	}

	for _, step := range steps {
		if err := step.op(); err != nil {
			t.Fatalf("%s: error = %v", step.name, err)
		}
		checkMirrored(t, s)

		for id, g := range s.groups {
			if !strings.HasPrefix(id, "c:") && g.Children != nil {
				t.Fatalf("%s: leaf %s acquired a child set", step.name, id)
			}
		}
	}
}
