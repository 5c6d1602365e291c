package hierarchy

import (
	"github.com/recommerce-labs/console/internal/apiserver/database"
)

// Tree is an in-memory adjacency index over the flat user table. It is
// built once per request from a single scan, so resolving a subtree never
// goes back to the store.
type Tree struct {
	users    map[string]*database.User
	children map[string][]string
}

// NewTree builds the adjacency index from a flat user list. Child order
// follows the input order.
func NewTree(users []*database.User) *Tree {
	t := &Tree{
		users:    make(map[string]*database.User, len(users)),
		children: make(map[string][]string),
	}
	for _, u := range users {
		t.users[u.ID] = u
	}
	for _, u := range users {
		if u.ParentID == nil {
			continue
		}
		t.children[*u.ParentID] = append(t.children[*u.ParentID], u.ID)
	}
	return t
}

// User returns the indexed user for an id, or nil
func (t *Tree) User(id string) *database.User {
	return t.users[id]
}

// Children returns the immediate child ids of a user
func (t *Tree) Children(id string) []string {
	return t.children[id]
}

// Descendants returns the root id and every transitive child id, at any
// depth, with no duplicates. A root that is not in the index still yields
// a singleton set containing the root id; callers tolerate this rather
// than treating it as an error. The visited set guards against a
// corrupted store forming a parent cycle.
func (t *Tree) Descendants(root string) []string {
	visited := map[string]bool{root: true}
	out := []string{root}

	var walk func(id string)
	walk = func(id string) {
		for _, child := range t.children[id] {
			if visited[child] {
				continue
			}
			visited[child] = true
			out = append(out, child)
			walk(child)
		}
	}
	walk(root)
	return out
}

// DescendantsDepth returns the root id and child ids down to the given
// depth. depth 0 is the root alone, depth 2 is self + children +
// grandchildren (the dashboard scope).
func (t *Tree) DescendantsDepth(root string, depth int) []string {
	visited := map[string]bool{root: true}
	out := []string{root}
	frontier := []string{root}

	for d := 0; d < depth; d++ {
		var next []string
		for _, id := range frontier {
			for _, child := range t.children[id] {
				if visited[child] {
					continue
				}
				visited[child] = true
				out = append(out, child)
				next = append(next, child)
			}
		}
		if len(next) == 0 {
			break
		}
		frontier = next
	}
	return out
}

// InSubtree reports whether target is the root or one of its descendants
func (t *Tree) InSubtree(root, target string) bool {
	if root == target {
		return true
	}
	for _, id := range t.Descendants(root) {
		if id == target {
			return true
		}
	}
	return false
}
