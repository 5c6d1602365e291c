package hierarchy

import (
	"github.com/recommerce-labs/console/internal/apiserver/database"
)

// NodeMetrics are the per-node roll-up figures shown on the tree.
// TotalRevenue and ActiveModules cover that single user only;
// ChildrenCount covers immediate children, not the transitive subtree.
type NodeMetrics struct {
	ChildrenCount int     `json:"childrenCount"`
	TotalRevenue  float64 `json:"totalRevenue"`
	ActiveModules int     `json:"activeModules"`
}

// Node is one materialized node of the rendered hierarchy tree
type Node struct {
	User     *database.User `json:"user"`
	Children []*Node        `json:"children"`
	Depth    int            `json:"depth"`
	Metrics  NodeMetrics    `json:"metrics"`
}

// GroupSubscriptionsByUser indexes subscriptions by owning user id
func GroupSubscriptionsByUser(subs []*database.Subscription) map[string][]*database.Subscription {
	out := make(map[string][]*database.Subscription, len(subs))
	for _, s := range subs {
		out[s.UserID] = append(out[s.UserID], s)
	}
	return out
}

// GroupAssignmentsByUser indexes module assignments by user id
func GroupAssignmentsByUser(assignments []*database.ModuleAssignment) map[string][]*database.ModuleAssignment {
	out := make(map[string][]*database.ModuleAssignment, len(assignments))
	for _, a := range assignments {
		out[a.UserID] = append(out[a.UserID], a)
	}
	return out
}

// ComputeNodeMetrics rolls up the figures for a single user
func ComputeNodeMetrics(childrenCount int, subs []*database.Subscription, assignments []*database.ModuleAssignment) NodeMetrics {
	m := NodeMetrics{ChildrenCount: childrenCount}
	for _, s := range subs {
		m.TotalRevenue += s.TotalAmount
	}
	for _, a := range assignments {
		if a.IsActive {
			m.ActiveModules++
		}
	}
	return m
}

// BuildNode materializes the subtree rooted at root with per-node metrics.
// Returns nil when the root is not in the index: a tree render needs a
// real user, unlike the id-set resolver.
func (t *Tree) BuildNode(root string, subsByUser map[string][]*database.Subscription, assignsByUser map[string][]*database.ModuleAssignment) *Node {
	return t.buildNode(root, 0, map[string]bool{}, subsByUser, assignsByUser)
}

func (t *Tree) buildNode(id string, depth int, visited map[string]bool, subsByUser map[string][]*database.Subscription, assignsByUser map[string][]*database.ModuleAssignment) *Node {
	user := t.users[id]
	if user == nil || visited[id] {
		return nil
	}
	visited[id] = true

	childIDs := t.children[id]
	node := &Node{
		User:     user,
		Children: make([]*Node, 0, len(childIDs)),
		Depth:    depth,
		Metrics:  ComputeNodeMetrics(len(childIDs), subsByUser[id], assignsByUser[id]),
	}
	for _, childID := range childIDs {
		if child := t.buildNode(childID, depth+1, visited, subsByUser, assignsByUser); child != nil {
			node.Children = append(node.Children, child)
		}
	}
	return node
}
