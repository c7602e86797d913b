// Package branchtree reconstructs fork structure within one conversation
// and resolves root-to-node paths for a selected branch. Conversations with
// no recorded forking have no tree nodes and behave as display-linear.
package branchtree

import (
	"github.com/tapestry-tools/tapestry/internal/models"
)

// Navigator holds one conversation's tree nodes and the currently selected
// branch path. All lookups degrade to no-ops: an unresolvable target never
// clears existing state and never errors.
type Navigator struct {
	nodes     []models.TreeNode
	byID      map[string]int
	byMessage map[string]int
	path      []string // selected root→target node ids
}

// NewNavigator builds a navigator over the given node set. Nodes from other
// conversations may be mixed in by the caller; they are indexed as-is since
// ids are unique per store.
func NewNavigator(nodes []models.TreeNode) *Navigator {
	n := &Navigator{
		nodes:     nodes,
		byID:      make(map[string]int, len(nodes)),
		byMessage: make(map[string]int, len(nodes)),
	}
	for i, node := range nodes {
		n.byID[node.ID] = i
		// First write wins so duplicate message ids stay deterministic.
		if _, seen := n.byMessage[node.MessageID]; !seen && node.MessageID != "" {
			n.byMessage[node.MessageID] = i
		}
	}
	return n
}

// HasTree reports whether any fork structure was recorded.
func (n *Navigator) HasTree() bool {
	return len(n.nodes) > 0
}

// lookup resolves a target by node id, falling back to message id. Exports
// reference either, depending on the producer.
func (n *Navigator) lookup(target string) (models.TreeNode, bool) {
	if i, ok := n.byID[target]; ok {
		return n.nodes[i], true
	}
	if i, ok := n.byMessage[target]; ok {
		return n.nodes[i], true
	}
	return models.TreeNode{}, false
}

// Select resolves the root→target path for the given node (or message) id
// and makes it the active branch. An unresolvable target preserves the
// previously selected path and returns false.
func (n *Navigator) Select(target string) bool {
	node, ok := n.lookup(target)
	if !ok {
		return false
	}

	var path []string
	seen := make(map[string]bool)
	for {
		if seen[node.ID] {
			break // defensive: parent cycles in corrupt exports
		}
		seen[node.ID] = true
		path = append([]string{node.ID}, path...)

		if node.ParentID == "" {
			break
		}
		parent, ok := n.lookup(node.ParentID)
		if !ok {
			break // broken chain: keep what resolved
		}
		node = parent
	}

	n.path = path
	return true
}

// Clear drops the active branch selection.
func (n *Navigator) Clear() {
	n.path = nil
}

// Path returns the active root→target node ids, root first.
func (n *Navigator) Path() []string {
	return append([]string(nil), n.path...)
}

// MessageIDs returns the message-id membership set for the active branch:
// every node on the selected path plus the continuation past it, following
// the first child at each step until no children remain. Nil when no branch
// is selected, meaning no restriction applies.
func (n *Navigator) MessageIDs() map[string]bool {
	if len(n.path) == 0 {
		return nil
	}

	members := make(map[string]bool)
	var last models.TreeNode
	for _, id := range n.path {
		node, ok := n.lookup(id)
		if !ok {
			continue
		}
		if node.MessageID != "" {
			members[node.MessageID] = true
		}
		last = node
	}

	// Continue along the first child only; sibling children are the other
	// branches.
	seen := map[string]bool{last.ID: true}
	for len(last.ChildrenIDs) > 0 {
		next, ok := n.lookup(last.ChildrenIDs[0])
		if !ok || seen[next.ID] {
			break
		}
		seen[next.ID] = true
		if next.MessageID != "" {
			members[next.MessageID] = true
		}
		last = next
	}

	return members
}

// BranchPoints returns the nodes where the conversation diverges, for an
// external branch-selector control.
func (n *Navigator) BranchPoints() []models.TreeNode {
	var points []models.TreeNode
	for _, node := range n.nodes {
		if node.IsBranchPoint {
			points = append(points, node)
		}
	}
	return points
}

// Stats are pure aggregates over the node set, recomputed on demand.
type Stats struct {
	MaxDepth     int
	Roots        int
	BranchPoints int
}

// Stats computes depth and branching aggregates for the node set.
func (n *Navigator) Stats() Stats {
	var s Stats
	for _, node := range n.nodes {
		if node.Depth > s.MaxDepth {
			s.MaxDepth = node.Depth
		}
		if node.IsRoot {
			s.Roots++
		}
		if node.IsBranchPoint {
			s.BranchPoints++
		}
	}
	return s
}
