package graph

import (
	"slices"

	"github.com/matzehuels/patternmark/pkg/errors"
)

// =============================================================================
// Diagram - Node-Link Serialization
// =============================================================================

// Diagram is the canonical serialization format for diagrams.
type Diagram struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}

// =============================================================================
// Node
// =============================================================================

// Node is one diagram node. ID is opaque to the annotation store.
type Node struct {
	ID    string `json:"id"`
	Label string `json:"label,omitempty"` // Display label (defaults to ID)
}

// DisplayLabel returns the label if set, otherwise the ID.
func (n *Node) DisplayLabel() string {
	if n.Label != "" {
		return n.Label
	}
	return n.ID
}

// =============================================================================
// Edge
// =============================================================================

// Edge connects two nodes. Direction is kept for round-trips only.
type Edge struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// =============================================================================
// Diagram Queries
// =============================================================================

// NodeIDs returns the node ids in file order.
func (d Diagram) NodeIDs() []string {
	ids := make([]string, len(d.Nodes))
	for i, n := range d.Nodes {
		ids[i] = n.ID
	}
	return ids
}

// Node returns the node with the given id.
func (d Diagram) Node(id string) (Node, bool) {
	i := slices.IndexFunc(d.Nodes, func(n Node) bool { return n.ID == id })
	if i < 0 {
		return Node{}, false
	}
	return d.Nodes[i], true
}

// HasNode reports whether id names a node of d.
func (d Diagram) HasNode(id string) bool {
	_, ok := d.Node(id)
	return ok
}

// Connected returns the extension candidates for selected within d.
func (d Diagram) Connected(selected []string) []string {
	return ConnectedNodeIDs(selected, d.Edges)
}

// Validate checks that node ids are non-empty and unique and that every edge
// references known nodes.
func (d Diagram) Validate() error {
	seen := make(map[string]struct{}, len(d.Nodes))
	for i, n := range d.Nodes {
		if n.ID == "" {
			return errors.New(errors.ErrCodeInvalidDiagram, "node %d has an empty id", i)
		}
		if _, dup := seen[n.ID]; dup {
			return errors.New(errors.ErrCodeInvalidDiagram, "duplicate node id %q", n.ID)
		}
		seen[n.ID] = struct{}{}
	}
	for _, e := range d.Edges {
		if _, ok := seen[e.From]; !ok {
			return errors.New(errors.ErrCodeInvalidDiagram, "edge %s->%s: unknown node %q", e.From, e.To, e.From)
		}
		if _, ok := seen[e.To]; !ok {
			return errors.New(errors.ErrCodeInvalidDiagram, "edge %s->%s: unknown node %q", e.From, e.To, e.To)
		}
	}
	return nil
}

// Unknown returns the ids in ids that are not nodes of d, in input order.
func (d Diagram) Unknown(ids []string) []string {
	var out []string
	for _, id := range ids {
		if !d.HasNode(id) {
			out = append(out, id)
		}
	}
	return out
}
