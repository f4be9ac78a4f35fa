package graph

import (
	"maps"
	"slices"
)

// ConnectedNodeIDs returns every node adjacent, in either edge direction, to
// a node in selected but not itself selected. The result is sorted and free
// of duplicates. It never returns nil.
func ConnectedNodeIDs(selected []string, edges []Edge) []string {
	sel := make(map[string]struct{}, len(selected))
	for _, id := range selected {
		sel[id] = struct{}{}
	}

	found := make(map[string]struct{})
	for _, e := range edges {
		_, fromSel := sel[e.From]
		_, toSel := sel[e.To]
		if fromSel && !toSel {
			found[e.To] = struct{}{}
		}
		if toSel && !fromSel {
			found[e.From] = struct{}{}
		}
	}

	out := slices.Sorted(maps.Keys(found))
	if out == nil {
		out = []string{}
	}
	return out
}

// Neighbors returns the nodes adjacent to id in either direction, sorted.
func Neighbors(id string, edges []Edge) []string {
	return ConnectedNodeIDs([]string{id}, edges)
}
