package store

import (
	"slices"

	"github.com/matzehuels/patternmark/pkg/annotation"
)

// =============================================================================
// Selection
// =============================================================================

// SetSelectionMode turns selection mode on or off. Turning it off clears the
// selected nodes and the pending draft; turning it on keeps any existing
// selection.
func (s *Store) SetSelectionMode(active bool) {
	s.mutate("selection-mode", func(st *State) bool {
		st.Selection.SelectionMode = active
		if !active {
			st.Selection.SelectedNodeIDs = []string{}
			st.Selection.Pending = nil
		}
		return true
	})
}

// SelectNodes replaces the selected set. Duplicates are dropped and the
// order of first occurrence is kept.
func (s *Store) SelectNodes(ids []string) {
	s.mutate("select", func(st *State) bool {
		st.Selection.SelectedNodeIDs = annotation.Dedupe(ids)
		return true
	})
}

// AddToSelection appends id to the selected set unless it is already present.
func (s *Store) AddToSelection(id string) {
	s.mutate("select-add", func(st *State) bool {
		if !slices.Contains(st.Selection.SelectedNodeIDs, id) {
			st.Selection.SelectedNodeIDs = append(st.Selection.SelectedNodeIDs, id)
		}
		return true
	})
}

// RemoveFromSelection drops id from the selected set.
func (s *Store) RemoveFromSelection(id string) {
	s.mutate("select-remove", func(st *State) bool {
		st.Selection.SelectedNodeIDs = slices.DeleteFunc(st.Selection.SelectedNodeIDs, func(n string) bool {
			return n == id
		})
		return true
	})
}

// ClearSelection empties the selected set and the pending draft regardless
// of selection mode.
func (s *Store) ClearSelection() {
	s.mutate("select-clear", func(st *State) bool {
		st.Selection.SelectedNodeIDs = []string{}
		st.Selection.Pending = nil
		return true
	})
}

// SetPendingAnnotation replaces the draft; nil removes it.
func (s *Store) SetPendingAnnotation(p *PendingAnnotation) {
	s.mutate("pending", func(st *State) bool {
		if p == nil {
			st.Selection.Pending = nil
			return true
		}
		draft := *p
		draft.NodeIDs = slices.Clone(p.NodeIDs)
		st.Selection.Pending = &draft
		return true
	})
}

// CanCreateAnnotation reports whether selection mode is active and at least
// one node is selected.
func (s *Store) CanCreateAnnotation() bool {
	var ok bool
	s.read(func(st *State) { ok = st.Selection.CanCreateAnnotation() })
	return ok
}

// =============================================================================
// UI State
// =============================================================================

// SetAnnotationMode toggles the annotation feature.
func (s *Store) SetAnnotationMode(active bool) {
	s.mutate("annotation-mode", func(st *State) bool {
		st.UI.AnnotationMode = active
		return true
	})
}

// SetActiveAnnotation marks id as the active annotation. An empty id clears
// it. Unknown ids are rejected so the reference never dangles.
func (s *Store) SetActiveAnnotation(id string) bool {
	return s.mutate("active", func(st *State) bool {
		if _, ok := st.Annotations[id]; id != "" && !ok {
			return false
		}
		st.UI.ActiveAnnotationID = id
		return true
	})
}

// SetHoveredAnnotation marks id as hovered. An empty id clears it. Unknown
// ids are rejected.
func (s *Store) SetHoveredAnnotation(id string) bool {
	return s.mutate("hover", func(st *State) bool {
		if _, ok := st.Annotations[id]; id != "" && !ok {
			return false
		}
		st.UI.HoveredAnnotationID = id
		return true
	})
}
