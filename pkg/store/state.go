package store

import (
	"maps"
	"slices"

	"github.com/matzehuels/patternmark/pkg/annotation"
)

// =============================================================================
// Aggregate State
// =============================================================================

// State is the aggregate owned by a Store. Values handed out by the Store
// are deep copies; mutating them never affects the Store.
type State struct {
	Annotations map[string]annotation.Annotation `json:"annotations"`
	Selection   Selection                        `json:"selection"`
	UI          UIState                          `json:"ui"`
	Preferences Preferences                      `json:"preferences"`
}

// Clone returns a deep copy of s.
func (s State) Clone() State {
	out := State{
		Annotations: make(map[string]annotation.Annotation, len(s.Annotations)),
		Selection:   s.Selection.Clone(),
		UI:          s.UI,
		Preferences: s.Preferences.Clone(),
	}
	for id, a := range s.Annotations {
		out.Annotations[id] = a.Clone()
	}
	return out
}

// initialState returns an empty aggregate with the given preferences.
func initialState(prefs Preferences) State {
	return State{
		Annotations: make(map[string]annotation.Annotation),
		Selection:   Selection{SelectedNodeIDs: []string{}},
		Preferences: prefs.Clone(),
	}
}

// =============================================================================
// Selection
// =============================================================================

// PendingAnnotation is a draft held in selection state before it is
// committed with CreateAnnotation.
type PendingAnnotation struct {
	NodeIDs        []string               `json:"nodeIds,omitempty"`
	PatternType    annotation.PatternType `json:"patternType,omitempty"`
	PatternSubtype string                 `json:"patternSubtype,omitempty"`
	Label          string                 `json:"label,omitempty"`
}

// Selection tracks the nodes picked for the next annotation.
// SelectedNodeIDs keeps selection order and never holds duplicates.
type Selection struct {
	SelectedNodeIDs []string           `json:"selectedNodeIds"`
	SelectionMode   bool               `json:"isSelectionMode"`
	Pending         *PendingAnnotation `json:"pendingAnnotation,omitempty"`
}

// Clone returns a deep copy of s.
func (s Selection) Clone() Selection {
	out := Selection{
		SelectedNodeIDs: slices.Clone(s.SelectedNodeIDs),
		SelectionMode:   s.SelectionMode,
	}
	if out.SelectedNodeIDs == nil {
		out.SelectedNodeIDs = []string{}
	}
	if s.Pending != nil {
		p := *s.Pending
		p.NodeIDs = slices.Clone(p.NodeIDs)
		out.Pending = &p
	}
	return out
}

// CanCreateAnnotation reports whether the selection admits a new annotation:
// selection mode is active and at least one node is selected.
func (s Selection) CanCreateAnnotation() bool {
	return s.SelectionMode && len(s.SelectedNodeIDs) > 0
}

// =============================================================================
// UI State
// =============================================================================

// UIState holds transient view state. Empty ids mean "none".
type UIState struct {
	AnnotationMode      bool   `json:"isAnnotationMode"`
	ActiveAnnotationID  string `json:"activeAnnotationId,omitempty"`
	HoveredAnnotationID string `json:"hoveredAnnotationId,omitempty"`
}

// =============================================================================
// Preferences
// =============================================================================

// Preferences are persisted alongside the annotations.
type Preferences struct {
	ColorScheme      annotation.ColorScheme `json:"colorScheme"`
	ShowLabels       bool                   `json:"showLabels"`
	AnimationEnabled bool                   `json:"animationEnabled"`
}

// DefaultPreferences returns the built-in preferences.
func DefaultPreferences() Preferences {
	return Preferences{
		ColorScheme:      annotation.DefaultColorScheme(),
		ShowLabels:       true,
		AnimationEnabled: true,
	}
}

// Clone returns a deep copy of p.
func (p Preferences) Clone() Preferences {
	p.ColorScheme = p.ColorScheme.Clone()
	return p
}

// PreferencesUpdate enumerates the mutable preference fields.
// Nil fields are left untouched; a non-nil ColorScheme replaces the whole scheme.
type PreferencesUpdate struct {
	ColorScheme      annotation.ColorScheme
	ShowLabels       *bool
	AnimationEnabled *bool
}

// apply shallow-merges u into p.
func (u PreferencesUpdate) apply(p Preferences) Preferences {
	out := p.Clone()
	if u.ColorScheme != nil {
		out.ColorScheme = u.ColorScheme.Clone()
	}
	if u.ShowLabels != nil {
		out.ShowLabels = *u.ShowLabels
	}
	if u.AnimationEnabled != nil {
		out.AnimationEnabled = *u.AnimationEnabled
	}
	return out
}

// sortedIDs returns the annotation ids of s in lexical order.
func (s State) sortedIDs() []string {
	return slices.Sorted(maps.Keys(s.Annotations))
}
