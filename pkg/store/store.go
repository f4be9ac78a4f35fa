package store

import (
	"io"
	"slices"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/patternmark/pkg/annotation"
	"github.com/matzehuels/patternmark/pkg/errors"
	"github.com/matzehuels/patternmark/pkg/observability"
)

// Listener receives a full snapshot of the state after every mutation.
// The snapshot is owned by the listener.
type Listener func(State)

type listenerEntry struct {
	id uint64
	fn Listener
}

// Store is the single mutable owner of the annotation aggregate.
//
// Every mutating operation builds a new aggregate from the old one, swaps it
// in under a mutex, releases the mutex and only then notifies subscribers.
// Listeners may therefore call back into the Store; the nested mutation runs
// its own notification pass before the outer pass continues.
type Store struct {
	mu        sync.Mutex
	state     State
	defaults  Preferences
	listeners []listenerEntry
	nextID    uint64

	logger *log.Logger
	hooks  observability.StoreHooks
}

// Option configures a Store.
type Option func(*Store)

// WithPreferences sets the preferences a fresh Store starts with. They are
// also the defaults recovered preferences are merged over on load.
func WithPreferences(p Preferences) Option {
	return func(s *Store) { s.defaults = p.Clone() }
}

// WithLogger sets the logger used for debug output.
func WithLogger(l *log.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithHooks overrides the globally registered observability hooks.
func WithHooks(h observability.StoreHooks) Option {
	return func(s *Store) {
		if h != nil {
			s.hooks = h
		}
	}
}

// New creates an empty Store.
func New(opts ...Option) *Store {
	s := &Store{
		defaults: DefaultPreferences(),
		logger:   log.New(io.Discard),
		hooks:    observability.Store(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.state = initialState(s.defaults)
	return s
}

// =============================================================================
// Subscription
// =============================================================================

// Subscribe registers l and returns a function that removes exactly that
// registration. Calling the returned function more than once is a no-op.
func (s *Store) Subscribe(l Listener) (unsubscribe func()) {
	s.mu.Lock()
	s.nextID++
	id := s.nextID
	s.listeners = append(s.listeners, listenerEntry{id: id, fn: l})
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			s.listeners = slices.DeleteFunc(s.listeners, func(e listenerEntry) bool {
				return e.id == id
			})
		})
	}
}

// mutate applies fn to a copy of the state. When fn reports a change the copy
// replaces the live state and all listeners are notified after the lock is
// released. It reports whether a change happened.
func (s *Store) mutate(op string, fn func(*State) bool) bool {
	s.mu.Lock()
	next := s.state.Clone()
	if !fn(&next) {
		s.mu.Unlock()
		return false
	}
	s.state = next
	snapshot := next.Clone()
	listeners := slices.Clone(s.listeners)
	s.mu.Unlock()

	s.logger.Debug("store mutation", "op", op, "annotations", len(snapshot.Annotations))
	s.hooks.OnMutation(op, len(snapshot.Annotations))
	s.notify(snapshot, listeners)
	return true
}

func (s *Store) notify(snapshot State, listeners []listenerEntry) {
	for i, l := range listeners {
		if i == len(listeners)-1 {
			l.fn(snapshot)
			return
		}
		l.fn(snapshot.Clone())
	}
}

// read runs fn against the live state under the lock.
func (s *Store) read(fn func(*State)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(&s.state)
}

// =============================================================================
// Snapshots
// =============================================================================

// State returns a snapshot of the whole aggregate.
func (s *Store) State() State {
	var out State
	s.read(func(st *State) { out = st.Clone() })
	return out
}

// Preferences returns a copy of the current preferences.
func (s *Store) Preferences() Preferences {
	var out Preferences
	s.read(func(st *State) { out = st.Preferences.Clone() })
	return out
}

// Selection returns a copy of the current selection state.
func (s *Store) Selection() Selection {
	var out Selection
	s.read(func(st *State) { out = st.Selection.Clone() })
	return out
}

// UI returns a copy of the current UI state.
func (s *Store) UI() UIState {
	var out UIState
	s.read(func(st *State) { out = st.UI })
	return out
}

// =============================================================================
// Annotation CRUD
// =============================================================================

// CreateAnnotation records a new annotation over nodeIDs and returns its id.
//
// It fails with ErrCodeEmptySelection when nodeIDs is empty and with
// ErrCodeInvalidPatternType for unsupported types; the state is unchanged in
// both cases. On success the current selection and pending draft are cleared
// and selection mode is left.
func (s *Store) CreateAnnotation(nodeIDs []string, t annotation.PatternType, subtype, label string) (string, error) {
	if len(nodeIDs) == 0 {
		return "", errors.New(errors.ErrCodeEmptySelection, "no nodes selected")
	}
	if !t.Valid() {
		return "", errors.New(errors.ErrCodeInvalidPatternType, "unknown pattern type: %q", t)
	}

	var (
		id       string
		buildErr error
	)
	s.mutate("create", func(st *State) bool {
		a, err := annotation.Build(nodeIDs, t, subtype, st.Preferences.ColorScheme)
		if err != nil {
			buildErr = err
			return false
		}
		a.Label = label
		st.Annotations[a.ID] = a
		st.Selection = Selection{SelectedNodeIDs: []string{}}
		id = a.ID
		return true
	})
	if buildErr != nil {
		return "", buildErr
	}
	return id, nil
}

// GetAnnotation returns a copy of the annotation with the given id.
func (s *Store) GetAnnotation(id string) (annotation.Annotation, bool) {
	var (
		out annotation.Annotation
		ok  bool
	)
	s.read(func(st *State) {
		var a annotation.Annotation
		if a, ok = st.Annotations[id]; ok {
			out = a.Clone()
		}
	})
	return out, ok
}

// GetAllAnnotations returns copies of all annotations ordered by creation
// time, then id. The order is for stable display only.
func (s *Store) GetAllAnnotations() []annotation.Annotation {
	return s.filter(func(annotation.Annotation) bool { return true })
}

// GetAnnotationsForNode returns every annotation that groups nodeID.
func (s *Store) GetAnnotationsForNode(nodeID string) []annotation.Annotation {
	return s.filter(func(a annotation.Annotation) bool { return a.HasNode(nodeID) })
}

// AreNodesAnnotated reports whether any of nodeIDs belongs to an annotation.
func (s *Store) AreNodesAnnotated(nodeIDs []string) bool {
	found := false
	s.read(func(st *State) {
		for _, a := range st.Annotations {
			for _, id := range nodeIDs {
				if a.HasNode(id) {
					found = true
					return
				}
			}
		}
	})
	return found
}

func (s *Store) filter(keep func(annotation.Annotation) bool) []annotation.Annotation {
	var out []annotation.Annotation
	s.read(func(st *State) {
		out = make([]annotation.Annotation, 0, len(st.Annotations))
		for _, a := range st.Annotations {
			if keep(a) {
				out = append(out, a.Clone())
			}
		}
	})
	slices.SortFunc(out, func(a, b annotation.Annotation) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		if a.ID < b.ID {
			return -1
		}
		if a.ID > b.ID {
			return 1
		}
		return 0
	})
	return out
}

// UpdateAnnotation merges u into the annotation and bumps ModifiedAt.
// An update that leaves the annotation without nodes deletes it instead.
// It returns false, without notifying, when id is unknown or when the merged
// record would fail annotation.IsValid (see Update.Validate).
func (s *Store) UpdateAnnotation(id string, u annotation.Update) bool {
	op := "update"
	if u.NodeIDs != nil && len(*u.NodeIDs) == 0 {
		op = "delete"
	}
	return s.mutate(op, func(st *State) bool {
		return updateIn(st, id, u)
	})
}

// DeleteAnnotation removes the annotation and clears any active or hovered
// reference to it. It returns false when id is unknown.
func (s *Store) DeleteAnnotation(id string) bool {
	return s.mutate("delete", func(st *State) bool {
		return deleteIn(st, id)
	})
}

// AddNodesToAnnotation adds nodeIDs to the annotation with set semantics;
// ids already present are not duplicated. New ids are appended in the order
// given.
func (s *Store) AddNodesToAnnotation(id string, nodeIDs []string) bool {
	return s.mutate("add-nodes", func(st *State) bool {
		a, ok := st.Annotations[id]
		if !ok {
			return false
		}
		merged := append(slices.Clone(a.NodeIDs), nodeIDs...)
		return updateIn(st, id, annotation.Update{NodeIDs: &merged})
	})
}

// RemoveNodesFromAnnotation removes nodeIDs from the annotation. When no
// node would remain the annotation is deleted.
func (s *Store) RemoveNodesFromAnnotation(id string, nodeIDs []string) bool {
	return s.mutate("remove-nodes", func(st *State) bool {
		a, ok := st.Annotations[id]
		if !ok {
			return false
		}
		remaining := slices.DeleteFunc(slices.Clone(a.NodeIDs), func(n string) bool {
			return slices.Contains(nodeIDs, n)
		})
		return updateIn(st, id, annotation.Update{NodeIDs: &remaining})
	})
}

// ClearAllAnnotations drops every annotation and resets selection and UI
// state. Preferences are kept. Subscribers are notified once.
func (s *Store) ClearAllAnnotations() {
	s.mutate("clear", func(st *State) bool {
		*st = initialState(st.Preferences)
		return true
	})
}

// updateIn applies u to the annotation inside st, deleting it when the
// update would leave it without nodes.
func updateIn(st *State, id string, u annotation.Update) bool {
	a, ok := st.Annotations[id]
	if !ok {
		return false
	}
	next := u.Apply(a, annotation.Now())
	if len(next.NodeIDs) == 0 {
		return deleteIn(st, id)
	}
	if !annotation.IsValid(next) {
		return false
	}
	st.Annotations[id] = next
	return true
}

func deleteIn(st *State, id string) bool {
	if _, ok := st.Annotations[id]; !ok {
		return false
	}
	delete(st.Annotations, id)
	if st.UI.ActiveAnnotationID == id {
		st.UI.ActiveAnnotationID = ""
	}
	if st.UI.HoveredAnnotationID == id {
		st.UI.HoveredAnnotationID = ""
	}
	return true
}

// =============================================================================
// Preferences
// =============================================================================

// GetColorForPattern resolves the display color for a type/subtype pair
// using the current color scheme.
func (s *Store) GetColorForPattern(t annotation.PatternType, subtype string) string {
	var color string
	s.read(func(st *State) {
		color = annotation.ResolveColor(t, subtype, st.Preferences.ColorScheme)
	})
	return color
}

// UpdatePreferences shallow-merges u into the preferences.
func (s *Store) UpdatePreferences(u PreferencesUpdate) {
	s.mutate("preferences", func(st *State) bool {
		st.Preferences = u.apply(st.Preferences)
		return true
	})
}
