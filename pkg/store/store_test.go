package store

import (
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/matzehuels/patternmark/pkg/annotation"
	"github.com/matzehuels/patternmark/pkg/errors"
)

// stepClock makes annotation.Now advance by one second on every call.
func stepClock(t *testing.T) {
	t.Helper()
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	n := 0
	prev := annotation.Now
	annotation.Now = func() time.Time {
		n++
		return base.Add(time.Duration(n) * time.Second)
	}
	t.Cleanup(func() { annotation.Now = prev })
}

// counter counts notifications and keeps the last snapshot.
type counter struct {
	mu    sync.Mutex
	calls int
	last  State
}

func (c *counter) listen(st State) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	c.last = st
}

func (c *counter) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

func mustCreate(t *testing.T, s *Store, nodes ...string) string {
	t.Helper()
	id, err := s.CreateAnnotation(nodes, annotation.PatternCICD, "testing", "")
	if err != nil {
		t.Fatalf("CreateAnnotation(%v) error: %v", nodes, err)
	}
	return id
}

func TestCreateAnnotation(t *testing.T) {
	s := New()
	var c counter
	s.Subscribe(c.listen)

	id, err := s.CreateAnnotation([]string{"n1", "n2"}, annotation.PatternCICD, "testing", "unit tests")
	if err != nil {
		t.Fatalf("CreateAnnotation error: %v", err)
	}
	if id == "" {
		t.Fatal("CreateAnnotation returned empty id")
	}

	a, ok := s.GetAnnotation(id)
	if !ok {
		t.Fatalf("GetAnnotation(%q) not found", id)
	}
	if !slices.Equal(a.NodeIDs, []string{"n1", "n2"}) {
		t.Errorf("NodeIDs = %v, want [n1 n2]", a.NodeIDs)
	}
	if a.PatternType != annotation.PatternCICD || a.PatternSubtype != "testing" {
		t.Errorf("pattern = %s/%s, want CICD/testing", a.PatternType, a.PatternSubtype)
	}
	if a.Color != "#3b82f6" {
		t.Errorf("Color = %q, want #3b82f6", a.Color)
	}
	if a.Label != "unit tests" {
		t.Errorf("Label = %q, want %q", a.Label, "unit tests")
	}
	if !a.CreatedAt.Equal(a.ModifiedAt) {
		t.Errorf("CreatedAt %v != ModifiedAt %v", a.CreatedAt, a.ModifiedAt)
	}
	if got := len(s.GetAllAnnotations()); got != 1 {
		t.Errorf("GetAllAnnotations() len = %d, want 1", got)
	}
	if c.count() != 1 {
		t.Errorf("notifications = %d, want 1", c.count())
	}
}

func TestCreateAnnotationRejected(t *testing.T) {
	tests := []struct {
		name  string
		nodes []string
		typ   annotation.PatternType
		code  errors.Code
	}{
		{"nil nodes", nil, annotation.PatternCICD, errors.ErrCodeEmptySelection},
		{"empty nodes", []string{}, annotation.PatternRPA, errors.ErrCodeEmptySelection},
		{"empty nodes bad type", []string{}, annotation.PatternType("IOT"), errors.ErrCodeEmptySelection},
		{"unknown type", []string{"n1"}, annotation.PatternType("IOT"), errors.ErrCodeInvalidPatternType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := New()
			mustCreate(t, s, "existing")
			var c counter
			s.Subscribe(c.listen)

			id, err := s.CreateAnnotation(tt.nodes, tt.typ, "testing", "")
			if !errors.Is(err, tt.code) {
				t.Fatalf("error = %v, want code %s", err, tt.code)
			}
			if id != "" {
				t.Errorf("id = %q, want empty", id)
			}
			if got := len(s.GetAllAnnotations()); got != 1 {
				t.Errorf("collection size = %d, want 1", got)
			}
			if c.count() != 0 {
				t.Errorf("notifications = %d, want 0", c.count())
			}
		})
	}
}

func TestCreateAnnotationEmptySubtype(t *testing.T) {
	s := New()
	mustCreate(t, s, "existing")
	var c counter
	s.Subscribe(c.listen)

	id, err := s.CreateAnnotation([]string{"n1"}, annotation.PatternRPA, "", "")
	if !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Fatalf("error = %v, want code %s", err, errors.ErrCodeInvalidInput)
	}
	if id != "" {
		t.Errorf("id = %q, want empty", id)
	}
	if got := len(s.GetAllAnnotations()); got != 1 {
		t.Errorf("collection size = %d, want 1", got)
	}
	if c.count() != 0 {
		t.Errorf("notifications = %d, want 0", c.count())
	}
}

func TestCreateAnnotationDedupesNodes(t *testing.T) {
	s := New()
	id := mustCreate(t, s, "a", "b", "a")
	a, _ := s.GetAnnotation(id)
	if !slices.Equal(a.NodeIDs, []string{"a", "b"}) {
		t.Errorf("NodeIDs = %v, want [a b]", a.NodeIDs)
	}
}

func TestCreateAnnotationResetsSelection(t *testing.T) {
	s := New()
	s.SetSelectionMode(true)
	s.SelectNodes([]string{"n1", "n2"})
	s.SetPendingAnnotation(&PendingAnnotation{PatternType: annotation.PatternCICD})

	sel := s.Selection()
	if _, err := s.CreateAnnotation(sel.SelectedNodeIDs, annotation.PatternCICD, "build", ""); err != nil {
		t.Fatalf("CreateAnnotation error: %v", err)
	}

	sel = s.Selection()
	if len(sel.SelectedNodeIDs) != 0 || sel.Pending != nil || sel.SelectionMode {
		t.Errorf("selection after create = %+v, want idle", sel)
	}
	if s.CanCreateAnnotation() {
		t.Error("CanCreateAnnotation() = true after create")
	}
}

func TestUpdateAnnotation(t *testing.T) {
	stepClock(t)
	s := New()
	id := mustCreate(t, s, "n1")
	before, _ := s.GetAnnotation(id)

	label := "renamed"
	typ := annotation.PatternRPA
	if !s.UpdateAnnotation(id, annotation.Update{Label: &label, PatternType: &typ}) {
		t.Fatal("UpdateAnnotation returned false")
	}

	after, _ := s.GetAnnotation(id)
	if after.Label != "renamed" || after.PatternType != annotation.PatternRPA {
		t.Errorf("after update = %+v", after)
	}
	if after.ID != before.ID || !after.CreatedAt.Equal(before.CreatedAt) {
		t.Error("update changed immutable fields")
	}
	if !after.ModifiedAt.After(before.ModifiedAt) {
		t.Errorf("ModifiedAt %v not after %v", after.ModifiedAt, before.ModifiedAt)
	}
	if after.PatternSubtype != "testing" || !slices.Equal(after.NodeIDs, []string{"n1"}) {
		t.Errorf("untouched fields changed: %+v", after)
	}
}

func TestUpdateAnnotationUnknown(t *testing.T) {
	s := New()
	var c counter
	s.Subscribe(c.listen)

	label := "x"
	if s.UpdateAnnotation("missing", annotation.Update{Label: &label}) {
		t.Error("UpdateAnnotation(missing) = true")
	}
	if s.DeleteAnnotation("missing") {
		t.Error("DeleteAnnotation(missing) = true")
	}
	if s.AddNodesToAnnotation("missing", []string{"a"}) {
		t.Error("AddNodesToAnnotation(missing) = true")
	}
	if s.RemoveNodesFromAnnotation("missing", []string{"a"}) {
		t.Error("RemoveNodesFromAnnotation(missing) = true")
	}
	if c.count() != 0 {
		t.Errorf("notifications = %d, want 0", c.count())
	}
}

func TestUpdateAnnotationRejectsBlankFields(t *testing.T) {
	empty := ""
	tests := []struct {
		name string
		u    annotation.Update
	}{
		{"empty subtype", annotation.Update{PatternSubtype: &empty}},
		{"empty color", annotation.Update{Color: &empty}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := New()
			id := mustCreate(t, s, "n1")
			before, _ := s.GetAnnotation(id)
			var c counter
			s.Subscribe(c.listen)

			if s.UpdateAnnotation(id, tt.u) {
				t.Error("UpdateAnnotation returned true")
			}
			after, _ := s.GetAnnotation(id)
			if !annotation.IsValid(after) || after.PatternSubtype != before.PatternSubtype || after.Color != before.Color {
				t.Errorf("annotation changed to %+v", after)
			}
			if c.count() != 0 {
				t.Errorf("notifications = %d, want 0", c.count())
			}

			// The record must still be there after a save and reload.
			data, err := s.ExportAnnotations()
			if err != nil {
				t.Fatalf("ExportAnnotations error: %v", err)
			}
			reloaded := New()
			report, err := reloaded.LoadAnnotations(data)
			if err != nil {
				t.Fatalf("LoadAnnotations error: %v", err)
			}
			if report.Discarded != 0 {
				t.Errorf("Discarded = %d, want 0", report.Discarded)
			}
			if _, ok := reloaded.GetAnnotation(id); !ok {
				t.Error("annotation lost on reload")
			}
		})
	}
}

func TestUpdateAnnotationEmptyNodesDeletes(t *testing.T) {
	s := New()
	id := mustCreate(t, s, "n1")
	empty := []string{}
	if !s.UpdateAnnotation(id, annotation.Update{NodeIDs: &empty}) {
		t.Fatal("UpdateAnnotation returned false")
	}
	if _, ok := s.GetAnnotation(id); ok {
		t.Error("annotation with no nodes still present")
	}
}

func TestAddNodesToAnnotation(t *testing.T) {
	stepClock(t)
	s := New()
	id := mustCreate(t, s, "n1", "n2")
	before, _ := s.GetAnnotation(id)

	if !s.AddNodesToAnnotation(id, []string{"n2", "n3", "n3", "n4"}) {
		t.Fatal("AddNodesToAnnotation returned false")
	}
	a, _ := s.GetAnnotation(id)
	if want := []string{"n1", "n2", "n3", "n4"}; !slices.Equal(a.NodeIDs, want) {
		t.Errorf("NodeIDs = %v, want %v", a.NodeIDs, want)
	}
	if !a.ModifiedAt.After(before.ModifiedAt) {
		t.Error("ModifiedAt not bumped")
	}
}

func TestRemoveNodesFromAnnotation(t *testing.T) {
	s := New()
	id := mustCreate(t, s, "n1", "n2", "n3")

	if !s.RemoveNodesFromAnnotation(id, []string{"n2", "absent"}) {
		t.Fatal("RemoveNodesFromAnnotation returned false")
	}
	a, _ := s.GetAnnotation(id)
	if want := []string{"n1", "n3"}; !slices.Equal(a.NodeIDs, want) {
		t.Errorf("NodeIDs = %v, want %v", a.NodeIDs, want)
	}
}

func TestRemoveAllNodesDeletes(t *testing.T) {
	s := New()
	id := mustCreate(t, s, "n1", "n2")
	s.SetActiveAnnotation(id)

	if !s.RemoveNodesFromAnnotation(id, []string{"n1", "n2"}) {
		t.Fatal("RemoveNodesFromAnnotation returned false")
	}
	if _, ok := s.GetAnnotation(id); ok {
		t.Error("annotation still present after removing all nodes")
	}
	if got := s.UI().ActiveAnnotationID; got != "" {
		t.Errorf("ActiveAnnotationID = %q after delete, want empty", got)
	}
}

func TestDeleteAnnotationClearsReferences(t *testing.T) {
	s := New()
	a := mustCreate(t, s, "n1")
	b := mustCreate(t, s, "n2")

	s.SetActiveAnnotation(a)
	s.SetHoveredAnnotation(b)

	if !s.DeleteAnnotation(b) {
		t.Fatal("DeleteAnnotation(b) = false")
	}
	ui := s.UI()
	if ui.ActiveAnnotationID != a {
		t.Errorf("ActiveAnnotationID = %q, want %q", ui.ActiveAnnotationID, a)
	}
	if ui.HoveredAnnotationID != "" {
		t.Errorf("HoveredAnnotationID = %q, want empty", ui.HoveredAnnotationID)
	}

	s.SetHoveredAnnotation(a)
	if !s.DeleteAnnotation(a) {
		t.Fatal("DeleteAnnotation(a) = false")
	}
	if ui := s.UI(); ui.ActiveAnnotationID != "" || ui.HoveredAnnotationID != "" {
		t.Errorf("UI after delete = %+v, want cleared", ui)
	}
}

func TestSetActiveAndHoveredRejectUnknown(t *testing.T) {
	s := New()
	id := mustCreate(t, s, "n1")

	if s.SetActiveAnnotation("missing") {
		t.Error("SetActiveAnnotation(missing) = true")
	}
	if s.SetHoveredAnnotation("missing") {
		t.Error("SetHoveredAnnotation(missing) = true")
	}
	if !s.SetActiveAnnotation(id) || !s.SetHoveredAnnotation(id) {
		t.Fatal("setting a known id failed")
	}
	if !s.SetActiveAnnotation("") || !s.SetHoveredAnnotation("") {
		t.Fatal("clearing failed")
	}
	if ui := s.UI(); ui.ActiveAnnotationID != "" || ui.HoveredAnnotationID != "" {
		t.Errorf("UI = %+v, want cleared", ui)
	}
}

func TestSetAnnotationMode(t *testing.T) {
	s := New()
	s.SetAnnotationMode(true)
	if !s.UI().AnnotationMode {
		t.Error("AnnotationMode = false after enabling")
	}
	s.SetAnnotationMode(false)
	if s.UI().AnnotationMode {
		t.Error("AnnotationMode = true after disabling")
	}
}

func TestSelection(t *testing.T) {
	s := New()

	s.SelectNodes([]string{"a", "b", "a", "c"})
	if got := s.Selection().SelectedNodeIDs; !slices.Equal(got, []string{"a", "b", "c"}) {
		t.Errorf("SelectNodes = %v, want [a b c]", got)
	}
	if s.CanCreateAnnotation() {
		t.Error("CanCreateAnnotation() = true outside selection mode")
	}

	s.SetSelectionMode(true)
	if got := s.Selection().SelectedNodeIDs; len(got) != 3 {
		t.Errorf("enabling selection mode dropped selection: %v", got)
	}
	if !s.CanCreateAnnotation() {
		t.Error("CanCreateAnnotation() = false with mode on and nodes selected")
	}

	s.AddToSelection("b")
	s.AddToSelection("d")
	if got := s.Selection().SelectedNodeIDs; !slices.Equal(got, []string{"a", "b", "c", "d"}) {
		t.Errorf("after add = %v", got)
	}

	s.RemoveFromSelection("a")
	s.RemoveFromSelection("missing")
	if got := s.Selection().SelectedNodeIDs; !slices.Equal(got, []string{"b", "c", "d"}) {
		t.Errorf("after remove = %v", got)
	}

	s.SelectNodes([]string{"z"})
	if got := s.Selection().SelectedNodeIDs; !slices.Equal(got, []string{"z"}) {
		t.Errorf("SelectNodes is not a replacement: %v", got)
	}

	s.SetPendingAnnotation(&PendingAnnotation{PatternType: annotation.PatternRPA})
	s.ClearSelection()
	sel := s.Selection()
	if len(sel.SelectedNodeIDs) != 0 || sel.Pending != nil {
		t.Errorf("after clear = %+v", sel)
	}
	if !sel.SelectionMode {
		t.Error("ClearSelection left selection mode")
	}
	if s.CanCreateAnnotation() {
		t.Error("CanCreateAnnotation() = true with empty selection")
	}
}

func TestSetSelectionModeOffClears(t *testing.T) {
	s := New()
	s.SetSelectionMode(true)
	s.SelectNodes([]string{"a"})
	s.SetPendingAnnotation(&PendingAnnotation{NodeIDs: []string{"a"}})

	s.SetSelectionMode(false)
	sel := s.Selection()
	if sel.SelectionMode || len(sel.SelectedNodeIDs) != 0 || sel.Pending != nil {
		t.Errorf("selection after mode off = %+v", sel)
	}

	// Idempotent.
	s.SetSelectionMode(false)
	if sel := s.Selection(); sel.SelectionMode || sel.SelectedNodeIDs == nil {
		t.Errorf("selection after second mode off = %+v", sel)
	}
}

func TestCanCreateAnnotationTruthTable(t *testing.T) {
	tests := []struct {
		mode  bool
		nodes []string
		want  bool
	}{
		{false, nil, false},
		{false, []string{"a"}, false},
		{true, nil, false},
		{true, []string{"a"}, true},
	}
	for _, tt := range tests {
		s := New()
		s.SelectNodes(tt.nodes)
		s.SetSelectionMode(tt.mode)
		if got := s.CanCreateAnnotation(); got != tt.want {
			t.Errorf("mode=%v nodes=%v: CanCreateAnnotation() = %v, want %v", tt.mode, tt.nodes, got, tt.want)
		}
	}
}

func TestSubscribeUnsubscribe(t *testing.T) {
	s := New()
	var a, b counter
	unsubA := s.Subscribe(a.listen)
	s.Subscribe(b.listen)

	s.SetAnnotationMode(true)
	unsubA()
	unsubA()
	s.SetAnnotationMode(false)

	if a.count() != 1 {
		t.Errorf("unsubscribed listener calls = %d, want 1", a.count())
	}
	if b.count() != 2 {
		t.Errorf("remaining listener calls = %d, want 2", b.count())
	}
}

func TestSubscribeSameFuncTwice(t *testing.T) {
	s := New()
	var c counter
	first := s.Subscribe(c.listen)
	s.Subscribe(c.listen)

	first()
	s.SetAnnotationMode(true)
	if c.count() != 1 {
		t.Errorf("calls = %d, want 1 (only the second registration)", c.count())
	}
}

func TestListenerOrder(t *testing.T) {
	s := New()
	var order []int
	for i := range 3 {
		s.Subscribe(func(State) { order = append(order, i) })
	}
	s.SetAnnotationMode(true)
	if !slices.Equal(order, []int{0, 1, 2}) {
		t.Errorf("order = %v, want [0 1 2]", order)
	}
}

func TestListenerReentrant(t *testing.T) {
	s := New()

	reentered := false
	s.Subscribe(func(st State) {
		if reentered || len(st.Annotations) == 0 {
			return
		}
		reentered = true
		for id := range st.Annotations {
			s.SetActiveAnnotation(id)
		}
	})

	var seen []string
	s.Subscribe(func(st State) { seen = append(seen, st.UI.ActiveAnnotationID) })

	id := mustCreate(t, s, "n1")

	// The nested pass runs to completion before the outer pass resumes.
	if want := []string{id, ""}; !slices.Equal(seen, want) {
		t.Errorf("second listener saw %q, want %q", seen, want)
	}
	if got := s.UI().ActiveAnnotationID; got != id {
		t.Errorf("final ActiveAnnotationID = %q, want %q", got, id)
	}
}

func TestListenerUnsubscribesDuringNotification(t *testing.T) {
	s := New()
	var unsub func()
	calls := 0
	unsub = s.Subscribe(func(State) {
		calls++
		unsub()
	})
	var c counter
	s.Subscribe(c.listen)

	s.SetAnnotationMode(true)
	s.SetAnnotationMode(false)

	if calls != 1 {
		t.Errorf("self-unsubscribing listener calls = %d, want 1", calls)
	}
	if c.count() != 2 {
		t.Errorf("other listener calls = %d, want 2", c.count())
	}
}

func TestSnapshotsAreCopies(t *testing.T) {
	s := New()
	id := mustCreate(t, s, "n1", "n2")

	a, _ := s.GetAnnotation(id)
	a.NodeIDs[0] = "mutated"

	st := s.State()
	ann := st.Annotations[id]
	ann.NodeIDs[1] = "mutated"
	st.Preferences.ColorScheme[annotation.PatternCICD]["testing"] = "#000000"
	delete(st.Annotations, id)

	all := s.GetAllAnnotations()
	all[0].Color = "#000000"

	got, ok := s.GetAnnotation(id)
	if !ok {
		t.Fatal("annotation vanished")
	}
	if !slices.Equal(got.NodeIDs, []string{"n1", "n2"}) || got.Color != "#3b82f6" {
		t.Errorf("store state was modified through a copy: %+v", got)
	}
	if c := s.GetColorForPattern(annotation.PatternCICD, "testing"); c != "#3b82f6" {
		t.Errorf("color scheme was modified through a copy: %q", c)
	}
}

func TestListenerSnapshotsIndependent(t *testing.T) {
	s := New()
	s.Subscribe(func(st State) {
		for id, a := range st.Annotations {
			a.NodeIDs[0] = "mutated"
			st.Annotations[id] = a
		}
	})
	var c counter
	s.Subscribe(c.listen)

	id := mustCreate(t, s, "n1")
	if got := c.last.Annotations[id].NodeIDs[0]; got != "n1" {
		t.Errorf("second listener saw %q, want n1", got)
	}
	if a, _ := s.GetAnnotation(id); a.NodeIDs[0] != "n1" {
		t.Errorf("store saw %q, want n1", a.NodeIDs[0])
	}
}

func TestGetAllAnnotationsOrdered(t *testing.T) {
	stepClock(t)
	s := New()
	first := mustCreate(t, s, "a")
	second := mustCreate(t, s, "b")
	third := mustCreate(t, s, "c")

	var got []string
	for _, a := range s.GetAllAnnotations() {
		got = append(got, a.ID)
	}
	if want := []string{first, second, third}; !slices.Equal(got, want) {
		t.Errorf("order = %v, want %v", got, want)
	}
}

func TestGetAnnotationsForNode(t *testing.T) {
	s := New()
	a := mustCreate(t, s, "shared", "a")
	b := mustCreate(t, s, "shared", "b")
	mustCreate(t, s, "c")

	var ids []string
	for _, ann := range s.GetAnnotationsForNode("shared") {
		ids = append(ids, ann.ID)
	}
	slices.Sort(ids)
	want := []string{a, b}
	slices.Sort(want)
	if !slices.Equal(ids, want) {
		t.Errorf("GetAnnotationsForNode(shared) = %v, want %v", ids, want)
	}
	if got := s.GetAnnotationsForNode("nobody"); len(got) != 0 {
		t.Errorf("GetAnnotationsForNode(nobody) = %v, want empty", got)
	}
}

func TestAreNodesAnnotated(t *testing.T) {
	s := New()
	mustCreate(t, s, "a", "b")

	tests := []struct {
		nodes []string
		want  bool
	}{
		{[]string{"a"}, true},
		{[]string{"x", "b"}, true},
		{[]string{"x", "y"}, false},
		{nil, false},
	}
	for _, tt := range tests {
		if got := s.AreNodesAnnotated(tt.nodes); got != tt.want {
			t.Errorf("AreNodesAnnotated(%v) = %v, want %v", tt.nodes, got, tt.want)
		}
	}
}

func TestClearAllAnnotations(t *testing.T) {
	s := New()
	id := mustCreate(t, s, "a")
	mustCreate(t, s, "b")
	off := false
	s.UpdatePreferences(PreferencesUpdate{ShowLabels: &off})
	s.SetActiveAnnotation(id)
	s.SetAnnotationMode(true)
	s.SetSelectionMode(true)
	s.SelectNodes([]string{"x"})

	var c counter
	s.Subscribe(c.listen)
	s.ClearAllAnnotations()

	if c.count() != 1 {
		t.Errorf("notifications = %d, want 1", c.count())
	}
	st := s.State()
	if len(st.Annotations) != 0 {
		t.Errorf("annotations left: %d", len(st.Annotations))
	}
	if st.UI != (UIState{}) {
		t.Errorf("UI = %+v, want zero", st.UI)
	}
	if st.Selection.SelectionMode || len(st.Selection.SelectedNodeIDs) != 0 {
		t.Errorf("Selection = %+v, want initial", st.Selection)
	}
	if st.Preferences.ShowLabels {
		t.Error("ClearAllAnnotations reset preferences")
	}
}

func TestPreferences(t *testing.T) {
	s := New()
	if got := s.GetColorForPattern(annotation.PatternAIAgent, "routing"); got != "#7c3aed" {
		t.Errorf("AI_AGENT/routing = %q, want #7c3aed", got)
	}
	if got := s.GetColorForPattern(annotation.PatternAIAgent, "unknown"); got != annotation.FallbackColor {
		t.Errorf("unknown subtype = %q, want fallback", got)
	}

	off := false
	s.UpdatePreferences(PreferencesUpdate{AnimationEnabled: &off})
	p := s.Preferences()
	if p.AnimationEnabled || !p.ShowLabels {
		t.Errorf("after partial update = %+v", p)
	}

	s.UpdatePreferences(PreferencesUpdate{ColorScheme: annotation.ColorScheme{
		annotation.PatternAIAgent: {"routing": "#000000"},
	}})
	if got := s.GetColorForPattern(annotation.PatternAIAgent, "routing"); got != "#000000" {
		t.Errorf("after scheme replace = %q, want #000000", got)
	}
	if got := s.GetColorForPattern(annotation.PatternCICD, "testing"); got != annotation.FallbackColor {
		t.Errorf("replaced scheme kept old entry: %q", got)
	}

	id := mustCreate(t, s, "n1")
	if a, _ := s.GetAnnotation(id); a.Color != annotation.FallbackColor {
		t.Errorf("new annotation ignored current scheme: %q", a.Color)
	}
}

func TestWithPreferences(t *testing.T) {
	prefs := DefaultPreferences()
	prefs.ShowLabels = false
	s := New(WithPreferences(prefs))
	prefs.ShowLabels = true

	if s.Preferences().ShowLabels {
		t.Error("WithPreferences was not applied or aliases the caller's value")
	}
}

type recordingHooks struct {
	ops   []string
	loads int
}

func (r *recordingHooks) OnMutation(op string, _ int) { r.ops = append(r.ops, op) }
func (r *recordingHooks) OnLoad(int, int, error)      { r.loads++ }

func TestWithHooks(t *testing.T) {
	h := &recordingHooks{}
	s := New(WithHooks(h))

	id := mustCreate(t, s, "n1")
	s.DeleteAnnotation(id)
	s.DeleteAnnotation(id)

	if want := []string{"create", "delete"}; !slices.Equal(h.ops, want) {
		t.Errorf("ops = %v, want %v", h.ops, want)
	}
}

func TestConcurrentMutations(t *testing.T) {
	s := New()
	var c counter
	s.Subscribe(c.listen)

	var wg sync.WaitGroup
	for i := range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id, err := s.CreateAnnotation([]string{string(rune('a' + i))}, annotation.PatternRPA, "trigger", "")
			if err != nil {
				t.Errorf("CreateAnnotation: %v", err)
				return
			}
			s.AddNodesToAnnotation(id, []string{"shared"})
		}()
	}
	wg.Wait()

	if got := len(s.GetAnnotationsForNode("shared")); got != 20 {
		t.Errorf("annotations with shared node = %d, want 20", got)
	}
	if c.count() != 40 {
		t.Errorf("notifications = %d, want 40", c.count())
	}
}
