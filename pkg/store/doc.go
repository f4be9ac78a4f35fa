// Package store owns the authoritative annotation state: the annotation
// collection, node selection, transient UI state and preferences.
//
// # Overview
//
// A [Store] is the only mutable owner of its [State]. Readers get deep
// copies, so a value obtained from [Store.State], [Store.GetAnnotation] or a
// listener can be kept and modified freely.
//
//	s := store.New()
//	unsubscribe := s.Subscribe(func(st store.State) {
//	    fmt.Println(len(st.Annotations), "annotations")
//	})
//	defer unsubscribe()
//
//	s.SetSelectionMode(true)
//	s.SelectNodes([]string{"n1", "n2"})
//	if s.CanCreateAnnotation() {
//	    id, err := s.CreateAnnotation(s.Selection().SelectedNodeIDs, annotation.PatternCICD, "testing", "")
//	}
//
// # Selection State Machine
//
// Selection moves through three states:
//
//	Idle --SetSelectionMode(true)--> Selecting --SelectNodes--> Selecting (non-empty)
//	Selecting (non-empty) --CreateAnnotation--> Idle
//	any --SetSelectionMode(false)--> Idle
//
// Leaving selection mode clears the selected nodes and the pending draft.
//
// # Notifications
//
// Every successful mutation notifies all listeners synchronously, in
// subscription order, with a full snapshot. Operations that report false
// (unknown ids) do not notify. The internal lock is released before
// listeners run, so a listener may call back into the Store; the nested
// mutation then delivers its own notification pass before the outer pass
// continues, and later listeners of the outer pass still receive the outer
// snapshot.
//
// # Persistence
//
// [Serialize] and [Deserialize] convert between a State and a versioned JSON
// document:
//
//	{"annotations": [["ann_...", {...}]], "preferences": {...}, "version": "1.0.0"}
//
// Selection and UI state are never persisted. Records that fail
// [annotation.IsValid] are dropped on load and counted in [Report]; only a
// document without a usable annotation list is rejected.
package store
