package store

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/matzehuels/patternmark/pkg/annotation"
	"github.com/matzehuels/patternmark/pkg/errors"
)

// FormatVersion is written to every serialized document.
const FormatVersion = "1.0.0"

// Report describes the outcome of a successful load.
type Report struct {
	Version   string // Version tag found in the document, possibly empty
	Loaded    int    // Annotations kept
	Discarded int    // Records dropped because they failed validation
}

// document is the persisted layout. Annotations are written as [id, record]
// pairs.
type document struct {
	Annotations []any       `json:"annotations"`
	Preferences Preferences `json:"preferences"`
	Version     string      `json:"version"`
}

// rawDocument is the lenient read-side counterpart of document.
type rawDocument struct {
	Annotations json.RawMessage `json:"annotations"`
	Preferences json.RawMessage `json:"preferences"`
	Version     json.RawMessage `json:"version"`
}

// record mirrors annotation.Annotation with textual timestamps so a bad
// timestamp discards one record instead of failing the document.
type record struct {
	ID             string                 `json:"id"`
	NodeIDs        []string               `json:"nodeIds"`
	PatternType    annotation.PatternType `json:"patternType"`
	PatternSubtype string                 `json:"patternSubtype"`
	Color          string                 `json:"color"`
	Label          string                 `json:"label"`
	CreatedAt      string                 `json:"createdAt"`
	ModifiedAt     string                 `json:"modifiedAt"`
}

// =============================================================================
// Serialize
// =============================================================================

// Serialize encodes the annotations and preferences of st. Selection and UI
// state are never written. Annotations are ordered by id so equal states
// produce equal bytes.
func Serialize(st State) ([]byte, error) {
	doc := document{
		Annotations: make([]any, 0, len(st.Annotations)),
		Preferences: st.Preferences,
		Version:     FormatVersion,
	}
	for _, id := range st.sortedIDs() {
		doc.Annotations = append(doc.Annotations, []any{id, st.Annotations[id]})
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "encode annotations")
	}
	return data, nil
}

// =============================================================================
// Deserialize
// =============================================================================

// Deserialize decodes a document using the built-in default preferences.
// See DeserializeWithDefaults.
func Deserialize(data []byte) (State, Report, error) {
	return DeserializeWithDefaults(data, DefaultPreferences())
}

// DeserializeWithDefaults decodes a document written by Serialize.
//
// Records that fail annotation.IsValid, or whose pair id disagrees with the
// record id, are silently dropped and counted in Report.Discarded. Recovered
// preference keys override defaults one by one. Selection and UI state start
// fresh.
//
// It returns an ErrCodeMalformedData error only when the document is not a
// JSON object or has no annotation list.
func DeserializeWithDefaults(data []byte, defaults Preferences) (State, Report, error) {
	var raw rawDocument
	if err := json.Unmarshal(data, &raw); err != nil {
		return State{}, Report{}, errors.Wrap(errors.ErrCodeMalformedData, err, "parse document")
	}
	if isNull(raw.Annotations) {
		return State{}, Report{}, errors.New(errors.ErrCodeMalformedData, "document has no annotation list")
	}
	var entries []json.RawMessage
	if err := json.Unmarshal(raw.Annotations, &entries); err != nil {
		return State{}, Report{}, errors.Wrap(errors.ErrCodeMalformedData, err, "annotations is not a list")
	}

	st := initialState(mergePreferences(defaults, raw.Preferences))
	report := Report{Version: decodeVersion(raw.Version)}
	for _, entry := range entries {
		a, ok := decodeEntry(entry)
		if !ok {
			report.Discarded++
			continue
		}
		if _, dup := st.Annotations[a.ID]; dup {
			report.Discarded++
			continue
		}
		st.Annotations[a.ID] = a
	}
	report.Loaded = len(st.Annotations)
	return st, report, nil
}

func decodeEntry(entry json.RawMessage) (annotation.Annotation, bool) {
	var pair []json.RawMessage
	if err := json.Unmarshal(entry, &pair); err != nil || len(pair) != 2 {
		return annotation.Annotation{}, false
	}
	var id string
	if err := json.Unmarshal(pair[0], &id); err != nil {
		return annotation.Annotation{}, false
	}
	var r record
	if err := json.Unmarshal(pair[1], &r); err != nil || r.ID != id {
		return annotation.Annotation{}, false
	}
	created, err := parseTime(r.CreatedAt)
	if err != nil {
		return annotation.Annotation{}, false
	}
	modified, err := parseTime(r.ModifiedAt)
	if err != nil {
		return annotation.Annotation{}, false
	}
	a := annotation.Annotation{
		ID:             r.ID,
		NodeIDs:        annotation.Dedupe(r.NodeIDs),
		PatternType:    r.PatternType,
		PatternSubtype: r.PatternSubtype,
		Color:          r.Color,
		Label:          r.Label,
		CreatedAt:      created,
		ModifiedAt:     modified,
	}
	return a, annotation.IsValid(a)
}

// parseTime accepts RFC 3339 timestamps. An empty string yields the zero
// time, which validation rejects.
func parseTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}

// mergePreferences overlays each recognized top-level key of raw onto
// defaults. Keys with the wrong type are ignored.
func mergePreferences(defaults Preferences, raw json.RawMessage) Preferences {
	out := defaults.Clone()
	if isNull(raw) {
		return out
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return out
	}
	if v, ok := fields["colorScheme"]; ok {
		var scheme annotation.ColorScheme
		if err := json.Unmarshal(v, &scheme); err == nil && scheme != nil {
			out.ColorScheme = scheme
		}
	}
	if v, ok := fields["showLabels"]; ok {
		var b bool
		if err := json.Unmarshal(v, &b); err == nil {
			out.ShowLabels = b
		}
	}
	if v, ok := fields["animationEnabled"]; ok {
		var b bool
		if err := json.Unmarshal(v, &b); err == nil {
			out.AnimationEnabled = b
		}
	}
	return out
}

func decodeVersion(raw json.RawMessage) string {
	var v string
	if isNull(raw) || json.Unmarshal(raw, &v) != nil {
		return ""
	}
	return v
}

func isNull(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}

// =============================================================================
// Store integration
// =============================================================================

// ExportAnnotations serializes the current annotations and preferences.
func (s *Store) ExportAnnotations() ([]byte, error) {
	return Serialize(s.State())
}

// LoadAnnotations replaces the aggregate with the decoded document and
// notifies subscribers once. Preferences missing from the document fall back
// to the Store's configured defaults. On error the state is left untouched.
func (s *Store) LoadAnnotations(data []byte) (Report, error) {
	loaded, report, err := DeserializeWithDefaults(data, s.defaults)
	if err != nil {
		s.hooks.OnLoad(0, 0, err)
		s.logger.Warn("rejected annotation document", "err", err)
		return Report{}, err
	}
	if report.Discarded > 0 {
		s.logger.Warn("discarded invalid annotation records", "discarded", report.Discarded, "loaded", report.Loaded)
	}
	if report.Version != "" && report.Version != FormatVersion {
		s.logger.Debug("loading document with unknown version", "version", report.Version)
	}
	s.mutate("load", func(st *State) bool {
		*st = loaded
		return true
	})
	s.hooks.OnLoad(report.Loaded, report.Discarded, nil)
	return report, nil
}
