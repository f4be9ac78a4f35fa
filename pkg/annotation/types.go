package annotation

import (
	"slices"
	"strings"
	"time"

	"github.com/matzehuels/patternmark/pkg/errors"
)

// =============================================================================
// Pattern Types
// =============================================================================

// PatternType is the top level of the pattern classification.
type PatternType string

// Supported pattern types.
const (
	PatternCICD           PatternType = "CICD"
	PatternDataProcessing PatternType = "DATA_PROCESSING"
	PatternAIAgent        PatternType = "AI_AGENT"
	PatternRPA            PatternType = "RPA"
)

// patternAliases maps the hyphenated spellings used on the command line.
var patternAliases = map[string]PatternType{
	"ci-cd":           PatternCICD,
	"cicd":            PatternCICD,
	"data-processing": PatternDataProcessing,
	"ai-agent":        PatternAIAgent,
	"rpa":             PatternRPA,
}

// PatternTypes returns all supported pattern types in display order.
func PatternTypes() []PatternType {
	return []PatternType{PatternCICD, PatternDataProcessing, PatternAIAgent, PatternRPA}
}

// Valid reports whether t is one of the supported pattern types.
func (t PatternType) Valid() bool {
	return slices.Contains(PatternTypes(), t)
}

// String returns the wire value of the pattern type.
func (t PatternType) String() string { return string(t) }

// ParsePatternType converts user input to a PatternType.
// Exact values are matched case-insensitively; hyphenated aliases such as
// "ci-cd" and "ai-agent" are also accepted.
func ParsePatternType(s string) (PatternType, error) {
	s = strings.TrimSpace(s)
	if t := PatternType(strings.ToUpper(s)); t.Valid() {
		return t, nil
	}
	if t, ok := patternAliases[strings.ToLower(s)]; ok {
		return t, nil
	}
	return "", errors.New(errors.ErrCodeInvalidPatternType, "unknown pattern type: %q", s)
}

// =============================================================================
// Annotation
// =============================================================================

// Annotation is one labeled grouping of diagram nodes.
//
// NodeIDs has set semantics and is never empty for a stored annotation.
// ID and CreatedAt are immutable once the record is built.
type Annotation struct {
	ID             string      `json:"id"`
	NodeIDs        []string    `json:"nodeIds"`
	PatternType    PatternType `json:"patternType"`
	PatternSubtype string      `json:"patternSubtype"`
	Color          string      `json:"color"`
	Label          string      `json:"label,omitempty"` // Optional; empty means no label
	CreatedAt      time.Time   `json:"createdAt"`
	ModifiedAt     time.Time   `json:"modifiedAt"`
}

// Clone returns a deep copy that shares no memory with a.
func (a Annotation) Clone() Annotation {
	a.NodeIDs = slices.Clone(a.NodeIDs)
	return a
}

// HasNode reports whether the annotation groups the given node.
func (a Annotation) HasNode(nodeID string) bool {
	return slices.Contains(a.NodeIDs, nodeID)
}

// DisplayLabel returns the label if set, otherwise "type/subtype".
func (a Annotation) DisplayLabel() string {
	if a.Label != "" {
		return a.Label
	}
	return string(a.PatternType) + "/" + a.PatternSubtype
}

// =============================================================================
// Update Descriptor
// =============================================================================

// Update enumerates the mutable fields of an Annotation.
// Nil fields are left untouched. There is deliberately no ID or CreatedAt.
type Update struct {
	NodeIDs        *[]string
	PatternType    *PatternType
	PatternSubtype *string
	Color          *string
	Label          *string
}

// IsEmpty reports whether the update sets no field at all.
func (u Update) IsEmpty() bool {
	return u.NodeIDs == nil && u.PatternType == nil && u.PatternSubtype == nil &&
		u.Color == nil && u.Label == nil
}

// Validate rejects updates that would blank a required field: an empty
// pattern type, subtype or color. Emptying NodeIDs is allowed and means
// delete.
func (u Update) Validate() error {
	if u.PatternType != nil && *u.PatternType == "" {
		return errors.New(errors.ErrCodeInvalidInput, "pattern type cannot be empty")
	}
	if u.PatternSubtype != nil && *u.PatternSubtype == "" {
		return errors.New(errors.ErrCodeInvalidInput, "pattern subtype cannot be empty")
	}
	if u.Color != nil && *u.Color == "" {
		return errors.New(errors.ErrCodeInvalidInput, "color cannot be empty")
	}
	return nil
}

// Apply returns a copy of a with the update merged in and ModifiedAt set to
// modifiedAt. Node ids are de-duplicated. Apply does not enforce the
// non-empty invariant; callers decide what an emptied annotation means.
func (u Update) Apply(a Annotation, modifiedAt time.Time) Annotation {
	out := a.Clone()
	if u.NodeIDs != nil {
		out.NodeIDs = Dedupe(*u.NodeIDs)
	}
	if u.PatternType != nil {
		out.PatternType = *u.PatternType
	}
	if u.PatternSubtype != nil {
		out.PatternSubtype = *u.PatternSubtype
	}
	if u.Color != nil {
		out.Color = *u.Color
	}
	if u.Label != nil {
		out.Label = *u.Label
	}
	out.ModifiedAt = modifiedAt
	return out
}

// Dedupe returns a copy of ids with duplicates removed, keeping the first
// occurrence of each id. The result is never nil.
func Dedupe(ids []string) []string {
	out := make([]string, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
