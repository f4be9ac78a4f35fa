// Package annotation defines the annotation record and the pure functions
// around it: color resolution, construction and validation.
//
// An [Annotation] labels a group of diagram nodes with a two-level pattern
// classification (a [PatternType] and a free-form subtype). Node identifiers
// are opaque strings supplied by the diagram; nothing in this package checks
// them against an actual graph.
//
// # Color Resolution
//
// Display colors come from a [ColorScheme], a mapping from pattern type to a
// mapping from subtype to color:
//
//	color := annotation.ResolveColor(annotation.PatternCICD, "testing", annotation.DefaultColorScheme())
//	// "#3b82f6"
//
// Unknown types or subtypes resolve to [FallbackColor].
//
// # Construction
//
// [Build] produces a well-formed record with a fresh identifier from [NewID]:
//
//	a, err := annotation.Build([]string{"n1", "n2"}, annotation.PatternCICD, "testing", scheme)
//
// Identifiers combine a millisecond timestamp with a random suffix. They are
// unique within a process for practical purposes but are not collision-free
// across processes and must never be used as security tokens.
//
// # Updates
//
// [Update] is the explicit update descriptor: it enumerates exactly the
// mutable fields. ID and CreatedAt have no corresponding field, so they
// cannot be changed through an update.
//
// # Validation
//
// [IsValid] is the single admission predicate used both for freshly built
// records and for records recovered from persisted documents.
package annotation
