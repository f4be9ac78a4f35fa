package annotation

// IsValid reports whether a is an admissible annotation: identifier,
// non-empty node ids, pattern type, subtype, color and both timestamps must
// all be present.
//
// The pattern type is only checked for presence so that documents written by
// newer versions with additional types still load.
func IsValid(a Annotation) bool {
	return a.ID != "" &&
		len(a.NodeIDs) > 0 &&
		a.PatternType != "" &&
		a.PatternSubtype != "" &&
		a.Color != "" &&
		!a.CreatedAt.IsZero() &&
		!a.ModifiedAt.IsZero()
}
