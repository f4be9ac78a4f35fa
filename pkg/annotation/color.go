package annotation

import (
	"maps"
	"slices"
)

// FallbackColor is the neutral gray used when a type/subtype pair has no
// entry in the color scheme.
const FallbackColor = "#6B7280"

// ColorScheme maps a pattern type to a mapping from subtype to color.
type ColorScheme map[PatternType]map[string]string

// defaultColors is the built-in palette. Access it through DefaultColorScheme
// so callers never share the underlying maps.
var defaultColors = ColorScheme{
	PatternCICD: {
		"build":      "#2563eb",
		"testing":    "#3b82f6",
		"deployment": "#1d4ed8",
		"monitoring": "#60a5fa",
	},
	PatternDataProcessing: {
		"ingestion":      "#059669",
		"transformation": "#10b981",
		"storage":        "#047857",
		"analytics":      "#34d399",
	},
	PatternAIAgent: {
		"routing":  "#7c3aed",
		"planning": "#8b5cf6",
		"tool-use": "#6d28d9",
		"memory":   "#a78bfa",
	},
	PatternRPA: {
		"trigger":    "#d97706",
		"extraction": "#f59e0b",
		"automation": "#b45309",
		"validation": "#fbbf24",
	},
}

// DefaultColorScheme returns a fresh copy of the built-in color scheme.
func DefaultColorScheme() ColorScheme {
	return defaultColors.Clone()
}

// ResolveColor returns scheme[t][subtype], or FallbackColor when either key
// is missing. It never fails.
func ResolveColor(t PatternType, subtype string, scheme ColorScheme) string {
	if subtypes, ok := scheme[t]; ok {
		if color, ok := subtypes[subtype]; ok {
			return color
		}
	}
	return FallbackColor
}

// Clone returns a deep copy of the scheme. A nil scheme clones to nil.
func (s ColorScheme) Clone() ColorScheme {
	if s == nil {
		return nil
	}
	out := make(ColorScheme, len(s))
	for t, subtypes := range s {
		out[t] = maps.Clone(subtypes)
	}
	return out
}

// Merge returns a copy of s with every type/subtype entry of other applied
// on top. Entries of other win; entries only present in s are kept.
func (s ColorScheme) Merge(other ColorScheme) ColorScheme {
	out := s.Clone()
	if out == nil {
		out = make(ColorScheme, len(other))
	}
	for t, subtypes := range other {
		if out[t] == nil {
			out[t] = make(map[string]string, len(subtypes))
		}
		for subtype, color := range subtypes {
			out[t][subtype] = color
		}
	}
	return out
}

// Subtypes returns the subtypes known for t, sorted.
func (s ColorScheme) Subtypes(t PatternType) []string {
	return slices.Sorted(maps.Keys(s[t]))
}
