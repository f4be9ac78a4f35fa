package annotation

import (
	"math/rand/v2"
	"strconv"
	"sync"
	"time"

	"github.com/matzehuels/patternmark/pkg/errors"
)

// Now is the clock used for CreatedAt/ModifiedAt timestamps.
// Tests may replace it; it must return UTC times.
var Now = func() time.Time { return time.Now().UTC() }

const (
	idPrefix       = "ann_"
	idSuffixLength = 9
	base36Digits   = "0123456789abcdefghijklmnopqrstuvwxyz"
)

var (
	idMu       sync.Mutex
	lastMillis int64
)

// NewID returns a fresh annotation identifier of the form
// "ann_<base36 millis>_<9 random base36 chars>".
//
// The timestamp part never goes backwards within a process, even if the wall
// clock does. Uniqueness is probabilistic: there is no collision check.
func NewID() string {
	idMu.Lock()
	ms := time.Now().UnixMilli()
	if ms < lastMillis {
		ms = lastMillis
	}
	lastMillis = ms
	idMu.Unlock()

	suffix := make([]byte, idSuffixLength)
	for i := range suffix {
		suffix[i] = base36Digits[rand.IntN(len(base36Digits))]
	}
	return idPrefix + strconv.FormatInt(ms, 36) + "_" + string(suffix)
}

// Build constructs a well-formed annotation for the given nodes.
//
// It fails with ErrCodeInvalidSelection if nodeIDs is empty and with
// ErrCodeInvalidInput if the result would not pass IsValid, so a built
// record always survives a save and reload. The returned record owns a
// de-duplicated copy of nodeIDs, carries the color resolved from scheme, and
// has CreatedAt == ModifiedAt.
func Build(nodeIDs []string, t PatternType, subtype string, scheme ColorScheme) (Annotation, error) {
	if len(nodeIDs) == 0 {
		return Annotation{}, errors.New(errors.ErrCodeInvalidSelection, "annotation needs at least one node")
	}
	if subtype == "" {
		return Annotation{}, errors.New(errors.ErrCodeInvalidInput, "annotation needs a pattern subtype")
	}
	now := Now()
	a := Annotation{
		ID:             NewID(),
		NodeIDs:        Dedupe(nodeIDs),
		PatternType:    t,
		PatternSubtype: subtype,
		Color:          ResolveColor(t, subtype, scheme),
		CreatedAt:      now,
		ModifiedAt:     now,
	}
	if !IsValid(a) {
		return Annotation{}, errors.New(errors.ErrCodeInvalidInput, "annotation for %s/%s is incomplete", t, subtype)
	}
	return a, nil
}
