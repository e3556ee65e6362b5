package layout

import (
	"regexp"
	"strings"
)

// DefaultGapPattern matches the conventional reserved-slot array name used by
// upgrade-safe base contracts.
const DefaultGapPattern = `^__gap$`

// GapMatcher decides whether a storage item is a reserved storage gap.
type GapMatcher struct {
	pattern *regexp.Regexp
}

// NewGapMatcher compiles a gap label pattern. An empty pattern falls back to
// DefaultGapPattern.
func NewGapMatcher(pattern string) (*GapMatcher, error) {
	if pattern == "" {
		pattern = DefaultGapPattern
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, err
	}
	return &GapMatcher{pattern: re}, nil
}

// MustGapMatcher is like NewGapMatcher but panics on an invalid pattern.
// Intended for the built-in default only.
func MustGapMatcher(pattern string) *GapMatcher {
	m, err := NewGapMatcher(pattern)
	if err != nil {
		panic("layout: invalid gap pattern: " + err.Error())
	}
	return m
}

// IsGap reports whether the item is a storage gap under this matcher: the
// label matches and the type is a fixed-size array of full-slot elements.
func (m *GapMatcher) IsGap(l *Layout, item Item) bool {
	if !m.pattern.MatchString(item.Label) {
		return false
	}

	t, ok := l.Type(item.Type)
	if !ok {
		return false
	}

	// A gap must be an in-place fixed-size array; dynamic arrays and
	// mappings reserve nothing at the declaration site.
	if t.Encoding != EncodingInplace || t.Base == "" {
		return false
	}
	if !strings.Contains(t.Label, "[") {
		return false
	}

	base, ok := l.Type(t.Base)
	if !ok {
		return false
	}
	return base.NumberOfBytes == SlotBytes
}

// GapSlots returns the number of reserved slots the gap item spans.
// Returns zero when the item is not a gap under this matcher.
func (m *GapMatcher) GapSlots(l *Layout, item Item) uint64 {
	if !m.IsGap(l, item) {
		return 0
	}
	t, _ := l.Type(item.Type)
	return t.Slots()
}

// Gaps returns all gap items in the layout under the default matcher.
// The result is cached on the layout.
func (l *Layout) Gaps() []Item {
	if l.gapItems != nil {
		return l.gapItems
	}

	matcher := MustGapMatcher("")
	gaps := make([]Item, 0, 2)
	for _, item := range l.items {
		if matcher.IsGap(l, item) {
			gaps = append(gaps, item)
		}
	}
	l.gapItems = gaps
	return gaps
}
