// Package audience builds per-segment category augmentations ("deltas") and
// merges them over base community lists.
package audience

import (
	"strings"

	"communityscout/pkg/model"
)

// MergeLists merges a delta list over a base list. Both are parsed into
// lines (sentinel lines dropped) and deduplicated by a normalized key; delta
// lines take priority, base lines fill the remaining capacity up to max.
// An empty delta simply trims the base to max. The result never exceeds max
// lines and is never "": when nothing survives, the sentinel is returned.
func MergeLists(deltaList, baseList string, max int) string {
	var merged []string
	seen := make(map[string]bool)

	add := func(line string) {
		line = strings.TrimSpace(line)
		if line == "" || strings.EqualFold(line, model.NoEntriesSentinel) {
			return
		}
		if max > 0 && len(merged) >= max {
			return
		}
		key := lineKey(line)
		if key == "" || seen[key] {
			return
		}
		seen[key] = true
		merged = append(merged, line)
	}

	for _, line := range strings.Split(deltaList, "\n") {
		add(line)
	}
	for _, line := range strings.Split(baseList, "\n") {
		add(line)
	}

	if len(merged) == 0 {
		return model.NoEntriesSentinel
	}
	return strings.Join(merged, "\n")
}

// lineKey normalizes a list line for deduplication: leading bullet and
// trailing summary stripped, lowercased, punctuation removed. A line about
// the same place always produces the same key, whatever decoration it
// carries.
func lineKey(line string) string {
	s := strings.TrimSpace(line)
	for _, bullet := range []string{"- ", "• ", "* "} {
		if strings.HasPrefix(s, bullet) {
			s = strings.TrimPrefix(s, bullet)
			break
		}
	}
	if i := strings.Index(s, " — "); i >= 0 {
		s = s[:i]
	}
	// Drop the rating/review annotation too, so a re-rated place still
	// collides with its older line.
	if i := strings.Index(s, " ("); i >= 0 {
		s = s[:i]
	}
	return model.NormalizeKey(s)
}
