package model

import (
	"fmt"
	"strings"
)

// FormatList renders places as a bulleted text list, one line per place, at
// most max entries (0 = no cap). A list is either all real entries or the
// sentinel, never empty and never mixed.
func FormatList(places []ScoredPlace, max int) string {
	var lines []string
	for _, p := range places {
		if max > 0 && len(lines) >= max {
			break
		}
		if p.Name == "" {
			continue
		}
		lines = append(lines, FormatLine(&p))
	}
	if len(lines) == 0 {
		return NoEntriesSentinel
	}
	return strings.Join(lines, "\n")
}

// FormatLine renders one place as a list line:
// "- Name (4.6 stars, 320 reviews) — summary".
func FormatLine(p *ScoredPlace) string {
	var b strings.Builder
	b.WriteString("- ")
	b.WriteString(p.Name)
	if p.Rating > 0 && p.ReviewCount > 0 {
		fmt.Fprintf(&b, " (%.1f stars, %d reviews)", p.Rating, p.ReviewCount)
	}
	if p.Summary != "" {
		b.WriteString(" — ")
		b.WriteString(p.Summary)
	}
	return b.String()
}
