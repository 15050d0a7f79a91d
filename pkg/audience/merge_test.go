package audience

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"communityscout/pkg/model"
)

func TestMergeListsDeltaPriority(t *testing.T) {
	delta := "- Fine Diner (4.8 stars, 200 reviews)\n- Chez Nous (4.7 stars, 150 reviews)"
	base := "- Gino's (4.5 stars, 300 reviews)\n- Slice House (4.2 stars, 90 reviews)\n- Chez Nous (4.6 stars, 120 reviews)"

	got := MergeLists(delta, base, 3)
	lines := strings.Split(got, "\n")

	assert.Len(t, lines, 3)
	assert.Equal(t, "- Fine Diner (4.8 stars, 200 reviews)", lines[0])
	assert.Equal(t, "- Chez Nous (4.7 stars, 150 reviews)", lines[1], "delta version of a duplicate wins")
	assert.Equal(t, "- Gino's (4.5 stars, 300 reviews)", lines[2])
}

func TestMergeListsCapsAtMax(t *testing.T) {
	delta := "- A\n- B\n- C"
	base := "- D\n- E"

	got := MergeLists(delta, base, 2)
	assert.Equal(t, "- A\n- B", got)
}

func TestMergeListsEmptyDeltaTrimsBase(t *testing.T) {
	base := "- A\n- B\n- C"
	assert.Equal(t, "- A\n- B", MergeLists("", base, 2))
}

func TestMergeListsDropsSentinelLines(t *testing.T) {
	got := MergeLists(model.NoEntriesSentinel, "- A", 5)
	assert.Equal(t, "- A", got)

	got = MergeLists("no entries found", "- A", 5)
	assert.Equal(t, "- A", got, "sentinel match is case-insensitive")
}

func TestMergeListsBothEmpty(t *testing.T) {
	assert.Equal(t, model.NoEntriesSentinel, MergeLists("", "", 5))
	assert.Equal(t, model.NoEntriesSentinel, MergeLists(model.NoEntriesSentinel, model.NoEntriesSentinel, 5))
}

func TestLineKeyNormalization(t *testing.T) {
	tests := []struct {
		name string
		a    string
		b    string
	}{
		{"BulletVariants", "- Gino's Pizza", "• Gino's Pizza"},
		{"SummaryStripped", "- Gino's Pizza — the local favorite", "- Gino's Pizza"},
		{"RatingStripped", "- Gino's Pizza (4.5 stars, 300 reviews)", "- Gino's Pizza"},
		{"CaseAndPunctuation", "- GINO'S PIZZA", "- ginos pizza"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, lineKey(tt.a), lineKey(tt.b))
		})
	}
}
