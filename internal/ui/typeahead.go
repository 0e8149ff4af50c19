package ui

import (
	"strings"
	"time"
	"unicode"
)

// typeAheadReset is the pause after which typing starts a new prefix.
const typeAheadReset = time.Second

// typeAhead finds rows by typing the start of their display name.
type typeAhead struct {
	prefix string
	last   time.Time
	now    func() time.Time
}

func newTypeAhead() *typeAhead {
	return &typeAhead{now: time.Now}
}

// reset forgets the typed prefix.
func (t *typeAhead) reset() { t.prefix = "" }

// next adds r to the prefix and returns the row to move to, or -1.
// Typing the same letter repeatedly cycles through names starting with
// it. name returns the display name of a row, count is the row count
// and from is the current cursor row.
func (t *typeAhead) next(r rune, from, count int, name func(row int) string) int {
	if !unicode.IsPrint(r) || count == 0 {
		return -1
	}
	now := t.now()
	if now.Sub(t.last) > typeAheadReset {
		t.prefix = ""
	}
	t.last = now

	lower := strings.ToLower(string(r))
	start := from
	switch {
	case t.prefix == lower || (t.prefix != "" && strings.Trim(t.prefix, lower) == ""):
		// repeated letter: cycle, starting after the cursor
		t.prefix = lower
		start = from + 1
	default:
		t.prefix += lower
	}
	if start < 0 {
		start = 0
	}
	for i := 0; i < count; i++ {
		row := (start + i) % count
		if strings.HasPrefix(strings.ToLower(name(row)), t.prefix) {
			return row
		}
	}
	return -1
}
