package store

import (
	"fmt"
	"slices"
	"strings"
	"time"
	"unicode"

	"shellview/internal/shell"
)

// Grouping selects the column items are bucketed by.
type Grouping struct {
	Column   shell.Column
	Reversed bool
}

// Group is one bucket. Members keep store order.
type Group struct {
	Index   int
	Title   string
	Header  string
	Members []shell.Identity
}

// SetGrouping enables grouping. Rows are re-sorted so each group's
// members are contiguous, in group order.
func (s *Store) SetGrouping(g Grouping) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.grouping = &g
	s.sortLocked()
}

// ClearGrouping disables grouping and restores the plain sort.
func (s *Store) ClearGrouping() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.grouping = nil
	s.sortLocked()
}

// Grouping returns the active grouping.
func (s *Store) Grouping() (Grouping, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.grouping == nil {
		return Grouping{}, false
	}
	return *s.grouping, true
}

// Groups returns a copy of the current groups.
func (s *Store) Groups() []Group {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Group, len(s.groups))
	for i, g := range s.groups {
		g.Members = slices.Clone(g.Members)
		out[i] = g
	}
	return out
}

// GroupOf returns the group index of the item at row, or -1.
func (s *Store) GroupOf(row int) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if row < 0 || row >= len(s.items) {
		return -1
	}
	g, ok := s.groupOf[s.items[row].ID]
	if !ok {
		return -1
	}
	return g
}

// regroupLocked rebuilds every group from scratch.
func (s *Store) regroupLocked() {
	s.groups = nil
	s.groupOf = make(map[shell.Identity]int)
	if s.grouping == nil {
		return
	}

	titles := bucketTitles(s.grouping.Column.Type)
	members := make(map[string][]shell.Identity)
	var order []string
	for _, it := range s.items {
		title := s.bucketLocked(it)
		if _, seen := members[title]; !seen && titles == nil {
			order = append(order, title)
		}
		members[title] = append(members[title], it.ID)
	}
	if titles == nil {
		slices.Sort(order)
		titles = order
	}
	if s.grouping.Reversed {
		titles = slices.Clone(titles)
		slices.Reverse(titles)
	}

	for _, title := range titles {
		ids := members[title]
		if len(ids) == 0 {
			continue
		}
		idx := len(s.groups)
		s.groups = append(s.groups, Group{
			Index:   idx,
			Title:   title,
			Header:  fmt.Sprintf("%s (%d)", title, len(ids)),
			Members: ids,
		})
		for _, id := range ids {
			s.groupOf[id] = idx
		}
	}
}

func (s *Store) bucketLocked(it *shell.ItemRef) string {
	v, _ := s.valueLocked(it, s.grouping.Column.Key)
	return bucketFor(s.grouping.Column, it, v, s.stamp)
}

// compareGroupsLocked orders a and b by the rank of their buckets, or
// returns 0 without grouping.
func (s *Store) compareGroupsLocked(a, b *shell.ItemRef) int {
	if s.grouping == nil {
		return 0
	}
	ta, tb := s.bucketLocked(a), s.bucketLocked(b)
	if ta == tb {
		return 0
	}
	var c int
	if titles := bucketTitles(s.grouping.Column.Type); titles != nil {
		c = cmpOrdered(slices.Index(titles, ta), slices.Index(titles, tb))
	} else {
		c = strings.Compare(ta, tb)
	}
	if s.grouping.Reversed {
		c = -c
	}
	return c
}

var (
	stringBuckets = []string{"0 - 9", "A - H", "I - P", "Q - Z", "Other"}
	sizeBuckets   = []string{"Unspecified", "Empty", "Very Small", "Small", "Medium", "Big", "Huge", "Gigantic"}
	dateBuckets   = []string{"Today", "Yesterday", "Earlier this week", "Earlier this month", "Earlier this year", "A long time ago", "Unspecified"}
)

// bucketTitles returns the fixed bucket order, or nil when buckets come
// from the values themselves.
func bucketTitles(t shell.ColumnType) []string {
	switch t {
	case shell.ColumnString:
		return stringBuckets
	case shell.ColumnSize:
		return sizeBuckets
	case shell.ColumnDateTime:
		return dateBuckets
	default:
		return nil
	}
}

func bucketFor(col shell.Column, it *shell.ItemRef, v any, now time.Time) string {
	switch col.Type {
	case shell.ColumnSize:
		if it.IsFolder() {
			return "Unspecified"
		}
		size, ok := v.(int64)
		if !ok {
			size = it.Size
		}
		return sizeBucket(size)
	case shell.ColumnDateTime:
		t, ok := v.(time.Time)
		if !ok || t.IsZero() {
			return "Unspecified"
		}
		return dateBucket(t, now)
	case shell.ColumnEnum:
		if v == nil {
			return "Unspecified"
		}
		return fmt.Sprint(v)
	default:
		s := it.DisplayName
		if col.Key != shell.KeyName && v != nil {
			s = fmt.Sprint(v)
		}
		return initialBucket(s)
	}
}

func sizeBucket(size int64) string {
	const kb = 1024
	switch {
	case size <= 0:
		return "Empty"
	case size <= 10*kb:
		return "Very Small"
	case size <= 100*kb:
		return "Small"
	case size <= kb*kb:
		return "Medium"
	case size <= 16*kb*kb:
		return "Big"
	case size <= 128*kb*kb:
		return "Huge"
	default:
		return "Gigantic"
	}
}

func initialBucket(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "Other"
	}
	r := unicode.ToUpper([]rune(s)[0])
	switch {
	case r >= '0' && r <= '9':
		return "0 - 9"
	case r >= 'A' && r <= 'H':
		return "A - H"
	case r >= 'I' && r <= 'P':
		return "I - P"
	case r >= 'Q' && r <= 'Z':
		return "Q - Z"
	default:
		return "Other"
	}
}

func dateBucket(t, now time.Time) string {
	t = t.In(now.Location())
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	weekday := (int(today.Weekday()) + 6) % 7 // Monday = 0
	weekStart := today.AddDate(0, 0, -weekday)
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	yearStart := time.Date(now.Year(), 1, 1, 0, 0, 0, 0, now.Location())

	switch {
	case !t.Before(today):
		return "Today"
	case !t.Before(today.AddDate(0, 0, -1)):
		return "Yesterday"
	case !t.Before(weekStart):
		return "Earlier this week"
	case !t.Before(monthStart):
		return "Earlier this month"
	case !t.Before(yearStart):
		return "Earlier this year"
	default:
		return "A long time ago"
	}
}
