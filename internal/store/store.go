// Package store keeps the ordered item list of the current folder and
// its identity index.
package store

import (
	"fmt"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"shellview/internal/shell"
)

// SortSpec selects the sort column and direction. Folders always come
// first regardless of direction.
type SortSpec struct {
	Column     shell.Column
	Descending bool
}

// DefaultSort orders by display name ascending.
func DefaultSort() SortSpec {
	return SortSpec{Column: shell.ColumnFor(shell.KeyName)}
}

// ValueFunc returns a cached, non-fast property value for sorting and
// grouping. It must not do I/O.
type ValueFunc func(item *shell.ItemRef, key shell.PropertyKey) (any, bool)

// Store is the ordered item sequence plus identity->ordinal index.
// Readers take the read lock; structural mutations take the write lock
// only for the mutation itself.
type Store struct {
	mu       sync.RWMutex
	items    []*shell.ItemRef
	index    map[shell.Identity]int
	sortSpec SortSpec
	grouping *Grouping
	groups   []Group
	groupOf  map[shell.Identity]int
	values   ValueFunc
	now      func() time.Time
	stamp    time.Time // date buckets of the last sort
}

// New creates an empty store with the default sort.
func New() *Store {
	return &Store{
		index:    make(map[shell.Identity]int),
		groupOf:  make(map[shell.Identity]int),
		sortSpec: DefaultSort(),
		now:      time.Now,
	}
}

// SetValueFunc installs the lookup used for columns without fast values.
func (s *Store) SetValueFunc(fn ValueFunc) {
	s.mu.Lock()
	s.values = fn
	s.mu.Unlock()
}

// Len returns the item count.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// At returns the item at row, or false when row is out of range.
func (s *Store) At(row int) (*shell.ItemRef, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if row < 0 || row >= len(s.items) {
		return nil, false
	}
	return s.items[row], true
}

// IndexOf returns the ordinal of id.
func (s *Store) IndexOf(id shell.Identity) (int, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := s.index[id]
	return i, ok
}

// Get returns the item with identity id.
func (s *Store) Get(id shell.Identity) (*shell.ItemRef, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := s.index[id]
	if !ok {
		return nil, false
	}
	return s.items[i], true
}

// Contains reports whether id is in the store.
func (s *Store) Contains(id shell.Identity) bool {
	_, ok := s.IndexOf(id)
	return ok
}

// Snapshot returns a copy of the ordered sequence.
func (s *Store) Snapshot() []*shell.ItemRef {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.items)
}

// Reset replaces the content, sorts it and rebuilds index and groups.
// Duplicate identities keep their first occurrence.
func (s *Store) Reset(items []*shell.ItemRef) {
	seen := make(map[shell.Identity]struct{}, len(items))
	uniq := make([]*shell.ItemRef, 0, len(items))
	for _, it := range items {
		if it == nil {
			continue
		}
		if _, dup := seen[it.ID]; dup {
			continue
		}
		seen[it.ID] = struct{}{}
		uniq = append(uniq, it)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = uniq
	s.sortLocked()
}

// Clear drops every item.
func (s *Store) Clear() {
	s.Reset(nil)
}

// SortSpec returns the active sort.
func (s *Store) SortSpec() SortSpec {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sortSpec
}

// SetSort changes the sort and re-sorts.
func (s *Store) SetSort(spec SortSpec) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sortSpec = spec
	s.sortLocked()
}

// Sort re-applies the active sort.
func (s *Store) Sort() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sortLocked()
}

// Insert places item at its sorted position and returns the ordinal.
// It returns false when the identity is already present.
func (s *Store) Insert(item *shell.ItemRef) (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.index[item.ID]; exists {
		return -1, false
	}
	if s.stamp.IsZero() {
		s.stamp = s.now()
	}
	pos := sort.Search(len(s.items), func(i int) bool {
		return s.compareLocked(s.items[i], item) > 0
	})
	s.items = slices.Insert(s.items, pos, item)
	for i := pos; i < len(s.items); i++ {
		s.index[s.items[i].ID] = i
	}
	s.regroupLocked()
	return pos, true
}

// InsertAt puts item at pos, then re-applies the sort. It returns the
// final ordinal, or false when the identity is already present.
func (s *Store) InsertAt(pos int, item *shell.ItemRef) (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.index[item.ID]; exists {
		return -1, false
	}
	pos = min(max(pos, 0), len(s.items))
	s.items = slices.Insert(s.items, pos, item)
	s.sortLocked()
	return s.index[item.ID], true
}

// Remove deletes id and returns the ordinal it had.
func (s *Store) Remove(id shell.Identity) (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	pos, ok := s.index[id]
	if !ok {
		return -1, false
	}
	s.items = slices.Delete(s.items, pos, pos+1)
	delete(s.index, id)
	for i := pos; i < len(s.items); i++ {
		s.index[s.items[i].ID] = i
	}
	s.regroupLocked()
	return pos, true
}

// Replace swaps the item with identity oldID for item at the same
// ordinal, then re-applies the sort. It returns the ordinal that was
// replaced and the final ordinal of the new item.
func (s *Store) Replace(oldID shell.Identity, item *shell.ItemRef) (replaced, final int, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	pos, found := s.index[oldID]
	if !found {
		return -1, -1, false
	}
	if other, clash := s.index[item.ID]; clash && other != pos {
		// the new identity already has a row; drop the old one instead
		s.items = slices.Delete(s.items, pos, pos+1)
		s.sortLocked()
		return pos, s.index[item.ID], true
	}
	s.items[pos] = item
	s.sortLocked()
	return pos, s.index[item.ID], true
}

// Verify checks the index against the sequence.
func (s *Store) Verify() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.index) != len(s.items) {
		return fmt.Errorf("index has %d entries for %d items", len(s.index), len(s.items))
	}
	for i, it := range s.items {
		if got, ok := s.index[it.ID]; !ok || got != i {
			return fmt.Errorf("index[%s] = %d, item at %d", it.ID, got, i)
		}
	}
	return nil
}

func (s *Store) sortLocked() {
	s.stamp = s.now()
	slices.SortStableFunc(s.items, s.compareLocked)
	s.rebuildIndexLocked()
	s.regroupLocked()
}

func (s *Store) rebuildIndexLocked() {
	s.index = make(map[shell.Identity]int, len(s.items))
	for i, it := range s.items {
		s.index[it.ID] = i
	}
}

func (s *Store) valueLocked(it *shell.ItemRef, key shell.PropertyKey) (any, bool) {
	if v, ok := it.FastValue(key); ok {
		return v, true
	}
	if s.values != nil {
		return s.values(it, key)
	}
	return nil, false
}

// compareLocked orders by group when grouping is active, then folders
// first, then the sort column.
func (s *Store) compareLocked(a, b *shell.ItemRef) int {
	if c := s.compareGroupsLocked(a, b); c != 0 {
		return c
	}
	if a.IsFolder() != b.IsFolder() {
		if a.IsFolder() {
			return -1
		}
		return 1
	}
	key := s.sortSpec.Column.Key
	c := 0
	if key != shell.KeyName {
		va, _ := s.valueLocked(a, key)
		vb, _ := s.valueLocked(b, key)
		c = compareValues(va, vb)
		if s.sortSpec.Descending {
			c = -c
		}
	}
	if c == 0 {
		c = compareNames(a.DisplayName, b.DisplayName)
		if key == shell.KeyName && s.sortSpec.Descending {
			c = -c
		}
	}
	if c == 0 {
		c = strings.Compare(string(a.ID), string(b.ID))
	}
	return c
}

func compareNames(a, b string) int {
	if c := strings.Compare(strings.ToLower(a), strings.ToLower(b)); c != 0 {
		return c
	}
	return strings.Compare(a, b)
}

// compareValues orders missing values first, then by natural order of
// the dynamic type.
func compareValues(a, b any) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	}
	switch va := a.(type) {
	case int64:
		if vb, ok := b.(int64); ok {
			return cmpOrdered(va, vb)
		}
	case int:
		if vb, ok := b.(int); ok {
			return cmpOrdered(va, vb)
		}
	case time.Time:
		if vb, ok := b.(time.Time); ok {
			return va.Compare(vb)
		}
	case shell.PerceivedType:
		if vb, ok := b.(shell.PerceivedType); ok {
			return strings.Compare(va.String(), vb.String())
		}
	case string:
		if vb, ok := b.(string); ok {
			return compareNames(va, vb)
		}
	}
	return compareNames(fmt.Sprint(a), fmt.Sprint(b))
}

func cmpOrdered[T int | int64](a, b T) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
