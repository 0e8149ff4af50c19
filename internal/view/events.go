package view

import (
	"shellview/internal/shell"
)

// EventType tags session events.
type EventType int

const (
	EventItemUpdated EventType = iota
	EventItemDisplayed
	EventNavigated
)

func (t EventType) String() string {
	switch t {
	case EventItemUpdated:
		return "item-updated"
	case EventItemDisplayed:
		return "item-displayed"
	case EventNavigated:
		return "navigated"
	default:
		return "unknown"
	}
}

// UpdateType says how the store changed for an ItemUpdated event.
type UpdateType int

const (
	Created UpdateType = iota
	Deleted
	Renamed
	Updated
)

func (t UpdateType) String() string {
	switch t {
	case Created:
		return "created"
	case Deleted:
		return "deleted"
	case Renamed:
		return "renamed"
	case Updated:
		return "updated"
	default:
		return "unknown"
	}
}

// ItemUpdate describes one structural change. Index is -1 for Deleted.
type ItemUpdate struct {
	Type     UpdateType
	Item     *shell.ItemRef
	Previous *shell.ItemRef
	Index    int
}

// Event is delivered to subscribers. Update is set for ItemUpdated,
// Item and Index for ItemDisplayed, Folder for Navigated.
type Event struct {
	Type   EventType
	Update ItemUpdate
	Item   *shell.ItemRef
	Index  int
	Folder *shell.ItemRef
}

type subscriber struct {
	id int
	fn func(Event)
}

// Subscribe registers fn for every session event and returns a function
// removing it. Callbacks run on the goroutine that caused the event and
// must not block.
func (s *Session) Subscribe(fn func(Event)) (unsubscribe func()) {
	s.subMu.Lock()
	s.nextSub++
	id := s.nextSub
	s.subscribers = append(s.subscribers, subscriber{id: id, fn: fn})
	s.subMu.Unlock()
	return func() {
		s.subMu.Lock()
		defer s.subMu.Unlock()
		for i, sub := range s.subscribers {
			if sub.id == id {
				s.subscribers = append(s.subscribers[:i:i], s.subscribers[i+1:]...)
				return
			}
		}
	}
}

func (s *Session) fire(ev Event) {
	// copy so callbacks may subscribe or unsubscribe
	s.subMu.Lock()
	subs := append([]subscriber(nil), s.subscribers...)
	s.subMu.Unlock()
	for _, sub := range subs {
		sub.fn(ev)
	}
}

func (s *Session) fireUpdate(u ItemUpdate) {
	s.fire(Event{Type: EventItemUpdated, Update: u, Item: u.Item, Index: u.Index})
}
