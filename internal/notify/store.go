package notify

import "sync"

// Store is the ordered, in-memory collection of received notifications,
// most recent first. Pure data structure, no I/O.
type Store struct {
	mu      sync.RWMutex
	entries []Notification
	seen    map[int64]struct{}
}

func NewStore() *Store {
	return &Store{seen: make(map[int64]struct{})}
}

// Append inserts at the head of the sequence. The channel is at-least-once,
// so a reconnect may replay recent events; deliveries whose ID is already
// present are dropped.
func (s *Store) Append(n Notification) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.seen[n.ID]; ok {
		return false
	}

	s.seen[n.ID] = struct{}{}
	s.entries = append([]Notification{n}, s.entries...)
	return true
}

// MarkRead flips the read flag on the matching entry. No-op when absent.
func (s *Store) MarkRead(id int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.entries {
		if s.entries[i].ID == id {
			s.entries[i].IsRead = true
			return true
		}
	}
	return false
}

// Clear empties the sequence.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = nil
	s.seen = make(map[int64]struct{})
}

// All returns a copy of the sequence, most recent first.
func (s *Store) All() []Notification {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Notification, len(s.entries))
	copy(out, s.entries)
	return out
}

// Len returns the number of stored notifications.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.entries)
}

// UnreadCount returns how many stored notifications are unread.
func (s *Store) UnreadCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for i := range s.entries {
		if !s.entries[i].IsRead {
			count++
		}
	}
	return count
}
