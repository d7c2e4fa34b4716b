// Package mock provides an in-memory test double for the archive.Store
// interface.
package mock

import (
	"context"
	"sync"
	"time"

	"github.com/MrWong99/minutescribe/internal/archive"
)

// Store is an in-memory implementation of archive.Store. The zero value
// is ready to use. Set Err to make every method fail.
type Store struct {
	mu sync.Mutex

	// Err, if non-nil, is returned from every method.
	Err error

	meetings []archive.Meeting
	nextID   int64
}

var _ archive.Store = (*Store)(nil)

// SaveMeeting implements archive.Store.
func (s *Store) SaveMeeting(_ context.Context, m archive.Meeting) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return 0, s.Err
	}
	s.nextID++
	m.ID = s.nextID
	m.CreatedAt = time.Now()
	s.meetings = append(s.meetings, m)
	return m.ID, nil
}

// Meeting implements archive.Store.
func (s *Store) Meeting(_ context.Context, id int64) (archive.Meeting, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return archive.Meeting{}, s.Err
	}
	for _, m := range s.meetings {
		if m.ID == id {
			return m, nil
		}
	}
	return archive.Meeting{}, archive.ErrNotFound
}

// Latest implements archive.Store.
func (s *Store) Latest(_ context.Context) (archive.Meeting, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return archive.Meeting{}, s.Err
	}
	if len(s.meetings) == 0 {
		return archive.Meeting{}, archive.ErrNotFound
	}
	return s.meetings[len(s.meetings)-1], nil
}

// ListMeetings implements archive.Store.
func (s *Store) ListMeetings(_ context.Context, limit int) ([]archive.Meeting, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	if limit <= 0 || limit > len(s.meetings) {
		limit = len(s.meetings)
	}
	out := make([]archive.Meeting, 0, limit)
	for i := len(s.meetings) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, s.meetings[i])
	}
	return out, nil
}

// Count returns the number of stored meetings.
func (s *Store) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.meetings)
}
