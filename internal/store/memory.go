package store

import (
	"context"
	"sync"

	"github.com/ZaidMomin2003/talxify/backend/internal/model/interview"
)

// MemoryStore is the in-process Store used when no document store is
// configured and in tests.
type MemoryStore struct {
	mu         sync.RWMutex
	profiles   map[string]map[string]any
	interviews map[string]interview.Record
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		profiles:   make(map[string]map[string]any),
		interviews: make(map[string]interview.Record),
	}
}

// GetProfile returns a copy of the user's profile document.
func (s *MemoryStore) GetProfile(_ context.Context, userID string) (map[string]any, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	profile, ok := s.profiles[userID]
	if !ok {
		return nil, ErrNotFound
	}

	copied := make(map[string]any, len(profile))
	for k, v := range profile {
		copied[k] = v
	}
	return copied, nil
}

// MergeProfile overwrites the given top-level fields, creating the document
// if needed. Unlisted fields are untouched.
func (s *MemoryStore) MergeProfile(_ context.Context, userID string, fields map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	profile, ok := s.profiles[userID]
	if !ok {
		profile = make(map[string]any)
		s.profiles[userID] = profile
	}
	for k, v := range fields {
		profile[k] = v
	}
	return nil
}

// AddBookmark appends one entry to the profile's bookmarks array.
func (s *MemoryStore) AddBookmark(_ context.Context, userID string, bookmark map[string]any) error {
	return s.appendToArray(userID, "bookmarks", bookmark)
}

// RemoveBookmark removes the bookmark whose "id" field matches.
func (s *MemoryStore) RemoveBookmark(_ context.Context, userID, bookmarkID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	profile, ok := s.profiles[userID]
	if !ok {
		return ErrNotFound
	}

	existing, _ := profile["bookmarks"].([]any)
	filtered := make([]any, 0, len(existing))
	removed := false
	for _, item := range existing {
		if entry, ok := item.(map[string]any); ok {
			if id, _ := entry["id"].(string); id == bookmarkID {
				removed = true
				continue
			}
		}
		filtered = append(filtered, item)
	}
	if !removed {
		return ErrNotFound
	}
	profile["bookmarks"] = filtered
	return nil
}

// AppendActivity appends one entry to the profile's activity array.
func (s *MemoryStore) AppendActivity(_ context.Context, userID string, entry map[string]any) error {
	return s.appendToArray(userID, "activity", entry)
}

func (s *MemoryStore) appendToArray(userID, field string, value map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	profile, ok := s.profiles[userID]
	if !ok {
		profile = make(map[string]any)
		s.profiles[userID] = profile
	}

	existing, _ := profile[field].([]any)
	profile[field] = append(existing, value)
	return nil
}

// SaveInterview stores an interview record wholesale.
func (s *MemoryStore) SaveInterview(_ context.Context, record *interview.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.interviews[record.SessionID] = *record
	return nil
}

// GetInterview returns a stored interview record.
func (s *MemoryStore) GetInterview(_ context.Context, sessionID string) (*interview.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.interviews[sessionID]
	if !ok {
		return nil, ErrNotFound
	}
	return &record, nil
}

// Ping always succeeds for the in-memory store.
func (s *MemoryStore) Ping(_ context.Context) error { return nil }

// Close is a no-op for the in-memory store.
func (s *MemoryStore) Close(_ context.Context) error { return nil }
