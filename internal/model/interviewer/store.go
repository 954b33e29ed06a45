package interviewer

import "strings"

// Store exposes interviewer lookup for prompt building and voice selection.
type Store interface {
	List() []Profile
	FindByID(id string) (Profile, bool)
	ForRole(targetRole string) Profile
}

// MemoryStore implements Store with an in-memory slice.
type MemoryStore struct {
	items []Profile
}

// NewMemoryStore returns a MemoryStore preloaded with the supplied profiles.
func NewMemoryStore(items []Profile) *MemoryStore {
	return &MemoryStore{items: append([]Profile(nil), items...)}
}

// List returns the interviewer roster.
func (s *MemoryStore) List() []Profile {
	return append([]Profile(nil), s.items...)
}

// FindByID looks up a profile by identifier.
func (s *MemoryStore) FindByID(id string) (Profile, bool) {
	for _, item := range s.items {
		if item.ID == id {
			return item, true
		}
	}
	return Profile{}, false
}

// ForRole picks the interviewer whose specialties best match the target role,
// falling back to the first profile in the roster.
func (s *MemoryStore) ForRole(targetRole string) Profile {
	if len(s.items) == 0 {
		return Profile{Name: "Alex"}
	}

	role := strings.ToLower(targetRole)
	for _, item := range s.items {
		for _, specialty := range item.Specialties {
			if strings.Contains(role, specialty) {
				return item
			}
		}
	}
	return s.items[0]
}
