package accounts

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
)

// IdentityStore tracks resolved platform identities in a separate JSON
// file keyed by user id. The reported bot count is the number of keys in
// that file, matching how operators have always read it.
type IdentityStore struct {
	mu   sync.Mutex
	path string
}

func NewIdentityStore(path string) *IdentityStore {
	return &IdentityStore{path: path}
}

// Record stores (or refreshes) a resolved identity.
func (s *IdentityStore) Record(id, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	identities := s.loadLocked()
	identities[id] = name

	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(identities, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.path, data, 0600)
}

// Count returns the number of recorded identities. Any read or parse
// failure counts as zero.
func (s *IdentityStore) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.loadLocked())
}

func (s *IdentityStore) loadLocked() map[string]string {
	identities := make(map[string]string)
	data, err := os.ReadFile(s.path)
	if err != nil {
		return identities
	}
	if err := json.Unmarshal(data, &identities); err != nil {
		return make(map[string]string)
	}
	return identities
}
