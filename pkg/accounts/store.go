// Package accounts persists the fleet's account records. The store is the
// single writer for accounts.json; every mutation is a serialized
// read-modify-write of the full collection so concurrent identity
// resolution cannot lose updates.
package accounts

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Unknown is the sentinel reported for id and name until login resolves
// the real identity.
const Unknown = "unknown"

// Account is one persisted platform login. Credential is opaque to the
// core; only the platform adapter interprets it.
type Account struct {
	Credential string `json:"credential"`
	Platform   string `json:"platform"`
	ID         string `json:"id,omitempty"`
	Name       string `json:"name,omitempty"`
	Notified   bool   `json:"notified"`
}

// Summary is the externally visible id/name pair for one account.
type Summary struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Platform string `json:"platform"`
}

type Store struct {
	mu       sync.Mutex
	path     string
	accounts []Account
}

// NewStore loads the account collection from path, creating an empty file
// when none exists.
func NewStore(path string) (*Store, error) {
	s := &Store{path: path}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		if mkErr := os.MkdirAll(filepath.Dir(path), 0755); mkErr != nil {
			return nil, fmt.Errorf("creating data directory: %w", mkErr)
		}
		if saveErr := s.saveLocked(); saveErr != nil {
			return nil, saveErr
		}
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading accounts file: %w", err)
	}

	if err := json.Unmarshal(data, &s.accounts); err != nil {
		return nil, fmt.Errorf("parsing accounts file %s: %w", path, err)
	}
	return s, nil
}

// Add appends a new account and persists the collection.
func (s *Store) Add(acc Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.accounts = append(s.accounts, acc)
	return s.saveLocked()
}

// Update applies fn to the account matching credential and persists the
// full collection. Unknown credentials are a no-op.
func (s *Store) Update(credential string, fn func(*Account)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.accounts {
		if s.accounts[i].Credential == credential {
			fn(&s.accounts[i])
			return s.saveLocked()
		}
	}
	return nil
}

// All returns a copy of every account record.
func (s *Store) All() []Account {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Account, len(s.accounts))
	copy(out, s.accounts)
	return out
}

// List returns the id/name summaries, substituting the unknown sentinel
// for accounts whose identity has not resolved yet.
func (s *Store) List() []Summary {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Summary, 0, len(s.accounts))
	for _, acc := range s.accounts {
		summary := Summary{ID: acc.ID, Name: acc.Name, Platform: acc.Platform}
		if summary.ID == "" {
			summary.ID = Unknown
		}
		if summary.Name == "" {
			summary.Name = Unknown
		}
		out = append(out, summary)
	}
	return out
}

// Len returns the number of stored accounts.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.accounts)
}

func (s *Store) saveLocked() error {
	records := s.accounts
	if records == nil {
		records = []Account{}
	}
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling accounts: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0600); err != nil {
		return fmt.Errorf("writing accounts file: %w", err)
	}
	return nil
}
