package accounts

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "accounts.json")
	store, err := NewStore(path)
	require.NoError(t, err)
	return store, path
}

func TestNewStore_CreatesEmptyFile(t *testing.T) {
	_, path := newTestStore(t)

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var records []Account
	require.NoError(t, json.Unmarshal(data, &records))
	assert.Empty(t, records)
}

func TestStore_AddAndReload(t *testing.T) {
	store, path := newTestStore(t)

	require.NoError(t, store.Add(Account{Credential: "tok-1", Platform: "telegram"}))
	require.NoError(t, store.Add(Account{Credential: "tok-2", Platform: "discord"}))

	reloaded, err := NewStore(path)
	require.NoError(t, err)
	all := reloaded.All()
	require.Len(t, all, 2)
	assert.Equal(t, "tok-1", all[0].Credential)
	assert.Equal(t, "discord", all[1].Platform)
}

func TestStore_UpdatePersists(t *testing.T) {
	store, path := newTestStore(t)
	require.NoError(t, store.Add(Account{Credential: "tok-1", Platform: "telegram"}))

	require.NoError(t, store.Update("tok-1", func(a *Account) {
		a.ID = "42"
		a.Name = "Fleet Bot"
		a.Notified = true
	}))

	reloaded, err := NewStore(path)
	require.NoError(t, err)
	all := reloaded.All()
	require.Len(t, all, 1)
	assert.Equal(t, "42", all[0].ID)
	assert.Equal(t, "Fleet Bot", all[0].Name)
	assert.True(t, all[0].Notified)
}

func TestStore_UpdateUnknownCredentialIsNoop(t *testing.T) {
	store, _ := newTestStore(t)
	require.NoError(t, store.Add(Account{Credential: "tok-1"}))

	require.NoError(t, store.Update("missing", func(a *Account) { a.ID = "nope" }))
	assert.Empty(t, store.All()[0].ID)
}

func TestStore_ListUsesUnknownSentinels(t *testing.T) {
	store, _ := newTestStore(t)
	require.NoError(t, store.Add(Account{Credential: "tok-1", Platform: "telegram"}))
	require.NoError(t, store.Add(Account{Credential: "tok-2", Platform: "slack", ID: "7", Name: "Resolved"}))

	list := store.List()
	require.Len(t, list, 2)
	assert.Equal(t, Summary{ID: Unknown, Name: Unknown, Platform: "telegram"}, list[0])
	assert.Equal(t, Summary{ID: "7", Name: "Resolved", Platform: "slack"}, list[1])
}

func TestStore_ConcurrentUpdatesLoseNothing(t *testing.T) {
	store, path := newTestStore(t)
	require.NoError(t, store.Add(Account{Credential: "tok-1"}))
	require.NoError(t, store.Add(Account{Credential: "tok-2"}))

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		store.Update("tok-1", func(a *Account) { a.ID = "id-1" })
	}()
	go func() {
		defer wg.Done()
		store.Update("tok-2", func(a *Account) { a.ID = "id-2" })
	}()
	wg.Wait()

	reloaded, err := NewStore(path)
	require.NoError(t, err)
	all := reloaded.All()
	require.Len(t, all, 2)
	assert.Equal(t, "id-1", all[0].ID)
	assert.Equal(t, "id-2", all[1].ID)
}

func TestIdentityStore_CountsKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "identities.json")
	store := NewIdentityStore(path)

	assert.Zero(t, store.Count(), "a missing file counts as zero")

	require.NoError(t, store.Record("1", "Alpha"))
	require.NoError(t, store.Record("2", "Beta"))
	require.NoError(t, store.Record("1", "Alpha Renamed"))

	assert.Equal(t, 2, store.Count(), "re-recording an id must not inflate the count")
}

func TestIdentityStore_CorruptFileCountsZero(t *testing.T) {
	path := filepath.Join(t.TempDir(), "identities.json")
	require.NoError(t, os.WriteFile(path, []byte("not json"), 0600))

	assert.Zero(t, NewIdentityStore(path).Count())
}
