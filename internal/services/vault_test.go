package services

import (
	"context"
	"testing"

	"github.com/pwdbox/pwdbox/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVault_AddGet(t *testing.T) {
	s := newTestServices(t)
	ctx := context.Background()

	key := setupVault(t, s)
	id := addEntry(t, s, key, "GitHub", "alice", "hunter2")

	got, err := s.Vault.Get(ctx, id, key)
	require.NoError(t, err)
	require.True(t, got.Success)
	assert.Equal(t, "GitHub", got.Entry.Software)
	assert.Equal(t, "alice", got.Entry.Account)
	assert.Equal(t, "hunter2", got.Entry.Password)
}

func TestVault_Get_WrongKey(t *testing.T) {
	s := newTestServices(t)
	ctx := context.Background()

	key := setupVault(t, s)
	id := addEntry(t, s, key, "GitHub", "alice", "hunter2")

	got, err := s.Vault.Get(ctx, id, randomKey())
	require.NoError(t, err)
	assert.False(t, got.Success)
	assert.Equal(t, "Decryption failed", got.Message)
	assert.Nil(t, got.Entry)
}

func TestVault_Get_NotFound(t *testing.T) {
	s := newTestServices(t)
	key := setupVault(t, s)

	got, err := s.Vault.Get(context.Background(), 42, key)
	require.NoError(t, err)
	assert.False(t, got.Success)
	assert.Equal(t, "Password entry not found", got.Message)
}

func TestVault_Add_Validation(t *testing.T) {
	s := newTestServices(t)
	key := setupVault(t, s)

	_, err := s.Vault.Add(context.Background(), AddEntryRequest{
		Software: "", Account: "alice", Password: "p", MasterKey: key,
	})
	assert.ErrorIs(t, err, common.ErrorValidation)
}

func TestVault_List_NeverCarriesPasswords(t *testing.T) {
	s := newTestServices(t)
	ctx := context.Background()

	key := setupVault(t, s)
	addEntry(t, s, key, "GitHub", "alice", "p1")
	addEntry(t, s, key, "GitLab", "bob", "p2")

	list, err := s.Vault.List(ctx)
	require.NoError(t, err)
	require.True(t, list.Success)
	require.Len(t, list.Entries, 2)
	for _, e := range list.Entries {
		assert.Empty(t, e.Password)
	}
	assert.Equal(t, "GitHub", list.Entries[0].Software)
	assert.Equal(t, "GitLab", list.Entries[1].Software)
}

func TestVault_Update_FreshCiphertext(t *testing.T) {
	s := newTestServices(t)
	ctx := context.Background()

	key := setupVault(t, s)
	id := addEntry(t, s, key, "GitHub", "alice", "old-pass")

	before, err := s.Vault.Get(ctx, id, key)
	require.NoError(t, err)

	upd, err := s.Vault.Update(ctx, UpdateEntryRequest{
		ID: id, Software: "GitHub", Account: "alice",
		Password: "new-pass", Notes: "rotated", MasterKey: key,
	})
	require.NoError(t, err)
	require.True(t, upd.Success)

	after, err := s.Vault.Get(ctx, id, key)
	require.NoError(t, err)
	require.True(t, after.Success)
	assert.Equal(t, "new-pass", after.Entry.Password)
	assert.Equal(t, "rotated", after.Entry.Notes)
	assert.NotEqual(t, before.Entry.Password, after.Entry.Password)
}

func TestVault_Update_NotFound(t *testing.T) {
	s := newTestServices(t)
	key := setupVault(t, s)

	resp, err := s.Vault.Update(context.Background(), UpdateEntryRequest{
		ID: 99, Software: "X", Account: "y", Password: "z", MasterKey: key,
	})
	require.NoError(t, err)
	assert.False(t, resp.Success)
}

func TestVault_Delete(t *testing.T) {
	s := newTestServices(t)
	ctx := context.Background()

	key := setupVault(t, s)
	id := addEntry(t, s, key, "GitHub", "alice", "p")

	resp, err := s.Vault.Delete(ctx, id)
	require.NoError(t, err)
	assert.True(t, resp.Success)

	// deleting again reports not found, not success
	resp, err = s.Vault.Delete(ctx, id)
	require.NoError(t, err)
	assert.False(t, resp.Success)
}

func TestVault_Search(t *testing.T) {
	s := newTestServices(t)
	ctx := context.Background()

	key := setupVault(t, s)
	addEntry(t, s, key, "GitHub", "alice", "p1")
	addEntry(t, s, key, "GitLab", "bob", "p2")
	addEntry(t, s, key, "AWS", "carol", "p3")

	found, err := s.Vault.Search(ctx, "git")
	require.NoError(t, err)
	require.True(t, found.Success)
	assert.Len(t, found.Entries, 2)

	found, err = s.Vault.Search(ctx, "carol")
	require.NoError(t, err)
	assert.Len(t, found.Entries, 1)

	found, err = s.Vault.Search(ctx, "nothing")
	require.NoError(t, err)
	assert.Empty(t, found.Entries)
}

func TestVault_ReEncryptAll(t *testing.T) {
	s := newTestServices(t)
	ctx := context.Background()

	oldKey := setupVault(t, s)
	id1 := addEntry(t, s, oldKey, "GitHub", "alice", "p1")
	id2 := addEntry(t, s, oldKey, "GitLab", "bob", "p2")

	newKey := randomKey()
	resp, err := s.Vault.ReEncryptAll(ctx, oldKey, newKey)
	require.NoError(t, err)
	require.True(t, resp.Success)
	assert.Equal(t, 2, resp.UpdatedCount)

	for id, want := range map[int64]string{id1: "p1", id2: "p2"} {
		got, err := s.Vault.Get(ctx, id, newKey)
		require.NoError(t, err)
		require.True(t, got.Success)
		assert.Equal(t, want, got.Entry.Password)
	}

	// entries are no longer readable under the old key
	got, err := s.Vault.Get(ctx, id1, oldKey)
	require.NoError(t, err)
	assert.False(t, got.Success)
}

func TestVault_ReEncryptAll_WrongOldKey(t *testing.T) {
	s := newTestServices(t)
	ctx := context.Background()

	key := setupVault(t, s)
	id := addEntry(t, s, key, "GitHub", "alice", "p1")

	resp, err := s.Vault.ReEncryptAll(ctx, randomKey(), randomKey())
	require.NoError(t, err)
	assert.False(t, resp.Success)
	assert.Equal(t, 0, resp.UpdatedCount)

	// the vault is untouched and still readable under the real key
	got, err := s.Vault.Get(ctx, id, key)
	require.NoError(t, err)
	require.True(t, got.Success)
	assert.Equal(t, "p1", got.Entry.Password)
}

func TestVault_ValidateMasterKey(t *testing.T) {
	s := newTestServices(t)
	ctx := context.Background()

	key := setupVault(t, s)

	// empty vault cannot falsify any key
	ok, err := s.Vault.ValidateMasterKey(ctx, randomKey())
	require.NoError(t, err)
	assert.True(t, ok)

	addEntry(t, s, key, "GitHub", "alice", "p")

	ok, err = s.Vault.ValidateMasterKey(ctx, key)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.Vault.ValidateMasterKey(ctx, randomKey())
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestVault_Count(t *testing.T) {
	s := newTestServices(t)
	ctx := context.Background()

	key := setupVault(t, s)

	n, err := s.Vault.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	addEntry(t, s, key, "GitHub", "alice", "p")
	addEntry(t, s, key, "GitLab", "bob", "p")

	n, err = s.Vault.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}
