package services

import (
	"context"
	"testing"

	"github.com/pwdbox/pwdbox/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetup_ThenLogin_SameKey(t *testing.T) {
	s := newTestServices(t)
	ctx := context.Background()

	ok, err := s.Auth.IsInitialized(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	setupKey := setupVault(t, s)

	ok, err = s.Auth.IsInitialized(ctx)
	require.NoError(t, err)
	assert.True(t, ok)

	login, err := s.Auth.Login(ctx, LoginRequest{MasterPassword: "Tr0ub4dor&3"})
	require.NoError(t, err)
	require.True(t, login.Success)
	assert.Equal(t, setupKey, login.MasterKey)
}

func TestSetup_Twice(t *testing.T) {
	s := newTestServices(t)

	setupVault(t, s)

	resp, err := s.Auth.Setup(context.Background(), sampleSetup())
	require.NoError(t, err)
	assert.False(t, resp.Success)
	assert.Empty(t, resp.MasterKey)
}

func TestSetup_Validation(t *testing.T) {
	s := newTestServices(t)

	req := sampleSetup()
	req.Answer2 = ""
	_, err := s.Auth.Setup(context.Background(), req)
	assert.ErrorIs(t, err, common.ErrorValidation)

	req = sampleSetup()
	req.MasterPassword = ""
	_, err = s.Auth.Setup(context.Background(), req)
	assert.ErrorIs(t, err, common.ErrorValidation)
}

func TestLogin_WrongPassword(t *testing.T) {
	s := newTestServices(t)
	setupVault(t, s)

	resp, err := s.Auth.Login(context.Background(), LoginRequest{MasterPassword: "wrong"})
	require.NoError(t, err)
	assert.False(t, resp.Success)
	assert.Empty(t, resp.MasterKey)
}

func TestLogin_NotInitialized(t *testing.T) {
	s := newTestServices(t)

	_, err := s.Auth.Login(context.Background(), LoginRequest{MasterPassword: "x"})
	assert.ErrorIs(t, err, common.ErrorNotInitialized)
}

func TestSecurityQuestions(t *testing.T) {
	s := newTestServices(t)
	setupVault(t, s)

	questions, err := s.Auth.SecurityQuestions(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"First pet?", "Birth city?", "Favorite book?"}, questions)
}

func TestVerifyRecoveryAnswers(t *testing.T) {
	s := newTestServices(t)
	setupVault(t, s)
	ctx := context.Background()

	ok, err := s.Auth.VerifyRecoveryAnswers(ctx, RecoveryRequest{
		Answer1: "rex", Answer2: "riga", Answer3: "dune",
	})
	require.NoError(t, err)
	assert.True(t, ok)

	// one wrong answer fails the whole check
	ok, err = s.Auth.VerifyRecoveryAnswers(ctx, RecoveryRequest{
		Answer1: "rex", Answer2: "wrong", Answer3: "dune",
	})
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestResetMasterPassword_WithReEncrypt(t *testing.T) {
	s := newTestServices(t)
	ctx := context.Background()

	oldKey := setupVault(t, s)
	id := addEntry(t, s, oldKey, "GitHub", "alice", "hunter2")

	reset, err := s.Auth.ResetMasterPassword(ctx, ResetPasswordRequest{
		NewMasterPassword: "correct horse battery staple",
		Answer1:           "rex", Answer2: "riga", Answer3: "dune",
	})
	require.NoError(t, err)
	require.True(t, reset.Success)
	newKey := reset.MasterKey
	require.NotEqual(t, oldKey, newKey)

	// The stored ciphertext is still under the old key until re-encryption.
	got, err := s.Vault.Get(ctx, id, newKey)
	require.NoError(t, err)
	assert.False(t, got.Success)

	re, err := s.Vault.ReEncryptAll(ctx, oldKey, newKey)
	require.NoError(t, err)
	require.True(t, re.Success)
	assert.Equal(t, 1, re.UpdatedCount)

	got, err = s.Vault.Get(ctx, id, newKey)
	require.NoError(t, err)
	require.True(t, got.Success)
	assert.Equal(t, "hunter2", got.Entry.Password)

	login, err := s.Auth.Login(ctx, LoginRequest{MasterPassword: "correct horse battery staple"})
	require.NoError(t, err)
	require.True(t, login.Success)
	assert.Equal(t, newKey, login.MasterKey)
}

func TestResetMasterPassword_WrongAnswers(t *testing.T) {
	s := newTestServices(t)
	setupVault(t, s)

	resp, err := s.Auth.ResetMasterPassword(context.Background(), ResetPasswordRequest{
		NewMasterPassword: "new",
		Answer1:           "x", Answer2: "y", Answer3: "z",
	})
	require.NoError(t, err)
	assert.False(t, resp.Success)
	assert.Empty(t, resp.MasterKey)
}

func TestChangeMasterPassword(t *testing.T) {
	s := newTestServices(t)
	ctx := context.Background()

	oldKey := setupVault(t, s)

	wrong, err := s.Auth.ChangeMasterPassword(ctx, "nope", "next")
	require.NoError(t, err)
	assert.False(t, wrong.Success)

	changed, err := s.Auth.ChangeMasterPassword(ctx, "Tr0ub4dor&3", "next")
	require.NoError(t, err)
	require.True(t, changed.Success)
	assert.NotEqual(t, oldKey, changed.MasterKey)

	// old password no longer works
	old, err := s.Auth.Login(ctx, LoginRequest{MasterPassword: "Tr0ub4dor&3"})
	require.NoError(t, err)
	assert.False(t, old.Success)
}
