package services

import (
	"context"
	"testing"

	"github.com/pwdbox/pwdbox/internal/common"
	"github.com/pwdbox/pwdbox/internal/logging"
	"github.com/pwdbox/pwdbox/internal/storage"
	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"
)

// newTestServices wires the full service set over a migrated in-memory
// database and a temporary backup directory.
func newTestServices(t *testing.T) *Services {
	t.Helper()

	db, err := storage.Open(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	return New(db, logging.NopLogger{}, t.TempDir())
}

func sampleSetup() SetupRequest {
	return SetupRequest{
		MasterPassword: "Tr0ub4dor&3",
		Question1:      "First pet?", Answer1: "rex",
		Question2: "Birth city?", Answer2: "riga",
		Question3: "Favorite book?", Answer3: "dune",
	}
}

// setupVault initializes the vault and returns the base64 master key.
func setupVault(t *testing.T, s *Services) string {
	t.Helper()

	resp, err := s.Auth.Setup(context.Background(), sampleSetup())
	require.NoError(t, err)
	require.True(t, resp.Success)
	require.NotEmpty(t, resp.MasterKey)
	return resp.MasterKey
}

// randomKey produces a valid-length key that was never derived from the
// vault's master password.
func randomKey() string {
	return encodeMasterKey(common.GenerateRandByteArray(32))
}

func addEntry(t *testing.T, s *Services, key, software, account, password string) int64 {
	t.Helper()

	resp, err := s.Vault.Add(context.Background(), AddEntryRequest{
		Software:  software,
		Account:   account,
		Password:  password,
		MasterKey: key,
	})
	require.NoError(t, err)
	require.True(t, resp.Success)
	return resp.Entry.ID
}

func TestDecodeMasterKey(t *testing.T) {
	key, err := decodeMasterKey(randomKey())
	require.NoError(t, err)
	require.Len(t, key, 32)

	_, err = decodeMasterKey("not-base64!!!")
	require.ErrorIs(t, err, common.ErrorValidation)

	_, err = decodeMasterKey(encodeMasterKey([]byte("short")))
	require.ErrorIs(t, err, common.ErrorValidation)
}
