// Package services contains the application services of the vault:
// authentication and recovery (AuthService), credential CRUD under a
// caller-supplied master key (VaultService), and encrypted backup
// export/import (BackupService).
//
// All services share one database handle and one mutual-exclusion guard, so
// at most one logical operation touches the persistent store at a time.
// Password hashing and key derivation are deliberately slow, memory-hard
// operations and run synchronously inside that guard; concurrent callers
// serialize behind them. None of the services ever stores a master key: the
// key is a parameter on every call and its lifetime belongs to the caller.
package services

import (
	"database/sql"
	"encoding/base64"
	"fmt"
	"sync"

	"github.com/pwdbox/pwdbox/internal/common"
	"github.com/pwdbox/pwdbox/internal/cryptox"
	"github.com/pwdbox/pwdbox/internal/logging"
)

// Services bundles the three application services wired over one database
// and one lock.
type Services struct {
	Auth   AuthService
	Vault  VaultService
	Backup BackupService
}

// New constructs the service set. backupDir is where CreateBackup places
// default-named backup files.
func New(db *sql.DB, log logging.Logger, backupDir string) *Services {
	mu := &sync.Mutex{}
	return &Services{
		Auth:   NewAuthService(db, mu, log),
		Vault:  NewVaultService(db, mu, log),
		Backup: NewBackupService(db, mu, log, backupDir),
	}
}

// decodeMasterKey decodes a base64 master key from the external boundary and
// validates its length before any cryptographic work is attempted.
func decodeMasterKey(masterKey string) ([]byte, error) {
	key, err := base64.StdEncoding.DecodeString(masterKey)
	if err != nil {
		return nil, fmt.Errorf("%w: malformed master key", common.ErrorValidation)
	}
	if len(key) != cryptox.KeySize {
		return nil, fmt.Errorf("%w: invalid master key length", common.ErrorValidation)
	}
	return key, nil
}

// encodeMasterKey converts a derived key to the base64 form that crosses the
// external boundary.
func encodeMasterKey(key []byte) string {
	return base64.StdEncoding.EncodeToString(key)
}
