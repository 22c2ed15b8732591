// Package cli is the interactive shell of the vault. It owns the session:
// the derived master key lives here between login and logout and is wiped
// when the session ends. Services below this package never hold the key.
package cli

import (
	"bufio"
	"context"
	"database/sql"
	"encoding/base64"
	"os"

	"github.com/pwdbox/pwdbox/internal/config"
	"github.com/pwdbox/pwdbox/internal/cryptox"
	"github.com/pwdbox/pwdbox/internal/filex"
	"github.com/pwdbox/pwdbox/internal/logging"
	"github.com/pwdbox/pwdbox/internal/services"
	"github.com/pwdbox/pwdbox/internal/storage"

	_ "modernc.org/sqlite"
)

type App struct {
	config    *config.Config
	services  *services.Services
	log       logging.Logger
	db        *sql.DB
	masterKey []byte
	reader    *bufio.Reader
}

// NewApp prepares the data directories, opens the vault database, and wires
// the services.
func NewApp(ctx context.Context, cfg *config.Config, log logging.Logger) (*App, error) {
	if _, err := filex.EnsureDir(cfg.DataDir); err != nil {
		return nil, err
	}
	if _, err := filex.EnsureDir(cfg.BackupDir); err != nil {
		return nil, err
	}

	db, err := storage.Open(ctx, cfg.DatabasePath())
	if err != nil {
		return nil, err
	}

	return &App{
		config:   cfg,
		services: services.New(db, log, cfg.BackupDir),
		log:      log,
		db:       db,
		reader:   bufio.NewReader(os.Stdin),
	}, nil
}

// Run drives the interactive loop until exit or EOF. The session key and the
// database handle are released on the way out.
func (a *App) Run(ctx context.Context) {
	defer func() {
		a.clearKey()
		_ = a.db.Close()
	}()
	a.Root(ctx)
}

func (a *App) isLoggedIn() bool {
	return a.masterKey != nil
}

// sessionKey returns the base64 form the services take on every call.
func (a *App) sessionKey() string {
	return base64.StdEncoding.EncodeToString(a.masterKey)
}

// setKey installs a new session key, wiping any previous one.
func (a *App) setKey(masterKey string) error {
	key, err := base64.StdEncoding.DecodeString(masterKey)
	if err != nil {
		return err
	}
	a.clearKey()
	a.masterKey = key
	return nil
}

func (a *App) clearKey() {
	if a.masterKey != nil {
		cryptox.Wipe(a.masterKey)
		a.masterKey = nil
	}
}
