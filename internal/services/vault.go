package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"

	"github.com/pwdbox/pwdbox/internal/common"
	"github.com/pwdbox/pwdbox/internal/cryptox"
	"github.com/pwdbox/pwdbox/internal/logging"
	"github.com/pwdbox/pwdbox/internal/models"
	"github.com/pwdbox/pwdbox/internal/repositories/entries"
)

// AddEntryRequest creates a credential entry. MasterKey is the base64
// session key; the plaintext password never touches storage.
type AddEntryRequest struct {
	Software  string `json:"software"`
	Account   string `json:"account"`
	Password  string `json:"password"`
	Notes     string `json:"notes,omitempty"`
	MasterKey string `json:"master_key"`
}

// UpdateEntryRequest replaces all mutable fields of an entry. The password
// is re-encrypted under a fresh nonce even if unchanged.
type UpdateEntryRequest struct {
	ID        int64  `json:"id"`
	Software  string `json:"software"`
	Account   string `json:"account"`
	Password  string `json:"password"`
	Notes     string `json:"notes,omitempty"`
	MasterKey string `json:"master_key"`
}

// EntryView is an entry as surfaced to the dispatch layer. Password is set
// only by Get; listing and search views never carry it.
type EntryView struct {
	ID       int64  `json:"id"`
	Software string `json:"software"`
	Account  string `json:"account"`
	Password string `json:"password,omitempty"`
	Notes    string `json:"notes,omitempty"`
}

// EntryResponse is the outcome of a single-entry operation.
type EntryResponse struct {
	Success bool       `json:"success"`
	Message string     `json:"message"`
	Entry   *EntryView `json:"data,omitempty"`
}

// ListResponse is the outcome of List and Search: label-only views.
type ListResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Entries []EntryView `json:"data"`
}

// ReEncryptResponse reports a vault-wide re-encryption. On partial failure
// UpdatedCount entries are already under the new key and the remainder still
// require the old one; the message says so explicitly.
type ReEncryptResponse struct {
	Success      bool   `json:"success"`
	Message      string `json:"message"`
	UpdatedCount int    `json:"updated_count"`
}

// VaultService is CRUD over encrypted entries. Every operation that touches
// a password takes the caller-supplied master key and forgets it when the
// call returns; listing and search work without any key.
type VaultService interface {
	Add(ctx context.Context, req AddEntryRequest) (*EntryResponse, error)
	List(ctx context.Context) (*ListResponse, error)
	Get(ctx context.Context, id int64, masterKey string) (*EntryResponse, error)
	Update(ctx context.Context, req UpdateEntryRequest) (*EntryResponse, error)
	Delete(ctx context.Context, id int64) (*EntryResponse, error)
	Search(ctx context.Context, query string) (*ListResponse, error)
	ReEncryptAll(ctx context.Context, oldMasterKey, newMasterKey string) (*ReEncryptResponse, error)
	ValidateMasterKey(ctx context.Context, masterKey string) (bool, error)
	Count(ctx context.Context) (int, error)
}

type vaultService struct {
	db  *sql.DB
	mu  *sync.Mutex
	log logging.Logger
}

// NewVaultService constructs a VaultService sharing the vault-wide guard.
func NewVaultService(db *sql.DB, mu *sync.Mutex, log logging.Logger) VaultService {
	return &vaultService{db: db, mu: mu, log: log}
}

func (s *vaultService) getEntryRepo() entries.Repository {
	return entries.NewSQLiteRepository(s.db)
}

// Add encrypts the password under a freshly generated nonce and stores a new
// entry. Notes stay plaintext and are searchable.
func (s *vaultService) Add(ctx context.Context, req AddEntryRequest) (*EntryResponse, error) {
	if req.Software == "" || req.Account == "" {
		return nil, fmt.Errorf("%w: software and account are required", common.ErrorValidation)
	}
	key, err := decodeMasterKey(req.MasterKey)
	if err != nil {
		return nil, err
	}
	defer cryptox.Wipe(key)

	s.mu.Lock()
	defer s.mu.Unlock()

	nonce := cryptox.GenerateNonce()
	ciphertext, err := cryptox.Encrypt(req.Password, key, nonce)
	if err != nil {
		return nil, common.ErrorCryptoFailure
	}

	id, err := s.getEntryRepo().Insert(ctx, &models.Entry{
		Software:          req.Software,
		Account:           req.Account,
		EncryptedPassword: ciphertext,
		Nonce:             nonce,
		Notes:             req.Notes,
	})
	if err != nil {
		return nil, err
	}

	return &EntryResponse{
		Success: true,
		Message: "Password added successfully",
		Entry:   &EntryView{ID: id, Software: req.Software, Account: req.Account, Notes: req.Notes},
	}, nil
}

// List returns every entry with labels only. Encrypted payloads are never
// surfaced here, so no key is required.
func (s *vaultService) List(ctx context.Context) (*ListResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.getEntryRepo().GetAll(ctx)
	if err != nil {
		return nil, err
	}
	return &ListResponse{
		Success: true,
		Message: "Passwords retrieved successfully",
		Entries: toViews(rows),
	}, nil
}

// Get loads one entry and decrypts its password under the supplied key. A
// wrong key is indistinguishable from corruption and reported as the single
// opaque failure.
func (s *vaultService) Get(ctx context.Context, id int64, masterKey string) (*EntryResponse, error) {
	key, err := decodeMasterKey(masterKey)
	if err != nil {
		return nil, err
	}
	defer cryptox.Wipe(key)

	s.mu.Lock()
	defer s.mu.Unlock()

	entry, err := s.getEntryRepo().GetByID(ctx, id)
	if errors.Is(err, common.ErrorNotFound) {
		return &EntryResponse{Success: false, Message: "Password entry not found"}, nil
	}
	if err != nil {
		return nil, err
	}

	password, err := cryptox.Decrypt(entry.EncryptedPassword, key, entry.Nonce)
	if err != nil {
		return &EntryResponse{Success: false, Message: "Decryption failed"}, nil
	}

	return &EntryResponse{
		Success: true,
		Message: "Password retrieved successfully",
		Entry: &EntryView{
			ID:       entry.ID,
			Software: entry.Software,
			Account:  entry.Account,
			Password: password,
			Notes:    entry.Notes,
		},
	}, nil
}

// Update re-encrypts with a fresh nonce; nonce reuse across revisions is
// forbidden even for the same entry.
func (s *vaultService) Update(ctx context.Context, req UpdateEntryRequest) (*EntryResponse, error) {
	if req.Software == "" || req.Account == "" {
		return nil, fmt.Errorf("%w: software and account are required", common.ErrorValidation)
	}
	key, err := decodeMasterKey(req.MasterKey)
	if err != nil {
		return nil, err
	}
	defer cryptox.Wipe(key)

	s.mu.Lock()
	defer s.mu.Unlock()

	nonce := cryptox.GenerateNonce()
	ciphertext, err := cryptox.Encrypt(req.Password, key, nonce)
	if err != nil {
		return nil, common.ErrorCryptoFailure
	}

	err = s.getEntryRepo().Update(ctx, &models.Entry{
		ID:                req.ID,
		Software:          req.Software,
		Account:           req.Account,
		EncryptedPassword: ciphertext,
		Nonce:             nonce,
		Notes:             req.Notes,
	})
	if errors.Is(err, common.ErrorNotFound) {
		return &EntryResponse{Success: false, Message: "Password entry not found"}, nil
	}
	if err != nil {
		return nil, err
	}

	return &EntryResponse{
		Success: true,
		Message: "Password updated successfully",
		Entry:   &EntryView{ID: req.ID, Software: req.Software, Account: req.Account, Notes: req.Notes},
	}, nil
}

func (s *vaultService) Delete(ctx context.Context, id int64) (*EntryResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.getEntryRepo().Delete(ctx, id)
	if errors.Is(err, common.ErrorNotFound) {
		return &EntryResponse{Success: false, Message: "Password entry not found"}, nil
	}
	if err != nil {
		return nil, err
	}
	return &EntryResponse{Success: true, Message: "Password deleted successfully"}, nil
}

// Search is a case-insensitive substring match across software, account and
// notes. Like List, it returns label-only views and needs no key.
func (s *vaultService) Search(ctx context.Context, query string) (*ListResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.getEntryRepo().Search(ctx, query)
	if err != nil {
		return nil, err
	}
	return &ListResponse{
		Success: true,
		Message: fmt.Sprintf("Found %d matching passwords", len(rows)),
		Entries: toViews(rows),
	}, nil
}

// ReEncryptAll decrypts every entry with the old key and immediately
// re-encrypts it with the new key and a fresh nonce, persisting each entry
// before moving to the next. Callers must invoke this right after any
// master-password rotation, or entries encrypted under the old key become
// permanently unreadable.
//
// There is no rollback: if the loop fails partway, already-processed entries
// are under the new key and the rest remain under the old one. The response
// says how many were converted so the caller can retry the remainder with
// the old key.
func (s *vaultService) ReEncryptAll(ctx context.Context, oldMasterKey, newMasterKey string) (*ReEncryptResponse, error) {
	oldKey, err := decodeMasterKey(oldMasterKey)
	if err != nil {
		return nil, err
	}
	defer cryptox.Wipe(oldKey)
	newKey, err := decodeMasterKey(newMasterKey)
	if err != nil {
		return nil, err
	}
	defer cryptox.Wipe(newKey)

	s.mu.Lock()
	defer s.mu.Unlock()

	repo := s.getEntryRepo()
	all, err := repo.GetAll(ctx)
	if err != nil {
		return nil, err
	}

	updated := 0
	for i := range all {
		entry := &all[i]

		password, err := cryptox.Decrypt(entry.EncryptedPassword, oldKey, entry.Nonce)
		if err != nil {
			return s.partialReEncrypt(ctx, updated, len(all), entry.ID)
		}

		nonce := cryptox.GenerateNonce()
		ciphertext, err := cryptox.Encrypt(password, newKey, nonce)
		if err != nil {
			return s.partialReEncrypt(ctx, updated, len(all), entry.ID)
		}

		entry.EncryptedPassword = ciphertext
		entry.Nonce = nonce
		if err := repo.Update(ctx, entry); err != nil {
			return s.partialReEncrypt(ctx, updated, len(all), entry.ID)
		}
		updated++
	}

	return &ReEncryptResponse{
		Success:      true,
		Message:      fmt.Sprintf("Re-encrypted %d password entries", updated),
		UpdatedCount: updated,
	}, nil
}

func (s *vaultService) partialReEncrypt(ctx context.Context, updated, total int, failedID int64) (*ReEncryptResponse, error) {
	s.log.Error(ctx, "re-encryption failed partway; vault is in a mixed-key state",
		"updated", updated, "total", total, "failed_id", failedID)
	return &ReEncryptResponse{
		Success: false,
		Message: fmt.Sprintf(
			"Re-encrypted %d of %d entries before failing; the remaining entries still require the old master key, retry with it",
			updated, total),
		UpdatedCount: updated,
	}, nil
}

// ValidateMasterKey probes a key by decrypting the first stored entry. An
// empty vault cannot falsify the key, so it validates vacuously.
func (s *vaultService) ValidateMasterKey(ctx context.Context, masterKey string) (bool, error) {
	key, err := decodeMasterKey(masterKey)
	if err != nil {
		return false, err
	}
	defer cryptox.Wipe(key)

	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.getEntryRepo().GetAll(ctx)
	if err != nil {
		return false, err
	}
	if len(all) == 0 {
		return true, nil
	}

	_, err = cryptox.Decrypt(all[0].EncryptedPassword, key, all[0].Nonce)
	return err == nil, nil
}

func (s *vaultService) Count(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.getEntryRepo().Count(ctx)
}

func toViews(rows []models.Entry) []EntryView {
	views := make([]EntryView, 0, len(rows))
	for _, row := range rows {
		views = append(views, EntryView{
			ID:       row.ID,
			Software: row.Software,
			Account:  row.Account,
			Notes:    row.Notes,
		})
	}
	return views
}
