package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/pwdbox/pwdbox/internal/common"
	"github.com/pwdbox/pwdbox/internal/cryptox"
	"github.com/pwdbox/pwdbox/internal/dbx"
	"github.com/pwdbox/pwdbox/internal/filex"
	"github.com/pwdbox/pwdbox/internal/logging"
	"github.com/pwdbox/pwdbox/internal/models"
	"github.com/pwdbox/pwdbox/internal/repositories/entries"
	"github.com/pwdbox/pwdbox/internal/repositories/usermeta"
)

const (
	// backupVersion is the format version written into new exports.
	backupVersion = "1.0"

	// Backup naming convention used by CreateBackup and CleanupOldBackups.
	backupPrefix = "pwdbox_backup_"
	backupSuffix = ".enc"
)

// ExportRequest writes an encrypted snapshot of the vault. The passphrase is
// independent of the master password: whoever knows it can restore the
// backup elsewhere without knowing the vault's master password.
type ExportRequest struct {
	Passphrase string `json:"passphrase"`
	FilePath   string `json:"file_path"`
}

// ImportRequest restores (or previews) a snapshot.
type ImportRequest struct {
	Passphrase string `json:"passphrase"`
	FilePath   string `json:"file_path"`
}

// ExportResponse is the outcome of Export/CreateBackup.
type ExportResponse struct {
	Success  bool   `json:"success"`
	Message  string `json:"message"`
	FilePath string `json:"file_path,omitempty"`
}

// ImportResponse is the outcome of Import.
type ImportResponse struct {
	Success              bool   `json:"success"`
	Message              string `json:"message"`
	ImportedEntriesCount int    `json:"imported_entries_count,omitempty"`
}

// EntryLabel is a software/account pair shown in previews.
type EntryLabel struct {
	Software string `json:"software"`
	Account  string `json:"account"`
}

// PreviewResponse summarizes a backup file without touching persisted state.
type PreviewResponse struct {
	BackupInfo           models.BackupInfo `json:"backup_info"`
	EntryCount           int               `json:"entry_count"`
	HasSecurityQuestions bool              `json:"has_security_questions"`
	EntriesSample        []EntryLabel      `json:"entries_sample"`
}

// BackupFileInfo describes a backup file on disk.
type BackupFileInfo struct {
	FilePath   string `json:"file_path"`
	FileSize   int64  `json:"file_size"`
	ModifiedAt string `json:"modified_at"`
}

// CleanupResponse reports a retention sweep.
type CleanupResponse struct {
	CleanedCount   int    `json:"cleaned_count"`
	RemainingCount int    `json:"remaining_count"`
	Message        string `json:"message"`
}

// BackupService serializes the whole vault to a passphrase-encrypted blob
// and restores it. Import replaces the current vault atomically; Preview and
// Validate share its decrypt+parse path but are read-only and never decrypt
// individual entry passwords.
type BackupService interface {
	Export(ctx context.Context, req ExportRequest) (*ExportResponse, error)
	CreateBackup(ctx context.Context, passphrase string) (*ExportResponse, error)
	Import(ctx context.Context, req ImportRequest) (*ImportResponse, error)
	Preview(ctx context.Context, req ImportRequest) (*PreviewResponse, error)
	Validate(ctx context.Context, filePath, passphrase string) bool
	FileInfo(filePath string) (*BackupFileInfo, error)
	CleanupOldBackups(ctx context.Context, dir string, keepCount int) (*CleanupResponse, error)
}

type backupService struct {
	db        *sql.DB
	mu        *sync.Mutex
	log       logging.Logger
	backupDir string
}

// NewBackupService constructs a BackupService sharing the vault-wide guard.
func NewBackupService(db *sql.DB, mu *sync.Mutex, log logging.Logger, backupDir string) BackupService {
	return &backupService{db: db, mu: mu, log: log, backupDir: backupDir}
}

// Export snapshots the vault metadata and all entries, wraps them with
// backup metadata, encrypts the whole document with the passphrase, and
// writes the opaque token to req.FilePath, creating parent directories as
// needed.
func (s *backupService) Export(ctx context.Context, req ExportRequest) (*ExportResponse, error) {
	if req.Passphrase == "" || req.FilePath == "" {
		return nil, fmt.Errorf("%w: passphrase and file path are required", common.ErrorValidation)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	meta, err := usermeta.NewSQLiteRepository(s.db).Get(ctx)
	if err != nil {
		return nil, err
	}
	if meta == nil {
		return nil, common.ErrorNotInitialized
	}
	rows, err := entries.NewSQLiteRepository(s.db).GetAll(ctx)
	if err != nil {
		return nil, err
	}

	bundle := models.ExportBundle{
		BackupInfo: models.BackupInfo{
			Version:     backupVersion,
			CreatedAt:   time.Now().UTC().Format(time.RFC3339),
			EntryCount:  len(rows),
			HasUserData: true,
		},
		Data: models.ExportData{UserMeta: *meta, PasswordEntries: rows},
	}

	document, err := json.MarshalIndent(bundle, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to serialize export: %w", err)
	}

	envelope, err := cryptox.EncryptExport(string(document), req.Passphrase)
	if err != nil {
		return nil, common.ErrorCryptoFailure
	}

	if err := filex.EnsureParentDir(req.FilePath); err != nil {
		return nil, err
	}
	if err := os.WriteFile(req.FilePath, []byte(envelope), 0o600); err != nil {
		return nil, fmt.Errorf("failed to write export file: %w", err)
	}

	s.log.Info(ctx, "vault exported", "path", req.FilePath, "entries", len(rows))
	return &ExportResponse{
		Success:  true,
		Message:  fmt.Sprintf("Data exported successfully to %s", req.FilePath),
		FilePath: req.FilePath,
	}, nil
}

// CreateBackup exports to a default timestamped file under the configured
// backup directory.
func (s *backupService) CreateBackup(ctx context.Context, passphrase string) (*ExportResponse, error) {
	filename := fmt.Sprintf("%s%s%s", backupPrefix, time.Now().UTC().Format("20060102_150405"), backupSuffix)
	return s.Export(ctx, ExportRequest{
		Passphrase: passphrase,
		FilePath:   filepath.Join(s.backupDir, filename),
	})
}

// Import decrypts and parses a backup file, validates it, and atomically
// replaces the current vault metadata and entries with the imported set.
// A decryption failure is reported as a wrong passphrase; file corruption is
// deliberately indistinguishable from it.
func (s *backupService) Import(ctx context.Context, req ImportRequest) (*ImportResponse, error) {
	if req.Passphrase == "" || req.FilePath == "" {
		return nil, fmt.Errorf("%w: passphrase and file path are required", common.ErrorValidation)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	envelope, err := os.ReadFile(req.FilePath)
	if errors.Is(err, os.ErrNotExist) {
		return &ImportResponse{Success: false, Message: "Import file does not exist"}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read import file: %w", err)
	}

	document, err := cryptox.DecryptExport(string(envelope), req.Passphrase)
	if err != nil {
		return &ImportResponse{
			Success: false,
			Message: "Failed to decrypt import file. Please check your passphrase.",
		}, nil
	}

	bundle, err := parseBundle(document)
	if err != nil {
		return nil, err
	}
	if bundle.Data.UserMeta.MasterHash == "" {
		return &ImportResponse{
			Success: false,
			Message: "Invalid import data: missing user information",
		}, nil
	}

	// All-or-nothing replace: both repositories are bound to one transaction.
	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		metaRepo := usermeta.NewSQLiteRepository(tx)
		entryRepo := entries.NewSQLiteRepository(tx)

		if err := metaRepo.Delete(ctx); err != nil {
			return err
		}
		if err := entryRepo.DeleteAll(ctx); err != nil {
			return err
		}
		if err := metaRepo.Save(ctx, &bundle.Data.UserMeta); err != nil {
			return err
		}
		for i := range bundle.Data.PasswordEntries {
			if _, err := entryRepo.Insert(ctx, &bundle.Data.PasswordEntries[i]); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("import transaction failed: %w", err)
	}

	count := len(bundle.Data.PasswordEntries)
	s.log.Info(ctx, "vault imported", "path", req.FilePath, "entries", count)
	return &ImportResponse{
		Success:              true,
		Message:              fmt.Sprintf("Data imported successfully. %d password entries restored.", count),
		ImportedEntriesCount: count,
	}, nil
}

// Preview runs the same decrypt+parse path as Import but is read-only. It
// never decrypts individual entry passwords.
func (s *backupService) Preview(ctx context.Context, req ImportRequest) (*PreviewResponse, error) {
	envelope, err := os.ReadFile(req.FilePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read import file: %w", err)
	}

	document, err := cryptox.DecryptExport(string(envelope), req.Passphrase)
	if err != nil {
		return nil, common.ErrorCryptoFailure
	}

	bundle, err := parseBundle(document)
	if err != nil {
		return nil, err
	}

	sample := make([]EntryLabel, 0, 5)
	for _, e := range bundle.Data.PasswordEntries {
		if len(sample) == 5 {
			break
		}
		sample = append(sample, EntryLabel{Software: e.Software, Account: e.Account})
	}

	return &PreviewResponse{
		BackupInfo:           bundle.BackupInfo,
		EntryCount:           len(bundle.Data.PasswordEntries),
		HasSecurityQuestions: bundle.Data.UserMeta.Question1 != "",
		EntriesSample:        sample,
	}, nil
}

// Validate reports whether the file decrypts and parses with the given
// passphrase. It is a pre-flight check for Import.
func (s *backupService) Validate(ctx context.Context, filePath, passphrase string) bool {
	_, err := s.Preview(ctx, ImportRequest{Passphrase: passphrase, FilePath: filePath})
	return err == nil
}

func (s *backupService) FileInfo(filePath string) (*BackupFileInfo, error) {
	info, err := os.Stat(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat backup file: %w", err)
	}
	return &BackupFileInfo{
		FilePath:   filePath,
		FileSize:   info.Size(),
		ModifiedAt: info.ModTime().UTC().Format(time.RFC3339),
	}, nil
}

// CleanupOldBackups deletes all but the keepCount newest files matching the
// backup naming convention in dir. Cleanup is best-effort: individual
// deletion failures are logged and skipped, never fatal.
func (s *backupService) CleanupOldBackups(ctx context.Context, dir string, keepCount int) (*CleanupResponse, error) {
	if keepCount < 0 {
		return nil, fmt.Errorf("%w: keep count must not be negative", common.ErrorValidation)
	}

	dirEntries, err := os.ReadDir(dir)
	if errors.Is(err, os.ErrNotExist) {
		return &CleanupResponse{Message: "Backup directory does not exist"}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read backup directory: %w", err)
	}

	type backupFile struct {
		path    string
		modTime time.Time
	}
	var backups []backupFile
	for _, de := range dirEntries {
		if de.IsDir() {
			continue
		}
		name := de.Name()
		if !strings.HasPrefix(name, backupPrefix) || !strings.HasSuffix(name, backupSuffix) {
			continue
		}
		info, err := de.Info()
		if err != nil {
			continue
		}
		backups = append(backups, backupFile{path: filepath.Join(dir, name), modTime: info.ModTime()})
	}

	// Newest first; everything past keepCount goes.
	sort.Slice(backups, func(i, j int) bool { return backups[i].modTime.After(backups[j].modTime) })

	cleaned := 0
	for i := keepCount; i < len(backups); i++ {
		if err := os.Remove(backups[i].path); err != nil {
			s.log.Warn(ctx, "failed to remove old backup", "path", backups[i].path, "error", err)
			continue
		}
		cleaned++
	}

	return &CleanupResponse{
		CleanedCount:   cleaned,
		RemainingCount: len(backups) - cleaned,
		Message:        fmt.Sprintf("Cleaned up %d old backup files", cleaned),
	}, nil
}

// parseBundle accepts either the current wrapped export format or the legacy
// unwrapped one (the data payload directly, without backup_info).
func parseBundle(document string) (*models.ExportBundle, error) {
	var probe struct {
		Data *models.ExportData `json:"data"`
	}
	if err := json.Unmarshal([]byte(document), &probe); err != nil {
		return nil, fmt.Errorf("%w: malformed export document", common.ErrorValidation)
	}

	if probe.Data != nil {
		var bundle models.ExportBundle
		if err := json.Unmarshal([]byte(document), &bundle); err != nil {
			return nil, fmt.Errorf("%w: malformed export document", common.ErrorValidation)
		}
		return &bundle, nil
	}

	// Legacy format: synthesize the wrapper.
	var data models.ExportData
	if err := json.Unmarshal([]byte(document), &data); err != nil {
		return nil, fmt.Errorf("%w: malformed export document", common.ErrorValidation)
	}
	return &models.ExportBundle{
		BackupInfo: models.BackupInfo{
			Version:     "legacy",
			EntryCount:  len(data.PasswordEntries),
			HasUserData: true,
		},
		Data: data,
	}, nil
}
