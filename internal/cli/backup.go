package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/pwdbox/pwdbox/internal/cryptox"
	"github.com/pwdbox/pwdbox/internal/services"
)

// backupCredentials prompts for the file path and passphrase of a backup
// operation. The passphrase is independent of the master password.
func (a *App) backupCredentials(pathPrompt string) (string, []byte, error) {
	path, err := getSimpleText(a.reader, pathPrompt, os.Stdout)
	if err != nil {
		return "", nil, err
	}
	passphrase, err := getPassword(os.Stdout, "Backup passphrase")
	if err != nil {
		return "", nil, err
	}
	return path, passphrase, nil
}

// Export writes an encrypted snapshot of the whole vault to a chosen file.
func (a *App) Export(ctx context.Context) error {
	path, passphrase, err := a.backupCredentials("Export file path")
	if err != nil {
		return err
	}
	defer cryptox.Wipe(passphrase)

	resp, err := a.services.Backup.Export(ctx, services.ExportRequest{
		Passphrase: string(passphrase),
		FilePath:   path,
	})
	if err != nil {
		return err
	}
	fmt.Println(resp.Message)
	return nil
}

// BackupNow writes a default-named snapshot into the backup directory.
func (a *App) BackupNow(ctx context.Context) error {
	passphrase, err := getPassword(os.Stdout, "Backup passphrase")
	if err != nil {
		return err
	}
	defer cryptox.Wipe(passphrase)

	resp, err := a.services.Backup.CreateBackup(ctx, string(passphrase))
	if err != nil {
		return err
	}
	fmt.Println(resp.Message)
	return nil
}

// Import replaces the whole vault with a snapshot after confirmation. The
// restored vault opens with the master password it was exported under, so
// the session is locked afterwards.
func (a *App) Import(ctx context.Context) error {
	path, passphrase, err := a.backupCredentials("Import file path")
	if err != nil {
		return err
	}
	defer cryptox.Wipe(passphrase)

	confirm, err := getSimpleText(a.reader, "Importing replaces every entry and the master password. Continue? (y/N)", os.Stdout)
	if err != nil {
		return err
	}
	if confirm != "y" && confirm != "Y" {
		fmt.Println("Cancelled.")
		return nil
	}

	resp, err := a.services.Backup.Import(ctx, services.ImportRequest{
		Passphrase: string(passphrase),
		FilePath:   path,
	})
	if err != nil {
		return err
	}
	fmt.Println(resp.Message)
	if resp.Success {
		a.clearKey()
		fmt.Println("Session locked. Log in with the imported vault's master password.")
	}
	return nil
}

// Preview summarizes a backup file without restoring it.
func (a *App) Preview(ctx context.Context) error {
	path, passphrase, err := a.backupCredentials("Backup file path")
	if err != nil {
		return err
	}
	defer cryptox.Wipe(passphrase)

	resp, err := a.services.Backup.Preview(ctx, services.ImportRequest{
		Passphrase: string(passphrase),
		FilePath:   path,
	})
	if err != nil {
		return err
	}

	fmt.Printf("Format version: %s\n", resp.BackupInfo.Version)
	if resp.BackupInfo.CreatedAt != "" {
		fmt.Printf("Created at: %s\n", resp.BackupInfo.CreatedAt)
	}
	fmt.Printf("Entries: %d\n", resp.EntryCount)
	fmt.Printf("Security questions included: %v\n", resp.HasSecurityQuestions)
	for _, e := range resp.EntriesSample {
		fmt.Printf("  %s / %s\n", e.Software, e.Account)
	}
	return nil
}

// Cleanup deletes old default-named backups, keeping the configured count.
func (a *App) Cleanup(ctx context.Context) error {
	resp, err := a.services.Backup.CleanupOldBackups(ctx, a.config.BackupDir, a.config.BackupKeepCount)
	if err != nil {
		return err
	}
	fmt.Printf("%s (%d kept)\n", resp.Message, resp.RemainingCount)
	return nil
}
