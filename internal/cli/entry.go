package cli

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/pwdbox/pwdbox/internal/cryptox"
	"github.com/pwdbox/pwdbox/internal/services"
)

// entryID takes the id from the command arguments or prompts for it.
func (a *App) entryID(args []string) (int64, error) {
	raw := ""
	if len(args) > 0 {
		raw = args[0]
	} else {
		var err error
		raw, err = getSimpleText(a.reader, "Entry id", os.Stdout)
		if err != nil {
			return 0, err
		}
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid entry id %q", raw)
	}
	return id, nil
}

// Add stores a new credential entry.
func (a *App) Add(ctx context.Context) error {
	software, err := getSimpleText(a.reader, "Software / service", os.Stdout)
	if err != nil {
		return err
	}
	account, err := getSimpleText(a.reader, "Account / username", os.Stdout)
	if err != nil {
		return err
	}
	password, err := getPassword(os.Stdout, "Password to store")
	if err != nil {
		return err
	}
	defer cryptox.Wipe(password)
	notes, err := GetMultiline(a.reader, "Notes (optional)", os.Stdout)
	if err != nil {
		return err
	}

	resp, err := a.services.Vault.Add(ctx, services.AddEntryRequest{
		Software:  software,
		Account:   account,
		Password:  string(password),
		Notes:     notes,
		MasterKey: a.sessionKey(),
	})
	if err != nil {
		return err
	}
	fmt.Println(resp.Message)
	if resp.Success {
		fmt.Printf("Stored as entry %d\n", resp.Entry.ID)
	}
	return nil
}

// List prints every entry's labels. Passwords are not decrypted here.
func (a *App) List(ctx context.Context) error {
	resp, err := a.services.Vault.List(ctx)
	if err != nil {
		return err
	}
	printEntries(resp.Entries)
	return nil
}

// Show decrypts and prints a single entry.
func (a *App) Show(ctx context.Context, args []string) error {
	id, err := a.entryID(args)
	if err != nil {
		return err
	}

	resp, err := a.services.Vault.Get(ctx, id, a.sessionKey())
	if err != nil {
		return err
	}
	if !resp.Success {
		fmt.Println(resp.Message)
		return nil
	}

	e := resp.Entry
	fmt.Printf("[%d] %s / %s\n", e.ID, e.Software, e.Account)
	fmt.Printf("Password: %s\n", e.Password)
	if e.Notes != "" {
		fmt.Printf("Notes: %s\n", e.Notes)
	}
	return nil
}

// Update rewrites an entry. Current values are shown as defaults; pressing
// Enter keeps them. The password is always re-entered.
func (a *App) Update(ctx context.Context, args []string) error {
	id, err := a.entryID(args)
	if err != nil {
		return err
	}

	current, err := a.services.Vault.Get(ctx, id, a.sessionKey())
	if err != nil {
		return err
	}
	if !current.Success {
		fmt.Println(current.Message)
		return nil
	}

	software, err := getSimpleText(a.reader, fmt.Sprintf("Software [%s]", current.Entry.Software), os.Stdout)
	if err != nil {
		return err
	}
	if software == "" {
		software = current.Entry.Software
	}
	account, err := getSimpleText(a.reader, fmt.Sprintf("Account [%s]", current.Entry.Account), os.Stdout)
	if err != nil {
		return err
	}
	if account == "" {
		account = current.Entry.Account
	}
	password, err := getPassword(os.Stdout, "New password")
	if err != nil {
		return err
	}
	defer cryptox.Wipe(password)
	notes, err := GetMultiline(a.reader, "Notes (optional)", os.Stdout)
	if err != nil {
		return err
	}

	resp, err := a.services.Vault.Update(ctx, services.UpdateEntryRequest{
		ID:        id,
		Software:  software,
		Account:   account,
		Password:  string(password),
		Notes:     notes,
		MasterKey: a.sessionKey(),
	})
	if err != nil {
		return err
	}
	fmt.Println(resp.Message)
	return nil
}

// Delete removes an entry after confirmation.
func (a *App) Delete(ctx context.Context, args []string) error {
	id, err := a.entryID(args)
	if err != nil {
		return err
	}

	confirm, err := getSimpleText(a.reader, fmt.Sprintf("Delete entry %d? (y/N)", id), os.Stdout)
	if err != nil {
		return err
	}
	if !strings.EqualFold(confirm, "y") {
		fmt.Println("Cancelled.")
		return nil
	}

	resp, err := a.services.Vault.Delete(ctx, id)
	if err != nil {
		return err
	}
	fmt.Println(resp.Message)
	return nil
}

// Search prints entries matching a substring of software, account or notes.
func (a *App) Search(ctx context.Context, args []string) error {
	query := strings.Join(args, " ")
	if query == "" {
		var err error
		query, err = getSimpleText(a.reader, "Search for", os.Stdout)
		if err != nil {
			return err
		}
	}

	resp, err := a.services.Vault.Search(ctx, query)
	if err != nil {
		return err
	}
	fmt.Println(resp.Message)
	printEntries(resp.Entries)
	return nil
}

func printEntries(entries []services.EntryView) {
	if len(entries) == 0 {
		fmt.Println("No entries.")
		return
	}
	for _, e := range entries {
		line := fmt.Sprintf("[%d] %s / %s", e.ID, e.Software, e.Account)
		if e.Notes != "" {
			line += "  (" + e.Notes + ")"
		}
		fmt.Println(line)
	}
}
