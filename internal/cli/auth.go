package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/pwdbox/pwdbox/internal/cryptox"
	"github.com/pwdbox/pwdbox/internal/services"
)

// getSimpleText and getPassword are indirections used to facilitate testing.
// They point to interactive input helpers and can be swapped in tests.
var getSimpleText = GetSimpleText
var getPassword = GetPassword

// Setup initializes the vault: master password plus three security questions
// for the recovery path. On success the session is unlocked immediately.
func (a *App) Setup(ctx context.Context) error {
	initialized, err := a.services.Auth.IsInitialized(ctx)
	if err != nil {
		return err
	}
	if initialized {
		fmt.Println("Vault is already set up. Use 'login'.")
		return nil
	}

	password, err := getPassword(os.Stdout, "Choose a master password")
	if err != nil {
		return err
	}
	defer cryptox.Wipe(password)
	confirm, err := getPassword(os.Stdout, "Repeat the master password")
	if err != nil {
		return err
	}
	defer cryptox.Wipe(confirm)
	if string(password) != string(confirm) {
		fmt.Println("Passwords do not match.")
		return nil
	}

	req := services.SetupRequest{MasterPassword: string(password)}
	fields := []struct {
		question *string
		answer   *string
	}{
		{&req.Question1, &req.Answer1},
		{&req.Question2, &req.Answer2},
		{&req.Question3, &req.Answer3},
	}
	for i, f := range fields {
		q, err := getSimpleText(a.reader, fmt.Sprintf("Security question %d", i+1), os.Stdout)
		if err != nil {
			return err
		}
		ans, err := getSimpleText(a.reader, fmt.Sprintf("Answer %d", i+1), os.Stdout)
		if err != nil {
			return err
		}
		*f.question = q
		*f.answer = ans
	}

	resp, err := a.services.Auth.Setup(ctx, req)
	if err != nil {
		return err
	}
	fmt.Println(resp.Message)
	if resp.Success {
		return a.setKey(resp.MasterKey)
	}
	return nil
}

// Login unlocks the session with the master password.
func (a *App) Login(ctx context.Context) error {
	password, err := getPassword(os.Stdout, "Master password")
	if err != nil {
		return err
	}
	defer cryptox.Wipe(password)

	resp, err := a.services.Auth.Login(ctx, services.LoginRequest{MasterPassword: string(password)})
	if err != nil {
		return err
	}
	fmt.Println(resp.Message)
	if resp.Success {
		return a.setKey(resp.MasterKey)
	}
	return nil
}

// Logout locks the session and wipes the key.
func (a *App) Logout() {
	a.clearKey()
	fmt.Println("Logged out.")
}

// Questions prints the stored security questions.
func (a *App) Questions(ctx context.Context) error {
	questions, err := a.services.Auth.SecurityQuestions(ctx)
	if err != nil {
		return err
	}
	for i, q := range questions {
		fmt.Printf("%d. %s\n", i+1, q)
	}
	return nil
}

// Recover resets a forgotten master password via the security questions.
// Entries encrypted under the old password stay unreadable; without the old
// key there is nothing to re-encrypt from, and the user is told so.
func (a *App) Recover(ctx context.Context) error {
	questions, err := a.services.Auth.SecurityQuestions(ctx)
	if err != nil {
		return err
	}

	answers := make([]string, len(questions))
	for i, q := range questions {
		ans, err := getSimpleText(a.reader, q, os.Stdout)
		if err != nil {
			return err
		}
		answers[i] = ans
	}

	password, err := getPassword(os.Stdout, "New master password")
	if err != nil {
		return err
	}
	defer cryptox.Wipe(password)
	confirm, err := getPassword(os.Stdout, "Repeat the new master password")
	if err != nil {
		return err
	}
	defer cryptox.Wipe(confirm)
	if string(password) != string(confirm) {
		fmt.Println("Passwords do not match.")
		return nil
	}

	resp, err := a.services.Auth.ResetMasterPassword(ctx, services.ResetPasswordRequest{
		NewMasterPassword: string(password),
		Answer1:           answers[0],
		Answer2:           answers[1],
		Answer3:           answers[2],
	})
	if err != nil {
		return err
	}
	fmt.Println(resp.Message)
	if !resp.Success {
		return nil
	}

	fmt.Println("Warning: entries stored before the reset are still encrypted with the old master password and cannot be decrypted with the new one.")
	return a.setKey(resp.MasterKey)
}

// ChangePassword rotates the master password and immediately re-encrypts
// every entry under the new key, so the vault stays readable end to end.
func (a *App) ChangePassword(ctx context.Context) error {
	current, err := getPassword(os.Stdout, "Current master password")
	if err != nil {
		return err
	}
	defer cryptox.Wipe(current)
	next, err := getPassword(os.Stdout, "New master password")
	if err != nil {
		return err
	}
	defer cryptox.Wipe(next)
	confirm, err := getPassword(os.Stdout, "Repeat the new master password")
	if err != nil {
		return err
	}
	defer cryptox.Wipe(confirm)
	if string(next) != string(confirm) {
		fmt.Println("Passwords do not match.")
		return nil
	}

	oldKey := a.sessionKey()

	resp, err := a.services.Auth.ChangeMasterPassword(ctx, string(current), string(next))
	if err != nil {
		return err
	}
	fmt.Println(resp.Message)
	if !resp.Success {
		return nil
	}

	re, err := a.services.Vault.ReEncryptAll(ctx, oldKey, resp.MasterKey)
	if err != nil {
		return err
	}
	fmt.Println(re.Message)

	return a.setKey(resp.MasterKey)
}
