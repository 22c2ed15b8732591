package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
)

func (a *App) getStatus() string {
	if a.isLoggedIn() {
		return "(unlocked)"
	}
	return "(locked)"
}

// Root starts the interactive loop on stdin.
func (a *App) Root(ctx context.Context) {
	fmt.Println("Welcome to pwdbox (type 'help' for commands)")
	a.repl(ctx, bufio.NewScanner(os.Stdin))
}

// repl reads a line, parses the first token as the command, and dispatches.
// Command handlers print their own outcomes; errors reaching this level are
// shown and the loop keeps going. The loop exits on EOF, "exit" or "quit".
func (a *App) repl(ctx context.Context, scanner *bufio.Scanner) {
	for {
		fmt.Printf("pwdbox %s> ", a.getStatus())
		if !scanner.Scan() {
			return
		}
		parts := strings.Fields(scanner.Text())
		if len(parts) == 0 {
			continue
		}
		cmd := parts[0]
		args := parts[1:]

		var err error
		switch cmd {
		case "help":
			a.help()
		case "setup":
			err = a.Setup(ctx)
		case "login":
			err = a.Login(ctx)
		case "questions":
			err = a.Questions(ctx)
		case "recover":
			err = a.Recover(ctx)
		case "add":
			err = a.loggedIn(func() error { return a.Add(ctx) })
		case "l", "list":
			err = a.loggedIn(func() error { return a.List(ctx) })
		case "show":
			err = a.loggedIn(func() error { return a.Show(ctx, args) })
		case "update":
			err = a.loggedIn(func() error { return a.Update(ctx, args) })
		case "delete":
			err = a.loggedIn(func() error { return a.Delete(ctx, args) })
		case "search":
			err = a.loggedIn(func() error { return a.Search(ctx, args) })
		case "passwd":
			err = a.loggedIn(func() error { return a.ChangePassword(ctx) })
		case "export":
			err = a.loggedIn(func() error { return a.Export(ctx) })
		case "import":
			err = a.Import(ctx)
		case "preview":
			err = a.Preview(ctx)
		case "backup":
			err = a.loggedIn(func() error { return a.BackupNow(ctx) })
		case "cleanup":
			err = a.Cleanup(ctx)
		case "logout":
			a.Logout()
		case "exit", "quit":
			fmt.Println("Bye!")
			return
		default:
			fmt.Println("Unknown command:", cmd)
		}

		if err != nil {
			fmt.Println("Error:", err)
		}
	}
}

// loggedIn gates commands that need an unlocked session.
func (a *App) loggedIn(fn func() error) error {
	if !a.isLoggedIn() {
		fmt.Println("Vault is locked. Use 'login' first.")
		return nil
	}
	return fn()
}

func (a *App) help() {
	if a.isLoggedIn() {
		fmt.Println("Available commands: add, (l)ist, show, update, delete, search, passwd, export, import, preview, backup, cleanup, logout, exit")
	} else {
		fmt.Println("Available commands: setup, login, questions, recover, preview, cleanup, exit")
	}
}
