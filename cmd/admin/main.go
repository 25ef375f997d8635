// Command admin создает пользователей с заданной ролью прямо в хранилище.
//
//	admin --storage-path filmapi.db --username root1 --email root@example.com --role admin
//
// Пароль запрашивается с терминала без эха (или читается из stdin, если это не терминал).
package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/pflag"
	"golang.org/x/term"

	"github.com/iudanet/filmapi/internal/admin"
	"github.com/iudanet/filmapi/internal/auth"
	"github.com/iudanet/filmapi/internal/config"
	"github.com/iudanet/filmapi/internal/models"
	"github.com/iudanet/filmapi/internal/server/storage/backend"
	"github.com/iudanet/filmapi/internal/validation"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	defaults := config.Default()

	fs := pflag.NewFlagSet("admin", pflag.ContinueOnError)
	driver := fs.String("storage-driver", defaults.Storage.Driver, "storage driver (sqlite, bolt)")
	path := fs.StringP("storage-path", "d", defaults.Storage.Path, "database file path")
	username := fs.StringP("username", "u", "", "username to create or update")
	email := fs.StringP("email", "e", "", "email for a new user")
	role := fs.StringP("role", "r", string(models.RoleAdmin), "role (user, admin)")
	cost := fs.Int("bcrypt-cost", defaults.Auth.BcryptCost, "bcrypt work factor")
	noPassword := fs.Bool("keep-password", false, "do not change the password of an existing user")

	if err := fs.Parse(args); err != nil {
		return err
	}
	if *username == "" {
		return errors.New("--username is required")
	}

	var password string
	if !*noPassword {
		var err error
		password, err = readPassword("Password: ")
		if err != nil {
			return fmt.Errorf("failed to read password: %w", err)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := backend.Open(ctx, config.Storage{Driver: *driver, Path: *path})
	if err != nil {
		return fmt.Errorf("failed to open storage: %w", err)
	}
	defer func() { _ = store.Close() }()

	user, created, err := admin.Provision(ctx, store, auth.NewBcryptHasher(*cost), admin.Account{
		Username: *username,
		Email:    *email,
		Password: password,
		Role:     models.Role(*role),
	})
	if err != nil {
		if fields, ok := validation.Fields(err); ok {
			for field, msg := range fields {
				fmt.Fprintf(os.Stderr, "  %s: %s\n", field, msg)
			}
		}
		return err
	}

	if created {
		fmt.Printf("Created %s %s (id %s)\n", user.Role, user.Username, user.ID)
	} else {
		fmt.Printf("Updated %s: role %s\n", user.Username, user.Role)
	}
	return nil
}

// readPassword читает пароль без эха, если stdin терминал
func readPassword(prompt string) (string, error) {
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		fmt.Print(prompt)
		pw, err := term.ReadPassword(fd)
		fmt.Println()
		if err != nil {
			return "", err
		}
		return string(pw), nil
	}

	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}
