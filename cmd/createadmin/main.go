// createadmin makes sure a user holds the admin role, creating the user and
// the role when they are missing. Flags fall back to ADMIN_* variables and
// then to an interactive prompt.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"auth-service/internal/app"
	"auth-service/internal/config"
	"auth-service/internal/db"
	"auth-service/internal/repository/postgres"
	userUsecase "auth-service/internal/service/user"

	"github.com/joho/godotenv"
	"golang.org/x/term"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	email := flag.String("email", cfg.AdminEmail, "admin email")
	name := flag.String("name", cfg.AdminName, "admin display name, used for a new user")
	flag.Parse()

	if err := run(cfg, *email, *name); err != nil {
		fmt.Fprintln(os.Stderr, "createadmin:", err)
		os.Exit(1)
	}
}

func run(cfg config.AppConfig, email, name string) error {
	in := bufio.NewReader(os.Stdin)

	if email == "" {
		fmt.Print("Email: ")
		line, err := in.ReadString('\n')
		if err != nil {
			return fmt.Errorf("read email: %w", err)
		}
		email = strings.TrimSpace(line)
	}

	password := cfg.AdminPassword
	if password == "" && term.IsTerminal(int(os.Stdin.Fd())) {
		var err error
		if password, err = promptPassword(); err != nil {
			return err
		}
	}

	logger, err := app.NewLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := db.ConnectDB(ctx, cfg.DatabaseURL, 2)
	if err != nil {
		return err
	}
	defer pool.Close()

	store := postgres.NewDB(pool)
	users := userUsecase.NewUserService(postgres.NewUserRepository(store), postgres.NewRoleRepository(store), logger)

	res, err := users.EnsureAdmin(ctx, email, password, name)
	if err != nil {
		return err
	}

	switch {
	case res.UserCreated:
		fmt.Printf("created admin user %s (%s)\n", res.User.Email, res.User.ID)
	case res.RoleGranted:
		fmt.Printf("granted admin role to %s (%s)\n", res.User.Email, res.User.ID)
	default:
		fmt.Printf("%s is already an admin\n", res.User.Email)
	}
	return nil
}

// promptPassword reads the password twice without echo.
func promptPassword() (string, error) {
	fd := int(os.Stdin.Fd())

	fmt.Print("Password (empty to keep an existing user's): ")
	first, err := term.ReadPassword(fd)
	fmt.Println()
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	if len(first) == 0 {
		return "", nil
	}

	fmt.Print("Repeat password: ")
	second, err := term.ReadPassword(fd)
	fmt.Println()
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	if string(first) != string(second) {
		return "", errors.New("passwords do not match")
	}
	return string(first), nil
}
