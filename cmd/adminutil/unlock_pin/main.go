package main

import (
	"context"
	"fmt"
	"os"

	flags "github.com/jessevdk/go-flags"
	"github.com/joho/godotenv"

	"github.com/sudo-init-do/fixhub/internal/db"
	"github.com/sudo-init-do/fixhub/internal/store/postgres"
	"github.com/sudo-init-do/fixhub/internal/vault"
)

type options struct {
	Email       string `long:"email" required:"true" description:"Email of the customer whose PIN lockout to clear"`
	DatabaseURL string `long:"dburl" env:"DATABASE_URL" required:"true" description:"Postgres connection string"`
}

// unlock_pin clears a customer's PIN lockout and failure count.
// Usage:
//
//	go run ./cmd/adminutil/unlock_pin --email user@example.com
func main() {
	_ = godotenv.Load()
	var opts options
	if _, err := flags.Parse(&opts); err != nil {
		os.Exit(1)
	}

	ctx := context.Background()
	pool, err := db.Init(ctx, opts.DatabaseURL)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to connect: %v\n", err)
		os.Exit(1)
	}
	defer pool.Close()

	st := postgres.New(pool)
	u, err := st.UserByEmail(ctx, opts.Email)
	if err != nil {
		fmt.Fprintf(os.Stderr, "no user with email %s: %v\n", opts.Email, err)
		os.Exit(1)
	}
	if err := vault.NewService(st, nil, vault.DefaultPolicy).ClearLockout(ctx, u.ID); err != nil {
		fmt.Fprintf(os.Stderr, "failed to clear lockout: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("PIN lockout cleared for %s.\n", opts.Email)
}
