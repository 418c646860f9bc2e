package main

import (
	"context"
	"fmt"
	"os"

	flags "github.com/jessevdk/go-flags"
	"github.com/joho/godotenv"

	"github.com/sudo-init-do/fixhub/internal/db"
	"github.com/sudo-init-do/fixhub/internal/store/postgres"
	"github.com/sudo-init-do/fixhub/internal/user"
)

type options struct {
	Email       string `long:"email" required:"true" description:"Email of the user to promote to admin"`
	DatabaseURL string `long:"dburl" env:"DATABASE_URL" required:"true" description:"Postgres connection string"`
}

// promote_admin grants the admin role by email.
// Usage:
//
//	go run ./cmd/adminutil/promote_admin --email user@example.com
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

	u, err := user.NewService(postgres.New(pool), nil).PromoteAdmin(ctx, opts.Email)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to promote %s: %v\n", opts.Email, err)
		os.Exit(1)
	}
	fmt.Printf("User %s (%s) promoted to admin.\n", u.Email, u.ID)
}
