// Command worker drains the notification queue: it writes in-app inbox
// entries and sends job, welcome and operator emails.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sudo-init-do/fixhub/internal/alerts"
	"github.com/sudo-init-do/fixhub/internal/config"
	"github.com/sudo-init-do/fixhub/internal/db"
	"github.com/sudo-init-do/fixhub/internal/logging"
	"github.com/sudo-init-do/fixhub/internal/store/postgres"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		return err
	}
	if err := logging.Setup(cfg.LogFile(), cfg.DebugLevel); err != nil {
		return err
	}
	defer logging.Close()
	log := logging.Logger(logging.SubsysWorker)

	if cfg.RedisAddr == "" {
		return errors.New("REDIS_ADDR is required for the worker")
	}
	if cfg.Store != config.StorePostgres {
		return errors.New("the worker needs the postgres store; the memory store is not shared across processes")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := db.Init(ctx, cfg.DSN())
	if err != nil {
		return err
	}
	defer pool.Close()
	st := postgres.New(pool)

	mailer, err := alerts.NewMailer(alerts.MailConfig{
		Provider:     cfg.MailProvider,
		ReplyTo:      cfg.MailReplyTo,
		SMTPHost:     cfg.SMTPHost,
		SMTPPort:     cfg.SMTPPort,
		SMTPUsername: cfg.SMTPUsername,
		SMTPPassword: cfg.SMTPPassword,
		SMTPFrom:     cfg.SMTPFrom,
		PlunkAPIKey:  cfg.PlunkAPIKey,
		PlunkFrom:    cfg.PlunkFrom,
		PlunkAPIURL:  cfg.PlunkAPIURL,
	})
	if err != nil {
		return err
	}

	srv := alerts.NewServer(cfg.RedisAddr, cfg.WorkerConcurrency)
	mux := alerts.NewServeMux(alerts.NewHandlers(st, st, mailer))

	log.Infof("Worker starting (redis %s, concurrency %d)", cfg.RedisAddr, cfg.WorkerConcurrency)
	if err := srv.Start(mux); err != nil {
		return err
	}
	<-ctx.Done()
	log.Infof("Worker shutting down")
	srv.Shutdown()
	return nil
}
