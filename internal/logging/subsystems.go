package logging

import (
	"github.com/sudo-init-do/fixhub/internal/alerts"
	"github.com/sudo-init-do/fixhub/internal/auth"
	"github.com/sudo-init-do/fixhub/internal/checkout"
	"github.com/sudo-init-do/fixhub/internal/db"
	"github.com/sudo-init-do/fixhub/internal/marketplace"
	"github.com/sudo-init-do/fixhub/internal/matching"
	"github.com/sudo-init-do/fixhub/internal/messaging"
	"github.com/sudo-init-do/fixhub/internal/photos"
	"github.com/sudo-init-do/fixhub/internal/store/postgres"
	"github.com/sudo-init-do/fixhub/internal/user"
	"github.com/sudo-init-do/fixhub/internal/vault"
)

// Setup hands every package its subsystem logger, starts file logging when
// logFile is set and applies debugLevel.
func Setup(logFile, debugLevel string) error {
	marketplace.UseLogger(Logger(SubsysJobs))
	matching.UseLogger(Logger(SubsysMatching))
	checkout.UseLogger(Logger(SubsysCheckout))
	user.UseLogger(Logger(SubsysUser))
	auth.UseLogger(Logger(SubsysUser))
	vault.UseLogger(Logger(SubsysVault))
	alerts.UseLogger(Logger(SubsysAlerts))
	messaging.UseLogger(Logger(SubsysFeed))
	photos.UseLogger(Logger(SubsysHTTP))
	db.UseLogger(Logger(SubsysStore))
	postgres.UseLogger(Logger(SubsysStore))
	Logger(SubsysWorker)

	if logFile != "" {
		if err := InitLogRotator(logFile); err != nil {
			return err
		}
	}
	return ParseAndSetDebugLevels(debugLevel)
}
