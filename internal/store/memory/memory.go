// Package memory is an in-process implementation of every store. One mutex
// guards all state, so each method is atomic across jobs, wallets and
// users.
package memory

import (
	"sync"

	"github.com/sudo-init-do/fixhub/internal/location"
	"github.com/sudo-init-do/fixhub/internal/marketplace"
	"github.com/sudo-init-do/fixhub/internal/notifications"
	"github.com/sudo-init-do/fixhub/internal/portfolio"
	"github.com/sudo-init-do/fixhub/internal/user"
	"github.com/sudo-init-do/fixhub/internal/vault"
	"github.com/sudo-init-do/fixhub/internal/wallet"
)

type Store struct {
	mu sync.Mutex

	users   map[string]*user.User
	emails  map[string]string
	reports map[string]location.Report

	jobs       map[string]*marketplace.Job
	broadcasts map[string]*marketplace.Broadcast
	txns       []wallet.Txn
	paidJobs   map[string]bool

	pins    map[string]*vault.Pin
	methods map[string]*vault.Method

	posts []*portfolio.Post
	inbox []*notifications.Notification
}

var (
	_ user.Store            = (*Store)(nil)
	_ location.ReportSource = (*Store)(nil)
	_ marketplace.Store     = (*Store)(nil)
	_ wallet.Store          = (*Store)(nil)
	_ vault.Store           = (*Store)(nil)
	_ portfolio.Store       = (*Store)(nil)
	_ notifications.Store   = (*Store)(nil)
)

func New() *Store {
	return &Store{
		users:      make(map[string]*user.User),
		emails:     make(map[string]string),
		reports:    make(map[string]location.Report),
		jobs:       make(map[string]*marketplace.Job),
		broadcasts: make(map[string]*marketplace.Broadcast),
		paidJobs:   make(map[string]bool),
		pins:       make(map[string]*vault.Pin),
		methods:    make(map[string]*vault.Method),
	}
}

func cloneStrings(s []string) []string {
	if s == nil {
		return nil
	}
	return append([]string{}, s...)
}
