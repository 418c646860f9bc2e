package vault

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"

	"github.com/sudo-init-do/fixhub/internal/apperr"
	"github.com/sudo-init-do/fixhub/internal/user"
	"github.com/sudo-init-do/fixhub/internal/utils"
)

// Policy controls PIN lockout and unlock sessions.
type Policy struct {
	MaxAttempts int
	Lockout     time.Duration
	SessionTTL  time.Duration
}

var DefaultPolicy = Policy{
	MaxAttempts: 5,
	Lockout:     15 * time.Minute,
	SessionTTL:  15 * time.Minute,
}

// Service guards stored payment methods behind a PIN.
type Service struct {
	store  Store
	secret []byte
	policy Policy
	now    func() time.Time
}

func NewService(store Store, secret []byte, policy Policy) *Service {
	return &Service{store: store, secret: secret, policy: policy, now: time.Now}
}

// SetClock overrides the time source.
func (s *Service) SetClock(now func() time.Time) { s.now = now }

func validPin(pin string) bool {
	if len(pin) < 4 || len(pin) > 6 {
		return false
	}
	for _, r := range pin {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func requireCustomer(c user.Caller) error {
	if c.Role != user.RoleCustomer {
		return apperr.Permission(apperr.ReasonWrongRole, "only customers have a payment vault")
	}
	return nil
}

// HasPin reports whether the customer has set a PIN.
func (s *Service) HasPin(ctx context.Context, c user.Caller) (bool, error) {
	_, err := s.store.GetPin(ctx, c.ID)
	if err == nil {
		return true, nil
	}
	if apperr.KindOf(err) == apperr.KindNotFound {
		return false, nil
	}
	return false, err
}

// SetPin stores the customer's PIN. It can only be set once.
func (s *Service) SetPin(ctx context.Context, c user.Caller, pin, confirm string) error {
	if err := requireCustomer(c); err != nil {
		return err
	}
	if !validPin(pin) {
		return apperr.Validation("PIN must be 4-6 digits")
	}
	if pin != confirm {
		return apperr.Validation("PINs do not match")
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(pin), bcrypt.DefaultCost)
	if err != nil {
		return apperr.Internal("hash pin", err)
	}
	return s.store.CreatePin(ctx, &Pin{
		CustomerID: c.ID,
		Hash:       string(hashed),
		UpdatedAt:  s.now().UTC(),
	})
}

// Session is proof of a recent successful unlock.
type Session struct {
	Token     string    `json:"vault_token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Unlock checks the PIN and opens a vault session. Too many consecutive
// wrong PINs lock the vault for the lockout period.
func (s *Service) Unlock(ctx context.Context, c user.Caller, pin string) (*Session, error) {
	if err := requireCustomer(c); err != nil {
		return nil, err
	}

	var outcome error
	_, err := s.store.UpdatePin(ctx, c.ID, func(p *Pin) error {
		now := s.now().UTC()
		if p.LockedUntil != nil && now.Before(*p.LockedUntil) {
			outcome = apperr.Conflict(apperr.ReasonPinLocked,
				fmt.Sprintf("too many wrong PINs, try again after %s", p.LockedUntil.Format(time.Kitchen)))
			return nil
		}
		p.UpdatedAt = now
		if bcrypt.CompareHashAndPassword([]byte(p.Hash), []byte(pin)) != nil {
			p.FailedAttempts++
			outcome = apperr.Permission(apperr.ReasonWrongPin, "wrong PIN")
			if p.FailedAttempts >= s.policy.MaxAttempts {
				until := now.Add(s.policy.Lockout)
				p.LockedUntil = &until
				p.FailedAttempts = 0
				log.Warnf("Vault locked for customer %s until %s", c.ID, until.Format(time.RFC3339))
			}
			return nil
		}
		p.FailedAttempts = 0
		p.LockedUntil = nil
		return nil
	})
	if err != nil {
		if apperr.KindOf(err) == apperr.KindNotFound {
			return nil, apperr.Conflict(apperr.ReasonPinNotSet, "set a PIN first")
		}
		return nil, err
	}
	if outcome != nil {
		return nil, outcome
	}

	tok, exp, err := utils.IssueVaultToken(s.secret, c.ID, s.policy.SessionTTL, s.now())
	if err != nil {
		return nil, apperr.Internal("issue vault token", errors.Wrap(err, "sign"))
	}
	return &Session{Token: tok, ExpiresAt: exp}, nil
}

// ClearLockout resets a customer's failure counter and lock.
func (s *Service) ClearLockout(ctx context.Context, customerID string) error {
	_, err := s.store.UpdatePin(ctx, customerID, func(p *Pin) error {
		p.FailedAttempts = 0
		p.LockedUntil = nil
		p.UpdatedAt = s.now().UTC()
		return nil
	})
	return err
}

// CheckSession verifies a vault token was issued to the caller and has not
// expired.
func (s *Service) CheckSession(c user.Caller, token string) error {
	if token == "" {
		return apperr.Permission(apperr.ReasonVaultLocked, "unlock your payment methods with your PIN")
	}
	owner, err := utils.ParseVaultToken(s.secret, token)
	if err != nil || owner != c.ID {
		return apperr.Permission(apperr.ReasonVaultLocked, "vault session expired, enter your PIN again")
	}
	return nil
}
