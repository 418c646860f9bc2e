package user

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/sudo-init-do/fixhub/internal/apperr"
	"github.com/sudo-init-do/fixhub/internal/pricing"
)

const minPasswordLen = 6

// Service holds account, profile and reputation operations.
type Service struct {
	store Store
	codes CodeVerifier
	now   func() time.Time
}

func NewService(store Store, codes CodeVerifier) *Service {
	return &Service{store: store, codes: codes, now: time.Now}
}

type SignupInput struct {
	Role      Role            `json:"role" validate:"required,oneof=customer pro"`
	FirstName string          `json:"first_name" validate:"required"`
	LastName  string          `json:"last_name" validate:"required"`
	Email     string          `json:"email" validate:"required,email"`
	Phone     string          `json:"phone" validate:"required"`
	Password  string          `json:"password" validate:"required,min=6"`
	PhotoURL  string          `json:"photo_url"`
	Trades    []pricing.Trade `json:"trades"`
	Code      string          `json:"code" validate:"required"`
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validEmail(email string) bool {
	return email != "" && strings.Contains(email, "@")
}

func digitCount(s string) int {
	n := 0
	for _, r := range s {
		if r >= '0' && r <= '9' {
			n++
		}
	}
	return n
}

// normalizeTrades validates a pro's trade choice: 1 or 2 distinct trades
// from the fixed set.
func normalizeTrades(trades []pricing.Trade) ([]pricing.Trade, error) {
	seen := make(map[pricing.Trade]bool)
	var out []pricing.Trade
	for _, t := range trades {
		if !pricing.ValidTrade(t) {
			return nil, apperr.Validation("unknown trade %q", t)
		}
		if seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	if len(out) < 1 || len(out) > 2 {
		return nil, apperr.Validation("pick 1 or 2 trades")
	}
	return out, nil
}

func (in *SignupInput) validate() error {
	in.Email = normalizeEmail(in.Email)
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)
	in.Phone = strings.TrimSpace(in.Phone)

	if in.Role != RoleCustomer && in.Role != RolePro {
		return apperr.Validation("role must be customer or pro")
	}
	if in.FirstName == "" || in.LastName == "" {
		return apperr.Validation("first and last name are required")
	}
	if !validEmail(in.Email) {
		return apperr.Validation("enter a valid email")
	}
	if digitCount(in.Phone) < 8 {
		return apperr.Validation("enter a valid phone number")
	}
	if len(in.Password) < minPasswordLen {
		return apperr.Validation("password must be at least %d characters", minPasswordLen)
	}
	if in.Role == RolePro {
		if strings.TrimSpace(in.PhotoURL) == "" {
			return apperr.Validation("pros must add a profile photo")
		}
		trades, err := normalizeTrades(in.Trades)
		if err != nil {
			return err
		}
		in.Trades = trades
	}
	return nil
}

func (s *Service) ensureEmailFree(ctx context.Context, email string) error {
	_, err := s.store.UserByEmail(ctx, email)
	if err == nil {
		return apperr.Conflict(apperr.ReasonEmailTaken, "email already registered")
	}
	if apperr.KindOf(err) != apperr.KindNotFound {
		return err
	}
	return nil
}

// SendSignupCode checks the email is usable and asks the OTP service to
// send a code to it.
func (s *Service) SendSignupCode(ctx context.Context, email string) error {
	email = normalizeEmail(email)
	if !validEmail(email) {
		return apperr.Validation("enter a valid email")
	}
	if err := s.ensureEmailFree(ctx, email); err != nil {
		return err
	}
	if err := s.codes.SendCode(ctx, email); err != nil {
		return apperr.Collaborator(apperr.OTP, apperr.ReasonUnavailable, err)
	}
	return nil
}

func (s *Service) verifyCode(ctx context.Context, email, code string) error {
	if strings.TrimSpace(code) == "" {
		return apperr.Validation("verification code is required")
	}
	ok, err := s.codes.VerifyCode(ctx, email, strings.TrimSpace(code))
	if err != nil {
		return apperr.Collaborator(apperr.OTP, apperr.ReasonUnavailable, err)
	}
	if !ok {
		return apperr.Validation("invalid or expired code")
	}
	return nil
}

// Signup creates an account once the emailed code is confirmed. Pros start
// with a seeded score and a locked trade set.
func (s *Service) Signup(ctx context.Context, in SignupInput) (*User, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	if err := s.ensureEmailFree(ctx, in.Email); err != nil {
		return nil, err
	}
	if err := s.verifyCode(ctx, in.Email, in.Code); err != nil {
		return nil, err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperr.Internal("hash password", err)
	}

	u := &User{
		ID:           uuid.New().String(),
		Role:         in.Role,
		Name:         in.FirstName + " " + in.LastName,
		Email:        in.Email,
		Phone:        in.Phone,
		PasswordHash: string(hashed),
		Active:       true,
		Profile: Profile{
			Trades:  []pricing.Trade{},
			Privacy: DefaultPrivacy,
		},
		CreatedAt: s.now().UTC(),
	}
	if in.Role == RolePro {
		u.Profile.PhotoURL = in.PhotoURL
		u.Profile.Trades = in.Trades
		u.Profile.TradesLocked = true
		u.Profile.Score = newProScore
		u.Profile.RatingsCount = newProRatingsCount
	}

	if err := s.store.CreateUser(ctx, u); err != nil {
		return nil, err
	}
	log.Infof("Signup: %s %s", u.Role, u.ID)
	return u, nil
}

// Login checks credentials.
func (s *Service) Login(ctx context.Context, email, password string) (*User, error) {
	u, err := s.store.UserByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if apperr.KindOf(err) == apperr.KindNotFound {
			return nil, apperr.Permission(apperr.ReasonBadCredentials, "invalid credentials")
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, apperr.Permission(apperr.ReasonBadCredentials, "invalid credentials")
	}
	if !u.Active {
		return nil, apperr.Permission(apperr.ReasonSuspended, "account suspended")
	}
	return u, nil
}

// RequestPasswordReset sends a reset code to a registered email. Unknown
// emails succeed silently.
func (s *Service) RequestPasswordReset(ctx context.Context, email string) error {
	email = normalizeEmail(email)
	if !validEmail(email) {
		return apperr.Validation("enter a valid email")
	}
	if _, err := s.store.UserByEmail(ctx, email); err != nil {
		if apperr.KindOf(err) == apperr.KindNotFound {
			return nil
		}
		return err
	}
	if err := s.codes.SendCode(ctx, email); err != nil {
		return apperr.Collaborator(apperr.OTP, apperr.ReasonUnavailable, err)
	}
	return nil
}

// ResetPassword replaces the password after the emailed code is confirmed.
func (s *Service) ResetPassword(ctx context.Context, email, code, newPassword string) error {
	email = normalizeEmail(email)
	if len(newPassword) < minPasswordLen {
		return apperr.Validation("password must be at least %d characters", minPasswordLen)
	}
	u, err := s.store.UserByEmail(ctx, email)
	if err != nil {
		if apperr.KindOf(err) == apperr.KindNotFound {
			return apperr.Validation("invalid or expired code")
		}
		return err
	}
	if err := s.verifyCode(ctx, email, code); err != nil {
		return err
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return apperr.Internal("hash password", err)
	}
	_, err = s.store.UpdateUser(ctx, u.ID, func(u *User) error {
		u.PasswordHash = string(hashed)
		return nil
	})
	return err
}

// Get returns a user by id.
func (s *Service) Get(ctx context.Context, id string) (*User, error) {
	return s.store.UserByID(ctx, id)
}

// PromoteAdmin grants the admin role to the account behind email.
func (s *Service) PromoteAdmin(ctx context.Context, email string) (*User, error) {
	u, err := s.store.UserByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return nil, err
	}
	return s.store.UpdateUser(ctx, u.ID, func(u *User) error {
		u.Role = RoleAdmin
		return nil
	})
}

// List returns users, optionally filtered by role.
func (s *Service) List(ctx context.Context, role Role) ([]User, error) {
	return s.store.ListUsers(ctx, role)
}

// SetActive suspends or reactivates an account. Suspended users cannot log
// in or take new work.
func (s *Service) SetActive(ctx context.Context, id string, active bool) (*User, error) {
	return s.store.UpdateUser(ctx, id, func(u *User) error {
		u.Active = active
		return nil
	})
}
