package user

import (
	"context"
	"time"

	"github.com/sudo-init-do/fixhub/internal/location"
	"github.com/sudo-init-do/fixhub/internal/pricing"
)

type Role string

const (
	RoleCustomer Role = "customer"
	RolePro      Role = "pro"
	RoleAdmin    Role = "admin"
)

// Caller is the verified identity behind a request.
type Caller struct {
	ID   string
	Role Role
}

type Privacy struct {
	HideEmail    bool `json:"hide_email"`
	HidePhone    bool `json:"hide_phone"`
	HideLocation bool `json:"hide_location"`
}

// DefaultPrivacy hides everything.
var DefaultPrivacy = Privacy{HideEmail: true, HidePhone: true, HideLocation: true}

type Profile struct {
	PhotoURL      string          `json:"photo_url,omitempty"`
	Trades        []pricing.Trade `json:"trades"`
	TradesLocked  bool            `json:"trades_locked"`
	Score         int             `json:"score"`
	RatingsCount  int             `json:"ratings_count"`
	JobsDone      int             `json:"jobs_done"`
	WalletBalance pricing.Cents   `json:"wallet_balance"`
	Privacy       Privacy         `json:"privacy"`
}

type User struct {
	ID           string          `json:"id"`
	Role         Role            `json:"role"`
	Name         string          `json:"name"`
	Email        string          `json:"email"`
	Phone        string          `json:"phone"`
	PasswordHash string          `json:"-"`
	Active       bool            `json:"active"`
	Profile      Profile         `json:"profile"`
	LastLocation *location.Point `json:"last_location,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
}

// HasTrade reports whether the pro works in t. Pros without trades match
// every trade.
func (u *User) HasTrade(t pricing.Trade) bool {
	if len(u.Profile.Trades) == 0 {
		return true
	}
	for _, x := range u.Profile.Trades {
		if x == t {
			return true
		}
	}
	return false
}

// Store persists users and their last reported location.
type Store interface {
	CreateUser(ctx context.Context, u *User) error
	UserByID(ctx context.Context, id string) (*User, error)
	UserByEmail(ctx context.Context, email string) (*User, error)
	// UpdateUser applies fn to the user under a row lock and persists the
	// result unless fn fails.
	UpdateUser(ctx context.Context, id string, fn func(*User) error) (*User, error)
	ListUsers(ctx context.Context, role Role) ([]User, error)
	SaveLocation(ctx context.Context, userID string, rep location.Report) error
	LastReport(ctx context.Context, userID string) (*location.Report, error)
}

// CodeVerifier sends and checks one-time email codes.
type CodeVerifier interface {
	SendCode(ctx context.Context, email string) error
	VerifyCode(ctx context.Context, email, code string) (bool, error)
}
