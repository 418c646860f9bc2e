package vault

import (
	"context"
	"time"
)

// Method is a stored payment method. Only display data is kept; the full
// card number never reaches the store.
type Method struct {
	ID         string    `json:"id"`
	CustomerID string    `json:"customer_id"`
	Brand      Brand     `json:"brand"`
	Last4      string    `json:"last4"`
	ExpMonth   int       `json:"exp_month"`
	ExpYear    int       `json:"exp_year"`
	Label      string    `json:"label,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// Pin is a customer's hashed vault PIN and its failure counter.
type Pin struct {
	CustomerID     string
	Hash           string
	FailedAttempts int
	LockedUntil    *time.Time
	UpdatedAt      time.Time
}

// Store persists PINs and payment methods.
type Store interface {
	GetPin(ctx context.Context, customerID string) (*Pin, error)
	// CreatePin fails with pin_already_set if the customer has a PIN.
	CreatePin(ctx context.Context, p *Pin) error
	UpdatePin(ctx context.Context, customerID string, fn func(*Pin) error) (*Pin, error)

	AddMethod(ctx context.Context, m *Method) error
	ListMethods(ctx context.Context, customerID string) ([]Method, error)
	GetMethod(ctx context.Context, customerID, id string) (*Method, error)
	DeleteMethod(ctx context.Context, customerID, id string) error
}
