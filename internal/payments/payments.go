// Package payments talks to the card processor that moves customer funds.
package payments

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/sudo-init-do/fixhub/internal/pricing"
)

var (
	// ErrDeclined means the processor refused the card. Retrying with the
	// same method will not help.
	ErrDeclined = errors.New("payment declined")
	// ErrProcessor means the processor failed or could not be reached.
	ErrProcessor = errors.New("payment processor error")
)

// ChargeRequest asks for an exact amount to be captured from a stored
// method. IdempotencyKey makes retries of the same charge safe.
type ChargeRequest struct {
	MethodID       string        `json:"method_id"`
	CustomerID     string        `json:"customer_id"`
	Amount         pricing.Cents `json:"amount"`
	Currency       string        `json:"currency"`
	Description    string        `json:"description"`
	IdempotencyKey string        `json:"-"`
}

type Charge struct {
	ID     string        `json:"id"`
	Amount pricing.Cents `json:"amount"`
	Status string        `json:"status"`
}

// Processor captures funds.
type Processor interface {
	Charge(ctx context.Context, req ChargeRequest) (*Charge, error)
}

// HTTPProcessor calls a processor's REST API.
type HTTPProcessor struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

func NewHTTPProcessor(baseURL, apiKey string, client *http.Client) *HTTPProcessor {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPProcessor{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		client:  client,
	}
}

func (p *HTTPProcessor) Charge(ctx context.Context, req ChargeRequest) (*Charge, error) {
	if req.Currency == "" {
		req.Currency = "usd"
	}
	b, err := json.Marshal(req)
	if err != nil {
		return nil, errors.Wrap(err, "encode charge")
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/charges", bytes.NewReader(b))
	if err != nil {
		return nil, errors.Wrap(err, "build charge request")
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+p.apiKey)
	if req.IdempotencyKey != "" {
		httpReq.Header.Set("Idempotency-Key", req.IdempotencyKey)
	}

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProcessor, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusPaymentRequired:
		return nil, ErrDeclined
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("%w: status=%d body=%s", ErrProcessor, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var ch Charge
	if err := json.NewDecoder(resp.Body).Decode(&ch); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", ErrProcessor, err)
	}
	if ch.Status == "declined" {
		return nil, ErrDeclined
	}
	return &ch, nil
}

// Sandbox approves every charge except for methods listed as declining.
// Repeating an idempotency key returns the first result without charging
// again.
type Sandbox struct {
	mu       sync.Mutex
	declined map[string]bool
	charges  map[string]*Charge
	captured pricing.Cents
}

func NewSandbox(declinedMethods ...string) *Sandbox {
	s := &Sandbox{
		declined: make(map[string]bool),
		charges:  make(map[string]*Charge),
	}
	for _, m := range declinedMethods {
		s.declined[m] = true
	}
	return s
}

// Decline makes future charges on methodID fail.
func (s *Sandbox) Decline(methodID string) {
	s.mu.Lock()
	s.declined[methodID] = true
	s.mu.Unlock()
}

func (s *Sandbox) Charge(ctx context.Context, req ChargeRequest) (*Charge, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProcessor, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if req.IdempotencyKey != "" {
		if ch, ok := s.charges[req.IdempotencyKey]; ok {
			return ch, nil
		}
	}
	if s.declined[req.MethodID] {
		return nil, ErrDeclined
	}
	ch := &Charge{ID: "ch_" + uuid.New().String(), Amount: req.Amount, Status: "succeeded"}
	if req.IdempotencyKey != "" {
		s.charges[req.IdempotencyKey] = ch
	}
	s.captured += req.Amount
	return ch, nil
}

// Captured is the total amount charged so far.
func (s *Sandbox) Captured() pricing.Cents {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.captured
}
