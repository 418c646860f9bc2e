package payments

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sudo-init-do/fixhub/internal/pricing"
)

func TestHTTPProcessorCharge(t *testing.T) {
	var gotKey, gotAuth string
	var got ChargeRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/charges", r.URL.Path)
		gotKey = r.Header.Get("Idempotency-Key")
		gotAuth = r.Header.Get("Authorization")
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_ = json.NewEncoder(w).Encode(Charge{ID: "ch_1", Amount: got.Amount, Status: "succeeded"})
	}))
	defer srv.Close()

	p := NewHTTPProcessor(srv.URL+"/", "sk_test", srv.Client())
	ch, err := p.Charge(context.Background(), ChargeRequest{
		MethodID:       "pm_1",
		Amount:         pricing.Cents(8500),
		IdempotencyKey: "job-1",
	})
	require.NoError(t, err)
	assert.Equal(t, "ch_1", ch.ID)
	assert.Equal(t, pricing.Cents(8500), got.Amount)
	assert.Equal(t, "usd", got.Currency)
	assert.Equal(t, "job-1", gotKey)
	assert.Equal(t, "Bearer sk_test", gotAuth)
}

func TestHTTPProcessorErrors(t *testing.T) {
	status := http.StatusPaymentRequired
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
		_, _ = w.Write([]byte(`{"error":"nope"}`))
	}))
	defer srv.Close()
	p := NewHTTPProcessor(srv.URL, "k", srv.Client())

	_, err := p.Charge(context.Background(), ChargeRequest{Amount: 100})
	assert.ErrorIs(t, err, ErrDeclined)

	status = http.StatusInternalServerError
	_, err = p.Charge(context.Background(), ChargeRequest{Amount: 100})
	assert.ErrorIs(t, err, ErrProcessor)
	assert.NotErrorIs(t, err, ErrDeclined)
}

func TestSandboxIdempotencyAndDecline(t *testing.T) {
	s := NewSandbox("pm_bad")
	ctx := context.Background()

	first, err := s.Charge(ctx, ChargeRequest{MethodID: "pm_ok", Amount: 8500, IdempotencyKey: "job-1"})
	require.NoError(t, err)
	again, err := s.Charge(ctx, ChargeRequest{MethodID: "pm_ok", Amount: 8500, IdempotencyKey: "job-1"})
	require.NoError(t, err)
	assert.Equal(t, first.ID, again.ID)
	assert.Equal(t, pricing.Cents(8500), s.Captured())

	_, err = s.Charge(ctx, ChargeRequest{MethodID: "pm_bad", Amount: 100, IdempotencyKey: "job-2"})
	assert.ErrorIs(t, err, ErrDeclined)
	assert.Equal(t, pricing.Cents(8500), s.Captured())
}
