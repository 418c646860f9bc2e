package wallet_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sudo-init-do/fixhub/internal/apperr"
	"github.com/sudo-init-do/fixhub/internal/pricing"
	"github.com/sudo-init-do/fixhub/internal/wallet"
)

type fakeStore struct {
	balances map[string]pricing.Cents
	txns     []wallet.Txn
}

func (f *fakeStore) Balance(ctx context.Context, proID string) (pricing.Cents, error) {
	b, ok := f.balances[proID]
	if !ok {
		return 0, apperr.NotFound("pro")
	}
	return b, nil
}

func (f *fakeStore) ListTxns(ctx context.Context, proID string) ([]wallet.Txn, error) {
	var out []wallet.Txn
	for _, t := range f.txns {
		if t.ProID == proID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (f *fakeStore) AllTxns(ctx context.Context, limit int) ([]wallet.Txn, error) {
	if limit > 0 && len(f.txns) > limit {
		return f.txns[:limit], nil
	}
	return f.txns, nil
}

func newStore() *fakeStore {
	now := time.Now().UTC()
	return &fakeStore{
		balances: map[string]pricing.Cents{"pro-1": 8330, "pro-2": 0},
		txns: []wallet.Txn{
			{ID: "t2", ProID: "pro-1", JobID: "j2", Type: wallet.TxnPayout, Amount: 4165, CreatedAt: now},
			{ID: "t1", ProID: "pro-1", JobID: "j1", Type: wallet.TxnPayout, Amount: 4165, CreatedAt: now.Add(-time.Hour)},
			{ID: "t3", ProID: "pro-3", JobID: "j3", Type: wallet.TxnPayout, Amount: 980, CreatedAt: now},
		},
	}
}

func serve(t *testing.T, h echo.HandlerFunc, target, userID string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if userID != "" {
		c.Set("user_id", userID)
	}
	require.NoError(t, h(c))
	return rec
}

func TestBalance(t *testing.T) {
	h := wallet.NewHandler(newStore())

	rec := serve(t, h.Balance, "/wallet/balance", "pro-1")
	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Balance   int64  `json:"balance"`
		Formatted string `json:"formatted"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, int64(8330), body.Balance)
	assert.Equal(t, "$83.30", body.Formatted)

	rec = serve(t, h.Balance, "/wallet/balance", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = serve(t, h.Balance, "/wallet/balance", "ghost")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestTransactions(t *testing.T) {
	h := wallet.NewHandler(newStore())

	rec := serve(t, h.Transactions, "/wallet/transactions", "pro-1")
	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Transactions []wallet.Txn `json:"transactions"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Transactions, 2)
	assert.Equal(t, "t2", body.Transactions[0].ID)

	rec = serve(t, h.Transactions, "/wallet/transactions", "pro-2")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"transactions":[]}`, rec.Body.String())
}

func TestAllTransactions(t *testing.T) {
	h := wallet.NewHandler(newStore())

	rec := serve(t, h.AllTransactions, "/admin/transactions?limit=2", "admin")
	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Transactions []wallet.Txn `json:"transactions"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Len(t, body.Transactions, 2)

	rec = serve(t, h.AllTransactions, "/admin/transactions?limit=zero", "admin")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPayoutNote(t *testing.T) {
	assert.Equal(t, "Payout for Leak repair (2% platform fee applied)", wallet.PayoutNote("Leak repair"))
	assert.NoError(t, wallet.ValidateCredit(0))
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(wallet.ValidateCredit(-1)))
}
