package admin_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sudo-init-do/fixhub/internal/admin"
	"github.com/sudo-init-do/fixhub/internal/marketplace/marketplacetest"
	"github.com/sudo-init-do/fixhub/internal/pricing"
	"github.com/sudo-init-do/fixhub/internal/user"
)

func call(t *testing.T, h echo.HandlerFunc, method, target string, params ...string) (int, map[string]interface{}) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(method, target, nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if len(params) == 2 {
		c.SetParamNames(params[0])
		c.SetParamValues(params[1])
	}
	require.NoError(t, h(c))
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return rec.Code, body
}

func TestStatsAfterSettlement(t *testing.T) {
	f := marketplacetest.New(t)
	ctx := context.Background()
	pro := f.AddPro("Pat", 33, nil, pricing.Plumbing)
	j := f.ReadyForPayment(pro)
	_, err := f.Svc.MarkPaid(ctx, f.Customer, j.ID, pricing.Cents(8500))
	require.NoError(t, err)
	f.DirectJob(pro)

	users := user.NewService(f.Store, nil)
	h := admin.NewHandler(f.Store, users, f.Store, nil)

	code, body := call(t, h.Stats, http.MethodGet, "/admin/stats")
	require.Equal(t, http.StatusOK, code)
	jobs := body["jobs"].(map[string]interface{})
	assert.EqualValues(t, 1, jobs["paid"])
	assert.EqualValues(t, 1, jobs["assigned"])
	assert.EqualValues(t, 0, jobs["completed"])
	assert.EqualValues(t, 2, body["jobs_total"])
	assert.EqualValues(t, 8500, body["gross"])
	assert.EqualValues(t, 170, body["fees_collected"])
	assert.EqualValues(t, 8330, body["payouts"])

	code, body = call(t, h.ListWallets, http.MethodGet, "/admin/wallets")
	require.Equal(t, http.StatusOK, code)
	wallets := body["wallets"].([]interface{})
	require.Len(t, wallets, 1)
	assert.Equal(t, "$83.30", wallets[0].(map[string]interface{})["formatted"])
}

func TestSuspendAndActivate(t *testing.T) {
	f := marketplacetest.New(t)
	ctx := context.Background()
	pro := f.AddPro("Pat", 85, nil, pricing.Plumbing)
	users := user.NewService(f.Store, nil)
	h := admin.NewHandler(f.Store, users, f.Store, nil)

	code, _ := call(t, h.SuspendUser, http.MethodPost, "/admin/users/"+pro.ID+"/suspend", "id", pro.ID)
	require.Equal(t, http.StatusOK, code)
	u, err := f.Store.UserByID(ctx, pro.ID)
	require.NoError(t, err)
	assert.False(t, u.Active)

	code, _ = call(t, h.ActivateUser, http.MethodPost, "/admin/users/"+pro.ID+"/activate", "id", pro.ID)
	require.Equal(t, http.StatusOK, code)
	u, err = f.Store.UserByID(ctx, pro.ID)
	require.NoError(t, err)
	assert.True(t, u.Active)

	code, _ = call(t, h.SuspendUser, http.MethodPost, "/admin/users/ghost/suspend", "id", "ghost")
	assert.Equal(t, http.StatusNotFound, code)

	code, body := call(t, h.ListUsers, http.MethodGet, "/admin/users?role=pro")
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, body["users"], 1)

	code, _ = call(t, h.ListUsers, http.MethodGet, "/admin/users?role=wizard")
	assert.Equal(t, http.StatusBadRequest, code)
}
