package auth_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sudo-init-do/fixhub/internal/auth"
	mware "github.com/sudo-init-do/fixhub/internal/middleware"
	"github.com/sudo-init-do/fixhub/internal/store/memory"
	"github.com/sudo-init-do/fixhub/internal/user"
	"github.com/sudo-init-do/fixhub/internal/utils"
)

var secret = []byte("auth-test-secret")

// codes accepts "123456" for any email it was asked to send to.
type codes struct {
	mu   sync.Mutex
	sent map[string]bool
}

func (c *codes) SendCode(_ context.Context, email string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sent[email] = true
	return nil
}

func (c *codes) VerifyCode(_ context.Context, email, code string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sent[email] && code == "123456", nil
}

type welcomes struct{ to []string }

func (w *welcomes) EnqueueWelcomeEmail(_ context.Context, _, email, _ string) error {
	w.to = append(w.to, email)
	return nil
}

type testEnv struct {
	e        *echo.Echo
	codes    *codes
	welcomes *welcomes
}

func newEnv(t *testing.T) *testEnv {
	t.Helper()
	st := memory.New()
	env := &testEnv{codes: &codes{sent: map[string]bool{}}, welcomes: &welcomes{}}
	users := user.NewService(st, env.codes)
	h := auth.NewHandler(users, secret, time.Hour, "boot-secret", env.welcomes)

	e := echo.New()
	e.Validator = utils.NewRequestValidator()
	g := e.Group("/auth")
	g.POST("/otp", h.SendCode)
	g.POST("/signup", h.Signup)
	g.POST("/login", h.Login)
	g.POST("/password/forgot", h.ForgotPassword)
	g.POST("/password/reset", h.ResetPassword)
	g.POST("/admin/bootstrap", h.BootstrapAdmin)
	g.GET("/me", h.Me, mware.JWTMiddleware(secret))
	env.e = e
	return env
}

func (env *testEnv) do(method, path, body, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	env.e.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var m map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &m))
	return m
}

const proSignup = `{"role":"pro","first_name":"Pat","last_name":"Pipe","email":"Pat@Example.com",
	"phone":"415-555-0100","password":"hunter22","photo_url":"memory://photos/pat.png",
	"trades":["Plumbing","HVAC"],"code":"123456"}`

func (env *testEnv) signup(t *testing.T) string {
	t.Helper()
	require.Equal(t, http.StatusOK, env.do(http.MethodPost, "/auth/otp", `{"email":"pat@example.com"}`, "").Code)
	rec := env.do(http.MethodPost, "/auth/signup", proSignup, "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode(t, rec)["token"].(string)
}

func TestSignupAndMe(t *testing.T) {
	env := newEnv(t)
	token := env.signup(t)

	id, role, err := utils.ParseSession(secret, token)
	require.NoError(t, err)
	assert.Equal(t, "pro", role)
	assert.Equal(t, []string{"pat@example.com"}, env.welcomes.to)

	rec := env.do(http.MethodGet, "/auth/me", "", token)
	require.Equal(t, http.StatusOK, rec.Code)
	var me user.User
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &me))
	assert.Equal(t, id, me.ID)
	assert.Equal(t, 85, me.Profile.Score)
	assert.Equal(t, 1, me.Profile.RatingsCount)
	assert.True(t, me.Profile.TradesLocked)
	assert.Equal(t, user.DefaultPrivacy, me.Profile.Privacy)
	assert.NotContains(t, rec.Body.String(), "hunter22")

	assert.Equal(t, http.StatusUnauthorized, env.do(http.MethodGet, "/auth/me", "", "").Code)
}

func TestSignupRejections(t *testing.T) {
	env := newEnv(t)

	rec := env.do(http.MethodPost, "/auth/signup", `{"role":"pro","email":"x"}`, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// No code was ever sent to this address.
	rec = env.do(http.MethodPost, "/auth/signup", proSignup, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	env.signup(t)
	require.Equal(t, http.StatusOK, env.do(http.MethodPost, "/auth/otp", `{"email":"other@example.com"}`, "").Code)
	rec = env.do(http.MethodPost, "/auth/signup", proSignup, "")
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "email_taken", decode(t, rec)["reason"])

	// The address is taken, so no code goes out.
	rec = env.do(http.MethodPost, "/auth/otp", `{"email":"PAT@example.com"}`, "")
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestProSignupNeedsPhotoAndTrades(t *testing.T) {
	env := newEnv(t)
	require.Equal(t, http.StatusOK, env.do(http.MethodPost, "/auth/otp", `{"email":"pat@example.com"}`, "").Code)

	noPhoto := strings.Replace(proSignup, `"photo_url":"memory://photos/pat.png",`, "", 1)
	assert.Equal(t, http.StatusBadRequest, env.do(http.MethodPost, "/auth/signup", noPhoto, "").Code)

	threeTrades := strings.Replace(proSignup, `["Plumbing","HVAC"]`, `["Plumbing","HVAC","Electrical"]`, 1)
	assert.Equal(t, http.StatusBadRequest, env.do(http.MethodPost, "/auth/signup", threeTrades, "").Code)

	badTrade := strings.Replace(proSignup, `["Plumbing","HVAC"]`, `["Roofing"]`, 1)
	assert.Equal(t, http.StatusBadRequest, env.do(http.MethodPost, "/auth/signup", badTrade, "").Code)
}

func TestLogin(t *testing.T) {
	env := newEnv(t)
	env.signup(t)

	rec := env.do(http.MethodPost, "/auth/login", `{"email":"pat@example.com","password":"hunter22"}`, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "pro", decode(t, rec)["role"])

	rec = env.do(http.MethodPost, "/auth/login", `{"email":"pat@example.com","password":"wrong"}`, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = env.do(http.MethodPost, "/auth/login", `{"email":"nobody@example.com","password":"hunter22"}`, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestPasswordReset(t *testing.T) {
	env := newEnv(t)
	env.signup(t)

	rec := env.do(http.MethodPost, "/auth/password/forgot", `{"email":"ghost@example.com"}`, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = env.do(http.MethodPost, "/auth/password/forgot", `{"email":"pat@example.com"}`, "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(http.MethodPost, "/auth/password/reset", `{"email":"pat@example.com","code":"000000","new_password":"newpass1"}`, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(http.MethodPost, "/auth/password/reset", `{"email":"pat@example.com","code":"123456","new_password":"newpass1"}`, "")
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, http.StatusUnauthorized, env.do(http.MethodPost, "/auth/login", `{"email":"pat@example.com","password":"hunter22"}`, "").Code)
	assert.Equal(t, http.StatusOK, env.do(http.MethodPost, "/auth/login", `{"email":"pat@example.com","password":"newpass1"}`, "").Code)
}

func TestBootstrapAdmin(t *testing.T) {
	env := newEnv(t)
	env.signup(t)

	rec := env.do(http.MethodPost, "/auth/admin/bootstrap", `{"email":"pat@example.com","secret":"nope"}`, "")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = env.do(http.MethodPost, "/auth/admin/bootstrap", `{"email":"pat@example.com","secret":"boot-secret"}`, "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(http.MethodPost, "/auth/login", `{"email":"pat@example.com","password":"hunter22"}`, "")
	assert.Equal(t, "admin", decode(t, rec)["role"])
}
