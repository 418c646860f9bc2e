package otp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fakeService(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/sendOtp", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		if body["toEmail"] == "down@example.com" {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/verifyOtp", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		switch body["code"] {
		case "123456":
			w.WriteHeader(http.StatusOK)
		case "boom":
			w.WriteHeader(http.StatusInternalServerError)
		default:
			w.WriteHeader(http.StatusBadRequest)
		}
	})
	return httptest.NewServer(mux)
}

func TestSendCode(t *testing.T) {
	srv := fakeService(t)
	defer srv.Close()
	c := NewClient(srv.URL, srv.Client())

	assert.NoError(t, c.SendCode(context.Background(), "a@example.com"))
	assert.Error(t, c.SendCode(context.Background(), "down@example.com"))
}

func TestVerifyCode(t *testing.T) {
	srv := fakeService(t)
	defer srv.Close()
	c := NewClient(srv.URL, srv.Client())
	ctx := context.Background()

	ok, err := c.VerifyCode(ctx, "a@example.com", "123456")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = c.VerifyCode(ctx, "a@example.com", "000000")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = c.VerifyCode(ctx, "a@example.com", "boom")
	assert.Error(t, err)
}

func TestUnconfiguredClient(t *testing.T) {
	c := NewClient("", nil)
	assert.Error(t, c.SendCode(context.Background(), "a@example.com"))
}
