// Package otp is a client for the email one-time-code service. Codes are
// generated, mailed and checked by that service only.
package otp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/pkg/errors"
)

type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), http: httpClient}
}

type codeRequest struct {
	ToEmail string `json:"toEmail"`
	Code    string `json:"code,omitempty"`
}

func (c *Client) post(ctx context.Context, path string, body codeRequest) (*http.Response, error) {
	if c.baseURL == "" {
		return nil, errors.New("otp service url not configured")
	}
	b, err := json.Marshal(body)
	if err != nil {
		return nil, errors.Wrap(err, "encode otp request")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(b))
	if err != nil {
		return nil, errors.Wrap(err, "build otp request")
	}
	req.Header.Set("Content-Type", "application/json")
	return c.http.Do(req)
}

// SendCode asks the service to email a code.
func (c *Client) SendCode(ctx context.Context, email string) error {
	resp, err := c.post(ctx, "/sendOtp", codeRequest{ToEmail: email})
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("send otp: status=%d", resp.StatusCode)
	}
	return nil
}

// VerifyCode reports whether code is the current code for email. A 4xx
// answer is a wrong code; anything else non-2xx is a service failure.
func (c *Client) VerifyCode(ctx context.Context, email, code string) (bool, error) {
	resp, err := c.post(ctx, "/verifyOtp", codeRequest{ToEmail: email, Code: code})
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()
	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return true, nil
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		return false, nil
	}
	return false, fmt.Errorf("verify otp: status=%d", resp.StatusCode)
}
