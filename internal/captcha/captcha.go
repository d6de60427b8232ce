// Package captcha relays human-verification tokens to the upstream
// verification service.
package captcha

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// ErrNotConfigured is returned when no secret is set.
var ErrNotConfigured = errors.New("captcha secret not configured")

// ErrMissingToken is returned when no token is supplied.
var ErrMissingToken = errors.New("captcha token is required")

// UpstreamError wraps failures of the verification service.
type UpstreamError struct {
	Op  string
	Err error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("captcha %s: %v", e.Op, e.Err)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// Response is the verification service answer, relayed as-is.
type Response struct {
	Success     bool     `json:"success"`
	ChallengeTS string   `json:"challenge_ts,omitempty"`
	Hostname    string   `json:"hostname,omitempty"`
	Score       *float64 `json:"score,omitempty"`
	Action      string   `json:"action,omitempty"`
	ErrorCodes  []string `json:"error-codes,omitempty"`
}

// Config configures a Verifier.
type Config struct {
	Secret    string
	VerifyURL string
	// RateLimit is the sustained number of upstream calls per second.
	RateLimit float64
	Burst     int
}

// Verifier posts tokens to the verification endpoint.
type Verifier struct {
	secret    string
	verifyURL string
	client    *http.Client
	limiter   *rate.Limiter
}

// NewVerifier creates a verifier. A nil client gets a 10 second timeout.
func NewVerifier(cfg Config, client *http.Client) *Verifier {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	limit := rate.Limit(cfg.RateLimit)
	if cfg.RateLimit <= 0 {
		limit = rate.Inf
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}

	return &Verifier{
		secret:    cfg.Secret,
		verifyURL: cfg.VerifyURL,
		client:    client,
		limiter:   rate.NewLimiter(limit, burst),
	}
}

// Verify checks token with the upstream service. remoteIP is optional.
func (v *Verifier) Verify(ctx context.Context, token, remoteIP string) (*Response, error) {
	if v.secret == "" {
		return nil, ErrNotConfigured
	}
	if strings.TrimSpace(token) == "" {
		return nil, ErrMissingToken
	}

	if err := v.limiter.Wait(ctx); err != nil {
		return nil, &UpstreamError{Op: "throttle", Err: err}
	}

	form := url.Values{}
	form.Set("secret", v.secret)
	form.Set("response", token)
	if remoteIP != "" {
		form.Set("remoteip", remoteIP)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, v.verifyURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, &UpstreamError{Op: "request", Err: err}
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := v.client.Do(req)
	if err != nil {
		return nil, &UpstreamError{Op: "request", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, &UpstreamError{Op: "verify", Err: fmt.Errorf("unexpected status code %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))}
	}

	var out Response
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, &UpstreamError{Op: "decode", Err: err}
	}
	return &out, nil
}
