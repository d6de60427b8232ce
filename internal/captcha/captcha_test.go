package captcha

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVerify_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "s3cret", r.PostForm.Get("secret"))
		assert.Equal(t, "tok", r.PostForm.Get("response"))
		assert.Equal(t, "10.0.0.1", r.PostForm.Get("remoteip"))
		_, _ = w.Write([]byte(`{"success":true,"hostname":"example.com","score":0.9}`))
	}))
	defer srv.Close()

	v := NewVerifier(Config{Secret: "s3cret", VerifyURL: srv.URL, RateLimit: 5, Burst: 1}, srv.Client())

	resp, err := v.Verify(context.Background(), "tok", "10.0.0.1")

	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.Equal(t, "example.com", resp.Hostname)
	require.NotNil(t, resp.Score)
	assert.InDelta(t, 0.9, *resp.Score, 0.001)
}

func TestVerify_FailureIsRelayed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"success":false,"error-codes":["invalid-input-response"]}`))
	}))
	defer srv.Close()

	v := NewVerifier(Config{Secret: "s", VerifyURL: srv.URL}, srv.Client())

	resp, err := v.Verify(context.Background(), "bad", "")

	require.NoError(t, err)
	assert.False(t, resp.Success)
	assert.Equal(t, []string{"invalid-input-response"}, resp.ErrorCodes)
}

func TestVerify_UpstreamStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	defer srv.Close()

	v := NewVerifier(Config{Secret: "s", VerifyURL: srv.URL}, srv.Client())

	_, err := v.Verify(context.Background(), "tok", "")

	var upstream *UpstreamError
	require.ErrorAs(t, err, &upstream)
	assert.Equal(t, "verify", upstream.Op)
	assert.Contains(t, err.Error(), "boom")
}

func TestVerify_BadJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`not json`))
	}))
	defer srv.Close()

	v := NewVerifier(Config{Secret: "s", VerifyURL: srv.URL}, srv.Client())

	_, err := v.Verify(context.Background(), "tok", "")

	var upstream *UpstreamError
	require.ErrorAs(t, err, &upstream)
	assert.Equal(t, "decode", upstream.Op)
}

func TestVerify_NotConfigured(t *testing.T) {
	v := NewVerifier(Config{VerifyURL: "http://127.0.0.1:1"}, nil)

	_, err := v.Verify(context.Background(), "tok", "")

	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestVerify_MissingToken(t *testing.T) {
	v := NewVerifier(Config{Secret: "s", VerifyURL: "http://127.0.0.1:1"}, nil)

	_, err := v.Verify(context.Background(), " ", "")

	assert.ErrorIs(t, err, ErrMissingToken)
}

func TestVerify_CancelledWhileThrottled(t *testing.T) {
	v := NewVerifier(Config{Secret: "s", VerifyURL: "http://127.0.0.1:1", RateLimit: 0.001, Burst: 1}, nil)
	// drain the single token
	require.True(t, v.limiter.Allow())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := v.Verify(ctx, "tok", "")

	var upstream *UpstreamError
	require.ErrorAs(t, err, &upstream)
	assert.Equal(t, "throttle", upstream.Op)
}
