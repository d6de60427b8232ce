package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"capi/internal/captcha"
)

type fakeVerifier struct {
	gotToken string
	gotIP    string
	resp     *captcha.Response
	err      error
}

func (f *fakeVerifier) Verify(_ context.Context, token, remoteIP string) (*captcha.Response, error) {
	f.gotToken, f.gotIP = token, remoteIP
	return f.resp, f.err
}

func captchaRequest(body string, headers map[string]string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/captcha/verify", strings.NewReader(body))
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	return req
}

func TestCaptchaVerify_BodyToken(t *testing.T) {
	v := &fakeVerifier{resp: &captcha.Response{Success: true}}
	h := NewCaptchaHandler(v)
	rec := httptest.NewRecorder()

	h.HandleVerify(rec, captchaRequest(`{"token":"abc"}`, map[string]string{"X-Forwarded-For": "1.2.3.4, 10.0.0.1"}))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "abc", v.gotToken)
	assert.Equal(t, "1.2.3.4", v.gotIP)
	assert.JSONEq(t, `{"success":true}`, rec.Body.String())
}

func TestCaptchaVerify_HeaderToken(t *testing.T) {
	v := &fakeVerifier{resp: &captcha.Response{Success: false, ErrorCodes: []string{"timeout-or-duplicate"}}}
	h := NewCaptchaHandler(v)
	rec := httptest.NewRecorder()

	h.HandleVerify(rec, captchaRequest("", map[string]string{"token": "hdr"}))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "hdr", v.gotToken)
	assert.JSONEq(t, `{"success":false,"error-codes":["timeout-or-duplicate"]}`, rec.Body.String())
}

func TestCaptchaVerify_MissingToken(t *testing.T) {
	h := NewCaptchaHandler(&fakeVerifier{})
	rec := httptest.NewRecorder()

	h.HandleVerify(rec, captchaRequest(`{}`, nil))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCaptchaVerify_InvalidJSON(t *testing.T) {
	h := NewCaptchaHandler(&fakeVerifier{})
	rec := httptest.NewRecorder()

	h.HandleVerify(rec, captchaRequest(`{token`, nil))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCaptchaVerify_UpstreamError(t *testing.T) {
	v := &fakeVerifier{err: &captcha.UpstreamError{Op: "request", Err: errors.New("connection refused")}}
	h := NewCaptchaHandler(v)
	rec := httptest.NewRecorder()

	h.HandleVerify(rec, captchaRequest(`{"token":"abc"}`, nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"captcha request: connection refused"}`, rec.Body.String())
}
