package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"strings"

	"capi/internal/captcha"
)

// TokenVerifier checks captcha tokens.
type TokenVerifier interface {
	Verify(ctx context.Context, token, remoteIP string) (*captcha.Response, error)
}

type CaptchaHandler struct {
	verifier TokenVerifier
}

func NewCaptchaHandler(verifier TokenVerifier) *CaptchaHandler {
	return &CaptchaHandler{verifier: verifier}
}

type verifyRequest struct {
	Token string `json:"token"`
}

// HandleVerify relays a token from the JSON body or the token header.
func (h *CaptchaHandler) HandleVerify(w http.ResponseWriter, r *http.Request) {
	token := r.Header.Get("token")

	var body verifyRequest
	err := json.NewDecoder(io.LimitReader(r.Body, 64<<10)).Decode(&body)
	switch {
	case err == nil:
		if body.Token != "" {
			token = body.Token
		}
	case err == io.EOF:
	default:
		if token == "" {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid JSON"})
			return
		}
	}

	if strings.TrimSpace(token) == "" {
		writeError(w, captcha.ErrMissingToken)
		return
	}

	resp, err := h.verifier.Verify(r.Context(), token, clientIP(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		return strings.TrimSpace(strings.Split(fwd, ",")[0])
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
