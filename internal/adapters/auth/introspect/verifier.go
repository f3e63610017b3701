package introspect

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"pet-profile-service/internal/platform/httpclient"
	"pet-profile-service/internal/ports/auth"
)

var (
	ErrNotConfigured = errors.New("token introspection not configured")
	ErrTokenEmpty    = errors.New("token is empty")
	ErrUnauthorized  = errors.New("token rejected")
	ErrUpstream      = errors.New("token introspection upstream error")
)

const DefaultPath = "/v1/tokens/verify"

// Config del servicio que valida tokens (normalmente el de usuarios).
type Config struct {
	BaseURL string
	Path    string // default DefaultPath

	APIKey       string
	APIKeyHeader string // default "X-Api-Key"

	Timeout time.Duration
}

// Verifier implementa auth.AuthVerifier delegando en un endpoint remoto:
// POST {BaseURL}{Path} {"token": "..."} => {"user_id", "email", "tenant_id"}.
type Verifier struct {
	http *httpclient.Client
	path string
}

func NewVerifier(cfg Config) (*Verifier, error) {
	hc, err := httpclient.NewWithBaseURL(cfg.BaseURL, cfg.Timeout)
	if err != nil {
		return nil, err
	}
	if key := strings.TrimSpace(cfg.APIKey); key != "" {
		h := strings.TrimSpace(cfg.APIKeyHeader)
		if h == "" {
			h = "X-Api-Key"
		}
		hc.Headers = map[string]string{h: key}
	}

	p := strings.TrimSpace(cfg.Path)
	if p == "" {
		p = DefaultPath
	}
	return &Verifier{http: hc, path: p}, nil
}

func (v *Verifier) Verify(ctx context.Context, token string) (auth.Claims, error) {
	if v == nil || v.http == nil || v.http.BaseURL == "" {
		return auth.Claims{}, ErrNotConfigured
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return auth.Claims{}, ErrTokenEmpty
	}

	var out struct {
		UserID   string `json:"user_id"`
		Email    string `json:"email"`
		TenantID string `json:"tenant_id"`
	}
	err := v.http.DoJSON(ctx, http.MethodPost, v.path,
		map[string]string{"Authorization": "Bearer " + token},
		map[string]string{"token": token},
		&out,
	)
	if err != nil {
		if code, ok := httpclient.StatusCode(err); ok {
			if code == http.StatusUnauthorized || code == http.StatusForbidden {
				return auth.Claims{}, ErrUnauthorized
			}
			return auth.Claims{}, fmt.Errorf("%w: status=%d", ErrUpstream, code)
		}
		return auth.Claims{}, fmt.Errorf("%w: %v", ErrUpstream, err)
	}

	out.UserID = strings.TrimSpace(out.UserID)
	if out.UserID == "" {
		return auth.Claims{}, fmt.Errorf("%w: response missing user_id", ErrUpstream)
	}

	return auth.Claims{
		UserID:   out.UserID,
		Email:    strings.TrimSpace(out.Email),
		TenantID: strings.TrimSpace(out.TenantID),
	}, nil
}
