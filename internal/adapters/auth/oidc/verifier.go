package oidc

import (
	"context"
	"crypto"
	"errors"
	"fmt"
	"strings"

	"pet-profile-service/internal/ports/auth"

	gooidc "github.com/coreos/go-oidc/v3/oidc"
)

var ErrTokenEmpty = errors.New("token is empty")

// Verifier implementa auth.AuthVerifier validando ID tokens OIDC
// (firma, issuer, audience = clientID, expiración).
type Verifier struct {
	verifier *gooidc.IDTokenVerifier
}

// NewVerifier descubre el provider en {issuer}/.well-known/openid-configuration.
func NewVerifier(ctx context.Context, issuer, clientID string) (*Verifier, error) {
	issuer = strings.TrimRight(strings.TrimSpace(issuer), "/")
	if issuer == "" || strings.TrimSpace(clientID) == "" {
		return nil, errors.New("oidc: issuer and client id are required")
	}
	provider, err := gooidc.NewProvider(ctx, issuer)
	if err != nil {
		return nil, fmt.Errorf("oidc: discover provider: %w", err)
	}
	return &Verifier{verifier: provider.Verifier(&gooidc.Config{ClientID: clientID})}, nil
}

// NewStaticVerifier usa llaves públicas fijas, sin discovery (tests, entornos aislados).
func NewStaticVerifier(issuer, clientID string, keys ...crypto.PublicKey) *Verifier {
	ks := &gooidc.StaticKeySet{PublicKeys: keys}
	return &Verifier{verifier: gooidc.NewVerifier(issuer, ks, &gooidc.Config{ClientID: clientID})}
}

func (v *Verifier) Verify(ctx context.Context, token string) (auth.Claims, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return auth.Claims{}, ErrTokenEmpty
	}

	idToken, err := v.verifier.Verify(ctx, token)
	if err != nil {
		return auth.Claims{}, fmt.Errorf("oidc verify failed: %w", err)
	}

	var extra struct {
		Email    string `json:"email"`
		TenantID string `json:"tenant_id"`
	}
	if err := idToken.Claims(&extra); err != nil {
		return auth.Claims{}, fmt.Errorf("oidc claims: %w", err)
	}

	sub := strings.TrimSpace(idToken.Subject)
	if sub == "" {
		return auth.Claims{}, errors.New("oidc token missing subject")
	}

	return auth.Claims{
		UserID:   sub,
		Email:    strings.TrimSpace(extra.Email),
		TenantID: strings.TrimSpace(extra.TenantID),
	}, nil
}
