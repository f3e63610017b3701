package jwtauth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"pet-profile-service/internal/ports/auth"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrNotConfigured = errors.New("jwt verifier not configured")
	ErrTokenEmpty    = errors.New("token is empty")
	ErrInvalidToken  = errors.New("invalid token")
)

type Config struct {
	Secret string
	Issuer string // opcional; si viene, se exige en "iss"
}

// Verifier implementa auth.AuthVerifier para tokens HS256 firmados por
// el servicio de usuarios.
type Verifier struct {
	secret []byte
	parser *jwt.Parser
}

func NewVerifier(cfg Config) *Verifier {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	}
	if iss := strings.TrimSpace(cfg.Issuer); iss != "" {
		opts = append(opts, jwt.WithIssuer(iss))
	}
	return &Verifier{
		secret: []byte(cfg.Secret),
		parser: jwt.NewParser(opts...),
	}
}

func (v *Verifier) Verify(_ context.Context, token string) (auth.Claims, error) {
	if v == nil || len(v.secret) == 0 {
		return auth.Claims{}, ErrNotConfigured
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return auth.Claims{}, ErrTokenEmpty
	}

	mc := jwt.MapClaims{}
	_, err := v.parser.ParseWithClaims(token, mc, func(*jwt.Token) (any, error) {
		return v.secret, nil
	})
	if err != nil {
		return auth.Claims{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	// exp es obligatorio: sin él el token no vence nunca.
	if exp, err := mc.GetExpirationTime(); err != nil || exp == nil {
		return auth.Claims{}, fmt.Errorf("%w: missing exp", ErrInvalidToken)
	}

	return claimsFromMap(mc)
}

// claimsFromMap acepta "sub", "user_id" o "id" (en ese orden) como UserID.
func claimsFromMap(m map[string]any) (auth.Claims, error) {
	str := func(keys ...string) string {
		for _, k := range keys {
			if s, ok := m[k].(string); ok && strings.TrimSpace(s) != "" {
				return strings.TrimSpace(s)
			}
		}
		return ""
	}

	c := auth.Claims{
		UserID:   str("sub", "user_id", "id"),
		Email:    str("email"),
		TenantID: str("tenant_id"),
	}
	if c.UserID == "" {
		return auth.Claims{}, fmt.Errorf("%w: missing user id claim", ErrInvalidToken)
	}
	return c, nil
}
