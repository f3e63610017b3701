package auth

import "context"

// Claims identifica al caller. UserID es el id del User Directory y
// es el que queda como owner al crear una mascota.
type Claims struct {
	UserID   string
	Email    string
	TenantID string
}

// AuthVerifier valida un bearer token. Implementaciones: jwtauth (HS256
// local), oidc (discovery + JWKS) e introspect (endpoint remoto).
type AuthVerifier interface {
	Verify(ctx context.Context, token string) (Claims, error)
}
