package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"pet-profile-service/internal/ports/auth"

	"github.com/stretchr/testify/require"
)

type fakeVerifier struct{}

func (fakeVerifier) Verify(_ context.Context, token string) (auth.Claims, error) {
	if token == "goodtoken" {
		return auth.Claims{UserID: "user-1", Email: "u1@example.com"}, nil
	}
	return auth.Claims{}, errors.New("invalid token")
}

// echoUser responde con el UserID de los claims o "anonymous".
func echoUser() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, ok := GetClaims(r.Context())
		if !ok {
			_, _ = w.Write([]byte("anonymous"))
			return
		}
		_, _ = w.Write([]byte(c.UserID))
	})
}

func serve(h http.Handler, header, value string) string {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if header != "" {
		req.Header.Set(header, value)
	}
	rw := httptest.NewRecorder()
	h.ServeHTTP(rw, req)
	return rw.Body.String()
}

func TestAuthContext_DevModeHeader(t *testing.T) {
	h := AuthContext(nil)(echoUser())

	require.Equal(t, "dev-user", serve(h, DebugUserHeader, " dev-user "))
	require.Equal(t, "anonymous", serve(h, "", ""))
}

func TestAuthContext_VerifierMode(t *testing.T) {
	h := AuthContext(fakeVerifier{})(echoUser())

	require.Equal(t, "user-1", serve(h, "Authorization", "Bearer goodtoken"))
	require.Equal(t, "user-1", serve(h, "Authorization", "bearer goodtoken"))
	require.Equal(t, "anonymous", serve(h, "Authorization", "Bearer badtoken"))
	require.Equal(t, "anonymous", serve(h, "Authorization", "Basic abc"))
	// con verifier, el header de debug no vale
	require.Equal(t, "anonymous", serve(h, DebugUserHeader, "dev-user"))
}

func TestBearerToken(t *testing.T) {
	require.Equal(t, "abc", bearerToken("Bearer abc"))
	require.Equal(t, "", bearerToken("Bearer"))
	require.Equal(t, "", bearerToken(""))
	require.Equal(t, "", bearerToken("Token abc"))
}
