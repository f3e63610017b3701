package oidc

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

const (
	issuer   = "https://id.example.com/realms/pets"
	clientID = "pet-profile-service"
)

func signRS256(t *testing.T, key *rsa.PrivateKey, claims jwt.MapClaims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(key)
	require.NoError(t, err)
	return s
}

func TestStaticVerifier_ValidToken(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	v := NewStaticVerifier(issuer, clientID, &key.PublicKey)

	tok := signRS256(t, key, jwt.MapClaims{
		"iss":   issuer,
		"aud":   clientID,
		"sub":   "u1",
		"email": "u1@example.com",
		"iat":   time.Now().Unix(),
		"exp":   time.Now().Add(time.Minute).Unix(),
	})

	c, err := v.Verify(context.Background(), tok)
	require.NoError(t, err)
	require.Equal(t, "u1", c.UserID)
	require.Equal(t, "u1@example.com", c.Email)
}

func TestStaticVerifier_Rejects(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	other, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	v := NewStaticVerifier(issuer, clientID, &key.PublicKey)

	exp := time.Now().Add(time.Minute).Unix()
	cases := map[string]string{
		"wrong audience": signRS256(t, key, jwt.MapClaims{"iss": issuer, "aud": "other", "sub": "u1", "exp": exp}),
		"wrong issuer":   signRS256(t, key, jwt.MapClaims{"iss": "https://evil", "aud": clientID, "sub": "u1", "exp": exp}),
		"wrong key":      signRS256(t, other, jwt.MapClaims{"iss": issuer, "aud": clientID, "sub": "u1", "exp": exp}),
		"expired":        signRS256(t, key, jwt.MapClaims{"iss": issuer, "aud": clientID, "sub": "u1", "exp": time.Now().Add(-time.Hour).Unix()}),
	}
	for name, tok := range cases {
		_, err := v.Verify(context.Background(), tok)
		require.Error(t, err, name)
	}

	_, err = v.Verify(context.Background(), "")
	require.ErrorIs(t, err, ErrTokenEmpty)
}

func TestNewVerifier_DiscoveryFailure(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	defer ts.Close()

	_, err := NewVerifier(context.Background(), ts.URL, clientID)
	require.Error(t, err)

	_, err = NewVerifier(context.Background(), "", clientID)
	require.Error(t, err)
}
