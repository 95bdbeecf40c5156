package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sign(t *testing.T, key string, claims jwt.Claims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(key))
	require.NoError(t, err)
	return s
}

func claimsFor(sub string, exp time.Time) *Claims {
	return &Claims{RegisteredClaims: jwt.RegisteredClaims{
		Subject:   sub,
		Issuer:    "lifetrack",
		ExpiresAt: jwt.NewNumericDate(exp),
	}}
}

func TestNewVerifier_EmptySecret(t *testing.T) {
	_, err := NewVerifier("")
	assert.Error(t, err)
}

func TestVerify_Valid(t *testing.T) {
	v, err := NewVerifier("s3cret", WithIssuer("lifetrack"), WithLeeway(time.Second))
	require.NoError(t, err)

	c, err := v.Verify(sign(t, "s3cret", claimsFor("user-1", time.Now().Add(time.Hour))))
	require.NoError(t, err)
	assert.Equal(t, "user-1", c.Subject)
}

func TestVerify_Failures(t *testing.T) {
	v, err := NewVerifier("s3cret", WithIssuer("lifetrack"))
	require.NoError(t, err)
	future := time.Now().Add(time.Hour)

	noExp := &Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: "u", Issuer: "lifetrack"}}
	wrongIss := claimsFor("u", future)
	wrongIss.Issuer = "someone-else"

	cases := []struct {
		name  string
		token string
		want  error
	}{
		{"malformed", "not-a-token", jwt.ErrTokenMalformed},
		{"bad signature", sign(t, "other", claimsFor("u", future)), jwt.ErrTokenSignatureInvalid},
		{"expired", sign(t, "s3cret", claimsFor("u", time.Now().Add(-time.Hour))), jwt.ErrTokenExpired},
		{"missing exp", sign(t, "s3cret", noExp), jwt.ErrTokenRequiredClaimMissing},
		{"wrong issuer", sign(t, "s3cret", wrongIss), jwt.ErrTokenInvalidIssuer},
		{"missing subject", sign(t, "s3cret", claimsFor("", future)), jwt.ErrTokenRequiredClaimMissing},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := v.Verify(tc.token)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tc.want), "got %v", err)
		})
	}
}

func TestVerify_RejectsOtherAlgorithms(t *testing.T) {
	v, err := NewVerifier("s3cret")
	require.NoError(t, err)

	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS384, claimsFor("u", time.Now().Add(time.Hour))).
		SignedString([]byte("s3cret"))
	require.NoError(t, err)

	_, err = v.Verify(tok)
	assert.ErrorIs(t, err, jwt.ErrTokenSignatureInvalid)
}
