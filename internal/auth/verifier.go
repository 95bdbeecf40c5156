// Package auth verifies bearer tokens presented to the API.
//
// Tokens are HS256 JWTs whose subject is the caller's user id. Verification
// failures are returned as the jwt/v5 sentinel errors unchanged; the HTTP
// error classifier maps them onto INVALID_TOKEN / TOKEN_EXPIRED.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims is the token payload accepted by the API.
type Claims struct {
	Email string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// Verifier validates HS256 tokens against a shared secret.
type Verifier struct {
	secret []byte
	parser *jwt.Parser
}

// Option customizes a Verifier.
type Option func(*[]jwt.ParserOption)

// WithIssuer requires the "iss" claim to equal iss.
func WithIssuer(iss string) Option {
	return func(opts *[]jwt.ParserOption) {
		if iss != "" {
			*opts = append(*opts, jwt.WithIssuer(iss))
		}
	}
}

// WithLeeway tolerates clock skew when checking exp/nbf.
func WithLeeway(d time.Duration) Option {
	return func(opts *[]jwt.ParserOption) { *opts = append(*opts, jwt.WithLeeway(d)) }
}

// NewVerifier returns a Verifier for secret. An empty secret is rejected.
func NewVerifier(secret string, opts ...Option) (*Verifier, error) {
	if secret == "" {
		return nil, errors.New("auth: empty signing secret")
	}
	popts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	for _, o := range opts {
		o(&popts)
	}
	return &Verifier{secret: []byte(secret), parser: jwt.NewParser(popts...)}, nil
}

// Verify parses raw and returns its claims. The subject must be present.
func (v *Verifier) Verify(raw string) (*Claims, error) {
	claims := &Claims{}
	_, err := v.parser.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return v.secret, nil
	})
	if err != nil {
		return nil, err
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: sub", jwt.ErrTokenRequiredClaimMissing)
	}
	return claims, nil
}
