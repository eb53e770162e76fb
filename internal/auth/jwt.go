// Package auth is the identity collaborator: it issues and verifies bearer
// tokens, hashes passwords and talks to GitHub for OAuth login.
//
// HOW A REQUEST IS AUTHENTICATED:
// 1. The client logs in (password or GitHub) and receives a signed token.
// 2. It sends that token on every call as "Authorization: Bearer <token>".
// 3. RequireAuth verifies the signature and expiry, then puts the caller's
//    Identity in the request context.
// 4. Handlers read the Identity back with IdentityFromContext and never
//    look at the token themselves.
//
// A TOKEN IS SELF-CONTAINED:
// Verifying one takes the secret and nothing else, no database lookup. The
// flip side is that a token stays valid until it expires, even after the
// account behind it has been terminated. Clients are expected to drop their
// token when they terminate an account.
//
// TOKEN LAYOUT (three base64url parts):
//
//	HEADER.PAYLOAD.SIGNATURE
//	- Header:    {"alg":"HS256","typ":"JWT"}
//	- Payload:   {"sub":"42","username":"alice","jti":"...","iss":"devnode","exp":...}
//	- Signature: HMAC-SHA256(header + "." + payload, secret)
package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/xid"
)

const (
	issuer = "devnode"

	// DefaultTokenTTL is used when NewTokenService is given a zero TTL.
	DefaultTokenTTL = 2 * time.Hour

	minSecretLength = 16
)

// Identity is what a verified token says about its bearer.
type Identity struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
}

// TokenService signs and verifies HS256 tokens with one shared secret.
type TokenService struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenService returns a TokenService. The secret must be at least 16
// characters; generate a real one with `openssl rand -hex 32`.
func NewTokenService(secret string, ttl time.Duration) (*TokenService, error) {
	if len(secret) < minSecretLength {
		return nil, fmt.Errorf("auth: JWT secret must be at least %d characters", minSecretLength)
	}
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &TokenService{secret: []byte(secret), ttl: ttl}, nil
}

// claims is the token payload. The user id goes in the registered "sub"
// claim as a decimal string; the username rides along so that handlers can
// render "alice sent you a request" without a lookup.
type claims struct {
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// Generate issues a token for id that expires after the service's TTL.
func (s *TokenService) Generate(id Identity) (string, error) {
	return s.GenerateWithDuration(id, s.ttl)
}

// GenerateWithDuration issues a token with an explicit lifetime. Tests use
// a negative duration to get an already-expired token.
func (s *TokenService) GenerateWithDuration(id Identity, d time.Duration) (string, error) {
	now := time.Now()

	c := claims{
		Username: id.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(id.ID, 10),
			ID:        xid.New().String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(d)),
			Issuer:    issuer,
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("auth: signing token: %w", err)
	}
	return signed, nil
}

// ErrTokenExpired is returned by Validate for a well-formed token whose exp
// is in the past.
var ErrTokenExpired = errors.New("auth: token expired")

// Validate verifies tokenStr and returns the identity it carries.
//
// The jwt library checks the signature, expiry and issuer. WithValidMethods
// pins HS256 so a token claiming "alg":"none" (or an RSA alg, to trick us
// into using the secret as a public key) is rejected before the keyfunc runs.
func (s *TokenService) Validate(tokenStr string) (Identity, error) {
	token, err := jwt.ParseWithClaims(
		tokenStr,
		&claims{},
		func(*jwt.Token) (any, error) { return s.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Identity{}, ErrTokenExpired
		}
		return Identity{}, fmt.Errorf("auth: invalid token: %w", err)
	}

	c, ok := token.Claims.(*claims)
	if !ok || !token.Valid {
		return Identity{}, errors.New("auth: invalid token claims")
	}

	id, err := strconv.ParseInt(c.Subject, 10, 64)
	if err != nil || id <= 0 {
		return Identity{}, fmt.Errorf("auth: token subject %q is not a user id", c.Subject)
	}

	return Identity{ID: id, Username: c.Username}, nil
}
