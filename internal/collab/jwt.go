package collab

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"

	"github.com/roach88/safeline/internal/apperr"
	"github.com/roach88/safeline/internal/clock"
)

// PrincipalClaims are the token claims. The principal id is the subject.
type PrincipalClaims struct {
	jwt.RegisteredClaims
}

// JWTAuthenticator issues and verifies HS256 tokens.
type JWTAuthenticator struct {
	signingKey []byte
	ttl        time.Duration
	clock      clock.Clock
}

// NewJWTAuthenticator creates an authenticator. A nil clock uses the system clock.
func NewJWTAuthenticator(signingKey string, ttl time.Duration, c clock.Clock) *JWTAuthenticator {
	if c == nil {
		c = clock.System{}
	}
	return &JWTAuthenticator{signingKey: []byte(signingKey), ttl: ttl, clock: c}
}

// Issue creates a token for principal.
func (a *JWTAuthenticator) Issue(principal string) (string, error) {
	if principal == "" {
		return "", errors.New("issue token: empty principal")
	}
	now := a.clock.Now()
	claims := PrincipalClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   principal,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(a.ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(a.signingKey)
}

// Authenticate verifies credential and returns its subject.
// Every failure is an AUTHORIZATION error that does not say why.
func (a *JWTAuthenticator) Authenticate(_ context.Context, credential string) (string, error) {
	// Expiry is checked against the injected clock below.
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithoutClaimsValidation(),
	)
	token, err := parser.ParseWithClaims(credential, &PrincipalClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return a.signingKey, nil
	})
	if err != nil {
		return "", invalidCredential(err)
	}

	claims, ok := token.Claims.(*PrincipalClaims)
	if !ok || !token.Valid || claims.Subject == "" {
		return "", invalidCredential(errors.New("invalid token"))
	}
	if claims.ExpiresAt != nil && !a.clock.Now().Before(claims.ExpiresAt.Time) {
		return "", invalidCredential(errors.New("token expired"))
	}
	return claims.Subject, nil
}

func invalidCredential(err error) error {
	return &apperr.Error{
		Kind:    apperr.KindAuthorization,
		Entity:  "credential",
		Message: "invalid credential",
		Err:     err,
	}
}
