package sessiongate

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// cookieCodec seals session identifiers into the browser cookie and unseals
// them on the way back in. With a secret configured, the cookie value is a
// compact HS256 token whose subject is the session id, so a tampered or
// forged cookie fails verification and the request falls back to a fresh
// anonymous session. With no secret, the raw id is used as-is.
type cookieCodec struct {
	secret []byte
}

func newCookieCodec(secret []byte) *cookieCodec {
	return &cookieCodec{secret: cloneBytes(secret)}
}

type sessionCookieClaims struct {
	jwt.RegisteredClaims
}

// Seal describes the seal operation and its observable behavior.
//
// Seal may return an error when input validation, dependency calls, or security checks fail.
// Seal does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c *cookieCodec) Seal(sessionID string) (string, error) {
	if len(c.secret) == 0 {
		return sessionID, nil
	}

	claims := sessionCookieClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject: sessionID,
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidCookie, err)
	}
	return signed, nil
}

// Unseal describes the unseal operation and its observable behavior.
//
// Unseal may return an error when input validation, dependency calls, or security checks fail.
// Unseal does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c *cookieCodec) Unseal(value string) (string, error) {
	if value == "" {
		return "", ErrInvalidCookie
	}
	if len(c.secret) == 0 {
		return value, nil
	}

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	)
	token, err := parser.ParseWithClaims(value, &sessionCookieClaims{}, func(t *jwt.Token) (interface{}, error) {
		return c.secret, nil
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidCookie, err)
	}

	claims, ok := token.Claims.(*sessionCookieClaims)
	if !ok || !token.Valid || claims.Subject == "" {
		return "", ErrInvalidCookie
	}
	return claims.Subject, nil
}
