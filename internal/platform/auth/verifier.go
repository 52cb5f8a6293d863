package auth

import (
	"context"
	"errors"
	"strings"
)

var (
	ErrNoToken          = errors.New("no bearer token")
	ErrInvalidToken     = errors.New("invalid token")
	ErrTokenExpired     = errors.New("token expired")
	ErrTokenRevoked     = errors.New("token revoked")
	ErrUserDisabled     = errors.New("user disabled")
	ErrCertificateFetch = errors.New("certificate fetch failed")
)

// FirebaseUser is the identity carried by a verified ID token.
type FirebaseUser struct {
	UID           string
	Email         string
	EmailVerified bool
	Name          string
}

// Verifier verifies bearer tokens.
type Verifier interface {
	Verify(ctx context.Context, token string) (*FirebaseUser, error)
}

// ExtractBearerToken returns the token from an Authorization header value.
// The scheme is matched case-insensitively.
func ExtractBearerToken(header string) (string, error) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", ErrNoToken
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return "", ErrNoToken
	}
	return token, nil
}
