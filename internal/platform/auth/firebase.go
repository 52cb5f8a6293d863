package auth

import (
	"context"
	"fmt"

	fbauth "firebase.google.com/go/v4/auth"
)

// FirebaseVerifier verifies Firebase ID tokens, including revocation checks.
type FirebaseVerifier struct {
	client *fbauth.Client
}

// NewFirebaseVerifier creates a verifier backed by a Firebase Auth client.
func NewFirebaseVerifier(client *fbauth.Client) *FirebaseVerifier {
	return &FirebaseVerifier{client: client}
}

// Verify validates the ID token and returns the identity it carries.
func (v *FirebaseVerifier) Verify(ctx context.Context, token string) (*FirebaseUser, error) {
	tok, err := v.client.VerifyIDTokenAndCheckRevoked(ctx, token)
	if err != nil {
		return nil, classifyVerifyError(err)
	}
	return userFromToken(tok), nil
}

func classifyVerifyError(err error) error {
	var sentinel error
	switch {
	case fbauth.IsIDTokenExpired(err):
		sentinel = ErrTokenExpired
	case fbauth.IsIDTokenRevoked(err):
		sentinel = ErrTokenRevoked
	case fbauth.IsUserDisabled(err):
		sentinel = ErrUserDisabled
	case fbauth.IsCertificateFetchFailed(err):
		sentinel = ErrCertificateFetch
	default:
		sentinel = ErrInvalidToken
	}
	return fmt.Errorf("%w: %w", sentinel, err)
}

// userFromToken reads the standard profile claims. Claims of the wrong type
// are ignored.
func userFromToken(tok *fbauth.Token) *FirebaseUser {
	user := &FirebaseUser{UID: tok.UID}
	user.Email, _ = tok.Claims["email"].(string)
	user.EmailVerified, _ = tok.Claims["email_verified"].(bool)
	user.Name, _ = tok.Claims["name"].(string)
	return user
}

var _ Verifier = (*FirebaseVerifier)(nil)
