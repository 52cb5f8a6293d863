package auth

import "context"

// MockVerifier returns a fixed user or error. Used in handler tests.
type MockVerifier struct {
	User  *FirebaseUser
	Error error
}

func (m *MockVerifier) Verify(_ context.Context, _ string) (*FirebaseUser, error) {
	if m.Error != nil {
		return nil, m.Error
	}
	return m.User, nil
}

// TestUser returns a verified user fixture.
func TestUser() *FirebaseUser {
	return &FirebaseUser{
		UID:           "test-user-123",
		Email:         "test@example.com",
		EmailVerified: true,
		Name:          "Test User",
	}
}

var _ Verifier = (*MockVerifier)(nil)
