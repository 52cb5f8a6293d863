package profile

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MockStore implements Service with in-memory storage.
// It backs the "memory" store driver and the HTTP handler tests.
type MockStore struct {
	mu       sync.RWMutex
	profiles map[string]*Profile
	users    map[string]*User
	emails   map[string]string
}

// NewMockStore creates a new in-memory profile store.
func NewMockStore() *MockStore {
	return &MockStore{
		profiles: make(map[string]*Profile),
		users:    make(map[string]*User),
		emails:   make(map[string]string),
	}
}

func (m *MockStore) Upsert(ctx context.Context, params UpsertParams) (p *Profile, err error) {
	defer func() { logAudit(ctx, "upsert", deref(params.OwnerID), "profile", params.Handle, err) }()

	m.mu.Lock()
	defer m.mu.Unlock()

	if ownerID := deref(params.OwnerID); ownerID != "" {
		if _, ok := m.users[ownerID]; !ok {
			return nil, fmt.Errorf("owner %q: %w", ownerID, ErrInvalidRelation)
		}
	}

	now := time.Now().UTC()
	stored, ok := m.profiles[params.Handle]
	if ok {
		applyUpsert(stored, params, now)
	} else {
		stored = newProfile(params, now)
		m.profiles[params.Handle] = stored
	}

	return cloneProfile(stored), nil
}

func (m *MockStore) FindByHandle(_ context.Context, handle string) (*Profile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p, ok := m.profiles[handle]
	if !ok {
		return nil, ErrNotFound
	}

	return cloneProfile(p), nil
}

func (m *MockStore) ListByOwner(_ context.Context, ownerID string) ([]*Profile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []*Profile
	for _, p := range m.profiles {
		if deref(p.OwnerID) == ownerID {
			out = append(out, cloneProfile(p))
		}
	}
	slices.SortFunc(out, func(a, b *Profile) int { return strings.Compare(a.Handle, b.Handle) })

	return out, nil
}

func (m *MockStore) CreateUser(ctx context.Context, params CreateUserParams) (u *User, err error) {
	id := uuid.NewString()
	defer func() { logAudit(ctx, "create", id, "user", id, err) }()

	m.mu.Lock()
	defer m.mu.Unlock()

	return m.insertUserLocked(id, params.Email, params.Name)
}

func (m *MockStore) EnsureUser(ctx context.Context, params EnsureUserParams) (*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if u, ok := m.users[params.ID]; ok {
		c := *u
		return &c, nil
	}

	u, err := m.insertUserLocked(params.ID, params.Email, params.Name)
	logAudit(ctx, "create", params.ID, "user", params.ID, err)
	return u, err
}

func (m *MockStore) insertUserLocked(id, email, name string) (*User, error) {
	email = normalizeEmail(email)
	if owner, taken := m.emails[email]; email != "" && taken && owner != id {
		return nil, fmt.Errorf("email %q: %w", email, ErrConflict)
	}

	now := time.Now().UTC()
	u := &User{
		ID:        id,
		Email:     email,
		Name:      strings.TrimSpace(name),
		CreatedAt: now,
		UpdatedAt: now,
	}
	m.users[id] = u
	if email != "" {
		m.emails[email] = id
	}

	c := *u
	return &c, nil
}

func (m *MockStore) GetUser(_ context.Context, id string) (*User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	u, ok := m.users[id]
	if !ok {
		return nil, ErrNotFound
	}

	c := *u
	return &c, nil
}

var _ Service = (*MockStore)(nil)
