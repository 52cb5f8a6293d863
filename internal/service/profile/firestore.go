package profile

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"slices"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/google/uuid"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	profilesCollection   = "profiles"
	usersCollection      = "users"
	userEmailsCollection = "user_emails"
)

type profileDoc struct {
	Handle    string    `firestore:"handle"`
	FullName  string    `firestore:"fullName"`
	Title     *string   `firestore:"title,omitempty"`
	Bio       *string   `firestore:"bio,omitempty"`
	Location  *string   `firestore:"location,omitempty"`
	Website   *string   `firestore:"website,omitempty"`
	Avatar    *string   `firestore:"avatar,omitempty"`
	Theme     string    `firestore:"theme"`
	Accent    string    `firestore:"accent"`
	OwnerID   *string   `firestore:"ownerId,omitempty"`
	CreatedAt time.Time `firestore:"createdAt"`
	UpdatedAt time.Time `firestore:"updatedAt"`
}

type userDoc struct {
	Email     string    `firestore:"email"`
	Name      string    `firestore:"name"`
	CreatedAt time.Time `firestore:"createdAt"`
	UpdatedAt time.Time `firestore:"updatedAt"`
}

type userEmailDoc struct {
	UserID string `firestore:"userId"`
}

// FirestoreStore implements Service on Cloud Firestore.
// Profiles are keyed by handle; user emails are claimed through index documents
// written in the same transaction as the user.
type FirestoreStore struct {
	client *firestore.Client
}

// NewFirestoreStore creates a Firestore-backed store.
func NewFirestoreStore(client *firestore.Client) *FirestoreStore {
	return &FirestoreStore{client: client}
}

// Ping reads a document that never exists; NotFound proves the backend answered.
func (s *FirestoreStore) Ping(ctx context.Context) error {
	_, err := s.client.Collection(profilesCollection).Doc("_ping").Get(ctx)
	if err == nil || status.Code(err) == codes.NotFound {
		return nil
	}
	return err
}

func (s *FirestoreStore) Upsert(ctx context.Context, params UpsertParams) (result *Profile, err error) {
	defer func() { logAudit(ctx, "upsert", deref(params.OwnerID), "profile", params.Handle, err) }()

	ref := s.client.Collection(profilesCollection).Doc(profileDocID(params.Handle))
	err = s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		if ownerID := deref(params.OwnerID); ownerID != "" {
			if _, err := tx.Get(s.client.Collection(usersCollection).Doc(ownerID)); err != nil {
				if status.Code(err) == codes.NotFound {
					return fmt.Errorf("owner %q: %w", ownerID, ErrInvalidRelation)
				}
				return fmt.Errorf("get owner: %w", err)
			}
		}

		now := time.Now().UTC()
		snap, err := tx.Get(ref)
		switch {
		case status.Code(err) == codes.NotFound:
			result = newProfile(params, now)
		case err != nil:
			return fmt.Errorf("get profile: %w", err)
		default:
			var doc profileDoc
			if err := snap.DataTo(&doc); err != nil {
				return fmt.Errorf("decode profile: %w", err)
			}
			result = doc.toProfile()
			applyUpsert(result, params, now)
		}

		return tx.Set(ref, toProfileDoc(result))
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

func (s *FirestoreStore) FindByHandle(ctx context.Context, handle string) (*Profile, error) {
	snap, err := s.client.Collection(profilesCollection).Doc(profileDocID(handle)).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get profile: %w", err)
	}

	var doc profileDoc
	if err := snap.DataTo(&doc); err != nil {
		return nil, fmt.Errorf("decode profile: %w", err)
	}

	return doc.toProfile(), nil
}

func (s *FirestoreStore) ListByOwner(ctx context.Context, ownerID string) ([]*Profile, error) {
	snaps, err := s.client.Collection(profilesCollection).
		Where("ownerId", "==", ownerID).
		Documents(ctx).
		GetAll()
	if err != nil {
		return nil, fmt.Errorf("list profiles: %w", err)
	}

	out := make([]*Profile, 0, len(snaps))
	for _, snap := range snaps {
		var doc profileDoc
		if err := snap.DataTo(&doc); err != nil {
			return nil, fmt.Errorf("decode profile %s: %w", snap.Ref.ID, err)
		}
		out = append(out, doc.toProfile())
	}
	slices.SortFunc(out, func(a, b *Profile) int { return strings.Compare(a.Handle, b.Handle) })

	return out, nil
}

func (s *FirestoreStore) CreateUser(ctx context.Context, params CreateUserParams) (u *User, err error) {
	id := uuid.NewString()
	defer func() { logAudit(ctx, "create", id, "user", id, err) }()

	err = s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		var txErr error
		u, txErr = s.insertUserTx(tx, id, params.Email, params.Name)
		return txErr
	})
	if err != nil {
		return nil, err
	}

	return u, nil
}

func (s *FirestoreStore) EnsureUser(ctx context.Context, params EnsureUserParams) (u *User, err error) {
	created := false
	err = s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		created = false
		snap, err := tx.Get(s.client.Collection(usersCollection).Doc(params.ID))
		if err == nil {
			u, err = decodeUser(snap)
			return err
		}
		if status.Code(err) != codes.NotFound {
			return fmt.Errorf("get user: %w", err)
		}

		created = true
		u, err = s.insertUserTx(tx, params.ID, params.Email, params.Name)
		return err
	})
	if created || err != nil {
		logAudit(ctx, "create", params.ID, "user", params.ID, err)
	}
	if err != nil {
		return nil, err
	}

	return u, nil
}

// insertUserTx claims the email index document and writes the user.
// Reads happen before writes as Firestore transactions require.
func (s *FirestoreStore) insertUserTx(tx *firestore.Transaction, id, email, name string) (*User, error) {
	email = normalizeEmail(email)

	var emailRef *firestore.DocumentRef
	if email != "" {
		emailRef = s.client.Collection(userEmailsCollection).Doc(emailDocID(email))
		snap, err := tx.Get(emailRef)
		switch {
		case err == nil:
			var claim userEmailDoc
			if err := snap.DataTo(&claim); err != nil {
				return nil, fmt.Errorf("decode email claim: %w", err)
			}
			if claim.UserID != id {
				return nil, fmt.Errorf("email %q: %w", email, ErrConflict)
			}
		case status.Code(err) != codes.NotFound:
			return nil, fmt.Errorf("get email claim: %w", err)
		}
	}

	now := time.Now().UTC()
	doc := userDoc{
		Email:     email,
		Name:      strings.TrimSpace(name),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := tx.Create(s.client.Collection(usersCollection).Doc(id), doc); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	if emailRef != nil {
		if err := tx.Set(emailRef, userEmailDoc{UserID: id}); err != nil {
			return nil, fmt.Errorf("claim email: %w", err)
		}
	}

	return &User{
		ID:        id,
		Email:     doc.Email,
		Name:      doc.Name,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

func (s *FirestoreStore) GetUser(ctx context.Context, id string) (*User, error) {
	snap, err := s.client.Collection(usersCollection).Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	return decodeUser(snap)
}

func decodeUser(snap *firestore.DocumentSnapshot) (*User, error) {
	var doc userDoc
	if err := snap.DataTo(&doc); err != nil {
		return nil, fmt.Errorf("decode user: %w", err)
	}
	return &User{
		ID:        snap.Ref.ID,
		Email:     doc.Email,
		Name:      doc.Name,
		CreatedAt: doc.CreatedAt,
		UpdatedAt: doc.UpdatedAt,
	}, nil
}

func (d profileDoc) toProfile() *Profile {
	return &Profile{
		Handle:    d.Handle,
		FullName:  d.FullName,
		Title:     d.Title,
		Bio:       d.Bio,
		Location:  d.Location,
		Website:   d.Website,
		Avatar:    d.Avatar,
		Theme:     d.Theme,
		Accent:    d.Accent,
		OwnerID:   d.OwnerID,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
}

func toProfileDoc(p *Profile) profileDoc {
	return profileDoc{
		Handle:    p.Handle,
		FullName:  p.FullName,
		Title:     p.Title,
		Bio:       p.Bio,
		Location:  p.Location,
		Website:   p.Website,
		Avatar:    p.Avatar,
		Theme:     p.Theme,
		Accent:    p.Accent,
		OwnerID:   p.OwnerID,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}

// profileDocID maps a handle to its document ID. Firestore reserves IDs of the
// form __.*__, so those handles get a "-" prefix, which no handle can contain.
func profileDocID(handle string) string {
	if len(handle) >= 4 && strings.HasPrefix(handle, "__") && strings.HasSuffix(handle, "__") {
		return "-" + handle
	}
	return handle
}

// emailDocID hashes the email so any address yields a valid document ID.
func emailDocID(email string) string {
	sum := sha256.Sum256([]byte(email))
	return hex.EncodeToString(sum[:])
}

var _ Service = (*FirestoreStore)(nil)
