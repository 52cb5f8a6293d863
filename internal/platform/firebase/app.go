package firebase

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	firebase "firebase.google.com/go/v4"
	fbauth "firebase.google.com/go/v4/auth"
)

// Config holds Firebase initialization settings.
type Config struct {
	ProjectID string
}

// Clients bundles the Firebase SDK clients used by the service.
type Clients struct {
	Auth      *fbauth.Client
	Firestore *firestore.Client
}

// InitializeClients creates the Firebase app and its Auth and Firestore clients.
// The emulator hosts in FIREBASE_AUTH_EMULATOR_HOST and FIRESTORE_EMULATOR_HOST
// are honored by the SDK.
func InitializeClients(ctx context.Context, cfg Config) (*Clients, error) {
	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: cfg.ProjectID})
	if err != nil {
		return nil, fmt.Errorf("init firebase app: %w", err)
	}

	authClient, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("init auth client: %w", err)
	}

	fsClient, err := app.Firestore(ctx)
	if err != nil {
		return nil, fmt.Errorf("init firestore client: %w", err)
	}

	return &Clients{Auth: authClient, Firestore: fsClient}, nil
}

// Close releases the Firestore client. The Auth client holds no resources.
func (c *Clients) Close() error {
	if c == nil || c.Firestore == nil {
		return nil
	}
	return c.Firestore.Close()
}
