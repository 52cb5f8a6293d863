package testutil

import (
	"context"
	"net"
	"os"
	"testing"
	"time"
)

// RequireEmulator skips the test if the Firebase Emulator is not running.
// It checks the FIRESTORE_EMULATOR_HOST environment variable and verifies
// connectivity to the emulator.
func RequireEmulator(t *testing.T) {
	t.Helper()
	requireReachable(t, "FIRESTORE_EMULATOR_HOST", "Firestore emulator")
}

// RequireAuthEmulator skips the test unless the Firebase Auth emulator is
// reachable and returns its host.
func RequireAuthEmulator(t *testing.T) string {
	t.Helper()
	return requireReachable(t, "FIREBASE_AUTH_EMULATOR_HOST", "Auth emulator")
}

// RequireRedis skips the test unless REDIS_ADDR points at a reachable server
// and returns the address.
func RequireRedis(t *testing.T) string {
	t.Helper()
	return requireReachable(t, "REDIS_ADDR", "Redis")
}

func requireReachable(t *testing.T, envVar, name string) string {
	t.Helper()

	host := os.Getenv(envVar)
	if host == "" {
		t.Skipf("%s not set; skipping %s test", envVar, name)
	}

	d := net.Dialer{Timeout: 2 * time.Second}
	conn, err := d.DialContext(context.Background(), "tcp", host)
	if err != nil {
		t.Skipf("%s not reachable at %s: %v", name, host, err)
	}
	_ = conn.Close()

	return host
}

// EmulatorProjectID returns the project ID used for emulator tests.
const EmulatorProjectID = "demo-test-project"
