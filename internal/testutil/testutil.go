package testutil

import (
	"context"
	"os"
	"strings"
	"testing"

	"cloud.google.com/go/firestore"
	"github.com/oklog/ulid/v2"
)

// EmulatorProject is the project id used against the Firestore emulator.
// The "demo-" prefix keeps the SDK from looking for real credentials.
const EmulatorProject = "demo-shukku"

// Firestore connects to the Firestore emulator. The test is skipped unless
// FIRESTORE_EMULATOR_HOST is set. The client is closed when the test ends.
func Firestore(t *testing.T) *firestore.Client {
	t.Helper()

	if os.Getenv("FIRESTORE_EMULATOR_HOST") == "" {
		t.Skip("FIRESTORE_EMULATOR_HOST not set")
	}

	client, err := firestore.NewClient(context.Background(), EmulatorProject)
	if err != nil {
		t.Fatalf("creating firestore client: %v", err)
	}
	t.Cleanup(func() {
		client.Close()
	})
	return client
}

// NewID returns a unique lower-case document id so tests sharing an
// emulator never collide.
func NewID() string {
	return strings.ToLower(ulid.Make().String())
}

// Token returns a device token of n characters built from c.
func Token(c byte, n int) string {
	return strings.Repeat(string(c), n)
}
