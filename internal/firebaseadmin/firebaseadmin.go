// Package firebaseadmin loads the service account and builds the Firestore
// and Cloud Messaging clients.
package firebaseadmin

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"cloud.google.com/go/firestore"
	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"google.golang.org/api/option"

	"github.com/Aktiar0403/ShukkuList1.2/internal/config"
)

// ErrNotConfigured means no service account was supplied.
var ErrNotConfigured = errors.New("firebase service account not configured")

// ServiceAccount is the subset of a Google service account key the server
// needs to check before handing the raw JSON to the SDK.
type ServiceAccount struct {
	ProjectID   string `json:"project_id"`
	PrivateKey  string `json:"private_key"`
	ClientEmail string `json:"client_email"`

	raw []byte
}

// ParseServiceAccount decodes data and checks the required fields.
func ParseServiceAccount(data []byte) (*ServiceAccount, error) {
	var sa ServiceAccount
	if err := json.Unmarshal(data, &sa); err != nil {
		return nil, fmt.Errorf("invalid service account JSON: %w", err)
	}

	var errs []error
	for _, f := range []struct {
		name, value string
	}{
		{"project_id", sa.ProjectID},
		{"private_key", sa.PrivateKey},
		{"client_email", sa.ClientEmail},
	} {
		if f.value == "" {
			errs = append(errs, fmt.Errorf("missing required field in service account: %s", f.name))
		}
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	sa.raw = data
	return &sa, nil
}

// LoadServiceAccount reads the service account from inline JSON or, failing
// that, from the credentials file.
func LoadServiceAccount(cfg config.FirebaseConfig) (*ServiceAccount, error) {
	switch {
	case cfg.ServiceAccount != "":
		return ParseServiceAccount([]byte(cfg.ServiceAccount))
	case cfg.CredentialsFile != "":
		data, err := os.ReadFile(cfg.CredentialsFile)
		if err != nil {
			return nil, fmt.Errorf("reading credentials file: %w", err)
		}
		return ParseServiceAccount(data)
	default:
		return nil, ErrNotConfigured
	}
}

// Clients are the Firebase services the API uses.
type Clients struct {
	Firestore *firestore.Client
	Messaging *messaging.Client
}

// Init creates the Firebase app for sa and opens its clients.
func Init(ctx context.Context, sa *ServiceAccount) (*Clients, error) {
	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: sa.ProjectID}, option.WithCredentialsJSON(sa.raw))
	if err != nil {
		return nil, fmt.Errorf("initializing firebase app: %w", err)
	}

	fs, err := app.Firestore(ctx)
	if err != nil {
		return nil, fmt.Errorf("opening firestore: %w", err)
	}

	msg, err := app.Messaging(ctx)
	if err != nil {
		_ = fs.Close()
		return nil, fmt.Errorf("opening messaging: %w", err)
	}

	return &Clients{Firestore: fs, Messaging: msg}, nil
}

// Close releases the Firestore connection.
func (c *Clients) Close() error {
	if c == nil || c.Firestore == nil {
		return nil
	}
	return c.Firestore.Close()
}
