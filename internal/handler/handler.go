package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/Aktiar0403/ShukkuList1.2/internal/metadata"
	"github.com/Aktiar0403/ShukkuList1.2/internal/notification"
)

// DefaultMaxRequestBody caps JSON request bodies.
const DefaultMaxRequestBody = 64 << 10

// MetadataFetcher resolves product metadata for a URL.
type MetadataFetcher interface {
	Fetch(ctx context.Context, rawURL string) (*metadata.Metadata, error)
}

// Notifier fans a notification out to a family.
type Notifier interface {
	NotifyFamily(ctx context.Context, familyID string, p notification.Payload) (*notification.Result, error)
}

// Handler serves the public API endpoints.
type Handler struct {
	metadata       MetadataFetcher
	notifier       Notifier
	maxRequestBody int64
}

// Dependencies holds all dependencies for the Handler
type Dependencies struct {
	Metadata       MetadataFetcher
	Notifier       Notifier
	MaxRequestBody int64
}

// New creates a new Handler with all dependencies
func New(deps Dependencies) *Handler {
	maxBody := deps.MaxRequestBody
	if maxBody <= 0 {
		maxBody = DefaultMaxRequestBody
	}
	return &Handler{
		metadata:       deps.Metadata,
		notifier:       deps.Notifier,
		maxRequestBody: maxBody,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Debug("writing response failed", "error", err)
	}
}
