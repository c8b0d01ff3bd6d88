package handler

import (
	"net/http"
	"strings"

	"github.com/Aktiar0403/ShukkuList1.2/internal/apperr"
)

// FetchMetadata handles GET /api/fetchMetadata?url=...
func (h *Handler) FetchMetadata(w http.ResponseWriter, r *http.Request) {
	raw := strings.TrimSpace(r.URL.Query().Get("url"))
	if raw == "" {
		writeError(w, r, apperr.New(apperr.InvalidInput, "URL parameter is required"), "")
		return
	}

	md, err := h.metadata.Fetch(r.Context(), raw)
	if err != nil {
		writeError(w, r, err, "Failed to fetch metadata")
		return
	}
	writeJSON(w, http.StatusOK, md)
}
