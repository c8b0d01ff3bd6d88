package handler

import (
	"net/http"

	"github.com/Aktiar0403/ShukkuList1.2/internal/apperr"
	"github.com/Aktiar0403/ShukkuList1.2/internal/logging"
)

// ErrCodeMethodNotAllowed answers unsupported methods. It is not an apperr kind.
const ErrCodeMethodNotAllowed = "METHOD_NOT_ALLOWED"

// ApiError is the body of every error response.
type ApiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ApiErrorResponse wraps ApiError as {"error": {...}}.
type ApiErrorResponse struct {
	Error ApiError `json:"error"`
}

// newErrorResponse creates an ApiErrorResponse with the given code and message
func newErrorResponse(code, message string) ApiErrorResponse {
	return ApiErrorResponse{
		Error: ApiError{Code: code, Message: message},
	}
}

// StatusFor maps an error kind to its HTTP status.
func StatusFor(kind apperr.Kind) int {
	switch kind {
	case apperr.InvalidInput, apperr.InvalidPayload, apperr.InvalidTokens:
		return http.StatusBadRequest
	case apperr.NotFound:
		return http.StatusNotFound
	case apperr.Forbidden:
		return http.StatusForbidden
	case apperr.Timeout:
		return http.StatusRequestTimeout
	case apperr.PayloadTooLarge:
		return http.StatusRequestEntityTooLarge
	default:
		return http.StatusInternalServerError
	}
}

// writeError responds with err's classified status and caller-facing
// message. Causes are logged and never sent to the client.
func writeError(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	kind := apperr.KindOf(err)
	status := StatusFor(kind)
	msg := apperr.MessageOf(err, fallback)

	log := logging.FromContext(r.Context())
	if status >= http.StatusInternalServerError {
		log.Error("request failed", "kind", kind, "error", err)
	} else {
		log.Info("request rejected", "kind", kind, "error", err)
	}

	writeJSON(w, status, newErrorResponse(string(kind), msg))
}

// MethodNotAllowed answers 405 with a JSON body.
func MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusMethodNotAllowed, newErrorResponse(ErrCodeMethodNotAllowed, "Method not allowed"))
}
