package handler

import (
	"encoding/json"
	"errors"
	"mime"
	"net/http"

	"github.com/Aktiar0403/ShukkuList1.2/internal/apperr"
	"github.com/Aktiar0403/ShukkuList1.2/internal/notification"
)

type sendNotificationRequest struct {
	FamilyCode *string              `json:"familyCode"`
	Payload    *notificationPayload `json:"payload"`
}

type notificationPayload struct {
	Title      *string `json:"title"`
	Body       string  `json:"body,omitempty"`
	ExcludeUID string  `json:"excludeUid,omitempty"`
	Image      string  `json:"image,omitempty"`
}

type sendNotificationResponse struct {
	SuccessCount int `json:"successCount"`
	FailureCount int `json:"failureCount"`
	TotalTokens  int `json:"totalTokens"`
}

type okResponse struct {
	OK      bool   `json:"ok"`
	Message string `json:"message"`
}

// SendNotification handles POST /api/sendNotification.
func (h *Handler) SendNotification(w http.ResponseWriter, r *http.Request) {
	if !isJSON(r.Header.Get("Content-Type")) {
		writeError(w, r, apperr.New(apperr.InvalidInput, "Content-Type must be application/json"), "")
		return
	}

	req, err := h.decodeNotification(w, r)
	if err != nil {
		writeError(w, r, err, "Invalid request body")
		return
	}

	res, err := h.notifier.NotifyFamily(r.Context(), *req.FamilyCode, notification.Payload{
		Title:           *req.Payload.Title,
		Body:            req.Payload.Body,
		ImageURL:        req.Payload.Image,
		ExcludeMemberID: req.Payload.ExcludeUID,
	})
	if err != nil {
		writeError(w, r, err, "Failed to send notifications")
		return
	}

	if res.OK {
		writeJSON(w, http.StatusOK, okResponse{OK: true, Message: res.Message})
		return
	}
	writeJSON(w, http.StatusOK, sendNotificationResponse{
		SuccessCount: res.SuccessCount,
		FailureCount: res.FailureCount,
		TotalTokens:  res.TotalTokens,
	})
}

// decodeNotification parses the body and checks the shape of each field.
// Value checks such as an empty title belong to the notification service.
func (h *Handler) decodeNotification(w http.ResponseWriter, r *http.Request) (*sendNotificationRequest, error) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxRequestBody)

	var req sendNotificationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return nil, apperr.Wrap(apperr.PayloadTooLarge, "Request body too large", err)
		}
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return nil, apperr.Wrap(apperr.InvalidInput, fieldMessage(typeErr.Field), err)
		}
		return nil, apperr.Wrap(apperr.InvalidInput, "Invalid request body", err)
	}

	if req.FamilyCode == nil || *req.FamilyCode == "" {
		return nil, apperr.New(apperr.InvalidInput, "Missing or invalid familyCode")
	}
	if req.Payload == nil {
		return nil, apperr.New(apperr.InvalidInput, "Missing or invalid notification payload")
	}
	if req.Payload.Title == nil {
		return nil, apperr.New(apperr.InvalidInput, "Missing or invalid notification title")
	}
	return &req, nil
}

func fieldMessage(field string) string {
	switch field {
	case "familyCode":
		return "Missing or invalid familyCode"
	case "payload":
		return "Missing or invalid notification payload"
	case "payload.title":
		return "Missing or invalid notification title"
	default:
		return "Invalid request body"
	}
}

func isJSON(contentType string) bool {
	if contentType == "" {
		return false
	}
	mt, _, err := mime.ParseMediaType(contentType)
	return err == nil && mt == "application/json"
}
