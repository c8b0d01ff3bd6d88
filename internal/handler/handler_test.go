package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Aktiar0403/ShukkuList1.2/internal/apperr"
	"github.com/Aktiar0403/ShukkuList1.2/internal/metadata"
	"github.com/Aktiar0403/ShukkuList1.2/internal/notification"
)

type fakeFetcher struct {
	md     *metadata.Metadata
	err    error
	gotURL string
}

func (f *fakeFetcher) Fetch(_ context.Context, rawURL string) (*metadata.Metadata, error) {
	f.gotURL = rawURL
	return f.md, f.err
}

type fakeNotifier struct {
	res       *notification.Result
	err       error
	gotFamily string
	gotPay    notification.Payload
	called    bool
}

func (f *fakeNotifier) NotifyFamily(_ context.Context, familyID string, p notification.Payload) (*notification.Result, error) {
	f.called = true
	f.gotFamily = familyID
	f.gotPay = p
	return f.res, f.err
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) ApiErrorResponse {
	t.Helper()
	var resp ApiErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("response is not valid JSON: %v\nbody: %s", err, w.Body.String())
	}
	return resp
}

func TestStatusFor(t *testing.T) {
	tests := map[apperr.Kind]int{
		apperr.InvalidInput:    http.StatusBadRequest,
		apperr.NotFound:        http.StatusNotFound,
		apperr.Forbidden:       http.StatusForbidden,
		apperr.Timeout:         http.StatusRequestTimeout,
		apperr.PayloadTooLarge: http.StatusRequestEntityTooLarge,
		apperr.InvalidPayload:  http.StatusBadRequest,
		apperr.InvalidTokens:   http.StatusBadRequest,
		apperr.ConfigError:     http.StatusInternalServerError,
		apperr.Unknown:         http.StatusInternalServerError,
	}
	for kind, want := range tests {
		if got := StatusFor(kind); got != want {
			t.Errorf("StatusFor(%s) = %d, want %d", kind, got, want)
		}
	}
}

func TestFetchMetadata_Success(t *testing.T) {
	price := 19.99
	f := &fakeFetcher{md: &metadata.Metadata{Title: "Kettle", Price: &price, URL: "https://shop.example/k", Site: "shop.example"}}
	h := New(Dependencies{Metadata: f})

	w := httptest.NewRecorder()
	h.FetchMetadata(w, httptest.NewRequest(http.MethodGet, "/api/fetchMetadata?url=https%3A%2F%2Fshop.example%2Fk", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status %d: %s", w.Code, w.Body.String())
	}
	if f.gotURL != "https://shop.example/k" {
		t.Fatalf("fetcher got %q", f.gotURL)
	}
	var got map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatal(err)
	}
	if got["title"] != "Kettle" || got["price"] != 19.99 {
		t.Fatalf("body = %v", got)
	}
	if _, ok := got["description"]; ok {
		t.Fatal("empty description should be omitted")
	}
}

func TestFetchMetadata_MissingURL(t *testing.T) {
	f := &fakeFetcher{}
	h := New(Dependencies{Metadata: f})

	w := httptest.NewRecorder()
	h.FetchMetadata(w, httptest.NewRequest(http.MethodGet, "/api/fetchMetadata", nil))

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status %d, want 400", w.Code)
	}
	if resp := decodeError(t, w); resp.Error.Message != "URL parameter is required" {
		t.Fatalf("message = %q", resp.Error.Message)
	}
}

func TestFetchMetadata_ErrorKinds(t *testing.T) {
	tests := []struct {
		err        error
		wantStatus int
		wantMsg    string
	}{
		{apperr.New(apperr.InvalidInput, "Invalid URL format"), 400, "Invalid URL format"},
		{apperr.New(apperr.NotFound, "Website not found"), 404, "Website not found"},
		{apperr.New(apperr.Forbidden, "Access forbidden"), 403, "Access forbidden"},
		{apperr.New(apperr.Timeout, "Request timeout"), 408, "Request timeout"},
		{apperr.New(apperr.PayloadTooLarge, "Page too large"), 413, "Page too large"},
		{context.Canceled, 500, "Failed to fetch metadata"},
	}

	for _, tt := range tests {
		t.Run(tt.wantMsg, func(t *testing.T) {
			h := New(Dependencies{Metadata: &fakeFetcher{err: tt.err}})
			w := httptest.NewRecorder()
			h.FetchMetadata(w, httptest.NewRequest(http.MethodGet, "/api/fetchMetadata?url=x", nil))

			if w.Code != tt.wantStatus {
				t.Fatalf("status %d, want %d", w.Code, tt.wantStatus)
			}
			if resp := decodeError(t, w); resp.Error.Message != tt.wantMsg {
				t.Fatalf("message = %q, want %q", resp.Error.Message, tt.wantMsg)
			}
		})
	}
}

func postNotification(h *Handler, contentType, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/sendNotification", strings.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	w := httptest.NewRecorder()
	h.SendNotification(w, req)
	return w
}

func TestSendNotification_Success(t *testing.T) {
	n := &fakeNotifier{res: &notification.Result{SuccessCount: 2, FailureCount: 1, TotalTokens: 3}}
	h := New(Dependencies{Notifier: n})

	w := postNotification(h, "application/json; charset=utf-8",
		`{"familyCode":"fam1","payload":{"title":"Milk","body":"2L","excludeUid":"u1","image":"https://i.example/m.png"}}`)

	if w.Code != http.StatusOK {
		t.Fatalf("status %d: %s", w.Code, w.Body.String())
	}
	want := notification.Payload{Title: "Milk", Body: "2L", ExcludeMemberID: "u1", ImageURL: "https://i.example/m.png"}
	if n.gotFamily != "fam1" || n.gotPay != want {
		t.Fatalf("notifier got %q %+v", n.gotFamily, n.gotPay)
	}
	var got sendNotificationResponse
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatal(err)
	}
	if got != (sendNotificationResponse{SuccessCount: 2, FailureCount: 1, TotalTokens: 3}) {
		t.Fatalf("body = %+v", got)
	}
}

func TestSendNotification_NoTokens(t *testing.T) {
	n := &fakeNotifier{res: &notification.Result{OK: true, Message: notification.NoTokensMessage}}
	h := New(Dependencies{Notifier: n})

	w := postNotification(h, "application/json", `{"familyCode":"fam1","payload":{"title":"Milk"}}`)

	if w.Code != http.StatusOK {
		t.Fatalf("status %d", w.Code)
	}
	var got okResponse
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatal(err)
	}
	if !got.OK || got.Message != notification.NoTokensMessage {
		t.Fatalf("body = %+v", got)
	}
}

func TestSendNotification_BadRequests(t *testing.T) {
	tests := []struct {
		name        string
		contentType string
		body        string
		wantStatus  int
		wantMsg     string
	}{
		{"no content type", "", `{}`, 400, "Content-Type must be application/json"},
		{"text content type", "text/plain", `{}`, 400, "Content-Type must be application/json"},
		{"malformed json", "application/json", `{"familyCode":`, 400, "Invalid request body"},
		{"missing family", "application/json", `{"payload":{"title":"x"}}`, 400, "Missing or invalid familyCode"},
		{"numeric family", "application/json", `{"familyCode":7,"payload":{"title":"x"}}`, 400, "Missing or invalid familyCode"},
		{"missing payload", "application/json", `{"familyCode":"f"}`, 400, "Missing or invalid notification payload"},
		{"payload not object", "application/json", `{"familyCode":"f","payload":"hi"}`, 400, "Missing or invalid notification payload"},
		{"missing title", "application/json", `{"familyCode":"f","payload":{}}`, 400, "Missing or invalid notification title"},
		{"numeric title", "application/json", `{"familyCode":"f","payload":{"title":3}}`, 400, "Missing or invalid notification title"},
		{"too large", "application/json", `{"familyCode":"` + strings.Repeat("a", DefaultMaxRequestBody) + `"}`, 413, "Request body too large"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := &fakeNotifier{}
			h := New(Dependencies{Notifier: n})
			w := postNotification(h, tt.contentType, tt.body)

			if w.Code != tt.wantStatus {
				t.Fatalf("status %d, want %d: %s", w.Code, tt.wantStatus, w.Body.String())
			}
			if resp := decodeError(t, w); resp.Error.Message != tt.wantMsg {
				t.Fatalf("message = %q, want %q", resp.Error.Message, tt.wantMsg)
			}
			if n.called {
				t.Fatal("notifier should not be called")
			}
		})
	}
}

func TestSendNotification_ServiceErrors(t *testing.T) {
	tests := []struct {
		err        error
		wantStatus int
		wantCode   string
	}{
		{apperr.New(apperr.NotFound, "Family not found"), 404, "NOT_FOUND"},
		{apperr.New(apperr.InvalidPayload, "Invalid notification payload"), 400, "INVALID_PAYLOAD"},
		{apperr.New(apperr.InvalidTokens, "Invalid device tokens"), 400, "INVALID_TOKENS"},
		{apperr.New(apperr.ConfigError, "Server configuration error"), 500, "CONFIG_ERROR"},
		{apperr.Wrap(apperr.Unknown, "Failed to send notifications", context.DeadlineExceeded), 500, "UNKNOWN"},
	}

	for _, tt := range tests {
		t.Run(tt.wantCode, func(t *testing.T) {
			h := New(Dependencies{Notifier: &fakeNotifier{err: tt.err}})
			w := postNotification(h, "application/json", `{"familyCode":"f","payload":{"title":"x"}}`)

			if w.Code != tt.wantStatus {
				t.Fatalf("status %d, want %d", w.Code, tt.wantStatus)
			}
			resp := decodeError(t, w)
			if resp.Error.Code != tt.wantCode {
				t.Fatalf("code = %q, want %q", resp.Error.Code, tt.wantCode)
			}
			if strings.Contains(resp.Error.Message, "deadline") {
				t.Fatalf("cause leaked into message: %q", resp.Error.Message)
			}
		})
	}
}
