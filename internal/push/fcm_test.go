package push

import (
	"context"
	"errors"
	"fmt"
	"testing"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"google.golang.org/api/option"

	"github.com/Aktiar0403/ShukkuList1.2/internal/apperr"
)

func TestToMulticast(t *testing.T) {
	msg := &Message{
		Tokens:           []string{"tok-a", "tok-b"},
		Title:            "Milk added",
		Body:             "Sam added oat milk",
		ImageURL:         "https://shop.example/oat.png",
		Sound:            "default",
		Badge:            1,
		AndroidChannelID: "shukku_default",
		HighPriority:     true,
	}

	m := toMulticast(msg, msg.Tokens)

	if len(m.Tokens) != 2 {
		t.Fatalf("tokens = %v", m.Tokens)
	}
	if m.Notification.Title != "Milk added" || m.Notification.Body != "Sam added oat milk" {
		t.Errorf("notification = %+v", m.Notification)
	}
	if m.Notification.ImageURL != "https://shop.example/oat.png" {
		t.Errorf("image = %q", m.Notification.ImageURL)
	}
	if m.Android.Priority != "high" {
		t.Errorf("android priority = %q, want high", m.Android.Priority)
	}
	if m.Android.Notification.ChannelID != "shukku_default" || m.Android.Notification.Sound != "default" {
		t.Errorf("android notification = %+v", m.Android.Notification)
	}
	if m.APNS.Payload.Aps.Sound != "default" {
		t.Errorf("aps sound = %q", m.APNS.Payload.Aps.Sound)
	}
	if m.APNS.Payload.Aps.Badge == nil || *m.APNS.Payload.Aps.Badge != 1 {
		t.Errorf("aps badge = %v, want 1", m.APNS.Payload.Aps.Badge)
	}
	if m.Webpush == nil || m.Webpush.Headers["Urgency"] != "high" {
		t.Errorf("webpush = %+v, want Urgency high", m.Webpush)
	}
}

func TestToMulticast_NormalPriority(t *testing.T) {
	m := toMulticast(&Message{Title: "x"}, []string{"t"})
	if m.Android.Priority != "" {
		t.Errorf("android priority = %q, want empty", m.Android.Priority)
	}
	if m.Webpush != nil {
		t.Errorf("webpush = %+v, want nil", m.Webpush)
	}
	if m.APNS.Payload.Aps.Badge != nil {
		t.Error("expected no badge")
	}
}

func TestClassifyError_Unknown(t *testing.T) {
	err := classifyError(errors.New("connection reset"))
	if !apperr.Is(err, apperr.Unknown) {
		t.Fatalf("expected Unknown, got %v", err)
	}
}

func TestBatchResult_FailedTokens(t *testing.T) {
	r := &BatchResult{
		SuccessCount: 1,
		FailureCount: 2,
		Responses: []SendResult{
			{Token: "a", Success: false},
			{Token: "b", Success: true},
			{Token: "c", Success: false},
		},
	}
	got := r.FailedTokens()
	if len(got) != 2 || got[0] != "a" || got[1] != "c" {
		t.Errorf("FailedTokens() = %v, want [a c]", got)
	}
}

func TestBatchResult_AllUnregistered(t *testing.T) {
	tests := []struct {
		name string
		r    BatchResult
		want bool
	}{
		{"empty", BatchResult{}, false},
		{"all unregistered", BatchResult{FailureCount: 2, Responses: []SendResult{
			{Token: "a", Unregistered: true},
			{Token: "b", Unregistered: true},
		}}, true},
		{"one other failure", BatchResult{FailureCount: 2, Responses: []SendResult{
			{Token: "a", Unregistered: true},
			{Token: "b"},
		}}, false},
		{"partial success", BatchResult{SuccessCount: 1, FailureCount: 1, Responses: []SendResult{
			{Token: "a", Success: true},
			{Token: "b", Unregistered: true},
		}}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.r.AllUnregistered(); got != tt.want {
				t.Fatalf("AllUnregistered() = %v, want %v", got, tt.want)
			}
		})
	}
}

// recordingClient answers every call with per-token results and records the
// token lists it was given.
type recordingClient struct {
	calls  [][]string
	reject map[string]bool
	err    error
}

func (c *recordingClient) SendEachForMulticast(_ context.Context, m *messaging.MulticastMessage) (*messaging.BatchResponse, error) {
	if c.err != nil {
		return nil, c.err
	}
	c.calls = append(c.calls, m.Tokens)
	resp := &messaging.BatchResponse{}
	for _, tok := range m.Tokens {
		if c.reject[tok] {
			resp.FailureCount++
			resp.Responses = append(resp.Responses, &messaging.SendResponse{Error: errors.New("rejected")})
			continue
		}
		resp.SuccessCount++
		resp.Responses = append(resp.Responses, &messaging.SendResponse{Success: true, MessageID: "m-" + tok})
	}
	return resp, nil
}

func TestSendMulticast_ChunksLargeTokenLists(t *testing.T) {
	tokens := make([]string, 1201)
	for i := range tokens {
		tokens[i] = fmt.Sprintf("tok-%04d", i)
	}
	client := &recordingClient{reject: map[string]bool{"tok-0000": true, "tok-0750": true, "tok-1200": true}}
	f := &FCM{client: client}

	res, err := f.SendMulticast(context.Background(), &Message{Tokens: tokens, Title: "Bread"})
	if err != nil {
		t.Fatalf("SendMulticast: %v", err)
	}

	if len(client.calls) != 3 {
		t.Fatalf("calls = %d, want 3", len(client.calls))
	}
	for i, want := range []int{500, 500, 201} {
		if len(client.calls[i]) != want {
			t.Errorf("call %d sent %d tokens, want %d", i, len(client.calls[i]), want)
		}
	}
	if res.SuccessCount != 1198 || res.FailureCount != 3 || len(res.Responses) != 1201 {
		t.Fatalf("result = %d ok / %d failed / %d responses", res.SuccessCount, res.FailureCount, len(res.Responses))
	}
	got := res.FailedTokens()
	if len(got) != 3 || got[0] != "tok-0000" || got[1] != "tok-0750" || got[2] != "tok-1200" {
		t.Fatalf("FailedTokens() = %v", got)
	}
	for i, r := range res.Responses {
		if r.Token != tokens[i] {
			t.Fatalf("response %d is for %q, want %q", i, r.Token, tokens[i])
		}
	}
}

func TestSendMulticast_ProviderFailure(t *testing.T) {
	f := &FCM{client: &recordingClient{err: errors.New("connection reset")}}
	_, err := f.SendMulticast(context.Background(), &Message{Tokens: []string{"a"}, Title: "x"})
	if !apperr.Is(err, apperr.Unknown) {
		t.Fatalf("expected Unknown, got %v", err)
	}
}

func TestSendMulticast_InvalidImageIsInvalidPayload(t *testing.T) {
	ctx := context.Background()
	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: "demo-shukku"}, option.WithoutAuthentication())
	if err != nil {
		t.Fatal(err)
	}
	client, err := app.Messaging(ctx)
	if err != nil {
		t.Fatal(err)
	}

	_, err = NewFCM(client).SendMulticast(ctx, &Message{
		Tokens:   []string{"tok-a"},
		Title:    "Milk",
		ImageURL: "not a url",
	})
	if !apperr.Is(err, apperr.InvalidPayload) {
		t.Fatalf("expected InvalidPayload, got %v (kind %s)", err, apperr.KindOf(err))
	}
}
