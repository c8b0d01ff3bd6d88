package push

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"firebase.google.com/go/v4/errorutils"
	"firebase.google.com/go/v4/messaging"

	"github.com/Aktiar0403/ShukkuList1.2/internal/apperr"
)

// MaxMulticastTokens is the provider's limit on tokens per multicast call.
const MaxMulticastTokens = 500

type multicaster interface {
	SendEachForMulticast(ctx context.Context, m *messaging.MulticastMessage) (*messaging.BatchResponse, error)
}

// FCM sends through Firebase Cloud Messaging.
type FCM struct {
	client multicaster
}

// NewFCM wraps an initialized messaging client.
func NewFCM(client *messaging.Client) *FCM {
	return &FCM{client: client}
}

// SendMulticast sends msg to all of its tokens, splitting the list into
// provider-sized calls. Results are merged in token order. A whole-call
// failure aborts the remaining chunks.
func (f *FCM) SendMulticast(ctx context.Context, msg *Message) (*BatchResult, error) {
	if err := validateMessage(msg); err != nil {
		return nil, apperr.Wrap(apperr.InvalidPayload, "Invalid notification payload", err)
	}

	result := &BatchResult{Responses: make([]SendResult, 0, len(msg.Tokens))}
	for start := 0; start < len(msg.Tokens); start += MaxMulticastTokens {
		end := min(start+MaxMulticastTokens, len(msg.Tokens))
		tokens := msg.Tokens[start:end]

		resp, err := f.client.SendEachForMulticast(ctx, toMulticast(msg, tokens))
		if err != nil {
			return nil, classifyError(err)
		}

		result.SuccessCount += resp.SuccessCount
		result.FailureCount += resp.FailureCount
		for i, r := range resp.Responses {
			result.Responses = append(result.Responses, SendResult{
				Token:        tokens[i],
				Success:      r.Success,
				Err:          r.Error,
				Unregistered: r.Error != nil && messaging.IsUnregistered(r.Error),
			})
		}
	}
	return result, nil
}

// validateMessage repeats the SDK's local message checks. The SDK reports
// them as plain errors, which would otherwise be indistinguishable from
// transport failures.
func validateMessage(msg *Message) error {
	if len(msg.Tokens) == 0 {
		return errors.New("no tokens")
	}
	if msg.ImageURL != "" {
		if _, err := url.ParseRequestURI(msg.ImageURL); err != nil {
			return fmt.Errorf("invalid image URL: %q", msg.ImageURL)
		}
	}
	return nil
}

// toMulticast builds the FCM message for tokens with per-platform delivery
// hints taken from msg.
func toMulticast(msg *Message, tokens []string) *messaging.MulticastMessage {
	m := &messaging.MulticastMessage{
		Tokens: tokens,
		Notification: &messaging.Notification{
			Title:    msg.Title,
			Body:     msg.Body,
			ImageURL: msg.ImageURL,
		},
	}

	aps := &messaging.Aps{Sound: msg.Sound}
	if msg.Badge > 0 {
		badge := msg.Badge
		aps.Badge = &badge
	}
	m.APNS = &messaging.APNSConfig{Payload: &messaging.APNSPayload{Aps: aps}}

	m.Android = &messaging.AndroidConfig{
		Notification: &messaging.AndroidNotification{
			Sound:     msg.Sound,
			ChannelID: msg.AndroidChannelID,
		},
	}
	if msg.HighPriority {
		m.Android.Priority = "high"
		m.Webpush = &messaging.WebpushConfig{Headers: map[string]string{"Urgency": "high"}}
	}

	return m
}

// classifyError maps whole-request provider failures onto apperr kinds.
func classifyError(err error) error {
	switch {
	case errorutils.IsInvalidArgument(err):
		return apperr.Wrap(apperr.InvalidPayload, "Invalid notification payload", err)
	case messaging.IsUnregistered(err):
		return apperr.Wrap(apperr.InvalidTokens, "Invalid device tokens", err)
	default:
		return apperr.Wrap(apperr.Unknown, "Failed to send notifications", err)
	}
}
