package push

import "context"

// Message is one notification addressed to many device tokens.
type Message struct {
	Tokens   []string
	Title    string
	Body     string
	ImageURL string

	// Delivery hints passed through to the platform-specific configs.
	Sound            string
	Badge            int
	AndroidChannelID string
	HighPriority     bool
}

// SendResult is the provider's verdict for a single token.
type SendResult struct {
	Token   string
	Success bool
	Err     error
	// Unregistered is set when the provider says the token no longer exists.
	Unregistered bool
}

// BatchResult holds per-token results in the same order as Message.Tokens.
type BatchResult struct {
	SuccessCount int
	FailureCount int
	Responses    []SendResult
}

// FailedTokens returns the tokens the provider rejected.
func (r *BatchResult) FailedTokens() []string {
	var failed []string
	for _, resp := range r.Responses {
		if !resp.Success {
			failed = append(failed, resp.Token)
		}
	}
	return failed
}

// AllUnregistered reports whether every token was rejected as no longer
// registered.
func (r *BatchResult) AllUnregistered() bool {
	if r.SuccessCount > 0 || len(r.Responses) == 0 {
		return false
	}
	for _, resp := range r.Responses {
		if resp.Success || !resp.Unregistered {
			return false
		}
	}
	return true
}

// Sender delivers a multicast push.
type Sender interface {
	SendMulticast(ctx context.Context, msg *Message) (*BatchResult, error)
}
