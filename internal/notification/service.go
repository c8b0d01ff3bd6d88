package notification

import (
	"context"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/Aktiar0403/ShukkuList1.2/internal/apperr"
	"github.com/Aktiar0403/ShukkuList1.2/internal/logging"
	"github.com/Aktiar0403/ShukkuList1.2/internal/push"
)

const (
	// DefaultFallbackBody is used when a notification has no body.
	DefaultFallbackBody = "Your family shopping list was updated"
	// DefaultChannelID is the Android notification channel.
	DefaultChannelID = "shukku_default"
	// DefaultMaxStoredTokens is how many tokens a member keeps on file.
	DefaultMaxStoredTokens = 10
	// DefaultMemberConcurrency bounds parallel member reads.
	DefaultMemberConcurrency = 8

	// NoTokensMessage is returned when a family has nobody to notify.
	NoTokensMessage = "No valid tokens to send notifications to"
)

// FamilyStore provides family membership and member device tokens.
type FamilyStore interface {
	GetMemberIDs(ctx context.Context, familyID string) ([]string, error)
	GetTokens(ctx context.Context, memberID string) ([]string, error)
	TrimTokens(ctx context.Context, trims map[string][]string) error
	TokenRemover
}

// Cleaner accepts stale-token cleanup work to run after the response.
type Cleaner interface {
	Enqueue(job CleanupJob) bool
}

// Payload is the notification content plus fan-out options.
type Payload struct {
	Title           string
	Body            string
	ImageURL        string
	ExcludeMemberID string
}

// Result summarizes a fan-out. When nobody had a usable token, OK is set with
// a Message and the counts are zero.
type Result struct {
	SuccessCount int
	FailureCount int
	TotalTokens  int
	OK           bool
	Message      string
}

// Options tunes a Service. Zero values fall back to the defaults above.
type Options struct {
	FallbackBody      string
	ChannelID         string
	MaxStoredTokens   int
	MinTokenLength    int
	MemberConcurrency int
}

func (o Options) withDefaults() Options {
	if o.FallbackBody == "" {
		o.FallbackBody = DefaultFallbackBody
	}
	if o.ChannelID == "" {
		o.ChannelID = DefaultChannelID
	}
	if o.MaxStoredTokens <= 0 {
		o.MaxStoredTokens = DefaultMaxStoredTokens
	}
	if o.MinTokenLength <= 0 {
		o.MinTokenLength = MinTokenLength
	}
	if o.MemberConcurrency <= 0 {
		o.MemberConcurrency = DefaultMemberConcurrency
	}
	return o
}

// Service fans a notification out to every device of a family.
type Service struct {
	store   FamilyStore
	sender  push.Sender
	cleaner Cleaner
	opts    Options
}

// NewService creates a new notification service. A nil store or sender
// means the messaging backend is not configured; every send then fails with
// apperr.ConfigError.
func NewService(store FamilyStore, sender push.Sender, cleaner Cleaner, opts Options) *Service {
	return &Service{
		store:   store,
		sender:  sender,
		cleaner: cleaner,
		opts:    opts.withDefaults(),
	}
}

// NotifyFamily sends p to every member of familyID except p.ExcludeMemberID.
func (s *Service) NotifyFamily(ctx context.Context, familyID string, p Payload) (*Result, error) {
	if familyID == "" || strings.Contains(familyID, "/") {
		return nil, apperr.New(apperr.InvalidInput, "Missing or invalid familyCode")
	}
	title := strings.TrimSpace(p.Title)
	if title == "" {
		return nil, apperr.New(apperr.InvalidInput, "Missing or invalid notification title")
	}

	if s.store == nil || s.sender == nil {
		return nil, apperr.New(apperr.ConfigError, "Server configuration error")
	}

	members, err := s.store.GetMemberIDs(ctx, familyID)
	if err != nil {
		if apperr.Is(err, apperr.NotFound) {
			return nil, err
		}
		return nil, apperr.Wrap(apperr.Unknown, "Failed to send notifications", err)
	}
	if len(members) == 0 {
		return nil, apperr.New(apperr.InvalidInput, "No users in this family")
	}

	log := logging.FromContext(ctx).With("family", familyID)
	tokens, trims := s.gatherTokens(ctx, members, p.ExcludeMemberID)

	if len(trims) > 0 {
		if err := s.store.TrimTokens(ctx, trims); err != nil {
			log.Error("trimming stored tokens failed", "members", len(trims), "error", err)
		}
	}

	valid := validateTokens(tokens, s.opts.MinTokenLength)
	if len(valid) == 0 {
		return &Result{OK: true, Message: NoTokensMessage}, nil
	}

	log.Info("sending notification", "tokens", len(valid))

	resp, err := s.sender.SendMulticast(ctx, s.buildMessage(title, p, valid))
	if err != nil {
		log.Error("multicast send failed", "error", err)
		if apperr.KindOf(err) == apperr.Unknown {
			return nil, apperr.Wrap(apperr.Unknown, "Failed to send notifications", err)
		}
		return nil, err
	}
	recordSend(ctx, resp.SuccessCount, resp.FailureCount)

	if resp.FailureCount > 0 {
		log.Info("notification had failures", "failures", resp.FailureCount)
		for _, r := range resp.Responses {
			if !r.Success {
				log.Warn("token failed", "error", r.Err)
			}
		}
		if failed := resp.FailedTokens(); len(failed) > 0 && s.cleaner != nil {
			s.cleaner.Enqueue(CleanupJob{FamilyID: familyID, MemberIDs: members, Failed: failed})
		}
		if resp.AllUnregistered() {
			return nil, apperr.New(apperr.InvalidTokens, "Invalid device tokens")
		}
	}

	return &Result{
		SuccessCount: resp.SuccessCount,
		FailureCount: resp.FailureCount,
		TotalTokens:  len(valid),
	}, nil
}

// gatherTokens loads every non-excluded member's tokens, in member order, and
// collects trims for members holding more than MaxStoredTokens. A member that
// cannot be read is logged and skipped.
func (s *Service) gatherTokens(ctx context.Context, members []string, exclude string) ([]string, map[string][]string) {
	perMember := make([][]string, len(members))
	trimmed := make([][]string, len(members))

	var g errgroup.Group
	g.SetLimit(s.opts.MemberConcurrency)

	for i, memberID := range members {
		if exclude != "" && memberID == exclude {
			continue
		}
		g.Go(func() error {
			tokens, err := s.store.GetTokens(ctx, memberID)
			if err != nil {
				logging.FromContext(ctx).Warn("error processing member", "member", memberID, "error", err)
				recordUnreachable(ctx)
				return nil
			}
			perMember[i] = tokens
			if n := len(tokens); n > s.opts.MaxStoredTokens {
				trimmed[i] = append([]string(nil), tokens[n-s.opts.MaxStoredTokens:]...)
			}
			return nil
		})
	}
	_ = g.Wait()

	var all []string
	trims := make(map[string][]string)
	for i, memberID := range members {
		all = append(all, perMember[i]...)
		if trimmed[i] != nil {
			trims[memberID] = trimmed[i]
		}
	}
	return all, trims
}

func (s *Service) buildMessage(title string, p Payload, tokens []string) *push.Message {
	body := strings.TrimSpace(p.Body)
	if body == "" {
		body = s.opts.FallbackBody
	}
	return &push.Message{
		Tokens:           tokens,
		Title:            title,
		Body:             body,
		ImageURL:         p.ImageURL,
		Sound:            "default",
		Badge:            1,
		AndroidChannelID: s.opts.ChannelID,
		HighPriority:     true,
	}
}
