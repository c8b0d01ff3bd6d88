package family

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/Aktiar0403/ShukkuList1.2/internal/apperr"
)

// Repository reads family membership and member device tokens from Firestore.
type Repository struct {
	client *firestore.Client
}

// NewRepository creates a new Repository.
func NewRepository(client *firestore.Client) *Repository {
	return &Repository{client: client}
}

func validID(id string) bool {
	return id != "" && !strings.Contains(id, "/")
}

func (r *Repository) family(id string) *firestore.DocumentRef {
	return r.client.Collection(familiesCollection).Doc(id)
}

func (r *Repository) user(id string) *firestore.DocumentRef {
	return r.client.Collection(usersCollection).Doc(id)
}

// GetMemberIDs returns the member list of a family. A missing family is an
// apperr.NotFound error.
func (r *Repository) GetMemberIDs(ctx context.Context, familyID string) ([]string, error) {
	if !validID(familyID) {
		return nil, apperr.New(apperr.NotFound, "Family not found")
	}

	snap, err := r.family(familyID).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return nil, apperr.Wrap(apperr.NotFound, "Family not found", err)
	}
	if err != nil {
		return nil, fmt.Errorf("loading family %s: %w", familyID, err)
	}

	return stringSlice(snap.Data()[fieldMembers]), nil
}

// GetTokens returns a member's stored device tokens, oldest first. A member
// without a user document has no tokens.
func (r *Repository) GetTokens(ctx context.Context, memberID string) ([]string, error) {
	if !validID(memberID) {
		return nil, fmt.Errorf("invalid member id %q", memberID)
	}

	snap, err := r.user(memberID).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading user %s: %w", memberID, err)
	}

	return stringSlice(snap.Data()[fieldTokens]), nil
}

// TrimTokens overwrites the token lists of several members in one bulk write.
func (r *Repository) TrimTokens(ctx context.Context, trims map[string][]string) error {
	if len(trims) == 0 {
		return nil
	}

	trims = validTrims(trims)
	if len(trims) == 0 {
		return nil
	}

	bw := r.client.BulkWriter(ctx)
	jobs := make([]*firestore.BulkWriterJob, 0, len(trims))
	for memberID, tokens := range trims {
		job, err := bw.Update(r.user(memberID), []firestore.Update{
			{Path: fieldTokens, Value: tokens},
		})
		if err != nil {
			bw.End()
			return fmt.Errorf("queueing token trim for %s: %w", memberID, err)
		}
		jobs = append(jobs, job)
	}
	bw.End()

	var errs []error
	for _, job := range jobs {
		if _, err := job.Results(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// RemoveTokens drops every token in failed from a member's stored list and
// reports whether the document was rewritten.
func (r *Repository) RemoveTokens(ctx context.Context, memberID string, failed map[string]struct{}) (bool, error) {
	if !validID(memberID) {
		return false, nil
	}

	ref := r.user(memberID)
	snap, err := ref.Get(ctx)
	if status.Code(err) == codes.NotFound {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("loading user %s: %w", memberID, err)
	}

	kept, removed := withoutTokens(snap.Data()[fieldTokens], failed)
	if removed == 0 {
		return false, nil
	}

	_, err = ref.Update(ctx, []firestore.Update{
		{Path: fieldTokens, Value: kept},
		{Path: fieldTokensUpdatedAt, Value: firestore.ServerTimestamp},
	})
	if err != nil {
		return false, fmt.Errorf("updating tokens for %s: %w", memberID, err)
	}
	return true, nil
}
