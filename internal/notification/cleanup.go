package notification

import (
	"context"
	"log/slog"
	"time"
)

const (
	// DefaultCleanupQueueSize is how many cleanup jobs may wait at once.
	DefaultCleanupQueueSize = 64

	cleanupTimeout = time.Minute
)

// TokenRemover deletes rejected tokens from a member's stored list.
type TokenRemover interface {
	RemoveTokens(ctx context.Context, memberID string, failed map[string]struct{}) (bool, error)
}

// CleanupJob asks for the failed tokens of one send to be removed from every
// listed member.
type CleanupJob struct {
	FamilyID  string
	MemberIDs []string
	Failed    []string
}

// Janitor removes tokens the push provider rejected. Jobs run on a single
// background goroutine after the request that produced them has returned;
// jobs still queued at shutdown are dropped.
type Janitor struct {
	store TokenRemover
	jobs  chan CleanupJob
}

// NewJanitor creates a Janitor with room for queueSize pending jobs.
func NewJanitor(store TokenRemover, queueSize int) *Janitor {
	if queueSize <= 0 {
		queueSize = DefaultCleanupQueueSize
	}
	return &Janitor{
		store: store,
		jobs:  make(chan CleanupJob, queueSize),
	}
}

// Enqueue schedules job without blocking. It returns false when the queue is
// full and the job was dropped.
func (j *Janitor) Enqueue(job CleanupJob) bool {
	select {
	case j.jobs <- job:
		return true
	default:
		slog.Warn("token cleanup queue full, dropping job", "family", job.FamilyID, "tokens", len(job.Failed))
		return false
	}
}

// Start processes jobs until ctx is cancelled.
func (j *Janitor) Start(ctx context.Context) {
	slog.Info("token cleanup worker started")
	for {
		select {
		case <-ctx.Done():
			slog.Info("token cleanup worker stopped", "pending", len(j.jobs))
			return
		case job := <-j.jobs:
			j.process(ctx, job)
		}
	}
}

func (j *Janitor) process(ctx context.Context, job CleanupJob) {
	ctx, cancel := context.WithTimeout(ctx, cleanupTimeout)
	defer cancel()

	failed := make(map[string]struct{}, len(job.Failed))
	for _, token := range job.Failed {
		failed[token] = struct{}{}
	}

	updated := 0
	for _, memberID := range job.MemberIDs {
		changed, err := j.store.RemoveTokens(ctx, memberID, failed)
		if err != nil {
			slog.Error("token cleanup failed", "family", job.FamilyID, "member", memberID, "error", err)
			continue
		}
		if changed {
			updated++
		}
	}

	recordCleaned(ctx, updated)
	slog.Info("token cleanup finished", "family", job.FamilyID, "members_updated", updated)
}
