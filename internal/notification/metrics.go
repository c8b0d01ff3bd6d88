package notification

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

var meter = otel.Meter("github.com/Aktiar0403/ShukkuList1.2/internal/notification")

var (
	sentCounter, _        = meter.Int64Counter("notification.sent", metric.WithDescription("Push deliveries accepted by the provider"))
	failedCounter, _      = meter.Int64Counter("notification.failed", metric.WithDescription("Push deliveries rejected by the provider"))
	cleanedCounter, _     = meter.Int64Counter("notification.tokens.cleaned", metric.WithDescription("Member documents rewritten by token cleanup"))
	unreachableCounter, _ = meter.Int64Counter("notification.members.unreachable", metric.WithDescription("Members skipped because their tokens could not be read"))
)

func recordSend(ctx context.Context, success, failure int) {
	sentCounter.Add(ctx, int64(success))
	failedCounter.Add(ctx, int64(failure))
}

func recordCleaned(ctx context.Context, n int) {
	cleanedCounter.Add(ctx, int64(n))
}

func recordUnreachable(ctx context.Context) {
	unreachableCounter.Add(ctx, 1)
}
