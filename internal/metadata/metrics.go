package metadata

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/Aktiar0403/ShukkuList1.2/internal/apperr"
)

var meter = otel.Meter("github.com/Aktiar0403/ShukkuList1.2/internal/metadata")

var (
	cacheHits, _   = meter.Int64Counter("metadata.cache.hits", metric.WithDescription("Metadata requests served from cache"))
	cacheMisses, _ = meter.Int64Counter("metadata.cache.misses", metric.WithDescription("Metadata requests that went upstream"))
	fetchErrors, _ = meter.Int64Counter("metadata.fetch.errors", metric.WithDescription("Failed upstream metadata fetches by kind"))
)

func recordFetchError(ctx context.Context, kind apperr.Kind) {
	fetchErrors.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", string(kind))))
}
