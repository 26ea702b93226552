package bulkx

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	chunkOutcomeSuccess  = "success"
	chunkOutcomePartial  = "partial"
	chunkOutcomeFailure  = "failure"
	chunkOutcomeTimeout  = "timeout"
	chunkOutcomeCanceled = "canceled"
)

type metrics struct {
	chunks     metric.Int64Counter
	duration   metric.Float64Histogram
	operations metric.Int64Counter
}

func newMetrics(m metric.Meter) (*metrics, error) {
	chunks, err := m.Int64Counter("bulkx.chunks",
		metric.WithDescription("Number of chunks executed, by outcome"),
	)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	duration, err := m.Float64Histogram("bulkx.chunk.duration",
		metric.WithDescription("Time spent writing a chunk"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	operations, err := m.Int64Counter("bulkx.operations",
		metric.WithDescription("Number of write operations, by final status"),
	)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	return &metrics{chunks: chunks, duration: duration, operations: operations}, nil
}

func (m *metrics) recordChunk(ctx context.Context, outcome string, elapsed time.Duration) {
	attrs := metric.WithAttributes(attribute.String("outcome", outcome))
	m.chunks.Add(ctx, 1, attrs)
	m.duration.Record(ctx, float64(elapsed)/float64(time.Millisecond), attrs)
}

func (m *metrics) recordOperations(ctx context.Context, res *BulkResult) {
	counts := map[ItemStatus]int64{}
	for _, it := range res.Items {
		counts[it.Status]++
	}
	for status, n := range counts {
		m.operations.Add(ctx, n, metric.WithAttributes(
			attribute.String("status", string(status)),
			attribute.Bool("ordered", res.Ordered),
		))
	}
}
