package seekcache

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

const meterName = "github.com/meigma/seekcache"

var (
	hitAttrs  = metric.WithAttributes(attribute.String("result", "hit"))
	missAttrs = metric.WithAttributes(attribute.String("result", "miss"))
)

// metrics records cache counters through OpenTelemetry.
type metrics struct {
	hits   metric.Int64Counter
	misses metric.Int64Counter
	bytes  metric.Int64Counter
}

func newMetrics(mp metric.MeterProvider, logger *slog.Logger) *metrics {
	if mp == nil {
		mp = otel.GetMeterProvider()
	}
	m, err := buildMetrics(mp.Meter(meterName))
	if err != nil {
		logger.Warn("metrics disabled", slog.Any("error", err))
		m, _ = buildMetrics(noop.NewMeterProvider().Meter(meterName)) //nolint:errcheck // noop instruments never fail
	}
	return m
}

func buildMetrics(meter metric.Meter) (*metrics, error) {
	hits, err := meter.Int64Counter(
		"seekcache.hits",
		metric.WithDescription("Reads served from the backing store"),
		metric.WithUnit("{read}"),
	)
	if err != nil {
		return nil, err
	}

	misses, err := meter.Int64Counter(
		"seekcache.misses",
		metric.WithDescription("Reads forwarded to the inner stream"),
		metric.WithUnit("{read}"),
	)
	if err != nil {
		return nil, err
	}

	bytes, err := meter.Int64Counter(
		"seekcache.bytes",
		metric.WithDescription("Bytes returned to callers"),
		metric.WithUnit("By"),
	)
	if err != nil {
		return nil, err
	}

	return &metrics{hits: hits, misses: misses, bytes: bytes}, nil
}

func (m *metrics) hit(n int64) {
	ctx := context.Background()
	m.hits.Add(ctx, 1)
	m.bytes.Add(ctx, n, hitAttrs)
}

func (m *metrics) miss(n int64) {
	ctx := context.Background()
	m.misses.Add(ctx, 1)
	m.bytes.Add(ctx, n, missAttrs)
}
