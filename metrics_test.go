package seekcache

import (
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/meigma/seekcache/internal/testutil"
)

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Sum[int64] {
	t.Helper()

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	sums := make(map[string]metricdata.Sum[int64])
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if sum, ok := m.Data.(metricdata.Sum[int64]); ok {
				sums[m.Name] = sum
			}
		}
	}
	return sums
}

func total(sum metricdata.Sum[int64], attrs ...attribute.KeyValue) int64 {
	want := attribute.NewSet(attrs...)
	var n int64
	for _, dp := range sum.DataPoints {
		if len(attrs) == 0 || dp.Attributes.Equals(&want) {
			n += dp.Value
		}
	}
	return n
}

func TestSessionMetrics(t *testing.T) {
	t.Parallel()

	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })

	inner := testutil.NewMockStream(testutil.RandomBytes(100, 20))
	s := newTestSession(t, inner, WithMeterProvider(mp))

	readN(t, s, 40)
	seek(t, s, 0, io.SeekStart)
	readN(t, s, 30)
	seek(t, s, 40, io.SeekStart)
	readN(t, s, 30)

	sums := collect(t, reader)
	assert.Equal(t, int64(1), total(sums["seekcache.hits"]))
	assert.Equal(t, int64(2), total(sums["seekcache.misses"]))
	assert.Equal(t, int64(30), total(sums["seekcache.bytes"], attribute.String("result", "hit")))
	assert.Equal(t, int64(70), total(sums["seekcache.bytes"], attribute.String("result", "miss")))
}
