package observability

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimer(t *testing.T) {
	t.Run("records duration and total", func(t *testing.T) {
		m := NewInMemoryMetrics()

		d := StartTimer("sync").WithMetrics(m).WithTags(T("shard", "a")).Stop()
		assert.GreaterOrEqual(t, d, time.Duration(0))

		tags := []Tag{T("shard", "a"), T("operation", "sync")}
		assert.Equal(t, int64(1), m.GetCounter(MetricOperationTotal, tags...))
		assert.Len(t, m.GetTimings(MetricOperationDuration, tags...), 1)
		assert.Equal(t, int64(0), m.GetCounter(MetricOperationErrors, tags...))
	})

	t.Run("counts errors", func(t *testing.T) {
		m := NewInMemoryMetrics()

		timer := StartTimer("sync").WithMetrics(m)
		timer.StopWithError(errors.New("boom"))

		tags := []Tag{T("operation", "sync")}
		assert.Equal(t, int64(1), m.GetCounter(MetricOperationTotal, tags...))
		assert.Equal(t, int64(1), m.GetCounter(MetricOperationErrors, tags...))
	})

	t.Run("without metrics does not panic", func(t *testing.T) {
		timer := StartTimer("sync")
		assert.GreaterOrEqual(t, timer.Elapsed(), time.Duration(0))
		assert.GreaterOrEqual(t, timer.Stop(), time.Duration(0))
	})
}

func TestTimeOperationResult(t *testing.T) {
	m := NewInMemoryMetrics()

	value, err := TimeOperationResult(context.Background(), nil, m, "lookup", func() (int, error) {
		return 7, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 7, value)
	assert.Equal(t, int64(1), m.GetCounter(MetricOperationTotal, T("operation", "lookup")))

	_, err = TimeOperationResult(context.Background(), nil, m, "lookup", func() (int, error) {
		return 0, errors.New("boom")
	})
	require.Error(t, err)
	assert.Equal(t, int64(1), m.GetCounter(MetricOperationErrors, T("operation", "lookup")))
}
