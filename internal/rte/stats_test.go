package rte

import (
	"testing"
	"time"

	"tpcc-service/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestStatsSummarize(t *testing.T) {
	s := &Stats{}
	a, b := newRecorder(), newRecorder()

	perf := &models.PerformanceMetrics{Begin: 0.002, Query: 0.004, Commit: 0.006}
	s.success(KindPayment, 10*time.Millisecond, perf)
	a.record(KindPayment, 10*time.Millisecond)
	s.success(KindPayment, 30*time.Millisecond, nil)
	b.record(KindPayment, 30*time.Millisecond)
	s.failure(KindPayment)
	s.failure(KindDelivery)

	a.merge(b)
	sums := s.summarize(a)
	assert.Len(t, sums, int(kindCount))

	p := sums[KindPayment]
	assert.Equal(t, KindPayment, p.Kind)
	assert.Equal(t, uint64(2), p.Count)
	assert.Equal(t, uint64(1), p.Failures)
	assert.Equal(t, 20*time.Millisecond, p.AvgClient)
	assert.InDelta(t, float64(time.Millisecond), float64(p.AvgBegin), float64(time.Microsecond))
	assert.InDelta(t, float64(30*time.Millisecond), float64(p.Max), float64(50*time.Microsecond))
	assert.InDelta(t, float64(10*time.Millisecond), float64(p.P50), float64(50*time.Microsecond))

	d := sums[KindDelivery]
	assert.Zero(t, d.Count)
	assert.Equal(t, uint64(1), d.Failures)
	assert.Zero(t, d.AvgClient)
	assert.Zero(t, d.P99)
	assert.Zero(t, d.Max)
}

func TestWindowMeasuring(t *testing.T) {
	start := time.Now()
	w := window{measureStart: start, measureEnd: start.Add(time.Second), end: start.Add(2 * time.Second)}

	assert.False(t, w.measuring(start.Add(-time.Millisecond)))
	assert.True(t, w.measuring(start))
	assert.True(t, w.measuring(start.Add(999*time.Millisecond)))
	assert.False(t, w.measuring(start.Add(time.Second)))
}
