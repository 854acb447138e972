package trace_reporter

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orbit-telemetry/orbit-client-go/trace/orbittracer/metrics"
	"github.com/orbit-telemetry/orbit-client-go/trace/orbittracer/trace_models"
)

var testProcess = &trace_models.Process{Service: "svc"}

func TestRemoteReporter_FlushOnBatchSize(t *testing.T) {
	sender := &fakeSender{}
	r := NewRemoteReporter(sender, testProcess,
		WithQueueSize(100),
		WithBatchSize(2),
		WithFlushInterval(time.Hour),
	)
	for i := 0; i < 4; i++ {
		r.Report(makeRecord("op"))
	}
	assert.Eventually(t, func() bool { return sender.batchCount() == 2 }, time.Second, 5*time.Millisecond)
	assert.True(t, r.Close(context.Background()))
	assert.Equal(t, 4, sender.spanCount())
	assert.True(t, sender.closed)
}

func TestRemoteReporter_DefaultBatchThreshold(t *testing.T) {
	sender := &fakeSender{}
	r := NewRemoteReporter(sender, testProcess, WithFlushInterval(time.Hour))
	defer r.Close(context.Background())

	// 50 records hit the default threshold and flush without the ticker
	for i := 0; i < 50; i++ {
		r.Report(makeRecord("op"))
	}
	assert.Eventually(t, func() bool { return sender.spanCount() == 50 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, 1, sender.batchCount())
}

func TestRemoteReporter_FlushOnInterval(t *testing.T) {
	sender := &fakeSender{}
	r := NewRemoteReporter(sender, testProcess,
		WithBatchSize(100),
		WithFlushInterval(10*time.Millisecond),
	)
	defer r.Close(context.Background())

	r.Report(makeRecord("op"))
	assert.Eventually(t, func() bool { return sender.spanCount() == 1 }, time.Second, 5*time.Millisecond)
}

func TestRemoteReporter_DropNewestWhenFull(t *testing.T) {
	factory := metrics.NewInMemoryFactory()
	sender := &fakeSender{gate: make(chan struct{})}
	r := NewRemoteReporter(sender, testProcess,
		WithQueueSize(5),
		WithBatchSize(5),
		WithFlushInterval(time.Hour),
		WithReporterMetrics(metrics.NewMetrics(factory)),
	)

	// the loop goroutine may take up to one extra record out of the queue
	// before blocking on the gated sender, so overshoot generously
	for i := 0; i < 20; i++ {
		r.Report(makeRecord("op"))
	}
	assert.GreaterOrEqual(t, factory.CounterValue("reporter_spans_dropped"), int64(9))

	close(sender.gate)
	assert.True(t, r.Close(context.Background()))
	assert.LessOrEqual(t, sender.spanCount(), 11)
}

func TestRemoteReporter_CloseDrains(t *testing.T) {
	factory := metrics.NewInMemoryFactory()
	sender := &fakeSender{}
	r := NewRemoteReporter(sender, testProcess,
		WithQueueSize(200),
		WithBatchSize(50),
		WithFlushInterval(time.Hour),
		WithReporterMetrics(metrics.NewMetrics(factory)),
	)
	for i := 0; i < 150; i++ {
		r.Report(makeRecord("op"))
	}
	assert.True(t, r.Close(context.Background()))
	assert.Equal(t, 150, sender.spanCount())
	assert.Equal(t, int64(150), factory.CounterValue("reporter_spans_ok"))
	assert.GreaterOrEqual(t, sender.batchCount(), 3)
	assert.Equal(t, int64(sender.batchCount()), factory.CounterValue("reporter_batches_sent"))
}

func TestRemoteReporter_CloseDeadlineExpired(t *testing.T) {
	factory := metrics.NewInMemoryFactory()
	sender := &fakeSender{}
	r := NewRemoteReporter(sender, testProcess,
		WithQueueSize(100),
		WithFlushInterval(time.Hour),
		WithReporterMetrics(metrics.NewMetrics(factory)),
	)
	for i := 0; i < 10; i++ {
		r.Report(makeRecord("op"))
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.False(t, r.Close(ctx))
	// nothing delivered, everything counted as dropped
	assert.Equal(t, int64(10), factory.CounterValue("reporter_spans_dropped"))
}

func TestRemoteReporter_CloseBoundsFinalSend(t *testing.T) {
	factory := metrics.NewInMemoryFactory()
	// the gate never opens, so the final send can only end with the context
	sender := &fakeSender{gate: make(chan struct{})}
	r := NewRemoteReporter(sender, testProcess,
		WithFlushInterval(time.Hour),
		WithReporterMetrics(metrics.NewMetrics(factory)))
	r.Report(makeRecord("op"))

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	start := time.Now()
	r.Close(ctx)
	assert.Less(t, time.Since(start), time.Second)
	assert.Equal(t, int64(1), factory.CounterValue("reporter_spans_err"))
}

func TestRemoteReporter_CloseIdempotent(t *testing.T) {
	sender := &fakeSender{}
	r := NewRemoteReporter(sender, testProcess)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	first := r.Close(ctx)
	// later calls return the first result regardless of their context
	assert.Equal(t, first, r.Close(context.Background()))
}

func TestRemoteReporter_ReportAfterClose(t *testing.T) {
	factory := metrics.NewInMemoryFactory()
	sender := &fakeSender{}
	r := NewRemoteReporter(sender, testProcess,
		WithReporterMetrics(metrics.NewMetrics(factory)))
	require.True(t, r.Close(context.Background()))

	r.Report(makeRecord("op"))
	assert.Equal(t, int64(1), factory.CounterValue("reporter_spans_dropped"))
	assert.Equal(t, 0, sender.spanCount())
}

func TestRemoteReporter_SenderFailureCounted(t *testing.T) {
	factory := metrics.NewInMemoryFactory()
	sender := &fakeSender{failing: true}
	r := NewRemoteReporter(sender, testProcess,
		WithFlushInterval(time.Hour),
		WithReporterMetrics(metrics.NewMetrics(factory)))
	for i := 0; i < 3; i++ {
		r.Report(makeRecord("op"))
	}
	assert.True(t, r.Close(context.Background()))
	assert.Equal(t, int64(3), factory.CounterValue("reporter_spans_err"))
	assert.Equal(t, int64(0), factory.CounterValue("reporter_batches_sent"))
}

func TestRemoteReporter_ProcessStamped(t *testing.T) {
	sender := &fakeSender{}
	r := NewRemoteReporter(sender, nil, WithFlushInterval(time.Hour))
	process := &trace_models.Process{Service: "stamped"}
	r.SetProcess(process)

	r.Report(makeRecord("op"))
	require.True(t, r.Close(context.Background()))
	require.Equal(t, 1, sender.batchCount())
	assert.Equal(t, "stamped", sender.batches[0].Process.Service)
}
