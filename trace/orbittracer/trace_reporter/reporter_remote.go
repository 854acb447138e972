package trace_reporter

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/orbit-telemetry/orbit-client-go/trace/orbittracer/logger"
	"github.com/orbit-telemetry/orbit-client-go/trace/orbittracer/metrics"
	"github.com/orbit-telemetry/orbit-client-go/trace/orbittracer/trace_models"
)

const (
	defaultQueueSize     = 100
	defaultBatchSize     = 50
	defaultFlushInterval = time.Second
)

type ReporterConfig struct {
	QueueSize     int
	BatchSize     int
	FlushInterval time.Duration
	Logger        logger.Logger
	Metrics       *metrics.Metrics
}

type ReporterOption func(*ReporterConfig)

func WithQueueSize(queueSize int) ReporterOption {
	return func(config *ReporterConfig) {
		config.QueueSize = queueSize
	}
}

func WithBatchSize(batchSize int) ReporterOption {
	return func(config *ReporterConfig) {
		config.BatchSize = batchSize
	}
}

func WithFlushInterval(interval time.Duration) ReporterOption {
	return func(config *ReporterConfig) {
		config.FlushInterval = interval
	}
}

func WithReporterLogger(l logger.Logger) ReporterOption {
	return func(config *ReporterConfig) {
		config.Logger = l
	}
}

func WithReporterMetrics(m *metrics.Metrics) ReporterOption {
	return func(config *ReporterConfig) {
		config.Metrics = m
	}
}

// RemoteReporter buffers finished records in a bounded queue that a single
// background goroutine drains into batches for the sender. Report never
// blocks: when the queue is full the newest record is discarded and counted,
// which bounds memory regardless of application throughput. Failed batches
// are discarded, never retried; retrying against an unavailable backend
// would itself grow memory without bound.
type RemoteReporter struct {
	sender Sender

	processMu sync.RWMutex
	process   *trace_models.Process

	logger  logger.Logger
	metrics *metrics.Metrics

	batchSize     int
	flushInterval time.Duration

	queue       chan *trace_models.Record
	queueLength int64

	closed    int32
	closeOnce sync.Once
	stopChan  chan context.Context
	doneChan  chan struct{}
	drained   bool
}

// NewRemoteReporter starts the flush loop immediately; the returned reporter
// is live until Close.
func NewRemoteReporter(sender Sender, process *trace_models.Process, opts ...ReporterOption) *RemoteReporter {
	config := ReporterConfig{
		QueueSize:     defaultQueueSize,
		BatchSize:     defaultBatchSize,
		FlushInterval: defaultFlushInterval,
		Logger:        &logger.NoopLogger{},
	}
	for _, opt := range opts {
		opt(&config)
	}
	if config.Metrics == nil {
		config.Metrics = metrics.NullMetrics()
	}
	if config.BatchSize > config.QueueSize {
		config.BatchSize = config.QueueSize
	}
	r := &RemoteReporter{
		sender:        sender,
		process:       process,
		logger:        config.Logger,
		metrics:       config.Metrics,
		batchSize:     config.BatchSize,
		flushInterval: config.FlushInterval,
		queue:         make(chan *trace_models.Record, config.QueueSize),
		stopChan:      make(chan context.Context, 1),
		doneChan:      make(chan struct{}),
	}
	go r.loop()
	return r
}

var _ Reporter = &RemoteReporter{}

// SetProcess replaces the process info stamped on outgoing batches. The
// tracer calls this once at construction; a nil process passed to
// NewRemoteReporter is filled in here.
func (r *RemoteReporter) SetProcess(process *trace_models.Process) {
	r.processMu.Lock()
	r.process = process
	r.processMu.Unlock()
}

func (r *RemoteReporter) getProcess() *trace_models.Process {
	r.processMu.RLock()
	defer r.processMu.RUnlock()
	return r.process
}

func (r *RemoteReporter) Report(record *trace_models.Record) {
	if atomic.LoadInt32(&r.closed) == 1 {
		r.metrics.ReporterDropped.Inc(1)
		return
	}
	select {
	case r.queue <- record:
		r.metrics.ReporterQueueLength.Update(atomic.AddInt64(&r.queueLength, 1))
	default:
		// drop-newest policy
		r.metrics.ReporterDropped.Inc(1)
	}
}

// Close stops accepting records, makes one final drain bounded by ctx and
// returns whether the queue was emptied in time. Idempotent; records
// reported after Close are counted as dropped.
func (r *RemoteReporter) Close(ctx context.Context) bool {
	r.closeOnce.Do(func() {
		atomic.StoreInt32(&r.closed, 1)
		r.stopChan <- ctx
		<-r.doneChan
		if err := r.sender.Close(); err != nil {
			r.logger.Error("[Close] sender close: %v", err)
		}
	})
	<-r.doneChan
	return r.drained
}

func (r *RemoteReporter) loop() {
	batch := make([]*trace_models.Record, 0, r.batchSize)
	ticker := time.NewTicker(r.flushInterval)
	defer func() {
		ticker.Stop()
	}()
	for {
		select {
		case record := <-r.queue:
			r.metrics.ReporterQueueLength.Update(atomic.AddInt64(&r.queueLength, -1))
			batch = append(batch, record)
			if len(batch) >= r.batchSize {
				batch = r.flush(context.Background(), batch)
			}
		case <-ticker.C:
			if len(batch) > 0 {
				batch = r.flush(context.Background(), batch)
			}
		case ctx := <-r.stopChan:
			r.drained = r.drain(ctx, batch)
			close(r.doneChan)
			return
		}
	}
}

// drain empties the queue without waiting for new records, passing ctx down
// to the sender so the final sends stop at the deadline too. On deadline
// expiry whatever remains is dropped and counted.
func (r *RemoteReporter) drain(ctx context.Context, batch []*trace_models.Record) bool {
	for {
		if ctx.Err() != nil {
			dropped := int64(len(batch))
			for {
				select {
				case <-r.queue:
					dropped++
					continue
				default:
				}
				break
			}
			if dropped > 0 {
				r.metrics.ReporterDropped.Inc(dropped)
			}
			atomic.StoreInt64(&r.queueLength, 0)
			r.metrics.ReporterQueueLength.Update(0)
			return false
		}
		select {
		case record := <-r.queue:
			r.metrics.ReporterQueueLength.Update(atomic.AddInt64(&r.queueLength, -1))
			batch = append(batch, record)
			if len(batch) >= r.batchSize {
				batch = r.flush(ctx, batch)
			}
		default:
			r.flush(ctx, batch)
			return true
		}
	}
}

func (r *RemoteReporter) flush(ctx context.Context, batch []*trace_models.Record) []*trace_models.Record {
	if len(batch) == 0 {
		return batch
	}
	if err := r.sender.Send(ctx, &trace_models.Batch{Process: r.getProcess(), Spans: batch}); err != nil {
		r.metrics.ReporterFailure.Inc(int64(len(batch)))
		r.logger.Error("[flush] dropping batch of %d spans: %v", len(batch), err)
	} else {
		r.metrics.ReporterSuccess.Inc(int64(len(batch)))
		r.metrics.BatchesSent.Inc(1)
	}
	return make([]*trace_models.Record, 0, r.batchSize)
}
