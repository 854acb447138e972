package trace_sender

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"io/ioutil"
	"net/http"
	"time"

	"github.com/apache/thrift/lib/go/thrift"

	"github.com/orbit-telemetry/orbit-client-go/trace/orbittracer/logger"
	"github.com/orbit-telemetry/orbit-client-go/trace/orbittracer/trace_models"
)

const (
	DefaultCollectorEndpoint = "http://127.0.0.1:14268/api/traces"
	defaultCollectorTimeout  = 5 * time.Second

	collectorContentType = "application/x-thrift"
)

type CollectorSenderConfig struct {
	HTTPClient *http.Client
	Timeout    time.Duration
	Logger     logger.Logger
}

type CollectorOption func(*CollectorSenderConfig)

func WithHTTPClient(client *http.Client) CollectorOption {
	return func(config *CollectorSenderConfig) {
		config.HTTPClient = client
	}
}

func WithCollectorTimeout(timeout time.Duration) CollectorOption {
	return func(config *CollectorSenderConfig) {
		config.Timeout = timeout
	}
}

func WithCollectorLogger(l logger.Logger) CollectorOption {
	return func(config *CollectorSenderConfig) {
		config.Logger = l
	}
}

// CollectorSender posts whole batches to a collector endpoint, one request
// per flush. A non-2xx response counts the same as a network failure: the
// batch is gone.
type CollectorSender struct {
	url    string
	client *http.Client
	logger logger.Logger
}

func NewCollectorSender(endpoint string, opts ...CollectorOption) *CollectorSender {
	config := CollectorSenderConfig{
		Timeout: defaultCollectorTimeout,
		Logger:  &logger.NoopLogger{},
	}
	for _, opt := range opts {
		opt(&config)
	}
	if endpoint == "" {
		endpoint = DefaultCollectorEndpoint
	}
	if config.HTTPClient == nil {
		config.HTTPClient = &http.Client{Timeout: config.Timeout}
	}
	return &CollectorSender{
		url:    endpoint,
		client: config.HTTPClient,
		logger: config.Logger,
	}
}

func (s *CollectorSender) Send(ctx context.Context, batch *trace_models.Batch) error {
	body, err := serializeBatch(batch)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", collectorContentType)
	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("collector post failed: %w", err)
	}
	defer func() {
		_, _ = io.Copy(ioutil.Discard, resp.Body)
		_ = resp.Body.Close()
	}()
	if resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("collector returned status %d", resp.StatusCode)
	}
	return nil
}

func (s *CollectorSender) Close() error {
	return nil
}

// serializeBatch encodes the batch with the binary protocol, the framing the
// collector endpoint expects.
func serializeBatch(batch *trace_models.Batch) ([]byte, error) {
	if batch.Process == nil {
		return nil, fmt.Errorf("batch has no process")
	}
	buffer := thrift.NewTMemoryBufferLen(1024)
	protocol := thrift.NewTBinaryProtocolTransport(buffer)
	b := buildWireBatch(batch)
	if err := b.Write(protocol); err != nil {
		return nil, err
	}
	return buffer.Bytes(), nil
}
