package trace_sender

import (
	"context"
	"errors"
	"fmt"

	"github.com/apache/thrift/lib/go/thrift"

	"github.com/orbit-telemetry/orbit-client-go/trace/orbittracer/logger"
	"github.com/orbit-telemetry/orbit-client-go/trace/orbittracer/metrics"
	"github.com/orbit-telemetry/orbit-client-go/trace/orbittracer/trace_models"
	"github.com/orbit-telemetry/orbit-client-go/trace/orbittracer/trace_sender/wire"
)

const (
	DefaultAgentHostPort = "127.0.0.1:6831"
	defaultMaxPacketSize = 65000

	// room for the emitBatch message envelope and the batch struct framing
	// around the process and span payloads
	emitBatchOverhead = 70
)

// ErrRecordTooLarge marks a record whose encoded form alone exceeds the
// maximum datagram size. The record is dropped and counted, never split.
var ErrRecordTooLarge = errors.New("record does not fit in a single datagram")

type AgentSenderConfig struct {
	MaxPacketSize int
	Logger        logger.Logger
	Metrics       *metrics.Metrics
}

type AgentOption func(*AgentSenderConfig)

func WithMaxPacketSize(maxPacketSize int) AgentOption {
	return func(config *AgentSenderConfig) {
		config.MaxPacketSize = maxPacketSize
	}
}

func WithAgentLogger(l logger.Logger) AgentOption {
	return func(config *AgentSenderConfig) {
		config.Logger = l
	}
}

func WithAgentMetrics(m *metrics.Metrics) AgentOption {
	return func(config *AgentSenderConfig) {
		config.Metrics = m
	}
}

// AgentSender encodes batches with the compact thrift protocol and ships
// them to a local agent as emitBatch one-way datagrams. Batches larger than
// one datagram are split, each datagram re-including the process section as
// the wire format requires.
type AgentSender struct {
	logger  logger.Logger
	metrics *metrics.Metrics

	maxPacketSize int
	maxSpanBytes  int

	transport    *udpTransport
	protocol     thrift.TProtocol
	sizeBuffer   *thrift.TMemoryBuffer
	sizeProtocol thrift.TProtocol
	seqID        int32

	process         *trace_models.Process
	wireProcess     *wire.Process
	processByteSize int
}

func NewAgentSender(hostPort string, opts ...AgentOption) (*AgentSender, error) {
	config := AgentSenderConfig{
		MaxPacketSize: defaultMaxPacketSize,
		Logger:        &logger.NoopLogger{},
	}
	for _, opt := range opts {
		opt(&config)
	}
	if config.Metrics == nil {
		config.Metrics = metrics.NullMetrics()
	}
	if hostPort == "" {
		hostPort = DefaultAgentHostPort
	}
	if config.MaxPacketSize <= emitBatchOverhead {
		return nil, fmt.Errorf("max packet size %d leaves no room for payload", config.MaxPacketSize)
	}
	transport, err := newUDPTransport(hostPort, config.MaxPacketSize)
	if err != nil {
		return nil, err
	}
	protocolFactory := thrift.NewTCompactProtocolFactory()
	sizeBuffer := thrift.NewTMemoryBufferLen(config.MaxPacketSize)
	return &AgentSender{
		logger:        config.Logger,
		metrics:       config.Metrics,
		maxPacketSize: config.MaxPacketSize,
		transport:     transport,
		protocol:      protocolFactory.GetProtocol(transport),
		sizeBuffer:    sizeBuffer,
		sizeProtocol:  protocolFactory.GetProtocol(sizeBuffer),
	}, nil
}

func (s *AgentSender) Send(ctx context.Context, batch *trace_models.Batch) error {
	if err := s.setProcess(batch.Process); err != nil {
		return err
	}
	var (
		spans    []*wire.Span
		byteSize int
	)
	for _, record := range batch.Spans {
		span := buildWireSpan(record)
		size, err := s.serializedSize(span)
		if err != nil {
			s.metrics.EncodingFailures.Inc(1)
			s.logger.Error("[Send] cannot size span %s: %v", record.OperationName, err)
			continue
		}
		if size > s.maxSpanBytes {
			s.metrics.EncodingFailures.Inc(1)
			s.logger.Error("[Send] dropping span %s: %d bytes over %d limit: %v",
				record.OperationName, size, s.maxSpanBytes, ErrRecordTooLarge)
			continue
		}
		if byteSize+size > s.maxSpanBytes {
			if err := s.emit(ctx, spans); err != nil {
				return err
			}
			spans = spans[:0]
			byteSize = 0
		}
		spans = append(spans, span)
		byteSize += size
	}
	return s.emit(ctx, spans)
}

func (s *AgentSender) Close() error {
	return s.transport.Close()
}

// setProcess caches the encoded process section; it shrinks the per-datagram
// span budget because every datagram repeats it.
func (s *AgentSender) setProcess(process *trace_models.Process) error {
	if process == nil {
		return errors.New("batch has no process")
	}
	if s.process == process {
		return nil
	}
	wireProcess := buildWireProcess(process)
	s.sizeBuffer.Reset()
	if err := wireProcess.Write(s.sizeProtocol); err != nil {
		return err
	}
	s.process = process
	s.wireProcess = wireProcess
	s.processByteSize = s.sizeBuffer.Len()
	s.maxSpanBytes = s.maxPacketSize - emitBatchOverhead - s.processByteSize
	if s.maxSpanBytes <= 0 {
		return fmt.Errorf("process section of %d bytes leaves no room for spans", s.processByteSize)
	}
	return nil
}

func (s *AgentSender) serializedSize(span *wire.Span) (int, error) {
	s.sizeBuffer.Reset()
	if err := span.Write(s.sizeProtocol); err != nil {
		return 0, err
	}
	return s.sizeBuffer.Len(), nil
}

// emit writes one emitBatch one-way message and flushes it as a datagram.
func (s *AgentSender) emit(ctx context.Context, spans []*wire.Span) error {
	if len(spans) == 0 {
		return nil
	}
	s.seqID++
	if err := s.protocol.WriteMessageBegin("emitBatch", thrift.ONEWAY, s.seqID); err != nil {
		return err
	}
	if err := s.protocol.WriteStructBegin("emitBatch_args"); err != nil {
		return err
	}
	if err := s.protocol.WriteFieldBegin("batch", thrift.STRUCT, 1); err != nil {
		return err
	}
	batch := &wire.Batch{Process: s.wireProcess, Spans: spans}
	if err := batch.Write(s.protocol); err != nil {
		return err
	}
	if err := s.protocol.WriteFieldEnd(); err != nil {
		return err
	}
	if err := s.protocol.WriteFieldStop(); err != nil {
		return err
	}
	if err := s.protocol.WriteStructEnd(); err != nil {
		return err
	}
	if err := s.protocol.WriteMessageEnd(); err != nil {
		return err
	}
	return s.protocol.Flush(ctx)
}
