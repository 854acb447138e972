package trace_sender

import (
	"context"
	"errors"
	"io"
	"net"

	"github.com/apache/thrift/lib/go/thrift"
)

var errDatagramOverflow = errors.New("datagram would exceed the maximum packet size")

// udpTransport is a write-only thrift transport that buffers one message and
// ships it as a single datagram on Flush. Writes that would overflow the
// maximum packet size fail instead of fragmenting.
type udpTransport struct {
	conn          *net.UDPConn
	maxPacketSize int
	buffer        []byte
}

func newUDPTransport(hostPort string, maxPacketSize int) (*udpTransport, error) {
	addr, err := net.ResolveUDPAddr("udp", hostPort)
	if err != nil {
		return nil, err
	}
	conn, err := net.DialUDP(addr.Network(), nil, addr)
	if err != nil {
		return nil, err
	}
	return &udpTransport{
		conn:          conn,
		maxPacketSize: maxPacketSize,
		buffer:        make([]byte, 0, maxPacketSize),
	}, nil
}

var _ thrift.TTransport = &udpTransport{}

func (t *udpTransport) Write(p []byte) (int, error) {
	if len(t.buffer)+len(p) > t.maxPacketSize {
		// the buffered prefix belongs to the same message and is now
		// unusable, discard it so the next message starts clean
		t.buffer = t.buffer[:0]
		return 0, thrift.NewTTransportExceptionFromError(errDatagramOverflow)
	}
	t.buffer = append(t.buffer, p...)
	return len(p), nil
}

func (t *udpTransport) Flush(ctx context.Context) error {
	if len(t.buffer) == 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		t.buffer = t.buffer[:0]
		return thrift.NewTTransportExceptionFromError(err)
	}
	_, err := t.conn.Write(t.buffer)
	t.buffer = t.buffer[:0]
	if err != nil {
		return thrift.NewTTransportExceptionFromError(err)
	}
	return nil
}

func (t *udpTransport) Read(p []byte) (int, error) {
	return 0, io.EOF
}

func (t *udpTransport) RemainingBytes() uint64 {
	return 0
}

func (t *udpTransport) Open() error {
	return nil
}

func (t *udpTransport) IsOpen() bool {
	return t.conn != nil
}

func (t *udpTransport) Close() error {
	return t.conn.Close()
}
