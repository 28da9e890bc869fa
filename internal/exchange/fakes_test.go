package exchange

import (
	"context"
	"errors"
	"net"
	"sync"
	"time"
)

// shortConn is a connected conn whose writes can be truncated or fail.
type shortConn struct {
	mu       sync.Mutex
	writes   [][]byte
	short    int
	writeErr error
	closed   bool
}

func (c *shortConn) Write(b []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.writes = append(c.writes, append([]byte(nil), b...))
	if c.writeErr != nil {
		return 0, c.writeErr
	}
	if c.short > 0 && len(b) >= c.short {
		return len(b) - c.short, nil
	}
	return len(b), nil
}

func (c *shortConn) Read([]byte) (int, error) { return 0, errors.New("shortConn: no replies") }
func (c *shortConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}
func (c *shortConn) LocalAddr() net.Addr { return &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 40000} }
func (c *shortConn) RemoteAddr() net.Addr { return &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 20000} }
func (c *shortConn) SetDeadline(time.Time) error { return nil }
func (c *shortConn) SetReadDeadline(time.Time) error { return nil }
func (c *shortConn) SetWriteDeadline(time.Time) error { return nil }

func (c *shortConn) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// fixedConn hands the same conn to every exchange.
func fixedConn(conn net.Conn) DialFunc {
	return func(context.Context) (net.Conn, error) { return conn, nil }
}

func (c *shortConn) writeCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.writes)
}

// recordingPacketConn records replies written by the server.
type recordingPacketConn struct {
	mu      sync.Mutex
	replies [][]byte
	short   int
	fail    bool
}

func (c *recordingPacketConn) WriteTo(b []byte, _ net.Addr) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.replies = append(c.replies, append([]byte(nil), b...))
	if c.fail {
		return 0, errors.New("recordingPacketConn: write refused")
	}
	if c.short > 0 && len(b) >= c.short {
		return len(b) - c.short, nil
	}
	return len(b), nil
}

func (c *recordingPacketConn) ReadFrom([]byte) (int, net.Addr, error) { return 0, nil, net.ErrClosed }
func (c *recordingPacketConn) Close() error { return nil }
func (c *recordingPacketConn) LocalAddr() net.Addr { return &net.UDPAddr{IP: net.IPv4zero, Port: 20000} }
func (c *recordingPacketConn) SetDeadline(time.Time) error { return nil }
func (c *recordingPacketConn) SetReadDeadline(time.Time) error { return nil }
func (c *recordingPacketConn) SetWriteDeadline(time.Time) error { return nil }

func (c *recordingPacketConn) sent() [][]byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([][]byte(nil), c.replies...)
}

// readStep is one scripted ReadFrom result.
type readStep struct {
	payload []byte
	err     error
}

// flakyConn replays steps on ReadFrom, then reports the conn closed.
type flakyConn struct {
	*recordingPacketConn
	readMu sync.Mutex
	steps  []readStep
	reads  int
}

func (c *flakyConn) ReadFrom(b []byte) (int, net.Addr, error) {
	c.readMu.Lock()
	defer c.readMu.Unlock()
	c.reads++
	if len(c.steps) == 0 {
		return 0, nil, net.ErrClosed
	}
	step := c.steps[0]
	c.steps = c.steps[1:]
	if step.err != nil {
		return 0, nil, step.err
	}
	return copy(b, step.payload), testPeer, nil
}

func (c *flakyConn) readCount() int {
	c.readMu.Lock()
	defer c.readMu.Unlock()
	return c.reads
}

var testPeer = &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 45678}
