package exchange

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/danmuck/sumctl/internal/aggregate"
	"github.com/danmuck/sumctl/internal/observability"
	"github.com/danmuck/sumctl/internal/protocol/codec"
	"github.com/rs/zerolog"
)

const (
	OutcomeOK             = "ok"
	OutcomeRecvError      = "recv_error"
	OutcomeMalformed      = "malformed"
	OutcomeTooLarge       = "too_large"
	OutcomeSendIncomplete = "send_incomplete"
)

// recvBufferSize leaves one spare byte past the largest valid request so an
// oversized datagram is detected instead of silently truncated.
const recvBufferSize = codec.MaxPayloadBytes + 1

type ServerConfig struct {
	// Name labels metrics and logs.
	Name string
	// PrefixSums enables the second reply datagram.
	PrefixSums bool
	// Workers above 1 hands each datagram to a pool; 1 is strictly sequential.
	Workers int
}

// Server answers sum requests on a packet conn until its context ends.
type Server struct {
	conn   net.PacketConn
	cfg    ServerConfig
	logger zerolog.Logger
	bufs   sync.Pool
}

// Listen binds a UDP socket on addr and returns a server for it.
func Listen(ctx context.Context, addr string, cfg ServerConfig, logger zerolog.Logger) (*Server, error) {
	var lc net.ListenConfig
	conn, err := lc.ListenPacket(ctx, "udp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen %s: %w", addr, err)
	}
	return NewServer(conn, cfg, logger), nil
}

func NewServer(conn net.PacketConn, cfg ServerConfig, logger zerolog.Logger) *Server {
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	if cfg.Name == "" {
		cfg.Name = "sumserver"
	}
	s := &Server{
		conn:   conn,
		cfg:    cfg,
		logger: logger.With().Str("component", "exchange_server").Logger(),
	}
	s.bufs.New = func() any {
		b := make([]byte, recvBufferSize)
		return &b
	}
	return s
}

func (s *Server) Addr() net.Addr {
	return s.conn.LocalAddr()
}

func (s *Server) Close() error {
	return s.conn.Close()
}

// Serve runs the receive loop. It returns nil once ctx is cancelled and the
// conn's error if the conn is closed for any other reason. Exchange failures
// are logged and never end the loop.
func (s *Server) Serve(ctx context.Context) error {
	stop := context.AfterFunc(ctx, func() {
		_ = s.conn.Close()
	})
	defer stop()

	s.logger.Info().
		Str("addr", s.Addr().String()).
		Bool("prefix_sums", s.cfg.PrefixSums).
		Int("workers", s.cfg.Workers).
		Msg("server listening")

	var err error
	if s.cfg.Workers == 1 {
		err = s.serveSequential()
	} else {
		err = s.servePool()
	}
	if ctx.Err() != nil {
		s.logger.Info().Msg("server stopped")
		return nil
	}
	return err
}

func (s *Server) serveSequential() error {
	for {
		if err := s.serveOne(); err != nil {
			return err
		}
	}
}

// serveOne runs one Listening -> Replied iteration on the calling goroutine.
// Only a closed conn is returned as an error.
func (s *Server) serveOne() error {
	bp := s.bufs.Get().(*[]byte)
	defer s.bufs.Put(bp)

	n, peer, err := s.conn.ReadFrom(*bp)
	if err != nil {
		return s.recvFailed(err)
	}
	s.safeHandle(peer, (*bp)[:n])
	return nil
}

type job struct {
	peer    net.Addr
	payload []byte
}

// servePool reads on one goroutine and fans datagrams out to cfg.Workers
// goroutines. Each job owns a copy of its payload.
func (s *Server) servePool() error {
	jobs := make(chan job, s.cfg.Workers)
	var wg sync.WaitGroup
	for i := 0; i < s.cfg.Workers; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			s.logger.Debug().Int("worker_id", id).Msg("worker started")
			for j := range jobs {
				s.safeHandle(j.peer, j.payload)
			}
			s.logger.Debug().Int("worker_id", id).Msg("worker shutting down")
		}(i)
	}
	defer func() {
		close(jobs)
		wg.Wait()
	}()

	for {
		j, err := s.receiveJob()
		if err != nil {
			return err
		}
		if j.peer != nil {
			jobs <- j
		}
	}
}

func (s *Server) receiveJob() (job, error) {
	bp := s.bufs.Get().(*[]byte)
	defer s.bufs.Put(bp)

	n, peer, err := s.conn.ReadFrom(*bp)
	if err != nil {
		return job{}, s.recvFailed(err)
	}
	payload := make([]byte, n)
	copy(payload, (*bp)[:n])
	return job{peer: peer, payload: payload}, nil
}

// recvFailed returns err only when the conn can no longer be read.
func (s *Server) recvFailed(err error) error {
	if errors.Is(err, net.ErrClosed) {
		return err
	}
	s.logger.Warn().Err(err).Msg("receive failed")
	observability.RecordExchange(s.cfg.Name, OutcomeRecvError, -1, 0)
	return nil
}

// safeHandle keeps a panic in one exchange from taking down the loop.
func (s *Server) safeHandle(peer net.Addr, payload []byte) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error().
				Interface("panic_error", r).
				Str("client", peer.String()).
				Int("bytes", len(payload)).
				Msg("recovered from panic while handling exchange")
		}
	}()
	_ = s.handle(peer, payload)
}

// handle runs Received -> Computed -> Replied for one datagram and records
// the outcome. The returned error is informational; the loop always continues.
func (s *Server) handle(peer net.Addr, payload []byte) error {
	start := time.Now()
	s.logger.Info().Str("client", peer.String()).Int("bytes", len(payload)).Msg("client request")

	state, elements, err := s.exchange(peer, payload)
	outcome := outcomeOf(err)
	observability.RecordExchange(s.cfg.Name, outcome, elements, time.Since(start))
	if err != nil {
		s.logger.Warn().
			Err(err).
			Str("client", peer.String()).
			Stringer("state", state).
			Str("outcome", outcome).
			Msg("exchange failed")
		return err
	}
	s.logger.Debug().
		Str("client", peer.String()).
		Int("elements", elements).
		Dur("duration", time.Since(start)).
		Msg("exchange replied")
	return nil
}

// exchange returns the last state reached and the decoded element count, or
// -1 when the payload never decoded.
func (s *Server) exchange(peer net.Addr, payload []byte) (ServerState, int, error) {
	if len(payload) > codec.MaxPayloadBytes {
		return StateReceived, -1, fmt.Errorf("%w: %d bytes", codec.ErrSizeExceeded, len(payload))
	}
	batch, err := codec.Decode(payload)
	if err != nil {
		return StateReceived, -1, err
	}

	res := aggregate.Compute(batch, s.cfg.PrefixSums)

	// Both replies are attempted even if the first one fails.
	sendErr := s.reply(peer, codec.EncodeUint32(res.Sum))
	if s.cfg.PrefixSums {
		wire, err := codec.Encode(res.PrefixSums)
		if err != nil {
			sendErr = errors.Join(sendErr, err)
		} else {
			sendErr = errors.Join(sendErr, s.reply(peer, wire))
		}
	}
	if sendErr != nil {
		return StateComputed, len(batch), sendErr
	}
	return StateReplied, len(batch), nil
}

func (s *Server) reply(peer net.Addr, b []byte) error {
	n, err := s.conn.WriteTo(b, peer)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrSendIncomplete, err)
	}
	if n != len(b) {
		return fmt.Errorf("%w: wrote %d of %d bytes", ErrSendIncomplete, n, len(b))
	}
	return nil
}

func outcomeOf(err error) string {
	switch {
	case err == nil:
		return OutcomeOK
	case errors.Is(err, codec.ErrSizeExceeded):
		return OutcomeTooLarge
	case errors.Is(err, codec.ErrMalformedMessage):
		return OutcomeMalformed
	default:
		return OutcomeSendIncomplete
	}
}
