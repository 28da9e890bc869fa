package exchange

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/danmuck/sumctl/internal/aggregate"
	"github.com/danmuck/sumctl/internal/protocol/codec"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// ClientConfig controls one client's exchanges.
type ClientConfig struct {
	// PrefixSums waits for the second reply datagram carrying prefix sums.
	PrefixSums bool
	// ReplyTimeout bounds the wait for replies. Zero blocks until ctx is done.
	ReplyTimeout time.Duration
}

// DialFunc opens a connected datagram socket to the server.
type DialFunc func(ctx context.Context) (net.Conn, error)

// Client runs exchanges against one server. Every Exchange opens its own
// socket, so a reply left over from an earlier exchange is never read by a
// later one.
type Client struct {
	dial   DialFunc
	cfg    ClientConfig
	logger zerolog.Logger
}

// Dial resolves addr and returns a client for it. The resolved address is
// reused by every exchange.
func Dial(ctx context.Context, addr string, cfg ClientConfig) (*Client, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "udp", addr)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", addr, err)
	}
	remote := conn.RemoteAddr().String()
	_ = conn.Close()

	return NewClient(func(ctx context.Context) (net.Conn, error) {
		return d.DialContext(ctx, "udp", remote)
	}, cfg), nil
}

func NewClient(dial DialFunc, cfg ClientConfig) *Client {
	return &Client{
		dial:   dial,
		cfg:    cfg,
		logger: log.Logger.With().Str("component", "exchange_client").Logger(),
	}
}

// clientExchange tracks the state of a single Exchange call.
type clientExchange struct {
	state  ClientState
	logger zerolog.Logger
}

func (e *clientExchange) transition(next ClientState) {
	e.logger.Debug().Stringer("from", e.state).Stringer("to", next).Msg("exchange state")
	e.state = next
}

func (e *clientExchange) fail(reason Reason, err error) error {
	f := &Failure{Reason: reason, State: e.state, Err: err}
	e.transition(StateFailed)
	return f
}

// Exchange sends values as one datagram and waits for the reply (or replies,
// with PrefixSums). Failures are *Failure values; nothing is retried.
func (c *Client) Exchange(ctx context.Context, values []uint32) (aggregate.Result, error) {
	ex := &clientExchange{state: StateIdle, logger: c.logger}

	wire, err := codec.Encode(values)
	if err != nil {
		return aggregate.Result{}, ex.fail(ReasonPayloadTooLarge, err)
	}

	ex.transition(StateSending)
	conn, err := c.dial(ctx)
	if err != nil {
		return aggregate.Result{}, ex.fail(ReasonSendIncomplete, fmt.Errorf("open socket: %w", err))
	}
	defer conn.Close()

	n, err := conn.Write(wire)
	if err != nil {
		return aggregate.Result{}, ex.fail(ReasonSendIncomplete, err)
	}
	if n != len(wire) {
		return aggregate.Result{}, ex.fail(ReasonSendIncomplete, fmt.Errorf("wrote %d of %d bytes", n, len(wire)))
	}

	ex.transition(StateAwaitingReply)
	res, err := c.awaitReplies(ctx, conn, len(values))
	if err != nil {
		return aggregate.Result{}, ex.fail(ReasonReplyMalformed, err)
	}
	ex.transition(StateDone)
	return res, nil
}

// awaitReplies reads the sum datagram and, if configured, the prefix datagram
// in whichever order they arrive. Replies are told apart by length.
func (c *Client) awaitReplies(ctx context.Context, conn net.Conn, count int) (aggregate.Result, error) {
	if err := ctx.Err(); err != nil {
		return aggregate.Result{}, err
	}
	if err := conn.SetReadDeadline(c.replyDeadline(ctx)); err != nil {
		return aggregate.Result{}, fmt.Errorf("set read deadline: %w", err)
	}
	stop := context.AfterFunc(ctx, func() {
		_ = conn.SetReadDeadline(time.Unix(1, 0))
	})
	defer stop()

	prefixLen := codec.EncodedLen(count)
	// One spare byte so an oversized reply is seen as such rather than truncated.
	buf := make([]byte, max(codec.ElementSize, prefixLen)+1)

	var (
		res        aggregate.Result
		haveSum    bool
		havePrefix = !c.cfg.PrefixSums
	)
	for !haveSum || !havePrefix {
		n, err := conn.Read(buf)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return aggregate.Result{}, fmt.Errorf("await reply: %w", errors.Join(ctxErr, err))
			}
			return aggregate.Result{}, fmt.Errorf("await reply: %w", err)
		}
		payload := buf[:n]
		switch {
		case !haveSum && n == codec.ElementSize:
			sum, err := codec.DecodeUint32(payload)
			if err != nil {
				return aggregate.Result{}, err
			}
			res.Sum = sum
			haveSum = true
		case !havePrefix && n == prefixLen:
			prefix, err := codec.Decode(payload)
			if err != nil {
				return aggregate.Result{}, err
			}
			res.PrefixSums = prefix
			havePrefix = true
		default:
			return aggregate.Result{}, fmt.Errorf("%w: unexpected reply of %d bytes", codec.ErrMalformedMessage, n)
		}
	}
	return res, nil
}

func (c *Client) replyDeadline(ctx context.Context) time.Time {
	var deadline time.Time
	if c.cfg.ReplyTimeout > 0 {
		deadline = time.Now().Add(c.cfg.ReplyTimeout)
	}
	if d, ok := ctx.Deadline(); ok && (deadline.IsZero() || d.Before(deadline)) {
		deadline = d
	}
	return deadline
}
