package exchange

import (
	"errors"
	"fmt"
)

var (
	ErrPayloadTooLarge = errors.New("exchange: payload too large")
	ErrSendIncomplete  = errors.New("exchange: send incomplete")
	ErrReplyMalformed  = errors.New("exchange: reply malformed")
)

// Reason classifies a failed client exchange.
type Reason int

const (
	ReasonPayloadTooLarge Reason = iota + 1
	ReasonSendIncomplete
	ReasonReplyMalformed
)

func (r Reason) String() string {
	switch r {
	case ReasonPayloadTooLarge:
		return "PayloadTooLarge"
	case ReasonSendIncomplete:
		return "SendIncomplete"
	case ReasonReplyMalformed:
		return "ReplyMalformed"
	default:
		return fmt.Sprintf("Reason(%d)", int(r))
	}
}

// Code is the negative status the CLI reports for r.
func (r Reason) Code() int {
	switch r {
	case ReasonPayloadTooLarge:
		return -3
	case ReasonSendIncomplete:
		return -2
	case ReasonReplyMalformed:
		return -4
	default:
		return -1
	}
}

func (r Reason) sentinel() error {
	switch r {
	case ReasonPayloadTooLarge:
		return ErrPayloadTooLarge
	case ReasonSendIncomplete:
		return ErrSendIncomplete
	case ReasonReplyMalformed:
		return ErrReplyMalformed
	default:
		return nil
	}
}

// Failure is the terminal error of a client exchange. errors.Is matches both
// the reason sentinel and the underlying cause.
type Failure struct {
	Reason Reason
	State  ClientState
	Err    error
}

func (f *Failure) Error() string {
	if f.Err == nil {
		return fmt.Sprintf("exchange: %s while %s", f.Reason, f.State)
	}
	return fmt.Sprintf("exchange: %s while %s: %v", f.Reason, f.State, f.Err)
}

func (f *Failure) Unwrap() []error {
	out := make([]error, 0, 2)
	if s := f.Reason.sentinel(); s != nil {
		out = append(out, s)
	}
	if f.Err != nil {
		out = append(out, f.Err)
	}
	return out
}

// Code maps err to the CLI status code; -1 when err is not a Failure.
func Code(err error) int {
	var f *Failure
	if errors.As(err, &f) {
		return f.Reason.Code()
	}
	return -1
}
