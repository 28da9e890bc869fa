package exchange

import "fmt"

type ClientState int

const (
	StateIdle ClientState = iota
	StateSending
	StateAwaitingReply
	StateDone
	StateFailed
)

func (s ClientState) String() string {
	switch s {
	case StateIdle:
		return "Idle"
	case StateSending:
		return "Sending"
	case StateAwaitingReply:
		return "AwaitingReply"
	case StateDone:
		return "Done"
	case StateFailed:
		return "Failed"
	default:
		return fmt.Sprintf("ClientState(%d)", int(s))
	}
}

type ServerState int

const (
	StateListening ServerState = iota
	StateReceived
	StateComputed
	StateReplied
	StateServerFailed
)

func (s ServerState) String() string {
	switch s {
	case StateListening:
		return "Listening"
	case StateReceived:
		return "Received"
	case StateComputed:
		return "Computed"
	case StateReplied:
		return "Replied"
	case StateServerFailed:
		return "Failed"
	default:
		return fmt.Sprintf("ServerState(%d)", int(s))
	}
}
