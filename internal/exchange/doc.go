// Package exchange implements the single request/response datagram exchange.
//
// A client sends one datagram of N big-endian uint32 values and waits for a
// 4-byte sum reply, and optionally a second 4N-byte prefix-sum reply. The
// server answers each datagram independently; nothing survives an exchange.
//
// Ownership boundary:
//   - client state machine and failure reasons
//   - server receive/compute/reply loop and its optional worker pool
//   - wire encoding lives in internal/protocol/codec
package exchange
