package codec

import (
	"encoding/binary"
	"errors"
	"fmt"
)

const (
	// ElementSize is the fixed wire width of one element.
	ElementSize = 4
	// MaxElements keeps a request under typical UDP payload limits.
	MaxElements = 16000
	// MaxPayloadBytes is the largest valid request datagram.
	MaxPayloadBytes = MaxElements * ElementSize
)

var (
	ErrSizeExceeded     = errors.New("codec: batch exceeds element limit")
	ErrMalformedMessage = errors.New("codec: payload length is not a multiple of element size")
)

// Encode writes batch as consecutive big-endian uint32 values.
func Encode(batch []uint32) ([]byte, error) {
	if len(batch) > MaxElements {
		return nil, fmt.Errorf("%w: %d > %d", ErrSizeExceeded, len(batch), MaxElements)
	}
	buf := make([]byte, len(batch)*ElementSize)
	for i, v := range batch {
		binary.BigEndian.PutUint32(buf[i*ElementSize:], v)
	}
	return buf, nil
}

// Decode is the inverse of Encode. It does not apply MaxElements; callers
// reading from the network bound the payload before decoding.
func Decode(b []byte) ([]uint32, error) {
	if len(b)%ElementSize != 0 {
		return nil, fmt.Errorf("%w: %d bytes", ErrMalformedMessage, len(b))
	}
	out := make([]uint32, len(b)/ElementSize)
	for i := range out {
		out[i] = binary.BigEndian.Uint32(b[i*ElementSize:])
	}
	return out, nil
}

func EncodeUint32(v uint32) []byte {
	buf := make([]byte, ElementSize)
	binary.BigEndian.PutUint32(buf, v)
	return buf
}

func DecodeUint32(b []byte) (uint32, error) {
	if len(b) != ElementSize {
		return 0, fmt.Errorf("%w: want %d bytes, got %d", ErrMalformedMessage, ElementSize, len(b))
	}
	return binary.BigEndian.Uint32(b), nil
}

// EncodedLen returns the wire length of n elements.
func EncodedLen(n int) int {
	return n * ElementSize
}
