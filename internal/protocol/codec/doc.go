// Package codec owns the integer batch wire format.
//
// A batch of N unsigned 32-bit integers travels as 4N bytes, each element
// big-endian. The same format carries the 4-byte sum reply and the 4N-byte
// prefix-sum reply.
package codec
