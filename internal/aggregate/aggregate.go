// Package aggregate computes wrapping sums over integer batches.
//
// All arithmetic is uint32 and wraps modulo 2^32 to match the wire width.
package aggregate

// Result is the per-request output of the server.
type Result struct {
	Sum        uint32
	PrefixSums []uint32
}

func Sum(batch []uint32) uint32 {
	var s uint32
	for _, v := range batch {
		s += v
	}
	return s
}

// PrefixSums returns the inclusive running sums of batch.
func PrefixSums(batch []uint32) []uint32 {
	out := make([]uint32, len(batch))
	var s uint32
	for i, v := range batch {
		s += v
		out[i] = s
	}
	return out
}

// Compute runs Sum and, when withPrefix is set, PrefixSums in a single pass.
func Compute(batch []uint32, withPrefix bool) Result {
	if !withPrefix {
		return Result{Sum: Sum(batch)}
	}
	prefix := PrefixSums(batch)
	res := Result{PrefixSums: prefix}
	if len(prefix) > 0 {
		res.Sum = prefix[len(prefix)-1]
	}
	return res
}
