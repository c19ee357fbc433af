package tuple

// Increment computes the key-increment rule: the smallest
// key that is not prefixed by key, by stripping trailing 0xFF bytes and
// incrementing the last remaining byte. It is used to turn a packed value
// prefix into the exclusive-lower or inclusive-upper bound of a range scan.
//
// Increment(nil) and Increment of an all-0xFF key return nil, signaling
// "no upper bound" (the scan should run to the end of the subspace).
func Increment(key []byte) []byte {
	out := make([]byte, len(key))
	copy(out, key)

	for len(out) > 0 && out[len(out)-1] == 0xFF {
		out = out[:len(out)-1]
	}
	if len(out) == 0 {
		return nil
	}
	out[len(out)-1]++
	return out
}

// KeyAfter returns the smallest key strictly greater than key itself
// (as opposed to Increment, which returns the smallest key not prefixed
// by key). It appends a single 0x00 byte, which always sorts after key
// because no valid encoded element can be a zero-length continuation.
func KeyAfter(key []byte) []byte {
	out := make([]byte, len(key)+1)
	copy(out, key)
	return out
}
