package goroutine

import "runtime"

// ID returns the current goroutine ID.
//
// It parses the header line of runtime.Stack ("goroutine 123 [running]:"),
// which is the only portable way to learn the ID. Cost is around a
// microsecond, so callers use it on setup paths (Split, first traced
// access), never per operation.
func ID() int64 {
	// Only the first line is needed.
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	return ParseID(buf[:n])
}

// ParseID extracts the goroutine ID from a stack trace header.
//
// Expected format: "goroutine 123 [running]:..."
// Returns 0 if the buffer does not start with that header.
func ParseID(buf []byte) int64 {
	const prefix = "goroutine "
	if len(buf) < len(prefix) || string(buf[:len(prefix)]) != prefix {
		return 0
	}

	var gid int64
	for _, c := range buf[len(prefix):] {
		if c < '0' || c > '9' {
			// Usually the space before "[running]".
			break
		}
		gid = gid*10 + int64(c-'0')
	}
	return gid
}
