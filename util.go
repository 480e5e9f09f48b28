package stomp

import "strconv"

// parseUint32 parses a non-negative decimal integer that must fit in 32
// bits, matching the original implementation's content-length bound
// (frames larger than ~4 GiB are not representable; see DESIGN.md).
func parseUint32(s string) (uint32, error) {
	v, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, err
	}
	return uint32(v), nil
}
