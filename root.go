package lidl

import "fmt"

// Root locates a message's root object. The root is the last value written,
// so it occupies the final size bytes of the finished message.
func Root(msg []byte, size int) (Segment, error) {
	if size < 0 || size > len(msg) {
		return Segment{}, fmt.Errorf("root of %d bytes in message of %d: %w", size, len(msg), ErrTruncated)
	}
	return Wrap(msg).Slice(len(msg)-size, size)
}
