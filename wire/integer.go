package wire

import (
	"strconv"
	"strings"
)

// Integer is a fixed-width, zero-padded decimal ASCII integer field,
// such as the three-byte reset timer seconds or the four-byte
// sequence number.
type Integer struct {
	size int
}

// NewInteger builds a fixed-width Integer field of the given size.
func NewInteger(size int) *Integer {
	return &Integer{size: size}
}

func (f *Integer) Size() int { return f.size }

func (f *Integer) Pack(value any) ([]byte, error) {
	n, ok := asInt(value)
	if !ok {
		return nil, typeError("integer", "int", value)
	}
	if n < 0 {
		return nil, newValueError("integer field does not support negative value %d", n)
	}
	s := strconv.FormatInt(n, 10)
	if len(s) > f.size {
		return nil, newValueError("integer value %d too large for %d-byte field", n, f.size)
	}
	return []byte(strings.Repeat("0", f.size-len(s)) + s), nil
}

func (f *Integer) Unpack(data []byte) (any, int, error) {
	if len(data) < f.size {
		return nil, 0, newValueError("integer field needs %d bytes, got %d", f.size, len(data))
	}
	s := string(data[:f.size])
	n, err := strconv.ParseInt(strings.TrimLeft(s, " "), 10, 64)
	if err != nil {
		return nil, 0, newValueError("integer field contains invalid digits %q", s)
	}
	return n, f.size, nil
}

func asInt(value any) (int64, bool) {
	switch v := value.(type) {
	case int:
		return int64(v), true
	case int64:
		return v, true
	case int32:
		return int64(v), true
	}
	return 0, false
}
