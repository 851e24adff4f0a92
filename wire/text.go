package wire

import "strings"

// NewText builds a fixed-width ASCII text field, space-padded on
// pack and right-trimmed on unpack.
func NewText(size int) *fixedText {
	return &fixedText{size: size}
}

// NewVariadicText builds an ASCII text field with no fixed width. It
// consumes the remainder of whatever buffer it is handed, so it may
// only appear as the last field of a schema, or as the inner field of
// a Delimited.
func NewVariadicText() *variadicText {
	return &variadicText{}
}

type fixedText struct {
	size int
}

func (f *fixedText) Size() int { return f.size }

func (f *fixedText) Pack(value any) ([]byte, error) {
	data, err := packText(value)
	if err != nil {
		return nil, err
	}
	if len(data) > f.size {
		return nil, newValueError("text value %q too long for %d-byte field", value, f.size)
	}
	padded := make([]byte, f.size)
	copy(padded, data)
	for i := len(data); i < f.size; i++ {
		padded[i] = ' '
	}
	return padded, nil
}

func (f *fixedText) Unpack(data []byte) (any, int, error) {
	return strings.TrimRight(string(data), " "), len(data), nil
}

type variadicText struct{}

func (f *variadicText) Pack(value any) ([]byte, error) {
	return packText(value)
}

func (f *variadicText) Unpack(data []byte) (any, int, error) {
	return strings.TrimRight(string(data), " "), len(data), nil
}

func packText(value any) ([]byte, error) {
	s, ok := value.(string)
	if !ok {
		return nil, typeError("text", "string", value)
	}
	if err := requireASCII(s); err != nil {
		return nil, err
	}
	return []byte(s), nil
}

func requireASCII(s string) error {
	for i := 0; i < len(s); i++ {
		if s[i] > 0x7f {
			return newValueError("text value %q is not ascii", s)
		}
	}
	return nil
}
