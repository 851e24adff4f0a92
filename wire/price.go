package wire

import (
	"fmt"
	"strconv"
	"strings"
)

// Price is a monetary amount held as an integer number of
// ten-thousandths of the major currency unit, matching the wire
// encoding's implied four decimal places.
type Price int64

// String renders the price as a fixed-point decimal, e.g. Price(12345)
// ("1.2345" in the major unit) -> "1.2345".
func (p Price) String() string {
	neg := p < 0
	n := int64(p)
	if neg {
		n = -n
	}
	whole := n / 10000
	frac := n % 10000
	s := fmt.Sprintf("%d.%04d", whole, frac)
	if neg {
		s = "-" + s
	}
	return s
}

// PriceField is an eleven-byte zero-padded decimal price field. The
// wire value is the price in ten-thousandths with no decimal point;
// unpacking returns that count unchanged as a Price, which is held in
// the same ten-thousandths unit.
type PriceField struct {
	size int
}

// NewPriceField builds a PriceField. The default wire width is 11
// bytes; an explicit width can be passed for fields that deviate.
func NewPriceField(size ...int) *PriceField {
	width := 11
	if len(size) == 1 {
		width = size[0]
	} else if len(size) > 1 {
		panic("wire: NewPriceField takes at most one size argument")
	}
	return &PriceField{size: width}
}

func (f *PriceField) Size() int { return f.size }

func (f *PriceField) Pack(value any) ([]byte, error) {
	var n int64
	switch v := value.(type) {
	case Price:
		n = int64(v)
	case int64:
		n = v
	case int:
		n = int64(v)
	default:
		return nil, typeError("price", "Price", value)
	}
	if n < 0 {
		return nil, newValueError("price field does not support negative value %s", Price(n))
	}
	s := strconv.FormatInt(n, 10)
	if len(s) > f.size {
		return nil, newValueError("price value %s too large for %d-byte field", Price(n), f.size)
	}
	return []byte(strings.Repeat("0", f.size-len(s)) + s), nil
}

func (f *PriceField) Unpack(data []byte) (any, int, error) {
	if len(data) < f.size {
		return nil, 0, newValueError("price field needs %d bytes, got %d", f.size, len(data))
	}
	s := string(data[:f.size])
	n, err := strconv.ParseInt(strings.TrimLeft(s, " "), 10, 64)
	if err != nil {
		return nil, 0, newValueError("price field contains invalid digits %q", s)
	}
	return Price(n), f.size, nil
}
