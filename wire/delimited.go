package wire

import "bytes"

// Delimited wraps another field and appends a one-byte delimiter on
// pack, or scans for one on unpack, so that a variable-length field
// can appear anywhere in a schema — not only as the last field — by
// self-reporting how much of the buffer (inner value plus delimiter)
// it consumed. If Optional is set, an empty span before the delimiter
// unpacks to a nil value (consuming just the delimiter) rather than
// delegating to the inner field.
type Delimited struct {
	inner     Field
	delimiter byte
	optional  bool
}

// NewDelimited wraps inner with a delimiter byte.
func NewDelimited(inner Field, delimiter byte) *Delimited {
	return &Delimited{inner: inner, delimiter: delimiter}
}

// Optional marks the field as accepting an empty value: an immediate
// delimiter with nothing before it unpacks to a nil value, and
// packing a nil value emits nothing but the delimiter.
func (f *Delimited) Optional() *Delimited {
	cp := *f
	cp.optional = true
	return &cp
}

// bounded marks Delimited as self-terminating: it may appear anywhere
// in a schema, not only last.
func (f *Delimited) bounded() {}

// Default reports nil as an optional Delimited field's default, so a
// Record that omits it (such as LocalMode's pan/tip when the terminal
// leaves them blank) doesn't need to spell that out explicitly. A
// required (non-optional) Delimited field has no default.
func (f *Delimited) Default() (any, bool) {
	if !f.optional {
		return nil, false
	}
	return nil, true
}

func (f *Delimited) Pack(value any) ([]byte, error) {
	if f.optional && value == nil {
		return []byte{f.delimiter}, nil
	}
	inner, err := f.inner.Pack(value)
	if err != nil {
		return nil, err
	}
	if bytes.IndexByte(inner, f.delimiter) != -1 {
		return nil, newValueError("delimited field value contains the delimiter byte 0x%02x", f.delimiter)
	}
	out := make([]byte, 0, len(inner)+1)
	out = append(out, inner...)
	out = append(out, f.delimiter)
	return out, nil
}

func (f *Delimited) Unpack(data []byte) (any, int, error) {
	i := bytes.IndexByte(data, f.delimiter)
	if i == -1 {
		return nil, 0, newValueError("delimited field is missing its terminating 0x%02x byte", f.delimiter)
	}
	if f.optional && i == 0 {
		return nil, 1, nil
	}
	value, consumed, err := f.inner.Unpack(data[:i])
	if err != nil {
		return nil, 0, err
	}
	if consumed != i {
		return nil, 0, newValueError("delimited field's inner value did not consume the whole span before the delimiter")
	}
	return value, i + 1, nil
}
