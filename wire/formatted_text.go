package wire

import "bytes"

// Receipt is one cut-separated print job: a list of text segments to
// be printed in order, with a partial cut of the receipt stock
// between each pair of segments.
type Receipt []string

// FormattedText is the printer command field used by PrintText. The
// wire form is a stream of text broken into receipts by 0x0C
// (cut-through / full cut) bytes, and each receipt further broken
// into segments by 0x0E (partial cut) bytes. It is variadic: it
// implements neither sizedField nor boundedField, so it may only be
// the last field in a schema.
//
// The original driver's unpack returned after decoding only the
// first receipt in the stream. That is not reproduced here: every
// receipt in the stream is decoded.
type FormattedText struct{}

// NewFormattedText builds a FormattedText field.
func NewFormattedText() *FormattedText { return &FormattedText{} }

func (f *FormattedText) Pack(value any) ([]byte, error) {
	receipts, ok := value.([]Receipt)
	if !ok {
		return nil, typeError("formatted text", "[]Receipt", value)
	}
	var buf bytes.Buffer
	for i, receipt := range receipts {
		if i > 0 {
			buf.WriteByte(0x0C)
		}
		for j, segment := range receipt {
			if j > 0 {
				buf.WriteByte(0x0E)
			}
			if err := requireASCII(segment); err != nil {
				return nil, err
			}
			buf.WriteString(segment)
		}
	}
	return buf.Bytes(), nil
}

func (f *FormattedText) Unpack(data []byte) (any, int, error) {
	var receipts []Receipt
	for _, chunk := range bytes.Split(data, []byte{0x0C}) {
		var receipt Receipt
		for _, segment := range bytes.Split(chunk, []byte{0x0E}) {
			receipt = append(receipt, string(segment))
		}
		receipts = append(receipts, receipt)
	}
	return receipts, len(data), nil
}
