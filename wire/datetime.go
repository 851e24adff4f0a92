package wire

import "time"

const dateTimeLayout = "20060102150405"

// DateTime is the fourteen-byte YYYYMMDDHHMMSS timestamp field used
// by LocalMode. The original driver never implemented this field; it
// is built here from the layout its name and width imply.
type DateTime struct{}

// NewDateTime builds a DateTime field.
func NewDateTime() *DateTime { return &DateTime{} }

func (f *DateTime) Size() int { return len(dateTimeLayout) }

func (f *DateTime) Pack(value any) ([]byte, error) {
	t, ok := value.(time.Time)
	if !ok {
		return nil, typeError("datetime", "time.Time", value)
	}
	return []byte(t.Format(dateTimeLayout)), nil
}

func (f *DateTime) Unpack(data []byte) (any, int, error) {
	size := f.Size()
	if len(data) < size {
		return nil, 0, newValueError("datetime field needs %d bytes, got %d", size, len(data))
	}
	t, err := time.ParseInLocation(dateTimeLayout, string(data[:size]), time.Local)
	if err != nil {
		return nil, 0, newValueError("datetime field contains invalid timestamp %q", data[:size])
	}
	return t, size, nil
}
