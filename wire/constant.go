package wire

// Constant is a field with one fixed wire token and no symbolic
// value — the framing bytes like the DisplayText mode byte ('0') or
// the AdministrationMessage field separator (0x1C). It packs and
// unpacks its token unconditionally, ignoring the value passed to
// Pack and always yielding nil from Unpack, so it never needs to
// appear in a Record.
type Constant struct {
	token []byte
}

// NewConstant builds a Constant field around the given wire token.
func NewConstant(token []byte) *Constant {
	cp := make([]byte, len(token))
	copy(cp, token)
	return &Constant{token: cp}
}

func (f *Constant) Size() int { return len(f.token) }

func (f *Constant) Default() (any, bool) { return nil, true }

func (f *Constant) Pack(value any) ([]byte, error) {
	cp := make([]byte, len(f.token))
	copy(cp, f.token)
	return cp, nil
}

func (f *Constant) Unpack(data []byte) (any, int, error) {
	if len(data) < len(f.token) {
		return nil, 0, newValueError("constant field needs %d bytes, got %d", len(f.token), len(data))
	}
	got := data[:len(f.token)]
	for i := range f.token {
		if got[i] != f.token[i] {
			return nil, 0, newValueError("constant field expected %q, got %q", f.token, got)
		}
	}
	return nil, len(f.token), nil
}
