package wire

import "fmt"

// FieldDef names one slot in a Schema.
type FieldDef struct {
	Name  string
	Field Field
}

// Schema is an ordered list of named fields describing one message
// type's wire layout. Fields are packed and unpacked in declaration
// order. At most one field may be variadic (implementing neither
// sizedField nor boundedField), and if present it must be last —
// NewSchema enforces this at construction time rather than leaving it
// to be discovered mid-unpack.
type Schema []FieldDef

// NewSchema validates and returns a Schema built from the given
// fields.
func NewSchema(fields ...FieldDef) Schema {
	for i, def := range fields {
		if !isBounded(def.Field) && i != len(fields)-1 {
			panic(fmt.Sprintf("wire: variadic field %q must be the last field in its schema", def.Name))
		}
	}
	return Schema(fields)
}

// Compose builds a new Schema from base, replacing any field whose
// name matches one in overrides in place, and appending the rest of
// overrides, in the order given, as new trailing fields. This mirrors
// the field inheritance the original message classes relied on:
// a subclass schema overrides some inherited fields by name and adds
// its own after them.
func Compose(base Schema, overrides ...FieldDef) Schema {
	index := make(map[string]int, len(base))
	out := make(Schema, len(base))
	copy(out, base)
	for i, def := range out {
		index[def.Name] = i
	}
	for _, def := range overrides {
		if i, ok := index[def.Name]; ok {
			out[i] = def
			continue
		}
		index[def.Name] = len(out)
		out = append(out, def)
	}
	return NewSchema(out...)
}

func isBounded(f Field) bool {
	if _, ok := f.(sizedField); ok {
		return true
	}
	if _, ok := f.(boundedField); ok {
		return true
	}
	return false
}

// Record is a name -> value mapping for one message instance, in the
// shape accepted by Schema.Pack and returned by Schema.UnpackFields.
type Record map[string]any

// NewRecord builds a Record for schema from the given values, filling
// in any field omitted from values with its Defaulter default. It
// returns an error if a field is omitted with no default available.
func (s Schema) NewRecord(values Record) (Record, error) {
	out := make(Record, len(s))
	for _, def := range s {
		if value, ok := values[def.Name]; ok {
			out[def.Name] = value
			continue
		}
		if d, ok := def.Field.(Defaulter); ok {
			if value, ok := d.Default(); ok {
				out[def.Name] = value
				continue
			}
		}
		return nil, fmt.Errorf("wire: missing required field %q", def.Name)
	}
	return out, nil
}

// Pack renders record to its wire form, field by field in schema
// order.
func (s Schema) Pack(record Record) ([]byte, error) {
	var out []byte
	for _, def := range s {
		value, ok := record[def.Name]
		if !ok {
			d, isDefaulter := def.Field.(Defaulter)
			if !isDefaulter {
				return nil, fmt.Errorf("wire: missing required field %q", def.Name)
			}
			var defOK bool
			value, defOK = d.Default()
			if !defOK {
				return nil, fmt.Errorf("wire: missing required field %q", def.Name)
			}
		}
		packed, err := def.Field.Pack(value)
		if err != nil {
			return nil, fmt.Errorf("wire: field %q: %w", def.Name, err)
		}
		out = append(out, packed...)
	}
	return out, nil
}

// UnpackFields decodes data field by field in schema order, returning
// the populated Record and the number of bytes consumed. A sized
// field has exactly its declared width sliced out before Unpack is
// called; any other field (bounded, such as Delimited, or the single
// trailing variadic field a schema may carry) is handed the entire
// remainder and trusted to report back how much of it it consumed.
func (s Schema) UnpackFields(data []byte) (Record, int, error) {
	record := make(Record, len(s))
	offset := 0
	for _, def := range s {
		remaining := data[offset:]
		if sf, ok := def.Field.(sizedField); ok {
			size := sf.Size()
			if len(remaining) < size {
				return nil, 0, fmt.Errorf("wire: field %q needs %d bytes, only %d remain", def.Name, size, len(remaining))
			}
			value, consumed, err := def.Field.Unpack(remaining[:size])
			if err != nil {
				return nil, 0, fmt.Errorf("wire: field %q: %w", def.Name, err)
			}
			if consumed != size {
				return nil, 0, fmt.Errorf("wire: field %q consumed %d bytes, expected exactly %d", def.Name, consumed, size)
			}
			record[def.Name] = value
			offset += size
			continue
		}
		value, consumed, err := def.Field.Unpack(remaining)
		if err != nil {
			return nil, 0, fmt.Errorf("wire: field %q: %w", def.Name, err)
		}
		record[def.Name] = value
		offset += consumed
	}
	return record, offset, nil
}
