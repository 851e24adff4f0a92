package wire

import "fmt"

// MessageType is the single byte that opens every frame and selects
// which schema decodes the rest of it.
type MessageType byte

const (
	TypeDisplayText          MessageType = 0x41
	TypePrintText            MessageType = 0x42
	TypeResetTimer           MessageType = 0x43
	TypeLocalMode            MessageType = 0x44
	TypeKeyboardInputRequest MessageType = 0x46
	TypeTransferAmount       MessageType = 0x51
	TypeTransferCardData     MessageType = 0x52
	TypeAdministration       MessageType = 0x53
	TypeSendData             MessageType = 0x54
	TypeKeyboardInput        MessageType = 0x55
	TypeResponse             MessageType = 0x5B
	TypeDeviceAttributeReq   MessageType = 0x60
	TypeDeviceAttribute      MessageType = 0x61
	TypeStatus               MessageType = 0x62
)

// ituMessageTypes lists every message type the ECR may receive from
// the terminal.
var ituMessageTypes = map[MessageType]bool{
	TypeDisplayText:          true,
	TypePrintText:            true,
	TypeResetTimer:           true,
	TypeLocalMode:            true,
	TypeKeyboardInputRequest: true,
	TypeKeyboardInput:        true,
	TypeResponse:             true,
	TypeSendData:             true,
	TypeDeviceAttribute:      true,
	TypeStatus:               true,
}

// ecrMessageTypes lists every message type the terminal may receive
// from the ECR.
var ecrMessageTypes = map[MessageType]bool{
	TypeTransferAmount:       true,
	TypeTransferCardData:     true,
	TypeAdministration:       true,
	TypeKeyboardInputRequest: true,
	TypeKeyboardInput:        true,
	TypeDeviceAttributeReq:   true,
}

// responseMessageTypes lists every message type whose is_response flag
// is set: it is routed to the send worker's outstanding response FIFO
// rather than to the session request handlers.
var responseMessageTypes = map[MessageType]bool{
	TypeKeyboardInput: true,
	TypeResponse:      true,
	TypeStatus:        true,
}

// Message is one decoded BBS frame: a type discriminator plus the
// named field values its schema describes.
type Message struct {
	Type   MessageType
	Fields Record
}

// IsResponse reports whether this message type answers a prior
// request rather than opening a new one, matching the is_response
// flag carried by the original message classes.
func (m Message) IsResponse() bool {
	return responseMessageTypes[m.Type]
}

// Pack renders the message to its wire form: the type byte followed
// by the schema-encoded fields.
func (m Message) Pack() ([]byte, error) {
	var body []byte
	var err error
	if m.Type == TypeKeyboardInput {
		body, err = packKeyboardInput(m.Fields)
	} else {
		schema, ok := schemas[m.Type]
		if !ok {
			return nil, fmt.Errorf("wire: no schema registered for message type 0x%02x", byte(m.Type))
		}
		body, err = schema.Pack(m.Fields)
	}
	if err != nil {
		return nil, err
	}
	out := make([]byte, 0, len(body)+1)
	out = append(out, byte(m.Type))
	out = append(out, body...)
	return out, nil
}

// NewMessage builds a Message, filling in defaulted fields, for the
// given type and field values.
func NewMessage(t MessageType, values Record) (Message, error) {
	if t == TypeKeyboardInput {
		if _, ok := values["text"]; !ok {
			return Message{}, fmt.Errorf("wire: missing required field %q", "text")
		}
		if _, ok := values["delimiter"]; !ok {
			return Message{}, fmt.Errorf("wire: missing required field %q", "delimiter")
		}
		return Message{Type: t, Fields: values}, nil
	}
	schema, ok := schemas[t]
	if !ok {
		return Message{}, fmt.Errorf("wire: no schema registered for message type 0x%02x", byte(t))
	}
	record, err := schema.NewRecord(values)
	if err != nil {
		return Message{}, err
	}
	return Message{Type: t, Fields: record}, nil
}

func unpackMessage(data []byte, allowed map[MessageType]bool) (Message, error) {
	if len(data) < 1 {
		return Message{}, newValueError("message frame is empty")
	}
	t := MessageType(data[0])
	if !allowed[t] {
		return Message{}, newValueError("message type 0x%02x is not valid here", byte(t))
	}
	if t == TypeKeyboardInput {
		fields, err := unpackKeyboardInput(data[1:])
		if err != nil {
			return Message{}, err
		}
		return Message{Type: t, Fields: fields}, nil
	}
	schema, ok := schemas[t]
	if !ok {
		return Message{}, fmt.Errorf("wire: no schema registered for message type 0x%02x", byte(t))
	}
	fields, consumed, err := schema.UnpackFields(data[1:])
	if err != nil {
		return Message{}, err
	}
	if consumed != len(data)-1 {
		return Message{}, newValueError("message type 0x%02x has %d trailing bytes", byte(t), len(data)-1-consumed)
	}
	return Message{Type: t, Fields: fields}, nil
}

// UnpackITUMessage decodes a frame received by the ECR from the
// terminal.
func UnpackITUMessage(data []byte) (Message, error) {
	return unpackMessage(data, ituMessageTypes)
}

// UnpackECRMessage decodes a frame received by the terminal from the
// ECR.
func UnpackECRMessage(data []byte) (Message, error) {
	return unpackMessage(data, ecrMessageTypes)
}

// schemas holds the wire layout for every message type. LocalMode is
// the richest schema: seven Delimited fields in a row, the last of
// them (tip) ending the schema, each self-reporting its own consumed
// span so it may sit anywhere in the schema, unlike the truly
// variadic trailing fields that some other message types carry.
var schemas = map[MessageType]Schema{
	TypeDisplayText: NewSchema(
		FieldDef{"prompt_customer", NewEnum(
			EnumPair{"1", true},
			EnumPair{"0", false},
		).WithDefault(true)},
		FieldDef{"expects_input", NewEnum(
			EnumPair{"1", true},
			EnumPair{"0", false},
		).WithDefault(false)},
		FieldDef{"mode", NewConstant([]byte("0"))},
		FieldDef{"text", NewVariadicText()},
	),

	TypePrintText: NewSchema(
		FieldDef{"sub_type", NewEnum(
			EnumPair{"\x20", "formatted"},
		)},
		FieldDef{"media", NewEnum(
			EnumPair{"\x20", "print_on_receipt"},
			EnumPair{"\x21", "print_on_journal"},
			EnumPair{"\x22", "print_on_both"},
		).WithDefault("print_on_both")},
		FieldDef{"mode", NewEnum(
			EnumPair{"\x2A", "normal_text"},
		)},
		FieldDef{"commands", NewFormattedText()},
	),

	TypeResetTimer: NewSchema(
		FieldDef{"seconds", NewInteger(3)},
	),

	TypeLocalMode: NewSchema(
		FieldDef{"result", NewEnum(
			EnumPair{"\x20", "success"},
			EnumPair{"\x21", "failure"},
		)},
		FieldDef{"acc", NewEnum(
			EnumPair{"\x20", "standard"},
			EnumPair{"\x22", "offline"},
			EnumPair{"\x30", "none"},
		)},
		FieldDef{"issuer_id", NewInteger(2)},
		FieldDef{"pan", NewDelimited(NewText(19), ';').Optional()},
		FieldDef{"timestamp", NewDelimited(NewDateTime(), ';')},
		FieldDef{"ver_method", NewDelimited(NewEnum(
			EnumPair{"\x30", "pin_based"},
			EnumPair{"\x31", "signature_based"},
			EnumPair{"\x32", "loyalty_transaction"},
			EnumPair{"\x32", "not_verified"},
		), ';')},
		FieldDef{"session_num", NewDelimited(NewInteger(3), ';')},
		FieldDef{"stan_auth", NewDelimited(NewText(12), ';')},
		FieldDef{"seq_no", NewDelimited(NewInteger(4), ';')},
		FieldDef{"tip", NewDelimited(NewPriceField(), ';').Optional()},
	),

	TypeKeyboardInputRequest: NewSchema(
		FieldDef{"echo", NewEnum(
			EnumPair{"\x20", true},
			EnumPair{"\x21", false},
		)},
		FieldDef{"min_chars", NewText(2)},
		FieldDef{"max_chars", NewText(2)},
	),

	// TransferAmount carries a handful of header fields the terminal
	// never acts on (timestamp, id_no, operator_id and friends are
	// marked "not used"/TODO in the original driver) alongside the
	// fields that matter: transfer_type, amount, and the optional
	// cashback/top-up/art amounts. mode and unused_type are each a
	// single-token Enum, so they default themselves with nothing to
	// supply.
	TypeTransferAmount: NewSchema(
		FieldDef{"timestamp", NewDateTime()},
		FieldDef{"id_no", NewText(6)},
		FieldDef{"seq_no", NewText(4)},
		FieldDef{"operator_id", NewText(4)},
		FieldDef{"mode", NewEnum(
			EnumPair{"\x30", nil},
		)},
		FieldDef{"transfer_type", NewEnum(
			EnumPair{"\x30", "eft_authorisation"},
			EnumPair{"\x31", "return_of_goods"},
			EnumPair{"\x32", "reversal"},
			EnumPair{"\x33", "purchase_with_cashback"},
			EnumPair{"\x34", "pre_authorisation"},
			EnumPair{"\x35", "adjustment"},
			EnumPair{"\x36", "balance_inquiry"},
			EnumPair{"\x37", "complete_receipt"},
			EnumPair{"\x38", "deposit"},
			EnumPair{"\x39", "cash_withdrawal"},
			EnumPair{"\x3a", "load_epurse_card"},
			EnumPair{"\x3b", "merchandise_purchase"},
			EnumPair{"\x3c", "merchandise_reversal"},
			EnumPair{"\x3d", "merchandise_correction"},
		)},
		FieldDef{"amount", NewPriceField()},
		FieldDef{"unused_type", NewEnum(
			EnumPair{"\x30", nil},
		)},
		FieldDef{"cashback_amount", NewPriceField()},
		FieldDef{"top_up_type", NewEnum(
			EnumPair{"\x30", true},
			EnumPair{"\x31", false},
		)},
		FieldDef{"art_amount", NewPriceField()},
	),

	TypeTransferCardData: NewSchema(
		FieldDef{"track", NewVariadicText()},
	),

	TypeAdministration: NewSchema(
		FieldDef{"timestamp", NewDateTime()},
		FieldDef{"id_no", NewText(6)},
		FieldDef{"seq_no", NewText(4)},
		FieldDef{"opt", NewText(4)},
		FieldDef{"adm_code", NewEnum(
			EnumPair{"\x30\x30", "not_used"},
			EnumPair{"\x30\x39", "not_used"},
			EnumPair{"\x31\x30", "send"},
			EnumPair{"\x31\x31", "ready"},
			EnumPair{"\x31\x32", "cancel"},
			EnumPair{"\x31\x33", "error"},
			EnumPair{"\x31\x34", "reverse"},
			EnumPair{"\x31\x35", "balance_inquiry_transaction"},
			EnumPair{"\x31\x36", "x_report"},
			EnumPair{"\x31\x37", "z_report"},
			EnumPair{"\x31\x38", "send_offline_transactions"},
			EnumPair{"\x31\x39", "turnover_report"},
			EnumPair{"\x31\x3A", "print_eot_transactions"},
			EnumPair{"\x31\x3B", "not_used"},
			EnumPair{"\x31\x3C", "not_used"},
			EnumPair{"\x31\x3D", "not_used"},
			EnumPair{"\x31\x3E", "not_used"},
		)},
		FieldDef{"fs", NewConstant([]byte{0x1C})},
	),

	TypeDeviceAttributeReq: NewSchema(),
	TypeDeviceAttribute:    NewSchema(),
	TypeStatus:             NewSchema(),

	TypeResponse: NewSchema(
		FieldDef{"code", NewEnum(
			EnumPair{"\x30\x30", "success"},
			EnumPair{"\x30\x33", "failure"},
			EnumPair{"\x30\x34", "failure"},
			EnumPair{"\x30\x35", "failure"},
			EnumPair{"\x30\x36", "failure"},
			EnumPair{"\x30\x37", "failure"},
			EnumPair{"\x30\x38", "failure"},
			EnumPair{"\x30\x39", "failure"},
			EnumPair{"\x31\x31", "display_busy"},
			EnumPair{"\x31\x32", "printer_busy"},
			EnumPair{"\x31\x33", "printer_broken"},
		)},
		FieldDef{"endcode", NewConstant([]byte{0x5D})},
	),

	TypeSendData: NewSchema(
		FieldDef{"code", NewEnum(
			EnumPair{"\x30\x31", "reports_data_header"},
			EnumPair{"\x30\x32", "reconciliation_data_amounts"},
		)},
		FieldDef{"data", NewVariadicText()},
	),
}

// unpackKeyboardInput decodes a KeyboardInputMessage payload: a
// variadic text field, followed by a one-byte delimiter enum, with no
// byte between them to scan for — the text's extent is determined by
// subtracting the delimiter's fixed width from the end of the buffer,
// not by finding a terminator within it. This does not fit the
// general Schema engine's left-to-right consume model, so it is
// decoded directly instead of through a registered schema.
func unpackKeyboardInput(data []byte) (Record, error) {
	delimiter := NewEnum(
		EnumPair{"0", "enter"},
		EnumPair{"9", "escape"},
	)
	if len(data) < delimiter.Size() {
		return nil, newValueError("keyboard input message shorter than its delimiter")
	}
	split := len(data) - delimiter.Size()
	text, consumed, err := NewVariadicText().Unpack(data[:split])
	if err != nil {
		return nil, err
	}
	if consumed != split {
		return nil, newValueError("keyboard input text field did not consume its whole span")
	}
	delimValue, _, err := delimiter.Unpack(data[split:])
	if err != nil {
		return nil, err
	}
	return Record{"text": text, "delimiter": delimValue}, nil
}

// packKeyboardInput renders a KeyboardInputMessage payload, the
// counterpart to unpackKeyboardInput.
func packKeyboardInput(fields Record) ([]byte, error) {
	text, err := NewVariadicText().Pack(fields["text"])
	if err != nil {
		return nil, err
	}
	delimiter := NewEnum(
		EnumPair{"0", "enter"},
		EnumPair{"9", "escape"},
	)
	delim, err := delimiter.Pack(fields["delimiter"])
	if err != nil {
		return nil, err
	}
	return append(text, delim...), nil
}
