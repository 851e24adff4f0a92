package wire

import (
	"testing"
	"time"
)

func TestDisplayTextUnpack(t *testing.T) {
	t.Parallel()
	msg, err := UnpackITUMessage([]byte("\x41" + "1" + "0" + "0" + "hello world"))
	if err != nil {
		t.Fatalf("UnpackITUMessage: %v", err)
	}
	if msg.Type != TypeDisplayText {
		t.Fatalf("Type = %v, want TypeDisplayText", msg.Type)
	}
	if msg.Fields["text"] != "hello world" {
		t.Fatalf("text = %v, want %q", msg.Fields["text"], "hello world")
	}
	if msg.Fields["prompt_customer"] != true {
		t.Fatalf("prompt_customer = %v, want true", msg.Fields["prompt_customer"])
	}
	if msg.Fields["expects_input"] != false {
		t.Fatalf("expects_input = %v, want false", msg.Fields["expects_input"])
	}
}

func TestDisplayTextRoundTrip(t *testing.T) {
	t.Parallel()
	msg, err := NewMessage(TypeDisplayText, Record{
		"expects_input": true,
		"text":          "enter amount",
	})
	if err != nil {
		t.Fatalf("NewMessage: %v", err)
	}
	packed, err := msg.Pack()
	if err != nil {
		t.Fatalf("Pack: %v", err)
	}
	decoded, err := UnpackITUMessage(packed)
	if err != nil {
		t.Fatalf("UnpackITUMessage: %v", err)
	}
	if decoded.Fields["text"] != "enter amount" {
		t.Fatalf("text = %v, want %q", decoded.Fields["text"], "enter amount")
	}
	if decoded.Fields["expects_input"] != true {
		t.Fatalf("expects_input = %v, want true", decoded.Fields["expects_input"])
	}
}

func TestLocalModeRoundTrip(t *testing.T) {
	t.Parallel()
	ts := time.Date(2026, 7, 29, 12, 30, 0, 0, time.Local)
	msg, err := NewMessage(TypeLocalMode, Record{
		"result":      "success",
		"acc":         "standard",
		"issuer_id":   int64(12),
		"timestamp":   ts,
		"ver_method":  "not_verified",
		"session_num": int64(42),
		"stan_auth":   "A1B2C3",
		"seq_no":      int64(7),
	})
	if err != nil {
		t.Fatalf("NewMessage: %v", err)
	}
	packed, err := msg.Pack()
	if err != nil {
		t.Fatalf("Pack: %v", err)
	}
	decoded, err := UnpackITUMessage(packed)
	if err != nil {
		t.Fatalf("UnpackITUMessage: %v", err)
	}
	if decoded.Fields["ver_method"] != "not_verified" {
		t.Fatalf("ver_method = %v, want %q", decoded.Fields["ver_method"], "not_verified")
	}
	if decoded.Fields["pan"] != nil {
		t.Fatalf("pan = %v, want nil (optional, omitted)", decoded.Fields["pan"])
	}
	if decoded.Fields["stan_auth"] != "A1B2C3" {
		t.Fatalf("stan_auth = %v, want %q", decoded.Fields["stan_auth"], "A1B2C3")
	}
}

func TestLocalModeVerMethodDuplicateKeyResolvesToNotVerified(t *testing.T) {
	t.Parallel()
	enum, ok := schemas[TypeLocalMode][5].Field.(*Delimited)
	if !ok {
		t.Fatalf("expected LocalMode field 5 to be ver_method's Delimited wrapper")
	}
	value, consumed, err := enum.Unpack([]byte("\x32;"))
	if err != nil {
		t.Fatalf("Unpack: %v", err)
	}
	if value != "not_verified" {
		t.Fatalf("ver_method 0x32 decoded to %v, want %q", value, "not_verified")
	}
	if consumed != 2 {
		t.Fatalf("consumed = %d, want 2", consumed)
	}
}

func TestKeyboardInputRoundTrip(t *testing.T) {
	t.Parallel()
	msg, err := NewMessage(TypeKeyboardInput, Record{
		"text":      "1234",
		"delimiter": "enter",
	})
	if err != nil {
		t.Fatalf("NewMessage: %v", err)
	}
	packed, err := msg.Pack()
	if err != nil {
		t.Fatalf("Pack: %v", err)
	}
	decoded, err := UnpackITUMessage(packed)
	if err != nil {
		t.Fatalf("UnpackITUMessage: %v", err)
	}
	if decoded.Fields["text"] != "1234" {
		t.Fatalf("text = %v, want %q", decoded.Fields["text"], "1234")
	}
	if decoded.Fields["delimiter"] != "enter" {
		t.Fatalf("delimiter = %v, want %q", decoded.Fields["delimiter"], "enter")
	}
}

func TestUnpackITUMessageRejectsECROnlyType(t *testing.T) {
	t.Parallel()
	_, err := UnpackITUMessage([]byte{byte(TypeTransferAmount)})
	if err == nil {
		t.Fatal("expected an error decoding an ECR-only message type as an ITU message")
	}
}

func TestPrintTextAllReceiptsDecoded(t *testing.T) {
	t.Parallel()
	payload := append([]byte{byte(TypePrintText), 0x20, 0x20, 0x2A}, []byte("first\x0Csecond")...)
	msg, err := UnpackITUMessage(payload)
	if err != nil {
		t.Fatalf("UnpackITUMessage: %v", err)
	}
	receipts, ok := msg.Fields["commands"].([]Receipt)
	if !ok {
		t.Fatalf("commands = %T, want []Receipt", msg.Fields["commands"])
	}
	if len(receipts) != 2 {
		t.Fatalf("len(receipts) = %d, want 2 (both receipts, not just the first)", len(receipts))
	}
	if receipts[0][0] != "first" || receipts[1][0] != "second" {
		t.Fatalf("receipts = %v", receipts)
	}
}

func TestTransferAmountRoundTrip(t *testing.T) {
	t.Parallel()
	msg, err := NewMessage(TypeTransferAmount, Record{
		"timestamp":       time.Date(2026, 7, 29, 12, 0, 0, 0, time.Local),
		"id_no":           "000000",
		"seq_no":          "0000",
		"operator_id":     "0001",
		"transfer_type":   "eft_authorisation",
		"amount":          Price(99900),
		"cashback_amount": Price(0),
		"top_up_type":     false,
		"art_amount":      Price(0),
	})
	if err != nil {
		t.Fatalf("NewMessage: %v", err)
	}
	packed, err := msg.Pack()
	if err != nil {
		t.Fatalf("Pack: %v", err)
	}
	decoded, err := UnpackECRMessage(packed)
	if err != nil {
		t.Fatalf("UnpackECRMessage: %v", err)
	}
	if decoded.Fields["amount"] != Price(99900) {
		t.Fatalf("amount = %v, want 99900", decoded.Fields["amount"])
	}
	if decoded.Fields["transfer_type"] != "eft_authorisation" {
		t.Fatalf("transfer_type = %v, want %q", decoded.Fields["transfer_type"], "eft_authorisation")
	}
	if decoded.Fields["mode"] != nil {
		t.Fatalf("mode = %v, want nil (single-token default)", decoded.Fields["mode"])
	}
}

func TestAdministrationRoundTrip(t *testing.T) {
	t.Parallel()
	msg, err := NewMessage(TypeAdministration, Record{
		"timestamp": time.Date(2026, 7, 29, 12, 0, 0, 0, time.Local),
		"id_no":     "000000",
		"seq_no":    "0000",
		"opt":       "0000",
		"adm_code":  "reverse",
	})
	if err != nil {
		t.Fatalf("NewMessage: %v", err)
	}
	packed, err := msg.Pack()
	if err != nil {
		t.Fatalf("Pack: %v", err)
	}
	decoded, err := UnpackECRMessage(packed)
	if err != nil {
		t.Fatalf("UnpackECRMessage: %v", err)
	}
	if decoded.Fields["adm_code"] != "reverse" {
		t.Fatalf("adm_code = %v, want %q", decoded.Fields["adm_code"], "reverse")
	}
}
