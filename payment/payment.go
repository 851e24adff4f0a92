package payment

import (
	"time"

	"github.com/bwhmather/bbsterm/wire"
)

// Payment is the confirmed result of a successful card transaction,
// decoded from the terminal's LocalMode("success") report. Grounded
// on the Payment namedtuple in
// original_source/payment_terminal/base.py.
type Payment struct {
	IssuerID   int64
	PAN        string
	Timestamp  time.Time
	VerMethod  string
	SessionNum int64
	StanAuth   string
	SeqNo      int64
	Tip        wire.Price
	HasTip     bool
}

// FromLocalMode builds a Payment from a decoded LocalMode message's
// fields. It is the caller's responsibility to have already checked
// that Fields["result"] == "success".
func FromLocalMode(fields wire.Record) Payment {
	p := Payment{
		IssuerID:   fields["issuer_id"].(int64),
		Timestamp:  fields["timestamp"].(time.Time),
		VerMethod:  fields["ver_method"].(string),
		SessionNum: fields["session_num"].(int64),
		StanAuth:   fields["stan_auth"].(string),
		SeqNo:      fields["seq_no"].(int64),
	}
	if pan, ok := fields["pan"].(string); ok {
		p.PAN = pan
	}
	if tip, ok := fields["tip"].(wire.Price); ok {
		p.Tip = tip
		p.HasTip = true
	}
	return p
}
