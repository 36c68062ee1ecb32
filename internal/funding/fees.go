package funding

import "errors"

// ErrUnknownMethod indicates an unsupported payment method tag.
var ErrUnknownMethod = errors.New("unknown payment method")

// Payment methods a deposit can be funded through. Fee formulas differ per
// method and are computed once at initiation; the figure recorded in the
// transaction metadata is authoritative, never recomputed later.
type Method string

const (
	MethodStripe       Method = "stripe"
	MethodMobileMoney  Method = "mobile_money"
	MethodBankTransfer Method = "bank_transfer"
)

// Valid reports whether the method tag is recognised.
func (m Method) Valid() bool {
	switch m {
	case MethodStripe, MethodMobileMoney, MethodBankTransfer:
		return true
	default:
		return false
	}
}

// Fee returns the processing fee in ledger minor units for funding amount
// through the method. Ceiling division keeps fees whole currency units.
func (m Method) Fee(amount int64) int64 {
	switch m {
	case MethodStripe:
		// 2.9% + 30
		return ceilDiv(amount*29, 1000) + 30
	case MethodMobileMoney:
		// 1.5%
		return ceilDiv(amount*15, 1000)
	default:
		return 0
	}
}

func ceilDiv(a, b int64) int64 {
	return (a + b - 1) / b
}
