package funding

import "math"

// Converter maps ledger amounts into the gateway's settlement currency. The
// ledger currency (CFA francs) has no minor unit while the settlement
// currency does, hence the factor of 100. The rate is injected configuration;
// rounding here never leaks into the ledger because the reconciler credits
// the original domestic amount carried in the session metadata.
type Converter struct {
	// Rate is how many ledger units one settlement major unit buys.
	Rate float64
}

// ToSettlementMinor converts a ledger amount into settlement minor units.
func (c Converter) ToSettlementMinor(amount int64) int64 {
	if c.Rate <= 0 {
		return amount
	}
	return int64(math.Round(float64(amount) * 100 / c.Rate))
}
