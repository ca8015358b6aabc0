package risk

import "fmt"

// Policy holds the session limits. Both boundaries are positive amounts in
// account currency: trading stops once daily P&L reaches +TargetProfit or
// falls to -StopLoss.
type Policy struct {
	Stake        float64
	TargetProfit float64
	StopLoss     float64

	// StrengthFilter enables the currency-strength veto.
	StrengthFilter bool
}

func (p Policy) Validate() error {
	if p.Stake <= 0 {
		return fmt.Errorf("stake must be positive")
	}
	if p.TargetProfit <= 0 {
		return fmt.Errorf("target_profit must be positive")
	}
	if p.StopLoss <= 0 {
		return fmt.Errorf("stop_loss must be positive")
	}
	return nil
}
