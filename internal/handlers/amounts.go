package handlers

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/ArowuTest/daily-lotto-settlement/internal/models"
)

// Amounts formats smallest-unit token amounts for display.
type Amounts struct {
	Decimals int32
}

// Format renders amount with the token's decimals, e.g. 1500000 -> "1.500000".
func (a Amounts) Format(amount int64) string {
	return decimal.New(amount, -a.Decimals).StringFixed(a.Decimals)
}

// Parse converts a decimal token amount into smallest units. Fractions below one unit are rejected.
func (a Amounts) Parse(s string) (int64, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q", s)
	}
	units := d.Shift(a.Decimals)
	if !units.IsInteger() {
		return 0, fmt.Errorf("amount %q has more than %d decimals", s, a.Decimals)
	}
	if !units.IsPositive() {
		return 0, fmt.Errorf("amount %q must be positive", s)
	}
	return units.IntPart(), nil
}

// BalancesView is the pool snapshot with display strings.
type BalancesView struct {
	*models.Balances
	Display map[string]string `json:"display"`
}

func (a Amounts) balancesView(b *models.Balances) BalancesView {
	return BalancesView{
		Balances: b,
		Display: map[string]string{
			"firstPool":       a.Format(b.MainPools.First),
			"secondPool":      a.Format(b.MainPools.Second),
			"thirdPool":       a.Format(b.MainPools.Third),
			"developmentPool": a.Format(b.MainPools.Development),
			"firstReserve":    a.Format(b.Reserves.First),
			"secondReserve":   a.Format(b.Reserves.Second),
			"thirdReserve":    a.Format(b.Reserves.Third),
			"unclaimedPrizes": a.Format(b.UnclaimedPrizes),
			"claimedPrizes":   a.Format(b.ClaimedPrizes),
		},
	}
}
