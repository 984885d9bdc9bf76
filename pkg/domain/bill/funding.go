package bill

import (
	"fmt"

	"github.com/amirasaad/smartledger/pkg/money"
)

// FundingPlan says how much of a bill comes from each bucket.
type FundingPlan struct {
	FromBills money.Money
	FromMain  money.Money
}

// Total is FromBills + FromMain.
func (p FundingPlan) Total() money.Money {
	total, _ := p.FromBills.Add(p.FromMain)
	return total
}

// PlanFunding draws from the bills bucket first and main for the remainder.
// Negative balances count as empty.
func PlanFunding(amount, billsBalance, mainBalance money.Money) (FundingPlan, error) {
	zero := money.Zero(amount.Currency())
	if billsBalance.IsNegative() {
		billsBalance = zero
	}
	if mainBalance.IsNegative() {
		mainBalance = zero
	}

	fromBills, err := amount.Min(billsBalance)
	if err != nil {
		return FundingPlan{}, err
	}
	remainder, err := amount.Sub(fromBills)
	if err != nil {
		return FundingPlan{}, err
	}
	c, err := remainder.Cmp(mainBalance)
	if err != nil {
		return FundingPlan{}, err
	}
	if c > 0 {
		return FundingPlan{}, fmt.Errorf(
			"%w: need %s, bills %s, main %s",
			ErrInsufficientFunds, amount, billsBalance, mainBalance,
		)
	}
	return FundingPlan{FromBills: fromBills, FromMain: remainder}, nil
}
