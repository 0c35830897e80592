// Package finance holds simple-interest formulas. Rates are percent values:
// 10.5 means 10.5%. All arithmetic is exact decimal arithmetic.
package finance

import (
	"fmt"

	"github.com/aevon-lab/easymoney/internal/core/daycount"
	coreerr "github.com/aevon-lab/easymoney/internal/core/errors"
	"github.com/shopspring/decimal"
)

// DivisionPrecision is the number of decimal places kept by divisions.
const DivisionPrecision int32 = 16

var hundred = decimal.NewFromInt(100)

// FutureValue returns pv grown by simple interest at rate ir: pv + pv*ir/100.
func FutureValue(pv, ir decimal.Decimal) decimal.Decimal {
	return pv.Add(Interest(pv, ir))
}

// Interest returns the simple interest earned on pv at rate ir.
func Interest(pv, ir decimal.Decimal) decimal.Decimal {
	return pv.Mul(ir).Div(hundred)
}

// InterestFromFutureValue returns the interest implied by a present and future value.
func InterestFromFutureValue(pv, fv decimal.Decimal) decimal.Decimal {
	return fv.Sub(pv)
}

// Rate returns the simple interest rate, in percent, that grows pv into fv.
func Rate(pv, fv decimal.Decimal) (decimal.Decimal, error) {
	if pv.IsZero() {
		return decimal.Zero, fmt.Errorf("IRSIMPLE: %w: present value is zero", coreerr.ErrDivisionByZero)
	}
	return hundred.Mul(fv.Sub(pv)).DivRound(pv, DivisionPrecision), nil
}

// PresentValue returns fv less the interest i.
func PresentValue(fv, i decimal.Decimal) decimal.Decimal {
	return fv.Sub(i)
}

// PresentValueFromRate discounts fv at simple rate ir: 100*fv/(100+ir).
func PresentValueFromRate(fv, ir decimal.Decimal) (decimal.Decimal, error) {
	denom := hundred.Add(ir)
	if denom.IsZero() {
		return decimal.Zero, fmt.Errorf("PVSIMPLEFROMIR: %w: rate is -100%%", coreerr.ErrDivisionByZero)
	}
	return hundred.Mul(fv).DivRound(denom, DivisionPrecision), nil
}

// AdjustedFutureValue prorates simple interest over days out of a
// daysInYear-day year: pv + pv*ir*days/(100*daysInYear).
func AdjustedFutureValue(pv, ir decimal.Decimal, days, daysInYear int64) (decimal.Decimal, error) {
	if daysInYear == 0 {
		return decimal.Zero, fmt.Errorf("FVADJUSTED: %w: days in year is zero", coreerr.ErrDivisionByZero)
	}
	accrued := pv.Mul(ir).Mul(decimal.NewFromInt(days)).
		DivRound(hundred.Mul(decimal.NewFromInt(daysInYear)), DivisionPrecision)
	return pv.Add(accrued), nil
}

// FutureValue360 accrues simple interest from start to end counted under the
// 30/360 convention. ok is false when either date is undefined.
func FutureValue360(pv, ir decimal.Decimal, start, end daycount.Date) (fv decimal.Decimal, ok bool) {
	days, ok := daycount.Days360(start, end)
	if !ok {
		return decimal.Zero, false
	}
	fv, err := AdjustedFutureValue(pv, ir, int64(days), 360)
	if err != nil {
		return decimal.Zero, false
	}
	return fv, true
}
