// Package rotation values a forestry rotation under a discounted-cash-flow
// model. All functions are pure: they never mutate their input and keep no
// state between calls.
package rotation

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"
)

// Validate checks the preconditions of Compute.
func Validate(entries []Entry, p Params) error {
	if p.RotationLength < 1 {
		return fmt.Errorf("%w: rotation length must be positive, got %d", ErrInvalidInput, p.RotationLength)
	}
	if !finite(p.InterestRate) || p.InterestRate <= -100 {
		return fmt.Errorf("%w: interest rate must be a finite percentage above -100, got %v", ErrInvalidInput, p.InterestRate)
	}
	if !nonNegative(p.FlatYearlyCost) || !nonNegative(p.FlatYearlyRevenue) {
		return fmt.Errorf("%w: flat yearly cost and revenue must be non-negative", ErrInvalidInput)
	}
	if len(entries) != p.RotationLength+1 {
		return fmt.Errorf("%w: expected %d rows for rotation length %d, got %d",
			ErrInvalidInput, p.RotationLength+1, p.RotationLength, len(entries))
	}
	for i, e := range entries {
		if e.T != i {
			return fmt.Errorf("%w: row %d has t=%d, years must run contiguously from 0", ErrInvalidInput, i, e.T)
		}
		if !nonNegative(e.Cost) || !nonNegative(e.Revenue) {
			return fmt.Errorf("%w: cost and revenue at t=%d must be non-negative", ErrInvalidInput, e.T)
		}
	}
	return nil
}

// Discount applies the flat yearly terms, discounts every year's cost and
// revenue to year 0 and accumulates the running NPV. FPV columns stay zero;
// they need a terminal year, which Compute selects.
func Discount(entries []Entry, p Params) ([]Row, error) {
	if err := Validate(entries, p); err != nil {
		return nil, err
	}

	growth := 1 + p.InterestRate/100
	rows := make([]Row, len(entries))
	npv := decimal.Zero

	for i, e := range entries {
		cost, revenue := totals(e, p)
		if !finite(cost) || !finite(revenue) {
			return nil, fmt.Errorf("%w: cost or revenue at t=%d overflows with the flat yearly terms", ErrInvalidInput, e.T)
		}

		factor := math.Pow(growth, float64(e.T))
		if factor == 0 {
			return nil, fmt.Errorf("%w: interest rate %v%% discounts t=%d to a zero factor", ErrInvalidInput, p.InterestRate, e.T)
		}
		if !finite(factor) {
			return nil, fmt.Errorf("%w: interest rate %v%% overflows the discount factor at t=%d", ErrDegenerateRate, p.InterestRate, e.T)
		}

		npvCost, err := money(cost/factor, "npv_cost", e.T)
		if err != nil {
			return nil, err
		}
		npvRevenue, err := money(revenue/factor, "npv_revenue", e.T)
		if err != nil {
			return nil, err
		}
		npv = npv.Add(npvRevenue).Sub(npvCost)
		if !finite(npv.InexactFloat64()) {
			return nil, fmt.Errorf("%w: cumulative npv overflows at t=%d", ErrDegenerateRate, e.T)
		}

		rows[i] = Row{
			Entry:      e,
			Result:     revenue - cost,
			NPVCost:    npvCost.InexactFloat64(),
			NPVRevenue: npvRevenue.InexactFloat64(),
			NPV:        npv.InexactFloat64(),
		}
	}

	return rows, nil
}

// TerminalYear returns the last year with a positive net result.
func TerminalYear(rows []Row) (int, error) {
	terminal := -1
	for _, r := range rows {
		if r.Result > 0 && r.T > terminal {
			terminal = r.T
		}
	}
	if terminal < 0 {
		return 0, fmt.Errorf("%w: every year of the rotation has a net result <= 0", ErrNoPositiveResultYears)
	}
	return terminal, nil
}

// Compute derives the full valuation table and its summary scalars.
//
// The rotation is treated as ending in its terminal year: FPV is compounded
// to that year and LEV = FPV / ((1+r)^terminal - 1).
func Compute(entries []Entry, p Params) (*Valuation, error) {
	rows, err := Discount(entries, p)
	if err != nil {
		return nil, err
	}

	growth := 1 + p.InterestRate/100
	if growth == 1 {
		return nil, fmt.Errorf("%w: interest rate %v%% makes every discount factor 1", ErrDegenerateRate, p.InterestRate)
	}

	terminal, err := TerminalYear(rows)
	if err != nil {
		return nil, err
	}

	denominator := math.Pow(growth, float64(terminal)) - 1
	if denominator == 0 || !finite(denominator) {
		return nil, fmt.Errorf("%w: interest rate %v%% over %d years gives a LEV denominator of %v",
			ErrDegenerateRate, p.InterestRate, terminal, denominator)
	}

	fpv := decimal.Zero
	for i := range rows {
		t := rows[i].T
		cost, revenue := totals(rows[i].Entry, p)
		factor := math.Pow(growth, float64(terminal-t))
		if !finite(factor) {
			return nil, fmt.Errorf("%w: interest rate %v%% overflows the compounding factor at t=%d", ErrDegenerateRate, p.InterestRate, t)
		}

		fpvCost, err := money(cost*factor, "fpv_cost", t)
		if err != nil {
			return nil, err
		}
		fpvRevenue, err := money(revenue*factor, "fpv_revenue", t)
		if err != nil {
			return nil, err
		}
		fpv = fpv.Add(fpvRevenue).Sub(fpvCost)
		if !finite(fpv.InexactFloat64()) {
			return nil, fmt.Errorf("%w: cumulative fpv overflows at t=%d", ErrDegenerateRate, t)
		}

		rows[i].FPVCost = fpvCost.InexactFloat64()
		rows[i].FPVRevenue = fpvRevenue.InexactFloat64()
		rows[i].FPV = fpv.InexactFloat64()
	}

	end := rows[terminal]
	lev := end.FPV / denominator
	if !finite(lev) {
		return nil, fmt.Errorf("%w: LEV overflows for interest rate %v%% over %d years", ErrDegenerateRate, p.InterestRate, terminal)
	}
	return &Valuation{
		Rows:         rows,
		TerminalYear: terminal,
		NPV:          end.NPV,
		FPV:          end.FPV,
		LEV:          lev,
	}, nil
}

// totals returns the year's cost and revenue including the flat yearly
// terms, which do not apply to the establishment year.
func totals(e Entry, p Params) (cost, revenue float64) {
	cost, revenue = e.Cost, e.Revenue
	if e.T >= 1 {
		cost += p.FlatYearlyCost
		revenue += p.FlatYearlyRevenue
	}
	return cost, revenue
}

// money rounds one year's amount to cents. decimal cannot hold NaN or
// infinities, so those are reported against the year instead.
func money(v float64, column string, t int) (decimal.Decimal, error) {
	if !finite(v) {
		return decimal.Zero, fmt.Errorf("%w: %s at t=%d is not a finite amount", ErrDegenerateRate, column, t)
	}
	return cents(v), nil
}

func cents(v float64) decimal.Decimal {
	return decimal.NewFromFloat(v).Round(2)
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func nonNegative(v float64) bool {
	return finite(v) && v >= 0
}
