package domain

import "github.com/shopspring/decimal"

// DeductionName identifies one of the configurable percentages.
type DeductionName string

const (
	DeductionCompanyCommission DeductionName = "company_commission"
	DeductionRiderFee          DeductionName = "rider_fee"
	DeductionDriverDeduction   DeductionName = "driver_deduction"
	DeductionTax               DeductionName = "tax"
)

// DeductionNames lists every known deduction in display order.
var DeductionNames = []DeductionName{
	DeductionCompanyCommission,
	DeductionRiderFee,
	DeductionDriverDeduction,
	DeductionTax,
}

// DeductionType is one operator-configured percentage.
type DeductionType struct {
	ID         int64
	Name       DeductionName
	DefaultPct decimal.Decimal
	Version    int64
}

// PolicySnapshot holds the base percentages used for one pricing call.
type PolicySnapshot struct {
	CompanyCommissionPct decimal.Decimal `json:"company_commission_pct"`
	RiderFeePct          decimal.Decimal `json:"rider_fee_pct"`
	DriverDeductionPct   decimal.Decimal `json:"driver_deduction_pct"`
	TaxPct               decimal.Decimal `json:"tax_pct"`
	Version              int64           `json:"version"`
}

// DefaultPolicy returns the fallback percentages.
func DefaultPolicy() PolicySnapshot {
	return PolicySnapshot{
		CompanyCommissionPct: decimal.RequireFromString("20.00"),
		RiderFeePct:          decimal.RequireFromString("3.00"),
		DriverDeductionPct:   decimal.RequireFromString("5.00"),
		TaxPct:               decimal.RequireFromString("8.25"),
	}
}

// PolicyFromTypes builds a snapshot from configured rows, falling back to
// DefaultPolicy for any name that has no row. Every row update bumps its
// version, so the summed version changes whenever any percentage does.
func PolicyFromTypes(types []*DeductionType) PolicySnapshot {
	p := DefaultPolicy()
	for _, t := range types {
		switch t.Name {
		case DeductionCompanyCommission:
			p.CompanyCommissionPct = t.DefaultPct
		case DeductionRiderFee:
			p.RiderFeePct = t.DefaultPct
		case DeductionDriverDeduction:
			p.DriverDeductionPct = t.DefaultPct
		case DeductionTax:
			p.TaxPct = t.DefaultPct
		default:
			continue
		}
		p.Version += t.Version
	}
	return p
}
