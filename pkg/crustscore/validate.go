package crustscore

// Raw-mode field names.
const (
	FieldTitleClarity             = "title_clarity"
	FieldApprovalsComplete        = "approvals_complete"
	FieldLocationTier             = "location_tier"
	FieldInfraDistanceKm          = "infra_distance_km"
	FieldAbsorptionRate           = "absorption_rate"
	FieldMarketDemand             = "market_demand"
	FieldCibilScore               = "cibil_score"
	FieldCommercialScore          = "commercial_score"
	FieldNetWorthCr               = "net_worth_cr"
	FieldDebtEquityRatio          = "debt_equity_ratio"
	FieldPATMargin                = "pat_margin"
	FieldDefaults                 = "defaults"
	FieldDPDDays                  = "dpd_days"
	FieldUnitPricingCr            = "unit_pricing_cr"
	FieldProjectedCashflowCr      = "projected_cashflow_cr"
	FieldLoanObligationCr         = "loan_obligation_cr"
	FieldCashReservesCr           = "cash_reserves_cr"
	FieldEscrow                   = "escrow"
	FieldFinancialCrimes          = "financial_crimes"
	FieldDeveloperContributionPct = "developer_contribution_pct"
	FieldProjectCostCr            = "project_cost_cr"
)

// RequiredFields lists the raw-mode keys in the order they are checked.
var RequiredFields = []string{
	FieldTitleClarity,
	FieldApprovalsComplete,
	FieldLocationTier,
	FieldInfraDistanceKm,
	FieldAbsorptionRate,
	FieldMarketDemand,
	FieldCibilScore,
	FieldCommercialScore,
	FieldNetWorthCr,
	FieldDebtEquityRatio,
	FieldPATMargin,
	FieldDefaults,
	FieldDPDDays,
	FieldUnitPricingCr,
	FieldProjectedCashflowCr,
	FieldLoanObligationCr,
	FieldCashReservesCr,
	FieldEscrow,
	FieldFinancialCrimes,
	FieldDeveloperContributionPct,
	FieldProjectCostCr,
}

// CheckRequired returns a MissingFieldError for the first key of
// RequiredFields absent from fields. Presence is what counts: zero values,
// empty strings and nulls are all present.
func CheckRequired(fields map[string]interface{}) error {
	for _, key := range RequiredFields {
		if _, ok := fields[key]; !ok {
			return &MissingFieldError{Field: key}
		}
	}
	return nil
}

// Validate range-checks the three bounded raw-mode fields and returns the
// first violation. Other fields are not range-checked. NaN values compare
// false against both bounds and therefore pass.
func (r RawInputs) Validate() error {
	if r.CibilScore < 300 || r.CibilScore > 900 {
		return &RangeError{Field: FieldCibilScore, Min: 300, Max: 900, Value: r.CibilScore}
	}
	if r.AbsorptionRate < 0 || r.AbsorptionRate > 1 {
		return &RangeError{Field: FieldAbsorptionRate, Min: 0, Max: 1, Value: r.AbsorptionRate}
	}
	if r.DeveloperContributionPct < 0 || r.DeveloperContributionPct > 1 {
		return &RangeError{Field: FieldDeveloperContributionPct, Min: 0, Max: 1, Value: r.DeveloperContributionPct}
	}
	return nil
}
