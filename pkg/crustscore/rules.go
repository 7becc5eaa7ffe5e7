package crustscore

// rule awards score when its predicate holds.
type rule struct {
	when  func(RawInputs) bool
	score float64
}

// ruleTable maps raw inputs onto one sub-score. Rules are tried top-down and
// the first match wins; fallback applies when none match.
type ruleTable struct {
	key      string
	field    func(*SubScores) *float64
	rules    []rule
	fallback float64
}

func (t ruleTable) evaluate(r RawInputs) float64 {
	for _, ru := range t.rules {
		if ru.when(r) {
			return ru.score
		}
	}
	return t.fallback
}

// RepaymentRatio is projected cashflow over loan obligation, or 0 when there
// is no obligation.
func RepaymentRatio(r RawInputs) float64 {
	if r.LoanObligationCr > 0 {
		return r.ProjectedCashflowCr / r.LoanObligationCr
	}
	return 0
}

var subScoreTables = []ruleTable{
	{
		key:   "A1", // pre-development value
		field: func(s *SubScores) *float64 { return &s.A1 },
		rules: []rule{
			{func(r RawInputs) bool { return r.TitleClarity == "clean" && r.ApprovalsComplete == "yes" }, 10},
			{func(r RawInputs) bool { return r.TitleClarity == "clean" && r.ApprovalsComplete == "partial" }, 8},
			{func(r RawInputs) bool { return r.TitleClarity == "encumbered" }, 5},
		},
		fallback: 2,
	},
	{
		key:   "A2", // site potential
		field: func(s *SubScores) *float64 { return &s.A2 },
		rules: []rule{
			{func(r RawInputs) bool { return r.LocationTier == "Tier-1" && r.InfraDistanceKm < 2 }, 10},
			{func(r RawInputs) bool {
				return (r.LocationTier == "Tier-1" || r.LocationTier == "Tier-2") && r.InfraDistanceKm < 5
			}, 8},
			{func(r RawInputs) bool { return r.LocationTier == "Tier-2" }, 5},
		},
		fallback: 3,
	},
	{
		key:   "A3", // post-development value
		field: func(s *SubScores) *float64 { return &s.A3 },
		rules: []rule{
			{func(r RawInputs) bool { return r.AbsorptionRate > 0.8 && r.MarketDemand == "high" }, 10},
			{func(r RawInputs) bool { return r.AbsorptionRate > 0.6 }, 8},
			{func(r RawInputs) bool { return r.AbsorptionRate > 0.4 }, 5},
		},
		fallback: 3,
	},
	{
		key:   "B1", // personal credit
		field: func(s *SubScores) *float64 { return &s.B1 },
		rules: []rule{
			{func(r RawInputs) bool { return r.CibilScore >= 750 }, 10},
			{func(r RawInputs) bool { return r.CibilScore >= 700 }, 8},
			{func(r RawInputs) bool { return r.CibilScore >= 650 }, 5},
		},
		fallback: 2,
	},
	{
		key:   "B2", // commercial credit
		field: func(s *SubScores) *float64 { return &s.B2 },
		rules: []rule{
			{func(r RawInputs) bool { return r.CommercialScore >= 750 }, 10},
			{func(r RawInputs) bool { return r.CommercialScore >= 700 }, 8},
			{func(r RawInputs) bool { return r.CommercialScore >= 650 }, 5},
		},
		fallback: 2,
	},
	{
		key:   "B3", // personal financials
		field: func(s *SubScores) *float64 { return &s.B3 },
		rules: []rule{
			{func(r RawInputs) bool { return r.NetWorthCr > 5 }, 10},
			{func(r RawInputs) bool { return r.NetWorthCr >= 2 }, 8},
			{func(r RawInputs) bool { return r.NetWorthCr >= 0 }, 5},
		},
		fallback: 3,
	},
	{
		key:   "B4", // corporate financials
		field: func(s *SubScores) *float64 { return &s.B4 },
		rules: []rule{
			{func(r RawInputs) bool { return r.DebtEquityRatio < 1.5 && r.PATMargin > 0.10 }, 10},
			{func(r RawInputs) bool { return r.DebtEquityRatio < 2.0 && r.PATMargin > 0.05 }, 8},
			{func(r RawInputs) bool { return r.DebtEquityRatio < 3.0 }, 5},
		},
		fallback: 3,
	},
	{
		key:   "B5", // repayment history
		field: func(s *SubScores) *float64 { return &s.B5 },
		rules: []rule{
			{func(r RawInputs) bool { return cleanHistory(r) && r.FinancialCrimes == "no" }, 10},
			{func(r RawInputs) bool { return r.DPDDays <= 30 }, 8},
			{func(r RawInputs) bool { return r.DPDDays <= 60 }, 5},
		},
		fallback: 3,
	},
	{
		key:   "C1", // projected revenue
		field: func(s *SubScores) *float64 { return &s.C1 },
		rules: []rule{
			{func(r RawInputs) bool { return r.AbsorptionRate > 0.8 && r.UnitPricingCr > 0.1 }, 10},
			{func(r RawInputs) bool { return r.AbsorptionRate > 0.6 }, 8},
			{func(r RawInputs) bool { return r.AbsorptionRate > 0.4 }, 5},
		},
		fallback: 3,
	},
	{
		key:   "C2", // repayment coverage
		field: func(s *SubScores) *float64 { return &s.C2 },
		rules: []rule{
			{func(r RawInputs) bool { return RepaymentRatio(r) > 2.0 }, 10},
			{func(r RawInputs) bool { return RepaymentRatio(r) >= 1.5 }, 8},
			{func(r RawInputs) bool { return RepaymentRatio(r) >= 1.0 }, 5},
		},
		fallback: 2,
	},
	{
		key:   "C3", // liquidity buffer
		field: func(s *SubScores) *float64 { return &s.C3 },
		rules: []rule{
			{func(r RawInputs) bool { return r.CashReservesCr > 0.5 && r.Escrow == "yes" }, 10},
			{func(r RawInputs) bool { return r.CashReservesCr > 0.2 }, 8},
			{func(r RawInputs) bool { return r.CashReservesCr > 0.1 }, 5},
		},
		fallback: 3,
	},
}

// cleanHistory reports zero defaults and zero days past due. Only numeric
// zeros count; null or "0" does not.
func cleanHistory(r RawInputs) bool {
	return !r.DefaultsNonNumeric && r.Defaults == 0 &&
		!r.DPDDaysNonNumeric && r.DPDDays == 0
}

// MapSubScores converts validated raw inputs into the eleven sub-scores.
func MapSubScores(r RawInputs) SubScores {
	var s SubScores
	for _, t := range subScoreTables {
		*t.field(&s) = t.evaluate(r)
	}
	return s
}

// SubScoreFor evaluates a single sub-score by key (A1..C3). The boolean is
// false for an unknown key.
func SubScoreFor(key string, r RawInputs) (float64, bool) {
	for _, t := range subScoreTables {
		if t.key == key {
			return t.evaluate(r), true
		}
	}
	return 0, false
}
