// Package crustscore computes the Crust Score: a weighted 0-10 creditworthiness
// score for a development-loan application, its rating band and risk level.
//
// Scores are computed in one of two modes. Direct mode takes eleven
// pre-computed sub-scores (A1..C3). Raw mode takes the application's
// financial and legal fields, validates them, detects red flags and maps them
// onto sub-scores through ordered bucket rules. The two modes round and shape
// their results differently; both shapes are kept as they are consumed by
// existing callers.
//
// Every function in this package is pure and safe for concurrent use.
package crustscore

// Mode identifies which calling convention produced a Result.
type Mode string

const (
	ModeDirect Mode = "direct"
	ModeRaw    Mode = "raw"
)

// Rating is the letter band assigned to a composite score.
type Rating string

const (
	RatingAPlus Rating = "A+"
	RatingA     Rating = "A"
	RatingBPlus Rating = "B+"
	RatingB     Rating = "B"
	RatingC     Rating = "C"
	RatingD     Rating = "D"
)

// Risk is the risk level paired with a Rating.
type Risk string

const (
	RiskVeryLow  Risk = "Very Low"
	RiskLow      Risk = "Low"
	RiskModerate Risk = "Moderate"
	RiskElevated Risk = "Elevated"
	RiskHigh     Risk = "High"
	RiskVeryHigh Risk = "Very High"
)

// SubScores holds the eleven component scores. In raw mode each value is one
// of 2, 3, 5, 8 or 10; in direct mode values are whatever the caller sent.
type SubScores struct {
	A1 float64 `json:"A1"`
	A2 float64 `json:"A2"`
	A3 float64 `json:"A3"`
	B1 float64 `json:"B1"`
	B2 float64 `json:"B2"`
	B3 float64 `json:"B3"`
	B4 float64 `json:"B4"`
	B5 float64 `json:"B5"`
	C1 float64 `json:"C1"`
	C2 float64 `json:"C2"`
	C3 float64 `json:"C3"`
}

// RawInputs are the application fields scored in raw mode. Enumerated fields
// are kept as free strings: a value outside the documented set simply fails
// to match any rule that tests for it.
type RawInputs struct {
	TitleClarity             string  `json:"title_clarity"`        // clean | encumbered | disputed
	ApprovalsComplete        string  `json:"approvals_complete"`   // yes | partial | no
	LocationTier             string  `json:"location_tier"`        // Tier-1 | Tier-2 | other
	InfraDistanceKm          float64 `json:"infra_distance_km"`
	AbsorptionRate           float64 `json:"absorption_rate"`
	MarketDemand             string  `json:"market_demand"` // high | other
	CibilScore               float64 `json:"cibil_score"`
	CommercialScore          float64 `json:"commercial_score"`
	NetWorthCr               float64 `json:"net_worth_cr"`
	DebtEquityRatio          float64 `json:"debt_equity_ratio"`
	PATMargin                float64 `json:"pat_margin"`
	Defaults                 float64 `json:"defaults"`
	DPDDays                  float64 `json:"dpd_days"`
	UnitPricingCr            float64 `json:"unit_pricing_cr"`
	ProjectedCashflowCr      float64 `json:"projected_cashflow_cr"`
	LoanObligationCr         float64 `json:"loan_obligation_cr"`
	CashReservesCr           float64 `json:"cash_reserves_cr"`
	Escrow                   string  `json:"escrow"`           // yes | no
	FinancialCrimes          string  `json:"financial_crimes"` // yes | no
	DeveloperContributionPct float64 `json:"developer_contribution_pct"`
	ProjectCostCr            float64 `json:"project_cost_cr"` // required, not scored

	// Set when defaults or dpd_days was not a number (null, a string, a
	// boolean). The value still takes part in range comparisons but never
	// counts as zero in the clean-history rule.
	DefaultsNonNumeric bool `json:"-"`
	DPDDaysNonNumeric  bool `json:"-"`
}

// SectionScores are the unrounded means of each sub-score group.
type SectionScores struct {
	Asset     float64
	Behaviour float64
	Cashflow  float64
}

// Input is a scoring request in exactly one of the two modes. Build it with
// FromSubScores or FromRawInputs, or decode it from a flat record with
// ParseInput.
type Input struct {
	mode      Mode
	subScores SubScores
	raw       RawInputs
}

// FromSubScores builds a direct-mode Input.
func FromSubScores(s SubScores) Input {
	return Input{mode: ModeDirect, subScores: s}
}

// FromRawInputs builds a raw-mode Input.
func FromRawInputs(r RawInputs) Input {
	return Input{mode: ModeRaw, raw: r}
}

// Mode reports which convention the Input uses.
func (in Input) Mode() Mode {
	return in.mode
}

// SubScores returns the direct-mode sub-scores and true, or false for raw mode.
func (in Input) SubScores() (SubScores, bool) {
	return in.subScores, in.mode == ModeDirect
}

// RawInputs returns the raw-mode fields and true, or false for direct mode.
func (in Input) RawInputs() (RawInputs, bool) {
	return in.raw, in.mode == ModeRaw
}
