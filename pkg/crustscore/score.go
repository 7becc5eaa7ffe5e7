package crustscore

// Section weights of the composite score.
const (
	AssetWeight     = 0.35
	BehaviourWeight = 0.40
	CashflowWeight  = 0.25
)

// MinScore and MaxScore bound every composite score.
const (
	MinScore = 0.0
	MaxScore = 10.0
)

type band struct {
	min    float64
	rating Rating
	risk   Risk
}

// bands are checked top-down; anything below the last band is D.
var bands = []band{
	{9.0, RatingAPlus, RiskVeryLow},
	{8.0, RatingA, RiskLow},
	{7.0, RatingBPlus, RiskModerate},
	{6.0, RatingB, RiskElevated},
	{5.0, RatingC, RiskHigh},
}

// Classify maps a composite score onto its rating and risk.
func Classify(composite float64) (Rating, Risk) {
	for _, b := range bands {
		if composite >= b.min {
			return b.rating, b.risk
		}
	}
	return RatingD, RiskVeryHigh
}

// Composite weights section scores into the 0-10 composite, unclamped.
func Composite(s SectionScores) float64 {
	return s.Asset*AssetWeight + s.Behaviour*BehaviourWeight + s.Cashflow*CashflowWeight
}

// clamp bounds v to [MinScore, MaxScore]. NaN is returned unchanged.
func clamp(v float64) float64 {
	if v < MinScore {
		return MinScore
	}
	if v > MaxScore {
		return MaxScore
	}
	return v
}

// ScoreFromSubscores scores caller-supplied sub-scores. Nothing is validated
// and red flags are not checked. The composite and section scores are
// rounded to one decimal.
func ScoreFromSubscores(s SubScores) *Result {
	sections := Sections(s)
	composite := roundFixed(clamp(Composite(sections)), 1)
	rating, risk := Classify(composite)

	return &Result{
		Mode:           ModeDirect,
		CompositeScore: composite,
		Rating:         rating,
		Risk:           risk,
		AScore:         roundFixed(sections.Asset, 1),
		BScore:         roundFixed(sections.Behaviour, 1),
		CScore:         roundFixed(sections.Cashflow, 1),
	}
}

// ScoreFromRawInputs validates r, maps it onto sub-scores and scores them.
// The composite is rounded to two decimals; section scores are not rounded.
// Any red flag forces the result to 0 / D / Very High while the component
// scores still reflect the mapped values.
func ScoreFromRawInputs(r RawInputs) (*Result, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}

	flags := DetectRedFlags(r)
	subs := MapSubScores(r)
	sections := Sections(subs)

	composite := round2(clamp(Composite(sections)))
	rating, risk := Classify(composite)
	if len(flags) > 0 {
		composite = 0
		rating, risk = RatingD, RiskVeryHigh
	}

	return &Result{
		Mode:            ModeRaw,
		CompositeScore:  composite,
		Rating:          rating,
		Risk:            risk,
		AScore:          sections.Asset,
		BScore:          sections.Behaviour,
		CScore:          sections.Cashflow,
		RedFlags:        flags,
		ComponentScores: &subs,
	}, nil
}

// Score dispatches on the mode of in.
func Score(in Input) (*Result, error) {
	if s, ok := in.SubScores(); ok {
		return ScoreFromSubscores(s), nil
	}
	r, _ := in.RawInputs()
	return ScoreFromRawInputs(r)
}
