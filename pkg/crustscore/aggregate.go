package crustscore

// AssetScore is the mean of A1..A3.
func AssetScore(s SubScores) float64 {
	return (s.A1 + s.A2 + s.A3) / 3
}

// BehaviourScore is the mean of B1..B5.
func BehaviourScore(s SubScores) float64 {
	return (s.B1 + s.B2 + s.B3 + s.B4 + s.B5) / 5
}

// CashflowScore is the mean of C1..C3.
func CashflowScore(s SubScores) float64 {
	return (s.C1 + s.C2 + s.C3) / 3
}

// Sections aggregates sub-scores without rounding.
func Sections(s SubScores) SectionScores {
	return SectionScores{
		Asset:     AssetScore(s),
		Behaviour: BehaviourScore(s),
		Cashflow:  CashflowScore(s),
	}
}
