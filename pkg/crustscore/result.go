package crustscore

import "encoding/json"

// Result is the outcome of one scoring call.
//
// The JSON shape depends on Mode. Direct results carry "success": true and
// section scores rounded to one decimal. Raw results carry "redFlags" and
// "componentScores" instead, with unrounded section scores.
type Result struct {
	Mode           Mode
	CompositeScore float64
	Rating         Rating
	Risk           Risk
	AScore         float64
	BScore         float64
	CScore         float64

	// Raw mode only.
	RedFlags        []string
	ComponentScores *SubScores
}

// HasRedFlags reports whether the score was forced to zero by a red flag.
func (r *Result) HasRedFlags() bool {
	return len(r.RedFlags) > 0
}

type directResultJSON struct {
	Success        bool    `json:"success"`
	CompositeScore float64 `json:"compositeScore"`
	Rating         Rating  `json:"rating"`
	Risk           Risk    `json:"risk"`
	AScore         float64 `json:"aScore"`
	BScore         float64 `json:"bScore"`
	CScore         float64 `json:"cScore"`
}

type rawResultJSON struct {
	CompositeScore  float64    `json:"compositeScore"`
	Rating          Rating     `json:"rating"`
	Risk            Risk       `json:"risk"`
	RedFlags        []string   `json:"redFlags"`
	AScore          float64    `json:"aScore"`
	BScore          float64    `json:"bScore"`
	CScore          float64    `json:"cScore"`
	ComponentScores *SubScores `json:"componentScores"`
}

func (r Result) MarshalJSON() ([]byte, error) {
	if r.Mode == ModeDirect {
		return json.Marshal(directResultJSON{
			Success:        true,
			CompositeScore: r.CompositeScore,
			Rating:         r.Rating,
			Risk:           r.Risk,
			AScore:         r.AScore,
			BScore:         r.BScore,
			CScore:         r.CScore,
		})
	}

	flags := r.RedFlags
	if flags == nil {
		flags = []string{}
	}
	return json.Marshal(rawResultJSON{
		CompositeScore:  r.CompositeScore,
		Rating:          r.Rating,
		Risk:            r.Risk,
		RedFlags:        flags,
		AScore:          r.AScore,
		BScore:          r.BScore,
		CScore:          r.CScore,
		ComponentScores: r.ComponentScores,
	})
}
