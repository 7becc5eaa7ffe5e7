// internal/workers/scoring/calculate-crust-score/models.go
package calculatecrustscore

import "loan-intake-workers/internal/models"

// Input carries the flat scoring record under scoreInputs. The record is
// either the eleven direct sub-scores (a1..c3) or the raw application fields.
type Input struct {
	UserID      string                 `json:"userId"`
	ScoreInputs map[string]interface{} `json:"scoreInputs"`
}

type Output struct {
	models.ScoreVariables
}
