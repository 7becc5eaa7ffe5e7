// internal/workers/scoring/index-crust-score/models.go
package indexcrustscore

import (
	"loan-intake-workers/internal/models"
	"loan-intake-workers/pkg/crustscore"
)

type Input struct {
	UserID string `json:"userId"`
	models.ScoreVariables
}

type Output struct {
	Indexed    bool   `json:"indexed"`
	DocumentID string `json:"documentId"`
	Result     string `json:"indexResult"` // created | updated
}

// ScoreDocument is the document stored per applicant; it follows
// database.ScoreIndexMapping.
type ScoreDocument struct {
	UserID      string            `json:"userId"`
	CrustScore  float64           `json:"crustScore"`
	Rating      crustscore.Rating `json:"rating"`
	Risk        crustscore.Risk   `json:"risk"`
	ScoringMode crustscore.Mode   `json:"scoringMode"`
	RedFlags    []string          `json:"redFlags"`
	HasRedFlags bool              `json:"hasRedFlags"`
	ScoredAt    string            `json:"scoredAt"`
}

type indexResponse struct {
	ID     string `json:"_id"`
	Result string `json:"result"`
}
