// internal/workers/scoring/persist-crust-score/models.go
package persistcrustscore

import "loan-intake-workers/internal/models"

type Input struct {
	UserID string `json:"userId"`
	models.ScoreVariables
}

type Output struct {
	ScoreRecordID string `json:"scoreRecordId"`
	PersistedAt   string `json:"persistedAt"` // RFC 3339
}
