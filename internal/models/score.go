// internal/models/score.go
package models

import (
	"time"

	"loan-intake-workers/pkg/crustscore"
)

// ScoreSummary is the score kept on the applicant row and in the cache.
type ScoreSummary struct {
	UserID     string            `json:"userId"`
	CrustScore float64           `json:"crustScore"`
	Rating     crustscore.Rating `json:"rating"`
	Risk       crustscore.Risk   `json:"risk"`
}

// ScoreRecord is one row of crust_score_history.
type ScoreRecord struct {
	ID              string                `json:"id"`
	UserID          string                `json:"userId"`
	Mode            crustscore.Mode       `json:"scoringMode"`
	CompositeScore  float64               `json:"crustScore"`
	Rating          crustscore.Rating     `json:"rating"`
	Risk            crustscore.Risk       `json:"risk"`
	AssetScore      float64               `json:"assetScore"`
	BehaviourScore  float64               `json:"behaviourScore"`
	CashflowScore   float64               `json:"cashflowScore"`
	RedFlags        []string              `json:"redFlags"`
	ComponentScores *crustscore.SubScores `json:"componentScores,omitempty"`
	CreatedAt       time.Time             `json:"createdAt"`
}

// NewScoreRecord copies result into a history record for userID.
func NewScoreRecord(id, userID string, result *crustscore.Result, createdAt time.Time) *ScoreRecord {
	flags := result.RedFlags
	if flags == nil {
		flags = []string{}
	}
	return &ScoreRecord{
		ID:              id,
		UserID:          userID,
		Mode:            result.Mode,
		CompositeScore:  result.CompositeScore,
		Rating:          result.Rating,
		Risk:            result.Risk,
		AssetScore:      result.AScore,
		BehaviourScore:  result.BScore,
		CashflowScore:   result.CScore,
		RedFlags:        flags,
		ComponentScores: result.ComponentScores,
		CreatedAt:       createdAt,
	}
}

// Summary returns the applicant-level view of the record.
func (r *ScoreRecord) Summary() *ScoreSummary {
	return &ScoreSummary{
		UserID:     r.UserID,
		CrustScore: r.CompositeScore,
		Rating:     r.Rating,
		Risk:       r.Risk,
	}
}

// ScoreVariables are the process variables a calculated score travels in
// between service tasks.
type ScoreVariables struct {
	CrustScore      float64               `json:"crustScore"`
	Rating          crustscore.Rating     `json:"rating"`
	Risk            crustscore.Risk       `json:"risk"`
	AssetScore      float64               `json:"assetScore"`
	BehaviourScore  float64               `json:"behaviourScore"`
	CashflowScore   float64               `json:"cashflowScore"`
	ScoringMode     crustscore.Mode       `json:"scoringMode"`
	RedFlags        []string              `json:"redFlags"`
	ComponentScores *crustscore.SubScores `json:"componentScores,omitempty"`
	HasRedFlags     bool                  `json:"hasRedFlags"`
}

func NewScoreVariables(result *crustscore.Result) ScoreVariables {
	flags := result.RedFlags
	if flags == nil {
		flags = []string{}
	}
	return ScoreVariables{
		CrustScore:      result.CompositeScore,
		Rating:          result.Rating,
		Risk:            result.Risk,
		AssetScore:      result.AScore,
		BehaviourScore:  result.BScore,
		CashflowScore:   result.CScore,
		ScoringMode:     result.Mode,
		RedFlags:        flags,
		ComponentScores: result.ComponentScores,
		HasRedFlags:     len(flags) > 0,
	}
}

// Result rebuilds the engine result. Without a scoringMode the mode is raw
// when component scores are present and direct otherwise.
func (v ScoreVariables) Result() *crustscore.Result {
	mode := v.ScoringMode
	if mode == "" {
		mode = crustscore.ModeDirect
		if v.ComponentScores != nil {
			mode = crustscore.ModeRaw
		}
	}
	return &crustscore.Result{
		Mode:            mode,
		CompositeScore:  v.CrustScore,
		Rating:          v.Rating,
		Risk:            v.Risk,
		AScore:          v.AssetScore,
		BScore:          v.BehaviourScore,
		CScore:          v.CashflowScore,
		RedFlags:        v.RedFlags,
		ComponentScores: v.ComponentScores,
	}
}
