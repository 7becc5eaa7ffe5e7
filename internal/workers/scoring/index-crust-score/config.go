// internal/workers/scoring/index-crust-score/config.go
package indexcrustscore

import (
	"time"

	"loan-intake-workers/internal/common/config"
)

type Config struct {
	IndexName string
	Timeout   time.Duration
}

func NewConfig(app *config.Config) *Config {
	return &Config{
		IndexName: app.Scoring.IndexName,
		Timeout:   config.GetDuration(config.GetWorkerConfig(app, TaskType).Timeout),
	}
}
