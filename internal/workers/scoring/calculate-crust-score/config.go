// internal/workers/scoring/calculate-crust-score/config.go
package calculatecrustscore

import (
	"time"

	"loan-intake-workers/internal/common/config"
)

type Config struct {
	Timeout time.Duration
}

func NewConfig(app *config.Config) *Config {
	wc := config.GetWorkerConfig(app, TaskType)
	return &Config{
		Timeout: config.GetDuration(wc.Timeout),
	}
}
