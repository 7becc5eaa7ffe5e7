// internal/workers/scoring/persist-crust-score/config.go
package persistcrustscore

import (
	"time"

	"loan-intake-workers/internal/common/config"
)

type Config struct {
	Timeout time.Duration
}

func NewConfig(app *config.Config) *Config {
	return &Config{
		Timeout: config.GetDuration(config.GetWorkerConfig(app, TaskType).Timeout),
	}
}
