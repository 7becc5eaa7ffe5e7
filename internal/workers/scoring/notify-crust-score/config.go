// internal/workers/scoring/notify-crust-score/config.go
package notifycrustscore

import (
	"time"

	"loan-intake-workers/internal/common/config"
)

type Config struct {
	EmailEnabled  bool
	FromEmail     string
	AlertsEnabled bool
	TopicARN      string
	Timeout       time.Duration
}

func NewConfig(app *config.Config) *Config {
	n := app.Notifications
	return &Config{
		EmailEnabled:  n.Email.Enabled,
		FromEmail:     n.Email.FromEmail,
		AlertsEnabled: n.Alerts.Enabled,
		TopicARN:      n.Alerts.TopicARN,
		Timeout:       config.GetDuration(config.GetWorkerConfig(app, TaskType).Timeout),
	}
}
