// internal/workers/scoring/notify-crust-score/models.go
package notifycrustscore

import (
	"loan-intake-workers/internal/models"
	"loan-intake-workers/pkg/crustscore"
)

type Input struct {
	UserID string `json:"userId"`
	models.ScoreVariables
}

type Output struct {
	NotificationID string `json:"notificationId"`
	Status         string `json:"status"` // "sent", "failed", "disabled"
	AlertPublished bool   `json:"alertPublished"`
	SentAt         string `json:"sentAt"` // ISO 8601
}

// Statuses
const (
	StatusSent     = "sent"
	StatusFailed   = "failed"
	StatusDisabled = "disabled"
)

// underwritingAlert is the SNS message body.
type underwritingAlert struct {
	UserID     string            `json:"userId"`
	CrustScore float64           `json:"crustScore"`
	Rating     crustscore.Rating `json:"rating"`
	Risk       crustscore.Risk   `json:"risk"`
	RedFlags   []string          `json:"redFlags"`
}
