package events

import (
	"github.com/maxaizer/tutor-bot/internal/domain/models"
)

var LeadCollectedTopic = "LeadCollectedEvent"

type LeadCollected struct {
	Lead models.Lead
}
