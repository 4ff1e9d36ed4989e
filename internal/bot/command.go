package bot

import (
	botApi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/maxaizer/tutor-bot/internal/logger"
	log "github.com/sirupsen/logrus"
)

type apiInterface interface {
	Send(chattable botApi.Chattable) (botApi.Message, error)
	Request(chattable botApi.Chattable) (*botApi.APIResponse, error)
}

const (
	startCommandName     = "start"
	materialsCommandName = "materials"
	adminCommandName     = "admin"
	cancelCommandName    = "cancel"
)

func sendWithLogError(api apiInterface, chattable botApi.Chattable) (botApi.Message, error) {
	msg, err := api.Send(chattable)
	if err != nil {
		log.WithField(logger.ErrorTypeField, logger.ErrorTypeTgApi).
			Errorf("error occured while sending message: %v", err)
	}
	return msg, err
}

// requestWithLogError is for calls whose result isn't a message: chat actions, callback answers.
func requestWithLogError(api apiInterface, chattable botApi.Chattable) {
	if _, err := api.Request(chattable); err != nil {
		log.WithField(logger.ErrorTypeField, logger.ErrorTypeTgApi).
			Warnf("error occured while sending request: %v", err)
	}
}
