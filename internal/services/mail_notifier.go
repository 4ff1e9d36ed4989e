package services

import (
	"errors"
	"github.com/asaskevich/EventBus"
	"github.com/maxaizer/tutor-bot/internal/domain/events"
	"github.com/maxaizer/tutor-bot/internal/logger"
	log "github.com/sirupsen/logrus"
	"gopkg.in/gomail.v2"
)

type mailDialer interface {
	DialAndSend(m ...*gomail.Message) error
}

// MailNotifier e-mails a copy of every collected lead. Sending happens asynchronously on the bus.
type MailNotifier struct {
	dialer mailDialer
	from   string
	to     []string
}

func NewMailNotifier(bus EventBus.Bus, dialer mailDialer, from string, to []string) (*MailNotifier, error) {
	if len(to) == 0 {
		return nil, errors.New("no mail recipients")
	}

	n := &MailNotifier{dialer: dialer, from: from, to: to}
	if err := bus.SubscribeAsync(events.LeadCollectedTopic, n.onLeadCollected, true); err != nil {
		return nil, err
	}
	return n, nil
}

func (n *MailNotifier) onLeadCollected(event events.LeadCollected) {
	msg := gomail.NewMessage()
	msg.SetHeader("From", n.from)
	msg.SetHeader("To", n.to...)
	msg.SetHeader("Subject", "Новая заявка: "+string(event.Lead.Subject))
	msg.SetBody("text/plain", LeadSummary(event.Lead))

	if err := n.dialer.DialAndSend(msg); err != nil {
		log.WithField(logger.ErrorTypeField, logger.ErrorTypeMail).
			Errorf("couldn't e-mail lead of user %d: %v", event.Lead.UserID, err)
	}
}
