package services

import (
	"context"
	"errors"
	"github.com/asaskevich/EventBus"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/maxaizer/tutor-bot/internal/domain/events"
	"github.com/maxaizer/tutor-bot/internal/domain/models"
	"github.com/maxaizer/tutor-bot/internal/logger"
	log "github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

type messageSender interface {
	Send(chattable tgbotapi.Chattable) (tgbotapi.Message, error)
}

// OperatorNotifier forwards collected leads to the operator chat. Publishing never blocks:
// leads go through a bounded queue drained by a rate-limited worker.
type OperatorNotifier struct {
	api     messageSender
	chatID  int64
	queue   chan models.Lead
	limiter *rate.Limiter
}

func NewOperatorNotifier(bus EventBus.Bus, api messageSender, chatID int64, queueSize int,
	maxPerSecond float32) (*OperatorNotifier, error) {

	if api == nil {
		return nil, errors.New("api is nil")
	}
	if queueSize <= 0 {
		return nil, errors.New("queue size must be greater than zero")
	}

	n := &OperatorNotifier{
		api:    api,
		chatID: chatID,
		queue:  make(chan models.Lead, queueSize),
	}
	if maxPerSecond > 0 {
		n.limiter = rate.NewLimiter(rate.Limit(maxPerSecond), 1)
	}

	if err := bus.Subscribe(events.LeadCollectedTopic, n.onLeadCollected); err != nil {
		return nil, err
	}
	return n, nil
}

// Run sends queued notifications until ctx is done.
func (n *OperatorNotifier) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			if pending := len(n.queue); pending > 0 {
				log.Warnf("operator notifier stopped with %d pending notifications", pending)
			}
			return
		case lead := <-n.queue:
			n.notify(ctx, lead)
		}
	}
}

func (n *OperatorNotifier) onLeadCollected(event events.LeadCollected) {
	select {
	case n.queue <- event.Lead:
	default:
		log.WithField(logger.ErrorTypeField, logger.ErrorTypeTgApi).
			Errorf("operator notification queue is full, lead of user %d is not forwarded", event.Lead.UserID)
	}
}

func (n *OperatorNotifier) notify(ctx context.Context, lead models.Lead) {
	if n.limiter != nil {
		if err := n.limiter.Wait(ctx); err != nil {
			return
		}
	}

	if _, err := n.api.Send(tgbotapi.NewMessage(n.chatID, LeadSummary(lead))); err != nil {
		log.WithField(logger.ErrorTypeField, logger.ErrorTypeTgApi).
			Errorf("couldn't notify operator about lead of user %d: %v", lead.UserID, err)
	}
}
