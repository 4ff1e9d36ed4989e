package services

import (
	"context"
	"errors"
	"fmt"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/kyokomi/emoji/v2"
	"github.com/maxaizer/tutor-bot/internal/domain/models"
	"github.com/maxaizer/tutor-bot/internal/logger"
	"github.com/robfig/cron/v3"
	"github.com/samber/lo"
	log "github.com/sirupsen/logrus"
	"strings"
	"time"
)

type leadsReader interface {
	GetAll(ctx context.Context) ([]models.Lead, error)
}

// LeadsDigest periodically sends the operator how many leads came in during the last day.
type LeadsDigest struct {
	leads  leadsReader
	api    messageSender
	chatID int64
	cron   *cron.Cron
	now    func() time.Time
}

func NewLeadsDigest(leads leadsReader, api messageSender, chatID int64, schedule string) (*LeadsDigest, error) {
	if schedule == "" {
		return nil, errors.New("digest schedule is empty")
	}

	d := &LeadsDigest{
		leads:  leads,
		api:    api,
		chatID: chatID,
		cron:   cron.New(),
		now:    time.Now,
	}

	if _, err := d.cron.AddFunc(schedule, d.send); err != nil {
		return nil, fmt.Errorf("invalid digest schedule %q: %w", schedule, err)
	}

	d.cron.Start()
	log.Infof("leads digest started, schedule: %s", schedule)
	return d, nil
}

func (d *LeadsDigest) Stop() {
	d.cron.Stop()
}

func (d *LeadsDigest) send() {
	text, err := d.build(context.Background())
	if err != nil {
		log.WithField(logger.ErrorTypeField, logger.ErrorTypeDb).Errorf("couldn't build leads digest: %v", err)
		return
	}

	if _, err = d.api.Send(tgbotapi.NewMessage(d.chatID, text)); err != nil {
		log.WithField(logger.ErrorTypeField, logger.ErrorTypeTgApi).Errorf("couldn't send leads digest: %v", err)
	}
}

func (d *LeadsDigest) build(ctx context.Context) (string, error) {
	leads, err := d.leads.GetAll(ctx)
	if err != nil {
		return "", err
	}

	since := d.now().Add(-24 * time.Hour)
	recent := lo.Filter(leads, func(lead models.Lead, _ int) bool {
		return lead.CreatedAt.After(since)
	})

	if len(recent) == 0 {
		return emoji.Sprint(":mailbox_with_no_mail:За последние сутки новых заявок нет."), nil
	}

	bySubject := lo.GroupBy(recent, func(lead models.Lead) models.Subject { return lead.Subject })

	var sb strings.Builder
	sb.WriteString(emoji.Sprintf(":bar_chart:Заявок за сутки: %d\n", len(recent)))
	for _, subject := range models.Subjects {
		if count := len(bySubject[subject]); count > 0 {
			sb.WriteString(fmt.Sprintf("• %s: %d\n", subject, count))
		}
	}
	return strings.TrimRight(sb.String(), "\n"), nil
}
