package bot

import (
	"context"
	"errors"
	botApi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/kyokomi/emoji/v2"
	"github.com/maxaizer/tutor-bot/internal/domain/models"
	"github.com/maxaizer/tutor-bot/internal/logger"
	"github.com/maxaizer/tutor-bot/internal/metrics"
	"github.com/maxaizer/tutor-bot/internal/services"
	log "github.com/sirupsen/logrus"
	"path"
	"strconv"
	"time"
)

func (c *Controller) materialsCommand(ctx context.Context, sender Sender) {

	session := c.sessions.get(sender.UserID)
	switch {
	case session == nil:
		c.reply(sender.ChatID, textNoSession)
	case session.step == stepTerminal:
		c.reply(sender.ChatID, emoji.Sprintf(textTeacherFormat, c.opts.OperatorContact))
	case !session.finalized:
		c.reply(sender.ChatID, textFinishFirst)
		c.promptStep(session)
	default:
		c.showMaterials(ctx, session, sender)
	}
}

// showMaterials lists the materials of the session subject if the user passes the channel check.
func (c *Controller) showMaterials(ctx context.Context, session *userSession, sender Sender) {

	if !c.allowedToSubject(ctx, session.subject, sender) {
		return
	}

	materials := c.deps.Catalog.Materials(session.subject)
	if len(materials) == 0 {
		c.reply(sender.ChatID, textNoMaterials)
		return
	}

	msg := botApi.NewMessage(sender.ChatID, emoji.Sprintf(textMaterialsFormat, session.subject))
	msg.ReplyMarkup = materialsKeyboard(session.subject, materials)
	if _, err := sendWithLogError(c.api, msg); err == nil {
		session.step = stepMaterialsListed
	}
}

func (c *Controller) onMaterial(ctx context.Context, session *userSession, sender Sender, values []string) {

	if !session.finalized {
		c.reply(sender.ChatID, textFinishFirst)
		c.promptStep(session)
		return
	}

	subject, material, err := c.resolveMaterial(values)
	if err != nil {
		log.Debugf("user %d asked for unknown material %v: %v", sender.UserID, values, err)
		c.reply(sender.ChatID, textMaterialNotFound)
		return
	}

	if !c.allowedToSubject(ctx, subject, sender) {
		return
	}

	data, err := c.deps.Materials.Read(material.File)
	if err != nil {
		if errors.Is(err, services.ErrFileNotFound) {
			log.Errorf("material %q of %s has no file %q", material.Title, subject, material.File)
			c.reply(sender.ChatID, textFileNotFound)
		} else {
			log.Errorf("couldn't read material file %q: %v", material.File, err)
			c.reply(sender.ChatID, textInternalError)
		}
		return
	}

	c.showProgress(sender.ChatID)

	document := botApi.NewDocument(sender.ChatID, botApi.FileBytes{Name: path.Base(material.File), Bytes: data})
	document.Caption = emoji.Sprintf(textDocumentCaption, material.Title)
	if _, err = sendWithLogError(c.api, document); err != nil {
		return
	}

	session.step = stepMaterialDelivered
	metrics.MaterialsDeliveredCounter.WithLabelValues(string(subject)).Inc()
}

func (c *Controller) resolveMaterial(values []string) (models.Subject, models.Material, error) {

	if len(values) != 2 {
		return "", models.Material{}, models.ErrMaterialNotFound
	}

	subject, err := models.ToSubject(values[0])
	if err != nil {
		return "", models.Material{}, err
	}

	index, err := strconv.Atoi(values[1])
	if err != nil {
		return "", models.Material{}, models.ErrMaterialNotFound
	}

	material, err := c.deps.Catalog.Material(subject, index)
	if err != nil {
		return "", models.Material{}, err
	}
	return subject, material, nil
}

// allowedToSubject runs the channel check and tells the user when access is denied.
// A failed lookup counts as not subscribed.
func (c *Controller) allowedToSubject(ctx context.Context, subject models.Subject, sender Sender) bool {

	channel := c.deps.Catalog.Channel(subject)
	subscribed, err := c.deps.Subscriptions.IsSubscribed(ctx, channel, sender.UserID)
	if err != nil {
		log.WithField(logger.ErrorTypeField, logger.ErrorTypeTgApi).
			Warnf("couldn't check subscription of user %d to %s: %v", sender.UserID, channel, err)
	}

	if err == nil && subscribed {
		return true
	}

	metrics.SubscriptionRejectionsCounter.WithLabelValues(string(subject)).Inc()
	c.reply(sender.ChatID, emoji.Sprintf(textSubscribeFormat, subject, channel))
	return false
}

// showProgress sends a progress message and edits it up to 100%.
func (c *Controller) showProgress(chatID int64) {

	msg, err := sendWithLogError(c.api, botApi.NewMessage(chatID, emoji.Sprintf(textProgressFormat, 0)))
	if err != nil {
		return
	}

	steps := c.opts.ProgressSteps
	for i := 1; i <= steps; i++ {
		if c.opts.ProgressDelay > 0 {
			time.Sleep(c.opts.ProgressDelay)
		}
		edit := botApi.NewEditMessageText(chatID, msg.MessageID, emoji.Sprintf(textProgressFormat, i*100/steps))
		_, _ = sendWithLogError(c.api, edit)
	}
}
