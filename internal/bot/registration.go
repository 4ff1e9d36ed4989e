package bot

import (
	"context"
	"errors"
	botApi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/kyokomi/emoji/v2"
	"github.com/maxaizer/tutor-bot/internal/domain/events"
	"github.com/maxaizer/tutor-bot/internal/domain/models"
	"github.com/maxaizer/tutor-bot/internal/logger"
	"github.com/maxaizer/tutor-bot/internal/metrics"
	"github.com/maxaizer/tutor-bot/internal/repositories"
	log "github.com/sirupsen/logrus"
	"strconv"
)

func (c *Controller) onRole(ctx context.Context, session *userSession, sender Sender, value string) {

	role, err := models.ToRole(value)
	if err != nil || session.step != stepRole {
		c.rejectSelection(session, sender)
		return
	}
	// a failed save leaves the step on role, so a new pick starts the branch over
	session.role = role
	session.action = ""
	session.subject = ""
	session.class = ""

	switch role {
	case models.RoleTeacher:
		session.step = stepTerminal
		c.reply(sender.ChatID, emoji.Sprintf(textTeacherFormat, c.opts.OperatorContact))
	case models.RoleStudent:
		session.step = stepAction
		c.promptStep(session)
	case models.RoleApplicant:
		session.subject = models.Biochemistry
		c.advance(ctx, session, sender)
	default:
		c.advance(ctx, session, sender)
	}
}

func (c *Controller) onAction(ctx context.Context, session *userSession, sender Sender, value string) {

	action, err := models.ToAction(value)
	if err != nil || session.step != stepAction {
		c.rejectSelection(session, sender)
		return
	}

	session.action = action
	c.advance(ctx, session, sender)
}

func (c *Controller) onSubject(ctx context.Context, session *userSession, sender Sender, value string) {

	subject, err := models.ToSubject(value)
	if err != nil || subject == models.Biochemistry || session.step != stepSubject {
		c.rejectSelection(session, sender)
		return
	}

	session.subject = subject
	c.advance(ctx, session, sender)
}

func (c *Controller) onClass(ctx context.Context, session *userSession, sender Sender, value string) {

	if !models.IsClass(value) || session.step != stepClass {
		c.rejectSelection(session, sender)
		return
	}

	session.class = value
	c.advance(ctx, session, sender)
}

// advance moves the session to the first missing field of its branch and prompts for it.
// When nothing is missing the lead is finalized.
func (c *Controller) advance(ctx context.Context, session *userSession, sender Sender) {

	req := models.RequirementsFor(session.role, session.action)

	switch {
	case req.Subject && session.subject == "":
		session.step = stepSubject
	case req.Class && session.class == "":
		session.step = stepClass
	case req.Phone && session.nickname == "":
		session.step = stepNickname
	case req.Phone && session.phone == "":
		session.step = stepPhone
	default:
		c.finalize(ctx, session, sender)
		return
	}

	c.promptStep(session)
}

// promptStep repeats the question of the pending step.
func (c *Controller) promptStep(session *userSession) {

	var msg botApi.MessageConfig

	switch session.step {
	case stepRole:
		msg = botApi.NewMessage(session.chatID, textWelcome)
		msg.ReplyMarkup = roleKeyboard()
	case stepAction:
		msg = botApi.NewMessage(session.chatID, textChooseAction)
		msg.ReplyMarkup = actionKeyboard()
	case stepSubject:
		msg = botApi.NewMessage(session.chatID, textChooseSubject)
		msg.ReplyMarkup = subjectKeyboard()
	case stepClass:
		msg = botApi.NewMessage(session.chatID, textChooseClass)
		msg.ReplyMarkup = classKeyboard()
	case stepNickname:
		msg = botApi.NewMessage(session.chatID, textAskNickname)
	case stepPhone:
		msg = botApi.NewMessage(session.chatID, textAskPhone)
		msg.ReplyMarkup = contactKeyboard()
	default:
		return
	}

	_, _ = sendWithLogError(c.api, msg)
}

func (c *Controller) rejectSelection(session *userSession, sender Sender) {
	switch {
	case session.step == stepTerminal:
		c.reply(sender.ChatID, emoji.Sprintf(textTeacherFormat, c.opts.OperatorContact))
	case session.finalized:
		c.reply(sender.ChatID, textRegistrationOver)
	default:
		c.reply(sender.ChatID, textInvalidSelection)
	}
}

// finalize persists the lead once per session. On a storage error the step is kept,
// so repeating the last input retries.
func (c *Controller) finalize(ctx context.Context, session *userSession, sender Sender) {

	if session.finalized {
		return
	}

	lead := c.buildLead(session, sender)
	if err := lead.Validate(); err != nil {
		log.Errorf("session %s produced an invalid lead: %v", session.id, err)
		c.reply(sender.ChatID, textInternalError)
		return
	}

	err := c.deps.Leads.Add(ctx, lead)
	switch {
	case errors.Is(err, repositories.ErrLeadAlreadyStored):
		// an earlier attempt reported an error but the lead was written
		log.Warnf("lead of session %s is already stored", session.id)
	case err != nil:
		log.WithField(logger.ErrorTypeField, logger.ErrorTypeDb).
			Errorf("couldn't store lead of session %s: %v", session.id, err)
		c.reply(sender.ChatID, textSaveFailed)
		return
	}

	session.finalized = true
	session.step = stepFinalized
	metrics.LeadsCounter.WithLabelValues(string(lead.Role), string(lead.Subject)).Inc()
	c.deps.Bus.Publish(events.LeadCollectedTopic, events.LeadCollected{Lead: lead})

	switch {
	case session.action == models.ActionMaterials:
		c.replyWithDefaultKeyboard(sender.ChatID, textMaterialsReady)
		c.showMaterials(ctx, session, sender)
	case session.role == models.RoleApplicant:
		c.replyWithDefaultKeyboard(sender.ChatID, textApplicantDone)
	default:
		c.replyWithDefaultKeyboard(sender.ChatID, textRegistered)
	}
}

func (c *Controller) buildLead(session *userSession, sender Sender) models.Lead {

	nickname := session.nickname
	if nickname == "" {
		nickname = "id" + strconv.FormatInt(sender.UserID, 10)
	}

	return models.Lead{
		SessionID: session.id,
		UserID:    sender.UserID,
		Nickname:  nickname,
		Phone:     session.phone,
		Role:      session.role,
		Action:    session.action,
		Subject:   session.subject,
		Class:     session.class,
		CreatedAt: c.now(),
	}
}

func (c *Controller) replyWithDefaultKeyboard(chatID int64, text string) {
	msg := botApi.NewMessage(chatID, text)
	msg.ReplyMarkup = defaultReplyKeyboard()
	_, _ = sendWithLogError(c.api, msg)
}
