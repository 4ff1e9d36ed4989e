package bot

import (
	"context"
	"errors"
	"github.com/asaskevich/EventBus"
	botApi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"
	"github.com/kyokomi/emoji/v2"
	"github.com/maxaizer/tutor-bot/internal/domain/models"
	"github.com/maxaizer/tutor-bot/internal/logger"
	"github.com/maxaizer/tutor-bot/internal/metrics"
	log "github.com/sirupsen/logrus"
	"runtime/debug"
	"strings"
	"time"
)

type leadStore interface {
	Add(ctx context.Context, lead models.Lead) error
	GetAll(ctx context.Context) ([]models.Lead, error)
}

type subscriptionChecker interface {
	IsSubscribed(ctx context.Context, channel string, userID int64) (bool, error)
}

type materialStorage interface {
	Read(file string) ([]byte, error)
}

type Dependencies struct {
	Leads         leadStore
	Subscriptions subscriptionChecker
	Materials     materialStorage
	Catalog       *models.Catalog
	Bus           EventBus.Bus
}

type Options struct {
	OperatorContact string
	AdminIDs        []int64
	AdminUsernames  []string
	// TypingDelay is how long the typing indicator is shown before an event is handled.
	TypingDelay   time.Duration
	ProgressDelay time.Duration
	ProgressSteps int
}

// preHandlerHook runs before every event, under the user's lock.
type preHandlerHook func(ctx context.Context, event Event)

// Controller drives the registration and material delivery conversation.
type Controller struct {
	api          apiInterface
	deps         Dependencies
	opts         Options
	sessions     *sessionStore
	hooks        []preHandlerHook
	newSessionID func() string
	now          func() time.Time
}

func NewController(api apiInterface, deps Dependencies, opts Options) (*Controller, error) {

	if api == nil {
		return nil, errors.New("api is nil")
	}

	if deps.Leads == nil {
		return nil, errors.New("lead store is nil")
	}

	if deps.Subscriptions == nil {
		return nil, errors.New("subscription checker is nil")
	}

	if deps.Materials == nil {
		return nil, errors.New("material storage is nil")
	}

	if deps.Catalog == nil {
		return nil, errors.New("catalog is nil")
	}

	if deps.Bus == nil {
		return nil, errors.New("bus is nil")
	}

	if opts.ProgressSteps <= 0 {
		opts.ProgressSteps = 1
	}

	c := &Controller{
		api:          api,
		deps:         deps,
		opts:         opts,
		sessions:     newSessionStore(),
		newSessionID: uuid.NewString,
		now:          time.Now,
	}
	c.hooks = append(c.hooks, typingHook(api, opts.TypingDelay))

	return c, nil
}

// Handle processes one event. Events of the same user never run concurrently.
func (c *Controller) Handle(ctx context.Context, event Event) {

	start := time.Now()
	defer func() {
		metrics.EventHandleDuration.WithLabelValues(string(event.Kind())).Observe(time.Since(start).Seconds())
	}()

	sender := event.Origin()
	unlock := c.sessions.lock(sender.UserID)
	defer unlock()

	defer func() {
		if r := recover(); r != nil {
			log.WithField(logger.ErrorTypeField, logger.ErrorTypePanic).
				Errorf("panic while handling %s event of user %d: %v\n%s", event.Kind(), sender.UserID, r, debug.Stack())
			c.reply(sender.ChatID, textInternalError)
		}
	}()

	for _, hook := range c.hooks {
		hook(ctx, event)
	}

	switch e := event.(type) {
	case CommandEvent:
		c.handleCommand(ctx, e)
	case CallbackEvent:
		c.handleCallback(ctx, e)
	case TextEvent:
		c.handleText(ctx, e)
	case ContactEvent:
		c.handleContact(ctx, e)
	default:
		log.Warnf("unsupported event type %T", event)
	}
}

func typingHook(api apiInterface, delay time.Duration) preHandlerHook {
	return func(ctx context.Context, event Event) {
		requestWithLogError(api, botApi.NewChatAction(event.Origin().ChatID, botApi.ChatTyping))
		if delay <= 0 {
			return
		}
		select {
		case <-ctx.Done():
		case <-time.After(delay):
		}
	}
}

func (c *Controller) handleCommand(ctx context.Context, event CommandEvent) {
	switch event.Command {
	case startCommandName:
		c.start(event.Sender)
	case materialsCommandName:
		c.materialsCommand(ctx, event.Sender)
	case adminCommandName:
		c.adminCommand(ctx, event.Sender)
	case cancelCommandName:
		c.cancel(event.Sender)
	default:
		c.reply(event.ChatID, textUnknownCommand)
	}
}

func (c *Controller) handleCallback(ctx context.Context, event CallbackEvent) {

	requestWithLogError(c.api, botApi.NewCallback(event.QueryID, ""))

	session := c.sessions.get(event.UserID)
	if session == nil {
		c.reply(event.ChatID, textNoSession)
		return
	}

	kind, values := decodePayload(event.Data)
	if kind == payloadMaterial {
		c.onMaterial(ctx, session, event.Sender, values)
		return
	}

	value, ok := singleValue(values)
	if !ok || session.finalized || session.step == stepTerminal {
		c.rejectSelection(session, event.Sender)
		return
	}

	switch kind {
	case payloadRole:
		c.onRole(ctx, session, event.Sender, value)
	case payloadAction:
		c.onAction(ctx, session, event.Sender, value)
	case payloadSubject:
		c.onSubject(ctx, session, event.Sender, value)
	case payloadClass:
		c.onClass(ctx, session, event.Sender, value)
	default:
		c.rejectSelection(session, event.Sender)
	}
}

func (c *Controller) handleText(ctx context.Context, event TextEvent) {

	session := c.sessions.get(event.UserID)
	if session == nil || session.step != stepNickname {
		log.Debugf("ignoring text of user %d", event.UserID)
		return
	}

	if errorMessage, ok := validateInput(event.Text, nicknameValidations); !ok {
		c.reply(event.ChatID, errorMessage)
		return
	}

	session.nickname = normalizeNickname(event.Text)
	c.advance(ctx, session, event.Sender)
}

func (c *Controller) handleContact(ctx context.Context, event ContactEvent) {

	session := c.sessions.get(event.UserID)
	if session == nil || session.step != stepPhone {
		log.Debugf("ignoring contact of user %d", event.UserID)
		return
	}

	if event.ContactUserID != event.UserID {
		msg := botApi.NewMessage(event.ChatID, textForeignContact)
		msg.ReplyMarkup = contactKeyboard()
		_, _ = sendWithLogError(c.api, msg)
		return
	}

	session.phone = normalizePhone(event.Phone)
	c.advance(ctx, session, event.Sender)
}

func (c *Controller) start(sender Sender) {
	session := newUserSession(c.newSessionID(), sender)
	c.sessions.set(sender.UserID, session)

	msg := botApi.NewMessage(sender.ChatID, textWelcome)
	msg.ReplyMarkup = roleKeyboard()
	_, _ = sendWithLogError(c.api, msg)
}

func (c *Controller) cancel(sender Sender) {
	session := c.sessions.get(sender.UserID)
	if session == nil || session.finalized || session.step == stepTerminal {
		c.reply(sender.ChatID, textNothingToCancel)
		return
	}

	c.sessions.delete(sender.UserID)
	msg := botApi.NewMessage(sender.ChatID, textCanceled)
	msg.ReplyMarkup = botApi.NewRemoveKeyboard(true)
	_, _ = sendWithLogError(c.api, msg)
}

func (c *Controller) adminCommand(ctx context.Context, sender Sender) {

	if !c.isAdmin(sender) {
		c.reply(sender.ChatID, textAccessDenied)
		return
	}

	leads, err := c.deps.Leads.GetAll(ctx)
	if err != nil {
		log.WithField(logger.ErrorTypeField, logger.ErrorTypeDb).Errorf("couldn't load leads: %v", err)
		c.reply(sender.ChatID, textLeadsFailed)
		return
	}

	if len(leads) == 0 {
		c.reply(sender.ChatID, textNoLeads)
		return
	}

	lines := make([]string, 0, len(leads))
	for i, lead := range leads {
		lines = append(lines, formatLeadLine(i+1, lead))
	}

	for _, text := range splitMessage(emoji.Sprintf(textLeadsHeader, len(leads)), lines, maxMessageLength) {
		c.reply(sender.ChatID, text)
	}
}

func (c *Controller) isAdmin(sender Sender) bool {
	for _, id := range c.opts.AdminIDs {
		if id == sender.UserID {
			return true
		}
	}
	if sender.Username == "" {
		return false
	}
	for _, username := range c.opts.AdminUsernames {
		if strings.EqualFold(strings.TrimPrefix(username, "@"), sender.Username) {
			return true
		}
	}
	return false
}

func (c *Controller) reply(chatID int64, text string) {
	_, _ = sendWithLogError(c.api, botApi.NewMessage(chatID, text))
}
