package bot

import (
	botApi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

type EventKind string

const (
	EventCommand  EventKind = "command"
	EventCallback EventKind = "callback"
	EventText     EventKind = "text"
	EventContact  EventKind = "contact"
)

// Sender identifies who produced an event and where to answer.
type Sender struct {
	UserID    int64
	ChatID    int64
	Username  string
	FirstName string
}

func (s Sender) Origin() Sender {
	return s
}

// Event is one inbound user action. The concrete type is one of
// CommandEvent, CallbackEvent, TextEvent or ContactEvent.
type Event interface {
	Kind() EventKind
	Origin() Sender
}

type CommandEvent struct {
	Sender
	Command string
	Args    string
}

type CallbackEvent struct {
	Sender
	QueryID   string
	MessageID int
	Data      string
}

type TextEvent struct {
	Sender
	Text string
}

type ContactEvent struct {
	Sender
	Phone string
	// ContactUserID is zero when the shared contact isn't a Telegram user.
	ContactUserID int64
}

func (CommandEvent) Kind() EventKind  { return EventCommand }
func (CallbackEvent) Kind() EventKind { return EventCallback }
func (TextEvent) Kind() EventKind     { return EventText }
func (ContactEvent) Kind() EventKind  { return EventContact }

// eventFromUpdate converts an update of a private chat into an Event.
func eventFromUpdate(update botApi.Update) (Event, bool) {

	if query := update.CallbackQuery; query != nil {
		if query.From == nil || query.Message == nil || !query.Message.Chat.IsPrivate() {
			return nil, false
		}
		return CallbackEvent{
			Sender:    newSender(query.From, query.Message.Chat.ID),
			QueryID:   query.ID,
			MessageID: query.Message.MessageID,
			Data:      query.Data,
		}, true
	}

	message := update.Message
	if message == nil || message.From == nil || !message.Chat.IsPrivate() {
		return nil, false
	}
	sender := newSender(message.From, message.Chat.ID)

	switch {
	case message.Contact != nil:
		return ContactEvent{Sender: sender, Phone: message.Contact.PhoneNumber, ContactUserID: message.Contact.UserID}, true
	case message.IsCommand():
		return CommandEvent{Sender: sender, Command: message.Command(), Args: message.CommandArguments()}, true
	case message.Text != "":
		return TextEvent{Sender: sender, Text: message.Text}, true
	default:
		return nil, false
	}
}

func newSender(user *botApi.User, chatID int64) Sender {
	return Sender{UserID: user.ID, ChatID: chatID, Username: user.UserName, FirstName: user.FirstName}
}
