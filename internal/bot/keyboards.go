package bot

import (
	botApi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/maxaizer/tutor-bot/internal/domain/models"
	"github.com/samber/lo"
	"strconv"
)

func roleKeyboard() botApi.InlineKeyboardMarkup {
	return botApi.NewInlineKeyboardMarkup(
		botApi.NewInlineKeyboardRow(
			botApi.NewInlineKeyboardButtonData(models.RoleStudent.Title(), encodePayload(payloadRole, string(models.RoleStudent))),
			botApi.NewInlineKeyboardButtonData(models.RoleParent.Title(), encodePayload(payloadRole, string(models.RoleParent))),
		),
		botApi.NewInlineKeyboardRow(
			botApi.NewInlineKeyboardButtonData(models.RoleApplicant.Title(), encodePayload(payloadRole, string(models.RoleApplicant))),
			botApi.NewInlineKeyboardButtonData(models.RoleTeacher.Title(), encodePayload(payloadRole, string(models.RoleTeacher))),
		),
	)
}

func actionKeyboard() botApi.InlineKeyboardMarkup {
	rows := lo.Map(models.Actions, func(action models.Action, _ int) []botApi.InlineKeyboardButton {
		return botApi.NewInlineKeyboardRow(
			botApi.NewInlineKeyboardButtonData(action.Title(), encodePayload(payloadAction, string(action))))
	})
	return botApi.NewInlineKeyboardMarkup(rows...)
}

func subjectKeyboard() botApi.InlineKeyboardMarkup {
	buttons := lo.Map(models.RegistrationSubjects, func(subject models.Subject, _ int) botApi.InlineKeyboardButton {
		return botApi.NewInlineKeyboardButtonData(string(subject), encodePayload(payloadSubject, string(subject)))
	})
	return botApi.NewInlineKeyboardMarkup(chunkButtons(buttons, 2)...)
}

func classKeyboard() botApi.InlineKeyboardMarkup {
	buttons := lo.Map(models.Classes, func(class string, _ int) botApi.InlineKeyboardButton {
		return botApi.NewInlineKeyboardButtonData(class, encodePayload(payloadClass, class))
	})
	return botApi.NewInlineKeyboardMarkup(chunkButtons(buttons, 3)...)
}

func materialsKeyboard(subject models.Subject, materials []models.Material) botApi.InlineKeyboardMarkup {
	rows := lo.Map(materials, func(material models.Material, i int) []botApi.InlineKeyboardButton {
		return botApi.NewInlineKeyboardRow(
			botApi.NewInlineKeyboardButtonData(material.Title,
				encodePayload(payloadMaterial, string(subject), strconv.Itoa(i))))
	})
	return botApi.NewInlineKeyboardMarkup(rows...)
}

func contactKeyboard() botApi.ReplyKeyboardMarkup {
	keyboard := botApi.NewReplyKeyboard(
		botApi.NewKeyboardButtonRow(botApi.NewKeyboardButtonContact(textSharePhoneButton)),
	)
	keyboard.OneTimeKeyboard = true
	return keyboard
}

func defaultReplyKeyboard() botApi.ReplyKeyboardMarkup {
	keyboard := botApi.NewReplyKeyboard(
		botApi.NewKeyboardButtonRow(botApi.NewKeyboardButton("/" + materialsCommandName)),
	)
	keyboard.ResizeKeyboard = true
	return keyboard
}

func chunkButtons(buttons []botApi.InlineKeyboardButton, size int) [][]botApi.InlineKeyboardButton {
	return lo.Map(lo.Chunk(buttons, size), func(row []botApi.InlineKeyboardButton, _ int) []botApi.InlineKeyboardButton {
		return botApi.NewInlineKeyboardRow(row...)
	})
}
