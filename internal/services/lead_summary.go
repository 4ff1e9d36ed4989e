package services

import (
	"github.com/kyokomi/emoji/v2"
	"github.com/maxaizer/tutor-bot/internal/domain/models"
	"strings"
)

// LeadSummary renders the lead the way operators receive it.
func LeadSummary(lead models.Lead) string {
	var sb strings.Builder

	sb.WriteString(emoji.Sprint(":new:Новая заявка!\n"))
	sb.WriteString(emoji.Sprintf(":bust_in_silhouette:@%s\n", orDash(lead.Nickname)))
	sb.WriteString(emoji.Sprintf(":telephone_receiver:%s\n", orDash(lead.Phone)))
	sb.WriteString(emoji.Sprintf(":mortar_board:Роль: %s\n", lead.Role.Title()))
	if lead.Action != "" {
		sb.WriteString(emoji.Sprintf(":dart:Цель: %s\n", lead.Action.Title()))
	}
	sb.WriteString(emoji.Sprintf(":blue_book:Предмет: %s\n", lead.Subject))
	if lead.Class != "" {
		sb.WriteString(emoji.Sprintf(":school:Класс: %s\n", lead.Class))
	}
	sb.WriteString(emoji.Sprintf(":id:%d", lead.UserID))

	return sb.String()
}

func orDash(value string) string {
	if value == "" {
		return "—"
	}
	return value
}
