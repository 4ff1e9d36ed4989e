package bot

import (
	"fmt"
	"github.com/maxaizer/tutor-bot/internal/domain/models"
	"strings"
	"unicode/utf8"
)

const maxMessageLength = 4096

func formatLeadLine(number int, lead models.Lead) string {
	line := fmt.Sprintf("%d. @%s | %s | %s | %s", number, lead.Nickname, lead.Role.Title(), lead.Subject,
		lead.CreatedAt.Format("02.01.2006 15:04"))
	if lead.Class != "" {
		line += " | " + lead.Class
	}
	if lead.Phone != "" {
		line += " | " + lead.Phone
	}
	return line
}

// splitMessage joins lines into messages no longer than limit characters.
// The header goes first in the first message.
func splitMessage(header string, lines []string, limit int) []string {

	var messages []string
	var sb strings.Builder
	sb.WriteString(header)

	for _, line := range lines {
		if utf8.RuneCountInString(line) > limit {
			line = string([]rune(line)[:limit])
		}
		if sb.Len() > 0 && utf8.RuneCountInString(sb.String())+1+utf8.RuneCountInString(line) > limit {
			messages = append(messages, sb.String())
			sb.Reset()
		}
		if sb.Len() > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(line)
	}

	if sb.Len() > 0 {
		messages = append(messages, sb.String())
	}
	return messages
}
