package bot

import (
	"regexp"
	"strings"
)

type validation struct {
	function     func(input string) bool
	errorMessage string
}

var nicknamePattern = regexp.MustCompile(`^@?[A-Za-z][A-Za-z0-9_]{4,31}$`)

var nicknameValidations = []validation{
	{
		function:     func(input string) bool { return strings.TrimSpace(input) != "" },
		errorMessage: textNicknameEmpty,
	},
	{
		function:     func(input string) bool { return nicknamePattern.MatchString(strings.TrimSpace(input)) },
		errorMessage: textNicknameInvalid,
	},
}

// validateInput returns the message of the first failed validation.
func validateInput(input string, validations []validation) (string, bool) {
	for _, _validation := range validations {
		if !_validation.function(input) {
			return _validation.errorMessage, false
		}
	}
	return "", true
}

func normalizeNickname(input string) string {
	return strings.TrimPrefix(strings.TrimSpace(input), "@")
}

// normalizePhone adds the leading plus Telegram omits for some clients.
func normalizePhone(phone string) string {
	phone = strings.TrimSpace(phone)
	if phone == "" || strings.HasPrefix(phone, "+") {
		return phone
	}
	return "+" + phone
}
