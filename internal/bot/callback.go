package bot

import "strings"

type payloadKind string

const (
	payloadRole     payloadKind = "role"
	payloadAction   payloadKind = "action"
	payloadSubject  payloadKind = "subject"
	payloadClass    payloadKind = "class"
	payloadMaterial payloadKind = "material"
)

const payloadSeparator = "|"

// encodePayload builds callback data like "subject|Физика" or "material|Химия|0".
func encodePayload(kind payloadKind, values ...string) string {
	return strings.Join(append([]string{string(kind)}, values...), payloadSeparator)
}

func decodePayload(data string) (payloadKind, []string) {
	parts := strings.Split(data, payloadSeparator)
	return payloadKind(parts[0]), parts[1:]
}

// singleValue returns the only value of a payload, false if there are none or several.
func singleValue(values []string) (string, bool) {
	if len(values) != 1 || values[0] == "" {
		return "", false
	}
	return values[0], true
}
