// Package server encodes and decodes the line protocol spoken by chat clients.
package server

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// loginPrefix starts the only command an unauthenticated client may send.
const loginPrefix = "login:"

// usageNotice is sent to unauthenticated clients that did not send a login command.
const usageNotice = "Для входа в чат наберите login:ВашЛогин\n"

// decodeChunk turns one inbound read into text. The protocol is unframed:
// whatever a single read returned is handled as one logical message.
func decodeChunk(raw []byte) (string, error) {
	if !utf8.Valid(raw) {
		return "", ErrInvalidEncoding
	}
	return string(raw), nil
}

// parseLogin reports whether text is a login command and returns the
// requested name with the line terminator and surrounding whitespace removed.
func parseLogin(text string) (string, bool) {
	rest, ok := strings.CutPrefix(text, loginPrefix)
	if !ok {
		return "", false
	}
	rest = strings.TrimSuffix(rest, "\r\n")
	return strings.TrimSpace(rest), true
}

func formatLine(login, text string) string {
	return fmt.Sprintf("%s: %s\n", login, text)
}

func formatGreeting(login string) string {
	return fmt.Sprintf("Привет, %s!\n", login)
}

func formatLoginTaken(login string) string {
	return fmt.Sprintf("Логин %s занят, попробуйте другой\n", login)
}
