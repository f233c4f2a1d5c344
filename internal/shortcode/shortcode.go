// Package shortcode генерирует и проверяет короткие коды ссылок.
package shortcode

import (
	"crypto/rand"
	"fmt"
	"regexp"
	"strings"
)

// DefaultLength — длина генерируемого кода по умолчанию.
const DefaultLength = 6

// alphabet — URL-безопасный алфавит, 64 символа.
const alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789-_"

var customCodeRe = regexp.MustCompile(`^[A-Za-z0-9-]{3,20}$`)

// reservedCodes — имена системных маршрутов, запрещённые как коды.
// Проверяется только при создании, не при резолве.
var reservedCodes = map[string]struct{}{
	"api": {}, "admin": {}, "auth": {}, "dashboard": {}, "analytics": {},
	"login": {}, "register": {}, "logout": {}, "profile": {}, "settings": {},
	"help": {}, "about": {}, "contact": {}, "terms": {}, "privacy": {},
}

// Generate возвращает случайный код заданной длины.
// Уникальность кода проверяет вызывающий (см. service.Creator).
func Generate(length int) (string, error) {
	if length <= 0 {
		length = DefaultLength
	}
	buf := make([]byte, length)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("shortcode: random source failed: %w", err)
	}
	for i, b := range buf {
		buf[i] = alphabet[int(b)%len(alphabet)]
	}
	return string(buf), nil
}

// IsValidCustomCode проверяет пользовательский код: 3-20 символов,
// латинские буквы, цифры и дефис.
func IsValidCustomCode(code string) bool {
	return customCodeRe.MatchString(code)
}

// IsReservedCode сообщает, зарезервирован ли код под системный маршрут.
// Сравнение без учёта регистра.
func IsReservedCode(code string) bool {
	_, ok := reservedCodes[strings.ToLower(code)]
	return ok
}
