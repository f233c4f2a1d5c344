// Package normalizer проверяет и канонизирует URL назначения перед сохранением.
package normalizer

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

var (
	// ErrEmptyURL возвращается для пустого ввода.
	ErrEmptyURL = errors.New("url is empty")
	// ErrUnsupportedScheme возвращается для схем, отличных от http/https.
	ErrUnsupportedScheme = errors.New("only http and https schemes are allowed")
	// ErrPrivateAddress возвращается в production-режиме для localhost и приватных диапазонов.
	ErrPrivateAddress = errors.New("private and localhost urls are not allowed")
	// ErrInvalidDomain возвращается для слишком короткого имени хоста.
	ErrInvalidDomain = errors.New("invalid domain name")
	// ErrInvalidFormat возвращается, когда строка не разбирается как URL.
	ErrInvalidFormat = errors.New("invalid url format")
)

var (
	schemeRe      = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9+.-]*://`)
	privateHostRe = regexp.MustCompile(`^(localhost|127\.|10\.|172\.(1[6-9]|2[0-9]|3[0-1])\.|192\.168\.)`)
)

// Normalize приводит rawURL к каноническому виду: обрезает пробелы,
// подставляет https:// при отсутствии схемы, проверяет хост и
// возвращает сериализованный URL. Все прочие компоненты (auth, порт,
// query, fragment) сохраняются как есть. Функция идемпотентна:
// Normalize(Normalize(u)) == Normalize(u).
func Normalize(rawURL string, production bool) (string, error) {
	trimmed := strings.TrimSpace(rawURL)
	if trimmed == "" {
		return "", ErrEmptyURL
	}

	if scheme := schemeRe.FindString(trimmed); scheme != "" {
		lower := strings.ToLower(scheme)
		if lower != "http://" && lower != "https://" {
			return "", ErrUnsupportedScheme
		}
	} else {
		trimmed = "https://" + trimmed
	}

	parsed, err := url.Parse(trimmed)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return "", ErrUnsupportedScheme
	}

	host := strings.ToLower(parsed.Hostname())
	if production && (host == "localhost" || privateHostRe.MatchString(host)) {
		return "", ErrPrivateAddress
	}
	if len(parsed.Hostname()) < 3 {
		return "", ErrInvalidDomain
	}

	// "https://example.com" и "https://example.com/" — одна и та же ссылка
	if parsed.Path == "" {
		parsed.Path = "/"
	}

	return parsed.String(), nil
}
