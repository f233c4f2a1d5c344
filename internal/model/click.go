package model

import "time"

// ClickEvent — одно событие перехода по короткой ссылке.
// Записи только добавляются; удаляются каскадно вместе со ссылкой.
type ClickEvent struct {
	ID         uint64    `json:"id"`
	LinkID     uint64    `json:"link_id"`
	Timestamp  time.Time `json:"timestamp"`
	ClientAddr string    `json:"client_addr"`
	UserAgent  string    `json:"user_agent"`
	Referrer   string    `json:"referrer"`
}

// ClickMeta — метаданные запроса, снятые до отправки редиректа.
type ClickMeta struct {
	ClientAddr string
	UserAgent  string
	Referrer   string
}
