package model

import "time"

// ShortLink представляет запись сокращённой ссылки в базе данных.
// Code уникален и неизменяем после создания; Destination нормализован
// до записи. ClickCount монотонно растёт и согласуется с событиями
// кликов лишь в конечном счёте.
type ShortLink struct {
	ID          uint64     `json:"id"`
	Code        string     `json:"code"`
	Destination string     `json:"destination"`
	Owner       *string    `json:"owner,omitempty"`
	Title       string     `json:"title,omitempty"`
	Description string     `json:"description,omitempty"`
	Active      bool       `json:"active"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
	ClickCount  int64      `json:"click_count"`
	Created     time.Time  `json:"created"`
	Updated     time.Time  `json:"updated"`
}

// Resolvable сообщает, может ли ссылка участвовать в редиректе
// в момент now. Неактивные и просроченные ссылки отвечают 404.
func (l *ShortLink) Resolvable(now time.Time) bool {
	if !l.Active {
		return false
	}
	if l.ExpiresAt != nil && now.After(*l.ExpiresAt) {
		return false
	}
	return true
}
