// Package cache реализует быстрый Redis-фронт для горячих ссылок и
// счётчиков кликов. Кеш — подсказка для ускорения, не источник истины:
// любой сбой транспорта деградирует до промаха, а не до ошибки резолва.
package cache

import (
	"context"
	"time"
)

// Entry — кешированное сопоставление кода и назначения.
type Entry struct {
	Destination string    `json:"destination"`
	Owner       *string   `json:"owner"`
	CachedAt    time.Time `json:"cached_at"`
}

// Health — состояние кеша для внешнего health-репортинга.
type Health struct {
	Connected  bool   `json:"connected"`
	MemoryUsed string `json:"memory_used,omitempty"`
	KeyCount   int64  `json:"key_count,omitempty"`
}

// Cache определяет контракт кеш-слоя. Реализации обязаны мягко
// переживать недоступность хранилища: Get отвечает промахом,
// IncrementClicks — нулём, Put и Invalidate молча логируют сбой.
type Cache interface {
	// Get возвращает запись или nil при промахе, истечении TTL
	// либо недоступности кеша.
	Get(ctx context.Context, code string) *Entry
	// Put сохраняет запись с ограниченным сроком жизни (best-effort).
	Put(ctx context.Context, code string, entry *Entry, ttl time.Duration)
	// IncrementClicks атомарно увеличивает эфемерный счётчик кода
	// и возвращает новое значение (0 при сбое).
	IncrementClicks(ctx context.Context, code string) int64
	// Invalidate удаляет запись и счётчик кода.
	Invalidate(ctx context.Context, code string)
	// HealthStatus возвращает состояние подключения.
	HealthStatus(ctx context.Context) Health
}
