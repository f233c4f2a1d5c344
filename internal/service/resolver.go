// Package service содержит оркестрацию ядра: резолв короткого кода
// (кеш → БД → фоновый учёт клика) и создание ссылок.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Totarae/Bitlytics/internal/cache"
	"github.com/Totarae/Bitlytics/internal/model"
	"go.uber.org/zap"
)

// ErrNotFound возвращается для отсутствующих, выключенных и просроченных
// ссылок. Наружу все три случая неразличимы.
var ErrNotFound = errors.New("short link not found")

// LinkProvider — доступ к durable-хранилищу ссылок.
type LinkProvider interface {
	GetLink(ctx context.Context, code string) (*model.ShortLink, error)
}

// ClickRecorder записывает клик; ошибки глотает сам.
type ClickRecorder interface {
	Record(ctx context.Context, link *model.ShortLink, meta model.ClickMeta)
}

// TaskQueue — неблокирующая передача фоновых задач.
type TaskQueue interface {
	Submit(task func(ctx context.Context))
}

// Resolver превращает короткий код в решение о редиректе.
type Resolver struct {
	Repo     LinkProvider
	Cache    cache.Cache
	Recorder ClickRecorder
	Tracker  TaskQueue
	Logger   *zap.Logger
	TTL      time.Duration
}

// NewResolver создаёт Resolver. ttl задаёт срок жизни кеш-записи и
// одновременно допустимое окно устаревания после деактивации ссылки.
func NewResolver(repo LinkProvider, c cache.Cache, rec ClickRecorder, tracker TaskQueue, logger *zap.Logger, ttl time.Duration) *Resolver {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &Resolver{
		Repo:     repo,
		Cache:    c,
		Recorder: rec,
		Tracker:  tracker,
		Logger:   logger,
		TTL:      ttl,
	}
}

// Resolve возвращает назначение для редиректа.
//
// Попадание в кеш авторитетно для текущего запроса (устаревание в
// пределах TTL принято конструкцией); учёт клика уходит в фон и на
// ответ не влияет. При промахе проверяется durable-хранилище, и
// только отказ этого обязательного шага виден снаружи.
func (s *Resolver) Resolve(ctx context.Context, code string, meta model.ClickMeta) (string, error) {
	if entry := s.Cache.Get(ctx, code); entry != nil {
		s.trackCacheHit(code, meta)
		return entry.Destination, nil
	}

	link, err := s.Repo.GetLink(ctx, code)
	if err != nil {
		return "", fmt.Errorf("resolve %q: %w", code, err)
	}
	if link == nil || !link.Resolvable(time.Now()) {
		return "", ErrNotFound
	}

	// Заполнение кеша — best-effort: неудача не ломает запрос
	s.Cache.Put(ctx, code, &cache.Entry{
		Destination: link.Destination,
		Owner:       link.Owner,
		CachedAt:    time.Now(),
	}, s.TTL)

	tracked := *link
	s.Tracker.Submit(func(ctx context.Context) {
		s.Recorder.Record(ctx, &tracked, meta)
	})

	return link.Destination, nil
}

// trackCacheHit планирует учёт клика по кеш-попаданию. Кеш не хранит
// id записи, поэтому фоновая задача сама добирает её из БД для
// атрибуции; любой сбой этого пути невидим для уже отданного редиректа.
func (s *Resolver) trackCacheHit(code string, meta model.ClickMeta) {
	s.Tracker.Submit(func(ctx context.Context) {
		link, err := s.Repo.GetLink(ctx, code)
		if err != nil {
			s.Logger.Error("background lookup for click attribution failed",
				zap.String("code", code), zap.Error(err))
			return
		}
		if link == nil {
			return
		}
		s.Recorder.Record(ctx, link, meta)
	})
}

// Invalidate убирает код из кеша. Используется внешними потоками
// (деактивация, удаление), чтобы не ждать истечения TTL.
func (s *Resolver) Invalidate(ctx context.Context, code string) {
	s.Cache.Invalidate(ctx, code)
}
