// Package clicks отвечает за учёт переходов: событие клика, durable-счётчик
// и эфемерный счётчик в кеше. Компонент работает по принципу fire-and-forget:
// ни одна ошибка хранилища не доходит до пути редиректа.
package clicks

import (
	"context"
	"time"

	"github.com/Totarae/Bitlytics/internal/model"
	"go.uber.org/zap"
)

// Repository — подмножество репозитория, нужное для учёта кликов.
type Repository interface {
	SaveClick(ctx context.Context, click *model.ClickEvent) error
	IncrementClickCount(ctx context.Context, id uint64) error
}

// CounterCache — эфемерный счётчик кликов в кеш-слое.
type CounterCache interface {
	IncrementClicks(ctx context.Context, code string) int64
}

// Recorder записывает клик в три независимых места.
type Recorder struct {
	Repo   Repository
	Cache  CounterCache
	Logger *zap.Logger
}

// NewRecorder создаёт новый Recorder.
func NewRecorder(repo Repository, cache CounterCache, logger *zap.Logger) *Recorder {
	return &Recorder{Repo: repo, Cache: cache, Logger: logger}
}

// Record добавляет событие клика, увеличивает durable-счётчик ссылки и
// эфемерный счётчик кода. Шаги не транзакционны: каждый выполняется
// независимо от исхода остальных. Ошибки логируются и не возвращаются —
// редирект к этому моменту уже отправлен.
func (r *Recorder) Record(ctx context.Context, link *model.ShortLink, meta model.ClickMeta) {
	event := &model.ClickEvent{
		LinkID:     link.ID,
		Timestamp:  time.Now(),
		ClientAddr: meta.ClientAddr,
		UserAgent:  meta.UserAgent,
		Referrer:   meta.Referrer,
	}
	if err := r.Repo.SaveClick(ctx, event); err != nil {
		r.Logger.Error("failed to save click event",
			zap.String("code", link.Code), zap.Error(err))
	}

	if err := r.Repo.IncrementClickCount(ctx, link.ID); err != nil {
		r.Logger.Error("failed to increment click count",
			zap.String("code", link.Code), zap.Error(err))
	}

	// Эфемерный счётчик и click_count в БД не обязаны совпадать:
	// это два независимых, в конечном счёте согласованных значения.
	r.Cache.IncrementClicks(ctx, link.Code)
}
