package clicks

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// Tracker выполняет фоновые задачи трекинга на пуле воркеров.
// Submit никогда не блокирует вызывающего: при переполненной очереди
// задача отбрасывается. Задачи получают контекст, не привязанный к
// входящему запросу, поэтому завершение запроса их не отменяет.
type Tracker struct {
	tasks     chan func(ctx context.Context)
	wg        sync.WaitGroup
	logger    *zap.Logger
	closeOnce sync.Once
}

// NewTracker запускает workers горутин с очередью на queueSize задач.
func NewTracker(queueSize, workers int, logger *zap.Logger) *Tracker {
	if queueSize <= 0 {
		queueSize = 1024
	}
	if workers <= 0 {
		workers = 1
	}

	t := &Tracker{
		tasks:  make(chan func(ctx context.Context), queueSize),
		logger: logger,
	}
	for i := 0; i < workers; i++ {
		t.wg.Add(1)
		go t.run()
	}
	return t
}

func (t *Tracker) run() {
	defer t.wg.Done()
	for task := range t.tasks {
		task(context.Background())
	}
}

// Submit ставит задачу в очередь. При переполненной очереди задача
// отбрасывается с предупреждением в лог.
func (t *Tracker) Submit(task func(ctx context.Context)) {
	select {
	case t.tasks <- task:
	default:
		t.logger.Warn("click tracking queue is full, dropping task")
	}
}

// Close закрывает очередь и дожидается выполнения принятых задач.
// Вызывается при останове сервера, после остановки HTTP-слушателя.
func (t *Tracker) Close() {
	t.closeOnce.Do(func() {
		close(t.tasks)
	})
	t.wg.Wait()
}
