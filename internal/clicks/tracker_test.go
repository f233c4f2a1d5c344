package clicks_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Totarae/Bitlytics/internal/clicks"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestTracker_ExecutesSubmittedTasks(t *testing.T) {
	tracker := clicks.NewTracker(8, 2, zap.NewNop())

	var done atomic.Int64
	for i := 0; i < 5; i++ {
		tracker.Submit(func(ctx context.Context) {
			done.Add(1)
		})
	}

	tracker.Close()
	assert.Equal(t, int64(5), done.Load())
}

// Submit не блокирует вызывающего даже при забитой очереди
func TestTracker_SubmitNeverBlocks(t *testing.T) {
	tracker := clicks.NewTracker(1, 1, zap.NewNop())

	release := make(chan struct{})
	// первая задача занимает единственный воркер
	tracker.Submit(func(ctx context.Context) {
		<-release
	})

	returned := make(chan struct{})
	go func() {
		// очередь размером 1 быстро переполняется; лишние задачи отбрасываются
		for i := 0; i < 100; i++ {
			tracker.Submit(func(ctx context.Context) {})
		}
		close(returned)
	}()

	select {
	case <-returned:
	case <-time.After(2 * time.Second):
		t.Fatal("Submit blocked on a saturated queue")
	}

	close(release)
	tracker.Close()
}

// Контекст задачи не привязан к запросу: отмена входящего контекста
// не должна отменять трекинг
func TestTracker_TaskContextIsDetached(t *testing.T) {
	tracker := clicks.NewTracker(1, 1, zap.NewNop())

	reqCtx, cancel := context.WithCancel(context.Background())
	cancel() // запрос уже завершился

	var taskErr error
	tracker.Submit(func(ctx context.Context) {
		taskErr = ctx.Err()
	})
	tracker.Close()

	assert.NoError(t, taskErr)
	assert.Error(t, reqCtx.Err())
}

func TestTracker_CloseIsIdempotent(t *testing.T) {
	tracker := clicks.NewTracker(1, 1, zap.NewNop())
	assert.NotPanics(t, func() {
		tracker.Close()
		tracker.Close()
	})
}
