package clicks_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/Totarae/Bitlytics/internal/clicks"
	"github.com/Totarae/Bitlytics/internal/model"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

type mockClickRepo struct {
	mu           sync.Mutex
	events       []*model.ClickEvent
	increments   []uint64
	saveClickErr error
	incrementErr error
}

func (m *mockClickRepo) SaveClick(ctx context.Context, click *model.ClickEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveClickErr != nil {
		return m.saveClickErr
	}
	m.events = append(m.events, click)
	return nil
}

func (m *mockClickRepo) IncrementClickCount(ctx context.Context, id uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.incrementErr != nil {
		return m.incrementErr
	}
	m.increments = append(m.increments, id)
	return nil
}

type mockCounter struct {
	mu    sync.Mutex
	codes []string
}

func (m *mockCounter) IncrementClicks(ctx context.Context, code string) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.codes = append(m.codes, code)
	return int64(len(m.codes))
}

func testLink() *model.ShortLink {
	return &model.ShortLink{ID: 7, Code: "abc123", Destination: "https://example.com/", Active: true}
}

func TestRecord(t *testing.T) {
	repo := &mockClickRepo{}
	counter := &mockCounter{}
	rec := clicks.NewRecorder(repo, counter, zap.NewNop())

	rec.Record(context.Background(), testLink(), model.ClickMeta{
		ClientAddr: "203.0.113.7",
		UserAgent:  "curl/8.0",
		Referrer:   "https://referrer.example/",
	})

	assert.Len(t, repo.events, 1)
	assert.Equal(t, uint64(7), repo.events[0].LinkID)
	assert.Equal(t, "203.0.113.7", repo.events[0].ClientAddr)
	assert.False(t, repo.events[0].Timestamp.IsZero())

	assert.Equal(t, []uint64{7}, repo.increments)
	assert.Equal(t, []string{"abc123"}, counter.codes)
}

// Отказ записи события не отменяет инкремент счётчика, и наоборот
func TestRecord_PartialFailures(t *testing.T) {
	repo := &mockClickRepo{saveClickErr: errors.New("insert failed")}
	counter := &mockCounter{}
	rec := clicks.NewRecorder(repo, counter, zap.NewNop())

	assert.NotPanics(t, func() {
		rec.Record(context.Background(), testLink(), model.ClickMeta{})
	})
	assert.Empty(t, repo.events)
	assert.Equal(t, []uint64{7}, repo.increments, "increment must still be attempted")
	assert.Len(t, counter.codes, 1, "cache counter must still be attempted")
}

func TestRecord_AllStoresDown(t *testing.T) {
	repo := &mockClickRepo{
		saveClickErr: errors.New("insert failed"),
		incrementErr: errors.New("update failed"),
	}
	counter := &mockCounter{}
	rec := clicks.NewRecorder(repo, counter, zap.NewNop())

	assert.NotPanics(t, func() {
		rec.Record(context.Background(), testLink(), model.ClickMeta{})
	})
	assert.Len(t, counter.codes, 1)
}
