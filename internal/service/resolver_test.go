package service_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/Totarae/Bitlytics/internal/cache"
	"github.com/Totarae/Bitlytics/internal/clicks"
	"github.com/Totarae/Bitlytics/internal/model"
	"github.com/Totarae/Bitlytics/internal/repositories"
	"github.com/Totarae/Bitlytics/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeRepo — хранилище в памяти вместо PostgreSQL.
type fakeRepo struct {
	mu           sync.Mutex
	links        map[string]*model.ShortLink
	getErr       error
	existsErr    error
	collisions   int // первые N проверок LinkExists отвечают "занято"
	existsCalls  int
	nextID       uint64
	clickEvents  []*model.ClickEvent
	increments   []uint64
	saveClickErr error
	incrementErr error
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{links: make(map[string]*model.ShortLink)}
}

func (r *fakeRepo) GetLink(ctx context.Context, code string) (*model.ShortLink, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.getErr != nil {
		return nil, r.getErr
	}
	link, ok := r.links[code]
	if !ok {
		return nil, nil
	}
	cp := *link
	return &cp, nil
}

func (r *fakeRepo) LinkExists(ctx context.Context, code string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.existsErr != nil {
		return false, r.existsErr
	}
	r.existsCalls++
	if r.existsCalls <= r.collisions {
		return true, nil
	}
	_, ok := r.links[code]
	return ok, nil
}

func (r *fakeRepo) SaveLink(ctx context.Context, link *model.ShortLink) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.links[link.Code]; ok {
		return repositories.ErrDuplicateCode
	}
	r.nextID++
	link.ID = r.nextID
	cp := *link
	r.links[link.Code] = &cp
	return nil
}

func (r *fakeRepo) SaveClick(ctx context.Context, click *model.ClickEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.saveClickErr != nil {
		return r.saveClickErr
	}
	r.clickEvents = append(r.clickEvents, click)
	return nil
}

func (r *fakeRepo) IncrementClickCount(ctx context.Context, id uint64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.incrementErr != nil {
		return r.incrementErr
	}
	r.increments = append(r.increments, id)
	return nil
}

func (r *fakeRepo) deactivate(code string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.links[code].Active = false
}

// fakeCache — замена Redis: тот же контракт get/put/incr/invalidate,
// failing=true имитирует недоступность транспорта.
type fakeCache struct {
	mu      sync.Mutex
	entries map[string]*cache.Entry
	clicks  map[string]int64
	failing bool
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: make(map[string]*cache.Entry), clicks: make(map[string]int64)}
}

func (c *fakeCache) Get(ctx context.Context, code string) *cache.Entry {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failing {
		return nil
	}
	return c.entries[code]
}

func (c *fakeCache) Put(ctx context.Context, code string, entry *cache.Entry, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failing {
		return
	}
	c.entries[code] = entry
}

func (c *fakeCache) IncrementClicks(ctx context.Context, code string) int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failing {
		return 0
	}
	c.clicks[code]++
	return c.clicks[code]
}

func (c *fakeCache) Invalidate(ctx context.Context, code string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, code)
	delete(c.clicks, code)
}

func (c *fakeCache) HealthStatus(ctx context.Context) cache.Health {
	return cache.Health{Connected: !c.failing}
}

// syncTracker выполняет задачи немедленно — детерминизм в тестах.
type syncTracker struct{}

func (syncTracker) Submit(task func(ctx context.Context)) {
	task(context.Background())
}

func newResolver(repo *fakeRepo, c *fakeCache) *service.Resolver {
	recorder := clicks.NewRecorder(repo, c, zap.NewNop())
	return service.NewResolver(repo, c, recorder, syncTracker{}, zap.NewNop(), time.Hour)
}

func seedLink(repo *fakeRepo, code, destination string) *model.ShortLink {
	link := &model.ShortLink{
		Code:        code,
		Destination: destination,
		Active:      true,
		Created:     time.Now(),
		Updated:     time.Now(),
	}
	_ = repo.SaveLink(context.Background(), link)
	return link
}

func TestResolve_CacheMiss(t *testing.T) {
	repo := newFakeRepo()
	c := newFakeCache()
	seedLink(repo, "abc123", "https://example.com/")

	dest, err := newResolver(repo, c).Resolve(context.Background(), "abc123", model.ClickMeta{ClientAddr: "203.0.113.7"})
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/", dest)

	// промах заполняет кеш
	entry := c.Get(context.Background(), "abc123")
	require.NotNil(t, entry)
	assert.Equal(t, "https://example.com/", entry.Destination)

	// клик учтён: событие, durable-счётчик, эфемерный счётчик
	assert.Len(t, repo.clickEvents, 1)
	assert.Len(t, repo.increments, 1)
	assert.Equal(t, int64(1), c.clicks["abc123"])
}

func TestResolve_CacheHit(t *testing.T) {
	repo := newFakeRepo()
	c := newFakeCache()
	seedLink(repo, "abc123", "https://example.com/")
	c.Put(context.Background(), "abc123", &cache.Entry{Destination: "https://example.com/"}, time.Hour)

	dest, err := newResolver(repo, c).Resolve(context.Background(), "abc123", model.ClickMeta{})
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/", dest)

	// фоновая задача добрала запись из БД и записала клик
	assert.Len(t, repo.clickEvents, 1)
	assert.Equal(t, []uint64{1}, repo.increments)
}

// Полная очистка кеша меняет только латентность, не результат
func TestResolve_CacheClearedSameOutcome(t *testing.T) {
	repo := newFakeRepo()
	c := newFakeCache()
	seedLink(repo, "abc123", "https://example.com/")
	resolver := newResolver(repo, c)

	first, err := resolver.Resolve(context.Background(), "abc123", model.ClickMeta{})
	require.NoError(t, err)

	c.Invalidate(context.Background(), "abc123")

	second, err := resolver.Resolve(context.Background(), "abc123", model.ClickMeta{})
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

// Кеш лёг целиком — резолв обязан пройти через durable-хранилище
func TestResolve_FailOpenOnCacheOutage(t *testing.T) {
	repo := newFakeRepo()
	c := newFakeCache()
	c.failing = true
	seedLink(repo, "abc123", "https://example.com/")

	dest, err := newResolver(repo, c).Resolve(context.Background(), "abc123", model.ClickMeta{})
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/", dest)
}

func TestResolve_UnknownCode(t *testing.T) {
	repo := newFakeRepo()
	_, err := newResolver(repo, newFakeCache()).Resolve(context.Background(), "missing", model.ClickMeta{})
	assert.ErrorIs(t, err, service.ErrNotFound)
}

func TestResolve_InactiveLink(t *testing.T) {
	repo := newFakeRepo()
	seedLink(repo, "abc123", "https://example.com/")
	repo.deactivate("abc123")

	_, err := newResolver(repo, newFakeCache()).Resolve(context.Background(), "abc123", model.ClickMeta{})
	assert.ErrorIs(t, err, service.ErrNotFound)
}

func TestResolve_ExpiredLink(t *testing.T) {
	repo := newFakeRepo()
	link := seedLink(repo, "abc123", "https://example.com/")
	past := time.Now().Add(-time.Minute)
	repo.links[link.Code].ExpiresAt = &past

	_, err := newResolver(repo, newFakeCache()).Resolve(context.Background(), "abc123", model.ClickMeta{})
	assert.ErrorIs(t, err, service.ErrNotFound)
}

// Устаревшее кеш-попадание в пределах TTL — принятая слабость модели,
// а не дефект: корректность durable-хранилища видна после инвалидации.
func TestResolve_StaleHitUntilInvalidated(t *testing.T) {
	repo := newFakeRepo()
	c := newFakeCache()
	seedLink(repo, "abc123", "https://example.com/")
	resolver := newResolver(repo, c)

	_, err := resolver.Resolve(context.Background(), "abc123", model.ClickMeta{})
	require.NoError(t, err)

	repo.deactivate("abc123")

	// запись ещё в кеше — редирект отдаётся
	dest, err := resolver.Resolve(context.Background(), "abc123", model.ClickMeta{})
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/", dest)

	// после явной инвалидации гейтинг по active виден сразу
	resolver.Invalidate(context.Background(), "abc123")
	_, err = resolver.Resolve(context.Background(), "abc123", model.ClickMeta{})
	assert.ErrorIs(t, err, service.ErrNotFound)
}

// Отказ обязательного обращения к БД — единственная видимая снаружи
// инфраструктурная ошибка резолва
func TestResolve_StoreDownOnMandatoryLookup(t *testing.T) {
	repo := newFakeRepo()
	repo.getErr = errors.New("connection refused")

	_, err := newResolver(repo, newFakeCache()).Resolve(context.Background(), "abc123", model.ClickMeta{})
	require.Error(t, err)
	assert.NotErrorIs(t, err, service.ErrNotFound)
}

// Сбой учёта кликов не влияет на исход редиректа
func TestResolve_ClickAccountingFailureTolerated(t *testing.T) {
	repo := newFakeRepo()
	repo.saveClickErr = errors.New("insert failed")
	repo.incrementErr = errors.New("update failed")
	c := newFakeCache()
	seedLink(repo, "abc123", "https://example.com/")

	dest, err := newResolver(repo, c).Resolve(context.Background(), "abc123", model.ClickMeta{})
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/", dest)
}

// Отказ фонового пути после кеш-попадания невидим для клиента
func TestResolve_BackgroundLookupFailureInvisible(t *testing.T) {
	repo := newFakeRepo()
	c := newFakeCache()
	c.Put(context.Background(), "abc123", &cache.Entry{Destination: "https://example.com/"}, time.Hour)
	repo.getErr = errors.New("connection refused")

	dest, err := newResolver(repo, c).Resolve(context.Background(), "abc123", model.ClickMeta{})
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/", dest)
	assert.Empty(t, repo.clickEvents)
}
