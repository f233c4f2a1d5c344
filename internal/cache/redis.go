package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Пространства ключей. Namespace analytics:{key} закреплён за
// security-коллаборатором и здесь не используется.
const (
	urlKeyPrefix    = "url:"
	clicksKeyPrefix = "clicks:"
)

var usedMemoryRe = regexp.MustCompile(`used_memory_human:([^\r\n]+)`)

// RedisCache реализует Cache поверх go-redis.
type RedisCache struct {
	client *redis.Client
	logger *zap.Logger
}

// NewClient создаёт клиент Redis с таймаутами подключения и команд.
// Клиент — общий ресурс процесса, создаётся один раз в main.
func NewClient(addr, password string, db int) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		DialTimeout:  10 * time.Second,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
	})
}

// NewRedisCache создаёт кеш поверх готового клиента.
func NewRedisCache(client *redis.Client, logger *zap.Logger) *RedisCache {
	return &RedisCache{client: client, logger: logger}
}

func urlKey(code string) string {
	return urlKeyPrefix + code
}

func clicksKey(code string) string {
	return clicksKeyPrefix + code
}

func ownerKey(owner string) string {
	return fmt.Sprintf("user:%s:urls", owner)
}

// Get возвращает кешированную запись или nil.
// Ошибки транспорта трактуются как промах.
func (c *RedisCache) Get(ctx context.Context, code string) *Entry {
	val, err := c.client.Get(ctx, urlKey(code)).Result()
	if err != nil {
		if err != redis.Nil {
			c.logger.Warn("cache get failed, treating as miss",
				zap.String("code", code), zap.Error(err))
		}
		return nil
	}

	entry := &Entry{}
	if err := json.Unmarshal([]byte(val), entry); err != nil {
		c.logger.Warn("cache entry is corrupted, treating as miss",
			zap.String("code", code), zap.Error(err))
		return nil
	}
	return entry
}

// Put сохраняет запись с TTL. Если у ссылки есть владелец, код
// дополнительно попадает в множество его ссылок.
func (c *RedisCache) Put(ctx context.Context, code string, entry *Entry, ttl time.Duration) {
	data, err := json.Marshal(entry)
	if err != nil {
		c.logger.Error("cache entry marshal failed", zap.String("code", code), zap.Error(err))
		return
	}

	if err := c.client.Set(ctx, urlKey(code), data, ttl).Err(); err != nil {
		c.logger.Warn("cache put failed", zap.String("code", code), zap.Error(err))
		return
	}

	if entry.Owner != nil {
		if err := c.client.SAdd(ctx, ownerKey(*entry.Owner), code).Err(); err != nil {
			c.logger.Warn("cache owner set update failed",
				zap.String("code", code), zap.Error(err))
		}
	}
}

// IncrementClicks атомарно увеличивает счётчик clicks:{code}.
// Счётчик не дублирует click_count в БД и с ним не сверяется;
// его выгребание — забота внешних дашбордов.
func (c *RedisCache) IncrementClicks(ctx context.Context, code string) int64 {
	count, err := c.client.Incr(ctx, clicksKey(code)).Result()
	if err != nil {
		c.logger.Warn("cache click increment failed",
			zap.String("code", code), zap.Error(err))
		return 0
	}
	return count
}

// Invalidate удаляет запись и счётчик кода.
func (c *RedisCache) Invalidate(ctx context.Context, code string) {
	if err := c.client.Del(ctx, urlKey(code), clicksKey(code)).Err(); err != nil {
		c.logger.Warn("cache invalidate failed", zap.String("code", code), zap.Error(err))
	}
}

// HealthStatus опрашивает Redis: PING, память, количество ключей.
func (c *RedisCache) HealthStatus(ctx context.Context) Health {
	if err := c.client.Ping(ctx).Err(); err != nil {
		c.logger.Warn("cache health check failed", zap.Error(err))
		return Health{Connected: false}
	}

	health := Health{Connected: true}

	if info, err := c.client.Info(ctx, "memory").Result(); err == nil {
		if m := usedMemoryRe.FindStringSubmatch(info); len(m) == 2 {
			health.MemoryUsed = m[1]
		}
	}
	if size, err := c.client.DBSize(ctx).Result(); err == nil {
		health.KeyCount = size
	}

	return health
}
