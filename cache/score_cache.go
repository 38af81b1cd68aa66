package cache

import (
	"context"
	"errors"
	"time"

	"Chordbook/logger"

	"github.com/go-redis/redis/v8"
)

const scoreKeyPrefix = "score:raw:"

// ScoreCache 缓存曲目最新一份乐谱的原始 JSON
type ScoreCache struct {
	client     redis.Cmdable
	ttl        time.Duration
	maxRetries int
	retryDelay time.Duration
}

// NewScoreCache client 为 nil 时使用全局 RedisClient
func NewScoreCache(client redis.Cmdable, ttl time.Duration) *ScoreCache {
	if client == nil {
		client = RedisClient
	}
	return &ScoreCache{
		client:     client,
		ttl:        ttl,
		maxRetries: 2,
		retryDelay: 100 * time.Millisecond,
	}
}

// ScoreKey 乐谱缓存键
func ScoreKey(trackID string) string {
	return scoreKeyPrefix + trackID
}

// Get 缓存未命中返回 (nil, nil)，其他错误按指数退避重试
func (c *ScoreCache) Get(ctx context.Context, trackID string) ([]byte, error) {
	key := ScoreKey(trackID)
	delay := c.retryDelay

	var lastErr error
	for attempt := 0; attempt < c.maxRetries; attempt++ {
		data, err := c.client.Get(ctx, key).Bytes()
		if err == nil {
			logger.Debug("乐谱缓存命中",
				logger.String("key", key),
				logger.Int("dataSize", len(data)))
			return data, nil
		}
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}

		lastErr = err
		if attempt < c.maxRetries-1 {
			logger.Warn("获取乐谱缓存失败，准备重试",
				logger.String("key", key),
				logger.Int("attempt", attempt+1),
				logger.ErrorField(err))

			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
			delay *= 2
		}
	}

	logger.Error("获取乐谱缓存最终失败",
		logger.String("key", key),
		logger.Int("totalAttempts", c.maxRetries),
		logger.ErrorField(lastErr))
	return nil, lastErr
}

// Set 写入缓存
func (c *ScoreCache) Set(ctx context.Context, trackID string, data []byte) error {
	key := ScoreKey(trackID)
	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		logger.Error("设置乐谱缓存失败",
			logger.String("key", key),
			logger.Int("dataSize", len(data)),
			logger.ErrorField(err))
		return err
	}
	return nil
}

// Delete 删除缓存
func (c *ScoreCache) Delete(ctx context.Context, trackID string) error {
	key := ScoreKey(trackID)
	if err := c.client.Del(ctx, key).Err(); err != nil {
		logger.Error("删除乐谱缓存失败",
			logger.String("key", key),
			logger.ErrorField(err))
		return err
	}
	return nil
}
