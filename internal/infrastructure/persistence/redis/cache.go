package redis

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"

	"book-factory/pkg/metrics"
)

// TextCache 缓存 LLM 生成的短文本（向导点评、字段建议）
type TextCache struct {
	client *Client
	name   string
	ttl    time.Duration
	group  singleflight.Group
}

// NewTextCache 创建文本缓存，name 作为 key 前缀与指标标签
func NewTextCache(client *Client, name string, ttl time.Duration) *TextCache {
	return &TextCache{client: client, name: name, ttl: ttl}
}

// Key 由若干输入片段构造缓存键，输入可能很长所以取摘要
func (c *TextCache) Key(parts ...string) string {
	sum := sha1.Sum([]byte(strings.Join(parts, "\x1f")))
	return "cache:" + c.name + ":" + hex.EncodeToString(sum[:])
}

// GetOrLoad 读穿缓存：命中直接返回，未命中时用 singleflight 合并并发加载。
// Redis 故障只记录，不影响 loader 的结果。
func (c *TextCache) GetOrLoad(ctx context.Context, key string, loader func(ctx context.Context) (string, error)) (string, error) {
	ctx, span := tracer.Start(ctx, "cache.GetOrLoad",
		trace.WithAttributes(attribute.String("cache.key", key)))
	defer span.End()

	val, err := c.client.rdb.Get(ctx, key).Result()
	switch {
	case err == nil:
		span.SetAttributes(attribute.Bool("cache.hit", true))
		metrics.CacheLookups.WithLabelValues(c.name, "hit").Inc()
		return val, nil
	case errors.Is(err, redis.Nil):
		metrics.CacheLookups.WithLabelValues(c.name, "miss").Inc()
	default:
		span.RecordError(err)
		metrics.CacheLookups.WithLabelValues(c.name, "error").Inc()
	}
	span.SetAttributes(attribute.Bool("cache.hit", false))

	result, err, shared := c.group.Do(key, func() (any, error) {
		text, err := loader(ctx)
		if err != nil {
			return "", err
		}
		if text != "" {
			if setErr := c.client.rdb.Set(ctx, key, text, c.ttl).Err(); setErr != nil {
				span.RecordError(setErr)
			}
		}
		return text, nil
	})
	span.SetAttributes(attribute.Bool("cache.shared", shared))
	if err != nil {
		span.RecordError(err)
		return "", err
	}
	return result.(string), nil
}
