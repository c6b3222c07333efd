package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"giveaway-rewards/backend/config"
)

// Client Redis 客户端封装
// 用于接口限流与积分重复动作抑制；Redis 不可用时调用方降级放行
type Client struct {
	rdb    *goredis.Client
	logger *zap.Logger
}

// NewClient 创建 Redis 连接并执行 Ping 健康检查
func NewClient(cfg *config.RedisConfig, logger *zap.Logger) (*Client, error) {
	rdb := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("Redis 连接失败: %w", err)
	}

	logger.Info("Redis 连接成功", zap.String("addr", cfg.Addr))

	return &Client{rdb: rdb, logger: logger}, nil
}

// Ping 健康检查
func (c *Client) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

// ── 滑动窗口限流 ──

// slidingWindowScript 清理窗口外成员、计数、未超限时记录本次请求，整体原子执行
// KEYS[1]=限流键 ARGV: 窗口起点 当前时间 上限 成员 过期毫秒
var slidingWindowScript = goredis.NewScript(`
redis.call('ZREMRANGEBYSCORE', KEYS[1], '-inf', ARGV[1])
if redis.call('ZCARD', KEYS[1]) >= tonumber(ARGV[3]) then
	return 0
end
redis.call('ZADD', KEYS[1], ARGV[2], ARGV[4])
redis.call('PEXPIRE', KEYS[1], ARGV[5])
return 1
`)

// CheckRateLimit 基于有序集合的滑动窗口计数
// 分值为微秒时间戳；并发请求在脚本内串行，不会同时越过上限
func (c *Client) CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	now := time.Now()
	windowStart := now.Add(-window)

	allowed, err := slidingWindowScript.Run(ctx, c.rdb, []string{key},
		strconv.FormatInt(windowStart.UnixMicro(), 10),
		strconv.FormatInt(now.UnixMicro(), 10),
		limit,
		uuid.NewString(),
		(window + time.Second).Milliseconds(),
	).Int()
	if err != nil {
		return false, fmt.Errorf("限流检查失败: %w", err)
	}
	return allowed == 1, nil
}

// ── 重复动作抑制 ──

// ClaimOnce 在 ttl 内首次调用返回 true，之后返回 false
func (c *Client) ClaimOnce(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	if ttl <= 0 {
		return true, nil
	}
	ok, err := c.rdb.SetNX(ctx, key, "1", ttl).Result()
	if err != nil {
		return false, fmt.Errorf("写入去重标记失败: %w", err)
	}
	return ok, nil
}

// Release 删除去重标记，发放失败时调用以便用户重试
func (c *Client) Release(ctx context.Context, key string) error {
	return c.rdb.Del(ctx, key).Err()
}

// Close 关闭 Redis 连接
func (c *Client) Close() error {
	return c.rdb.Close()
}
