package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"learning-circle/backend/config"
)

// Client Redis 客户端封装
// 用于 Token 黑名单、接口限流与加入码错误次数统计
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
		return nil, fmt.Errorf("Redis 连接失败: %w", err)
	}

	logger.Info("Redis 连接成功", zap.String("addr", cfg.Addr))

	return &Client{rdb: rdb, logger: logger}, nil
}

// ── Token 黑名单 ──

const blacklistPrefix = "token:blacklist:"

// IsBlacklisted 检查 JWT ID 是否在黑名单中（黑名单由签发方写入）
func (c *Client) IsBlacklisted(ctx context.Context, jti string) (bool, error) {
	n, err := c.rdb.Exists(ctx, blacklistPrefix+jti).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// ── 滑动窗口限流 ──

// CheckRateLimit 基于有序集合的滑动窗口计数
// 窗口内请求数未超过 limit 时返回 true，并记录本次请求
func (c *Client) CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	now := time.Now()
	minScore := strconv.FormatInt(now.Add(-window).UnixNano(), 10)

	pipe := c.rdb.TxPipeline()
	pipe.ZRemRangeByScore(ctx, key, "0", "("+minScore)
	count := pipe.ZCard(ctx, key)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, err
	}

	if count.Val() >= int64(limit) {
		return false, nil
	}

	pipe = c.rdb.TxPipeline()
	pipe.ZAdd(ctx, key, goredis.Z{Score: float64(now.UnixNano()), Member: uuid.NewString()})
	pipe.Expire(ctx, key, window)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, err
	}
	return true, nil
}

// ── 加入码错误次数 ──

// JoinAttemptKey 单个用户在单次聚会上的加入码错误计数键
func JoinAttemptKey(meetID, userID string) string {
	return "lc:join_attempts:" + meetID + ":" + userID
}

// JoinAttempts 读取当前窗口内的错误次数
func (c *Client) JoinAttempts(ctx context.Context, meetID, userID string) (int, error) {
	n, err := c.rdb.Get(ctx, JoinAttemptKey(meetID, userID)).Int()
	if err == goredis.Nil {
		return 0, nil
	}
	return n, err
}

// RecordFailedJoin 记录一次错误并返回累计次数；首次记录时设置窗口过期时间
func (c *Client) RecordFailedJoin(ctx context.Context, meetID, userID string, window time.Duration) (int, error) {
	key := JoinAttemptKey(meetID, userID)
	n, err := c.rdb.Incr(ctx, key).Result()
	if err != nil {
		return 0, err
	}
	if n == 1 {
		if err := c.rdb.Expire(ctx, key, window).Err(); err != nil {
			c.logger.Warn("设置加入码计数过期时间失败", zap.String("key", key), zap.Error(err))
		}
	}
	return int(n), nil
}

// ResetJoinAttempts 加入成功后清零计数
func (c *Client) ResetJoinAttempts(ctx context.Context, meetID, userID string) error {
	return c.rdb.Del(ctx, JoinAttemptKey(meetID, userID)).Err()
}

// Close 关闭 Redis 连接
func (c *Client) Close() error {
	return c.rdb.Close()
}
