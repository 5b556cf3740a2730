package redis

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"gradelink/backend/config"
)

// Client Redis 客户端封装
// 当前承担两个职责：审计事件流（fire-and-forget）与导出接口限流
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

// ── 审计事件流 ──

const auditStream = "gradelink:audit"

// PublishAudit 将审计事件写入 Redis Stream
// 发布失败只记日志不返回错误，审计属于 fire-and-forget 通道
func (c *Client) PublishAudit(ctx context.Context, event string, fields map[string]interface{}) {
	values := map[string]interface{}{
		"event": event,
		"time":  time.Now().Unix(),
	}
	for k, v := range fields {
		values[k] = v
	}

	if err := c.rdb.XAdd(ctx, &goredis.XAddArgs{
		Stream: auditStream,
		MaxLen: 10000,
		Approx: true,
		Values: values,
	}).Err(); err != nil {
		c.logger.Warn("审计事件写入失败", zap.String("event", event), zap.Error(err))
	}
}

// ── 限流 ──

// CheckRateLimit 固定窗口限流，窗口内计数超过 limit 返回 false
func (c *Client) CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	count, err := c.rdb.Incr(ctx, key).Result()
	if err != nil {
		return false, err
	}
	if count == 1 {
		// 首次计数时设置窗口过期
		if err := c.rdb.Expire(ctx, key, window).Err(); err != nil {
			return false, err
		}
	}
	return count <= int64(limit), nil
}

// Close 关闭 Redis 连接
func (c *Client) Close() error {
	return c.rdb.Close()
}
