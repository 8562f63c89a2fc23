package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/bankiq/backend/internal/metrics"
	"github.com/bankiq/backend/pkg/logger"
)

const metricsDashboardKey = "metrics:dashboard"

// Client caches expensive dashboard aggregates. The engine runs fine
// without it; callers treat every failure as a miss.
type Client struct {
	client *redis.Client
}

func NewClient(host string, port int, password string, db int) (*Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", host, port),
		Password: password,
		DB:       db,
	})

	ctx := context.Background()
	_, err := client.Ping(ctx).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	logger.Info("Redis client initialized", zap.String("addr", fmt.Sprintf("%s:%d", host, port)))

	return &Client{client: client}, nil
}

func (c *Client) Close() error {
	return c.client.Close()
}

// GetMetrics loads the cached business-metrics payload into dest. The
// second return is false on a miss.
func (c *Client) GetMetrics(ctx context.Context, dest interface{}) (bool, error) {
	data, err := c.client.Get(ctx, metricsDashboardKey).Bytes()
	if err == redis.Nil {
		metrics.CacheMisses.WithLabelValues("business_metrics").Inc()
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to get metrics cache: %w", err)
	}

	if err := json.Unmarshal(data, dest); err != nil {
		return false, fmt.Errorf("failed to unmarshal cached metrics: %w", err)
	}

	metrics.CacheHits.WithLabelValues("business_metrics").Inc()
	logger.Debug("Business metrics cache hit")
	return true, nil
}

// SetMetrics stores the business-metrics payload under the dashboard key.
func (c *Client) SetMetrics(ctx context.Context, payload interface{}, ttl time.Duration) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal metrics: %w", err)
	}

	if err := c.client.Set(ctx, metricsDashboardKey, data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to set metrics cache: %w", err)
	}

	logger.Debug("Business metrics cached", zap.Duration("ttl", ttl))
	return nil
}

// InvalidateMetrics drops the cached dashboard payload, forcing the next
// read to recompute.
func (c *Client) InvalidateMetrics(ctx context.Context) error {
	if err := c.client.Del(ctx, metricsDashboardKey).Err(); err != nil {
		return fmt.Errorf("failed to invalidate metrics cache: %w", err)
	}
	logger.Info("Business metrics cache invalidated")
	return nil
}
