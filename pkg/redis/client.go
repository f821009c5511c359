package redis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/stockflowhq/stockflow-backend/pkg/config"
	"github.com/stockflowhq/stockflow-backend/pkg/logger"
)

const (
	keyNamespace   = "sf"
	scanSetPrefix  = "scan_consumed"
	scanSetTTLDays = 30
)

// Client wraps the redis connection used for scan fast paths and health checks.
type Client struct {
	raw *redis.Client
}

// Pinger exposes the health-check surface.
type Pinger interface {
	Ping(context.Context) error
}

// New bootstraps a Redis client with pooling/timeouts and verifies connectivity.
func New(ctx context.Context, cfg config.RedisConfig, logg *logger.Logger) (*Client, error) {
	opts, err := optionsFromConfig(cfg)
	if err != nil {
		return nil, err
	}
	raw := redis.NewClient(opts)
	if err := raw.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	if logg != nil {
		logg.Info(ctx, "redis connection established")
	}
	return &Client{raw: raw}, nil
}

func optionsFromConfig(cfg config.RedisConfig) (*redis.Options, error) {
	if cfg.URL == "" && cfg.Address == "" {
		return nil, errors.New("redis url or address is required")
	}

	if cfg.URL != "" {
		opts, err := redis.ParseURL(strings.TrimSpace(cfg.URL))
		if err != nil {
			return nil, fmt.Errorf("parse redis url: %w", err)
		}
		applyPoolSettings(opts, cfg)
		return opts, nil
	}

	opts := &redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	}
	applyPoolSettings(opts, cfg)
	return opts, nil
}

func applyPoolSettings(opts *redis.Options, cfg config.RedisConfig) {
	if cfg.PoolSize > 0 {
		opts.PoolSize = cfg.PoolSize
	}
	if cfg.MinIdleConns > 0 {
		opts.MinIdleConns = cfg.MinIdleConns
	}
	if cfg.DialTimeout > 0 {
		opts.DialTimeout = cfg.DialTimeout
	}
	if cfg.ReadTimeout > 0 {
		opts.ReadTimeout = cfg.ReadTimeout
	}
	if cfg.WriteTimeout > 0 {
		opts.WriteTimeout = cfg.WriteTimeout
	}
}

// Ping verifies connectivity.
func (c *Client) Ping(ctx context.Context) error {
	if c == nil || c.raw == nil {
		return errors.New("redis client not initialized")
	}
	return c.raw.Ping(ctx).Err()
}

// Close releases pooled connections.
func (c *Client) Close() error {
	if c == nil || c.raw == nil {
		return nil
	}
	return c.raw.Close()
}

func scanSetKey(orderID string) string {
	return fmt.Sprintf("%s:%s:%s", keyNamespace, scanSetPrefix, orderID)
}

// MarkBarcodeConsumed records an accepted barcode in the per-order set. The
// set is a fast duplicate-rejection path only; the database unique constraint
// remains the source of truth.
func (c *Client) MarkBarcodeConsumed(ctx context.Context, orderID, barcode string) error {
	if c == nil || c.raw == nil {
		return nil
	}
	key := scanSetKey(orderID)
	pipe := c.raw.TxPipeline()
	pipe.SAdd(ctx, key, barcode)
	pipe.Expire(ctx, key, scanSetTTLDays*24*time.Hour)
	_, err := pipe.Exec(ctx)
	return err
}

// SeedConsumedBarcodes replaces the per-order set with the given members.
func (c *Client) SeedConsumedBarcodes(ctx context.Context, orderID string, barcodes []string) error {
	if c == nil || c.raw == nil || len(barcodes) == 0 {
		return nil
	}
	key := scanSetKey(orderID)
	members := make([]any, len(barcodes))
	for i, b := range barcodes {
		members[i] = b
	}
	pipe := c.raw.TxPipeline()
	pipe.SAdd(ctx, key, members...)
	pipe.Expire(ctx, key, scanSetTTLDays*24*time.Hour)
	_, err := pipe.Exec(ctx)
	return err
}

// IsBarcodeConsumed reports whether the barcode is in the per-order set. A
// negative answer is not authoritative; callers must still go through the
// transactional path.
func (c *Client) IsBarcodeConsumed(ctx context.Context, orderID, barcode string) (bool, error) {
	if c == nil || c.raw == nil {
		return false, nil
	}
	return c.raw.SIsMember(ctx, scanSetKey(orderID), barcode).Result()
}
