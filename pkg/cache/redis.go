package cache

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/LaurentK2002/exhibit-flow-guardian-sub000/pkg/config"
)

// ClientName identifies notification publishers in CLIENT LIST.
const ClientName = "exhibit-flow-notify"

// Options maps cfg onto a client sized for the notification publisher: a
// small pool, short write deadlines and context-driven timeouts so a slow
// broker never holds a publishing worker for long.
func Options(cfg config.RedisConfig) *redis.Options {
	poolSize := cfg.PoolSize
	if poolSize <= 0 {
		poolSize = 4
	}
	return &redis.Options{
		Addr:                  net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
		Password:              cfg.Password,
		DB:                    cfg.DB,
		ClientName:            ClientName,
		PoolSize:              poolSize,
		DialTimeout:           3 * time.Second,
		WriteTimeout:          2 * time.Second,
		ContextTimeoutEnabled: true,
	}
}

// NewRedis returns a connected client or an error naming the address.
func NewRedis(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	opts := Options(cfg)
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis %s: %w", opts.Addr, err)
	}
	return client, nil
}
