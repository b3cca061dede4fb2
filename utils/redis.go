package utils

import (
	"context"
	"log"
	"os"
	"strconv"
	"strings"

	redis "github.com/redis/go-redis/v9"
)

// NewRedisClient builds the optional shared Redis client used for event
// publishing. Returns nil when REDIS_ADDR is unset; callers must tolerate a
// nil client. A failed ping is logged but does not abort startup.
func NewRedisClient() *redis.Client {
	addr := strings.TrimSpace(os.Getenv("REDIS_ADDR"))
	if addr == "" {
		return nil
	}
	opts := &redis.Options{Addr: addr}
	if p := os.Getenv("REDIS_PASS"); p != "" {
		opts.Password = p
	}
	if dbStr := os.Getenv("REDIS_DB"); dbStr != "" {
		if n, err := strconv.Atoi(dbStr); err == nil {
			opts.DB = n
		}
	}
	client := redis.NewClient(opts)
	if err := client.Ping(context.Background()).Err(); err != nil {
		log.Printf("[redis] ping failed: %v", err)
	}
	return client
}
