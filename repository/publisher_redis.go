package repository

import (
	"context"
	"encoding/json"
	"log"

	redis "github.com/redis/go-redis/v9"

	"github.com/ouyangvase/task-sync-pilot-sub000/services"
)

// EventChannel is the Redis pub/sub channel domain events go out on.
const EventChannel = "taskboard:events"

// RedisPublisher pushes domain events to Redis pub/sub for whatever refresh
// transport the dashboard uses. Publishing is best-effort: a Redis outage is
// logged and swallowed, never surfaced into the mutation path.
type RedisPublisher struct {
	client *redis.Client
}

func NewRedisPublisher(client *redis.Client) *RedisPublisher {
	return &RedisPublisher{client: client}
}

func (p *RedisPublisher) Publish(ctx context.Context, event services.Event) {
	if p.client == nil {
		return
	}
	payload, err := json.Marshal(event)
	if err != nil {
		log.Printf("[events] marshal %s: %v", event.Type, err)
		return
	}
	if err := p.client.Publish(ctx, EventChannel, payload).Err(); err != nil {
		log.Printf("[events] publish %s: %v", event.Type, err)
	}
}
