// Package cache signals that a tenant's cached lists are stale. Each
// (tenant, topic) pair has a generation counter in Redis; readers that key
// their caches by generation see fresh data as soon as it is bumped.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/diewo77/stock-ledger/internal/ledger"
	"github.com/redis/go-redis/v9"
)

// Message is published on the invalidation channel.
type Message struct {
	TenantID   uint         `json:"tenant_id"`
	Topic      ledger.Topic `json:"topic"`
	Generation int64        `json:"generation"`
	At         time.Time    `json:"at"`
}

func generationKey(tenantID uint, topic ledger.Topic) string {
	return fmt.Sprintf("ledger:%d:%s:gen", tenantID, topic)
}

// RedisInvalidator bumps the generation key and publishes a Message.
type RedisInvalidator struct {
	client  *redis.Client
	channel string
}

func NewRedisInvalidator(client *redis.Client, channel string) *RedisInvalidator {
	return &RedisInvalidator{client: client, channel: channel}
}

func (r *RedisInvalidator) Invalidate(ctx context.Context, tenantID uint, topic ledger.Topic) error {
	gen, err := r.client.Incr(ctx, generationKey(tenantID, topic)).Result()
	if err != nil {
		return fmt.Errorf("bump generation %s/%d: %w", topic, tenantID, err)
	}
	payload, err := json.Marshal(Message{TenantID: tenantID, Topic: topic, Generation: gen, At: time.Now().UTC()})
	if err != nil {
		return err
	}
	if err := r.client.Publish(ctx, r.channel, payload).Err(); err != nil {
		return fmt.Errorf("publish invalidation %s/%d: %w", topic, tenantID, err)
	}
	return nil
}
