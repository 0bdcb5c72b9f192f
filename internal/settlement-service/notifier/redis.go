// Package notifier publica notificações de ciclo de vida num fan-out por canal.
package notifier

import (
	"context"

	"github.com/redis/go-redis/v9"
)

// Redis publica via Redis Pub/Sub (fire-and-forget: sem assinante a mensagem se perde)
type Redis struct {
	r *redis.Client
}

func NewRedis(r *redis.Client) *Redis {
	return &Redis{r: r}
}

func (n *Redis) Publish(ctx context.Context, channel string, payload []byte) error {
	return n.r.Publish(ctx, channel, payload).Err()
}
