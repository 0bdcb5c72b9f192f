package ws

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// StartRedisSubscriber assina os canais de ciclo de vida no Redis Pub/Sub e
// repassa cada mensagem para os clientes WebSocket inscritos no mesmo canal.
// Retorna um canal fechado quando a goroutine termina.
func StartRedisSubscriber(ctx context.Context, r *redis.Client, hub *Hub, log *zap.Logger, channels ...string) <-chan struct{} {
	sub := r.Subscribe(ctx, channels...)
	done := make(chan struct{})
	go func() {
		defer close(done)
		defer sub.Close()
		forward(ctx, sub.Channel(), hub, log)
	}()
	return done
}

func forward(ctx context.Context, ch <-chan *redis.Message, hub *Hub, log *zap.Logger) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			if msg == nil {
				continue
			}
			if !json.Valid([]byte(msg.Payload)) {
				log.Warn("ws subscriber invalid payload", zap.String("channel", msg.Channel))
				continue
			}
			hub.Broadcast(Update{Channel: msg.Channel, Payload: json.RawMessage(msg.Payload)})
		}
	}
}
