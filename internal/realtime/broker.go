package realtime

import (
	"context"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const channelPrefix = "realtime:"

// RedisBroker публикует через Redis pub/sub, а Run пересылает всё
// полученное в локальный Hub: так события видят клиенты всех инстансов.
type RedisBroker struct {
	rdb    *redis.Client
	hub    *Hub
	logger *zap.Logger
}

func NewRedisBroker(rdb *redis.Client, hub *Hub, logger *zap.Logger) *RedisBroker {
	return &RedisBroker{rdb: rdb, hub: hub, logger: logger}
}

func (b *RedisBroker) Publish(ctx context.Context, topic string, payload any) error {
	frame, err := encode(topic, payload)
	if err != nil {
		return err
	}
	if err := b.rdb.Publish(ctx, channelPrefix+topic, frame).Err(); err != nil {
		return fmt.Errorf("redis publish %s: %w", topic, err)
	}
	return nil
}

// Run блокируется до отмены ctx. ready закрывается после подписки.
func (b *RedisBroker) Run(ctx context.Context, ready chan<- struct{}) error {
	ps := b.rdb.PSubscribe(ctx, channelPrefix+"*")
	defer ps.Close()
	if _, err := ps.Receive(ctx); err != nil {
		return fmt.Errorf("redis psubscribe: %w", err)
	}
	if ready != nil {
		close(ready)
	}
	ch := ps.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			topic := strings.TrimPrefix(msg.Channel, channelPrefix)
			b.hub.Broadcast(topic, []byte(msg.Payload))
		}
	}
}
