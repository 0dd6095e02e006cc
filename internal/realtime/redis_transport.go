package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/go-redis/redis/v8"

	"ms-foodcourt/internal/logger"
)

// envelope is the wire format published to product room channels.
type envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// RedisTransport implements Transport over a single Redis pub/sub
// subscription. Rooms map to Redis channels named by ProductRoom.
type RedisTransport struct {
	client *redis.Client
	logger *logger.Logger

	mu       sync.Mutex
	pubsub   *redis.PubSub
	messages chan Message
}

func NewRedisTransport(client *redis.Client, log *logger.Logger) *RedisTransport {
	return &RedisTransport{
		client: client,
		logger: log,
	}
}

func (t *RedisTransport) Connect(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.pubsub != nil {
		return nil
	}
	if err := t.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}

	pubsub := t.client.Subscribe(ctx)
	messages := make(chan Message, 16)
	go t.receive(pubsub, messages)

	t.pubsub = pubsub
	t.messages = messages
	return nil
}

func (t *RedisTransport) receive(pubsub *redis.PubSub, out chan<- Message) {
	for msg := range pubsub.Channel() {
		var env envelope
		if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil {
			t.logger.Warn("REALTIME", fmt.Sprintf("Dropping malformed message on %s: %v", msg.Channel, err))
			continue
		}
		out <- Message{Room: msg.Channel, Event: env.Event, Data: env.Data}
	}
	close(out)
}

func (t *RedisTransport) JoinRoom(ctx context.Context, room string) error {
	t.mu.Lock()
	pubsub := t.pubsub
	t.mu.Unlock()

	if pubsub == nil {
		return ErrNotConnected
	}
	return pubsub.Subscribe(ctx, room)
}

func (t *RedisTransport) LeaveRoom(ctx context.Context, room string) error {
	t.mu.Lock()
	pubsub := t.pubsub
	t.mu.Unlock()

	if pubsub == nil {
		return ErrNotConnected
	}
	return pubsub.Unsubscribe(ctx, room)
}

func (t *RedisTransport) Messages() <-chan Message {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.messages
}

func (t *RedisTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.pubsub == nil {
		return nil
	}
	err := t.pubsub.Close()
	t.pubsub = nil
	return err
}
