package cart

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"storefront/web/internal/domain"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

// Bus carries storage change notifications between storefront contexts.
// Publishers announce their own writes; subscribers see every change,
// including their own, and filter by origin.
type Bus interface {
	Publish(ctx context.Context, change domain.CartChange) error
	// Subscribe returns a channel that is closed once ctx is done.
	Subscribe(ctx context.Context) (<-chan domain.CartChange, error)
}

type memorySubscriber struct {
	ch   chan domain.CartChange
	done <-chan struct{}
}

// MemoryBus is an in-process fan-out broker.
type MemoryBus struct {
	mu     sync.RWMutex
	subs   map[int]*memorySubscriber
	nextID int
}

func NewMemoryBus() *MemoryBus {
	return &MemoryBus{subs: make(map[int]*memorySubscriber)}
}

func (b *MemoryBus) Publish(ctx context.Context, change domain.CartChange) error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, sub := range b.subs {
		select {
		case sub.ch <- change:
		case <-sub.done:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

func (b *MemoryBus) Subscribe(ctx context.Context) (<-chan domain.CartChange, error) {
	sub := &memorySubscriber{
		ch:   make(chan domain.CartChange, 16),
		done: ctx.Done(),
	}

	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.subs[id] = sub
	b.mu.Unlock()

	go func() {
		<-ctx.Done()
		b.mu.Lock()
		delete(b.subs, id)
		b.mu.Unlock()
		close(sub.ch)
	}()

	return sub.ch, nil
}

type redisBus struct {
	redisClient *redis.Client
	channel     string
}

func NewRedisBus(redisClient *redis.Client, channel string) Bus {
	return &redisBus{
		redisClient: redisClient,
		channel:     channel,
	}
}

func (b *redisBus) Publish(ctx context.Context, change domain.CartChange) error {
	payload, err := json.Marshal(change)
	if err != nil {
		return fmt.Errorf("failed to serialize change: %w", err)
	}

	if err := b.redisClient.Publish(ctx, b.channel, payload).Err(); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", b.channel, err)
	}

	log.Debugf("Published %s change from %s to %s", change.Key, change.Origin, b.channel)
	return nil
}

func (b *redisBus) Subscribe(ctx context.Context) (<-chan domain.CartChange, error) {
	pubsub := b.redisClient.Subscribe(ctx, b.channel)

	// Wait for the subscription to be confirmed before returning
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, fmt.Errorf("failed to subscribe to %s: %w", b.channel, err)
	}

	out := make(chan domain.CartChange, 16)
	go func() {
		defer close(out)
		defer pubsub.Close()

		messages := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-messages:
				if !ok {
					return
				}
				var change domain.CartChange
				if err := json.Unmarshal([]byte(msg.Payload), &change); err != nil {
					log.Warnf("⚠️ Ignoring malformed change on %s: %v", b.channel, err)
					continue
				}
				select {
				case out <- change:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out, nil
}
