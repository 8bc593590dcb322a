package events

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/lifetrack-app/lifetrack-backend/internal/apperr"
)

const channelPrefix = "journal:events:"

// RedisPublisher publishes events to a per-user Redis channel so every
// instance's subscriber can fan them out locally.
type RedisPublisher struct {
	client *redis.Client
}

var _ Publisher = (*RedisPublisher)(nil)

func NewRedisPublisher(client *redis.Client) *RedisPublisher {
	return &RedisPublisher{client: client}
}

func (p *RedisPublisher) Publish(ctx context.Context, evt Event) error {
	if evt.Timestamp.IsZero() {
		evt.Timestamp = time.Now().UTC()
	}
	data, err := json.Marshal(evt)
	if err != nil {
		return apperr.External("encode event", err)
	}
	if err := p.client.Publish(ctx, channelPrefix+evt.UserID, data).Err(); err != nil {
		return apperr.External("publish event", err)
	}
	return nil
}

// RunSubscriber listens on the journal event channels and feeds the hub
// until the context is cancelled. Reconnects with capped backoff.
func RunSubscriber(ctx context.Context, client *redis.Client, hub *Hub) {
	backoff := time.Second

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		func() {
			pubsub := client.PSubscribe(ctx, channelPrefix+"*")
			defer pubsub.Close()

			log.Println("✅ Journal event subscriber started (pattern: " + channelPrefix + "*)")

			for {
				msg, err := pubsub.ReceiveMessage(ctx)
				if err != nil {
					if ctx.Err() != nil {
						return
					}
					log.Printf("Event subscriber error: %v", err)
					time.Sleep(backoff)
					backoff *= 2
					if backoff > 30*time.Second {
						backoff = 30 * time.Second
					}
					return
				}

				backoff = time.Second

				var evt Event
				if err := json.Unmarshal([]byte(msg.Payload), &evt); err != nil {
					log.Printf("failed to unmarshal journal event: %v", err)
					continue
				}
				hub.Broadcast(evt)
			}
		}()
	}
}
