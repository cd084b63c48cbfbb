package hub

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"

	goredis "github.com/redis/go-redis/v9"

	"github.com/shailum17/BazaarBuddy-sub000/internal/model"
	"github.com/shailum17/BazaarBuddy-sub000/pkg/log"
)

// envelope cross-instance event frame. Origin lets an instance skip its
// own messages coming back off the channel.
type envelope struct {
	Origin string                  `json:"origin"`
	Room   string                  `json:"room"`
	Event  model.NotificationEvent `json:"event"`
}

// Bridge replicates room events across instances over Redis pub/sub.
// Forwarding is best-effort like local delivery: a publish failure is
// logged and the local fan-out proceeds regardless.
type Bridge struct {
	client  *goredis.Client
	channel string
	origin  string
}

// NewBridge creates a bridge on the given pub/sub channel. The origin
// tag must be random; without it an instance would re-deliver its own
// events, so a failed entropy read aborts construction.
func NewBridge(client *goredis.Client, channel string) (*Bridge, error) {
	buf := make([]byte, 8)
	if _, err := io.ReadFull(rand.Reader, buf); err != nil {
		return nil, fmt.Errorf("failed to generate bridge origin: %w", err)
	}
	return &Bridge{
		client:  client,
		channel: channel,
		origin:  hex.EncodeToString(buf),
	}, nil
}

// forward publishes a room event for other instances to deliver
func (b *Bridge) forward(room string, ev model.NotificationEvent) {
	payload, err := json.Marshal(envelope{Origin: b.origin, Room: room, Event: ev})
	if err != nil {
		log.Errorf("Failed to encode bridge event: %v", err)
		return
	}
	if err := b.client.Publish(context.Background(), b.channel, payload).Err(); err != nil {
		log.WithFields(map[string]interface{}{
			"room":  room,
			"error": err.Error(),
		}).Warn("Failed to forward event to bridge")
	}
}

// Start subscribes and delivers foreign events into the local hub until
// the context is cancelled. Runs in its own goroutine.
func (b *Bridge) Start(ctx context.Context, h *Hub) {
	sub := b.client.Subscribe(ctx, b.channel)
	defer sub.Close()

	log.Infof("Event bridge subscribed to channel %s", b.channel)

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			var env envelope
			if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil {
				log.Warnf("Dropping undecodable bridge event: %v", err)
				continue
			}
			if env.Origin == b.origin {
				continue
			}
			h.deliver(env.Room, env.Event)
		}
	}
}
