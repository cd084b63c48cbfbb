package hub

import (
	"fmt"
	"sync"

	"github.com/shailum17/BazaarBuddy-sub000/internal/model"
	"github.com/shailum17/BazaarBuddy-sub000/internal/monitor"
	"github.com/shailum17/BazaarBuddy-sub000/pkg/log"
)

// UserRoom returns the room key for a user's personal room
func UserRoom(userID uint64) string {
	return fmt.Sprintf("user:%d", userID)
}

// SupplierRoom returns the room key for a supplier's storefront room
func SupplierRoom(supplierID uint64) string {
	return fmt.Sprintf("supplier:%d", supplierID)
}

// Hub notification fan-out service. The room membership table is owned by
// the hub and mutated only through Join/Leave/Disconnect; publishes take a
// read lock so broadcasts and membership changes never race.
//
// Delivery is at-most-once and best-effort: disconnected members miss
// events, full send queues drop them, and reconnecting clients get no
// replay. Callers needing guarantees must query the persisted order.
type Hub struct {
	mu         sync.RWMutex
	rooms      map[string]map[*Client]struct{}
	sendBuffer int
	bridge     *Bridge
}

// NewHub creates a hub with the given per-client send queue size
func NewHub(sendBuffer int) *Hub {
	if sendBuffer <= 0 {
		sendBuffer = 64
	}
	return &Hub{
		rooms:      make(map[string]map[*Client]struct{}),
		sendBuffer: sendBuffer,
	}
}

// SetBridge attaches a cross-instance event bridge
func (h *Hub) SetBridge(b *Bridge) {
	h.bridge = b
}

// Join places a client in a room. Idempotent: joining a room twice is a
// no-op. Membership is session-scoped and vanishes on disconnect.
func (h *Hub) Join(c *Client, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	members, ok := h.rooms[room]
	if !ok {
		members = make(map[*Client]struct{})
		h.rooms[room] = members
	}
	if _, joined := members[c]; joined {
		return
	}
	members[c] = struct{}{}
	c.rooms[room] = struct{}{}

	log.WithFields(map[string]interface{}{
		"room":    room,
		"user_id": c.UserID,
	}).Debug("Client joined room")
}

// Leave removes a client from a room
func (h *Hub) Leave(c *Client, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeFromRoom(c, room)
}

// Disconnect removes the client from every room and closes its send
// queue. Safe to call more than once; never blocks other members'
// delivery beyond the duration of the membership update itself.
func (h *Hub) Disconnect(c *Client) {
	h.mu.Lock()
	for room := range c.rooms {
		h.removeFromRoom(c, room)
	}
	h.mu.Unlock()

	c.close()
}

// removeFromRoom must be called with h.mu held
func (h *Hub) removeFromRoom(c *Client, room string) {
	if members, ok := h.rooms[room]; ok {
		delete(members, c)
		if len(members) == 0 {
			delete(h.rooms, room)
		}
	}
	delete(c.rooms, room)
}

// Publish delivers an event to every currently connected member of a room
// and forwards it to the bridge for other instances when one is attached
func (h *Hub) Publish(room string, ev model.NotificationEvent) {
	if h.bridge != nil {
		h.bridge.forward(room, ev)
	}
	h.deliver(room, ev)
}

// deliver fans the event out locally. A full send queue drops the event
// rather than blocking the publisher.
func (h *Hub) deliver(room string, ev model.NotificationEvent) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	monitor.Get().EventsPublishedTotal.WithLabelValues(string(ev.Type)).Inc()

	for c := range h.rooms[room] {
		select {
		case c.send <- ev:
		default:
			monitor.Get().EventsDroppedTotal.Inc()
			log.WithFields(map[string]interface{}{
				"room":    room,
				"user_id": c.UserID,
				"type":    ev.Type,
			}).Warn("Client send queue full, dropping event")
		}
	}
}

// PublishToUser publishes to a user's personal room
func (h *Hub) PublishToUser(userID uint64, ev model.NotificationEvent) {
	h.Publish(UserRoom(userID), ev)
}

// PublishToSupplier publishes to a supplier's storefront room
func (h *Hub) PublishToSupplier(supplierID uint64, ev model.NotificationEvent) {
	h.Publish(SupplierRoom(supplierID), ev)
}

// RoomSize returns the number of connected members in a room
func (h *Hub) RoomSize(room string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[room])
}
