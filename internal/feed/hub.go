// Package feed fans chat board events out to connected websocket clients.
// Cross-instance delivery goes through the cache's pub/sub channel; when
// the cache is down the hub degrades to local-only broadcast.
package feed

import (
	"context"
	"encoding/json"
	"log"

	"chatboard/backend/internal/cache"
	"chatboard/backend/internal/models"
)

const (
	// DefaultRoom is the shared board every client joins.
	DefaultRoom = "general"

	eventsChannel = "chat:events"
)

// PresenceTracker is the slice of the presence manager the hub needs.
type PresenceTracker interface {
	MarkOnline(username string) bool
	SetTyping(room, username string) bool
}

type Hub struct {
	Clients map[string]Client

	RegisterCh   chan Client
	UnregisterCh chan Client
	// IncomingCh receives events read from client connections.
	IncomingCh chan models.FeedEvent

	broadcastCh chan models.FeedEvent

	cache    cache.Cache
	presence PresenceTracker
}

func NewHub(c cache.Cache, p PresenceTracker) *Hub {
	return &Hub{
		Clients:      make(map[string]Client),
		RegisterCh:   make(chan Client),
		UnregisterCh: make(chan Client),
		IncomingCh:   make(chan models.FeedEvent),
		broadcastCh:  make(chan models.FeedEvent, 256),
		cache:        c,
		presence:     p,
	}
}

// Broadcast hands an event to the hub without blocking the caller. The
// feed is best-effort: when the buffer is full the event is dropped.
func (h *Hub) Broadcast(ev models.FeedEvent) {
	select {
	case h.broadcastCh <- ev:
	default:
		log.Println("feed: broadcast buffer full, event dropped")
	}
}

// Run is the hub's dispatcher loop. Start once per process.
func (h *Hub) Run(ctx context.Context) {
	// A nil subscription channel blocks forever in select, which is
	// exactly the degraded behavior we want when the cache is down.
	events := h.cache.Subscribe(ctx, eventsChannel)

	log.Println("feed: hub started")

	for {
		select {
		case client := <-h.RegisterCh:
			h.Clients[client.GetUsername()] = client
			h.presence.MarkOnline(client.GetUsername())
			log.Printf("feed: client %s connected", client.GetUsername())

		case client := <-h.UnregisterCh:
			if current, ok := h.Clients[client.GetUsername()]; ok && current == client {
				delete(h.Clients, client.GetUsername())
				client.Close()
				log.Printf("feed: client %s disconnected", client.GetUsername())
			}

		case ev := <-h.IncomingCh:
			h.handleIncoming(ev)

		case ev := <-h.broadcastCh:
			h.publish(ev)

		case payload, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			var ev models.FeedEvent
			if err := json.Unmarshal([]byte(payload), &ev); err != nil {
				log.Printf("feed: undecodable pub/sub payload: %v", err)
				continue
			}
			h.deliver(ev)

		case <-ctx.Done():
			return
		}
	}
}

// handleIncoming processes events read from client sockets. Posting goes
// through HTTP, so the only client-originated event is the typing signal.
func (h *Hub) handleIncoming(ev models.FeedEvent) {
	switch ev.Type {
	case "typing":
		room := ev.Room
		if room == "" {
			room = DefaultRoom
			ev.Room = room
		}
		h.presence.SetTyping(room, ev.Username)
		h.publish(ev)
	default:
		log.Printf("feed: ignoring %q event from %s", ev.Type, ev.Username)
	}
}

// publish pushes the event through pub/sub so every instance (including
// this one, via its subscription) delivers it. With the cache down it
// falls back to delivering locally.
func (h *Hub) publish(ev models.FeedEvent) {
	payload, err := json.Marshal(ev)
	if err != nil {
		log.Printf("feed: marshal event: %v", err)
		return
	}

	if !h.cache.Publish(eventsChannel, string(payload)) {
		h.deliver(ev)
	}
}

// deliver writes the event to every connected client. Clients whose send
// buffer is full are dropped; a reader that slow has to reconnect.
func (h *Hub) deliver(ev models.FeedEvent) {
	for username, client := range h.Clients {
		select {
		case client.GetSendChannel() <- ev:
		default:
			delete(h.Clients, username)
			client.Close()
			log.Printf("feed: client %s too slow, dropped", username)
		}
	}
}
