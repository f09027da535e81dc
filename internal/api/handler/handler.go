package handler

import (
	"chatboard/backend/internal/feed"
	"chatboard/backend/internal/presence"
	"chatboard/backend/internal/queue"
	"chatboard/backend/internal/storage"
)

// Handler carries the services the HTTP surface calls into. The queue and
// presence dependencies are best-effort collaborators: handlers must
// succeed at their primary action even when those are down.
type Handler struct {
	Presence presence.Presence
	Storage  storage.Storage
	Queue    queue.Publisher
	Hub      *feed.Hub

	jwtSecret []byte
}

func NewHandler(p presence.Presence, s storage.Storage, q queue.Publisher, hub *feed.Hub, jwtSecret string) *Handler {
	return &Handler{
		Presence:  p,
		Storage:   s,
		Queue:     q,
		Hub:       hub,
		jwtSecret: []byte(jwtSecret),
	}
}
