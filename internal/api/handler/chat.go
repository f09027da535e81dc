package handler

import (
	"net/http"
	"time"

	"chatboard/backend/internal/feed"
	"chatboard/backend/internal/models"

	"github.com/gin-gonic/gin"
)

type sendMessageRequest struct {
	Message string `json:"message" binding:"required"`
}

// SendMessage persists the message, then fans out the side effects:
// counter bump, background processing, live feed. The database write is
// the only step that can fail the request — everything after it is
// best-effort.
func (h *Handler) SendMessage(c *gin.Context) {
	username := c.GetString("username")

	var req sendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "message cannot be empty"})
		return
	}

	msg := &models.ChatMessage{Username: username, Content: req.Message}
	if err := h.Storage.SaveMessage(msg); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to send message"})
		return
	}

	h.Presence.IncrementMessageCount(username)
	h.Queue.QueueMessageProcessing(username, req.Message)
	h.Hub.Broadcast(models.FeedEvent{
		Type:     "message",
		Username: username,
		Room:     feed.DefaultRoom,
		Content:  req.Message,
	})

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "message sent"})
}

func (h *Handler) GetMessages(c *gin.Context) {
	messages, err := h.Storage.GetRecentMessages(50)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load messages"})
		return
	}

	out := make([]gin.H, 0, len(messages))
	for _, msg := range messages {
		out = append(out, gin.H{
			"username":  msg.Username,
			"message":   msg.Content,
			"timestamp": msg.CreatedAt.Format(time.RFC3339),
		})
	}
	c.JSON(http.StatusOK, out)
}

// OnlineUsers returns the pruned online list. With the store down this is
// an empty list, never an error.
func (h *Handler) OnlineUsers(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"online_users": h.Presence.ListOnline()})
}

// SetTyping refreshes the caller's typing indicator. This is the one
// presence endpoint that reports store unavailability, so clients can
// stop polling instead of hammering a dead feature.
func (h *Handler) SetTyping(c *gin.Context) {
	if !h.Presence.Available() {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "presence unavailable"})
		return
	}

	username := c.GetString("username")
	room := c.DefaultQuery("room", feed.DefaultRoom)

	h.Presence.SetTyping(room, username)
	h.Hub.Broadcast(models.FeedEvent{Type: "typing", Username: username, Room: room})

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// GetTyping lists who is typing in the room, excluding the caller.
func (h *Handler) GetTyping(c *gin.Context) {
	username := c.GetString("username")
	room := c.DefaultQuery("room", feed.DefaultRoom)

	typing := make([]string, 0)
	for _, user := range h.Presence.ListTyping(room) {
		if user != username {
			typing = append(typing, user)
		}
	}

	c.JSON(http.StatusOK, gin.H{"typing_users": typing})
}
