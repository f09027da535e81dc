package handler

import (
	"net/http"
	"strings"

	"chatboard/backend/internal/feed"
	"chatboard/backend/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Allows connections from any origin. Tighten in production.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// ServeWebSocket upgrades the connection and attaches it to the feed hub.
// Browsers cannot set headers on websocket dials, so the token may also
// arrive as a query parameter.
func (h *Handler) ServeWebSocket(c *gin.Context) {
	tokenString := c.Query("token")
	if tokenString == "" {
		authHeader := c.GetHeader("Authorization")
		if strings.HasPrefix(authHeader, "Bearer ") {
			tokenString = strings.TrimPrefix(authHeader, "Bearer ")
		}
	}
	if tokenString == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authorization token missing"})
		return
	}

	sessionID, username, err := parseJWT(h.jwtSecret, tokenString)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token or expired"})
		return
	}

	if h.Presence.Available() {
		rec, ok := h.Presence.GetSession(sessionID)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token or expired"})
			return
		}
		username = rec.Username
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "failed to upgrade connection"})
		return
	}

	client := &feed.WebSocketClient{
		Username: username,
		Conn:     conn,
		Hub:      h.Hub,
		Send:     make(chan models.FeedEvent, 256),
	}

	h.Hub.RegisterCh <- client
	client.Run()
}
