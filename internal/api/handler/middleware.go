package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// RequireAuth validates the bearer token and loads the session. While the
// ephemeral store is up, the session record must still exist — that is
// what makes logout and expiry effective server-side. When the store is
// down the signed JWT alone is accepted, so an outage degrades revocation
// but never locks everyone out.
//
// Every authenticated request also refreshes the caller's presence, which
// is the heartbeat that keeps them in the online list.
func (h *Handler) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if !strings.HasPrefix(authHeader, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authorization token missing"})
			return
		}

		sessionID, username, err := parseJWT(h.jwtSecret, strings.TrimPrefix(authHeader, "Bearer "))
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
			c.Set("user_id", rec.UserID)
		}

		h.Presence.MarkOnline(username)

		c.Set("username", username)
		c.Set("session_id", sessionID)
		c.Next()
	}
}
