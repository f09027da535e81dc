package handler

import (
	"errors"
	"net/http"
	"time"

	"chatboard/backend/internal/models"
	"chatboard/backend/internal/presence"
	"chatboard/backend/internal/storage"

	"github.com/gin-gonic/gin"
	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// generateJWT wraps the server-side session ID in a signed token. The JWT
// is transport; the session record in the ephemeral store is what makes
// the token revocable.
func generateJWT(secret []byte, sessionID, username string) (string, error) {
	claims := jwt.MapClaims{
		"session_id": sessionID,
		"username":   username,
		"exp":        time.Now().Add(presence.SessionTTL).Unix(),
		"iss":        "chatboard-service",
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

func parseJWT(secret []byte, tokenString string) (sessionID, username string, err error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return secret, nil
	})
	if err != nil || !token.Valid {
		return "", "", errors.New("invalid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", "", errors.New("invalid claims")
	}

	sessionID, _ = claims["session_id"].(string)
	username, _ = claims["username"].(string)
	if sessionID == "" || username == "" {
		return "", "", errors.New("incomplete claims")
	}
	return sessionID, username, nil
}

type registerRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
	Email    string `json:"email" binding:"required"`
	Age      int    `json:"age"`
}

// Register creates the account and fires the welcome email plus an
// activity event. Both are best-effort: registration reports success even
// with the broker down.
func (h *Handler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "username, password and email are required"})
		return
	}

	user := &models.User{
		Username:       req.Username,
		Email:          req.Email,
		Age:            req.Age,
		Classification: "B",
	}

	err := h.Storage.CreateUser(user, req.Password)
	switch {
	case errors.Is(err, storage.ErrUserExists):
		c.JSON(http.StatusConflict, gin.H{"error": "username already taken"})
		return
	case err != nil:
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	h.Queue.QueueEmailNotification(
		req.Email,
		"Welcome to ChatBoard!",
		"Hello "+req.Username+", welcome to our chat application!",
	)
	h.Queue.LogUserActivity(req.Username, "user_registration", map[string]string{
		"email": req.Email,
		"ip":    c.ClientIP(),
	})

	c.JSON(http.StatusCreated, gin.H{"id": user.ID, "username": user.Username})
}

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (h *Handler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "username and password are required"})
		return
	}

	user, err := h.Storage.VerifyUser(req.Username, req.Password)
	if errors.Is(err, storage.ErrInvalidCredentials) {
		h.Queue.LogUserActivity(req.Username, "failed_login", map[string]string{"ip": c.ClientIP()})
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid username or password"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "login failed"})
		return
	}

	sessionID, ok := h.Presence.CreateSession(user.Username, user.ID)
	if !ok {
		// Ephemeral store down: fall back to a stateless token. It cannot
		// be revoked server-side until the store comes back.
		sessionID = uuid.New().String()
	}

	tokenString, err := generateJWT(h.jwtSecret, sessionID, user.Username)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create token"})
		return
	}

	h.Presence.CacheUser(user)
	h.Queue.LogUserActivity(user.Username, "login", map[string]string{
		"session_id": sessionID,
		"ip":         c.ClientIP(),
	})

	c.JSON(http.StatusOK, gin.H{
		"token":    tokenString,
		"username": user.Username,
		"user_id":  user.ID,
	})
}

// Logout destroys the session and presence in one call; the two-step
// nature of the teardown stays an internal detail.
func (h *Handler) Logout(c *gin.Context) {
	username := c.GetString("username")
	sessionID := c.GetString("session_id")

	h.Presence.Logout(sessionID)
	h.Queue.LogUserActivity(username, "logout", map[string]string{"session_id": sessionID})

	c.JSON(http.StatusOK, gin.H{"success": true})
}
