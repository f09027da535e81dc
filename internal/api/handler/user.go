package handler

import (
	"errors"
	"net/http"

	"chatboard/backend/internal/storage"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Profile serves the caller's own record, preferring the cached snapshot.
func (h *Handler) Profile(c *gin.Context) {
	username := c.GetString("username")

	user, ok := h.Presence.CachedUser(username)
	if !ok {
		var err error
		user, err = h.Storage.GetUserByUsername(username)
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
			return
		}
		h.Presence.CacheUser(user)
	}

	c.JSON(http.StatusOK, gin.H{
		"user":          user,
		"message_count": h.Presence.MessageCount(username),
	})
}

func (h *Handler) ListUsers(c *gin.Context) {
	users, err := h.Storage.GetAllUsers()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list users"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": users})
}

func (h *Handler) FindUser(c *gin.Context) {
	user, err := h.Storage.GetUserByID(c.Param("id"))
	if errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "lookup failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user})
}

func (h *Handler) CountUsers(c *gin.Context) {
	count, err := h.Storage.CountUsers()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "count failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": count})
}

type updateUserRequest struct {
	Email    string `json:"email"`
	Age      int    `json:"age"`
	Password string `json:"password"`
}

// UpdateUser lets a user modify their own record; administrators may
// modify anyone's.
func (h *Handler) UpdateUser(c *gin.Context) {
	current, err := h.Storage.GetUserByUsername(c.GetString("username"))
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unknown caller"})
		return
	}

	target, err := h.Storage.GetUserByID(c.Param("id"))
	if errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "lookup failed"})
		return
	}

	if current.ID != target.ID && !current.IsAdmin() {
		c.JSON(http.StatusForbidden, gin.H{"error": "you can only modify your own profile"})
		return
	}

	var req updateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}

	if req.Email != "" {
		target.Email = req.Email
	}
	if req.Age != 0 {
		target.Age = req.Age
	}
	if req.Password != "" {
		hash, err := storage.HashPassword(req.Password)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		target.PasswordHash = hash
	}

	if err := h.Storage.UpdateUser(target); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update failed"})
		return
	}

	h.Presence.CacheUser(target)
	c.JSON(http.StatusOK, gin.H{"user": target})
}

// DeleteUser removes the account and runs the ephemeral cascade: message
// counter and presence go with the row.
func (h *Handler) DeleteUser(c *gin.Context) {
	current, err := h.Storage.GetUserByUsername(c.GetString("username"))
	if err != nil || !current.IsAdmin() {
		c.JSON(http.StatusForbidden, gin.H{"error": "administrator access required"})
		return
	}

	deleted, err := h.Storage.DeleteUser(c.Param("id"))
	if errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "delete failed"})
		return
	}

	h.Presence.ClearMessageCount(deleted.Username)
	h.Presence.MarkOffline(deleted.Username)
	h.Queue.LogUserActivity(current.Username, "user_deleted", map[string]string{
		"deleted": deleted.Username,
	})

	c.JSON(http.StatusOK, gin.H{"success": true})
}
