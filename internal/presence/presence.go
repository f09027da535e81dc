// Package presence tracks sessions, online users and typing indicators on
// top of the ephemeral state store.
//
// Liveness uses a two-key design: the online_users set is a fast membership
// index, while a companion user_online:<name> key with its own TTL is the
// source of truth for "still alive". Sets have no per-member expiry, so the
// set is reconciled lazily whenever it is read. A client must keep calling
// MarkOnline (on authenticated requests or a heartbeat) or presence lapses
// after PresenceTTL even while the session itself is still valid.
package presence

import (
	"encoding/json"
	"log"
	"sort"
	"strings"
	"time"

	"chatboard/backend/internal/cache"
	"chatboard/backend/internal/models"

	"github.com/google/uuid"
)

const (
	// SessionTTL is how long a login session stays valid without an
	// explicit logout.
	SessionTTL = time.Hour
	// PresenceTTL is how long a user counts as online after the last
	// MarkOnline call.
	PresenceTTL = 5 * time.Minute
	// TypingTTL is how long a typing indicator survives without refresh.
	TypingTTL = 5 * time.Second

	userCacheTTL = 5 * time.Minute

	onlineSetKey = "online_users"
)

func sessionKey(id string) string { return "session:" + id }
func presenceKey(user string) string { return "user_online:" + user }
func typingKey(room, user string) string { return "typing:" + room + ":" + user }
func typingPattern(room string) string { return "typing:" + room + ":*" }
func messageCountKey(user string) string { return "message_count:" + user }
func userCacheKey(user string) string { return "user_cache:" + user }

// Presence is the surface the API layer and the feed hub consume.
type Presence interface {
	Available() bool

	CreateSession(username, userID string) (string, bool)
	GetSession(token string) (*models.SessionRecord, bool)
	DestroySession(token string) bool
	Logout(token string) bool

	MarkOnline(username string) bool
	MarkOffline(username string) bool
	IsOnline(username string) bool
	ListOnline() []string

	SetTyping(room, username string) bool
	ListTyping(room string) []string

	IncrementMessageCount(username string) int64
	MessageCount(username string) int64
	ClearMessageCount(username string) bool

	CacheUser(user *models.User) bool
	CachedUser(username string) (*models.User, bool)
}

// Manager implements Presence. All operations degrade with the cache:
// when the store is down they return empty results or false, never an error.
type Manager struct {
	cache cache.Cache
}

func NewManager(c cache.Cache) *Manager {
	return &Manager{cache: c}
}

// Available reports whether the backing store is up. Callers that need to
// distinguish "empty" from "degraded" (e.g. the typing endpoint) use this;
// everyone else just consumes the safe defaults.
func (m *Manager) Available() bool {
	return m.cache.Available()
}

// CreateSession stores a new session record under a random token and marks
// the user online. The returned token is the only handle to the session.
func (m *Manager) CreateSession(username, userID string) (string, bool) {
	token := uuid.New().String()
	rec := models.SessionRecord{
		Username:  username,
		UserID:    userID,
		LoginTime: time.Now(),
		SessionID: token,
	}

	data, err := json.Marshal(rec)
	if err != nil {
		log.Printf("presence: marshal session for %s: %v", username, err)
		return "", false
	}

	if !m.cache.Set(sessionKey(token), string(data), SessionTTL) {
		return "", false
	}

	m.MarkOnline(username)
	return token, true
}

// GetSession resolves a token to its record. A token that has expired or
// been destroyed never resolves again.
func (m *Manager) GetSession(token string) (*models.SessionRecord, bool) {
	data, ok := m.cache.Get(sessionKey(token))
	if !ok {
		return nil, false
	}

	var rec models.SessionRecord
	if err := json.Unmarshal([]byte(data), &rec); err != nil {
		log.Printf("presence: corrupt session record %s: %v", token, err)
		m.cache.Delete(sessionKey(token))
		return nil, false
	}
	return &rec, true
}

// DestroySession removes the session record only. Presence is a separate
// concern; use Logout to drop both in one call.
func (m *Manager) DestroySession(token string) bool {
	return m.cache.Delete(sessionKey(token))
}

// Logout destroys the session and removes the user's presence. Idempotent:
// logging out an unknown or expired token is not an error.
func (m *Manager) Logout(token string) bool {
	rec, ok := m.GetSession(token)
	if ok {
		m.MarkOffline(rec.Username)
	}
	return m.DestroySession(token)
}

// MarkOnline adds the user to the online set and refreshes the companion
// liveness key. Called on login and on every authenticated request.
func (m *Manager) MarkOnline(username string) bool {
	if !m.cache.AddToSet(onlineSetKey, username) {
		return false
	}
	return m.cache.Set(presenceKey(username), "true", PresenceTTL)
}

// MarkOffline removes the user from the online set and deletes the
// companion key. Idempotent.
func (m *Manager) MarkOffline(username string) bool {
	removed := m.cache.RemoveFromSet(onlineSetKey, username)
	m.cache.Delete(presenceKey(username))
	return removed
}

// IsOnline reports whether the companion liveness key still exists. The
// set alone is not consulted: membership is necessary but not sufficient.
func (m *Manager) IsOnline(username string) bool {
	return m.cache.Exists(presenceKey(username))
}

// ListOnline returns users whose liveness key has not expired. Members
// whose key lapsed are pruned from the set as a side effect, so stale
// entries do not accumulate and never reappear on later calls.
func (m *Manager) ListOnline() []string {
	members := m.cache.MembersOf(onlineSetKey)

	active := make([]string, 0, len(members))
	for _, user := range members {
		if m.cache.Exists(presenceKey(user)) {
			active = append(active, user)
		} else {
			m.cache.RemoveFromSet(onlineSetKey, user)
		}
	}

	sort.Strings(active)
	return active
}

// SetTyping refreshes the typing indicator for (room, username). There is
// no explicit clear: the key expires on its own after TypingTTL.
func (m *Manager) SetTyping(room, username string) bool {
	return m.cache.Set(typingKey(room, username), "true", TypingTTL)
}

// ListTyping returns the users currently typing in the room. Key existence
// is the indicator, so no cleanup pass is needed here.
func (m *Manager) ListTyping(room string) []string {
	keys := m.cache.KeysMatching(typingPattern(room))

	users := make([]string, 0, len(keys))
	for _, key := range keys {
		if i := strings.LastIndex(key, ":"); i >= 0 {
			users = append(users, key[i+1:])
		}
	}

	sort.Strings(users)
	return users
}

// IncrementMessageCount bumps the per-user counter and returns the new
// value, or zero when the store is down.
func (m *Manager) IncrementMessageCount(username string) int64 {
	return m.cache.Increment(messageCountKey(username))
}

func (m *Manager) MessageCount(username string) int64 {
	return m.cache.GetCounter(messageCountKey(username))
}

// ClearMessageCount removes the counter; part of the user deletion cascade.
func (m *Manager) ClearMessageCount(username string) bool {
	return m.cache.Delete(messageCountKey(username))
}

// CacheUser stores a short-lived JSON snapshot of the user row to spare the
// database on hot profile reads.
func (m *Manager) CacheUser(user *models.User) bool {
	data, err := json.Marshal(user)
	if err != nil {
		log.Printf("presence: marshal user %s: %v", user.Username, err)
		return false
	}
	return m.cache.Set(userCacheKey(user.Username), string(data), userCacheTTL)
}

func (m *Manager) CachedUser(username string) (*models.User, bool) {
	data, ok := m.cache.Get(userCacheKey(username))
	if !ok {
		return nil, false
	}

	var user models.User
	if err := json.Unmarshal([]byte(data), &user); err != nil {
		return nil, false
	}
	return &user, true
}
