package handler_test

import (
	"context"
	"strconv"
	"strings"
	"sync"
	"time"

	"chatboard/backend/internal/models"

	"github.com/stretchr/testify/mock"
)

// memCache is a minimal always-available in-memory cache.Cache for
// exercising the full login/presence path without Redis.
type memCache struct {
	mu   sync.Mutex
	vals map[string]memEntry
	sets map[string]map[string]bool
}

type memEntry struct {
	value     string
	expiresAt time.Time
}

func newMemCache() *memCache {
	return &memCache{
		vals: make(map[string]memEntry),
		sets: make(map[string]map[string]bool),
	}
}

func (m *memCache) live(e memEntry) bool {
	return e.expiresAt.IsZero() || time.Now().Before(e.expiresAt)
}

func (m *memCache) Available() bool { return true }

func (m *memCache) Set(key, value string, ttl time.Duration) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	e := memEntry{value: value}
	if ttl > 0 {
		e.expiresAt = time.Now().Add(ttl)
	}
	m.vals[key] = e
	return true
}

func (m *memCache) Get(key string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.vals[key]
	if !ok || !m.live(e) {
		return "", false
	}
	return e.value, true
}

func (m *memCache) Delete(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.vals, key)
	return true
}

func (m *memCache) Exists(key string) bool {
	_, ok := m.Get(key)
	return ok
}

func (m *memCache) AddToSet(setKey, member string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sets[setKey] == nil {
		m.sets[setKey] = make(map[string]bool)
	}
	m.sets[setKey][member] = true
	return true
}

func (m *memCache) RemoveFromSet(setKey, member string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sets[setKey], member)
	return true
}

func (m *memCache) MembersOf(setKey string) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.sets[setKey]))
	for member := range m.sets[setKey] {
		out = append(out, member)
	}
	return out
}

func (m *memCache) Increment(key string) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	n, _ := strconv.ParseInt(m.vals[key].value, 10, 64)
	n++
	m.vals[key] = memEntry{value: strconv.FormatInt(n, 10)}
	return n
}

func (m *memCache) GetCounter(key string) int64 {
	val, ok := m.Get(key)
	if !ok {
		return 0
	}
	n, _ := strconv.ParseInt(val, 10, 64)
	return n
}

func (m *memCache) KeysMatching(pattern string) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	prefix := strings.TrimSuffix(pattern, "*")
	out := []string{}
	for k, e := range m.vals {
		if strings.HasPrefix(k, prefix) && m.live(e) {
			out = append(out, k)
		}
	}
	return out
}

func (m *memCache) Publish(channel, payload string) bool { return true }

func (m *memCache) Subscribe(ctx context.Context, channel string) <-chan string { return nil }

// MockStorage implements storage.Storage with testify expectations.
type MockStorage struct {
	mock.Mock
}

func (m *MockStorage) CreateUser(user *models.User, password string) error {
	return m.Called(user, password).Error(0)
}

func (m *MockStorage) VerifyUser(username, password string) (*models.User, error) {
	args := m.Called(username, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockStorage) GetUserByUsername(username string) (*models.User, error) {
	args := m.Called(username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockStorage) GetUserByID(id string) (*models.User, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockStorage) GetAllUsers() ([]models.User, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.User), args.Error(1)
}

func (m *MockStorage) UpdateUser(user *models.User) error {
	return m.Called(user).Error(0)
}

func (m *MockStorage) DeleteUser(id string) (*models.User, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockStorage) CountUsers() (int64, error) {
	args := m.Called()
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockStorage) SaveMessage(msg *models.ChatMessage) error {
	return m.Called(msg).Error(0)
}

func (m *MockStorage) GetRecentMessages(limit int) ([]models.ChatMessage, error) {
	args := m.Called(limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.ChatMessage), args.Error(1)
}

func (m *MockStorage) DeleteMessage(id uint) error {
	return m.Called(id).Error(0)
}

// MockPublisher implements queue.Publisher with testify expectations.
type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Available() bool {
	return m.Called().Bool(0)
}

func (m *MockPublisher) Publish(queueName string, task models.NotificationTask) (bool, error) {
	args := m.Called(queueName, task)
	return args.Bool(0), args.Error(1)
}

func (m *MockPublisher) QueueEmailNotification(recipient, subject, message string) bool {
	return m.Called(recipient, subject, message).Bool(0)
}

func (m *MockPublisher) QueuePushNotification(username, title, message string) bool {
	return m.Called(username, title, message).Bool(0)
}

func (m *MockPublisher) QueueMessageProcessing(username, message string) bool {
	return m.Called(username, message).Bool(0)
}

func (m *MockPublisher) LogUserActivity(username, activity string, details map[string]string) bool {
	return m.Called(username, activity, details).Bool(0)
}
