package cache_test

import (
	"context"
	"testing"
	"time"

	"chatboard/backend/internal/cache"

	"github.com/stretchr/testify/assert"
)

// A disabled service must absorb every operation and hand back safe
// defaults, never an error or a panic.
func TestDisabledService_SafeDefaults(t *testing.T) {
	s := cache.NewDisabled()

	assert.False(t, s.Available())

	assert.False(t, s.Set("k", "v", time.Minute))
	_, ok := s.Get("k")
	assert.False(t, ok)
	assert.False(t, s.Delete("k"))
	assert.False(t, s.Exists("k"))

	assert.False(t, s.AddToSet("set", "m"))
	assert.False(t, s.RemoveFromSet("set", "m"))
	assert.Empty(t, s.MembersOf("set"))

	assert.Zero(t, s.Increment("counter"))
	assert.Zero(t, s.GetCounter("counter"))

	assert.Empty(t, s.KeysMatching("typing:*"))

	assert.False(t, s.Publish("chat:events", "payload"))
	assert.Nil(t, s.Subscribe(context.Background(), "chat:events"))
}

func TestNewService_NilClientIsDisabled(t *testing.T) {
	s := cache.NewService(nil)
	assert.False(t, s.Available())
	assert.Empty(t, s.MembersOf("online_users"))
}
