package feed_test

import (
	"sync"

	"chatboard/backend/internal/models"
)

type mockClient struct {
	username    string
	RecvChannel chan models.FeedEvent
}

func newMockClient(username string) *mockClient {
	return &mockClient{
		username:    username,
		RecvChannel: make(chan models.FeedEvent, 8),
	}
}

func (c *mockClient) GetUsername() string                     { return c.username }
func (c *mockClient) GetSendChannel() chan<- models.FeedEvent { return c.RecvChannel }
func (c *mockClient) Run()                                    {}
func (c *mockClient) Close()                                  { close(c.RecvChannel) }

// fakePresence records presence calls made by the hub.
type fakePresence struct {
	mu     sync.Mutex
	online []string
	typing [][2]string
}

func (f *fakePresence) MarkOnline(username string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.online = append(f.online, username)
	return true
}

func (f *fakePresence) SetTyping(room, username string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.typing = append(f.typing, [2]string{room, username})
	return true
}

func (f *fakePresence) onlineCalls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.online))
	copy(out, f.online)
	return out
}

func (f *fakePresence) typingCalls() [][2]string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([][2]string, len(f.typing))
	copy(out, f.typing)
	return out
}
