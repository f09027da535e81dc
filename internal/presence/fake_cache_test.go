package presence_test

import (
	"context"
	"strconv"
	"strings"
	"sync"
	"time"
)

// fakeCache is an in-memory stand-in for the Redis-backed cache with a
// manually advanced clock, so TTL behavior can be tested without sleeping.
type fakeCache struct {
	mu   sync.Mutex
	now  time.Time
	vals map[string]fakeEntry
	sets map[string]map[string]bool
	down bool
}

type fakeEntry struct {
	value     string
	expiresAt time.Time // zero means no expiry
}

func newFakeCache() *fakeCache {
	return &fakeCache{
		now:  time.Now(),
		vals: make(map[string]fakeEntry),
		sets: make(map[string]map[string]bool),
	}
}

func (f *fakeCache) advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = f.now.Add(d)
}

func (f *fakeCache) live(e fakeEntry) bool {
	return e.expiresAt.IsZero() || f.now.Before(e.expiresAt)
}

func (f *fakeCache) Available() bool { return !f.down }

func (f *fakeCache) Set(key, value string, ttl time.Duration) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.down {
		return false
	}
	e := fakeEntry{value: value}
	if ttl > 0 {
		e.expiresAt = f.now.Add(ttl)
	}
	f.vals[key] = e
	return true
}

func (f *fakeCache) Get(key string) (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.down {
		return "", false
	}
	e, ok := f.vals[key]
	if !ok || !f.live(e) {
		delete(f.vals, key)
		return "", false
	}
	return e.value, true
}

func (f *fakeCache) Delete(key string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.down {
		return false
	}
	delete(f.vals, key)
	return true
}

func (f *fakeCache) Exists(key string) bool {
	_, ok := f.Get(key)
	return ok
}

func (f *fakeCache) AddToSet(setKey, member string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.down {
		return false
	}
	if f.sets[setKey] == nil {
		f.sets[setKey] = make(map[string]bool)
	}
	f.sets[setKey][member] = true
	return true
}

func (f *fakeCache) RemoveFromSet(setKey, member string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.down {
		return false
	}
	delete(f.sets[setKey], member)
	return true
}

func (f *fakeCache) MembersOf(setKey string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.down {
		return []string{}
	}
	members := make([]string, 0, len(f.sets[setKey]))
	for m := range f.sets[setKey] {
		members = append(members, m)
	}
	return members
}

func (f *fakeCache) has(setKey, member string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sets[setKey][member]
}

func (f *fakeCache) Increment(key string) int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.down {
		return 0
	}
	n, _ := strconv.ParseInt(f.vals[key].value, 10, 64)
	n++
	f.vals[key] = fakeEntry{value: strconv.FormatInt(n, 10)}
	return n
}

func (f *fakeCache) GetCounter(key string) int64 {
	val, ok := f.Get(key)
	if !ok {
		return 0
	}
	n, _ := strconv.ParseInt(val, 10, 64)
	return n
}

func (f *fakeCache) KeysMatching(pattern string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.down {
		return []string{}
	}
	prefix := strings.TrimSuffix(pattern, "*")
	keys := []string{}
	for k, e := range f.vals {
		if strings.HasPrefix(k, prefix) && f.live(e) {
			keys = append(keys, k)
		}
	}
	return keys
}

func (f *fakeCache) Publish(channel, payload string) bool { return !f.down }

func (f *fakeCache) Subscribe(ctx context.Context, channel string) <-chan string {
	return nil
}
