package cache

import (
	"context"
	"errors"
	"log"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache is the contract for the ephemeral state store. Every operation is
// safe to call regardless of backend health: when Redis is unreachable the
// implementation returns the zero value for the operation (empty list,
// false, zero) instead of an error, so callers never have to branch on
// availability themselves.
type Cache interface {
	Available() bool

	Set(key, value string, ttl time.Duration) bool
	Get(key string) (string, bool)
	Delete(key string) bool
	Exists(key string) bool

	AddToSet(setKey, member string) bool
	RemoveFromSet(setKey, member string) bool
	MembersOf(setKey string) []string

	Increment(key string) int64
	GetCounter(key string) int64

	KeysMatching(pattern string) []string

	Publish(channel, payload string) bool
	Subscribe(ctx context.Context, channel string) <-chan string
}

// Service implements Cache over a Redis client. Liveness is probed once in
// the constructor and cached for the process lifetime; there is no per-call
// re-probe, so a Redis outage after startup surfaces as logged command
// errors with safe defaults, not as latency spikes from health checks.
type Service struct {
	client    *redis.Client
	available bool
	ctx       context.Context
}

// NewService probes the given client and returns a Service that degrades to
// safe defaults if the probe fails.
func NewService(client *redis.Client) *Service {
	s := &Service{client: client, ctx: context.Background()}

	if client == nil {
		log.Println("Warning: Redis not configured. Session features disabled.")
		return s
	}

	ctx, cancel := context.WithTimeout(s.ctx, 2*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		log.Printf("Warning: Redis not available (%v). Session features disabled.", err)
		return s
	}

	s.available = true
	log.Println("Redis connection established")
	return s
}

// NewDisabled returns a Service that is permanently unavailable. Used when
// no Redis address is configured, and by tests exercising degraded mode.
func NewDisabled() *Service {
	return &Service{ctx: context.Background()}
}

func (s *Service) Available() bool { return s.available }

func (s *Service) Set(key, value string, ttl time.Duration) bool {
	if !s.available {
		return false
	}
	if err := s.client.Set(s.ctx, key, value, ttl).Err(); err != nil {
		log.Printf("cache: SET %s failed: %v", key, err)
		return false
	}
	return true
}

func (s *Service) Get(key string) (string, bool) {
	if !s.available {
		return "", false
	}
	val, err := s.client.Get(s.ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false
	}
	if err != nil {
		log.Printf("cache: GET %s failed: %v", key, err)
		return "", false
	}
	return val, true
}

func (s *Service) Delete(key string) bool {
	if !s.available {
		return false
	}
	if err := s.client.Del(s.ctx, key).Err(); err != nil {
		log.Printf("cache: DEL %s failed: %v", key, err)
		return false
	}
	return true
}

func (s *Service) Exists(key string) bool {
	if !s.available {
		return false
	}
	n, err := s.client.Exists(s.ctx, key).Result()
	if err != nil {
		log.Printf("cache: EXISTS %s failed: %v", key, err)
		return false
	}
	return n == 1
}

func (s *Service) AddToSet(setKey, member string) bool {
	if !s.available {
		return false
	}
	if err := s.client.SAdd(s.ctx, setKey, member).Err(); err != nil {
		log.Printf("cache: SADD %s failed: %v", setKey, err)
		return false
	}
	return true
}

func (s *Service) RemoveFromSet(setKey, member string) bool {
	if !s.available {
		return false
	}
	if err := s.client.SRem(s.ctx, setKey, member).Err(); err != nil {
		log.Printf("cache: SREM %s failed: %v", setKey, err)
		return false
	}
	return true
}

func (s *Service) MembersOf(setKey string) []string {
	if !s.available {
		return []string{}
	}
	members, err := s.client.SMembers(s.ctx, setKey).Result()
	if err != nil {
		log.Printf("cache: SMEMBERS %s failed: %v", setKey, err)
		return []string{}
	}
	return members
}

func (s *Service) Increment(key string) int64 {
	if !s.available {
		return 0
	}
	n, err := s.client.Incr(s.ctx, key).Result()
	if err != nil {
		log.Printf("cache: INCR %s failed: %v", key, err)
		return 0
	}
	return n
}

func (s *Service) GetCounter(key string) int64 {
	val, ok := s.Get(key)
	if !ok {
		return 0
	}
	n, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0
	}
	return n
}

func (s *Service) KeysMatching(pattern string) []string {
	if !s.available {
		return []string{}
	}
	keys, err := s.client.Keys(s.ctx, pattern).Result()
	if err != nil {
		log.Printf("cache: KEYS %s failed: %v", pattern, err)
		return []string{}
	}
	return keys
}

func (s *Service) Publish(channel, payload string) bool {
	if !s.available {
		return false
	}
	if err := s.client.Publish(s.ctx, channel, payload).Err(); err != nil {
		log.Printf("cache: PUBLISH %s failed: %v", channel, err)
		return false
	}
	return true
}

// Subscribe returns a channel of raw payloads published on the given Redis
// channel, or nil when the cache is unavailable. The channel is closed when
// ctx is cancelled.
func (s *Service) Subscribe(ctx context.Context, channel string) <-chan string {
	if !s.available {
		return nil
	}

	pubsub := s.client.Subscribe(ctx, channel)
	out := make(chan string)

	go func() {
		defer close(out)
		defer pubsub.Close()

		ch := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				out <- msg.Payload
			}
		}
	}()

	return out
}
