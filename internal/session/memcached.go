package session

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bradfitz/gomemcache/memcache"

	"github.com/kjstillabower/contact-form-service/internal/form"
)

const memcachedKeyPrefix = "contact:session:"

// maxRelativeExpiration is the largest expiration memcached treats as relative seconds.
const maxRelativeExpiration = 30 * 24 * 60 * 60

// MemcachedStore implements Store using memcached.
type MemcachedStore struct {
	client *memcache.Client
}

// NewMemcachedStore creates a MemcachedStore. addrs is a comma-separated list
// (e.g. "localhost:11211" or "host1:11211,host2:11211"). timeout and maxIdleConns
// keep the client defaults when zero.
func NewMemcachedStore(addrs string, timeout time.Duration, maxIdleConns int) *MemcachedStore {
	servers := parseAddrs(addrs)
	if len(servers) == 0 {
		servers = []string{"localhost:11211"}
	}
	client := memcache.New(servers...)
	if timeout > 0 {
		client.Timeout = timeout
	}
	if maxIdleConns > 0 {
		client.MaxIdleConns = maxIdleConns
	}
	return &MemcachedStore{client: client}
}

func parseAddrs(s string) []string {
	var out []string
	for _, a := range strings.Split(s, ",") {
		a = strings.TrimSpace(a)
		if a != "" {
			out = append(out, a)
		}
	}
	return out
}

func (s *MemcachedStore) key(id string) string {
	return memcachedKeyPrefix + id
}

// Get implements Store.Get.
func (s *MemcachedStore) Get(ctx context.Context, id string) (form.State, error) {
	if err := ctx.Err(); err != nil {
		return form.State{}, err
	}
	item, err := s.client.Get(s.key(id))
	if err != nil {
		if errors.Is(err, memcache.ErrCacheMiss) {
			return form.State{}, ErrNotFound
		}
		return form.State{}, err
	}
	return decodeState(item.Value)
}

// Set implements Store.Set.
func (s *MemcachedStore) Set(ctx context.Context, id string, state form.State, ttl time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	raw, err := encodeState(state)
	if err != nil {
		return err
	}
	return s.client.Set(&memcache.Item{
		Key:        s.key(id),
		Value:      raw,
		Expiration: memcachedExpiration(ttl),
	})
}

// memcachedExpiration converts ttl to relative seconds, rounding partial seconds
// up. Non-positive or out-of-range values fall back to one hour.
func memcachedExpiration(ttl time.Duration) int32 {
	if ttl <= 0 {
		return 3600
	}
	sec := int64((ttl + time.Second - 1) / time.Second)
	if sec > maxRelativeExpiration {
		return 3600
	}
	return int32(sec)
}

// Delete implements Store.Delete. A missing key is not an error.
func (s *MemcachedStore) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.client.Delete(s.key(id)); err != nil && !errors.Is(err, memcache.ErrCacheMiss) {
		return err
	}
	return nil
}

// Ping checks that every memcached server is reachable.
func (s *MemcachedStore) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.client.Ping()
}

// Close closes idle memcached connections. Call during shutdown.
func (s *MemcachedStore) Close() error {
	return s.client.Close()
}
