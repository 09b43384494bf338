// Package numbering allocates human readable document numbers such as
// INV-2024-001, one counter per type and year.
package numbering

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"bizdocs-backend/models"

	"github.com/patrickmn/go-cache"
	"github.com/redis/go-redis/v9"
)

// Sequencer returns the next value of the counter named by prefix.
type Sequencer interface {
	Next(ctx context.Context, prefix string) (int64, error)
}

// Seeder reports the highest sequence already used under prefix. It is asked
// once per prefix when a counter does not exist yet.
type Seeder func(ctx context.Context, prefix string) (int64, error)

// Prefix is the counter name and number prefix, e.g. "QUO-2024-".
func Prefix(t models.DocType, year int) string {
	return fmt.Sprintf("%s-%04d-", t.Prefix(), year)
}

// Format renders a document number. Sequences below 1000 are zero padded to 3.
func Format(t models.DocType, year int, seq int64) string {
	return fmt.Sprintf("%s%03d", Prefix(t, year), seq)
}

// ParseSeq extracts the sequence from a number carrying prefix.
func ParseSeq(number, prefix string) (int64, bool) {
	if !strings.HasPrefix(number, prefix) {
		return 0, false
	}
	n, err := strconv.ParseInt(strings.TrimPrefix(number, prefix), 10, 64)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

// Allocator turns a sequencer into formatted numbers.
type Allocator struct {
	seq Sequencer
}

func NewAllocator(seq Sequencer) *Allocator {
	return &Allocator{seq: seq}
}

func (a *Allocator) Next(ctx context.Context, t models.DocType, date time.Time) (string, error) {
	year := date.Year()
	n, err := a.seq.Next(ctx, Prefix(t, year))
	if err != nil {
		return "", fmt.Errorf("allocate %s number: %w", t, err)
	}
	return Format(t, year, n), nil
}

// LocalSequencer keeps counters in process memory.
type LocalSequencer struct {
	mu       sync.Mutex
	counters *cache.Cache
	seed     Seeder
}

func NewLocalSequencer(seed Seeder) *LocalSequencer {
	return &LocalSequencer{counters: cache.New(cache.NoExpiration, 0), seed: seed}
}

func (l *LocalSequencer) Next(ctx context.Context, prefix string) (int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.counters.Get(prefix); !ok {
		var start int64
		if l.seed != nil {
			n, err := l.seed(ctx, prefix)
			if err != nil {
				return 0, fmt.Errorf("seed %s: %w", prefix, err)
			}
			start = n
		}
		l.counters.Set(prefix, start, cache.NoExpiration)
	}
	return l.counters.IncrementInt64(prefix, 1)
}

// RedisSequencer shares counters between instances through INCR.
type RedisSequencer struct {
	client    *redis.Client
	namespace string
	seed      Seeder
}

func NewRedisSequencer(client *redis.Client, seed Seeder) *RedisSequencer {
	return &RedisSequencer{client: client, namespace: "bizdocs:docnum:", seed: seed}
}

func (r *RedisSequencer) Next(ctx context.Context, prefix string) (int64, error) {
	key := r.namespace + prefix
	exists, err := r.client.Exists(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("redis exists %s: %w", key, err)
	}
	if exists == 0 && r.seed != nil {
		n, err := r.seed(ctx, prefix)
		if err != nil {
			return 0, fmt.Errorf("seed %s: %w", prefix, err)
		}
		// another instance may have created it meanwhile; SETNX keeps theirs
		if err := r.client.SetNX(ctx, key, n, 0).Err(); err != nil {
			return 0, fmt.Errorf("redis setnx %s: %w", key, err)
		}
	}
	n, err := r.client.Incr(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("redis incr %s: %w", key, err)
	}
	return n, nil
}

// ConnectRedis returns a client when addr is set and reachable; otherwise nil,
// and callers fall back to a LocalSequencer.
func ConnectRedis(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	if addr == "" {
		return nil, nil
	}
	client := redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db})
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, err
	}
	return client, nil
}
