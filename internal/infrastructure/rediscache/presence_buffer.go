package rediscache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"

	"github.com/jhoicas/crm-api/internal/application/presence"
)

var (
	_ presence.Buffer = (*PresenceBuffer)(nil)
	_ presence.Locker = (*Locker)(nil)
)

const (
	presenceKey         = "presence:pings"
	presenceDrainingKey = "presence:pings:draining"
)

// pingScript guarda el instante solo si es más reciente que el existente.
var pingScript = redis.NewScript(`
local prev = redis.call('HGET', KEYS[1], ARGV[1])
if (not prev) or tonumber(ARGV[2]) > tonumber(prev) then
  redis.call('HSET', KEYS[1], ARGV[1], ARGV[2])
end
return 1
`)

// PresenceBuffer pings compartidos entre instancias en un hash (perfil -> unix ms).
type PresenceBuffer struct {
	rdb *redis.Client
}

// NewPresenceBuffer construye el buffer.
func NewPresenceBuffer(rdb *redis.Client) *PresenceBuffer {
	return &PresenceBuffer{rdb: rdb}
}

// Ping registra el último instante visto del perfil.
func (b *PresenceBuffer) Ping(ctx context.Context, profileID string, at time.Time) error {
	if err := pingScript.Run(ctx, b.rdb, []string{presenceKey}, profileID, at.UnixMilli()).Err(); err != nil {
		return fmt.Errorf("redis ping presencia: %w", err)
	}
	return nil
}

// Drain renombra el hash (atómico) y lo lee; los pings que lleguen durante el volcado van al hash nuevo.
func (b *PresenceBuffer) Drain(ctx context.Context) (map[string]time.Time, error) {
	out := map[string]time.Time{}
	if err := b.rdb.Rename(ctx, presenceKey, presenceDrainingKey).Err(); err != nil {
		if err.Error() == "ERR no such key" {
			return out, nil
		}
		return nil, fmt.Errorf("redis rename presencia: %w", err)
	}
	vals, err := b.rdb.HGetAll(ctx, presenceDrainingKey).Result()
	if err != nil {
		return nil, fmt.Errorf("redis leer presencia: %w", err)
	}
	for id, v := range vals {
		ms, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			continue
		}
		out[id] = time.UnixMilli(ms).UTC()
	}
	if err := b.rdb.Del(ctx, presenceDrainingKey).Err(); err != nil {
		return out, fmt.Errorf("redis limpiar presencia: %w", err)
	}
	return out, nil
}

// Locker adapta redislock al puerto presence.Locker.
type Locker struct {
	client *redislock.Client
}

// NewLocker construye el locker sobre el mismo cliente.
func NewLocker(rdb *redis.Client) *Locker {
	return &Locker{client: redislock.New(rdb)}
}

// Obtain toma el lock; si otra instancia lo tiene devuelve presence.ErrLockNotObtained.
func (l *Locker) Obtain(ctx context.Context, key string, ttl time.Duration) (func(context.Context) error, error) {
	lock, err := l.client.Obtain(ctx, key, ttl, nil)
	if errors.Is(err, redislock.ErrNotObtained) {
		return nil, presence.ErrLockNotObtained
	}
	if err != nil {
		return nil, fmt.Errorf("redislock obtain %s: %w", key, err)
	}
	return lock.Release, nil
}
