package rediscache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jhoicas/crm-api/internal/application/ports"
	"github.com/jhoicas/crm-api/internal/domain/entity"
)

var _ ports.BoardView = (*BoardCache)(nil)

const boardKeyPrefix = "board:"

// BoardCache vista del tablero por tenant, serializada como JSON bajo board:<tenant>.
type BoardCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewBoardCache construye la caché. ttl <= 0 = sin expiración.
func NewBoardCache(rdb *redis.Client, ttl time.Duration) *BoardCache {
	return &BoardCache{rdb: rdb, ttl: ttl}
}

func boardKey(tenantID string) string { return boardKeyPrefix + tenantID }

// Load devuelve la vista; ok=false si la clave no existe o expiró.
func (c *BoardCache) Load(ctx context.Context, tenantID string) ([]*entity.Lead, bool, error) {
	raw, err := c.rdb.Get(ctx, boardKey(tenantID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("redis get board: %w", err)
	}
	var leads []*entity.Lead
	if err := json.Unmarshal(raw, &leads); err != nil {
		// vista corrupta: se trata como ausente y se recarga del almacén
		return nil, false, nil
	}
	return leads, true, nil
}

// Store reemplaza la vista del tenant.
func (c *BoardCache) Store(ctx context.Context, tenantID string, leads []*entity.Lead) error {
	raw, err := json.Marshal(leads)
	if err != nil {
		return fmt.Errorf("serializar tablero: %w", err)
	}
	if err := c.rdb.Set(ctx, boardKey(tenantID), raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set board: %w", err)
	}
	return nil
}

// Patch cambia el status del lead dentro de la vista (WATCH + MULTI). Sin vista cargada no hace nada.
func (c *BoardCache) Patch(ctx context.Context, tenantID, leadID, status string, at time.Time) error {
	key := boardKey(tenantID)
	txf := func(tx *redis.Tx) error {
		raw, err := tx.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			return nil
		}
		if err != nil {
			return err
		}
		var leads []*entity.Lead
		if err := json.Unmarshal(raw, &leads); err != nil {
			return tx.Del(ctx, key).Err()
		}
		for _, l := range leads {
			if l.ID == leadID {
				l.Status = status
				l.UpdatedAt = at
				break
			}
		}
		out, err := json.Marshal(leads)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.SetArgs(ctx, key, out, redis.SetArgs{KeepTTL: true})
			return nil
		})
		return err
	}

	for i := 0; i < 3; i++ {
		err := c.rdb.Watch(ctx, txf, key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if err != nil {
			return fmt.Errorf("redis patch board: %w", err)
		}
		return nil
	}
	// otro escritor ganó las tres veces: se descarta la vista y se recargará
	return c.Invalidate(ctx, tenantID)
}

// Invalidate descarta la vista del tenant.
func (c *BoardCache) Invalidate(ctx context.Context, tenantID string) error {
	if err := c.rdb.Del(ctx, boardKey(tenantID)).Err(); err != nil {
		return fmt.Errorf("redis del board: %w", err)
	}
	return nil
}
