package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/crm-api/internal/domain/repository"
)

var _ repository.SettingsRepository = (*SettingsRepo)(nil)

// SettingsRepo blobs JSON por (dueño, clave) en tenant_settings.
type SettingsRepo struct {
	db Querier
}

// NewSettingsRepository construye el adaptador.
func NewSettingsRepository(db Querier) *SettingsRepo {
	return &SettingsRepo{db: db}
}

// Get devuelve el blob o nil si no hay nada guardado.
func (r *SettingsRepo) Get(ctx context.Context, ownerID, key string) ([]byte, error) {
	var raw []byte
	err := r.db.QueryRow(ctx, `SELECT value FROM tenant_settings WHERE owner_id = $1 AND key = $2`, ownerID, key).Scan(&raw)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get setting %s: %w", key, err)
	}
	return raw, nil
}

// Put inserta o reemplaza el blob.
func (r *SettingsRepo) Put(ctx context.Context, ownerID, key string, value []byte) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO tenant_settings (owner_id, key, value, updated_at) VALUES ($1, $2, $3, $4)
		ON CONFLICT (owner_id, key) DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at`,
		ownerID, key, string(value), time.Now())
	if err != nil {
		return fmt.Errorf("put setting %s: %w", key, err)
	}
	return nil
}
