package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/crm-api/internal/domain"
	"github.com/jhoicas/crm-api/internal/domain/entity"
	"github.com/jhoicas/crm-api/internal/domain/repository"
)

var _ repository.WebhookRepository = (*WebhookRepo)(nil)

// WebhookRepo configuración de integraciones.
type WebhookRepo struct {
	db Querier
}

// NewWebhookRepository construye el adaptador.
func NewWebhookRepository(db Querier) *WebhookRepo {
	return &WebhookRepo{db: db}
}

const webhookColumns = `id, owner_id, name, type, url, method, events, is_active, created_at`

// Create persiste una integración.
func (r *WebhookRepo) Create(ctx context.Context, w *entity.Webhook) error {
	_, err := r.db.Exec(ctx, `INSERT INTO webhooks (`+webhookColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		w.ID, w.OwnerID, w.Name, w.Type, w.URL, w.Method, nonNilTags(w.Events), w.IsActive, w.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert webhook: %w", err)
	}
	return nil
}

// GetByID (nil, nil) si no existe.
func (r *WebhookRepo) GetByID(ctx context.Context, id string) (*entity.Webhook, error) {
	w, err := scanWebhook(r.db.QueryRow(ctx, `SELECT `+webhookColumns+` FROM webhooks WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get webhook: %w", err)
	}
	return w, nil
}

// ListByOwner integraciones del equipo en orden de creación.
func (r *WebhookRepo) ListByOwner(ctx context.Context, ownerID string) ([]*entity.Webhook, error) {
	return r.list(ctx, `SELECT `+webhookColumns+` FROM webhooks WHERE owner_id = $1 ORDER BY created_at`, ownerID)
}

// ListActiveOutgoing destinos activos de los eventos del equipo.
func (r *WebhookRepo) ListActiveOutgoing(ctx context.Context, ownerID string) ([]*entity.Webhook, error) {
	return r.list(ctx, `SELECT `+webhookColumns+` FROM webhooks
		WHERE owner_id = $1 AND type = 'outgoing' AND is_active ORDER BY created_at`, ownerID)
}

// SetActive activa o pausa la integración.
func (r *WebhookRepo) SetActive(ctx context.Context, id string, active bool) error {
	tag, err := r.db.Exec(ctx, `UPDATE webhooks SET is_active = $2 WHERE id = $1`, id, active)
	if err != nil {
		return fmt.Errorf("update webhook: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Delete elimina la integración.
func (r *WebhookRepo) Delete(ctx context.Context, id string) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM webhooks WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete webhook: %w", err)
	}
	return nil
}

func (r *WebhookRepo) list(ctx context.Context, query, ownerID string) ([]*entity.Webhook, error) {
	rows, err := r.db.Query(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list webhooks: %w", err)
	}
	defer rows.Close()
	var out []*entity.Webhook
	for rows.Next() {
		w, err := scanWebhook(rows)
		if err != nil {
			return nil, fmt.Errorf("scan webhook: %w", err)
		}
		out = append(out, w)
	}
	return out, rows.Err()
}

func scanWebhook(row pgx.Row) (*entity.Webhook, error) {
	var w entity.Webhook
	if err := row.Scan(&w.ID, &w.OwnerID, &w.Name, &w.Type, &w.URL, &w.Method, &w.Events, &w.IsActive, &w.CreatedAt); err != nil {
		return nil, err
	}
	return &w, nil
}
