package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/crm-api/internal/domain"
	"github.com/jhoicas/crm-api/internal/domain/entity"
	"github.com/jhoicas/crm-api/internal/domain/repository"
)

var (
	_ repository.LeadRepository     = (*LeadRepo)(nil)
	_ repository.FeedbackRepository = (*FeedbackRepo)(nil)
)

// LeadRepo leads sobre PostgreSQL. Sin control de versión: la última escritura gana.
type LeadRepo struct {
	db Querier
}

// NewLeadRepository construye el adaptador.
func NewLeadRepository(db Querier) *LeadRepo {
	return &LeadRepo{db: db}
}

const leadColumns = `id, name, email, phone, company, value, status, tags, assigned_to, owner_user_id, notes, source, created_at, updated_at`

// Create persiste un lead.
func (r *LeadRepo) Create(ctx context.Context, l *entity.Lead) error {
	query := `
		INSERT INTO leads (` + leadColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`
	_, err := r.db.Exec(ctx, query,
		l.ID, l.Name, l.Email, l.Phone, l.Company, l.Value, l.Status, nonNilTags(l.Tags),
		l.AssignedTo, l.OwnerUserID, l.Notes, l.Source, l.CreatedAt, l.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert lead: %w", err)
	}
	return nil
}

// GetByID (nil, nil) si no existe.
func (r *LeadRepo) GetByID(ctx context.Context, id string) (*entity.Lead, error) {
	l, err := scanLead(r.db.QueryRow(ctx, `SELECT `+leadColumns+` FROM leads WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get lead: %w", err)
	}
	return l, nil
}

// Update reescribe los campos editables del lead.
func (r *LeadRepo) Update(ctx context.Context, l *entity.Lead) error {
	query := `
		UPDATE leads SET name = $2, email = $3, phone = $4, company = $5, value = $6, status = $7,
			tags = $8, assigned_to = $9, notes = $10, source = $11, updated_at = $12
		WHERE id = $1`
	tag, err := r.db.Exec(ctx, query,
		l.ID, l.Name, l.Email, l.Phone, l.Company, l.Value, l.Status, nonNilTags(l.Tags),
		l.AssignedTo, l.Notes, l.Source, l.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update lead: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// UpdateStatus cambia solo el status (movimiento del tablero).
func (r *LeadRepo) UpdateStatus(ctx context.Context, id, status string, at time.Time) error {
	tag, err := r.db.Exec(ctx, `UPDATE leads SET status = $2, updated_at = $3 WHERE id = $1`, id, status, at)
	if err != nil {
		return fmt.Errorf("update lead status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Delete elimina el lead (el hilo de comentarios cae en cascada).
func (r *LeadRepo) Delete(ctx context.Context, id string) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM leads WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete lead: %w", err)
	}
	return nil
}

// DeleteMany elimina varios leads y devuelve cuántos existían.
func (r *LeadRepo) DeleteMany(ctx context.Context, ids []string) (int64, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM leads WHERE id = ANY($1)`, ids)
	if err != nil {
		return 0, fmt.Errorf("delete leads: %w", err)
	}
	return tag.RowsAffected(), nil
}

// AssignMany delega varios leads a un miembro.
func (r *LeadRepo) AssignMany(ctx context.Context, ids []string, assignee string, at time.Time) (int64, error) {
	tag, err := r.db.Exec(ctx, `UPDATE leads SET assigned_to = $2, updated_at = $3 WHERE id = ANY($1)`, ids, assignee, at)
	if err != nil {
		return 0, fmt.Errorf("assign leads: %w", err)
	}
	return tag.RowsAffected(), nil
}

// List leads del alcance, más recientes primero. Limit 0 = sin límite.
func (r *LeadRepo) List(ctx context.Context, q repository.LeadQuery) ([]*entity.Lead, error) {
	if len(q.ScopeIDs) == 0 {
		return []*entity.Lead{}, nil
	}
	var (
		where = []string{"(owner_user_id = ANY($1) OR assigned_to = ANY($1))"}
		args  = []any{q.ScopeIDs}
	)
	if q.AssignedTo != "" {
		args = append(args, q.AssignedTo)
		where = append(where, fmt.Sprintf("assigned_to = $%d", len(args)))
	}
	if q.Status != "" {
		args = append(args, q.Status)
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}
	query := `SELECT ` + leadColumns + ` FROM leads WHERE ` + strings.Join(where, " AND ") + ` ORDER BY created_at DESC, id`
	if q.Limit > 0 {
		args = append(args, q.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if q.Offset > 0 {
		args = append(args, q.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list leads: %w", err)
	}
	defer rows.Close()
	out := []*entity.Lead{}
	for rows.Next() {
		l, err := scanLead(rows)
		if err != nil {
			return nil, fmt.Errorf("scan lead: %w", err)
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

// SourceCounts leads del alcance agrupados por source, solo orígenes de webhook.
func (r *LeadRepo) SourceCounts(ctx context.Context, scopeIDs []string) (map[string]int, error) {
	out := map[string]int{}
	if len(scopeIDs) == 0 {
		return out, nil
	}
	rows, err := r.db.Query(ctx, `
		SELECT source, COUNT(*) FROM leads
		WHERE (owner_user_id = ANY($1) OR assigned_to = ANY($1)) AND source LIKE 'Webhook%'
		GROUP BY source`, scopeIDs)
	if err != nil {
		return nil, fmt.Errorf("count leads by source: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			source string
			n      int
		)
		if err := rows.Scan(&source, &n); err != nil {
			return nil, fmt.Errorf("scan source count: %w", err)
		}
		out[source] = n
	}
	return out, rows.Err()
}

func scanLead(row pgx.Row) (*entity.Lead, error) {
	var l entity.Lead
	err := row.Scan(&l.ID, &l.Name, &l.Email, &l.Phone, &l.Company, &l.Value, &l.Status, &l.Tags,
		&l.AssignedTo, &l.OwnerUserID, &l.Notes, &l.Source, &l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &l, nil
}

// FeedbackRepo hilo de comentarios de leads.
type FeedbackRepo struct {
	db Querier
}

// NewFeedbackRepository construye el adaptador.
func NewFeedbackRepository(db Querier) *FeedbackRepo {
	return &FeedbackRepo{db: db}
}

// Create persiste un comentario.
func (r *FeedbackRepo) Create(ctx context.Context, f *entity.LeadFeedback) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO lead_feedback (id, lead_id, user_id, message, created_at) VALUES ($1, $2, $3, $4, $5)`,
		f.ID, f.LeadID, f.UserID, f.Message, f.CreatedAt)
	if err != nil {
		if isForeignKeyViolation(err) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("insert feedback: %w", err)
	}
	return nil
}

// ListByLead comentarios en orden cronológico.
func (r *FeedbackRepo) ListByLead(ctx context.Context, leadID string) ([]*entity.LeadFeedback, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, lead_id, user_id, message, created_at FROM lead_feedback WHERE lead_id = $1 ORDER BY created_at, id`, leadID)
	if err != nil {
		return nil, fmt.Errorf("list feedback: %w", err)
	}
	defer rows.Close()
	var out []*entity.LeadFeedback
	for rows.Next() {
		var f entity.LeadFeedback
		if err := rows.Scan(&f.ID, &f.LeadID, &f.UserID, &f.Message, &f.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan feedback: %w", err)
		}
		out = append(out, &f)
	}
	return out, rows.Err()
}
