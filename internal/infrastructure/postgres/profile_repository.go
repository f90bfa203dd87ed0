package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/crm-api/internal/domain"
	"github.com/jhoicas/crm-api/internal/domain/entity"
	"github.com/jhoicas/crm-api/internal/domain/repository"
)

var _ repository.ProfileRepository = (*ProfileRepo)(nil)

// ProfileRepo implementación del puerto ProfileRepository sobre PostgreSQL.
type ProfileRepo struct {
	db Querier
}

// NewProfileRepository construye el adaptador (pool o tx).
func NewProfileRepository(db Querier) *ProfileRepo {
	return &ProfileRepo{db: db}
}

const profileColumns = `id, name, email, role, COALESCE(master_account_id, ''), is_active, last_seen_at, created_at, updated_at`

// Create persiste un perfil.
func (r *ProfileRepo) Create(ctx context.Context, p *entity.Profile) error {
	query := `
		INSERT INTO profiles (id, name, email, role, master_account_id, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, NULLIF($5, ''), $6, $7, $8)`
	_, err := r.db.Exec(ctx, query,
		p.ID, p.Name, p.Email, p.Role, p.MasterAccountID, p.IsActive, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrEmailAlreadyExists
		}
		if isForeignKeyViolation(err) {
			return domain.ErrUserNotFound
		}
		return fmt.Errorf("insert profile: %w", err)
	}
	return nil
}

// GetByID obtiene un perfil por ID; (nil, nil) si no existe.
func (r *ProfileRepo) GetByID(ctx context.Context, id string) (*entity.Profile, error) {
	return r.scanOne(ctx, `SELECT `+profileColumns+` FROM profiles WHERE id = $1`, id)
}

// GetByEmail obtiene un perfil por email; (nil, nil) si no existe.
func (r *ProfileRepo) GetByEmail(ctx context.Context, email string) (*entity.Profile, error) {
	return r.scanOne(ctx, `SELECT `+profileColumns+` FROM profiles WHERE lower(email) = lower($1) LIMIT 1`, email)
}

// ListByMaster perfiles del equipo, ordenados por nombre.
func (r *ProfileRepo) ListByMaster(ctx context.Context, masterID string) ([]*entity.Profile, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+profileColumns+` FROM profiles WHERE master_account_id = $1 ORDER BY name, created_at`, masterID)
	if err != nil {
		return nil, fmt.Errorf("list profiles: %w", err)
	}
	defer rows.Close()
	var out []*entity.Profile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, fmt.Errorf("scan profile: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// UpdateName cambia el nombre visible.
func (r *ProfileRepo) UpdateName(ctx context.Context, id, name string, at time.Time) error {
	return r.execOne(ctx, `UPDATE profiles SET name = $2, updated_at = $3 WHERE id = $1`, id, name, at)
}

// SetActive activa o desactiva el perfil.
func (r *ProfileRepo) SetActive(ctx context.Context, id string, active bool, at time.Time) error {
	return r.execOne(ctx, `UPDATE profiles SET is_active = $2, updated_at = $3 WHERE id = $1`, id, active, at)
}

// TouchLastSeen registra el último heartbeat. Nunca retrocede.
func (r *ProfileRepo) TouchLastSeen(ctx context.Context, id string, at time.Time) error {
	_, err := r.db.Exec(ctx,
		`UPDATE profiles SET last_seen_at = GREATEST(COALESCE(last_seen_at, $2), $2) WHERE id = $1`, id, at)
	if err != nil {
		return fmt.Errorf("touch last seen: %w", err)
	}
	return nil
}

// Delete elimina el perfil.
func (r *ProfileRepo) Delete(ctx context.Context, id string) error {
	return r.execOne(ctx, `DELETE FROM profiles WHERE id = $1`, id)
}

func (r *ProfileRepo) execOne(ctx context.Context, query string, args ...any) error {
	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update profile: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *ProfileRepo) scanOne(ctx context.Context, query string, arg string) (*entity.Profile, error) {
	p, err := scanProfile(r.db.QueryRow(ctx, query, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get profile: %w", err)
	}
	return p, nil
}

func scanProfile(row pgx.Row) (*entity.Profile, error) {
	var p entity.Profile
	err := row.Scan(&p.ID, &p.Name, &p.Email, &p.Role, &p.MasterAccountID, &p.IsActive, &p.LastSeenAt, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}
