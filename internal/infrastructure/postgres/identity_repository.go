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

var _ repository.IdentityRepository = (*IdentityRepo)(nil)

// IdentityRepo credenciales de acceso sobre PostgreSQL.
type IdentityRepo struct {
	db Querier
}

// NewIdentityRepository construye el adaptador (pool o tx).
func NewIdentityRepository(db Querier) *IdentityRepo {
	return &IdentityRepo{db: db}
}

// Create persiste una identidad. Email duplicado -> domain.ErrEmailAlreadyExists.
func (r *IdentityRepo) Create(ctx context.Context, i *entity.Identity) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO identities (id, email, password_hash, confirmed, created_at)
		VALUES ($1, lower($2), $3, $4, $5)`,
		i.ID, i.Email, i.PasswordHash, i.Confirmed, i.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrEmailAlreadyExists
		}
		return fmt.Errorf("insert identity: %w", err)
	}
	return nil
}

// GetByID (nil, nil) si no existe.
func (r *IdentityRepo) GetByID(ctx context.Context, id string) (*entity.Identity, error) {
	return r.scanOne(ctx, `SELECT id, email, password_hash, confirmed, created_at FROM identities WHERE id = $1`, id)
}

// GetByEmail (nil, nil) si no existe.
func (r *IdentityRepo) GetByEmail(ctx context.Context, email string) (*entity.Identity, error) {
	return r.scanOne(ctx, `SELECT id, email, password_hash, confirmed, created_at FROM identities WHERE email = lower($1)`, email)
}

// Delete elimina la identidad; ErrNotFound si no existía.
func (r *IdentityRepo) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM identities WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete identity: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *IdentityRepo) scanOne(ctx context.Context, query, arg string) (*entity.Identity, error) {
	var i entity.Identity
	err := r.db.QueryRow(ctx, query, arg).Scan(&i.ID, &i.Email, &i.PasswordHash, &i.Confirmed, &i.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get identity: %w", err)
	}
	return &i, nil
}
