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

var _ repository.SaleRepository = (*SaleRepo)(nil)

// SaleRepo libro de ventas. Una sola tabla; la partición es user_id.
type SaleRepo struct {
	db Querier
}

// NewSaleRepository construye el adaptador.
func NewSaleRepository(db Querier) *SaleRepo {
	return &SaleRepo{db: db}
}

const saleColumns = `id, customer_name, customer_email, customer_phone, product, value, status, tags,
	appointment_date, completed_at, user_id, notes, created_at, updated_at`

// Create persiste una venta.
func (r *SaleRepo) Create(ctx context.Context, s *entity.Sale) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO sales (`+saleColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		s.ID, s.CustomerName, s.CustomerEmail, s.CustomerPhone, s.Product, s.Value, s.Status, nonNilTags(s.Tags),
		s.AppointmentDate, s.CompletedAt, s.UserID, s.Notes, s.CreatedAt, s.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert sale: %w", err)
	}
	return nil
}

// GetByID (nil, nil) si no existe.
func (r *SaleRepo) GetByID(ctx context.Context, id string) (*entity.Sale, error) {
	s, err := scanSale(r.db.QueryRow(ctx, `SELECT `+saleColumns+` FROM sales WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get sale: %w", err)
	}
	return s, nil
}

// Update reescribe la venta; autor y completed_at no se tocan.
func (r *SaleRepo) Update(ctx context.Context, s *entity.Sale) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE sales SET customer_name = $2, customer_email = $3, customer_phone = $4, product = $5,
			value = $6, status = $7, tags = $8, appointment_date = $9, notes = $10, updated_at = $11
		WHERE id = $1`,
		s.ID, s.CustomerName, s.CustomerEmail, s.CustomerPhone, s.Product, s.Value, s.Status, nonNilTags(s.Tags),
		s.AppointmentDate, s.Notes, s.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update sale: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Delete elimina la venta.
func (r *SaleRepo) Delete(ctx context.Context, id string) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM sales WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete sale: %w", err)
	}
	return nil
}

// ListByAuthors unión de las particiones pedidas, más recientes primero.
func (r *SaleRepo) ListByAuthors(ctx context.Context, authorIDs []string) ([]*entity.Sale, error) {
	if len(authorIDs) == 0 {
		return []*entity.Sale{}, nil
	}
	rows, err := r.db.Query(ctx,
		`SELECT `+saleColumns+` FROM sales WHERE user_id = ANY($1) ORDER BY completed_at DESC, id`, authorIDs)
	if err != nil {
		return nil, fmt.Errorf("list sales: %w", err)
	}
	defer rows.Close()
	out := []*entity.Sale{}
	for rows.Next() {
		s, err := scanSale(rows)
		if err != nil {
			return nil, fmt.Errorf("scan sale: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func scanSale(row pgx.Row) (*entity.Sale, error) {
	var s entity.Sale
	err := row.Scan(&s.ID, &s.CustomerName, &s.CustomerEmail, &s.CustomerPhone, &s.Product, &s.Value, &s.Status, &s.Tags,
		&s.AppointmentDate, &s.CompletedAt, &s.UserID, &s.Notes, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &s, nil
}
