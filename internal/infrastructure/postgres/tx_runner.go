package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jhoicas/crm-api/internal/domain/repository"
)

var _ repository.ProvisioningTx = (*TxRunner)(nil)

// TxRunner ejecuta operaciones de varios repos en una sola transacción.
type TxRunner struct {
	pool *pgxpool.Pool
}

// NewTxRunner construye el runner con el pool.
func NewTxRunner(pool *pgxpool.Pool) *TxRunner {
	return &TxRunner{pool: pool}
}

// RunProvisioning inicia una transacción, ejecuta fn con los repos de identidad y perfil atados a
// la tx y hace Commit o Rollback. El alta de un usuario nunca deja una identidad sin perfil.
func (r *TxRunner) RunProvisioning(ctx context.Context, fn func(
	identities repository.IdentityRepository,
	profiles repository.ProfileRepository,
) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(NewIdentityRepository(tx), NewProfileRepository(tx)); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
