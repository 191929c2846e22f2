package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	appinv "github.com/jhoicas/molino-api/internal/application/inventory"
	"github.com/jhoicas/molino-api/internal/domain"
	"github.com/jhoicas/molino-api/internal/domain/repository"
)

// Ensure TxRunner implements the application port.
var _ appinv.TxRunner = (*TxRunner)(nil)

// Cota superior por transacción: al vencer, la operación completa aborta y se
// reporta como retryable; no hay compensación parcial porque toda la mutación
// vive dentro del límite transaccional.
const txTimeout = 15 * time.Second

// TxRunner ejecuta callbacks dentro de una transacción PostgreSQL, entregando
// repositorios atados a la tx. Commit si fn retorna nil, Rollback si no.
type TxRunner struct {
	pool *pgxpool.Pool
}

// NewTxRunner construye el runner con el pool.
func NewTxRunner(pool *pgxpool.Pool) *TxRunner {
	return &TxRunner{pool: pool}
}

// Run inicia la transacción con timeout, ejecuta fn con los repos del motor de
// inventario/producción y hace Commit o Rollback.
func (r *TxRunner) Run(ctx context.Context, fn func(
	batchRepo repository.BatchRepository,
	movRepo repository.StockMovementRepository,
	runRepo repository.ProductionRunRepository,
	seqRepo repository.SequenceRepository,
) error) error {
	ctx, cancel := context.WithTimeout(ctx, txTimeout)
	defer cancel()

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return &domain.PersistenceError{Op: "begin transaction", Retryable: true, Err: err}
	}
	defer func() { _ = tx.Rollback(ctx) }()

	batchRepo := NewBatchRepository(tx)
	movRepo := NewStockMovementRepository(tx)
	runRepo := NewProductionRunRepository(tx)
	seqRepo := NewSequenceRepository(tx)

	if err := fn(batchRepo, movRepo, runRepo, seqRepo); err != nil {
		if ctx.Err() != nil {
			return &domain.PersistenceError{Op: "transaction", Retryable: true, Err: ctx.Err()}
		}
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return &domain.PersistenceError{Op: "commit transaction", Retryable: true, Err: err}
	}
	return nil
}
