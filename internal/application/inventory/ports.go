package inventory

import (
	"context"

	"github.com/jhoicas/molino-api/internal/domain/repository"
)

// TxRunner ejecuta una función dentro de una transacción de BD, pasando
// repositorios atados a esa tx. Todos los movimientos de una operación lógica
// hacen Commit o Rollback juntos; nunca son observables descuentos parciales.
type TxRunner interface {
	Run(ctx context.Context, fn func(
		batchRepo repository.BatchRepository,
		movRepo repository.StockMovementRepository,
		runRepo repository.ProductionRunRepository,
		seqRepo repository.SequenceRepository,
	) error) error
}
