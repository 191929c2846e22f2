package repository

import (
	"context"
	"time"

	"github.com/jhoicas/molino-api/internal/domain/entity"
)

// StockMovementRepository define el puerto de persistencia del libro de
// movimientos. Append-only: no existe Update ni Delete por diseño.
type StockMovementRepository interface {
	Create(ctx context.Context, movement *entity.StockMovement) error
	GetByID(ctx context.Context, companyID, id string) (*entity.StockMovement, error)
	ListByWarehouse(ctx context.Context, companyID, warehouseID string, from, to *time.Time, limit, offset int) ([]*entity.StockMovement, error)
	ListByProduct(ctx context.Context, companyID, productID string, from, to *time.Time, limit, offset int) ([]*entity.StockMovement, error)
	ListByRef(ctx context.Context, companyID string, ref entity.MovementRef) ([]*entity.StockMovement, error)
}
