package repository

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/molino-api/internal/domain/entity"
)

// BatchRepository define el puerto de persistencia para lotes de inventario.
// Las mutaciones de cantidad pasan siempre por el Ledger Writer dentro de una
// transacción; las lecturas de disponibilidad son puras.
type BatchRepository interface {
	Create(ctx context.Context, batch *entity.InventoryBatch) error
	GetByID(ctx context.Context, companyID, id string) (*entity.InventoryBatch, error)

	// AvailableQuantity existencia de (producto, bodega): Σ current_quantity
	// sobre lotes active sin vencer a la fecha dada. Lectura pura, sin locks.
	AvailableQuantity(ctx context.Context, companyID, productID, warehouseID string, at time.Time) (decimal.Decimal, error)

	// ListEligibleForUpdate lotes consumibles de (producto, bodega) en orden FEFO
	// (expiry ASC NULLS LAST, production_date ASC, id ASC), con SELECT ... FOR UPDATE.
	// Solo tiene sentido dentro de una transacción.
	ListEligibleForUpdate(ctx context.Context, companyID, productID, warehouseID string, at time.Time) ([]*entity.InventoryBatch, error)

	// UpdateQuantity persiste current_quantity y status de un lote ya bloqueado.
	UpdateQuantity(ctx context.Context, batch *entity.InventoryBatch) error

	// MarkExpired marca expired los lotes activos con expiry_date <= at. Devuelve filas afectadas.
	MarkExpired(ctx context.Context, companyID string, at time.Time) (int64, error)

	ListByProduct(ctx context.Context, companyID, productID, warehouseID string, limit, offset int) ([]*entity.InventoryBatch, error)
}
