package inventory

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/molino-api/internal/domain"
	"github.com/jhoicas/molino-api/internal/domain/entity"
	"github.com/jhoicas/molino-api/internal/domain/repository"
)

// StockQueryUseCase lecturas para reportes y auditoría: existencia por
// (producto, bodega), lotes y el feed append-only de movimientos.
type StockQueryUseCase struct {
	batchRepo repository.BatchRepository
	movRepo   repository.StockMovementRepository
}

// NewStockQueryUseCase construye el caso de uso.
func NewStockQueryUseCase(batchRepo repository.BatchRepository, movRepo repository.StockMovementRepository) *StockQueryUseCase {
	return &StockQueryUseCase{batchRepo: batchRepo, movRepo: movRepo}
}

// OnHand existencia actual de (producto, bodega): Σ current_quantity sobre lotes activos sin vencer.
func (uc *StockQueryUseCase) OnHand(ctx context.Context, companyID, productID, warehouseID string) (decimal.Decimal, error) {
	if productID == "" || warehouseID == "" {
		return decimal.Zero, domain.NewValidationError("product_id/warehouse_id", "requeridos")
	}
	return uc.batchRepo.AvailableQuantity(ctx, companyID, productID, warehouseID, time.Now())
}

// ListBatches lotes de un producto (opcionalmente por bodega).
func (uc *StockQueryUseCase) ListBatches(ctx context.Context, companyID, productID, warehouseID string, limit, offset int) ([]*entity.InventoryBatch, error) {
	return uc.batchRepo.ListByProduct(ctx, companyID, productID, warehouseID, limit, offset)
}

// MovementsByProduct feed de movimientos de un producto en un rango de fechas.
func (uc *StockQueryUseCase) MovementsByProduct(ctx context.Context, companyID, productID string, from, to *time.Time, limit, offset int) ([]*entity.StockMovement, error) {
	return uc.movRepo.ListByProduct(ctx, companyID, productID, from, to, limit, offset)
}

// MovementsByWarehouse feed de movimientos de una bodega en un rango de fechas.
func (uc *StockQueryUseCase) MovementsByWarehouse(ctx context.Context, companyID, warehouseID string, from, to *time.Time, limit, offset int) ([]*entity.StockMovement, error) {
	return uc.movRepo.ListByWarehouse(ctx, companyID, warehouseID, from, to, limit, offset)
}

// ExpireBatches marca expired los lotes activos ya vencidos. La programación
// (cron) es responsabilidad de un colaborador externo.
func (uc *StockQueryUseCase) ExpireBatches(ctx context.Context, companyID string) (int64, error) {
	return uc.batchRepo.MarkExpired(ctx, companyID, time.Now())
}
