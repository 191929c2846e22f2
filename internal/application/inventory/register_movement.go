package inventory

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/molino-api/internal/application/dto"
	"github.com/jhoicas/molino-api/internal/domain"
	"github.com/jhoicas/molino-api/internal/domain/entity"
	dominv "github.com/jhoicas/molino-api/internal/domain/inventory"
	"github.com/jhoicas/molino-api/internal/domain/production"
	"github.com/jhoicas/molino-api/internal/domain/repository"
	"github.com/jhoicas/molino-api/pkg/logger"
)

// RegisterMovementUseCase registra entradas por compra, ajustes y traslados de
// forma transaccional. La producción tiene su propia máquina de estados; aquí
// viven los colaboradores que abren lotes (purchase_in) y los movimientos manuales.
type RegisterMovementUseCase struct {
	txRunner      TxRunner
	writer        *LedgerWriter
	productRepo   repository.ProductRepository
	warehouseRepo repository.WarehouseRepository
	log           *logger.Logger
}

// NewRegisterMovementUseCase construye el caso de uso.
func NewRegisterMovementUseCase(
	txRunner TxRunner,
	writer *LedgerWriter,
	productRepo repository.ProductRepository,
	warehouseRepo repository.WarehouseRepository,
	log *logger.Logger,
) *RegisterMovementUseCase {
	return &RegisterMovementUseCase{
		txRunner:      txRunner,
		writer:        writer,
		productRepo:   productRepo,
		warehouseRepo: warehouseRepo,
		log:           log,
	}
}

// RegisterReceipt recepción de compra: abre un lote y acredita purchase_in.
// El lote queda disponible para asignación FEFO desde ese momento.
func (uc *RegisterMovementUseCase) RegisterReceipt(ctx context.Context, companyID, userID string, in dto.RegisterReceiptRequest) (*entity.InventoryBatch, error) {
	if in.PurchaseOrderID == "" {
		return nil, domain.NewValidationError("purchase_order_id", "documento origen requerido")
	}
	if err := uc.validateProductWarehouse(ctx, companyID, in.ProductID, in.WarehouseID); err != nil {
		return nil, err
	}
	now := time.Now()
	productionDate := now
	if in.ProductionDate != nil {
		productionDate = *in.ProductionDate
	}

	var batch *entity.InventoryBatch
	err := uc.txRunner.Run(ctx, func(
		batchRepo repository.BatchRepository,
		movRepo repository.StockMovementRepository,
		_ repository.ProductionRunRepository,
		seqRepo repository.SequenceRepository,
	) error {
		var err error
		batch, err = uc.writer.CreditInTx(ctx, batchRepo, movRepo, seqRepo, CreditInput{
			CompanyID:      companyID,
			UserID:         userID,
			ProductID:      in.ProductID,
			WarehouseID:    in.WarehouseID,
			Quantity:       in.Quantity,
			UnitCost:       in.UnitCost,
			Type:           entity.MovementPurchaseIn,
			Ref:            entity.MovementRef{Kind: entity.RefPurchaseOrder, ID: in.PurchaseOrderID},
			ProductionDate: productionDate,
			ExpiryDate:     in.ExpiryDate,
			Notes:          in.Notes,
		}, now)
		return err
	})
	if err != nil {
		return nil, err
	}
	uc.log.Info().
		Str("company_id", companyID).
		Str("batch_number", batch.BatchNumber).
		Str("product_id", in.ProductID).
		Msg("recepción de compra registrada")
	return batch, nil
}

// RegisterAdjustment ajuste manual: in abre un lote (adjustment_in), out
// descuenta FEFO (adjustment_out).
func (uc *RegisterMovementUseCase) RegisterAdjustment(ctx context.Context, companyID, userID string, in dto.RegisterAdjustmentRequest) error {
	if in.AdjustmentID == "" {
		return domain.NewValidationError("adjustment_id", "documento origen requerido")
	}
	if in.Direction != "in" && in.Direction != "out" {
		return domain.NewValidationError("direction", "debe ser in u out")
	}
	if in.Direction == "in" && in.UnitCost.LessThanOrEqual(decimal.Zero) {
		return domain.NewValidationError("unit_cost", "costo unitario requerido en ajustes de entrada")
	}
	if err := uc.validateProductWarehouse(ctx, companyID, in.ProductID, in.WarehouseID); err != nil {
		return err
	}
	now := time.Now()
	ref := entity.MovementRef{Kind: entity.RefAdjustment, ID: in.AdjustmentID}

	return uc.txRunner.Run(ctx, func(
		batchRepo repository.BatchRepository,
		movRepo repository.StockMovementRepository,
		_ repository.ProductionRunRepository,
		seqRepo repository.SequenceRepository,
	) error {
		if in.Direction == "in" {
			_, err := uc.writer.CreditInTx(ctx, batchRepo, movRepo, seqRepo, CreditInput{
				CompanyID:   companyID,
				UserID:      userID,
				ProductID:   in.ProductID,
				WarehouseID: in.WarehouseID,
				Quantity:    in.Quantity,
				UnitCost:    in.UnitCost,
				Type:        entity.MovementAdjustmentIn,
				Ref:         ref,
				Notes:       in.Notes,
			}, now)
			return err
		}
		_, err := uc.writer.ConsumeInTx(ctx, batchRepo, movRepo, seqRepo, ConsumeInput{
			CompanyID:   companyID,
			UserID:      userID,
			ProductID:   in.ProductID,
			WarehouseID: in.WarehouseID,
			Quantity:    in.Quantity,
			Type:        entity.MovementAdjustmentOut,
			Ref:         ref,
			Notes:       in.Notes,
		}, now)
		return err
	})
}

// RegisterTransfer traslado entre bodegas: descuenta FEFO en origen
// (transfer_out) y abre un lote en destino (transfer_in) al costo FIFO
// mezclado de lo trasladado. Una sola transacción, dos asientos.
func (uc *RegisterMovementUseCase) RegisterTransfer(ctx context.Context, companyID, userID string, in dto.RegisterTransferRequest) error {
	if in.TransferID == "" {
		return domain.NewValidationError("transfer_id", "documento origen requerido")
	}
	if in.FromWarehouseID == in.ToWarehouseID {
		return domain.NewValidationError("to_warehouse_id", "bodega destino igual a la de origen")
	}
	if err := uc.validateProductWarehouse(ctx, companyID, in.ProductID, in.FromWarehouseID); err != nil {
		return err
	}
	if _, err := uc.warehouse(ctx, companyID, in.ToWarehouseID); err != nil {
		return err
	}
	now := time.Now()
	ref := entity.MovementRef{Kind: entity.RefTransfer, ID: in.TransferID}
	from := in.FromWarehouseID
	to := in.ToWarehouseID

	return uc.txRunner.Run(ctx, func(
		batchRepo repository.BatchRepository,
		movRepo repository.StockMovementRepository,
		_ repository.ProductionRunRepository,
		seqRepo repository.SequenceRepository,
	) error {
		allocs, err := uc.writer.ConsumeInTx(ctx, batchRepo, movRepo, seqRepo, ConsumeInput{
			CompanyID:       companyID,
			UserID:          userID,
			ProductID:       in.ProductID,
			WarehouseID:     from,
			Quantity:        in.Quantity,
			Type:            entity.MovementTransferOut,
			Ref:             ref,
			FromWarehouseID: &from,
			ToWarehouseID:   &to,
			Notes:           in.Notes,
		}, now)
		if err != nil {
			return err
		}
		unitCost := production.BlendedUnitCost(production.TotalCost(allocs), in.Quantity)
		productionDate, expiryDate := inheritedDates(allocs)
		_, err = uc.writer.CreditInTx(ctx, batchRepo, movRepo, seqRepo, CreditInput{
			CompanyID:       companyID,
			UserID:          userID,
			ProductID:       in.ProductID,
			WarehouseID:     to,
			Quantity:        in.Quantity,
			UnitCost:        unitCost,
			Type:            entity.MovementTransferIn,
			Ref:             ref,
			ProductionDate:  productionDate,
			ExpiryDate:      expiryDate,
			FromWarehouseID: &from,
			ToWarehouseID:   &to,
			Notes:           in.Notes,
		}, now)
		return err
	})
}

// inheritedDates conserva la perecibilidad en el lote destino de un traslado:
// fecha de producción más antigua y vencimiento más próximo de lo descontado.
func inheritedDates(allocs []dominv.Allocation) (time.Time, *time.Time) {
	var productionDate time.Time
	var expiryDate *time.Time
	for _, a := range allocs {
		if productionDate.IsZero() || a.ProductionDate.Before(productionDate) {
			productionDate = a.ProductionDate
		}
		if a.ExpiryDate != nil && (expiryDate == nil || a.ExpiryDate.Before(*expiryDate)) {
			expiryDate = a.ExpiryDate
		}
	}
	return productionDate, expiryDate
}

func (uc *RegisterMovementUseCase) validateProductWarehouse(ctx context.Context, companyID, productID, warehouseID string) error {
	product, err := uc.productRepo.GetByID(ctx, companyID, productID)
	if err != nil {
		return err
	}
	if product == nil {
		return domain.ErrNotFound
	}
	_, err = uc.warehouse(ctx, companyID, warehouseID)
	return err
}

func (uc *RegisterMovementUseCase) warehouse(ctx context.Context, companyID, warehouseID string) (*entity.Warehouse, error) {
	wh, err := uc.warehouseRepo.GetByID(ctx, companyID, warehouseID)
	if err != nil {
		return nil, err
	}
	if wh == nil {
		return nil, domain.ErrNotFound
	}
	return wh, nil
}
