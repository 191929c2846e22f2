package inventory

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/molino-api/internal/domain"
	"github.com/jhoicas/molino-api/internal/domain/entity"
	dominv "github.com/jhoicas/molino-api/internal/domain/inventory"
	"github.com/jhoicas/molino-api/internal/domain/repository"
)

// LedgerWriter muta lotes y agrega asientos al libro de movimientos dentro de
// la transacción del caller: recibe los repos atados a la tx. La asignación
// FEFO y el descuento ocurren bajo los mismos locks de fila, así dos consumos
// concurrentes nunca toman las mismas unidades físicas.
type LedgerWriter struct{}

// NewLedgerWriter construye el escritor del libro.
func NewLedgerWriter() *LedgerWriter {
	return &LedgerWriter{}
}

// ConsumeInput descuento de inventario (movimientos de dirección salida).
type ConsumeInput struct {
	CompanyID   string
	UserID      string
	ProductID   string
	WarehouseID string
	Quantity    decimal.Decimal
	Type        entity.MovementType
	Ref         entity.MovementRef
	// FromWarehouseID/ToWarehouseID solo en traslados, para trazabilidad.
	FromWarehouseID *string
	ToWarehouseID   *string
	Notes           string
}

// ConsumeInTx bloquea los lotes elegibles (SELECT ... FOR UPDATE en orden FEFO),
// asigna greedy, reverifica cada lote bajo lock, descuenta, marca depleted al
// llegar a cero y agrega un asiento por lote consumido con consecutivo único.
// Devuelve las asignaciones para costeo FIFO.
func (w *LedgerWriter) ConsumeInTx(
	ctx context.Context,
	batchRepo repository.BatchRepository,
	movRepo repository.StockMovementRepository,
	seqRepo repository.SequenceRepository,
	in ConsumeInput,
	now time.Time,
) ([]dominv.Allocation, error) {
	if in.Type.Direction() != -1 {
		return nil, domain.NewValidationError("movement_type", "se esperaba un tipo de salida, llegó "+string(in.Type))
	}

	batches, err := batchRepo.ListEligibleForUpdate(ctx, in.CompanyID, in.ProductID, in.WarehouseID, now)
	if err != nil {
		return nil, err
	}
	allocs, err := dominv.Allocate(in.ProductID, batches, in.Quantity)
	if err != nil {
		return nil, err
	}

	byID := make(map[string]*entity.InventoryBatch, len(batches))
	for _, b := range batches {
		byID[b.ID] = b
	}

	// Existencia agregada (producto, bodega) antes de este consumo.
	running := dominv.Available(batches)

	for _, a := range allocs {
		b := byID[a.BatchID]
		// Reverificación bajo lock: si otro consumidor ganó la carrera desde la
		// lectura, el lote ya no es consumible o la cantidad no alcanza.
		if !b.Consumible(now) || b.CurrentQuantity.LessThan(a.Quantity) {
			return nil, &domain.ConcurrencyConflictError{Resource: "inventory_batch", ID: b.ID}
		}
		b.CurrentQuantity = b.CurrentQuantity.Sub(a.Quantity)
		if b.CurrentQuantity.IsZero() {
			b.Status = entity.BatchStatusDepleted
		}
		b.UpdatedAt = now
		if err := b.Validate(); err != nil {
			return nil, err
		}
		if err := batchRepo.UpdateQuantity(ctx, b); err != nil {
			return nil, err
		}

		refNumber, err := seqRepo.Next(ctx, in.CompanyID, repository.SequenceMovement)
		if err != nil {
			return nil, err
		}
		after := running.Sub(a.Quantity)
		batchID := a.BatchID
		unitCost := a.UnitCost
		mov := &entity.StockMovement{
			ID:              uuid.New().String(),
			CompanyID:       in.CompanyID,
			ReferenceNumber: refNumber,
			ProductID:       in.ProductID,
			WarehouseID:     in.WarehouseID,
			BatchID:         &batchID,
			Type:            in.Type,
			Quantity:        a.Quantity,
			UnitCost:        &unitCost,
			QuantityBefore:  running,
			QuantityAfter:   after,
			Ref:             in.Ref,
			FromWarehouseID: in.FromWarehouseID,
			ToWarehouseID:   in.ToWarehouseID,
			Notes:           in.Notes,
			CreatedAt:       now,
			CreatedBy:       in.UserID,
		}
		if err := movRepo.Create(ctx, mov); err != nil {
			return nil, err
		}
		running = after
	}
	return allocs, nil
}

// CreditInput entrada de inventario: abre un lote nuevo y lo acredita.
type CreditInput struct {
	CompanyID      string
	UserID         string
	ProductID      string
	WarehouseID    string
	Quantity       decimal.Decimal
	UnitCost       decimal.Decimal
	Type           entity.MovementType
	Ref            entity.MovementRef
	ProductionDate time.Time
	ExpiryDate     *time.Time
	// FromWarehouseID/ToWarehouseID solo en traslados, para trazabilidad.
	FromWarehouseID *string
	ToWarehouseID   *string
	Notes           string
}

// CreditInTx crea un lote nuevo (número consecutivo único) y agrega el asiento
// de entrada correspondiente. Misma transacción del caller.
func (w *LedgerWriter) CreditInTx(
	ctx context.Context,
	batchRepo repository.BatchRepository,
	movRepo repository.StockMovementRepository,
	seqRepo repository.SequenceRepository,
	in CreditInput,
	now time.Time,
) (*entity.InventoryBatch, error) {
	if in.Type.Direction() != 1 {
		return nil, domain.NewValidationError("movement_type", "se esperaba un tipo de entrada, llegó "+string(in.Type))
	}
	if !in.Quantity.GreaterThan(decimal.Zero) {
		return nil, domain.NewValidationError("quantity", "la cantidad a acreditar debe ser mayor que cero")
	}
	if in.UnitCost.LessThan(decimal.Zero) {
		return nil, domain.NewValidationError("unit_cost", "costo unitario negativo")
	}

	before, err := batchRepo.AvailableQuantity(ctx, in.CompanyID, in.ProductID, in.WarehouseID, now)
	if err != nil {
		return nil, err
	}

	batchNumber, err := seqRepo.Next(ctx, in.CompanyID, repository.SequenceBatch)
	if err != nil {
		return nil, err
	}
	productionDate := in.ProductionDate
	if productionDate.IsZero() {
		productionDate = now
	}
	batch := &entity.InventoryBatch{
		ID:              uuid.New().String(),
		CompanyID:       in.CompanyID,
		BatchNumber:     batchNumber,
		ProductID:       in.ProductID,
		WarehouseID:     in.WarehouseID,
		ProductionDate:  productionDate,
		ExpiryDate:      in.ExpiryDate,
		InitialQuantity: in.Quantity,
		CurrentQuantity: in.Quantity,
		UnitCost:        in.UnitCost,
		Status:          entity.BatchStatusActive,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := batchRepo.Create(ctx, batch); err != nil {
		return nil, err
	}

	refNumber, err := seqRepo.Next(ctx, in.CompanyID, repository.SequenceMovement)
	if err != nil {
		return nil, err
	}
	unitCost := in.UnitCost
	mov := &entity.StockMovement{
		ID:              uuid.New().String(),
		CompanyID:       in.CompanyID,
		ReferenceNumber: refNumber,
		ProductID:       in.ProductID,
		WarehouseID:     in.WarehouseID,
		BatchID:         &batch.ID,
		Type:            in.Type,
		Quantity:        in.Quantity,
		UnitCost:        &unitCost,
		QuantityBefore:  before,
		QuantityAfter:   before.Add(in.Quantity),
		Ref:             in.Ref,
		FromWarehouseID: in.FromWarehouseID,
		ToWarehouseID:   in.ToWarehouseID,
		Notes:           in.Notes,
		CreatedAt:       now,
		CreatedBy:       in.UserID,
	}
	if err := movRepo.Create(ctx, mov); err != nil {
		return nil, err
	}
	return batch, nil
}
