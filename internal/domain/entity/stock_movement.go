package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// MovementType tipo de movimiento de inventario (conjunto cerrado).
type MovementType string

const (
	MovementPurchaseIn    MovementType = "purchase_in"
	MovementProductionIn  MovementType = "production_in"
	MovementProductionOut MovementType = "production_out"
	MovementSaleOut       MovementType = "sale_out"
	MovementAdjustmentIn  MovementType = "adjustment_in"
	MovementAdjustmentOut MovementType = "adjustment_out"
	MovementTransferIn    MovementType = "transfer_in"
	MovementTransferOut   MovementType = "transfer_out"
	MovementLoss          MovementType = "loss"
	MovementDrying        MovementType = "drying"
	MovementReturnIn      MovementType = "return_in"
	MovementReturnOut     MovementType = "return_out"
)

// Direction devuelve el signo del movimiento: +1 entrada, -1 salida, 0 desconocido.
// El switch es exhaustivo sobre el conjunto cerrado de tipos.
func (t MovementType) Direction() int {
	switch t {
	case MovementPurchaseIn, MovementProductionIn, MovementAdjustmentIn, MovementTransferIn, MovementReturnIn:
		return 1
	case MovementProductionOut, MovementSaleOut, MovementAdjustmentOut, MovementTransferOut, MovementLoss, MovementDrying, MovementReturnOut:
		return -1
	}
	return 0
}

// Valid indica si el tipo pertenece al conjunto cerrado.
func (t MovementType) Valid() bool { return t.Direction() != 0 }

// RefKind tipo del documento origen de un movimiento (unión cerrada).
type RefKind string

const (
	RefSalesOrder    RefKind = "sales_order"
	RefPurchaseOrder RefKind = "purchase_order"
	RefProductionRun RefKind = "production_run"
	RefAdjustment    RefKind = "adjustment"
	RefTransfer      RefKind = "transfer"
)

// MovementRef puntero tipado al documento que originó el movimiento.
type MovementRef struct {
	Kind RefKind
	ID   string
}

// StockMovement asiento inmutable del libro de inventario. Nunca se actualiza
// ni se borra después de insertado (append-only).
// Invariante: QuantityAfter = QuantityBefore ± Quantity según Direction().
type StockMovement struct {
	ID              string
	CompanyID       string
	ReferenceNumber string // único, generado por el secuenciador de documentos
	ProductID       string
	WarehouseID     string
	BatchID         *string
	Type            MovementType
	Quantity        decimal.Decimal // magnitud, siempre positiva
	UnitCost        *decimal.Decimal
	QuantityBefore  decimal.Decimal // existencia (producto, bodega) antes del asiento
	QuantityAfter   decimal.Decimal
	Ref             MovementRef
	FromWarehouseID *string // solo traslados
	ToWarehouseID   *string
	Notes           string
	CreatedAt       time.Time
	CreatedBy       string // UserID
}
