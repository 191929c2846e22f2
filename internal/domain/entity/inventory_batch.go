package entity

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Estados de un lote de inventario.
const (
	BatchStatusActive     = "active"
	BatchStatusDepleted   = "depleted"
	BatchStatusExpired    = "expired"
	BatchStatusQuarantine = "quarantine"
)

// InventoryBatch representa un lote recibido o producido, rastreado de forma
// independiente para vencimiento y costo. Solo el Ledger Writer lo muta.
// Invariante: 0 <= CurrentQuantity <= InitialQuantity.
type InventoryBatch struct {
	ID              string
	CompanyID       string
	BatchNumber     string // único por empresa
	ProductID       string
	WarehouseID     string
	ProductionDate  time.Time
	ExpiryDate      *time.Time // nil = no vence
	InitialQuantity decimal.Decimal
	CurrentQuantity decimal.Decimal
	UnitCost        decimal.Decimal
	Status          string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Validate verifica el invariante de cantidades del lote.
func (b *InventoryBatch) Validate() error {
	if b.CurrentQuantity.IsNegative() || b.CurrentQuantity.GreaterThan(b.InitialQuantity) {
		return fmt.Errorf("lote %s fuera de invariante: current %s, initial %s",
			b.BatchNumber, b.CurrentQuantity, b.InitialQuantity)
	}
	return nil
}

// Consumible indica si el lote puede descontarse en la fecha dada:
// activo y sin vencer (o sin fecha de vencimiento).
func (b *InventoryBatch) Consumible(at time.Time) bool {
	if b.Status != BatchStatusActive {
		return false
	}
	if b.ExpiryDate != nil && !b.ExpiryDate.After(at) {
		return false
	}
	return b.CurrentQuantity.GreaterThan(decimal.Zero)
}
