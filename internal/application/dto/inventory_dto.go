package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// RegisterReceiptRequest recepción de compra: abre un lote y acredita purchase_in.
type RegisterReceiptRequest struct {
	ProductID       string          `json:"product_id" validate:"required"`
	WarehouseID     string          `json:"warehouse_id" validate:"required"`
	Quantity        decimal.Decimal `json:"quantity" validate:"required"`
	UnitCost        decimal.Decimal `json:"unit_cost" validate:"required"`
	PurchaseOrderID string          `json:"purchase_order_id" validate:"required"`
	ProductionDate  *time.Time      `json:"production_date"`
	ExpiryDate      *time.Time      `json:"expiry_date"`
	Notes           string          `json:"notes"`
}

// RegisterAdjustmentRequest ajuste manual de inventario (positivo o negativo).
type RegisterAdjustmentRequest struct {
	ProductID    string          `json:"product_id" validate:"required"`
	WarehouseID  string          `json:"warehouse_id" validate:"required"`
	Quantity     decimal.Decimal `json:"quantity" validate:"required"` // magnitud, > 0
	Direction    string          `json:"direction" validate:"required"` // in, out
	UnitCost     decimal.Decimal `json:"unit_cost"`                     // obligatorio en in
	AdjustmentID string          `json:"adjustment_id" validate:"required"`
	Notes        string          `json:"notes"`
}

// RegisterTransferRequest traslado entre bodegas.
type RegisterTransferRequest struct {
	ProductID       string          `json:"product_id" validate:"required"`
	FromWarehouseID string          `json:"from_warehouse_id" validate:"required"`
	ToWarehouseID   string          `json:"to_warehouse_id" validate:"required"`
	Quantity        decimal.Decimal `json:"quantity" validate:"required"`
	TransferID      string          `json:"transfer_id" validate:"required"`
	Notes           string          `json:"notes"`
}

// BatchResponse lote en respuestas.
type BatchResponse struct {
	ID              string          `json:"id"`
	BatchNumber     string          `json:"batch_number"`
	ProductID       string          `json:"product_id"`
	WarehouseID     string          `json:"warehouse_id"`
	ProductionDate  time.Time       `json:"production_date"`
	ExpiryDate      *time.Time      `json:"expiry_date,omitempty"`
	InitialQuantity decimal.Decimal `json:"initial_quantity"`
	CurrentQuantity decimal.Decimal `json:"current_quantity"`
	UnitCost        decimal.Decimal `json:"unit_cost"`
	Status          string          `json:"status"`
}

// MovementResponse asiento del libro de movimientos en respuestas.
type MovementResponse struct {
	ID              string           `json:"id"`
	ReferenceNumber string           `json:"reference_number"`
	ProductID       string           `json:"product_id"`
	WarehouseID     string           `json:"warehouse_id"`
	BatchID         *string          `json:"batch_id,omitempty"`
	Type            string           `json:"type"`
	Quantity        decimal.Decimal  `json:"quantity"`
	UnitCost        *decimal.Decimal `json:"unit_cost,omitempty"`
	QuantityBefore  decimal.Decimal  `json:"quantity_before"`
	QuantityAfter   decimal.Decimal  `json:"quantity_after"`
	RefKind         string           `json:"ref_kind"`
	RefID           string           `json:"ref_id"`
	CreatedAt       time.Time        `json:"created_at"`
}

// OnHandResponse existencia actual de (producto, bodega).
type OnHandResponse struct {
	ProductID   string          `json:"product_id"`
	WarehouseID string          `json:"warehouse_id"`
	Quantity    decimal.Decimal `json:"quantity"`
}

// AvailabilityItemDTO reporte de suficiencia por item.
type AvailabilityItemDTO struct {
	ProductID  string          `json:"product_id"`
	Required   decimal.Decimal `json:"required"`
	Available  decimal.Decimal `json:"available"`
	Shortfall  decimal.Decimal `json:"shortfall"`
	Sufficient bool            `json:"sufficient"`
}

// AvailabilityReportDTO reporte completo de disponibilidad de materiales.
type AvailabilityReportDTO struct {
	Items         []AvailabilityItemDTO `json:"items"`
	AllSufficient bool                  `json:"all_sufficient"`
}
