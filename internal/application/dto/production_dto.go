package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// PlanRunRequest planifica una orden de producción a partir de una receta.
type PlanRunRequest struct {
	FormulaID      string          `json:"formula_id" validate:"required"`
	WarehouseID    string          `json:"warehouse_id" validate:"required"`
	TargetQuantity decimal.Decimal `json:"target_quantity" validate:"required"`
	UnitMeasure    string          `json:"unit_measure"`
	Notes          string          `json:"notes"`
}

// RecordLossRequest pérdida puntual durante una orden en curso.
type RecordLossRequest struct {
	ProductID string          `json:"product_id" validate:"required"`
	Quantity  decimal.Decimal `json:"quantity" validate:"required"`
	LossType  string          `json:"loss_type"` // spillage, drying, spoilage, other
	Reason    string          `json:"reason"`
}

// CompleteItemRequest consumo real de un ingrediente al completar.
type CompleteItemRequest struct {
	ProductID      string          `json:"product_id" validate:"required"`
	ActualQuantity decimal.Decimal `json:"actual_quantity" validate:"required"`
}

// CompleteRunRequest cierra la orden: consumos reales + salida real.
type CompleteRunRequest struct {
	Items        []CompleteItemRequest `json:"items" validate:"required"`
	ActualOutput decimal.Decimal       `json:"actual_output" validate:"required"`
	Notes        string                `json:"notes"`
}

// CancelRunRequest cancela la orden con motivo de auditoría.
type CancelRunRequest struct {
	Reason string `json:"reason" validate:"required"`
}

// RunItemResponse item de la orden en respuestas.
type RunItemResponse struct {
	ProductID       string          `json:"product_id"`
	PlannedQuantity decimal.Decimal `json:"planned_quantity"`
	ActualQuantity  decimal.Decimal `json:"actual_quantity"`
	Variance        decimal.Decimal `json:"variance"`
	UnitCost        decimal.Decimal `json:"unit_cost"`
	TotalCost       decimal.Decimal `json:"total_cost"`
	UnitMeasure     string          `json:"unit_measure"`
}

// RunResponse orden de producción en respuestas.
type RunResponse struct {
	ID              string            `json:"id"`
	RunNumber       string            `json:"run_number"`
	FormulaID       string            `json:"formula_id"`
	ProductID       string            `json:"product_id"`
	WarehouseID     string            `json:"warehouse_id"`
	TargetQuantity  decimal.Decimal   `json:"target_quantity"`
	ActualOutput    decimal.Decimal   `json:"actual_output"`
	DerivedOutput   decimal.Decimal   `json:"derived_output"`
	OutputDivergent bool              `json:"output_divergent"`
	WastageQuantity decimal.Decimal   `json:"wastage_quantity"`
	TotalCost       decimal.Decimal   `json:"total_cost"`
	CostPerUnit     *decimal.Decimal  `json:"cost_per_unit,omitempty"` // ausente si salida = 0
	Status          string            `json:"status"`
	Notes           string            `json:"notes,omitempty"`
	Items           []RunItemResponse `json:"items"`
	StartedAt       *time.Time        `json:"started_at,omitempty"`
	CompletedAt     *time.Time        `json:"completed_at,omitempty"`
	CreatedAt       time.Time         `json:"created_at"`
}

// CompletionResultDTO resultado del cierre de una orden.
type CompletionResultDTO struct {
	Run             RunResponse `json:"run"`
	OutputBatchID   string      `json:"output_batch_id"`
	OutputBatchNum  string      `json:"output_batch_number"`
}

// CreateFormulaItemRequest ingrediente de una receta nueva.
type CreateFormulaItemRequest struct {
	ProductID   string           `json:"product_id" validate:"required"`
	Quantity    *decimal.Decimal `json:"quantity"`
	Percentage  *decimal.Decimal `json:"percentage"`
	UnitMeasure string           `json:"unit_measure"`
}

// CreateFormulaRequest alta de receta.
type CreateFormulaRequest struct {
	Name          string                     `json:"name" validate:"required"`
	ProductID     string                     `json:"product_id" validate:"required"`
	BaseBatchSize decimal.Decimal            `json:"base_batch_size"`
	UnitMeasure   string                     `json:"unit_measure"`
	Items         []CreateFormulaItemRequest `json:"items" validate:"required"`
}

// FormulaItemResponse ingrediente en respuestas.
type FormulaItemResponse struct {
	ProductID   string           `json:"product_id"`
	Quantity    *decimal.Decimal `json:"quantity,omitempty"`
	Percentage  *decimal.Decimal `json:"percentage,omitempty"`
	UnitMeasure string           `json:"unit_measure"`
	Position    int              `json:"position"`
}

// FormulaResponse receta en respuestas.
type FormulaResponse struct {
	ID            string                `json:"id"`
	Name          string                `json:"name"`
	ProductID     string                `json:"product_id"`
	BaseBatchSize decimal.Decimal       `json:"base_batch_size"`
	UnitMeasure   string                `json:"unit_measure"`
	IsActive      bool                  `json:"is_active"`
	Items         []FormulaItemResponse `json:"items"`
	CreatedAt     time.Time             `json:"created_at"`
}

// LossResponse evento de pérdida en respuestas.
type LossResponse struct {
	ID             string          `json:"id"`
	RunID          string          `json:"run_id"`
	ProductID      string          `json:"product_id"`
	LossType       string          `json:"loss_type"`
	QuantityLost   decimal.Decimal `json:"quantity_lost"`
	EstimatedValue decimal.Decimal `json:"estimated_value"`
	Reason         string          `json:"reason,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
}
