package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estados de una orden de producción. Transiciones solo hacia adelante:
// planned -> in_progress -> completed; cancelled desde planned o in_progress.
// completed y cancelled son terminales e inmutables.
const (
	RunStatusPlanned    = "planned"
	RunStatusInProgress = "in_progress"
	RunStatusCompleted  = "completed"
	RunStatusCancelled  = "cancelled"
)

// CanTransition valida una transición de estado de la orden.
func CanTransition(from, to string) bool {
	switch from {
	case RunStatusPlanned:
		return to == RunStatusInProgress || to == RunStatusCancelled
	case RunStatusInProgress:
		return to == RunStatusCompleted || to == RunStatusCancelled
	}
	return false
}

// ProductionRun una ejecución de manufactura: receta + cantidad objetivo.
// Solo se muta a través de las operaciones explícitas de la máquina de estados.
type ProductionRun struct {
	ID              string
	CompanyID       string
	RunNumber       string // único por empresa, generado por el secuenciador
	FormulaID       string
	ProductID       string // producto terminado
	WarehouseID     string
	TargetQuantity  decimal.Decimal
	ActualOutput    decimal.Decimal // reportado por el operario al completar
	DerivedOutput   decimal.Decimal // Σ consumo real - mermas, calculado al completar
	OutputDivergent bool            // |ActualOutput - DerivedOutput| fuera de tolerancia
	WastageQuantity decimal.Decimal
	TotalCost       decimal.Decimal
	CostPerUnit     *decimal.Decimal // nil cuando ActualOutput = 0
	Status          string
	Notes           string
	Items           []ProductionRunItem
	StartedAt       *time.Time
	CompletedAt     *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
	CreatedBy       string
}

// ProductionRunItem consumo por ingrediente: planificado vs real.
// Variance = ActualQuantity - PlannedQuantity.
type ProductionRunItem struct {
	ID              string
	RunID           string
	ProductID       string
	PlannedQuantity decimal.Decimal
	ActualQuantity  decimal.Decimal
	Variance        decimal.Decimal
	UnitCost        decimal.Decimal // costo FIFO promedio de lo realmente consumido
	TotalCost       decimal.Decimal
	UnitMeasure     string
	Position        int
}
