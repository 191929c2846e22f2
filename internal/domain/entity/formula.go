package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Formula receta de producción: proporciones de ingredientes por lote base.
// Ej. "Alimento Ponedoras" = 50% maíz, 30% soya, 20% salvado sobre un lote de 1000 kg.
type Formula struct {
	ID            string
	CompanyID     string
	Name          string
	ProductID     string          // producto terminado que produce
	BaseBatchSize decimal.Decimal // tamaño del lote base para items de cantidad fija
	UnitMeasure   string
	IsActive      bool
	Items         []FormulaItem
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// FormulaItem ingrediente de la receta. Usa Percentage (relativo a la salida)
// o Quantity (fija, relativa a BaseBatchSize); al menos uno debe estar definido.
type FormulaItem struct {
	ID         string
	FormulaID  string
	ProductID  string
	Quantity   *decimal.Decimal // cantidad fija por lote base
	Percentage *decimal.Decimal // porcentaje de la salida objetivo (0-100)
	UnitMeasure string
	Position   int // orden estable dentro de la receta
}
