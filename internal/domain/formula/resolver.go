package formula

import (
	"github.com/shopspring/decimal"

	"github.com/jhoicas/molino-api/internal/domain"
	"github.com/jhoicas/molino-api/internal/domain/entity"
)

var cien = decimal.NewFromInt(100)

// Requirement cantidad de materia prima necesaria para la salida objetivo.
type Requirement struct {
	ProductID   string
	Quantity    decimal.Decimal
	UnitMeasure string
	Position    int
}

// Resolve escala la receta a la salida objetivo y devuelve la lista ordenada
// de requerimientos. Servicio de dominio puro, sin efectos secundarios.
//
// Por item: Percentage -> target × (pct / 100); Quantity fija -> qty × (target / BaseBatchSize).
func Resolve(f *entity.Formula, target decimal.Decimal, unitMeasure string) ([]Requirement, error) {
	if f == nil {
		return nil, domain.NewValidationError("formula_id", "receta no encontrada")
	}
	if !target.GreaterThan(decimal.Zero) {
		return nil, domain.NewValidationError("target_quantity", "la cantidad objetivo debe ser mayor que cero")
	}
	if unitMeasure != "" && f.UnitMeasure != "" && unitMeasure != f.UnitMeasure {
		return nil, domain.NewValidationError("unit_measure", "unidad no coincide con la receta ("+f.UnitMeasure+")")
	}
	if len(f.Items) == 0 {
		return nil, domain.NewValidationError("formula_id", "la receta no tiene ingredientes")
	}

	reqs := make([]Requirement, 0, len(f.Items))
	for _, item := range f.Items {
		var qty decimal.Decimal
		switch {
		case item.Percentage != nil:
			if item.Percentage.LessThanOrEqual(decimal.Zero) {
				return nil, domain.NewValidationError("percentage", "porcentaje inválido en ingrediente "+item.ProductID)
			}
			qty = target.Mul(item.Percentage.Div(cien))
		case item.Quantity != nil:
			if !f.BaseBatchSize.GreaterThan(decimal.Zero) {
				return nil, domain.NewValidationError("base_batch_size", "la receta no define tamaño de lote base")
			}
			qty = item.Quantity.Mul(target.Div(f.BaseBatchSize))
		default:
			return nil, domain.NewValidationError("formula_items", "ingrediente "+item.ProductID+" sin cantidad ni porcentaje")
		}
		unit := item.UnitMeasure
		if unit == "" {
			unit = f.UnitMeasure
		}
		reqs = append(reqs, Requirement{
			ProductID:   item.ProductID,
			Quantity:    qty,
			UnitMeasure: unit,
			Position:    item.Position,
		})
	}
	return reqs, nil
}
