package production

import (
	"github.com/shopspring/decimal"

	"github.com/jhoicas/molino-api/internal/domain/inventory"
)

// TotalCost costo FIFO de lo realmente consumido: Σ (cantidad × costo del lote).
// Costeo por lote específico, no promedio ponderado.
func TotalCost(allocs []inventory.Allocation) decimal.Decimal {
	total := decimal.Zero
	for _, a := range allocs {
		total = total.Add(a.Quantity.Mul(a.UnitCost))
	}
	return total
}

// CostPerUnit costo por unidad producida. Devuelve nil (indefinido, no fatal)
// cuando la salida real es cero, en lugar de dividir por cero.
func CostPerUnit(totalCost, actualOutput decimal.Decimal) *decimal.Decimal {
	if !actualOutput.GreaterThan(decimal.Zero) {
		return nil
	}
	c := totalCost.Div(actualOutput)
	return &c
}

// BlendedUnitCost costo unitario FIFO mezclado de un consumo (total / cantidad).
// Cero si la cantidad es cero.
func BlendedUnitCost(totalCost, quantity decimal.Decimal) decimal.Decimal {
	if !quantity.GreaterThan(decimal.Zero) {
		return decimal.Zero
	}
	return totalCost.Div(quantity)
}
