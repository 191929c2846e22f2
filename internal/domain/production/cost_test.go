package production_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/molino-api/internal/domain/inventory"
	"github.com/jhoicas/molino-api/internal/domain/production"
)

func TestTotalCost_SumaPorLoteEspecifico(t *testing.T) {
	allocs := []inventory.Allocation{
		{BatchID: "b1", Quantity: decimal.NewFromInt(10), UnitCost: decimal.NewFromInt(100)},
		{BatchID: "b2", Quantity: decimal.NewFromInt(5), UnitCost: decimal.NewFromInt(120)},
	}
	// 10×100 + 5×120 = 1600; costeo por lote, no promedio del producto.
	total := production.TotalCost(allocs)
	assert.True(t, total.Equal(decimal.NewFromInt(1600)), "esperaba 1600, obtuvo %s", total)
}

func TestTotalCost_SinAsignacionesEsCero(t *testing.T) {
	assert.True(t, production.TotalCost(nil).IsZero())
}

func TestCostPerUnit_DivideSobreSalidaReal(t *testing.T) {
	c := production.CostPerUnit(decimal.NewFromInt(1600), decimal.NewFromInt(800))
	require.NotNil(t, c)
	assert.True(t, c.Equal(decimal.NewFromInt(2)), "1600 / 800 = 2, obtuvo %s", c)
}

func TestCostPerUnit_SalidaCeroEsIndefinido(t *testing.T) {
	assert.Nil(t, production.CostPerUnit(decimal.NewFromInt(1600), decimal.Zero),
		"salida cero no es fatal: el costo unitario queda indefinido")
	assert.Nil(t, production.CostPerUnit(decimal.NewFromInt(1600), decimal.NewFromInt(-1)))
}

func TestBlendedUnitCost(t *testing.T) {
	c := production.BlendedUnitCost(decimal.NewFromInt(1600), decimal.NewFromInt(15))
	esperado := decimal.NewFromInt(1600).Div(decimal.NewFromInt(15))
	assert.True(t, c.Equal(esperado))
	assert.True(t, production.BlendedUnitCost(decimal.NewFromInt(100), decimal.Zero).IsZero())
}
