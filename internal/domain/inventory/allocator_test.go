package inventory_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/molino-api/internal/domain"
	"github.com/jhoicas/molino-api/internal/domain/entity"
	"github.com/jhoicas/molino-api/internal/domain/inventory"
)

func fecha(s string) *time.Time {
	t, _ := time.Parse("2006-01-02", s)
	return &t
}

func lote(id string, expiry *time.Time, prodDate string, qty, cost int64) *entity.InventoryBatch {
	pd, _ := time.Parse("2006-01-02", prodDate)
	return &entity.InventoryBatch{
		ID:              id,
		BatchNumber:     "LOTE-" + id,
		ProductID:       "maiz",
		ExpiryDate:      expiry,
		ProductionDate:  pd,
		InitialQuantity: decimal.NewFromInt(qty),
		CurrentQuantity: decimal.NewFromInt(qty),
		UnitCost:        decimal.NewFromInt(cost),
		Status:          entity.BatchStatusActive,
	}
}

func TestSortFEFO_VenceProximoPrimero(t *testing.T) {
	batches := []*entity.InventoryBatch{
		lote("b2", fecha("2026-02-01"), "2025-01-02", 10, 100),
		lote("b1", fecha("2026-01-01"), "2025-01-01", 10, 100),
		lote("b3", nil, "2025-01-03", 10, 100),
	}
	inventory.SortFEFO(batches)
	assert.Equal(t, "b1", batches[0].ID, "el lote que vence primero va primero")
	assert.Equal(t, "b2", batches[1].ID)
	assert.Equal(t, "b3", batches[2].ID, "los lotes sin vencimiento van al final")
}

func TestSortFEFO_EmpateDesempataConProduccionYLuegoID(t *testing.T) {
	exp := fecha("2026-06-01")
	batches := []*entity.InventoryBatch{
		lote("z", exp, "2025-03-01", 10, 100),
		lote("a", exp, "2025-03-01", 10, 100),
		lote("m", exp, "2025-02-01", 10, 100),
	}
	inventory.SortFEFO(batches)
	assert.Equal(t, "m", batches[0].ID, "producción más antigua primero en empate de vencimiento")
	assert.Equal(t, "a", batches[1].ID, "empate total se resuelve por id ascendente")
	assert.Equal(t, "z", batches[2].ID)
}

func TestAllocate_ConsumeEnOrdenHastaCubrir(t *testing.T) {
	batches := []*entity.InventoryBatch{
		lote("b1", fecha("2026-01-01"), "2025-01-01", 10, 100),
		lote("b2", fecha("2026-02-01"), "2025-01-02", 10, 120),
	}
	allocs, err := inventory.Allocate("maiz", batches, decimal.NewFromInt(15))
	require.NoError(t, err)
	require.Len(t, allocs, 2)

	assert.Equal(t, "b1", allocs[0].BatchID)
	assert.True(t, allocs[0].Quantity.Equal(decimal.NewFromInt(10)), "el primer lote se agota completo")
	assert.Equal(t, "b2", allocs[1].BatchID)
	assert.True(t, allocs[1].Quantity.Equal(decimal.NewFromInt(5)), "el segundo lote cubre el resto")
	assert.True(t, allocs[1].UnitCost.Equal(decimal.NewFromInt(120)), "cada asignación lleva el costo de su lote")
}

func TestAllocate_NoMutaLosLotes(t *testing.T) {
	batches := []*entity.InventoryBatch{
		lote("b1", fecha("2026-01-01"), "2025-01-01", 10, 100),
	}
	_, err := inventory.Allocate("maiz", batches, decimal.NewFromInt(4))
	require.NoError(t, err)
	assert.True(t, batches[0].CurrentQuantity.Equal(decimal.NewFromInt(10)),
		"Allocate es puro; el descuento lo aplica el escritor del libro")
}

func TestAllocate_InsuficienteDevuelveFaltante(t *testing.T) {
	batches := []*entity.InventoryBatch{
		lote("b1", fecha("2026-01-01"), "2025-01-01", 300, 100),
		lote("b2", fecha("2026-02-01"), "2025-01-02", 100, 100),
	}
	_, err := inventory.Allocate("maiz", batches, decimal.NewFromInt(500))
	var stockErr *domain.InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, "maiz", stockErr.ProductID)
	assert.True(t, stockErr.Available.Equal(decimal.NewFromInt(400)))
	assert.True(t, stockErr.Shortfall.Equal(decimal.NewFromInt(100)), "faltante = solicitado - disponible")
}

func TestAllocate_SinLotesFallaConDisponibleCero(t *testing.T) {
	_, err := inventory.Allocate("maiz", nil, decimal.NewFromInt(1))
	var stockErr *domain.InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	assert.True(t, stockErr.Available.IsZero())
}

func TestAllocate_CantidadNoPositivaFalla(t *testing.T) {
	batches := []*entity.InventoryBatch{lote("b1", nil, "2025-01-01", 10, 100)}
	_, err := inventory.Allocate("maiz", batches, decimal.Zero)
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
}

func TestAllocate_ExactoAgotaSinSobrar(t *testing.T) {
	batches := []*entity.InventoryBatch{
		lote("b1", fecha("2026-01-01"), "2025-01-01", 10, 100),
		lote("b2", fecha("2026-02-01"), "2025-01-02", 10, 100),
	}
	allocs, err := inventory.Allocate("maiz", batches, decimal.NewFromInt(20))
	require.NoError(t, err)
	total := decimal.Zero
	for _, a := range allocs {
		total = total.Add(a.Quantity)
	}
	assert.True(t, total.Equal(decimal.NewFromInt(20)), "la suma asignada es exactamente lo solicitado")
}

func TestAllocate_SaltaLotesVacios(t *testing.T) {
	vacio := lote("b0", fecha("2025-12-01"), "2025-01-01", 0, 100)
	lleno := lote("b1", fecha("2026-01-01"), "2025-01-02", 10, 100)
	allocs, err := inventory.Allocate("maiz", []*entity.InventoryBatch{vacio, lleno}, decimal.NewFromInt(5))
	require.NoError(t, err)
	require.Len(t, allocs, 1)
	assert.Equal(t, "b1", allocs[0].BatchID)
}
