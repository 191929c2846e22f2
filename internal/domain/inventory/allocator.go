package inventory

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/molino-api/internal/domain"
	"github.com/jhoicas/molino-api/internal/domain/entity"
)

// Allocation cantidad a descontar de un lote concreto, al costo de ese lote.
// Conserva las fechas del lote origen para que los traslados puedan heredar
// la perecibilidad de lo descontado.
type Allocation struct {
	BatchID        string
	BatchNumber    string
	Quantity       decimal.Decimal
	UnitCost       decimal.Decimal
	ProductionDate time.Time
	ExpiryDate     *time.Time
}

// SortFEFO ordena lotes por política FEFO determinista:
// (expiry_date ASC con NULL al final, production_date ASC, id ASC).
// El mismo orden que produce la consulta SQL; aquí para pureza y tests.
func SortFEFO(batches []*entity.InventoryBatch) {
	sort.SliceStable(batches, func(i, j int) bool {
		a, b := batches[i], batches[j]
		switch {
		case a.ExpiryDate == nil && b.ExpiryDate != nil:
			return false
		case a.ExpiryDate != nil && b.ExpiryDate == nil:
			return true
		case a.ExpiryDate != nil && b.ExpiryDate != nil && !a.ExpiryDate.Equal(*b.ExpiryDate):
			return a.ExpiryDate.Before(*b.ExpiryDate)
		}
		if !a.ProductionDate.Equal(b.ProductionDate) {
			return a.ProductionDate.Before(b.ProductionDate)
		}
		return a.ID < b.ID
	})
}

// Available suma la cantidad disponible de los lotes elegibles.
func Available(batches []*entity.InventoryBatch) decimal.Decimal {
	total := decimal.Zero
	for _, b := range batches {
		total = total.Add(b.CurrentQuantity)
	}
	return total
}

// Allocate toma greedy de cada lote elegible (en el orden dado, ya FEFO y con
// filas bloqueadas por el caller) hasta cubrir requested. No muta los lotes.
// Si la suma disponible no alcanza devuelve InsufficientStockError con el faltante.
func Allocate(productID string, batches []*entity.InventoryBatch, requested decimal.Decimal) ([]Allocation, error) {
	if !requested.GreaterThan(decimal.Zero) {
		return nil, domain.NewValidationError("quantity", "la cantidad a descontar debe ser mayor que cero")
	}
	available := Available(batches)
	if available.LessThan(requested) {
		return nil, domain.NewInsufficientStockError(productID, requested, available)
	}

	var allocs []Allocation
	remaining := requested
	for _, b := range batches {
		if !remaining.GreaterThan(decimal.Zero) {
			break
		}
		if !b.CurrentQuantity.GreaterThan(decimal.Zero) {
			continue
		}
		draw := decimal.Min(remaining, b.CurrentQuantity)
		allocs = append(allocs, Allocation{
			BatchID:        b.ID,
			BatchNumber:    b.BatchNumber,
			Quantity:       draw,
			UnitCost:       b.UnitCost,
			ProductionDate: b.ProductionDate,
			ExpiryDate:     b.ExpiryDate,
		})
		remaining = remaining.Sub(draw)
	}
	return allocs, nil
}
