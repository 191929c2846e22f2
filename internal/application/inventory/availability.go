package inventory

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/molino-api/internal/domain"
	"github.com/jhoicas/molino-api/internal/domain/repository"
)

// Requirement cantidad requerida de un producto.
type Requirement struct {
	ProductID string
	Quantity  decimal.Decimal
}

// ItemReport suficiencia de un producto en la bodega consultada.
type ItemReport struct {
	ProductID  string
	Required   decimal.Decimal
	Available  decimal.Decimal
	Shortfall  decimal.Decimal // max(Required - Available, 0)
	Sufficient bool
}

// AvailabilityReport reporte de disponibilidad; AllSufficient = AND de todos los items.
type AvailabilityReport struct {
	Items         []ItemReport
	AllSufficient bool
}

// AvailabilityUseCase consulta de suficiencia de materiales. Lectura pura:
// no muta ni reserva nada; dos llamadas sin escrituras intermedias devuelven
// exactamente el mismo reporte.
type AvailabilityUseCase struct {
	batchRepo repository.BatchRepository
}

// NewAvailabilityUseCase construye el caso de uso.
func NewAvailabilityUseCase(batchRepo repository.BatchRepository) *AvailabilityUseCase {
	return &AvailabilityUseCase{batchRepo: batchRepo}
}

// Check calcula por item la existencia en lotes activos sin vencer de la bodega
// y compara contra lo requerido.
func (uc *AvailabilityUseCase) Check(ctx context.Context, companyID, warehouseID string, reqs []Requirement) (*AvailabilityReport, error) {
	if warehouseID == "" {
		return nil, domain.NewValidationError("warehouse_id", "bodega requerida")
	}
	if len(reqs) == 0 {
		return nil, domain.NewValidationError("items", "lista de requerimientos vacía")
	}
	now := time.Now()
	report := &AvailabilityReport{AllSufficient: true}
	for _, req := range reqs {
		if !req.Quantity.GreaterThan(decimal.Zero) {
			return nil, domain.NewValidationError("quantity", "cantidad requerida inválida para producto "+req.ProductID)
		}
		available, err := uc.batchRepo.AvailableQuantity(ctx, companyID, req.ProductID, warehouseID, now)
		if err != nil {
			return nil, err
		}
		item := ItemReport{
			ProductID:  req.ProductID,
			Required:   req.Quantity,
			Available:  available,
			Sufficient: available.GreaterThanOrEqual(req.Quantity),
		}
		if !item.Sufficient {
			item.Shortfall = req.Quantity.Sub(available)
			report.AllSufficient = false
		} else {
			item.Shortfall = decimal.Zero
		}
		report.Items = append(report.Items, item)
	}
	return report, nil
}
