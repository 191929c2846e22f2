package http

import (
	"github.com/jhoicas/molino-api/internal/application/dto"
	appinv "github.com/jhoicas/molino-api/internal/application/inventory"
	"github.com/jhoicas/molino-api/internal/domain/entity"
)

// Mapeos de entidades del dominio a DTOs de respuesta.

func toBatchResponse(b *entity.InventoryBatch) dto.BatchResponse {
	return dto.BatchResponse{
		ID:              b.ID,
		BatchNumber:     b.BatchNumber,
		ProductID:       b.ProductID,
		WarehouseID:     b.WarehouseID,
		ProductionDate:  b.ProductionDate,
		ExpiryDate:      b.ExpiryDate,
		InitialQuantity: b.InitialQuantity,
		CurrentQuantity: b.CurrentQuantity,
		UnitCost:        b.UnitCost,
		Status:          b.Status,
	}
}

func toMovementResponse(m *entity.StockMovement) dto.MovementResponse {
	return dto.MovementResponse{
		ID:              m.ID,
		ReferenceNumber: m.ReferenceNumber,
		ProductID:       m.ProductID,
		WarehouseID:     m.WarehouseID,
		BatchID:         m.BatchID,
		Type:            string(m.Type),
		Quantity:        m.Quantity,
		UnitCost:        m.UnitCost,
		QuantityBefore:  m.QuantityBefore,
		QuantityAfter:   m.QuantityAfter,
		RefKind:         string(m.Ref.Kind),
		RefID:           m.Ref.ID,
		CreatedAt:       m.CreatedAt,
	}
}

func toRunResponse(run *entity.ProductionRun) dto.RunResponse {
	out := dto.RunResponse{
		ID:              run.ID,
		RunNumber:       run.RunNumber,
		FormulaID:       run.FormulaID,
		ProductID:       run.ProductID,
		WarehouseID:     run.WarehouseID,
		TargetQuantity:  run.TargetQuantity,
		ActualOutput:    run.ActualOutput,
		DerivedOutput:   run.DerivedOutput,
		OutputDivergent: run.OutputDivergent,
		WastageQuantity: run.WastageQuantity,
		TotalCost:       run.TotalCost,
		CostPerUnit:     run.CostPerUnit,
		Status:          run.Status,
		Notes:           run.Notes,
		StartedAt:       run.StartedAt,
		CompletedAt:     run.CompletedAt,
		CreatedAt:       run.CreatedAt,
	}
	for _, item := range run.Items {
		out.Items = append(out.Items, dto.RunItemResponse{
			ProductID:       item.ProductID,
			PlannedQuantity: item.PlannedQuantity,
			ActualQuantity:  item.ActualQuantity,
			Variance:        item.Variance,
			UnitCost:        item.UnitCost,
			TotalCost:       item.TotalCost,
			UnitMeasure:     item.UnitMeasure,
		})
	}
	return out
}

func toLossResponse(l *entity.ProductionLoss) dto.LossResponse {
	return dto.LossResponse{
		ID:             l.ID,
		RunID:          l.RunID,
		ProductID:      l.ProductID,
		LossType:       l.LossType,
		QuantityLost:   l.QuantityLost,
		EstimatedValue: l.EstimatedValue,
		Reason:         l.Reason,
		CreatedAt:      l.CreatedAt,
	}
}

func toAvailabilityDTO(report *appinv.AvailabilityReport) dto.AvailabilityReportDTO {
	out := dto.AvailabilityReportDTO{AllSufficient: report.AllSufficient}
	for _, item := range report.Items {
		out.Items = append(out.Items, dto.AvailabilityItemDTO{
			ProductID:  item.ProductID,
			Required:   item.Required,
			Available:  item.Available,
			Shortfall:  item.Shortfall,
			Sufficient: item.Sufficient,
		})
	}
	return out
}
