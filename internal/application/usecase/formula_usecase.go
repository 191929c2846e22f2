package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/molino-api/internal/application/dto"
	"github.com/jhoicas/molino-api/internal/domain"
	"github.com/jhoicas/molino-api/internal/domain/entity"
	"github.com/jhoicas/molino-api/internal/domain/repository"
)

var cien = decimal.NewFromInt(100)

// FormulaUseCase casos de uso para recetas de producción: alta y consulta.
// La resolución a cantidades planificadas vive en el dominio (formula.Resolve).
type FormulaUseCase struct {
	repo        repository.FormulaRepository
	productRepo repository.ProductRepository
}

// NewFormulaUseCase construye el caso de uso.
func NewFormulaUseCase(repo repository.FormulaRepository, productRepo repository.ProductRepository) *FormulaUseCase {
	return &FormulaUseCase{repo: repo, productRepo: productRepo}
}

// Create crea una receta con sus ingredientes. Cada item lleva porcentaje
// (0-100] o cantidad fija; la suma de porcentajes no puede exceder 100.
func (uc *FormulaUseCase) Create(ctx context.Context, companyID string, in dto.CreateFormulaRequest) (*dto.FormulaResponse, error) {
	if len(in.Items) == 0 {
		return nil, domain.NewValidationError("items", "la receta requiere al menos un ingrediente")
	}
	product, err := uc.productRepo.GetByID(ctx, companyID, in.ProductID)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, domain.ErrNotFound
	}

	now := time.Now()
	f := &entity.Formula{
		ID:            uuid.New().String(),
		CompanyID:     companyID,
		Name:          in.Name,
		ProductID:     in.ProductID,
		BaseBatchSize: in.BaseBatchSize,
		UnitMeasure:   in.UnitMeasure,
		IsActive:      true,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	pctSum := decimal.Zero
	for i, item := range in.Items {
		ing, err := uc.productRepo.GetByID(ctx, companyID, item.ProductID)
		if err != nil {
			return nil, err
		}
		if ing == nil {
			return nil, domain.NewValidationError("items", "ingrediente "+item.ProductID+" no existe")
		}
		switch {
		case item.Percentage != nil:
			if item.Percentage.LessThanOrEqual(decimal.Zero) || item.Percentage.GreaterThan(cien) {
				return nil, domain.NewValidationError("percentage", "debe estar en (0, 100]")
			}
			pctSum = pctSum.Add(*item.Percentage)
		case item.Quantity != nil:
			if item.Quantity.LessThanOrEqual(decimal.Zero) {
				return nil, domain.NewValidationError("quantity", "debe ser mayor que cero")
			}
			if !in.BaseBatchSize.GreaterThan(decimal.Zero) {
				return nil, domain.NewValidationError("base_batch_size", "requerido cuando hay ingredientes de cantidad fija")
			}
		default:
			return nil, domain.NewValidationError("items", "ingrediente "+item.ProductID+" sin cantidad ni porcentaje")
		}
		unit := item.UnitMeasure
		if unit == "" {
			unit = in.UnitMeasure
		}
		f.Items = append(f.Items, entity.FormulaItem{
			ID:          uuid.New().String(),
			FormulaID:   f.ID,
			ProductID:   item.ProductID,
			Quantity:    item.Quantity,
			Percentage:  item.Percentage,
			UnitMeasure: unit,
			Position:    i,
		})
	}
	if pctSum.GreaterThan(cien) {
		return nil, domain.NewValidationError("items", "los porcentajes suman más de 100")
	}
	if err := uc.repo.Create(ctx, f); err != nil {
		return nil, err
	}
	return toFormulaResponse(f), nil
}

// GetByID obtiene una receta con sus ingredientes.
func (uc *FormulaUseCase) GetByID(ctx context.Context, companyID, id string) (*dto.FormulaResponse, error) {
	f, err := uc.repo.GetByID(ctx, companyID, id)
	if err != nil {
		return nil, err
	}
	if f == nil {
		return nil, nil
	}
	return toFormulaResponse(f), nil
}

// List lista recetas de la empresa con paginación.
func (uc *FormulaUseCase) List(ctx context.Context, companyID string, limit, offset int) ([]*dto.FormulaResponse, error) {
	formulas, err := uc.repo.ListByCompany(ctx, companyID, limit, offset)
	if err != nil {
		return nil, err
	}
	out := make([]*dto.FormulaResponse, 0, len(formulas))
	for _, f := range formulas {
		out = append(out, toFormulaResponse(f))
	}
	return out, nil
}

func toFormulaResponse(f *entity.Formula) *dto.FormulaResponse {
	resp := &dto.FormulaResponse{
		ID:            f.ID,
		Name:          f.Name,
		ProductID:     f.ProductID,
		BaseBatchSize: f.BaseBatchSize,
		UnitMeasure:   f.UnitMeasure,
		IsActive:      f.IsActive,
		CreatedAt:     f.CreatedAt,
	}
	for _, item := range f.Items {
		resp.Items = append(resp.Items, dto.FormulaItemResponse{
			ProductID:   item.ProductID,
			Quantity:    item.Quantity,
			Percentage:  item.Percentage,
			UnitMeasure: item.UnitMeasure,
			Position:    item.Position,
		})
	}
	return resp
}
