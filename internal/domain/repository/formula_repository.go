package repository

import (
	"context"

	"github.com/jhoicas/molino-api/internal/domain/entity"
)

// FormulaRepository define el puerto de persistencia para recetas y sus ingredientes.
type FormulaRepository interface {
	Create(ctx context.Context, formula *entity.Formula) error
	// GetByID devuelve la receta con sus items ordenados por position.
	GetByID(ctx context.Context, companyID, id string) (*entity.Formula, error)
	ListByCompany(ctx context.Context, companyID string, limit, offset int) ([]*entity.Formula, error)
}
