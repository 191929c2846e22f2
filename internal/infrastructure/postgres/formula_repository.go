package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/molino-api/internal/domain"
	"github.com/jhoicas/molino-api/internal/domain/entity"
	"github.com/jhoicas/molino-api/internal/domain/repository"
)

var _ repository.FormulaRepository = (*FormulaRepo)(nil)

const formulaColumns = `id, company_id, name, product_id, base_batch_size, unit_measure, is_active, created_at, updated_at`

// FormulaRepo implementación de FormulaRepository sobre PostgreSQL.
type FormulaRepo struct {
	q Querier
}

func NewFormulaRepository(q Querier) *FormulaRepo {
	return &FormulaRepo{q: q}
}

// Create persiste la receta con sus ingredientes.
func (r *FormulaRepo) Create(ctx context.Context, formula *entity.Formula) error {
	query := `
		INSERT INTO formulas (` + formulaColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err := r.q.Exec(ctx, query,
		formula.ID, formula.CompanyID, formula.Name, formula.ProductID,
		formula.BaseBatchSize, formula.UnitMeasure, formula.IsActive,
		formula.CreatedAt, formula.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert formula: %w", err)
	}
	for _, item := range formula.Items {
		itemQuery := `
			INSERT INTO formula_items (id, formula_id, product_id, quantity, percentage, unit_measure, position)
			VALUES ($1, $2, $3, $4, $5, $6, $7)`
		if _, err := r.q.Exec(ctx, itemQuery,
			item.ID, item.FormulaID, item.ProductID, item.Quantity, item.Percentage,
			item.UnitMeasure, item.Position); err != nil {
			return fmt.Errorf("insert formula item: %w", err)
		}
	}
	return nil
}

// GetByID devuelve la receta con sus items ordenados por position.
func (r *FormulaRepo) GetByID(ctx context.Context, companyID, id string) (*entity.Formula, error) {
	query := `SELECT ` + formulaColumns + ` FROM formulas WHERE company_id = $1 AND id = $2`
	formula, err := scanFormula(r.q.QueryRow(ctx, query, companyID, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get formula: %w", err)
	}
	if err := r.loadItems(ctx, formula); err != nil {
		return nil, err
	}
	return formula, nil
}

// ListByCompany lista las recetas activas de la empresa (sin items).
func (r *FormulaRepo) ListByCompany(ctx context.Context, companyID string, limit, offset int) ([]*entity.Formula, error) {
	query := `
		SELECT ` + formulaColumns + ` FROM formulas
		WHERE company_id = $1 AND is_active = true
		ORDER BY name ASC LIMIT $2 OFFSET $3`
	rows, err := r.q.Query(ctx, query, companyID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list formulas: %w", err)
	}
	defer rows.Close()
	var list []*entity.Formula
	for rows.Next() {
		formula, err := scanFormula(rows)
		if err != nil {
			return nil, fmt.Errorf("scan formula: %w", err)
		}
		list = append(list, formula)
	}
	return list, rows.Err()
}

func (r *FormulaRepo) loadItems(ctx context.Context, formula *entity.Formula) error {
	query := `
		SELECT id, formula_id, product_id, quantity, percentage, unit_measure, position
		FROM formula_items WHERE formula_id = $1 ORDER BY position ASC`
	rows, err := r.q.Query(ctx, query, formula.ID)
	if err != nil {
		return fmt.Errorf("load formula items: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var item entity.FormulaItem
		if err := rows.Scan(&item.ID, &item.FormulaID, &item.ProductID, &item.Quantity,
			&item.Percentage, &item.UnitMeasure, &item.Position); err != nil {
			return fmt.Errorf("scan formula item: %w", err)
		}
		formula.Items = append(formula.Items, item)
	}
	return rows.Err()
}

func scanFormula(row pgx.Row) (*entity.Formula, error) {
	var f entity.Formula
	err := row.Scan(&f.ID, &f.CompanyID, &f.Name, &f.ProductID, &f.BaseBatchSize,
		&f.UnitMeasure, &f.IsActive, &f.CreatedAt, &f.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &f, nil
}
