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

var _ repository.ProductionRunRepository = (*ProductionRunRepo)(nil)

const runColumns = `id, company_id, run_number, formula_id, product_id, warehouse_id,
		target_quantity, actual_output, derived_output, output_divergent, wastage_quantity,
		total_cost, cost_per_unit, status, notes, started_at, completed_at, created_at, updated_at, created_by`

// ProductionRunRepo implementación de ProductionRunRepository sobre PostgreSQL.
type ProductionRunRepo struct {
	q Querier
}

// NewProductionRunRepository construye el adaptador. Pasar pool o tx (Querier).
func NewProductionRunRepository(q Querier) *ProductionRunRepo {
	return &ProductionRunRepo{q: q}
}

// Create persiste la orden con sus items planificados.
func (r *ProductionRunRepo) Create(ctx context.Context, run *entity.ProductionRun) error {
	query := `
		INSERT INTO production_runs (` + runColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)`
	_, err := r.q.Exec(ctx, query,
		run.ID, run.CompanyID, run.RunNumber, run.FormulaID, run.ProductID, run.WarehouseID,
		run.TargetQuantity, run.ActualOutput, run.DerivedOutput, run.OutputDivergent, run.WastageQuantity,
		run.TotalCost, run.CostPerUnit, run.Status, run.Notes, run.StartedAt, run.CompletedAt,
		run.CreatedAt, run.UpdatedAt, run.CreatedBy,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert production run: %w", err)
	}
	for _, item := range run.Items {
		if err := r.insertItem(ctx, &item); err != nil {
			return err
		}
	}
	return nil
}

func (r *ProductionRunRepo) insertItem(ctx context.Context, item *entity.ProductionRunItem) error {
	query := `
		INSERT INTO production_run_items (id, run_id, product_id, planned_quantity, actual_quantity,
			variance, unit_cost, total_cost, unit_measure, position)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	_, err := r.q.Exec(ctx, query,
		item.ID, item.RunID, item.ProductID, item.PlannedQuantity, item.ActualQuantity,
		item.Variance, item.UnitCost, item.TotalCost, item.UnitMeasure, item.Position,
	)
	if err != nil {
		return fmt.Errorf("insert run item: %w", err)
	}
	return nil
}

// GetByID obtiene la orden con sus items ordenados por position.
func (r *ProductionRunRepo) GetByID(ctx context.Context, companyID, id string) (*entity.ProductionRun, error) {
	query := `SELECT ` + runColumns + ` FROM production_runs WHERE company_id = $1 AND id = $2`
	return r.get(ctx, query, companyID, id)
}

// GetForUpdate bloquea la fila de la orden (SELECT ... FOR UPDATE). Solo dentro
// de una transacción; serializa complete/cancel/recordLoss sobre la misma orden.
func (r *ProductionRunRepo) GetForUpdate(ctx context.Context, companyID, id string) (*entity.ProductionRun, error) {
	query := `SELECT ` + runColumns + ` FROM production_runs WHERE company_id = $1 AND id = $2 FOR UPDATE`
	return r.get(ctx, query, companyID, id)
}

func (r *ProductionRunRepo) get(ctx context.Context, query, companyID, id string) (*entity.ProductionRun, error) {
	run, err := scanRun(r.q.QueryRow(ctx, query, companyID, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get production run: %w", err)
	}
	if err := r.loadItems(ctx, run); err != nil {
		return nil, err
	}
	return run, nil
}

func (r *ProductionRunRepo) loadItems(ctx context.Context, run *entity.ProductionRun) error {
	query := `
		SELECT id, run_id, product_id, planned_quantity, actual_quantity, variance,
			unit_cost, total_cost, unit_measure, position
		FROM production_run_items WHERE run_id = $1 ORDER BY position ASC`
	rows, err := r.q.Query(ctx, query, run.ID)
	if err != nil {
		return fmt.Errorf("load run items: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var item entity.ProductionRunItem
		if err := rows.Scan(&item.ID, &item.RunID, &item.ProductID, &item.PlannedQuantity,
			&item.ActualQuantity, &item.Variance, &item.UnitCost, &item.TotalCost,
			&item.UnitMeasure, &item.Position); err != nil {
			return fmt.Errorf("scan run item: %w", err)
		}
		run.Items = append(run.Items, item)
	}
	return rows.Err()
}

// CompareAndSetStatus UPDATE condicionado al estado actual; exactamente un
// ganador entre operaciones concurrentes. started_at se fija al pasar a
// in_progress. Devuelve true si este caller ganó el CAS.
func (r *ProductionRunRepo) CompareAndSetStatus(ctx context.Context, companyID, id, from, to string) (bool, error) {
	query := `
		UPDATE production_runs
		SET status = $4,
		    started_at = CASE WHEN $4 = 'in_progress' THEN now() ELSE started_at END,
		    updated_at = now()
		WHERE company_id = $1 AND id = $2 AND status = $3`
	cmd, err := r.q.Exec(ctx, query, companyID, id, from, to)
	if err != nil {
		return false, fmt.Errorf("cas run status: %w", err)
	}
	return cmd.RowsAffected() == 1, nil
}

// UpdateWastage acumula merma sobre una orden in_progress (fila ya bloqueada).
func (r *ProductionRunRepo) UpdateWastage(ctx context.Context, run *entity.ProductionRun) error {
	query := `
		UPDATE production_runs SET wastage_quantity = $3, updated_at = $4
		WHERE company_id = $1 AND id = $2 AND status = 'in_progress'`
	cmd, err := r.q.Exec(ctx, query, run.CompanyID, run.ID, run.WastageQuantity, run.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update run wastage: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return &domain.ConcurrencyConflictError{Resource: "production_run", ID: run.ID}
	}
	return nil
}

// SaveCompletion persiste el cierre: salida real/derivada, costos, divergencia,
// actuals por item y la transición a completed. La fila viene bloqueada por
// GetForUpdate, pero el WHERE sobre status mantiene el CAS como última defensa.
func (r *ProductionRunRepo) SaveCompletion(ctx context.Context, run *entity.ProductionRun) error {
	query := `
		UPDATE production_runs
		SET actual_output = $3, derived_output = $4, output_divergent = $5, wastage_quantity = $6,
		    total_cost = $7, cost_per_unit = $8, status = $9, notes = $10, completed_at = $11, updated_at = $12
		WHERE company_id = $1 AND id = $2 AND status = 'in_progress'`
	cmd, err := r.q.Exec(ctx, query,
		run.CompanyID, run.ID, run.ActualOutput, run.DerivedOutput, run.OutputDivergent,
		run.WastageQuantity, run.TotalCost, run.CostPerUnit, run.Status, run.Notes,
		run.CompletedAt, run.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("save run completion: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return &domain.ConcurrencyConflictError{Resource: "production_run", ID: run.ID}
	}
	for _, item := range run.Items {
		itemQuery := `
			UPDATE production_run_items
			SET actual_quantity = $2, variance = $3, unit_cost = $4, total_cost = $5
			WHERE id = $1`
		if _, err := r.q.Exec(ctx, itemQuery, item.ID, item.ActualQuantity, item.Variance,
			item.UnitCost, item.TotalCost); err != nil {
			return fmt.Errorf("save run item actuals: %w", err)
		}
	}
	return nil
}

// UpdateNotes reemplaza la nota de auditoría de la orden.
func (r *ProductionRunRepo) UpdateNotes(ctx context.Context, companyID, id, notes string) error {
	query := `UPDATE production_runs SET notes = $3, updated_at = now() WHERE company_id = $1 AND id = $2`
	if _, err := r.q.Exec(ctx, query, companyID, id, notes); err != nil {
		return fmt.Errorf("update run notes: %w", err)
	}
	return nil
}

// ListByCompany lista órdenes, opcionalmente por estado (sin items).
func (r *ProductionRunRepo) ListByCompany(ctx context.Context, companyID string, status string, limit, offset int) ([]*entity.ProductionRun, error) {
	query := `SELECT ` + runColumns + ` FROM production_runs WHERE company_id = $1`
	args := []any{companyID}
	pos := 2
	if status != "" {
		query += fmt.Sprintf(" AND status = $%d", pos)
		args = append(args, status)
		pos++
	}
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", pos, pos+1)
	args = append(args, limit, offset)

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list production runs: %w", err)
	}
	defer rows.Close()
	var list []*entity.ProductionRun
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan production run: %w", err)
		}
		list = append(list, run)
	}
	return list, rows.Err()
}

// AddLoss registra un evento de pérdida ligado a la orden.
func (r *ProductionRunRepo) AddLoss(ctx context.Context, loss *entity.ProductionLoss) error {
	query := `
		INSERT INTO production_losses (id, company_id, run_id, product_id, loss_type,
			quantity_lost, estimated_value, reason, created_at, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	_, err := r.q.Exec(ctx, query,
		loss.ID, loss.CompanyID, loss.RunID, loss.ProductID, loss.LossType,
		loss.QuantityLost, loss.EstimatedValue, loss.Reason, loss.CreatedAt, loss.CreatedBy,
	)
	if err != nil {
		return fmt.Errorf("insert production loss: %w", err)
	}
	return nil
}

// ListLosses lista los eventos de pérdida de una orden.
func (r *ProductionRunRepo) ListLosses(ctx context.Context, companyID, runID string) ([]*entity.ProductionLoss, error) {
	query := `
		SELECT id, company_id, run_id, product_id, loss_type, quantity_lost, estimated_value, reason, created_at, created_by
		FROM production_losses WHERE company_id = $1 AND run_id = $2 ORDER BY created_at ASC`
	rows, err := r.q.Query(ctx, query, companyID, runID)
	if err != nil {
		return nil, fmt.Errorf("list production losses: %w", err)
	}
	defer rows.Close()
	var list []*entity.ProductionLoss
	for rows.Next() {
		var l entity.ProductionLoss
		var createdBy *string
		if err := rows.Scan(&l.ID, &l.CompanyID, &l.RunID, &l.ProductID, &l.LossType,
			&l.QuantityLost, &l.EstimatedValue, &l.Reason, &l.CreatedAt, &createdBy); err != nil {
			return nil, fmt.Errorf("scan production loss: %w", err)
		}
		if createdBy != nil {
			l.CreatedBy = *createdBy
		}
		list = append(list, &l)
	}
	return list, rows.Err()
}

func scanRun(row pgx.Row) (*entity.ProductionRun, error) {
	var run entity.ProductionRun
	var createdBy *string
	err := row.Scan(
		&run.ID, &run.CompanyID, &run.RunNumber, &run.FormulaID, &run.ProductID, &run.WarehouseID,
		&run.TargetQuantity, &run.ActualOutput, &run.DerivedOutput, &run.OutputDivergent, &run.WastageQuantity,
		&run.TotalCost, &run.CostPerUnit, &run.Status, &run.Notes, &run.StartedAt, &run.CompletedAt,
		&run.CreatedAt, &run.UpdatedAt, &createdBy,
	)
	if err != nil {
		return nil, err
	}
	if createdBy != nil {
		run.CreatedBy = *createdBy
	}
	return &run, nil
}
