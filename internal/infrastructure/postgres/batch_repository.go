package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/molino-api/internal/domain"
	"github.com/jhoicas/molino-api/internal/domain/entity"
	"github.com/jhoicas/molino-api/internal/domain/repository"
)

var _ repository.BatchRepository = (*BatchRepo)(nil)

const batchColumns = `id, company_id, batch_number, product_id, warehouse_id, production_date, expiry_date,
		initial_quantity, current_quantity, unit_cost, status, created_at, updated_at`

// BatchRepo implementación de BatchRepository sobre PostgreSQL (usable con pool o tx).
type BatchRepo struct {
	q Querier
}

// NewBatchRepository construye el adaptador de lotes. Pasar pool o tx (Querier).
func NewBatchRepository(q Querier) *BatchRepo {
	return &BatchRepo{q: q}
}

// Create persiste un lote nuevo.
func (r *BatchRepo) Create(ctx context.Context, b *entity.InventoryBatch) error {
	query := `
		INSERT INTO inventory_batches (` + batchColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`
	_, err := r.q.Exec(ctx, query,
		b.ID, b.CompanyID, b.BatchNumber, b.ProductID, b.WarehouseID,
		b.ProductionDate, b.ExpiryDate, b.InitialQuantity, b.CurrentQuantity,
		b.UnitCost, b.Status, b.CreatedAt, b.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert batch: %w", err)
	}
	return nil
}

// GetByID obtiene un lote por ID dentro de la empresa.
func (r *BatchRepo) GetByID(ctx context.Context, companyID, id string) (*entity.InventoryBatch, error) {
	query := `SELECT ` + batchColumns + ` FROM inventory_batches WHERE company_id = $1 AND id = $2`
	b, err := scanBatch(r.q.QueryRow(ctx, query, companyID, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get batch: %w", err)
	}
	return b, nil
}

// AvailableQuantity existencia de (producto, bodega): Σ current_quantity sobre
// lotes active y sin vencer a la fecha. Lectura pura, sin locks.
func (r *BatchRepo) AvailableQuantity(ctx context.Context, companyID, productID, warehouseID string, at time.Time) (decimal.Decimal, error) {
	query := `
		SELECT COALESCE(SUM(current_quantity), 0)
		FROM inventory_batches
		WHERE company_id = $1 AND product_id = $2 AND warehouse_id = $3
		  AND status = 'active'
		  AND (expiry_date IS NULL OR expiry_date > $4)`
	var total decimal.Decimal
	if err := r.q.QueryRow(ctx, query, companyID, productID, warehouseID, at).Scan(&total); err != nil {
		return decimal.Zero, fmt.Errorf("available quantity: %w", err)
	}
	return total, nil
}

// ListEligibleForUpdate lotes consumibles de (producto, bodega) en orden FEFO
// determinista, bloqueando las filas (SELECT ... FOR UPDATE). La lectura del
// asignador y la escritura del libro comparten este lock: dos consumos
// concurrentes sobre el mismo par se serializan aquí.
func (r *BatchRepo) ListEligibleForUpdate(ctx context.Context, companyID, productID, warehouseID string, at time.Time) ([]*entity.InventoryBatch, error) {
	query := `
		SELECT ` + batchColumns + `
		FROM inventory_batches
		WHERE company_id = $1 AND product_id = $2 AND warehouse_id = $3
		  AND status = 'active'
		  AND (expiry_date IS NULL OR expiry_date > $4)
		ORDER BY expiry_date ASC NULLS LAST, production_date ASC, id ASC
		FOR UPDATE`
	rows, err := r.q.Query(ctx, query, companyID, productID, warehouseID, at)
	if err != nil {
		return nil, fmt.Errorf("list eligible batches: %w", err)
	}
	defer rows.Close()
	var list []*entity.InventoryBatch
	for rows.Next() {
		b, err := scanBatch(rows)
		if err != nil {
			return nil, fmt.Errorf("scan batch: %w", err)
		}
		list = append(list, b)
	}
	return list, rows.Err()
}

// UpdateQuantity persiste current_quantity y status de un lote ya bloqueado.
func (r *BatchRepo) UpdateQuantity(ctx context.Context, b *entity.InventoryBatch) error {
	query := `
		UPDATE inventory_batches SET current_quantity = $3, status = $4, updated_at = $5
		WHERE company_id = $1 AND id = $2`
	cmd, err := r.q.Exec(ctx, query, b.CompanyID, b.ID, b.CurrentQuantity, b.Status, b.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update batch quantity: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// MarkExpired marca expired los lotes activos ya vencidos.
func (r *BatchRepo) MarkExpired(ctx context.Context, companyID string, at time.Time) (int64, error) {
	query := `
		UPDATE inventory_batches SET status = 'expired', updated_at = now()
		WHERE company_id = $1 AND status = 'active' AND expiry_date IS NOT NULL AND expiry_date <= $2`
	cmd, err := r.q.Exec(ctx, query, companyID, at)
	if err != nil {
		return 0, fmt.Errorf("mark expired batches: %w", err)
	}
	return cmd.RowsAffected(), nil
}

// ListByProduct lista lotes de un producto, opcionalmente filtrando por bodega.
func (r *BatchRepo) ListByProduct(ctx context.Context, companyID, productID, warehouseID string, limit, offset int) ([]*entity.InventoryBatch, error) {
	query := `SELECT ` + batchColumns + ` FROM inventory_batches WHERE company_id = $1 AND product_id = $2`
	args := []any{companyID, productID}
	pos := 3
	if warehouseID != "" {
		query += fmt.Sprintf(" AND warehouse_id = $%d", pos)
		args = append(args, warehouseID)
		pos++
	}
	query += fmt.Sprintf(" ORDER BY expiry_date ASC NULLS LAST, production_date ASC, id ASC LIMIT $%d OFFSET $%d", pos, pos+1)
	args = append(args, limit, offset)

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list batches: %w", err)
	}
	defer rows.Close()
	var list []*entity.InventoryBatch
	for rows.Next() {
		b, err := scanBatch(rows)
		if err != nil {
			return nil, fmt.Errorf("scan batch: %w", err)
		}
		list = append(list, b)
	}
	return list, rows.Err()
}

func scanBatch(row pgx.Row) (*entity.InventoryBatch, error) {
	var b entity.InventoryBatch
	err := row.Scan(
		&b.ID, &b.CompanyID, &b.BatchNumber, &b.ProductID, &b.WarehouseID,
		&b.ProductionDate, &b.ExpiryDate, &b.InitialQuantity, &b.CurrentQuantity,
		&b.UnitCost, &b.Status, &b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &b, nil
}
