package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/molino-api/internal/domain"
	"github.com/jhoicas/molino-api/internal/domain/entity"
	"github.com/jhoicas/molino-api/internal/domain/repository"
)

var _ repository.StockMovementRepository = (*StockMovementRepo)(nil)

const movementColumns = `id, company_id, reference_number, product_id, warehouse_id, batch_id, movement_type,
		quantity, unit_cost, quantity_before, quantity_after, ref_kind, ref_id,
		from_warehouse_id, to_warehouse_id, notes, created_at, created_by`

// StockMovementRepo implementación del libro de movimientos sobre PostgreSQL.
// Append-only: la tabla no recibe UPDATE ni DELETE desde la aplicación.
type StockMovementRepo struct {
	q Querier
}

// NewStockMovementRepository construye el adaptador. Pasar pool o tx (Querier).
func NewStockMovementRepository(q Querier) *StockMovementRepo {
	return &StockMovementRepo{q: q}
}

// Create agrega un asiento al libro.
func (r *StockMovementRepo) Create(ctx context.Context, m *entity.StockMovement) error {
	query := `
		INSERT INTO stock_movements (` + movementColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)`
	createdBy := (*string)(nil)
	if m.CreatedBy != "" {
		createdBy = &m.CreatedBy
	}
	_, err := r.q.Exec(ctx, query,
		m.ID, m.CompanyID, m.ReferenceNumber, m.ProductID, m.WarehouseID, m.BatchID,
		string(m.Type), m.Quantity, m.UnitCost, m.QuantityBefore, m.QuantityAfter,
		string(m.Ref.Kind), m.Ref.ID, m.FromWarehouseID, m.ToWarehouseID, m.Notes,
		m.CreatedAt, createdBy,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert stock movement: %w", err)
	}
	return nil
}

// GetByID obtiene un asiento por ID.
func (r *StockMovementRepo) GetByID(ctx context.Context, companyID, id string) (*entity.StockMovement, error) {
	query := `SELECT ` + movementColumns + ` FROM stock_movements WHERE company_id = $1 AND id = $2`
	m, err := scanMovement(r.q.QueryRow(ctx, query, companyID, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get movement: %w", err)
	}
	return m, nil
}

// ListByWarehouse feed de movimientos de una bodega en un rango de fechas.
func (r *StockMovementRepo) ListByWarehouse(ctx context.Context, companyID, warehouseID string, from, to *time.Time, limit, offset int) ([]*entity.StockMovement, error) {
	query := `SELECT ` + movementColumns + ` FROM stock_movements WHERE company_id = $1 AND warehouse_id = $2`
	return r.list(ctx, query, []any{companyID, warehouseID}, 3, from, to, limit, offset)
}

// ListByProduct feed de movimientos de un producto en un rango de fechas.
func (r *StockMovementRepo) ListByProduct(ctx context.Context, companyID, productID string, from, to *time.Time, limit, offset int) ([]*entity.StockMovement, error) {
	query := `SELECT ` + movementColumns + ` FROM stock_movements WHERE company_id = $1 AND product_id = $2`
	return r.list(ctx, query, []any{companyID, productID}, 3, from, to, limit, offset)
}

// ListByRef movimientos originados por un documento concreto (auditoría).
func (r *StockMovementRepo) ListByRef(ctx context.Context, companyID string, ref entity.MovementRef) ([]*entity.StockMovement, error) {
	query := `
		SELECT ` + movementColumns + `
		FROM stock_movements WHERE company_id = $1 AND ref_kind = $2 AND ref_id = $3
		ORDER BY created_at ASC, reference_number ASC`
	rows, err := r.q.Query(ctx, query, companyID, string(ref.Kind), ref.ID)
	if err != nil {
		return nil, fmt.Errorf("list movements by ref: %w", err)
	}
	defer rows.Close()
	return collectMovements(rows)
}

func (r *StockMovementRepo) list(ctx context.Context, query string, args []any, pos int, from, to *time.Time, limit, offset int) ([]*entity.StockMovement, error) {
	if from != nil {
		query += fmt.Sprintf(" AND created_at >= $%d", pos)
		args = append(args, *from)
		pos++
	}
	if to != nil {
		query += fmt.Sprintf(" AND created_at <= $%d", pos)
		args = append(args, *to)
		pos++
	}
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", pos, pos+1)
	args = append(args, limit, offset)

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list movements: %w", err)
	}
	defer rows.Close()
	return collectMovements(rows)
}

func collectMovements(rows pgx.Rows) ([]*entity.StockMovement, error) {
	var list []*entity.StockMovement
	for rows.Next() {
		m, err := scanMovement(rows)
		if err != nil {
			return nil, fmt.Errorf("scan movement: %w", err)
		}
		list = append(list, m)
	}
	return list, rows.Err()
}

func scanMovement(row pgx.Row) (*entity.StockMovement, error) {
	var m entity.StockMovement
	var movType, refKind string
	var createdBy *string
	err := row.Scan(
		&m.ID, &m.CompanyID, &m.ReferenceNumber, &m.ProductID, &m.WarehouseID, &m.BatchID,
		&movType, &m.Quantity, &m.UnitCost, &m.QuantityBefore, &m.QuantityAfter,
		&refKind, &m.Ref.ID, &m.FromWarehouseID, &m.ToWarehouseID, &m.Notes,
		&m.CreatedAt, &createdBy,
	)
	if err != nil {
		return nil, err
	}
	m.Type = entity.MovementType(movType)
	m.Ref.Kind = entity.RefKind(refKind)
	if createdBy != nil {
		m.CreatedBy = *createdBy
	}
	return &m, nil
}
