package repository

import (
	"context"

	"github.com/jhoicas/molino-api/internal/domain/entity"
)

// ProductionRunRepository define el puerto de persistencia para órdenes de producción.
// Los cambios de estado usan compare-and-set sobre status para que dos operaciones
// concurrentes sobre la misma orden tengan exactamente un ganador.
type ProductionRunRepository interface {
	// Create persiste la orden con sus items planificados.
	Create(ctx context.Context, run *entity.ProductionRun) error
	// GetByID devuelve la orden con sus items ordenados por position.
	GetByID(ctx context.Context, companyID, id string) (*entity.ProductionRun, error)
	// GetForUpdate bloquea la fila de la orden (SELECT ... FOR UPDATE); solo dentro de tx.
	GetForUpdate(ctx context.Context, companyID, id string) (*entity.ProductionRun, error)
	// CompareAndSetStatus ejecuta UPDATE ... WHERE status = from. Devuelve true si ganó el CAS.
	CompareAndSetStatus(ctx context.Context, companyID, id, from, to string) (bool, error)
	// UpdateWastage acumula merma sobre una orden in_progress.
	UpdateWastage(ctx context.Context, run *entity.ProductionRun) error
	// SaveCompletion persiste salida real, costos, divergencia y los actuals por item.
	SaveCompletion(ctx context.Context, run *entity.ProductionRun) error
	// UpdateNotes agrega la nota de auditoría (ej. motivo de cancelación).
	UpdateNotes(ctx context.Context, companyID, id, notes string) error
	ListByCompany(ctx context.Context, companyID string, status string, limit, offset int) ([]*entity.ProductionRun, error)

	// AddLoss registra un evento de pérdida ligado a la orden.
	AddLoss(ctx context.Context, loss *entity.ProductionLoss) error
	ListLosses(ctx context.Context, companyID, runID string) ([]*entity.ProductionLoss, error)
}
