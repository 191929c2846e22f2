package production

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/molino-api/internal/application/dto"
	appinv "github.com/jhoicas/molino-api/internal/application/inventory"
	"github.com/jhoicas/molino-api/internal/domain"
	"github.com/jhoicas/molino-api/internal/domain/entity"
	"github.com/jhoicas/molino-api/internal/domain/formula"
	domprod "github.com/jhoicas/molino-api/internal/domain/production"
	"github.com/jhoicas/molino-api/internal/domain/repository"
	"github.com/jhoicas/molino-api/pkg/logger"
)

// Tolerancia de reconciliación entre la salida reportada y la derivada
// (Σ consumo real - mermas): 1% de la derivada.
var outputTolerance = decimal.NewFromFloat(0.01)

// UseCase máquina de estados de órdenes de producción:
// planned -> in_progress -> completed, con cancelled desde planned o in_progress.
// start solo verifica disponibilidad (no reserva); todo el consumo se difiere a
// complete, que ejecuta asignación FEFO + libro + costeo FIFO en una transacción.
type UseCase struct {
	txRunner      appinv.TxRunner
	writer        *appinv.LedgerWriter
	availability  *appinv.AvailabilityUseCase
	runRepo       repository.ProductionRunRepository
	formulaRepo   repository.FormulaRepository
	productRepo   repository.ProductRepository
	warehouseRepo repository.WarehouseRepository
	log           *logger.Logger
}

// NewUseCase construye la máquina de estados.
func NewUseCase(
	txRunner appinv.TxRunner,
	writer *appinv.LedgerWriter,
	availability *appinv.AvailabilityUseCase,
	runRepo repository.ProductionRunRepository,
	formulaRepo repository.FormulaRepository,
	productRepo repository.ProductRepository,
	warehouseRepo repository.WarehouseRepository,
	log *logger.Logger,
) *UseCase {
	return &UseCase{
		txRunner:      txRunner,
		writer:        writer,
		availability:  availability,
		runRepo:       runRepo,
		formulaRepo:   formulaRepo,
		productRepo:   productRepo,
		warehouseRepo: warehouseRepo,
		log:           log,
	}
}

// Plan crea una orden planned: resuelve la receta a la cantidad objetivo y
// persiste los items planificados. No toca inventario.
func (uc *UseCase) Plan(ctx context.Context, companyID, userID string, in dto.PlanRunRequest) (*entity.ProductionRun, error) {
	f, err := uc.formulaRepo.GetByID(ctx, companyID, in.FormulaID)
	if err != nil {
		return nil, err
	}
	if f == nil {
		return nil, domain.NewValidationError("formula_id", "receta no encontrada")
	}
	wh, err := uc.warehouseRepo.GetByID(ctx, companyID, in.WarehouseID)
	if err != nil {
		return nil, err
	}
	if wh == nil {
		return nil, domain.ErrNotFound
	}

	reqs, err := formula.Resolve(f, in.TargetQuantity, in.UnitMeasure)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	run := &entity.ProductionRun{
		ID:              uuid.New().String(),
		CompanyID:       companyID,
		FormulaID:       f.ID,
		ProductID:       f.ProductID,
		WarehouseID:     in.WarehouseID,
		TargetQuantity:  in.TargetQuantity,
		ActualOutput:    decimal.Zero,
		DerivedOutput:   decimal.Zero,
		WastageQuantity: decimal.Zero,
		TotalCost:       decimal.Zero,
		Status:          entity.RunStatusPlanned,
		Notes:           in.Notes,
		CreatedAt:       now,
		UpdatedAt:       now,
		CreatedBy:       userID,
	}
	for i, req := range reqs {
		run.Items = append(run.Items, entity.ProductionRunItem{
			ID:              uuid.New().String(),
			RunID:           run.ID,
			ProductID:       req.ProductID,
			PlannedQuantity: req.Quantity,
			ActualQuantity:  decimal.Zero,
			Variance:        decimal.Zero,
			UnitCost:        decimal.Zero,
			TotalCost:       decimal.Zero,
			UnitMeasure:     req.UnitMeasure,
			Position:        i,
		})
	}

	err = uc.txRunner.Run(ctx, func(
		_ repository.BatchRepository,
		_ repository.StockMovementRepository,
		runRepo repository.ProductionRunRepository,
		seqRepo repository.SequenceRepository,
	) error {
		number, err := seqRepo.Next(ctx, companyID, repository.SequenceRun)
		if err != nil {
			return err
		}
		run.RunNumber = number
		return runRepo.Create(ctx, run)
	})
	if err != nil {
		return nil, err
	}
	uc.log.Info().
		Str("company_id", companyID).
		Str("run_number", run.RunNumber).
		Str("formula_id", f.ID).
		Msg("orden de producción planificada")
	return run, nil
}

// CheckMaterials reporte de suficiencia contra los items planificados de la
// orden. Lectura pura e idempotente.
func (uc *UseCase) CheckMaterials(ctx context.Context, companyID, runID string) (*appinv.AvailabilityReport, error) {
	run, err := uc.getRun(ctx, companyID, runID)
	if err != nil {
		return nil, err
	}
	return uc.availability.Check(ctx, companyID, run.WarehouseID, plannedRequirements(run))
}

// Start transición planned -> in_progress. Verifica disponibilidad y falla con
// InsufficientStockError sin cambiar estado si algún material no alcanza.
// No reserva inventario: el consumo se difiere a Complete, aceptando que otra
// orden pueda consumir el mismo stock entre tanto (falla tardía reportada).
func (uc *UseCase) Start(ctx context.Context, companyID, userID, runID string) error {
	run, err := uc.getRun(ctx, companyID, runID)
	if err != nil {
		return err
	}
	if run.Status != entity.RunStatusPlanned {
		return &domain.StateConflictError{RunID: runID, Status: run.Status, Operation: "start"}
	}

	report, err := uc.availability.Check(ctx, companyID, run.WarehouseID, plannedRequirements(run))
	if err != nil {
		return err
	}
	if !report.AllSufficient {
		for _, item := range report.Items {
			if !item.Sufficient {
				return domain.NewInsufficientStockError(item.ProductID, item.Required, item.Available)
			}
		}
	}

	if err := uc.transition(ctx, companyID, runID, entity.RunStatusPlanned, entity.RunStatusInProgress, "start"); err != nil {
		return err
	}
	uc.log.Info().
		Str("company_id", companyID).
		Str("run_number", run.RunNumber).
		Msg("orden de producción iniciada")
	return nil
}

// RecordLoss registra una pérdida puntual durante una orden in_progress:
// descuenta FEFO (loss o drying), guarda el evento valorizado al costo FIFO y
// acumula la merma de la orden. No afecta la salida real.
func (uc *UseCase) RecordLoss(ctx context.Context, companyID, userID, runID string, in dto.RecordLossRequest) (*entity.ProductionLoss, error) {
	run, err := uc.getRun(ctx, companyID, runID)
	if err != nil {
		return nil, err
	}
	if run.Status != entity.RunStatusInProgress {
		return nil, &domain.StateConflictError{RunID: runID, Status: run.Status, Operation: "record_loss"}
	}
	product, err := uc.productRepo.GetByID(ctx, companyID, in.ProductID)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, domain.ErrNotFound
	}
	lossType := in.LossType
	if lossType == "" {
		lossType = entity.LossTypeOther
	}
	movType := entity.MovementLoss
	if lossType == entity.LossTypeDrying {
		movType = entity.MovementDrying
	}

	now := time.Now()
	var loss *entity.ProductionLoss
	err = uc.txRunner.Run(ctx, func(
		batchRepo repository.BatchRepository,
		movRepo repository.StockMovementRepository,
		runRepo repository.ProductionRunRepository,
		seqRepo repository.SequenceRepository,
	) error {
		locked, err := runRepo.GetForUpdate(ctx, companyID, runID)
		if err != nil {
			return err
		}
		if locked == nil {
			return domain.ErrNotFound
		}
		if locked.Status != entity.RunStatusInProgress {
			// La lectura previa decía in_progress: otra operación ganó la carrera.
			return &domain.ConcurrencyConflictError{Resource: "production_run", ID: runID}
		}

		allocs, err := uc.writer.ConsumeInTx(ctx, batchRepo, movRepo, seqRepo, appinv.ConsumeInput{
			CompanyID:   companyID,
			UserID:      userID,
			ProductID:   in.ProductID,
			WarehouseID: locked.WarehouseID,
			Quantity:    in.Quantity,
			Type:        movType,
			Ref:         entity.MovementRef{Kind: entity.RefProductionRun, ID: runID},
			Notes:       in.Reason,
		}, now)
		if err != nil {
			return err
		}

		loss = &entity.ProductionLoss{
			ID:             uuid.New().String(),
			CompanyID:      companyID,
			RunID:          runID,
			ProductID:      in.ProductID,
			LossType:       lossType,
			QuantityLost:   in.Quantity,
			EstimatedValue: domprod.TotalCost(allocs),
			Reason:         in.Reason,
			CreatedAt:      now,
			CreatedBy:      userID,
		}
		if err := runRepo.AddLoss(ctx, loss); err != nil {
			return err
		}
		locked.WastageQuantity = locked.WastageQuantity.Add(in.Quantity)
		locked.UpdatedAt = now
		return runRepo.UpdateWastage(ctx, locked)
	})
	if err != nil {
		return nil, err
	}
	uc.log.Info().
		Str("company_id", companyID).
		Str("run_id", runID).
		Str("loss_type", lossType).
		Str("quantity", in.Quantity.String()).
		Msg("pérdida de producción registrada")
	return loss, nil
}

// Complete cierra la orden: consume los reales por ingrediente (production_out,
// FEFO), acredita la salida real como lote nuevo de producto terminado
// (production_in), calcula varianzas y costeo FIFO, y transiciona a completed.
// Todo en una transacción: cualquier fallo intermedio (por ejemplo
// InsufficientStockError a mitad del loop) revierte todos los asientos del llamado.
func (uc *UseCase) Complete(ctx context.Context, companyID, userID, runID string, in dto.CompleteRunRequest) (*entity.ProductionRun, *entity.InventoryBatch, error) {
	run, err := uc.getRun(ctx, companyID, runID)
	if err != nil {
		return nil, nil, err
	}
	if run.Status != entity.RunStatusInProgress {
		return nil, nil, &domain.StateConflictError{RunID: runID, Status: run.Status, Operation: "complete"}
	}
	if in.ActualOutput.IsNegative() {
		return nil, nil, domain.NewValidationError("actual_output", "no puede ser negativa")
	}
	actuals, err := matchActuals(run, in.Items)
	if err != nil {
		return nil, nil, err
	}

	now := time.Now()
	ref := entity.MovementRef{Kind: entity.RefProductionRun, ID: runID}
	var outputBatch *entity.InventoryBatch

	err = uc.txRunner.Run(ctx, func(
		batchRepo repository.BatchRepository,
		movRepo repository.StockMovementRepository,
		runRepo repository.ProductionRunRepository,
		seqRepo repository.SequenceRepository,
	) error {
		locked, err := runRepo.GetForUpdate(ctx, companyID, runID)
		if err != nil {
			return err
		}
		if locked == nil {
			return domain.ErrNotFound
		}
		if locked.Status != entity.RunStatusInProgress {
			// complete() contra cancel() concurrente: exactamente un ganador.
			return &domain.ConcurrencyConflictError{Resource: "production_run", ID: runID}
		}

		totalCost := decimal.Zero
		consumed := decimal.Zero
		for i := range locked.Items {
			item := &locked.Items[i]
			actual := actuals[item.ProductID]
			item.ActualQuantity = actual
			item.Variance = actual.Sub(item.PlannedQuantity)
			if !actual.GreaterThan(decimal.Zero) {
				continue
			}
			allocs, err := uc.writer.ConsumeInTx(ctx, batchRepo, movRepo, seqRepo, appinv.ConsumeInput{
				CompanyID:   companyID,
				UserID:      userID,
				ProductID:   item.ProductID,
				WarehouseID: locked.WarehouseID,
				Quantity:    actual,
				Type:        entity.MovementProductionOut,
				Ref:         ref,
			}, now)
			if err != nil {
				return err
			}
			item.TotalCost = domprod.TotalCost(allocs)
			item.UnitCost = domprod.BlendedUnitCost(item.TotalCost, actual)
			totalCost = totalCost.Add(item.TotalCost)
			consumed = consumed.Add(actual)
		}

		// Reconciliación: la salida derivada es Σ consumo real - mermas. La
		// reportada se persiste tal cual; si divergen fuera de tolerancia se
		// marca la orden en vez de confiar en una de las dos cifras.
		derived := consumed.Sub(locked.WastageQuantity)
		if derived.IsNegative() {
			derived = decimal.Zero
		}
		locked.ActualOutput = in.ActualOutput
		locked.DerivedOutput = derived
		locked.OutputDivergent = outputDiverges(in.ActualOutput, derived)

		if in.ActualOutput.GreaterThan(decimal.Zero) {
			unitCost := domprod.BlendedUnitCost(totalCost, in.ActualOutput)
			outputBatch, err = uc.writer.CreditInTx(ctx, batchRepo, movRepo, seqRepo, appinv.CreditInput{
				CompanyID:      companyID,
				UserID:         userID,
				ProductID:      locked.ProductID,
				WarehouseID:    locked.WarehouseID,
				Quantity:       in.ActualOutput,
				UnitCost:       unitCost,
				Type:           entity.MovementProductionIn,
				Ref:            ref,
				ProductionDate: now,
				Notes:          in.Notes,
			}, now)
			if err != nil {
				return err
			}
		}

		locked.TotalCost = totalCost
		locked.CostPerUnit = domprod.CostPerUnit(totalCost, in.ActualOutput)
		locked.Status = entity.RunStatusCompleted
		if in.Notes != "" {
			locked.Notes = appendNote(locked.Notes, in.Notes)
		}
		locked.CompletedAt = &now
		locked.UpdatedAt = now
		if err := runRepo.SaveCompletion(ctx, locked); err != nil {
			return err
		}
		run = locked
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	uc.log.Info().
		Str("company_id", companyID).
		Str("run_number", run.RunNumber).
		Str("total_cost", run.TotalCost.String()).
		Bool("output_divergent", run.OutputDivergent).
		Msg("orden de producción completada")
	return run, outputBatch, nil
}

// Cancel transición a cancelled desde planned o in_progress. Como start no
// reserva stock, no hay inventario que liberar: solo cambio de estado + nota.
func (uc *UseCase) Cancel(ctx context.Context, companyID, userID, runID, reason string) error {
	if reason == "" {
		return domain.NewValidationError("reason", "motivo de cancelación requerido")
	}
	run, err := uc.getRun(ctx, companyID, runID)
	if err != nil {
		return err
	}
	if !entity.CanTransition(run.Status, entity.RunStatusCancelled) {
		return &domain.StateConflictError{RunID: runID, Status: run.Status, Operation: "cancel"}
	}
	if err := uc.transition(ctx, companyID, runID, run.Status, entity.RunStatusCancelled, "cancel"); err != nil {
		return err
	}
	if err := uc.runRepo.UpdateNotes(ctx, companyID, runID, appendNote(run.Notes, "cancelada: "+reason)); err != nil {
		return err
	}
	uc.log.Info().
		Str("company_id", companyID).
		Str("run_id", runID).
		Str("reason", reason).
		Msg("orden de producción cancelada")
	return nil
}

// GetRun devuelve la orden con items.
func (uc *UseCase) GetRun(ctx context.Context, companyID, runID string) (*entity.ProductionRun, error) {
	return uc.getRun(ctx, companyID, runID)
}

// ListRuns lista órdenes, opcionalmente por estado.
func (uc *UseCase) ListRuns(ctx context.Context, companyID, status string, limit, offset int) ([]*entity.ProductionRun, error) {
	return uc.runRepo.ListByCompany(ctx, companyID, status, limit, offset)
}

// ListLosses lista los eventos de pérdida de una orden.
func (uc *UseCase) ListLosses(ctx context.Context, companyID, runID string) ([]*entity.ProductionLoss, error) {
	if _, err := uc.getRun(ctx, companyID, runID); err != nil {
		return nil, err
	}
	return uc.runRepo.ListLosses(ctx, companyID, runID)
}

// transition CAS sobre status con un único retry tras releer, según la política
// de recuperación de ConcurrencyConflictError.
func (uc *UseCase) transition(ctx context.Context, companyID, runID, from, to, op string) error {
	ok, err := uc.runRepo.CompareAndSetStatus(ctx, companyID, runID, from, to)
	if err != nil {
		return err
	}
	if ok {
		return nil
	}
	// Se perdió el CAS: releer una vez y decidir.
	current, err := uc.getRun(ctx, companyID, runID)
	if err != nil {
		return err
	}
	if !entity.CanTransition(current.Status, to) {
		return &domain.StateConflictError{RunID: runID, Status: current.Status, Operation: op}
	}
	ok, err = uc.runRepo.CompareAndSetStatus(ctx, companyID, runID, current.Status, to)
	if err != nil {
		return err
	}
	if !ok {
		return &domain.ConcurrencyConflictError{Resource: "production_run", ID: runID}
	}
	return nil
}

func (uc *UseCase) getRun(ctx context.Context, companyID, runID string) (*entity.ProductionRun, error) {
	run, err := uc.runRepo.GetByID(ctx, companyID, runID)
	if err != nil {
		return nil, err
	}
	if run == nil {
		return nil, domain.ErrNotFound
	}
	return run, nil
}

func plannedRequirements(run *entity.ProductionRun) []appinv.Requirement {
	reqs := make([]appinv.Requirement, 0, len(run.Items))
	for _, item := range run.Items {
		reqs = append(reqs, appinv.Requirement{ProductID: item.ProductID, Quantity: item.PlannedQuantity})
	}
	return reqs
}

// matchActuals empareja los consumos reales contra los items planificados por
// producto. Un real sin item planificado es ValidationError; un item sin real
// reportado consume cero (varianza = -planificado).
func matchActuals(run *entity.ProductionRun, items []dto.CompleteItemRequest) (map[string]decimal.Decimal, error) {
	planned := make(map[string]bool, len(run.Items))
	for _, item := range run.Items {
		planned[item.ProductID] = true
	}
	actuals := make(map[string]decimal.Decimal, len(items))
	for _, item := range items {
		if !planned[item.ProductID] {
			return nil, domain.NewValidationError("items", "producto "+item.ProductID+" no pertenece a la orden")
		}
		if item.ActualQuantity.IsNegative() {
			return nil, domain.NewValidationError("actual_quantity", "no puede ser negativa para producto "+item.ProductID)
		}
		if _, dup := actuals[item.ProductID]; dup {
			return nil, domain.NewValidationError("items", "producto "+item.ProductID+" repetido")
		}
		actuals[item.ProductID] = item.ActualQuantity
	}
	return actuals, nil
}

func outputDiverges(reported, derived decimal.Decimal) bool {
	diff := reported.Sub(derived).Abs()
	if !derived.GreaterThan(decimal.Zero) {
		return !diff.IsZero()
	}
	return diff.GreaterThan(derived.Mul(outputTolerance))
}

func appendNote(existing, note string) string {
	if existing == "" {
		return note
	}
	return existing + " | " + note
}
