package production_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/molino-api/internal/application/dto"
	"github.com/jhoicas/molino-api/internal/application/inventory"
	"github.com/jhoicas/molino-api/internal/application/production"
	"github.com/jhoicas/molino-api/internal/domain"
	"github.com/jhoicas/molino-api/internal/domain/entity"
	"github.com/jhoicas/molino-api/pkg/logger"
)

const (
	testCompany   = "co-1"
	testWarehouse = "bodega-1"
	testUser      = "user-1"
)

type testEnv struct {
	uc       *production.UseCase
	batches  *fakeBatchRepo
	movs     *fakeMovementRepo
	runs     *fakeRunRepo
	formulas *fakeFormulaRepo
}

// newTestEnv arma el caso de uso con fakes y siembra la receta de concentrado
// (60% maíz, 40% soya) junto con los productos y la bodega.
func newTestEnv() *testEnv {
	batches := &fakeBatchRepo{}
	movs := &fakeMovementRepo{}
	runs := newFakeRunRepo()
	seqs := newFakeSequenceRepo()

	formulas := &fakeFormulaRepo{formulas: []*entity.Formula{formulaConcentrado()}}
	products := &fakeProductRepo{products: []*entity.Product{
		{ID: "maiz", CompanyID: testCompany, SKU: "MP-MAIZ", Name: "Maíz amarillo", ProductType: "raw_material", UnitMeasure: "kg"},
		{ID: "soya", CompanyID: testCompany, SKU: "MP-SOYA", Name: "Torta de soya", ProductType: "raw_material", UnitMeasure: "kg"},
		{ID: "concentrado", CompanyID: testCompany, SKU: "PT-CONC", Name: "Concentrado ponedoras", ProductType: "finished_good", UnitMeasure: "kg"},
	}}
	warehouses := &fakeWarehouseRepo{warehouses: []*entity.Warehouse{
		{ID: testWarehouse, CompanyID: testCompany, Name: "Bodega principal"},
	}}

	txRunner := &fakeTxRunner{batchRepo: batches, movRepo: movs, runRepo: runs, seqRepo: seqs}
	writer := inventory.NewLedgerWriter()
	availability := inventory.NewAvailabilityUseCase(batches)
	log := logger.New(logger.Config{Env: "production", Level: "error"})

	uc := production.NewUseCase(txRunner, writer, availability, runs, formulas, products, warehouses, log)
	return &testEnv{uc: uc, batches: batches, movs: movs, runs: runs, formulas: formulas}
}

func formulaConcentrado() *entity.Formula {
	pctMaiz := decimal.NewFromInt(60)
	pctSoya := decimal.NewFromInt(40)
	return &entity.Formula{
		ID:          "f-conc",
		CompanyID:   testCompany,
		Name:        "Concentrado ponedoras",
		ProductID:   "concentrado",
		UnitMeasure: "kg",
		IsActive:    true,
		Items: []entity.FormulaItem{
			{ID: "fi-1", FormulaID: "f-conc", ProductID: "maiz", Percentage: &pctMaiz, UnitMeasure: "kg", Position: 0},
			{ID: "fi-2", FormulaID: "f-conc", ProductID: "soya", Percentage: &pctSoya, UnitMeasure: "kg", Position: 1},
		},
	}
}

func futura(dias int) *time.Time {
	t := time.Now().AddDate(0, 0, dias)
	return &t
}

func stockBatch(id, productID string, qty, unitCost int64, expiry *time.Time) *entity.InventoryBatch {
	return &entity.InventoryBatch{
		ID:              id,
		CompanyID:       testCompany,
		BatchNumber:     "LOTE-" + id,
		ProductID:       productID,
		WarehouseID:     testWarehouse,
		ProductionDate:  time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		ExpiryDate:      expiry,
		InitialQuantity: decimal.NewFromInt(qty),
		CurrentQuantity: decimal.NewFromInt(qty),
		UnitCost:        decimal.NewFromInt(unitCost),
		Status:          entity.BatchStatusActive,
	}
}

// seedStock deja 600 kg de maíz (300@100 que vence antes, 300@120) y
// 400 kg de soya (400@90, sin vencimiento).
func (e *testEnv) seedStock() {
	e.batches.batches = []*entity.InventoryBatch{
		stockBatch("m1", "maiz", 300, 100, futura(30)),
		stockBatch("m2", "maiz", 300, 120, futura(60)),
		stockBatch("s1", "soya", 400, 90, nil),
	}
}

func (e *testEnv) plan(t *testing.T, target int64) *entity.ProductionRun {
	t.Helper()
	run, err := e.uc.Plan(context.Background(), testCompany, testUser, dto.PlanRunRequest{
		FormulaID:      "f-conc",
		WarehouseID:    testWarehouse,
		TargetQuantity: decimal.NewFromInt(target),
		UnitMeasure:    "kg",
	})
	require.NoError(t, err)
	return run
}

func (e *testEnv) planAndStart(t *testing.T, target int64) *entity.ProductionRun {
	t.Helper()
	run := e.plan(t, target)
	require.NoError(t, e.uc.Start(context.Background(), testCompany, testUser, run.ID))
	return run
}

func TestPlan_ResuelveRecetaYNumera(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	run := env.plan(t, 1000)

	assert.Equal(t, "OP-000001", run.RunNumber)
	assert.Equal(t, entity.RunStatusPlanned, run.Status)
	assert.Equal(t, "concentrado", run.ProductID)
	require.Len(t, run.Items, 2)
	assert.Equal(t, "maiz", run.Items[0].ProductID)
	assert.True(t, run.Items[0].PlannedQuantity.Equal(decimal.NewFromInt(600)),
		"60%% de 1000 son 600, fue %s", run.Items[0].PlannedQuantity)
	assert.Equal(t, "soya", run.Items[1].ProductID)
	assert.True(t, run.Items[1].PlannedQuantity.Equal(decimal.NewFromInt(400)))

	// Planificar no toca inventario.
	assert.Empty(t, env.movs.movements)

	stored, err := env.uc.GetRun(ctx, testCompany, run.ID)
	require.NoError(t, err)
	assert.Equal(t, run.RunNumber, stored.RunNumber)
	require.Len(t, stored.Items, 2)

	// El consecutivo avanza por orden.
	run2 := env.plan(t, 500)
	assert.Equal(t, "OP-000002", run2.RunNumber)
}

func TestPlan_RecetaInexistente(t *testing.T) {
	env := newTestEnv()

	_, err := env.uc.Plan(context.Background(), testCompany, testUser, dto.PlanRunRequest{
		FormulaID:      "no-existe",
		WarehouseID:    testWarehouse,
		TargetQuantity: decimal.NewFromInt(100),
	})
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "formula_id", verr.Field)
}

func TestPlan_BodegaInexistente(t *testing.T) {
	env := newTestEnv()

	_, err := env.uc.Plan(context.Background(), testCompany, testUser, dto.PlanRunRequest{
		FormulaID:      "f-conc",
		WarehouseID:    "no-existe",
		TargetQuantity: decimal.NewFromInt(100),
	})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCheckMaterials_ReportaFaltantes(t *testing.T) {
	env := newTestEnv()
	env.seedStock()
	run := env.plan(t, 1200) // pide 720 de maíz y 480 de soya; hay 600 y 400

	report, err := env.uc.CheckMaterials(context.Background(), testCompany, run.ID)
	require.NoError(t, err)
	assert.False(t, report.AllSufficient)
	require.Len(t, report.Items, 2)
	assert.True(t, report.Items[0].Shortfall.Equal(decimal.NewFromInt(120)),
		"faltante de maíz debía ser 120, fue %s", report.Items[0].Shortfall)
	assert.True(t, report.Items[1].Shortfall.Equal(decimal.NewFromInt(80)))
}

func TestStart_TransicionaAEnCurso(t *testing.T) {
	env := newTestEnv()
	env.seedStock()
	run := env.plan(t, 1000)

	require.NoError(t, env.uc.Start(context.Background(), testCompany, testUser, run.ID))
	assert.Equal(t, entity.RunStatusInProgress, env.runs.status(run.ID))

	// Iniciar no reserva: el inventario queda intacto.
	assert.Empty(t, env.movs.movements)

	// Segundo start sobre la misma orden es transición ilegal.
	err := env.uc.Start(context.Background(), testCompany, testUser, run.ID)
	var serr *domain.StateConflictError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, entity.RunStatusInProgress, serr.Status)
	assert.Equal(t, "start", serr.Operation)
}

func TestStart_StockInsuficienteNoCambiaEstado(t *testing.T) {
	env := newTestEnv()
	env.seedStock()
	run := env.plan(t, 1200) // maíz requiere 720, hay 600

	err := env.uc.Start(context.Background(), testCompany, testUser, run.ID)
	var ierr *domain.InsufficientStockError
	require.ErrorAs(t, err, &ierr)
	assert.Equal(t, "maiz", ierr.ProductID)
	assert.True(t, ierr.Shortfall.Equal(decimal.NewFromInt(120)))

	assert.Equal(t, entity.RunStatusPlanned, env.runs.status(run.ID))
	assert.Empty(t, env.movs.movements)
}

func TestStart_ReintentaTrasPerderCASEspurio(t *testing.T) {
	env := newTestEnv()
	env.seedStock()
	run := env.plan(t, 1000)

	// El primer CAS falla sin que el estado haya cambiado (carrera espuria):
	// la política es releer una vez y reintentar.
	env.runs.casFails = 1
	require.NoError(t, env.uc.Start(context.Background(), testCompany, testUser, run.ID))
	assert.Equal(t, entity.RunStatusInProgress, env.runs.status(run.ID))
}

func TestStart_ConflictoTrasReintento(t *testing.T) {
	env := newTestEnv()
	env.seedStock()
	run := env.plan(t, 1000)

	// También el reintento pierde: un solo retry, luego conflicto explícito.
	env.runs.casFails = 2
	err := env.uc.Start(context.Background(), testCompany, testUser, run.ID)
	var cerr *domain.ConcurrencyConflictError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, entity.RunStatusPlanned, env.runs.status(run.ID))
}

func TestRecordLoss_DescuentaFEFOYValoriza(t *testing.T) {
	env := newTestEnv()
	env.seedStock()
	run := env.planAndStart(t, 1000)
	ctx := context.Background()

	loss, err := env.uc.RecordLoss(ctx, testCompany, testUser, run.ID, dto.RecordLossRequest{
		ProductID: "maiz",
		Quantity:  decimal.NewFromInt(20),
		LossType:  entity.LossTypeSpillage,
		Reason:    "derrame en tolva",
	})
	require.NoError(t, err)

	// Descuenta del lote que vence primero (m1, costo 100).
	m1, _ := env.batches.GetByID(ctx, testCompany, "m1")
	assert.True(t, m1.CurrentQuantity.Equal(decimal.NewFromInt(280)),
		"m1 debía quedar en 280, quedó %s", m1.CurrentQuantity)

	assert.Equal(t, entity.LossTypeSpillage, loss.LossType)
	assert.True(t, loss.EstimatedValue.Equal(decimal.NewFromInt(2000)),
		"20 kg a costo FIFO 100 valen 2000, fue %s", loss.EstimatedValue)

	movs := env.movs.ofType(entity.MovementLoss)
	require.Len(t, movs, 1)
	assert.Equal(t, entity.RefProductionRun, movs[0].Ref.Kind)
	assert.Equal(t, run.ID, movs[0].Ref.ID)

	stored, err := env.uc.GetRun(ctx, testCompany, run.ID)
	require.NoError(t, err)
	assert.True(t, stored.WastageQuantity.Equal(decimal.NewFromInt(20)))

	losses, err := env.uc.ListLosses(ctx, testCompany, run.ID)
	require.NoError(t, err)
	require.Len(t, losses, 1)
	assert.Equal(t, loss.ID, losses[0].ID)
}

func TestRecordLoss_SecadoUsaMovimientoDrying(t *testing.T) {
	env := newTestEnv()
	env.seedStock()
	run := env.planAndStart(t, 1000)

	_, err := env.uc.RecordLoss(context.Background(), testCompany, testUser, run.ID, dto.RecordLossRequest{
		ProductID: "maiz",
		Quantity:  decimal.NewFromInt(5),
		LossType:  entity.LossTypeDrying,
	})
	require.NoError(t, err)
	assert.Len(t, env.movs.ofType(entity.MovementDrying), 1)
	assert.Empty(t, env.movs.ofType(entity.MovementLoss))
}

func TestRecordLoss_OrdenNoEnCurso(t *testing.T) {
	env := newTestEnv()
	env.seedStock()
	run := env.plan(t, 1000)

	_, err := env.uc.RecordLoss(context.Background(), testCompany, testUser, run.ID, dto.RecordLossRequest{
		ProductID: "maiz",
		Quantity:  decimal.NewFromInt(10),
	})
	var serr *domain.StateConflictError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, "record_loss", serr.Operation)
	assert.Empty(t, env.movs.movements)
}

func TestComplete_ConsumeValorizaYCierra(t *testing.T) {
	env := newTestEnv()
	env.seedStock()
	run := env.planAndStart(t, 1000)
	ctx := context.Background()

	// Reales: maíz 580 (300@100 + 280@120 = 63.600), soya 400 (@90 = 36.000).
	closed, outputBatch, err := env.uc.Complete(ctx, testCompany, testUser, run.ID, dto.CompleteRunRequest{
		Items: []dto.CompleteItemRequest{
			{ProductID: "maiz", ActualQuantity: decimal.NewFromInt(580)},
			{ProductID: "soya", ActualQuantity: decimal.NewFromInt(400)},
		},
		ActualOutput: decimal.NewFromInt(975),
	})
	require.NoError(t, err)

	assert.Equal(t, entity.RunStatusCompleted, closed.Status)
	require.NotNil(t, closed.CompletedAt)

	totalCost := decimal.NewFromInt(99600)
	assert.True(t, closed.TotalCost.Equal(totalCost),
		"costo FIFO total debía ser 99600, fue %s", closed.TotalCost)
	require.NotNil(t, closed.CostPerUnit)
	assert.True(t, closed.CostPerUnit.Equal(totalCost.Div(decimal.NewFromInt(975))))

	// Varianzas por ingrediente: real - planificado.
	require.Len(t, closed.Items, 2)
	maiz := closed.Items[0]
	assert.True(t, maiz.Variance.Equal(decimal.NewFromInt(-20)),
		"varianza de maíz debía ser -20, fue %s", maiz.Variance)
	assert.True(t, maiz.TotalCost.Equal(decimal.NewFromInt(63600)))
	soya := closed.Items[1]
	assert.True(t, soya.Variance.IsZero())
	assert.True(t, soya.UnitCost.Equal(decimal.NewFromInt(90)))

	// Σ consumo real (980) - mermas (0) = 980; 975 cae dentro del 1%.
	assert.True(t, closed.DerivedOutput.Equal(decimal.NewFromInt(980)))
	assert.False(t, closed.OutputDivergent)

	// La salida real entra como lote nuevo de producto terminado.
	require.NotNil(t, outputBatch)
	assert.Equal(t, "concentrado", outputBatch.ProductID)
	assert.True(t, outputBatch.CurrentQuantity.Equal(decimal.NewFromInt(975)))
	assert.True(t, outputBatch.UnitCost.Equal(totalCost.Div(decimal.NewFromInt(975))))

	// Asientos: 2 production_out de maíz (dos lotes), 1 de soya, 1 production_in.
	assert.Len(t, env.movs.ofType(entity.MovementProductionOut), 3)
	entradas := env.movs.ofType(entity.MovementProductionIn)
	require.Len(t, entradas, 1)
	assert.Equal(t, outputBatch.ID, *entradas[0].BatchID)

	// Lotes de insumo descontados en orden FEFO.
	m1, _ := env.batches.GetByID(ctx, testCompany, "m1")
	assert.True(t, m1.CurrentQuantity.IsZero())
	assert.Equal(t, entity.BatchStatusDepleted, m1.Status)
	m2, _ := env.batches.GetByID(ctx, testCompany, "m2")
	assert.True(t, m2.CurrentQuantity.Equal(decimal.NewFromInt(20)))
}

func TestComplete_MarcaDivergenciaDeSalida(t *testing.T) {
	env := newTestEnv()
	env.seedStock()
	run := env.planAndStart(t, 100) // planifica 60 de maíz y 40 de soya

	closed, _, err := env.uc.Complete(context.Background(), testCompany, testUser, run.ID, dto.CompleteRunRequest{
		Items: []dto.CompleteItemRequest{
			{ProductID: "maiz", ActualQuantity: decimal.NewFromInt(60)},
			{ProductID: "soya", ActualQuantity: decimal.NewFromInt(40)},
		},
		ActualOutput: decimal.NewFromInt(80), // derivada 100: 20 kg fuera de tolerancia
	})
	require.NoError(t, err)
	assert.True(t, closed.OutputDivergent)
	assert.True(t, closed.DerivedOutput.Equal(decimal.NewFromInt(100)))
	// La cifra reportada se persiste tal cual, sin corregirla.
	assert.True(t, closed.ActualOutput.Equal(decimal.NewFromInt(80)))
}

func TestComplete_SalidaCeroNoAcreditaLote(t *testing.T) {
	env := newTestEnv()
	env.seedStock()
	run := env.planAndStart(t, 100)

	closed, outputBatch, err := env.uc.Complete(context.Background(), testCompany, testUser, run.ID, dto.CompleteRunRequest{
		Items: []dto.CompleteItemRequest{
			{ProductID: "maiz", ActualQuantity: decimal.NewFromInt(60)},
			{ProductID: "soya", ActualQuantity: decimal.NewFromInt(40)},
		},
		ActualOutput: decimal.Zero,
	})
	require.NoError(t, err)
	assert.Nil(t, outputBatch)
	assert.Nil(t, closed.CostPerUnit)
	assert.True(t, closed.OutputDivergent) // se consumió 100 y salió 0
	assert.Empty(t, env.movs.ofType(entity.MovementProductionIn))
}

func TestComplete_OrdenNoEnCurso(t *testing.T) {
	env := newTestEnv()
	env.seedStock()
	run := env.plan(t, 100)

	_, _, err := env.uc.Complete(context.Background(), testCompany, testUser, run.ID, dto.CompleteRunRequest{
		Items:        []dto.CompleteItemRequest{{ProductID: "maiz", ActualQuantity: decimal.NewFromInt(60)}},
		ActualOutput: decimal.NewFromInt(90),
	})
	var serr *domain.StateConflictError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, "complete", serr.Operation)
	assert.Empty(t, env.movs.movements)
	assert.Equal(t, entity.RunStatusPlanned, env.runs.status(run.ID))
}

func TestComplete_InsuficienteRevierteTodo(t *testing.T) {
	env := newTestEnv()
	env.seedStock()
	run := env.planAndStart(t, 1000)
	ctx := context.Background()

	// El maíz alcanza (580 de 600) pero la soya no (450 de 400): el consumo de
	// maíz ya asentado dentro de la transacción debe revertirse completo.
	_, _, err := env.uc.Complete(ctx, testCompany, testUser, run.ID, dto.CompleteRunRequest{
		Items: []dto.CompleteItemRequest{
			{ProductID: "maiz", ActualQuantity: decimal.NewFromInt(580)},
			{ProductID: "soya", ActualQuantity: decimal.NewFromInt(450)},
		},
		ActualOutput: decimal.NewFromInt(1000),
	})
	var ierr *domain.InsufficientStockError
	require.ErrorAs(t, err, &ierr)
	assert.Equal(t, "soya", ierr.ProductID)

	assert.Empty(t, env.movs.movements, "ningún asiento debe sobrevivir al rollback")
	m1, _ := env.batches.GetByID(ctx, testCompany, "m1")
	assert.True(t, m1.CurrentQuantity.Equal(decimal.NewFromInt(300)),
		"m1 debía volver a 300, quedó %s", m1.CurrentQuantity)
	assert.Equal(t, entity.RunStatusInProgress, env.runs.status(run.ID))
}

func TestComplete_ItemFueraDeLaOrden(t *testing.T) {
	env := newTestEnv()
	env.seedStock()
	run := env.planAndStart(t, 100)

	_, _, err := env.uc.Complete(context.Background(), testCompany, testUser, run.ID, dto.CompleteRunRequest{
		Items: []dto.CompleteItemRequest{
			{ProductID: "trigo", ActualQuantity: decimal.NewFromInt(10)},
		},
		ActualOutput: decimal.NewFromInt(10),
	})
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "items", verr.Field)
	assert.Empty(t, env.movs.movements)
}

func TestComplete_IngredienteSinRealConsumeCero(t *testing.T) {
	env := newTestEnv()
	env.seedStock()
	run := env.planAndStart(t, 100)

	closed, _, err := env.uc.Complete(context.Background(), testCompany, testUser, run.ID, dto.CompleteRunRequest{
		Items: []dto.CompleteItemRequest{
			{ProductID: "maiz", ActualQuantity: decimal.NewFromInt(60)},
			// soya sin reporte: consume cero, varianza -40.
		},
		ActualOutput: decimal.NewFromInt(60),
	})
	require.NoError(t, err)
	require.Len(t, closed.Items, 2)
	soya := closed.Items[1]
	assert.True(t, soya.ActualQuantity.IsZero())
	assert.True(t, soya.Variance.Equal(decimal.NewFromInt(-40)))
	assert.True(t, soya.TotalCost.IsZero())
}

func TestCancel_DesdePlanificadaYDesdeEnCurso(t *testing.T) {
	env := newTestEnv()
	env.seedStock()
	ctx := context.Background()

	planned := env.plan(t, 100)
	require.NoError(t, env.uc.Cancel(ctx, testCompany, testUser, planned.ID, "cambio de programación"))
	assert.Equal(t, entity.RunStatusCancelled, env.runs.status(planned.ID))

	stored, err := env.uc.GetRun(ctx, testCompany, planned.ID)
	require.NoError(t, err)
	assert.Contains(t, stored.Notes, "cancelada: cambio de programación")

	inProgress := env.planAndStart(t, 100)
	require.NoError(t, env.uc.Cancel(ctx, testCompany, testUser, inProgress.ID, "falla de molino"))
	assert.Equal(t, entity.RunStatusCancelled, env.runs.status(inProgress.ID))
	// No hay inventario reservado que liberar.
	assert.Empty(t, env.movs.movements)
}

func TestCancel_RequiereMotivoYEstadoValido(t *testing.T) {
	env := newTestEnv()
	env.seedStock()
	ctx := context.Background()
	run := env.plan(t, 100)

	err := env.uc.Cancel(ctx, testCompany, testUser, run.ID, "")
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "reason", verr.Field)

	require.NoError(t, env.uc.Cancel(ctx, testCompany, testUser, run.ID, "sobrante"))
	err = env.uc.Cancel(ctx, testCompany, testUser, run.ID, "otra vez")
	var serr *domain.StateConflictError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, entity.RunStatusCancelled, serr.Status)
}

func TestListRuns_FiltraPorEstado(t *testing.T) {
	env := newTestEnv()
	env.seedStock()
	ctx := context.Background()

	env.plan(t, 100)
	env.planAndStart(t, 200)

	enCurso, err := env.uc.ListRuns(ctx, testCompany, entity.RunStatusInProgress, 50, 0)
	require.NoError(t, err)
	assert.Len(t, enCurso, 1)

	todas, err := env.uc.ListRuns(ctx, testCompany, "", 50, 0)
	require.NoError(t, err)
	assert.Len(t, todas, 2)
}
