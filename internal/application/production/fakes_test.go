package production_test

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/molino-api/internal/domain"
	"github.com/jhoicas/molino-api/internal/domain/entity"
	dominv "github.com/jhoicas/molino-api/internal/domain/inventory"
	"github.com/jhoicas/molino-api/internal/domain/repository"
)

// Fakes in-memory de los puertos que usa la máquina de estados. Sin mocks
// generados: el CAS de status, el orden FEFO y el rollback transaccional se
// emulan a mano para poder probar las carreras sin base de datos.

type fakeBatchRepo struct {
	batches []*entity.InventoryBatch
}

func (f *fakeBatchRepo) Create(_ context.Context, b *entity.InventoryBatch) error {
	f.batches = append(f.batches, b)
	return nil
}

func (f *fakeBatchRepo) GetByID(_ context.Context, companyID, id string) (*entity.InventoryBatch, error) {
	for _, b := range f.batches {
		if b.CompanyID == companyID && b.ID == id {
			return b, nil
		}
	}
	return nil, nil
}

func (f *fakeBatchRepo) eligible(companyID, productID, warehouseID string, at time.Time) []*entity.InventoryBatch {
	var out []*entity.InventoryBatch
	for _, b := range f.batches {
		if b.CompanyID != companyID || b.ProductID != productID || b.WarehouseID != warehouseID {
			continue
		}
		if !b.Consumible(at) {
			continue
		}
		out = append(out, b)
	}
	dominv.SortFEFO(out)
	return out
}

func (f *fakeBatchRepo) AvailableQuantity(_ context.Context, companyID, productID, warehouseID string, at time.Time) (decimal.Decimal, error) {
	return dominv.Available(f.eligible(companyID, productID, warehouseID, at)), nil
}

func (f *fakeBatchRepo) ListEligibleForUpdate(_ context.Context, companyID, productID, warehouseID string, at time.Time) ([]*entity.InventoryBatch, error) {
	return f.eligible(companyID, productID, warehouseID, at), nil
}

func (f *fakeBatchRepo) UpdateQuantity(_ context.Context, batch *entity.InventoryBatch) error {
	for i, b := range f.batches {
		if b.ID == batch.ID {
			f.batches[i] = batch
			return nil
		}
	}
	return domain.ErrNotFound
}

func (f *fakeBatchRepo) MarkExpired(_ context.Context, companyID string, at time.Time) (int64, error) {
	var n int64
	for _, b := range f.batches {
		if b.CompanyID == companyID && b.Status == entity.BatchStatusActive && b.ExpiryDate != nil && !b.ExpiryDate.After(at) {
			b.Status = entity.BatchStatusExpired
			n++
		}
	}
	return n, nil
}

func (f *fakeBatchRepo) ListByProduct(_ context.Context, companyID, productID, warehouseID string, _, _ int) ([]*entity.InventoryBatch, error) {
	var out []*entity.InventoryBatch
	for _, b := range f.batches {
		if b.CompanyID == companyID && b.ProductID == productID && (warehouseID == "" || b.WarehouseID == warehouseID) {
			out = append(out, b)
		}
	}
	return out, nil
}

type fakeMovementRepo struct {
	movements []*entity.StockMovement
}

func (f *fakeMovementRepo) Create(_ context.Context, m *entity.StockMovement) error {
	f.movements = append(f.movements, m)
	return nil
}

func (f *fakeMovementRepo) GetByID(_ context.Context, companyID, id string) (*entity.StockMovement, error) {
	for _, m := range f.movements {
		if m.CompanyID == companyID && m.ID == id {
			return m, nil
		}
	}
	return nil, nil
}

func (f *fakeMovementRepo) ListByWarehouse(_ context.Context, companyID, warehouseID string, _, _ *time.Time, _, _ int) ([]*entity.StockMovement, error) {
	var out []*entity.StockMovement
	for _, m := range f.movements {
		if m.CompanyID == companyID && m.WarehouseID == warehouseID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (f *fakeMovementRepo) ListByProduct(_ context.Context, companyID, productID string, _, _ *time.Time, _, _ int) ([]*entity.StockMovement, error) {
	var out []*entity.StockMovement
	for _, m := range f.movements {
		if m.CompanyID == companyID && m.ProductID == productID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (f *fakeMovementRepo) ListByRef(_ context.Context, companyID string, ref entity.MovementRef) ([]*entity.StockMovement, error) {
	var out []*entity.StockMovement
	for _, m := range f.movements {
		if m.CompanyID == companyID && m.Ref == ref {
			out = append(out, m)
		}
	}
	return out, nil
}

func (f *fakeMovementRepo) ofType(t entity.MovementType) []*entity.StockMovement {
	var out []*entity.StockMovement
	for _, m := range f.movements {
		if m.Type == t {
			out = append(out, m)
		}
	}
	return out
}

type fakeSequenceRepo struct {
	counters map[string]int64
}

func newFakeSequenceRepo() *fakeSequenceRepo {
	return &fakeSequenceRepo{counters: make(map[string]int64)}
}

func (f *fakeSequenceRepo) Next(_ context.Context, companyID, kind string) (string, error) {
	key := companyID + "/" + kind
	f.counters[key]++
	return fmt.Sprintf("%s-%06d", kind, f.counters[key]), nil
}

// fakeRunRepo guarda las órdenes por ID. GetByID y GetForUpdate devuelven
// copias, así los tests no mutan el estado guardado por accidente; las
// escrituras (CAS, wastage, completion) vuelcan sobre la orden guardada.
// casFails fuerza a perder las próximas n llamadas a CompareAndSetStatus sin
// cambiar el estado, para simular una carrera contra otra transacción.
type fakeRunRepo struct {
	runs     map[string]*entity.ProductionRun
	losses   []*entity.ProductionLoss
	casFails int
}

func newFakeRunRepo() *fakeRunRepo {
	return &fakeRunRepo{runs: make(map[string]*entity.ProductionRun)}
}

func (f *fakeRunRepo) Create(_ context.Context, run *entity.ProductionRun) error {
	c := copyRun(run)
	f.runs[run.ID] = c
	return nil
}

func (f *fakeRunRepo) GetByID(_ context.Context, companyID, id string) (*entity.ProductionRun, error) {
	run, ok := f.runs[id]
	if !ok || run.CompanyID != companyID {
		return nil, nil
	}
	return copyRun(run), nil
}

func (f *fakeRunRepo) GetForUpdate(ctx context.Context, companyID, id string) (*entity.ProductionRun, error) {
	return f.GetByID(ctx, companyID, id)
}

func (f *fakeRunRepo) CompareAndSetStatus(_ context.Context, companyID, id, from, to string) (bool, error) {
	if f.casFails > 0 {
		f.casFails--
		return false, nil
	}
	run, ok := f.runs[id]
	if !ok || run.CompanyID != companyID || run.Status != from {
		return false, nil
	}
	run.Status = to
	if to == entity.RunStatusInProgress {
		now := time.Now()
		run.StartedAt = &now
	}
	return true, nil
}

func (f *fakeRunRepo) UpdateWastage(_ context.Context, run *entity.ProductionRun) error {
	stored, ok := f.runs[run.ID]
	if !ok || stored.Status != entity.RunStatusInProgress {
		return &domain.ConcurrencyConflictError{Resource: "production_run", ID: run.ID}
	}
	stored.WastageQuantity = run.WastageQuantity
	stored.UpdatedAt = run.UpdatedAt
	return nil
}

func (f *fakeRunRepo) SaveCompletion(_ context.Context, run *entity.ProductionRun) error {
	stored, ok := f.runs[run.ID]
	if !ok || stored.Status != entity.RunStatusInProgress {
		return &domain.ConcurrencyConflictError{Resource: "production_run", ID: run.ID}
	}
	f.runs[run.ID] = copyRun(run)
	return nil
}

func (f *fakeRunRepo) UpdateNotes(_ context.Context, companyID, id, notes string) error {
	run, ok := f.runs[id]
	if !ok || run.CompanyID != companyID {
		return domain.ErrNotFound
	}
	run.Notes = notes
	return nil
}

func (f *fakeRunRepo) ListByCompany(_ context.Context, companyID string, status string, _, _ int) ([]*entity.ProductionRun, error) {
	var out []*entity.ProductionRun
	for _, run := range f.runs {
		if run.CompanyID != companyID {
			continue
		}
		if status != "" && run.Status != status {
			continue
		}
		out = append(out, copyRun(run))
	}
	return out, nil
}

func (f *fakeRunRepo) AddLoss(_ context.Context, loss *entity.ProductionLoss) error {
	f.losses = append(f.losses, loss)
	return nil
}

func (f *fakeRunRepo) ListLosses(_ context.Context, companyID, runID string) ([]*entity.ProductionLoss, error) {
	var out []*entity.ProductionLoss
	for _, l := range f.losses {
		if l.CompanyID == companyID && l.RunID == runID {
			out = append(out, l)
		}
	}
	return out, nil
}

func (f *fakeRunRepo) status(id string) string { return f.runs[id].Status }

func copyRun(run *entity.ProductionRun) *entity.ProductionRun {
	c := *run
	c.Items = append([]entity.ProductionRunItem(nil), run.Items...)
	return &c
}

type fakeFormulaRepo struct {
	formulas []*entity.Formula
}

func (f *fakeFormulaRepo) Create(_ context.Context, formula *entity.Formula) error {
	f.formulas = append(f.formulas, formula)
	return nil
}

func (f *fakeFormulaRepo) GetByID(_ context.Context, companyID, id string) (*entity.Formula, error) {
	for _, fl := range f.formulas {
		if fl.CompanyID == companyID && fl.ID == id {
			return fl, nil
		}
	}
	return nil, nil
}

func (f *fakeFormulaRepo) ListByCompany(_ context.Context, companyID string, _, _ int) ([]*entity.Formula, error) {
	var out []*entity.Formula
	for _, fl := range f.formulas {
		if fl.CompanyID == companyID {
			out = append(out, fl)
		}
	}
	return out, nil
}

type fakeProductRepo struct {
	products []*entity.Product
}

func (f *fakeProductRepo) Create(_ context.Context, p *entity.Product) error {
	f.products = append(f.products, p)
	return nil
}

func (f *fakeProductRepo) GetByID(_ context.Context, companyID, id string) (*entity.Product, error) {
	for _, p := range f.products {
		if p.CompanyID == companyID && p.ID == id {
			return p, nil
		}
	}
	return nil, nil
}

func (f *fakeProductRepo) GetByCompanyAndSKU(_ context.Context, companyID, sku string) (*entity.Product, error) {
	for _, p := range f.products {
		if p.CompanyID == companyID && p.SKU == sku {
			return p, nil
		}
	}
	return nil, nil
}

func (f *fakeProductRepo) Update(_ context.Context, _ *entity.Product) error { return nil }

func (f *fakeProductRepo) ListByCompany(_ context.Context, companyID string, _, _ int) ([]*entity.Product, error) {
	var out []*entity.Product
	for _, p := range f.products {
		if p.CompanyID == companyID {
			out = append(out, p)
		}
	}
	return out, nil
}

type fakeWarehouseRepo struct {
	warehouses []*entity.Warehouse
}

func (f *fakeWarehouseRepo) Create(_ context.Context, w *entity.Warehouse) error {
	f.warehouses = append(f.warehouses, w)
	return nil
}

func (f *fakeWarehouseRepo) GetByID(_ context.Context, companyID, id string) (*entity.Warehouse, error) {
	for _, w := range f.warehouses {
		if w.CompanyID == companyID && w.ID == id {
			return w, nil
		}
	}
	return nil, nil
}

func (f *fakeWarehouseRepo) Update(_ context.Context, _ *entity.Warehouse) error { return nil }

func (f *fakeWarehouseRepo) ListByCompany(_ context.Context, companyID string, _, _ int) ([]*entity.Warehouse, error) {
	var out []*entity.Warehouse
	for _, w := range f.warehouses {
		if w.CompanyID == companyID {
			out = append(out, w)
		}
	}
	return out, nil
}

// fakeTxRunner corre la función con los repos fake y, si fn devuelve error,
// restaura el snapshot completo (lotes, movimientos, órdenes y pérdidas) para
// emular el rollback de la transacción.
type fakeTxRunner struct {
	batchRepo *fakeBatchRepo
	movRepo   *fakeMovementRepo
	runRepo   *fakeRunRepo
	seqRepo   *fakeSequenceRepo
}

func (f *fakeTxRunner) Run(_ context.Context, fn func(
	batchRepo repository.BatchRepository,
	movRepo repository.StockMovementRepository,
	runRepo repository.ProductionRunRepository,
	seqRepo repository.SequenceRepository,
) error) error {
	batchSnap := snapshotBatches(f.batchRepo.batches)
	movSnap := append([]*entity.StockMovement(nil), f.movRepo.movements...)
	runSnap := make(map[string]*entity.ProductionRun, len(f.runRepo.runs))
	for id, run := range f.runRepo.runs {
		runSnap[id] = copyRun(run)
	}
	lossSnap := append([]*entity.ProductionLoss(nil), f.runRepo.losses...)

	if err := fn(f.batchRepo, f.movRepo, f.runRepo, f.seqRepo); err != nil {
		f.batchRepo.batches = batchSnap
		f.movRepo.movements = movSnap
		f.runRepo.runs = runSnap
		f.runRepo.losses = lossSnap
		return err
	}
	return nil
}

func snapshotBatches(in []*entity.InventoryBatch) []*entity.InventoryBatch {
	out := make([]*entity.InventoryBatch, 0, len(in))
	for _, b := range in {
		c := *b
		out = append(out, &c)
	}
	return out
}
