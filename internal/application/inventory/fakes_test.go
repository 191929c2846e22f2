package inventory_test

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

// ──────────────────────────────────────────────────────────────────────────────
// Fakes in-memory de los puertos de persistencia. Sin mocks generados: el
// comportamiento relevante (orden FEFO, asientos append-only, consecutivos)
// se emula a mano para que los tests lean como el caso de uso real.
// ──────────────────────────────────────────────────────────────────────────────

type fakeBatchRepo struct {
	batches []*entity.InventoryBatch
	// failUpdate fuerza un error en UpdateQuantity para probar rollback.
	failUpdate bool
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
	if f.failUpdate {
		return &domain.PersistenceError{Op: "update batch", Retryable: false, Err: fmt.Errorf("fallo inyectado")}
	}
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

// fakeTxRunner ejecuta la función con los repos fake. Si fn devuelve error,
// restaura el snapshot de lotes y movimientos para emular el rollback.
type fakeTxRunner struct {
	batchRepo *fakeBatchRepo
	movRepo   *fakeMovementRepo
	runRepo   repository.ProductionRunRepository
	seqRepo   *fakeSequenceRepo
}

func (f *fakeTxRunner) Run(ctx context.Context, fn func(
	batchRepo repository.BatchRepository,
	movRepo repository.StockMovementRepository,
	runRepo repository.ProductionRunRepository,
	seqRepo repository.SequenceRepository,
) error) error {
	batchSnap := snapshotBatches(f.batchRepo.batches)
	movSnap := append([]*entity.StockMovement(nil), f.movRepo.movements...)
	if err := fn(f.batchRepo, f.movRepo, f.runRepo, f.seqRepo); err != nil {
		f.batchRepo.batches = batchSnap
		f.movRepo.movements = movSnap
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
