package repository

import "context"

// Tipos de secuencia documental.
const (
	SequenceMovement = "MOV"  // reference_number de stock_movements
	SequenceBatch    = "LOTE" // batch_number de inventory_batches
	SequenceRun      = "OP"   // run_number de production_runs
)

// SequenceRepository genera consecutivos únicos por empresa y tipo de documento
// (ej. MOV-000123). El incremento bloquea la fila de la secuencia, así dos
// transacciones concurrentes nunca reciben el mismo número.
type SequenceRepository interface {
	Next(ctx context.Context, companyID, kind string) (string, error)
}
