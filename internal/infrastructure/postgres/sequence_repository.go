package postgres

import (
	"context"
	"fmt"

	"github.com/jhoicas/molino-api/internal/domain/repository"
)

var _ repository.SequenceRepository = (*SequenceRepo)(nil)

// SequenceRepo secuenciador de documentos sobre PostgreSQL. El UPSERT con
// RETURNING incrementa y lee en una sola sentencia; la fila de la secuencia
// queda bloqueada hasta el commit, así dos transacciones concurrentes nunca
// reciben el mismo consecutivo.
type SequenceRepo struct {
	q Querier
}

// NewSequenceRepository construye el secuenciador. Pasar pool o tx (Querier).
func NewSequenceRepository(q Querier) *SequenceRepo {
	return &SequenceRepo{q: q}
}

// Next devuelve el siguiente consecutivo formateado, ej. MOV-000123.
func (r *SequenceRepo) Next(ctx context.Context, companyID, kind string) (string, error) {
	query := `
		INSERT INTO document_sequences (company_id, kind, last_value)
		VALUES ($1, $2, 1)
		ON CONFLICT (company_id, kind)
		DO UPDATE SET last_value = document_sequences.last_value + 1
		RETURNING last_value`
	var value int64
	if err := r.q.QueryRow(ctx, query, companyID, kind).Scan(&value); err != nil {
		return "", fmt.Errorf("next sequence %s: %w", kind, err)
	}
	return fmt.Sprintf("%s-%06d", kind, value), nil
}
