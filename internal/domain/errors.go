package domain

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound           = errors.New("recurso no encontrado")
	ErrUserNotFound       = errors.New("usuario no encontrado")
	ErrEmailAlreadyExists = errors.New("el email ya está registrado")
	ErrDuplicate          = errors.New("recurso duplicado")
	ErrUnauthorized       = errors.New("no autorizado")
	ErrForbidden          = errors.New("acceso denegado")
)

// ValidationError entrada inválida; se rechaza antes de cualquier mutación.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "entrada inválida: " + e.Reason
	}
	return fmt.Sprintf("entrada inválida: %s: %s", e.Field, e.Reason)
}

// NewValidationError construye un ValidationError.
func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

// InsufficientStockError stock insuficiente para cubrir la cantidad solicitada.
// Shortfall = Requested - Available. No se produce ninguna mutación.
type InsufficientStockError struct {
	ProductID string
	Requested decimal.Decimal
	Available decimal.Decimal
	Shortfall decimal.Decimal
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("stock insuficiente: producto %s solicitado %s disponible %s faltante %s",
		e.ProductID, e.Requested, e.Available, e.Shortfall)
}

// NewInsufficientStockError calcula el faltante y construye el error.
func NewInsufficientStockError(productID string, requested, available decimal.Decimal) *InsufficientStockError {
	return &InsufficientStockError{
		ProductID: productID,
		Requested: requested,
		Available: available,
		Shortfall: requested.Sub(available),
	}
}

// StateConflictError transición ilegal de la máquina de estados; no hay mutación.
type StateConflictError struct {
	RunID     string
	Status    string // estado actual
	Operation string // operación intentada
}

func (e *StateConflictError) Error() string {
	return fmt.Sprintf("transición ilegal: operación %q sobre orden %s en estado %q", e.Operation, e.RunID, e.Status)
}

// ConcurrencyConflictError se perdió una carrera de lock/CAS; el caller debe
// releer antes de reintentar (un solo retry).
type ConcurrencyConflictError struct {
	Resource string
	ID       string
}

func (e *ConcurrencyConflictError) Error() string {
	return fmt.Sprintf("conflicto de concurrencia sobre %s %s; releer y reintentar", e.Resource, e.ID)
}

// PersistenceError fallo de transacción/almacenamiento; rollback completo.
type PersistenceError struct {
	Op        string
	Retryable bool
	Err       error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("error de persistencia en %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }
