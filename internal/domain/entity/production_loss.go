package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Tipos de pérdida durante una orden de producción.
const (
	LossTypeSpillage = "spillage" // derrame
	LossTypeDrying   = "drying"   // secado / pérdida de humedad
	LossTypeSpoilage = "spoilage" // deterioro
	LossTypeOther    = "other"
)

// ProductionLoss evento puntual de pérdida ligado a una orden en curso.
type ProductionLoss struct {
	ID             string
	CompanyID      string
	RunID          string
	ProductID      string
	LossType       string
	QuantityLost   decimal.Decimal
	EstimatedValue decimal.Decimal // QuantityLost × costo FIFO de lo descontado
	Reason         string
	CreatedAt      time.Time
	CreatedBy      string
}
