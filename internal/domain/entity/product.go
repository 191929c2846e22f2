package entity

import "time"

// Tipos de producto del molino.
const (
	ProductTypeRawMaterial  = "raw_material"  // materia prima (maíz, soya, salvado)
	ProductTypeFinishedGood = "finished_good" // alimento terminado
)

// Product representa un producto o SKU del catálogo (materia prima o producto terminado).
// El costo real vive en los lotes (InventoryBatch); aquí solo identidad y unidad de medida.
type Product struct {
	ID          string
	CompanyID   string
	SKU         string // código único por empresa
	Name        string
	Description string
	ProductType string // raw_material, finished_good
	UnitMeasure string // kg, ton, bulto
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
