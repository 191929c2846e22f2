package dto

import "time"

// CreateProductRequest alta de producto en el catálogo.
type CreateProductRequest struct {
	SKU         string `json:"sku" validate:"required"`
	Name        string `json:"name" validate:"required"`
	Description string `json:"description"`
	ProductType string `json:"product_type"` // raw_material, finished_good
	UnitMeasure string `json:"unit_measure"` // kg, ton, bulto
}

// UpdateProductRequest actualización de producto (SKU inmutable).
type UpdateProductRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	ProductType string `json:"product_type"`
	UnitMeasure string `json:"unit_measure"`
}

// ProductResponse producto en respuestas.
type ProductResponse struct {
	ID          string    `json:"id"`
	CompanyID   string    `json:"company_id"`
	SKU         string    `json:"sku"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	ProductType string    `json:"product_type"`
	UnitMeasure string    `json:"unit_measure"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
