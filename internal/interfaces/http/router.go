package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/molino-api/internal/application/auth"
	"github.com/jhoicas/molino-api/internal/application/inventory"
	"github.com/jhoicas/molino-api/internal/application/production"
	"github.com/jhoicas/molino-api/internal/application/usecase"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	CompanyUC        *usecase.CompanyUseCase
	WarehouseUC      *usecase.WarehouseUseCase
	ProductUC        *usecase.ProductUseCase
	FormulaUC        *usecase.FormulaUseCase
	RegisterMovement *inventory.RegisterMovementUseCase
	StockQuery       *inventory.StockQueryUseCase
	ProductionUC     *production.UseCase
	AuthUC           *auth.AuthUseCase
	JWTSecret        string
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api")

	// Auth (público)
	authGroup := api.Group("/auth")
	authHandler := NewAuthHandler(deps.AuthUC)
	authGroup.Post("/register", authHandler.Register)
	authGroup.Post("/login", authHandler.Login)

	// Companies (público para registro inicial)
	companies := api.Group("/companies")
	companyHandler := NewCompanyHandler(deps.CompanyUC)
	companies.Get("/", companyHandler.List)
	companies.Post("/", companyHandler.Create)
	companies.Get("/:id", companyHandler.GetByID)

	// Rutas protegidas (requieren Bearer Token)
	protected := api.Group("/", AuthMiddleware(deps.JWTSecret))

	// Warehouses
	warehouses := protected.Group("/warehouses")
	warehouseHandler := NewWarehouseHandler(deps.WarehouseUC)
	warehouses.Post("/", warehouseHandler.Create)
	warehouses.Get("/", warehouseHandler.List)
	warehouses.Get("/:id", warehouseHandler.GetByID)

	// Products
	products := protected.Group("/products")
	productHandler := NewProductHandler(deps.ProductUC)
	products.Post("/", productHandler.Create)
	products.Get("/", productHandler.List)
	products.Get("/:id", productHandler.GetByID)
	products.Put("/:id", productHandler.Update)

	// Formulas (recetas) — solo admin crea
	formulas := protected.Group("/formulas")
	formulaHandler := NewFormulaHandler(deps.FormulaUC)
	formulas.Post("/", RequireRole("admin"), formulaHandler.Create)
	formulas.Get("/", formulaHandler.List)
	formulas.Get("/:id", formulaHandler.GetByID)

	// Inventory (lotes, movimientos, existencias)
	invGroup := protected.Group("/inventory")
	inventoryHandler := NewInventoryHandler(deps.RegisterMovement, deps.StockQuery)
	invWrite := RequireRole("admin", "bodeguero")
	invGroup.Post("/receipts", invWrite, inventoryHandler.RegisterReceipt)
	invGroup.Post("/adjustments", invWrite, inventoryHandler.RegisterAdjustment)
	invGroup.Post("/transfers", invWrite, inventoryHandler.RegisterTransfer)
	invGroup.Get("/on-hand", inventoryHandler.OnHand)
	invGroup.Get("/batches", inventoryHandler.ListBatches)
	invGroup.Post("/batches/expire", RequireRole("admin", "bodeguero"), inventoryHandler.ExpireBatches)
	invGroup.Get("/movements", inventoryHandler.ListMovements)

	// Production (máquina de estados de órdenes)
	prodGroup := protected.Group("/production")
	productionHandler := NewProductionHandler(deps.ProductionUC)
	prodWrite := RequireRole("admin", "produccion")
	prodGroup.Post("/runs", prodWrite, productionHandler.Plan)
	prodGroup.Get("/runs", productionHandler.ListRuns)
	prodGroup.Get("/runs/:id", productionHandler.GetRun)
	prodGroup.Get("/runs/:id/check-materials", productionHandler.CheckMaterials)
	prodGroup.Post("/runs/:id/start", prodWrite, productionHandler.Start)
	prodGroup.Post("/runs/:id/losses", prodWrite, productionHandler.RecordLoss)
	prodGroup.Get("/runs/:id/losses", productionHandler.ListLosses)
	prodGroup.Post("/runs/:id/complete", prodWrite, productionHandler.Complete)
	prodGroup.Post("/runs/:id/cancel", prodWrite, productionHandler.Cancel)
}
