package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/molino-api/internal/application/dto"
	"github.com/jhoicas/molino-api/internal/application/usecase"
)

// FormulaHandler maneja las peticiones HTTP para recetas de producción (protegido).
type FormulaHandler struct {
	uc *usecase.FormulaUseCase
}

func NewFormulaHandler(uc *usecase.FormulaUseCase) *FormulaHandler {
	return &FormulaHandler{uc: uc}
}

// Create godoc
// @Summary      Crear receta de producción
// @Tags         formulas
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateFormulaRequest  true  "Receta con ingredientes"
// @Success      201   {object}  dto.FormulaResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/formulas [post]
func (h *FormulaHandler) Create(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "company_id requerido"})
	}
	var in dto.CreateFormulaRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	out, err := h.uc.Create(c.Context(), companyID, in)
	if err != nil {
		return mapError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// GetByID godoc
// @Summary      Obtener receta con sus ingredientes
// @Tags         formulas
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la receta"
// @Success      200  {object}  dto.FormulaResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/formulas/{id} [get]
func (h *FormulaHandler) GetByID(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "company_id requerido"})
	}
	out, err := h.uc.GetByID(c.Context(), companyID, c.Params("id"))
	if err != nil {
		return mapError(c, err)
	}
	return c.JSON(out)
}

// List godoc
// @Summary      Listar recetas activas de la empresa
// @Tags         formulas
// @Security     Bearer
// @Produce      json
// @Success      200  {array}  dto.FormulaResponse
// @Router       /api/formulas [get]
func (h *FormulaHandler) List(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "company_id requerido"})
	}
	var page dto.PageRequest
	if err := c.QueryParser(&page); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_QUERY", Message: "parámetros inválidos"})
	}
	page.DefaultPage()
	out, err := h.uc.List(c.Context(), companyID, page.Limit, page.Offset)
	if err != nil {
		return mapError(c, err)
	}
	return c.JSON(out)
}
