package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/molino-api/internal/application/dto"
	"github.com/jhoicas/molino-api/internal/application/production"
)

// ProductionHandler maneja el ciclo de vida de órdenes de producción (protegido).
type ProductionHandler struct {
	uc *production.UseCase
}

func NewProductionHandler(uc *production.UseCase) *ProductionHandler {
	return &ProductionHandler{uc: uc}
}

// Plan godoc
// @Summary      Planificar una orden de producción desde una receta
// @Tags         production
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.PlanRunRequest  true  "Receta, bodega y cantidad objetivo"
// @Success      201   {object}  dto.RunResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/production/runs [post]
func (h *ProductionHandler) Plan(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "company_id requerido"})
	}
	var in dto.PlanRunRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	run, err := h.uc.Plan(c.Context(), companyID, GetUserID(c), in)
	if err != nil {
		return mapError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(toRunResponse(run))
}

// GetRun godoc
// @Summary      Obtener orden de producción con sus items
// @Tags         production
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la orden"
// @Success      200  {object}  dto.RunResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/production/runs/{id} [get]
func (h *ProductionHandler) GetRun(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "company_id requerido"})
	}
	run, err := h.uc.GetRun(c.Context(), companyID, c.Params("id"))
	if err != nil {
		return mapError(c, err)
	}
	return c.JSON(toRunResponse(run))
}

// ListRuns godoc
// @Summary      Listar órdenes de producción
// @Tags         production
// @Security     Bearer
// @Produce      json
// @Param        status  query  string  false  "Filtrar por estado (planned, in_progress, completed, cancelled)"
// @Success      200  {array}  dto.RunResponse
// @Router       /api/production/runs [get]
func (h *ProductionHandler) ListRuns(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "company_id requerido"})
	}
	var page dto.PageRequest
	if err := c.QueryParser(&page); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_QUERY", Message: "parámetros inválidos"})
	}
	page.DefaultPage()
	runs, err := h.uc.ListRuns(c.Context(), companyID, c.Query("status"), page.Limit, page.Offset)
	if err != nil {
		return mapError(c, err)
	}
	out := make([]dto.RunResponse, 0, len(runs))
	for _, run := range runs {
		out = append(out, toRunResponse(run))
	}
	return c.JSON(out)
}

// CheckMaterials godoc
// @Summary      Verificar disponibilidad de materiales de una orden planificada
// @Tags         production
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la orden"
// @Success      200  {object}  dto.AvailabilityReportDTO
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/production/runs/{id}/check-materials [get]
func (h *ProductionHandler) CheckMaterials(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "company_id requerido"})
	}
	report, err := h.uc.CheckMaterials(c.Context(), companyID, c.Params("id"))
	if err != nil {
		return mapError(c, err)
	}
	return c.JSON(toAvailabilityDTO(report))
}

// Start godoc
// @Summary      Iniciar orden planificada (verifica materiales, no los consume)
// @Tags         production
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la orden"
// @Success      204
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/production/runs/{id}/start [post]
func (h *ProductionHandler) Start(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "company_id requerido"})
	}
	if err := h.uc.Start(c.Context(), companyID, GetUserID(c), c.Params("id")); err != nil {
		return mapError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// RecordLoss godoc
// @Summary      Registrar pérdida durante una orden en curso
// @Tags         production
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string  true  "ID de la orden"
// @Param        body  body  dto.RecordLossRequest  true  "Producto, cantidad y tipo de pérdida"
// @Success      201   {object}  dto.LossResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/production/runs/{id}/losses [post]
func (h *ProductionHandler) RecordLoss(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "company_id requerido"})
	}
	var in dto.RecordLossRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	loss, err := h.uc.RecordLoss(c.Context(), companyID, GetUserID(c), c.Params("id"), in)
	if err != nil {
		return mapError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(toLossResponse(loss))
}

// ListLosses godoc
// @Summary      Listar pérdidas registradas de una orden
// @Tags         production
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la orden"
// @Success      200  {array}  dto.LossResponse
// @Router       /api/production/runs/{id}/losses [get]
func (h *ProductionHandler) ListLosses(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "company_id requerido"})
	}
	losses, err := h.uc.ListLosses(c.Context(), companyID, c.Params("id"))
	if err != nil {
		return mapError(c, err)
	}
	out := make([]dto.LossResponse, 0, len(losses))
	for _, l := range losses {
		out = append(out, toLossResponse(l))
	}
	return c.JSON(out)
}

// Complete godoc
// @Summary      Completar orden: consume materiales, acredita salida y costea
// @Tags         production
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string  true  "ID de la orden"
// @Param        body  body  dto.CompleteRunRequest  true  "Consumos reales y salida real"
// @Success      200   {object}  dto.CompletionResultDTO
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/production/runs/{id}/complete [post]
func (h *ProductionHandler) Complete(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "company_id requerido"})
	}
	var in dto.CompleteRunRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	run, outputBatch, err := h.uc.Complete(c.Context(), companyID, GetUserID(c), c.Params("id"), in)
	if err != nil {
		return mapError(c, err)
	}
	result := dto.CompletionResultDTO{Run: toRunResponse(run)}
	if outputBatch != nil {
		result.OutputBatchID = outputBatch.ID
		result.OutputBatchNum = outputBatch.BatchNumber
	}
	return c.JSON(result)
}

// Cancel godoc
// @Summary      Cancelar orden planificada o en curso
// @Tags         production
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string  true  "ID de la orden"
// @Param        body  body  dto.CancelRunRequest  true  "Motivo de cancelación"
// @Success      204
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/production/runs/{id}/cancel [post]
func (h *ProductionHandler) Cancel(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "company_id requerido"})
	}
	var in dto.CancelRunRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	if in.Reason == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "reason es requerido"})
	}
	if err := h.uc.Cancel(c.Context(), companyID, GetUserID(c), c.Params("id"), in.Reason); err != nil {
		return mapError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
