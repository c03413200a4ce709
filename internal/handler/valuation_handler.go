package handler

import (
	"errors"
	"net/http"

	"forestval/internal/middleware"
	"forestval/internal/model"
	"forestval/internal/rotation"
	"forestval/internal/service"
	"forestval/pkg/pagination"
	"forestval/pkg/response"

	"github.com/gin-gonic/gin"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type ValuationHandler struct {
	valuationService service.ValuationService
	templates        *service.TemplateCatalog
	jwtSecret        []byte
}

func NewValuationHandler(valuationService service.ValuationService, templates *service.TemplateCatalog, jwtSecret []byte) *ValuationHandler {
	return &ValuationHandler{valuationService: valuationService, templates: templates, jwtSecret: jwtSecret}
}

func (h *ValuationHandler) RegisterRoutes(router *gin.RouterGroup) {
	rotations := router.Group("/api/rotations")
	{
		rotations.GET("/templates", h.ListTemplates)
		rotations.GET("/templates/:name", h.GetTemplate)
		rotations.POST("/valuate", middleware.OptionalSubject(h.jwtSecret), h.Valuate)
		rotations.POST("/valuate/export", middleware.OptionalSubject(h.jwtSecret), h.Export)
		rotations.GET("/runs", middleware.RequireRole(h.jwtSecret, middleware.RoleAdmin, middleware.RoleAnalyst), h.ListRuns)
	}
}

// ListTemplates returns the available prescription templates
// @Summary      List prescription templates
// @Tags         rotations
// @Produce      json
// @Success      200  {object}  response.Response{data=[]service.TemplateSummary}
// @Router       /api/rotations/templates [get]
func (h *ValuationHandler) ListTemplates(c *gin.Context) {
	c.JSON(http.StatusOK, response.Success(http.StatusOK, h.templates.List()))
}

// GetTemplate returns one gap-filled prescription template with its input bounds
// @Summary      Get prescription template
// @Tags         rotations
// @Produce      json
// @Param        name  path      string  true  "Template name"
// @Success      200   {object}  response.Response{data=service.Template}
// @Failure      404   {object}  response.Response
// @Router       /api/rotations/templates/{name} [get]
func (h *ValuationHandler) GetTemplate(c *gin.Context) {
	tpl, err := h.templates.Get(c.Param("name"))
	if err != nil {
		c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, tpl))
}

// Valuate computes the derived table, NPV, FPV and LEV of a prescription
// @Summary      Valuate a rotation
// @Description  Runs the discounted-cash-flow engine. Engine rejections are returned as 400 (invalid_input) or 422 (no_positive_result_years, degenerate_rate).
// @Tags         rotations
// @Accept       json
// @Produce      json
// @Param        payload  body      service.ValuationRequest  true  "Prescription and parameters"
// @Success      200      {object}  response.Response{data=service.ValuationResponse}
// @Failure      400      {object}  response.Response
// @Failure      422      {object}  response.Response
// @Router       /api/rotations/valuate [post]
func (h *ValuationHandler) Valuate(c *gin.Context) {
	var req service.ValuationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.ErrorWithKind(http.StatusBadRequest, "Invalid request payload: "+err.Error(), "invalid_input"))
		return
	}

	res, err := h.valuationService.Valuate(c.Request.Context(), c.GetString(middleware.CtxSubject), req)
	if err != nil {
		status := statusFor(err)
		c.JSON(status, response.ErrorWithKind(status, err.Error(), rotation.Kind(err)))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, res))
}

// Export computes a valuation and returns it as an XLSX workbook
// @Summary      Export a rotation valuation
// @Tags         rotations
// @Accept       json
// @Produce      application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param        payload  body      service.ValuationRequest  true  "Prescription and parameters"
// @Success      200
// @Failure      400      {object}  response.Response
// @Failure      422      {object}  response.Response
// @Router       /api/rotations/valuate/export [post]
func (h *ValuationHandler) Export(c *gin.Context) {
	var req service.ValuationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.ErrorWithKind(http.StatusBadRequest, "Invalid request payload: "+err.Error(), "invalid_input"))
		return
	}

	data, err := h.valuationService.Export(c.Request.Context(), c.GetString(middleware.CtxSubject), req)
	if err != nil {
		status := statusFor(err)
		c.JSON(status, response.ErrorWithKind(status, err.Error(), rotation.Kind(err)))
		return
	}

	c.Header("Content-Disposition", `attachment; filename="rotation-valuation.xlsx"`)
	c.Data(http.StatusOK, xlsxContentType, data)
}

// ListRuns returns the recorded valuation runs, newest first
// @Summary      List valuation runs
// @Tags         rotations
// @Security     BearerAuth
// @Produce      json
// @Param        status  query     string  false  "SUCCEEDED or REJECTED"
// @Param        page    query     int     false  "Page number (default 1)"
// @Param        limit   query     int     false  "Number of items per page (default 20)"
// @Success      200     {object}  response.Response{data=response.Page}
// @Router       /api/rotations/runs [get]
func (h *ValuationHandler) ListRuns(c *gin.Context) {
	p := pagination.Parse(c)
	status := c.Query("status")
	if status != "" && status != model.RunStatusSucceeded && status != model.RunStatusRejected {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "status must be SUCCEEDED or REJECTED"))
		return
	}

	runs, total, err := h.valuationService.ListRuns(c.Request.Context(), status, p.Page, p.Limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "Failed to retrieve valuation runs: "+err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, response.Page{Items: runs, Total: total, Page: p.Page, Limit: p.Limit}))
}

// GetRun returns one recorded valuation run
// @Summary      Get valuation run
// @Tags         rotations
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Run ID"
// @Success      200  {object}  response.Response{data=service.RunSummary}
// @Failure      400  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /api/rotations/runs/{id} [get]
func (h *ValuationHandler) GetRun(c *gin.Context) {
	run, err := h.valuationService.GetRun(c.Request.Context(), c.Param("id"))
	switch {
	case errors.Is(err, service.ErrInvalidRunID):
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	case errors.Is(err, service.ErrRunNotFound):
		c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, err.Error()))
		return
	case err != nil:
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "Failed to retrieve valuation run: "+err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, run))
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, rotation.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, rotation.ErrNoPositiveResultYears), errors.Is(err, rotation.ErrDegenerateRate):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
