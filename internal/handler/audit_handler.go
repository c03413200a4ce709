package handler

import (
	"net/http"

	"forestval/internal/middleware"
	"forestval/internal/service"
	"forestval/pkg/pagination"
	"forestval/pkg/response"

	"github.com/gin-gonic/gin"
)

type AuditHandler struct {
	auditService service.AuditService
	jwtSecret    []byte
}

func NewAuditHandler(auditService service.AuditService, jwtSecret []byte) *AuditHandler {
	return &AuditHandler{auditService: auditService, jwtSecret: jwtSecret}
}

func (h *AuditHandler) RegisterRoutes(router *gin.RouterGroup) {
	group := router.Group("/api/audit-logs")
	group.Use(middleware.RequireRole(h.jwtSecret, middleware.RoleAdmin))
	{
		group.GET("", h.GetAuditLogs)
	}
}

// GetAuditLogs returns one page of the audit trail
// @Summary      Get audit logs
// @Description  Lists who ran or exported which valuation, newest first
// @Tags         audit
// @Security     BearerAuth
// @Produce      json
// @Param        page   query     int  false  "Page number (default 1)"
// @Param        limit  query     int  false  "Number of items per page (default 20)"
// @Success      200    {object}  response.Response{data=response.Page}
// @Router       /api/audit-logs [get]
func (h *AuditHandler) GetAuditLogs(c *gin.Context) {
	p := pagination.Parse(c)

	logs, total, err := h.auditService.GetAuditLogs(c.Request.Context(), p.Page, p.Limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "Failed to retrieve audit logs: "+err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, response.Page{Items: logs, Total: total, Page: p.Page, Limit: p.Limit}))
}
