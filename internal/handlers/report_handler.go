package handlers

import (
	"fmt"
	"net/http"
	"time"

	"schoolpay_backend/internal/middleware"
	"schoolpay_backend/internal/models"
	"schoolpay_backend/internal/services"
	"schoolpay_backend/internal/services/dto"

	"github.com/gin-gonic/gin"
)

type ReportHandler struct {
	*BaseHandler
	reportService services.ReportService
}

func NewReportHandler(base *BaseHandler, reportService services.ReportService) *ReportHandler {
	return &ReportHandler{
		BaseHandler:   base,
		reportService: reportService,
	}
}

func (h *ReportHandler) RegisterRoutes(r *gin.RouterGroup) {
	reports := r.Group("/reports")
	reports.Use(middleware.AuthMiddleware(), middleware.RequireRoles(
		models.UserRoleBusinessOffice, models.UserRoleAdmin,
	))
	{
		reports.GET("/collections", h.CollectionReport)
		reports.GET("/collections/export", h.ExportCollectionsCSV)
		reports.GET("/collections/export/daily", h.ExportDailySummaryCSV)
	}

	cashier := r.Group("/reports")
	cashier.Use(middleware.AuthMiddleware(), middleware.RequireRoles(
		models.UserRoleCashier, models.UserRoleBusinessOffice, models.UserRoleAdmin,
	))
	{
		cashier.GET("/daily", h.DailyCashReport)
	}
}

func (h *ReportHandler) CollectionReport(c *gin.Context) {
	var req dto.ReportRequest
	if !h.BindAndValidate_Query(c, &req) {
		return
	}

	report, err := h.reportService.CollectionReport(req.DateFrom, req.DateTo)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, report)
}

func (h *ReportHandler) DailyCashReport(c *gin.Context) {
	date := c.Query("date")
	if date == "" {
		date = time.Now().Format("2006-01-02")
	}

	report, err := h.reportService.DailyCashReport(date)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, report)
}

func (h *ReportHandler) ExportCollectionsCSV(c *gin.Context) {
	var req dto.ReportRequest
	if !h.BindAndValidate_Query(c, &req) {
		return
	}

	data, err := h.reportService.ExportCollectionsCSV(req.DateFrom, req.DateTo)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	filename := fmt.Sprintf("collections_%s_%s.csv", req.DateFrom, req.DateTo)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "text/csv", data)
}

func (h *ReportHandler) ExportDailySummaryCSV(c *gin.Context) {
	var req dto.ReportRequest
	if !h.BindAndValidate_Query(c, &req) {
		return
	}

	data, err := h.reportService.ExportDailySummaryCSV(req.DateFrom, req.DateTo)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	filename := fmt.Sprintf("daily_summary_%s_%s.csv", req.DateFrom, req.DateTo)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "text/csv", data)
}
