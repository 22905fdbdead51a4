package http

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/centralmei/backend/internal/excel"
	"github.com/centralmei/backend/internal/model"
	"github.com/centralmei/backend/internal/pdf"
	"github.com/centralmei/backend/internal/service"
)

func (h *Handler) reportFilterFromQuery(c *gin.Context) (service.ReportFilter, bool) {
	categoryID, err := queryUUID(c, "category_id")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid category_id"})
		return service.ReportFilter{}, false
	}
	subcategoryID, err := queryUUID(c, "subcategory_id")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid subcategory_id"})
		return service.ReportFilter{}, false
	}
	dateFrom, err := queryDate(c, "date_from")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid date_from"})
		return service.ReportFilter{}, false
	}
	dateTo, err := queryDate(c, "date_to")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid date_to"})
		return service.ReportFilter{}, false
	}

	return service.ReportFilter{
		Type:          model.FlowType(c.Query("type")),
		CategoryID:    categoryID,
		SubcategoryID: subcategoryID,
		Period:        service.RangeName(c.Query("period")),
		DateFrom:      dateFrom,
		DateTo:        dateTo,
		OrderBy:       c.Query("order_by"),
	}, true
}

func (h *Handler) generateReport(c *gin.Context) {
	filter, ok := h.reportFilterFromQuery(c)
	if !ok {
		return
	}

	result, err := h.reports.Generate(c.Request.Context(), filter)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *Handler) exportReport(c *gin.Context) {
	filter, ok := h.reportFilterFromQuery(c)
	if !ok {
		return
	}

	result, err := h.reports.Generate(c.Request.Context(), filter)
	if err != nil {
		h.handleError(c, err)
		return
	}

	fileName := fmt.Sprintf("relatorio-financeiro-%s", time.Now().UTC().Format("2006-01-02"))

	switch c.DefaultQuery("format", "xlsx") {
	case "xlsx":
		content, err := h.excel.Generate(excel.Report{
			Movements: result.Movements,
			TotalIn:   result.TotalIn,
			TotalOut:  result.TotalOut,
			Balance:   result.Balance,
			DateFrom:  result.DateFrom,
			DateTo:    result.DateTo,
		})
		if err != nil {
			h.handleError(c, err)
			return
		}
		contentType := "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
		c.Header("Content-Disposition", `attachment; filename="`+fileName+`.xlsx"`)
		c.Data(http.StatusOK, contentType, content)
	case "pdf":
		content, err := h.pdf.Generate(pdf.Report{
			Movements: result.Movements,
			TotalIn:   result.TotalIn,
			TotalOut:  result.TotalOut,
			Balance:   result.Balance,
			DateFrom:  result.DateFrom,
			DateTo:    result.DateTo,
		})
		if err != nil {
			h.handleError(c, err)
			return
		}
		c.Header("Content-Disposition", `attachment; filename="`+fileName+`.pdf"`)
		c.Data(http.StatusOK, "application/pdf", content)
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown format"})
	}
}

func (h *Handler) reportSummary(c *gin.Context) {
	summary, err := h.reports.Summarize(c.Request.Context())
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}
