package handler

import (
	"net/http"
	"strconv"

	"gstbilling/internal/apierror"
	"gstbilling/internal/dto"
	"gstbilling/internal/service"

	"github.com/gin-gonic/gin"
)

type AnalyticsHandler struct{ svc service.AnalyticsService }

func NewAnalyticsHandler(svc service.AnalyticsService) *AnalyticsHandler {
	return &AnalyticsHandler{svc: svc}
}

// SalesSummary godoc
// @Summary      Sales totals split by payment status
// @Tags         analytics
// @Produce      json
// @Security     BearerAuth
// @Param        start_date query string false "YYYY-MM-DD (inclusive)"
// @Param        end_date   query string false "YYYY-MM-DD (inclusive)"
// @Success      200 {object} dto.SalesSummaryResponse
// @Router       /v1/analytics/sales-summary [get]
func (h *AnalyticsHandler) SalesSummary(c *gin.Context) {
	var filter dto.SalesSummaryFilter
	if !bindQuery(c, &filter) {
		return
	}
	resp, err := h.svc.SalesSummary(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// DueBills godoc
// @Summary      Outstanding credit bills grouped by customer
// @Tags         analytics
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} dto.DueBillsResponse
// @Router       /v1/analytics/due-bills [get]
func (h *AnalyticsHandler) DueBills(c *gin.Context) {
	resp, err := h.svc.DueBills(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// MonthlySales godoc
// @Summary      Twelve monthly rows for a calendar year
// @Tags         analytics
// @Produce      json
// @Security     BearerAuth
// @Param        year query int false "Defaults to the current year"
// @Success      200 {array} dto.MonthlySales
// @Failure      400 {object} apierror.APIError
// @Router       /v1/analytics/monthly-sales [get]
func (h *AnalyticsHandler) MonthlySales(c *gin.Context) {
	year := 0
	if raw := c.Query("year"); raw != "" {
		y, err := strconv.Atoi(raw)
		if err != nil || y < 1900 || y > 9999 {
			c.JSON(http.StatusBadRequest, apierror.New("Invalid year"))
			return
		}
		year = y
	}
	rows, err := h.svc.MonthlySales(c.Request.Context(), year)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, rows)
}
