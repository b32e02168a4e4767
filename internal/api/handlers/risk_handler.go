package handlers

import (
	"bytes"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/andresuchdata/stockrisk/internal/domain"
	"github.com/andresuchdata/stockrisk/internal/export"
	"github.com/andresuchdata/stockrisk/internal/risk"
	"github.com/andresuchdata/stockrisk/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

type RiskHandler struct {
	service *service.RiskService
}

func NewRiskHandler(service *service.RiskService) *RiskHandler {
	return &RiskHandler{service: service}
}

// parseFilter accepts repeated params (?location=A&location=B) as well as
// comma-separated lists (?location=A,B).
func (h *RiskHandler) parseFilter(c *gin.Context) (domain.MetricsFilter, error) {
	filter := domain.MetricsFilter{
		Locations: queryList(c, "location", "locations"),
		Items:     queryList(c, "item", "items"),
		View:      domain.ParseHeatmapView(strings.ToLower(strings.TrimSpace(c.Query("view")))),
	}

	if stockDate := strings.TrimSpace(c.Query("stock_date")); stockDate != "" {
		if _, err := time.Parse("2006-01-02", stockDate); err != nil {
			return filter, errors.New("stock_date must be YYYY-MM-DD")
		}
		filter.StockDate = stockDate
	}

	return filter, nil
}

func queryList(c *gin.Context, names ...string) []string {
	var out []string
	for _, name := range names {
		for _, v := range c.QueryArray(name) {
			for _, part := range strings.Split(v, ",") {
				if part = strings.TrimSpace(part); part != "" {
					out = append(out, part)
				}
			}
		}
	}
	return out
}

// respondError maps domain failures onto status codes: upstream failures are
// 502, malformed data is 422.
func respondError(c *gin.Context, message string, err error) {
	status := http.StatusInternalServerError

	var dsErr *domain.DataSourceError
	var schemaErr *domain.SchemaError
	switch {
	case errors.As(err, &dsErr):
		status = http.StatusBadGateway
	case errors.As(err, &schemaErr):
		status = http.StatusUnprocessableEntity
	}

	log.Error().Err(err).Int("status", status).Str("path", c.Request.URL.Path).Msg(message)
	c.JSON(status, gin.H{"error": message, "details": err.Error()})
}

func (h *RiskHandler) withFilter(c *gin.Context) (domain.MetricsFilter, bool) {
	filter, err := h.parseFilter(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid filter", "details": err.Error()})
		return filter, false
	}
	return filter, true
}

func (h *RiskHandler) GetHeatmap(c *gin.Context) {
	filter, ok := h.withFilter(c)
	if !ok {
		return
	}

	data, err := h.service.Heatmap(c.Request.Context(), filter)
	if err != nil {
		respondError(c, "failed to fetch heatmap", err)
		return
	}

	c.JSON(http.StatusOK, data)
}

func (h *RiskHandler) GetAlerts(c *gin.Context) {
	filter, ok := h.withFilter(c)
	if !ok {
		return
	}
	minLevel, err := risk.ParseMinLevel(strings.TrimSpace(c.Query("min_level")))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid filter", "details": err.Error()})
		return
	}

	alerts, err := h.service.Alerts(c.Request.Context(), filter)
	if err != nil {
		respondError(c, "failed to fetch alerts", err)
		return
	}
	alerts = risk.FilterMinLevel(alerts, minLevel)
	if alerts == nil {
		alerts = make([]domain.AlertRow, 0)
	}

	c.JSON(http.StatusOK, gin.H{
		"alerts": alerts,
		"total":  len(alerts),
	})
}

func (h *RiskHandler) GetSummary(c *gin.Context) {
	filter, ok := h.withFilter(c)
	if !ok {
		return
	}

	summary, kpis, err := h.service.Summary(c.Request.Context(), filter)
	if err != nil {
		respondError(c, "failed to fetch summary", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"summary": summary,
		"kpis":    kpis,
	})
}

func (h *RiskHandler) GetInsight(c *gin.Context) {
	filter, ok := h.withFilter(c)
	if !ok {
		return
	}

	insight, err := h.service.Insight(c.Request.Context(), filter)
	if err != nil {
		respondError(c, "failed to build insight", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"insight": insight})
}

func (h *RiskHandler) GetDashboard(c *gin.Context) {
	filter, ok := h.withFilter(c)
	if !ok {
		return
	}

	data, err := h.service.Dashboard(c.Request.Context(), filter)
	if err != nil {
		respondError(c, "failed to fetch dashboard", err)
		return
	}

	c.JSON(http.StatusOK, data)
}

// ExportCSV buffers the file so a failed fetch never leaves a partial download.
func (h *RiskHandler) ExportCSV(c *gin.Context) {
	filter, ok := h.withFilter(c)
	if !ok {
		return
	}

	var buf bytes.Buffer
	if _, err := h.service.ExportCSV(c.Request.Context(), filter, &buf); err != nil {
		respondError(c, "failed to export reorder recommendations", err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+export.DefaultFileName+`"`)
	c.Data(http.StatusOK, export.ContentType, buf.Bytes())
}

func (h *RiskHandler) GetTiers(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"tiers": risk.Tiers()})
}

func (h *RiskHandler) GetAvailableDates(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "30"))
	if limit <= 0 {
		limit = 30
	}

	dates, err := h.service.AvailableDates(c.Request.Context(), limit)
	if err != nil {
		respondError(c, "failed to fetch available dates", err)
		return
	}

	formatted := make([]string, 0, len(dates))
	for _, d := range dates {
		formatted = append(formatted, d.Format("2006-01-02"))
	}
	c.JSON(http.StatusOK, gin.H{"dates": formatted})
}

func (h *RiskHandler) InvalidateCache(c *gin.Context) {
	if err := h.service.InvalidateCache(c.Request.Context()); err != nil {
		respondError(c, "failed to invalidate cache", err)
		return
	}
	c.Status(http.StatusNoContent)
}
