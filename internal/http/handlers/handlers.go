package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/dealdash/backend/internal/fetch"
	"github.com/dealdash/backend/internal/models"
	"github.com/dealdash/backend/internal/service"
)

type Handler struct {
	Fetcher   *fetch.Fetcher
	Validator *validator.Validate
	Logger    zerolog.Logger
	AdminKey  string
	Now       func() time.Time
}

func (h *Handler) now() time.Time {
	if h.Now != nil {
		return h.Now()
	}
	return time.Now().UTC()
}

func (h *Handler) Healthz(c *gin.Context) {
	resp := gin.H{"status": "ok"}
	if age, ok := h.Fetcher.CacheAge(); ok {
		resp["cache_age_seconds"] = int(age.Seconds())
	}
	c.JSON(http.StatusOK, resp)
}

// @Summary List resolved deals
// @Description Deals with owner and stage names joined, under the sidebar filters
// @Tags deals
// @Produce json
// @Param outcome query string false "won|lost|open|unknown"
// @Param lead_path query string false "Lead path label"
// @Param owners query string false "Comma-separated owner names"
// @Param from query string false "Close date lower bound (YYYY-MM-DD)"
// @Param to query string false "Close date upper bound (YYYY-MM-DD)"
// @Success 200 {object} map[string]any
// @Failure 502 {object} map[string]any
// @Router /api/deals [get]
func (h *Handler) DealsList(c *gin.Context) {
	q := struct {
		Outcome string `validate:"omitempty,oneof=won lost open unknown"`
		From    string `validate:"omitempty,datetime=2006-01-02"`
		To      string `validate:"omitempty,datetime=2006-01-02"`
	}{
		Outcome: c.Query("outcome"),
		From:    c.Query("from"),
		To:      c.Query("to"),
	}
	if err := h.Validator.Struct(q); err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "invalid query parameters", err.Error())
		return
	}

	deals, ok := h.loadResolved(c)
	if !ok {
		return
	}

	filter := service.DealFilter{
		Outcome:  models.Outcome(q.Outcome),
		LeadPath: c.Query("lead_path"),
		Owners:   splitCSV(c.Query("owners")),
		From:     queryDate(q.From),
		To:       queryDate(q.To),
	}
	filtered := service.FilterDeals(deals, filter)
	c.JSON(http.StatusOK, gin.H{"deals": filtered, "total": len(filtered)})
}

// @Summary Filter options
// @Description Sorted unique owner and stage names for the UI multiselects
// @Tags deals
// @Produce json
// @Success 200 {object} service.FilterOptions
// @Failure 502 {object} map[string]any
// @Router /api/filters [get]
func (h *Handler) Filters(c *gin.Context) {
	deals, ok := h.loadResolved(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, service.Options(deals))
}

// @Summary Stacked bar chart data
// @Description Deal counts grouped by owner (rows) and stage (columns)
// @Tags charts
// @Produce json
// @Param owners query string false "Comma-separated owner names; empty keeps all"
// @Param stages query string false "Comma-separated stage names; empty keeps all"
// @Success 200 {object} service.BarChart
// @Failure 502 {object} map[string]any
// @Router /api/charts/stacked-bar [get]
func (h *Handler) StackedBar(c *gin.Context) {
	deals, ok := h.loadResolved(c)
	if !ok {
		return
	}
	chart := service.BuildStackedBar(deals, splitCSV(c.Query("owners")), splitCSV(c.Query("stages")))
	c.JSON(http.StatusOK, chart)
}

// @Summary Pipeline timeline chart data
// @Description Won deals with upcoming target dates, drawn from first meeting to close date
// @Tags charts
// @Produce json
// @Param today query string false "Reference date (YYYY-MM-DD), defaults to server date"
// @Success 200 {object} map[string]any
// @Failure 502 {object} map[string]any
// @Router /api/charts/pipeline [get]
func (h *Handler) Pipeline(c *gin.Context) {
	q := struct {
		Today string `validate:"omitempty,datetime=2006-01-02"`
	}{Today: c.Query("today")}
	if err := h.Validator.Struct(q); err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "invalid today parameter", err.Error())
		return
	}

	deals, ok := h.loadResolved(c)
	if !ok {
		return
	}

	today := h.now()
	if d := queryDate(q.Today); d != nil {
		today = *d
	}

	segments := service.ExtractTimeline(deals, today)
	resp := gin.H{"segments": segments, "empty": len(segments) == 0}
	if len(segments) == 0 {
		// Distinct from a fetch failure: the data loaded fine, nothing
		// qualified. The UI shows this as information, not an error.
		resp["message"] = "条件に一致する受注案件がありませんでした。"
	}
	c.JSON(http.StatusOK, resp)
}

// @Summary Pipeline outlook report
// @Description Scheduled deals with per-owner and per-type summaries and a cross pivot
// @Tags reports
// @Produce json
// @Success 200 {object} service.Outlook
// @Failure 502 {object} map[string]any
// @Router /api/outlook [get]
func (h *Handler) Outlook(c *gin.Context) {
	deals, ok := h.loadResolved(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, service.BuildOutlook(deals))
}

// @Summary Fiscal date presets
// @Tags reports
// @Produce json
// @Param today query string false "Reference date (YYYY-MM-DD)"
// @Success 200 {object} service.FiscalDates
// @Router /api/fiscal [get]
func (h *Handler) Fiscal(c *gin.Context) {
	today := h.now()
	if d := queryDate(c.Query("today")); d != nil {
		today = *d
	}
	c.JSON(http.StatusOK, service.FiscalRanges(today))
}

// @Summary Drop the cached snapshot
// @Description Forces the next request to contact the spreadsheet again
// @Tags admin
// @Produce json
// @Success 200 {object} map[string]any
// @Router /api/refresh [post]
func (h *Handler) Refresh(c *gin.Context) {
	h.Fetcher.Invalidate()
	h.Logger.Info().Msg("snapshot cache invalidated")
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// loadResolved fetches the snapshot and resolves identifiers. On a
// terminal fetch failure it writes the error response and returns
// ok=false; nothing is rendered on partial data.
func (h *Handler) loadResolved(c *gin.Context) ([]models.ResolvedDeal, bool) {
	snap, err := h.Fetcher.Load(c.Request.Context())
	if err != nil {
		if errors.Is(err, fetch.ErrFetchFailed) {
			writeError(c, http.StatusBadGateway, "FETCH_FAILED",
				"Googleスプレッドシートの読み込みに失敗しました。後ほど再試行してください。", err.Error())
			return nil, false
		}
		writeError(c, http.StatusInternalServerError, "INTERNAL", "unexpected fetch error", err.Error())
		return nil, false
	}
	return service.ResolveSnapshot(snap.Deals, snap.Stages, snap.Users), true
}

func writeError(c *gin.Context, status int, code string, message string, details any) {
	c.JSON(status, gin.H{
		"error": gin.H{
			"code":    code,
			"message": message,
			"details": details,
		},
	})
}

func splitCSV(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func queryDate(raw string) *time.Time {
	if raw == "" {
		return nil
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return nil
	}
	return &t
}
