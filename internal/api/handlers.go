package api

import (
	"errors"
	"net/http"
	"net/url"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/meglermonitor/backend/internal/analytics"
	"github.com/meglermonitor/backend/internal/listing"
	"github.com/meglermonitor/backend/pkg/logger"
)

// Handler serves the analytics endpoints.
type Handler struct {
	service *analytics.Service
	logger  *logger.Logger
}

// NewHandler creates a new API handler.
func NewHandler(service *analytics.Service, log *logger.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  log.WithComponent("api"),
	}
}

// Health handles GET /health.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Listings handles GET /api/listings.
func (h *Handler) Listings(w http.ResponseWriter, r *http.Request) {
	f, err := listing.ParseFilter(r.URL.Query())
	if err != nil {
		respondServiceError(w, err)
		return
	}

	rows, err := h.service.Listings(r.Context(), f)
	if err != nil {
		h.logger.WithError(err).Error("Failed to load listings")
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, rows)
}

// Metrics handles GET /api/metrics.
func (h *Handler) Metrics(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	metrics, err := h.service.Metrics(r.Context(), q.Get("asOf"), q.Get("window"))
	if err != nil {
		if !isClientError(err) {
			h.logger.WithError(err).Error("Failed to compute metrics")
		}
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, metrics)
}

// Brokers handles GET /api/agg/brokers.
func (h *Handler) Brokers(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	f, err := listing.ParseFilter(q)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	sortKey, err := analytics.ParseSortKey(q.Get("sort"))
	if err != nil {
		respondServiceError(w, err)
		return
	}

	limit := parseLimit(q, 50)

	aggs, err := h.service.Brokers(r.Context(), f, q.Get("window"), sortKey, limit)
	if err != nil {
		h.logger.WithError(err).Error("Failed to aggregate brokers")
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, aggs)
}

// Chains handles GET /api/agg/chains.
func (h *Handler) Chains(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	f, err := listing.ParseFilter(q)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	limit := parseLimit(q, 50)

	aggs, err := h.service.Chains(r.Context(), f, q.Get("window"), limit)
	if err != nil {
		h.logger.WithError(err).Error("Failed to aggregate chains")
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, aggs)
}

// Deltas handles GET /api/agg/deltas.
func (h *Handler) Deltas(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	nowDays := parseDays(q, "nowDays", 30)
	limit := parseLimit(q, 10)

	result, err := h.service.Deltas(r.Context(), nowDays, limit)
	if err != nil {
		h.logger.WithError(err).Error("Failed to compute deltas")
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// Districts handles GET /api/agg/districts.
func (h *Handler) Districts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	f, err := listing.ParseFilter(q)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	limit := parseLimit(q, 5)

	aggs, err := h.service.Districts(r.Context(), f, limit)
	if err != nil {
		h.logger.WithError(err).Error("Failed to aggregate districts")
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, aggs)
}

// CommissionBrokers handles GET /api/agg/commissions/brokers.
func (h *Handler) CommissionBrokers(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	f, err := listing.ParseFilter(q)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	limit := parseLimit(q, 50)

	aggs, err := h.service.CommissionBrokers(r.Context(), f, q.Get("window"), limit)
	if err != nil {
		h.logger.WithError(err).Error("Failed to aggregate broker commissions")
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, aggs)
}

// CommissionChains handles GET /api/agg/commissions/chains.
func (h *Handler) CommissionChains(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	f, err := listing.ParseFilter(q)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	limit := parseLimit(q, 50)

	aggs, err := h.service.CommissionChains(r.Context(), f, q.Get("window"), limit)
	if err != nil {
		h.logger.WithError(err).Error("Failed to aggregate chain commissions")
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, aggs)
}

// CommissionTrends handles GET /api/agg/commissions/trends.
func (h *Handler) CommissionTrends(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	f, err := listing.ParseFilter(q)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	nowDays := parseDays(q, "nowDays", 30)
	limit := parseLimit(q, 10)

	result, err := h.service.CommissionTrends(r.Context(), f, nowDays, limit)
	if err != nil {
		h.logger.WithError(err).Error("Failed to compute commission trends")
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// BrokerDetail handles GET /api/broker/{slug}.
func (h *Handler) BrokerDetail(w http.ResponseWriter, r *http.Request) {
	slug := mux.Vars(r)["slug"]

	f, err := listing.ParseFilter(r.URL.Query())
	if err != nil {
		respondServiceError(w, err)
		return
	}

	detail, err := h.service.BrokerDetail(r.Context(), slug, f)
	if err != nil {
		if !isClientError(err) {
			h.logger.WithError(err).WithField("slug", slug).Error("Failed to build broker detail")
		}
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, detail)
}

// FilterCatalog handles GET /api/meta/filters.
func (h *Handler) FilterCatalog(w http.ResponseWriter, r *http.Request) {
	f, err := listing.ParseFilter(r.URL.Query())
	if err != nil {
		respondServiceError(w, err)
		return
	}

	catalog, err := h.service.FilterCatalog(r.Context(), f)
	if err != nil {
		h.logger.WithError(err).Error("Failed to build filter catalog")
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, catalog)
}

// parseLimit reads a positive limit parameter, falling back to def when
// absent or malformed.
func parseLimit(q url.Values, def int) int {
	raw := q.Get("limit")
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return def
	}
	return n
}

// parseDays reads a positive whole-day count, falling back to def when
// absent or malformed.
func parseDays(q url.Values, key string, def int) int {
	raw := q.Get(key)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return def
	}
	return n
}

func isClientError(err error) bool {
	var verr *listing.ValidationError
	if errors.As(err, &verr) {
		return true
	}
	return errors.Is(err, analytics.ErrNotFound)
}
