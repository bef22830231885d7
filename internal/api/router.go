package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/meglermonitor/backend/pkg/config"
	"github.com/meglermonitor/backend/pkg/logger"
)

// NewRouter builds the HTTP route table with the standard middleware chain.
func NewRouter(cfg *config.Config, log *logger.Logger, h *Handler) http.Handler {
	r := mux.NewRouter()

	r.Use(recoveryMiddleware(log))
	r.Use(loggingMiddleware(log))
	r.Use(rateLimitMiddleware(log, cfg.RateLimitMax, cfg.RateLimitWindow))
	r.Use(corsMiddleware)

	r.HandleFunc("/health", h.Health).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/listings", h.Listings).Methods(http.MethodGet)
	api.HandleFunc("/metrics", h.Metrics).Methods(http.MethodGet)
	api.HandleFunc("/broker/{slug}", h.BrokerDetail).Methods(http.MethodGet)
	api.HandleFunc("/meta/filters", h.FilterCatalog).Methods(http.MethodGet)

	agg := api.PathPrefix("/agg").Subrouter()
	agg.HandleFunc("/brokers", h.Brokers).Methods(http.MethodGet)
	agg.HandleFunc("/chains", h.Chains).Methods(http.MethodGet)
	agg.HandleFunc("/deltas", h.Deltas).Methods(http.MethodGet)
	agg.HandleFunc("/districts", h.Districts).Methods(http.MethodGet)
	agg.HandleFunc("/commissions/brokers", h.CommissionBrokers).Methods(http.MethodGet)
	agg.HandleFunc("/commissions/chains", h.CommissionChains).Methods(http.MethodGet)
	agg.HandleFunc("/commissions/trends", h.CommissionTrends).Methods(http.MethodGet)

	notFound := http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		respondError(w, http.StatusNotFound, "route not found")
	})
	methodNotAllowed := http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		respondError(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	// Subrouters do not inherit these from the parent router, so each level
	// gets its own copy.
	for _, router := range []*mux.Router{r, api, agg} {
		router.NotFoundHandler = notFound
		router.MethodNotAllowedHandler = methodNotAllowed
	}

	return r
}
