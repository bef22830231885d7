package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meglermonitor/backend/internal/analytics"
	"github.com/meglermonitor/backend/internal/listing"
	"github.com/meglermonitor/backend/internal/store"
	"github.com/meglermonitor/backend/pkg/config"
	"github.com/meglermonitor/backend/pkg/logger"
)

func testRouter(t *testing.T, rows []listing.Listing) http.Handler {
	t.Helper()
	cfg := &config.Config{
		Env:             "development",
		LogLevel:        "error",
		LogFormat:       "json",
		RateLimitMax:    1000,
		RateLimitWindow: time.Minute,
	}
	log := logger.New(cfg)
	service := analytics.New(store.NewSampleFromListings(rows), log)
	return NewRouter(cfg, log, NewHandler(service, log))
}

func fixture() []listing.Listing {
	day := time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)
	name := "Kari Nordmann"
	chain := "DNB Eiendom"
	cityOslo := "Oslo"
	priceA := 8_000_000.0
	commA := 80_000.0
	return []listing.Listing{
		{
			Source: "finn", ListingID: "a", Broker: &name, Chain: &chain,
			City: &cityOslo, Price: &priceA, CommissionEst: &commA,
			LastSeenAt: day, SnapshotAt: day,
		},
	}
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	req.RemoteAddr = "192.0.2.1:1234"
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealthEndpoint(t *testing.T) {
	rec := get(t, testRouter(t, nil), "/health")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
}

func TestBrokersEndpoint(t *testing.T) {
	rec := get(t, testRouter(t, fixture()), "/api/agg/brokers?window=30d")

	require.Equal(t, http.StatusOK, rec.Code)

	var aggs []analytics.BrokerAggregate
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &aggs))
	require.Len(t, aggs, 1)
	assert.Equal(t, "Kari Nordmann", *aggs[0].Broker)
	assert.Equal(t, int64(8_000_000), aggs[0].TotalValue)
}

func TestBrokersEndpointRejectsBadSort(t *testing.T) {
	rec := get(t, testRouter(t, fixture()), "/api/agg/brokers?sort=sideways")

	require.Equal(t, http.StatusBadRequest, rec.Code)

	var body struct {
		Error  string            `json:"error"`
		Fields map[string]string `json:"fields"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Contains(t, body.Fields, "sort")
}

func TestBrokersEndpointRejectsBadFilter(t *testing.T) {
	rec := get(t, testRouter(t, fixture()), "/api/agg/brokers?price_min=cheap&since=juni")

	require.Equal(t, http.StatusBadRequest, rec.Code)

	var body struct {
		Fields map[string]string `json:"fields"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Contains(t, body.Fields, "price_min")
	assert.Contains(t, body.Fields, "since")
}

func TestBrokerDetailEndpoint(t *testing.T) {
	router := testRouter(t, fixture())

	rec := get(t, router, "/api/broker/kari-nordmann")
	require.Equal(t, http.StatusOK, rec.Code)

	var detail analytics.BrokerDetail
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &detail))
	assert.Equal(t, "Kari Nordmann", *detail.Summary.Broker)

	rec = get(t, router, "/api/broker/finnes-ikke")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListingsEndpoint(t *testing.T) {
	rec := get(t, testRouter(t, fixture()), "/api/listings")

	require.Equal(t, http.StatusOK, rec.Code)

	var rows []listing.Listing
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rows))
	require.Len(t, rows, 1)
	assert.Equal(t, "a", rows[0].ListingID)
}

func TestMetricsEndpoint(t *testing.T) {
	rec := get(t, testRouter(t, fixture()), "/api/metrics?asOf=latest&window=1y")

	require.Equal(t, http.StatusOK, rec.Code)

	var m analytics.Metrics
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &m))
	assert.Equal(t, int64(8_000_000), m.TotalValue)
	assert.Equal(t, 1, m.ActiveAgents)

	rec = get(t, testRouter(t, fixture()), "/api/metrics?asOf=not-a-date")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDeltasEndpoint(t *testing.T) {
	rec := get(t, testRouter(t, fixture()), "/api/agg/deltas?nowDays=7")

	require.Equal(t, http.StatusOK, rec.Code)

	var result analytics.DeltaResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.NotNil(t, result.Growing)
	assert.NotNil(t, result.Falling)
}

func TestDeltasEndpointHonorsNowDays(t *testing.T) {
	day14 := time.Date(2025, 6, 14, 0, 0, 0, 0, time.UTC)
	day15 := time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)
	name := "Kari Nordmann"
	chain := "DNB Eiendom"
	before := 50.0
	after := 100.0
	rows := []listing.Listing{
		{
			Source: "finn", ListingID: "a", Broker: &name, Chain: &chain,
			Price: &before, LastSeenAt: day14, SnapshotAt: day14,
		},
		{
			Source: "finn", ListingID: "a", Broker: &name, Chain: &chain,
			Price: &after, LastSeenAt: day15, SnapshotAt: day15,
		},
	}

	// With a one-day window only the anchor day counts as "now" and the
	// day before as the comparison period, so the delta is 100-50.
	rec := get(t, testRouter(t, rows), "/api/agg/deltas?nowDays=1")
	require.Equal(t, http.StatusOK, rec.Code)

	var result analytics.DeltaResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	require.Len(t, result.Growing, 1)
	assert.Equal(t, int64(100), result.Growing[0].NowValue)
	assert.Equal(t, int64(50), result.Growing[0].PrevValue)
	assert.Equal(t, int64(50), result.Growing[0].Delta)
}

func TestCommissionTrendsEndpointHonorsNowDays(t *testing.T) {
	day14 := time.Date(2025, 6, 14, 0, 0, 0, 0, time.UTC)
	day15 := time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)
	name := "Kari Nordmann"
	chain := "DNB Eiendom"
	before := 50_000.0
	after := 80_000.0
	rows := []listing.Listing{
		{
			Source: "finn", ListingID: "a", Broker: &name, Chain: &chain,
			CommissionEst: &before, LastSeenAt: day14, SnapshotAt: day14,
		},
		{
			Source: "finn", ListingID: "a", Broker: &name, Chain: &chain,
			CommissionEst: &after, LastSeenAt: day15, SnapshotAt: day15,
		},
	}

	rec := get(t, testRouter(t, rows), "/api/agg/commissions/trends?nowDays=1")
	require.Equal(t, http.StatusOK, rec.Code)

	var result analytics.TrendResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	require.Len(t, result.Growing, 1)
	assert.Equal(t, int64(80_000), result.Growing[0].NowTotal)
	assert.Equal(t, int64(50_000), result.Growing[0].PrevTotal)
	assert.Equal(t, int64(30_000), result.Growing[0].Delta)
}

func TestMetaFiltersEndpoint(t *testing.T) {
	rec := get(t, testRouter(t, fixture()), "/api/meta/filters")

	require.Equal(t, http.StatusOK, rec.Code)

	var cat analytics.Catalog
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &cat))
	assert.Equal(t, []string{"Oslo"}, cat.Cities)
}

func TestUnknownRoute(t *testing.T) {
	rec := get(t, testRouter(t, nil), "/api/nothing-here")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMethodNotAllowed(t *testing.T) {
	router := testRouter(t, nil)
	for _, path := range []string{"/health", "/api/listings", "/api/agg/brokers"} {
		req := httptest.NewRequest(http.MethodPost, path, nil)
		req.RemoteAddr = "192.0.2.1:1234"
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusMethodNotAllowed, rec.Code, "POST %s", path)
	}
}

func TestRateLimit(t *testing.T) {
	cfg := &config.Config{
		Env:             "development",
		LogLevel:        "error",
		LogFormat:       "json",
		RateLimitMax:    2,
		RateLimitWindow: time.Minute,
	}
	log := logger.New(cfg)
	service := analytics.New(store.NewSampleFromListings(nil), log)
	router := NewRouter(cfg, log, NewHandler(service, log))

	for i := 0; i < 2; i++ {
		rec := get(t, router, "/health")
		require.Equal(t, http.StatusOK, rec.Code)
	}
	rec := get(t, router, "/health")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}
