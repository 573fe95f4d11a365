package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vsinha/quiltplan/pkg/application/services/scheduling"
	fixtures "github.com/vsinha/quiltplan/pkg/application/services/testing"
	"github.com/vsinha/quiltplan/pkg/domain/entities"
	"github.com/vsinha/quiltplan/pkg/domain/repositories"
	"github.com/vsinha/quiltplan/pkg/domain/services/planning"
	"github.com/vsinha/quiltplan/pkg/infrastructure/metrics"
	"github.com/vsinha/quiltplan/pkg/infrastructure/repositories/memory"
)

func newTestServer(store repositories.Store, policy planning.Policy, collector *metrics.Collector) http.Handler {
	planner := scheduling.NewPlanner(fixtures.MustEngine(policy), store, fixtures.FlatUsage(), nil)
	return NewServer(planner, collector, entities.Week, nil).Router()
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestRouter_Healthz(t *testing.T) {
	h := newTestServer(memory.NewStore(), fixtures.PlainPolicy(), nil)
	rec := get(t, h, "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}

func TestRouter_Overview(t *testing.T) {
	store := fixtures.SeededStore(
		fixtures.MustStock(3, 100, 100, entities.Closed),
		fixtures.MustDemand(4, 5, 0, 0),
	)
	collector := metrics.NewCollector()
	h := newTestServer(store, fixtures.PlainPolicy(), collector)

	rec := get(t, h, "/overview")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "Week 3", body["label"])
	assert.EqualValues(t, 3, body["today"])
	assert.Nil(t, body["today_demand"])
	assert.NotNil(t, body["tomorrow_demand"])

	metricsRec := get(t, h, "/metrics")
	assert.Contains(t, metricsRec.Body.String(), "quiltplan_current_period 3")
}

func TestRouter_OverviewWithoutStock(t *testing.T) {
	h := newTestServer(memory.NewStore(), fixtures.PlainPolicy(), nil)
	rec := get(t, h, "/overview")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRouter_Schedule(t *testing.T) {
	store := fixtures.SeededStore(
		fixtures.MustStock(1, 100, 100, entities.Closed),
		fixtures.MustDemand(2, 5, 0, 0),
	)
	h := newTestServer(store, fixtures.PlainPolicy(), nil)

	rec := get(t, h, "/schedule/2")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var body struct {
		Period   int  `json:"period"`
		NoOrders bool `json:"no_orders"`
		Produce  struct {
			Single int `json:"single"`
		} `json:"produce"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 2, body.Period)
	assert.False(t, body.NoOrders)
	assert.Equal(t, 5, body.Produce.Single)

	rec = get(t, h, "/schedule/9")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"no_orders":true`)
}

func TestRouter_ScheduleErrors(t *testing.T) {
	store := fixtures.SeededStore(
		fixtures.MustStock(1, 100, 100, entities.Closed),
		fixtures.MustDemand(2, 5, 0, 0),
	)
	policy := fixtures.PlainPolicy()
	policy.Lookback = 3
	h := newTestServer(store, policy, nil)

	rec := get(t, h, "/schedule/2")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), `"need":3`)

	rec = get(t, h, "/schedule/two")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	failing := &fixtures.FailingStore{Inner: store, Failing: true}
	h = newTestServer(failing.Store(), fixtures.PlainPolicy(), nil)
	rec = get(t, h, "/schedule/2")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "injected store failure"))
}

func TestRouter_Projection(t *testing.T) {
	store := fixtures.SeededStore(
		fixtures.MustStock(1, 100, 100, entities.Closed),
		fixtures.MustDemand(1, 5, 0, 0),
	)
	h := newTestServer(store, fixtures.PlainPolicy(), nil)

	rec := get(t, h, "/projection")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"stock_after_today":{"cotton":"90","fibre":"95"}`)
}

func TestRouter_ProjectionWithShortHistory(t *testing.T) {
	store := fixtures.SeededStore(
		fixtures.MustStock(1, 100, 100, entities.Closed),
		fixtures.MustDemand(2, 5, 0, 0),
	)
	policy := fixtures.PlainPolicy()
	policy.Lookback = 3
	h := newTestServer(store, policy, nil)

	rec := get(t, h, "/projection")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"insufficient_history":true`)
	assert.Contains(t, rec.Body.String(), `"tomorrow_feasibility":{"Feasible":true`)
}

func TestRouter_StockHistoryAndChart(t *testing.T) {
	store := fixtures.SeededStore(fixtures.MustStock(1, 100, 100, entities.Closed))
	require.NoError(t, store.Stock.Append(context.Background(), fixtures.MustStock(2, 80, 40, entities.Open)))
	h := newTestServer(store, fixtures.PlainPolicy(), nil)

	rec := get(t, h, "/stock")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var history []struct {
		Period    int `json:"period"`
		Materials struct {
			Cotton string `json:"cotton"`
		} `json:"materials"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &history))
	require.Len(t, history, 2)
	assert.Equal(t, 2, history[1].Period)
	assert.Equal(t, "80", history[1].Materials.Cotton)

	rec = get(t, h, "/stock/chart.svg")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/svg+xml", rec.Header().Get("Content-Type"))
	assert.True(t, strings.HasPrefix(rec.Body.String(), "<svg"))
	assert.Contains(t, rec.Body.String(), "Week 2 Cotton: 80.00m")
}

func TestRouter_StockHistoryEmpty(t *testing.T) {
	h := newTestServer(memory.NewStore(), fixtures.PlainPolicy(), nil)
	rec := get(t, h, "/stock")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "[]\n", rec.Body.String())
}
