package app

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ridefare/internal/config"
	"ridefare/internal/domain"
	"ridefare/internal/repository/memory"
)

type testServer struct {
	router  *gin.Engine
	stores  *Stores
	rider   *domain.Rider
	driver  *domain.Driver
	other   *domain.Driver
	places  map[string]int64
	economy int64
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)
	ctx := context.Background()

	store := memory.NewStore(time.Second)
	require.NoError(t, memory.SeedDemo(ctx, store))
	stores := MemoryStores(store)

	log, _ := logtest.NewNullLogger()
	cfg := &config.Config{}
	services := NewServices(cfg, stores, ServiceDeps{Log: log})

	ts := &testServer{
		router: NewRouter(RouterDeps{Services: services, Stores: stores, Log: log}),
		stores: stores,
		places: make(map[string]int64),
	}

	riders, err := stores.Riders.GetAll(ctx)
	require.NoError(t, err)
	ts.rider = riders[0]
	drivers, err := stores.Drivers.GetAll(ctx)
	require.NoError(t, err)
	ts.driver, ts.other = drivers[0], drivers[1]

	locations, err := stores.Catalog.ListLocations(ctx)
	require.NoError(t, err)
	for _, l := range locations {
		ts.places[l.Name] = l.ID
	}
	categories, err := stores.Catalog.ListCategories(ctx)
	require.NoError(t, err)
	for _, c := range categories {
		if c.Name == "economy" {
			ts.economy = c.ID
		}
	}
	return ts
}

func (ts *testServer) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)
	return w
}

func (ts *testServer) book(t *testing.T, method string) int64 {
	t.Helper()
	w := ts.do(t, http.MethodPost, "/v1/rides", gin.H{
		"rider_id":       ts.rider.ID,
		"driver_id":      ts.driver.ID,
		"origin_id":      ts.places["Downtown"],
		"destination_id": ts.places["JFK Airport"],
		"category_id":    ts.economy,
		"payment_method": method,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var ride rideView
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &ride))
	return ride.ID
}

// rideView is the subset of the ride response the tests read.
type rideView struct {
	ID        int64            `json:"id"`
	Status    string           `json:"status"`
	Breakdown domain.Breakdown `json:"breakdown"`
}

func TestRouter_Health(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestRouter_QuoteUsesRouteOverride(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodPost, "/v1/quotes", gin.H{
		"origin_id":      ts.places["Downtown"],
		"destination_id": ts.places["JFK Airport"],
		"category_id":    ts.economy,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var quote struct {
		HotArea   bool             `json:"hot_area"`
		Breakdown domain.Breakdown `json:"breakdown"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &quote))
	assert.True(t, quote.HotArea)
	assert.Equal(t, int64(175), quote.Breakdown.Applied.RateCentsPerMile)
	assert.Equal(t, int64(2262), quote.Breakdown.FareBaseCents)
	assert.Equal(t, int64(2522), quote.Breakdown.FareTotalCents)
	assert.Equal(t, "15", quote.Breakdown.Applied.CompanyCommissionPct.String())
}

func TestRouter_BookAcceptReceipt(t *testing.T) {
	ts := newTestServer(t)
	rideID := ts.book(t, "wallet")

	w := ts.do(t, http.MethodPost, fmt.Sprintf("/v1/drivers/%d/accept", ts.driver.ID), gin.H{"ride_id": rideID})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var ride rideView
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &ride))
	assert.Equal(t, "accepted", ride.Status)

	w = ts.do(t, http.MethodGet, fmt.Sprintf("/v1/rides/%d", rideID), nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = ts.do(t, http.MethodGet, fmt.Sprintf("/v1/rides/%d/receipt?format=text", rideID), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.Contains(w.Body.String(), "$25.22"), w.Body.String())

	acct, err := ts.stores.Accounts.GetByOwner(context.Background(), domain.RiderAccount(ts.rider.ID))
	require.NoError(t, err)
	assert.Equal(t, int64(5000-2522), acct.BalanceCents)

	// Settled already.
	w = ts.do(t, http.MethodPost, fmt.Sprintf("/v1/drivers/%d/accept", ts.driver.ID), gin.H{"ride_id": rideID})
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestRouter_ErrorStatuses(t *testing.T) {
	ts := newTestServer(t)
	first := ts.book(t, "wallet")
	second := ts.book(t, "wallet")

	w := ts.do(t, http.MethodPost, fmt.Sprintf("/v1/drivers/%d/accept", ts.driver.ID), gin.H{"ride_id": first})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = ts.do(t, http.MethodPost, fmt.Sprintf("/v1/drivers/%d/accept", ts.driver.ID), gin.H{"ride_id": second})
	assert.Equal(t, http.StatusPaymentRequired, w.Code, w.Body.String())

	w = ts.do(t, http.MethodPost, fmt.Sprintf("/v1/drivers/%d/reject", ts.other.ID), gin.H{"ride_id": second})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = ts.do(t, http.MethodPost, "/v1/drivers/abc/accept", gin.H{"ride_id": second})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = ts.do(t, http.MethodGet, "/v1/rides/999999", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = ts.do(t, http.MethodPost, "/v1/rides", gin.H{"rider_id": ts.rider.ID, "payment_method": "cash"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRouter_CompanySettings(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodPost, "/v1/company/settings", gin.H{
		"items": []gin.H{{"name": "rider_fee", "pct": "4.5"}},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = ts.do(t, http.MethodGet, "/v1/company/settings", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var settings struct {
		Deductions []struct {
			Name    string `json:"name"`
			Pct     string `json:"pct"`
			Version int64  `json:"version"`
		} `json:"deductions"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &settings))
	require.Len(t, settings.Deductions, 4)
	assert.Equal(t, "rider_fee", settings.Deductions[1].Name)
	assert.Equal(t, "4.5", settings.Deductions[1].Pct)
	assert.Equal(t, int64(2), settings.Deductions[1].Version)

	w = ts.do(t, http.MethodPost, "/v1/company/settings", gin.H{
		"items": []gin.H{{"name": "tax", "pct": 120}},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = ts.do(t, http.MethodPost, "/v1/company/hot-areas", gin.H{
		"location_id":  ts.places["Astoria"],
		"is_hot_area":  true,
		"discount_pct": 8,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.True(t, strings.Contains(w.Body.String(), `"effective_commission_pct":"12.00"`), w.Body.String())
}

func TestRouter_SimulateAndAvailability(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodPost, fmt.Sprintf("/v1/drivers/%d/availability", ts.other.ID), gin.H{"online": false})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.True(t, strings.Contains(w.Body.String(), `"is_online":false`))

	w = ts.do(t, http.MethodPost, fmt.Sprintf("/v1/drivers/%d/availability", ts.other.ID), gin.H{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = ts.do(t, http.MethodPost, "/v1/admin/simulate", gin.H{"n": 3})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var result struct {
		Requested int  `json:"requested"`
		Succeeded int  `json:"succeeded"`
		Failed    int  `json:"failed"`
		Aborted   bool `json:"aborted"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.Equal(t, 3, result.Requested)
	assert.Equal(t, 3, result.Succeeded+result.Failed)
	assert.False(t, result.Aborted)

	w = ts.do(t, http.MethodPost, "/v1/admin/simulate", gin.H{"n": 0})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.Equal(t, 1, result.Requested)
}
