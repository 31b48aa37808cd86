package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ridefare/internal/tests"
)

// countingRouter mounts two POST routes behind Idempotency. Each call bumps
// calls and answers with status.
func countingRouter(client *redis.Client, status *int, calls *int) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Idempotency(client))
	handle := func(c *gin.Context) {
		*calls++
		c.JSON(*status, gin.H{"n": *calls})
	}
	r.POST("/v1/rides", handle)
	r.POST("/v1/rides/:id/accept", handle)
	return r
}

func post(r http.Handler, path, key string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, nil)
	if key != "" {
		req.Header.Set(idempotencyHeader, key)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestIdempotency_NilClientPassesThrough(t *testing.T) {
	status, calls := http.StatusCreated, 0
	r := countingRouter(nil, &status, &calls)

	for i := 0; i < 2; i++ {
		w := post(r, "/v1/rides", "same-key")
		assert.Equal(t, http.StatusCreated, w.Code)
		assert.Empty(t, w.Header().Get(replayedHeader))
	}
	assert.Equal(t, 2, calls)
}

func TestIdempotency_ReplaysStoredResponse(t *testing.T) {
	client, fake := tests.NewFakeRedis()
	status, calls := http.StatusCreated, 0
	r := countingRouter(client, &status, &calls)

	first := post(r, "/v1/rides", "booking-1")
	assert.Equal(t, http.StatusCreated, first.Code)
	assert.Empty(t, first.Header().Get(replayedHeader))
	require.Len(t, fake.Keys("idempotency:"), 1)
	assert.Equal(t, idempotencyTTL, fake.TTL("idempotency:/v1/rides:booking-1"))

	second := post(r, "/v1/rides", "booking-1")
	assert.Equal(t, http.StatusCreated, second.Code)
	assert.Equal(t, "true", second.Header().Get(replayedHeader))
	assert.Equal(t, first.Body.String(), second.Body.String())
	assert.Equal(t, first.Header().Get("Content-Type"), second.Header().Get("Content-Type"))
	assert.Equal(t, 1, calls)
}

func TestIdempotency_ClientErrorsAreReplayed(t *testing.T) {
	client, _ := tests.NewFakeRedis()
	status, calls := http.StatusConflict, 0
	r := countingRouter(client, &status, &calls)

	post(r, "/v1/rides/1/accept", "accept-1")
	status = http.StatusOK
	w := post(r, "/v1/rides/1/accept", "accept-1")

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, 1, calls)
}

func TestIdempotency_ServerErrorsAreNotStored(t *testing.T) {
	client, fake := tests.NewFakeRedis()
	status, calls := http.StatusServiceUnavailable, 0
	r := countingRouter(client, &status, &calls)

	w := post(r, "/v1/rides", "booking-1")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Empty(t, fake.Keys("idempotency:"))

	status = http.StatusCreated
	w = post(r, "/v1/rides", "booking-1")
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Empty(t, w.Header().Get(replayedHeader))
	assert.Equal(t, 2, calls)
}

func TestIdempotency_KeyIsScopedToRoute(t *testing.T) {
	client, _ := tests.NewFakeRedis()
	status, calls := http.StatusCreated, 0
	r := countingRouter(client, &status, &calls)

	post(r, "/v1/rides", "shared-key")
	w := post(r, "/v1/rides/1/accept", "shared-key")

	assert.Empty(t, w.Header().Get(replayedHeader))
	assert.Equal(t, 2, calls)
}

func TestIdempotency_WithoutKeyAlwaysRuns(t *testing.T) {
	client, fake := tests.NewFakeRedis()
	status, calls := http.StatusCreated, 0
	r := countingRouter(client, &status, &calls)

	post(r, "/v1/rides", "")
	post(r, "/v1/rides", "")

	assert.Equal(t, 2, calls)
	assert.Zero(t, fake.Commands["get"])
}

func TestIdempotency_RedisDownPassesThrough(t *testing.T) {
	client, fake := tests.NewFakeRedis()
	fake.Err = errors.New("connection refused")
	status, calls := http.StatusCreated, 0
	r := countingRouter(client, &status, &calls)

	for i := 0; i < 2; i++ {
		w := post(r, "/v1/rides", "booking-1")
		assert.Equal(t, http.StatusCreated, w.Code)
		assert.Empty(t, w.Header().Get(replayedHeader))
	}
	assert.Equal(t, 2, calls)
}
