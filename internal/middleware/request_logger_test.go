package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLoggedRouter(status int) (*gin.Engine, *test.Hook) {
	gin.SetMode(gin.TestMode)
	log, hook := test.NewNullLogger()

	r := gin.New()
	r.Use(RequestLogger(log))
	r.GET("/v1/rides/:id", func(c *gin.Context) {
		c.Status(status)
	})
	return r, hook
}

func TestRequestLogger_GeneratesRequestID(t *testing.T) {
	r, hook := newLoggedRouter(http.StatusOK)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/rides/7", nil))

	id := w.Header().Get(requestIDHeader)
	assert.NotEmpty(t, id)

	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, logrus.InfoLevel, entry.Level)
	assert.Equal(t, id, entry.Data["request_id"])
	assert.Equal(t, "/v1/rides/:id", entry.Data["route"])
	assert.Equal(t, http.StatusOK, entry.Data["status"])
}

func TestRequestLogger_KeepsCallerRequestID(t *testing.T) {
	r, hook := newLoggedRouter(http.StatusConflict)

	req := httptest.NewRequest(http.MethodGet, "/v1/rides/7", nil)
	req.Header.Set(requestIDHeader, "abc-123")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, "abc-123", w.Header().Get(requestIDHeader))
	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, logrus.WarnLevel, entry.Level)
	assert.Equal(t, "abc-123", entry.Data["request_id"])
}
