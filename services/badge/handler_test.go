package badge

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/CleanExpo/LocalLift-sub000/pkg/middleware"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

func newRouter(f *fixture) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(middleware.Error())
	RegisterRoutes(r, NewHandler(f.svc))
	return r
}

func TestHandlerStatus(t *testing.T) {
	f := newFixture(t)
	f.client(t, "c1")
	f.posts(t, "c1", "2025-W15", 5, 1)
	r := newRouter(f)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/badges/c1/status", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Equal(t, true, body["badge"])
	require.Equal(t, float64(5), body["compliant"])
	require.Equal(t, float64(6), body["total"])
	require.Equal(t, "2025-W15", body["week_id"])

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/badges/ghost/status", nil))
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestHandlerHistoryLimit(t *testing.T) {
	f := newFixture(t)
	f.record(t, "c2", "2025-W14", true)
	f.record(t, "c2", "2025-W15", false)
	r := newRouter(f)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/badges/c2/history?limit=1", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		ClientID string         `json:"client_id"`
		History  []HistoryEntry `json:"history"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Equal(t, "c2", body.ClientID)
	require.Len(t, body.History, 1)
	require.Equal(t, "2025-W15", body.History[0].WeekID)

	for _, bad := range []string{"0", "521", "ten"} {
		w = httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/badges/c2/history?limit="+bad, nil))
		require.Equal(t, http.StatusBadRequest, w.Code, bad)
	}
}

func TestHandlerStatistics(t *testing.T) {
	f := newFixture(t)
	f.record(t, "c3", "2025-W14", true)
	f.record(t, "c3", "2025-W15", true)
	r := newRouter(f)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/badges/c3/statistics", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var stats Statistics
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &stats))
	require.Equal(t, 2, stats.CurrentStreak)
	require.Equal(t, 100.0, stats.ComplianceRate)
}
