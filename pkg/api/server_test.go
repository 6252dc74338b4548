package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/peter-kozarec/rewind/pkg/common"
	"github.com/peter-kozarec/rewind/pkg/simulation"
	"github.com/peter-kozarec/rewind/pkg/utility/fixed"
)

func sampleResult() *simulation.Result {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	return &simulation.Result{
		RunID: uuid.Must(uuid.NewV7()),
		Records: []common.OrderResult{
			{
				EventTime:      base.Add(time.Minute),
				OrderID:        "0000-0001",
				Side:           common.SideBuy,
				CreateTime:     base,
				Status:         common.OrderStatusFilled,
				OpenPrice:      fixed.Hundred,
				FillPrice:      fixed.Hundred,
				Size:           fixed.Ten,
				Volume:         fixed.FromInt(1000, 0),
				Fee:            fixed.MustParse("0.1"),
				TotalProfit:    fixed.MustParse("-0.1"),
				PositionChange: fixed.Ten,
				Tag:            "Open Long",
			},
		},
	}
}

func newTestServer(t *testing.T) (*Server, *simulation.Result) {
	t.Helper()
	runs := NewRuns()
	result := sampleResult()
	runs.Put(result)

	registry := prometheus.NewRegistry()
	counter := prometheus.NewCounter(prometheus.CounterOpts{Name: "rewind_test_total", Help: "test"})
	registry.MustRegister(counter)
	counter.Inc()

	return NewServer(zap.NewNop(), runs, registry), result
}

func get(t *testing.T, s *Server, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestServer_Results(t *testing.T) {
	s, result := newTestServer(t)

	rec := get(t, s, "/api/v1/runs/"+result.RunID.String()+"/results")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var records []common.OrderResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &records))
	require.Len(t, records, 1)
	assert.Equal(t, "0000-0001", records[0].OrderID)
	assert.True(t, records[0].PositionChange.Eq(fixed.Ten))
}

func TestServer_Summary(t *testing.T) {
	s, result := newTestServer(t)

	rec := get(t, s, "/api/v1/runs/"+result.RunID.String()+"/summary")
	require.Equal(t, http.StatusOK, rec.Code)

	var summary simulation.Summary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &summary))
	assert.Equal(t, 1, summary.Filled)
	assert.True(t, summary.NetPosition.Eq(fixed.Ten))
	assert.True(t, summary.TotalProfit.Eq(fixed.MustParse("-0.1")))
}

func TestServer_Errors(t *testing.T) {
	s, _ := newTestServer(t)

	assert.Equal(t, http.StatusBadRequest, get(t, s, "/api/v1/runs/not-a-uuid/results").Code)
	assert.Equal(t, http.StatusNotFound, get(t, s, "/api/v1/runs/"+uuid.Must(uuid.NewV7()).String()+"/results").Code)

	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/health", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestServer_HealthAndMetrics(t *testing.T) {
	s, _ := newTestServer(t)

	assert.Equal(t, http.StatusOK, get(t, s, "/health").Code)

	rec := get(t, s, "/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "rewind_test_total 1"))
}
