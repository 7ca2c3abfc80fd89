package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"battery-savings/internal/api/models"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/api/v1/analyze", NewAnalyzeHandler(nil).Analyze)
	return r
}

func postAnalyze(t *testing.T, router *gin.Engine, body any) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/analyze", bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) models.ErrorResponse {
	t.Helper()
	var resp models.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func sampleReadings() map[string]map[string]float64 {
	return map[string]map[string]float64{
		"2024-05-01T00:00:00Z": {"Wh": 1000, "importPrice": 1.0, "exportPrice": 0.1},
		"2024-05-01T00:01:00Z": {"Wh": -500, "importPrice": 5.0, "exportPrice": 0.1},
	}
}

func TestAnalyzeOK(t *testing.T) {
	router := setupRouter()
	w := postAnalyze(t, router, gin.H{
		"readings": sampleReadings(),
		"config":   gin.H{"capacity_wh": 1000},
	})
	require.Equal(t, http.StatusOK, w.Code)

	var resp models.AnalyzeResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.ID)
	assert.Equal(t, "completed", resp.Status)
	assert.Equal(t, 1, resp.Summary.Windows)
	assert.Greater(t, resp.Summary.BatteryUsed.EnergyKWh, 0.0)
	assert.Greater(t, resp.Summary.NetSavings, 0.0)
	assert.Empty(t, resp.Trace)
}

func TestAnalyzeIncludeTrace(t *testing.T) {
	router := setupRouter()
	w := postAnalyze(t, router, gin.H{
		"readings": sampleReadings(),
		"config":   gin.H{"capacity_wh": 1000},
		"options":  gin.H{"include_trace": true},
	})
	require.Equal(t, http.StatusOK, w.Code)

	var resp models.AnalyzeResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Trace, 2)
	assert.Equal(t, 1000.0, resp.Trace[0].NetEnergyWh)
	assert.NotEmpty(t, resp.Trace[0].Occupancy)
}

func TestAnalyzeMissingReadings(t *testing.T) {
	router := setupRouter()
	w := postAnalyze(t, router, gin.H{"config": gin.H{}})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_REQUEST", decodeError(t, w).Error.Code)
}

func TestAnalyzeInvalidReadings(t *testing.T) {
	router := setupRouter()
	w := postAnalyze(t, router, gin.H{
		"readings": map[string]map[string]float64{
			"2024-05-01T00:00:00Z": {"Wh": 1000, "importPrice": 1.0}, // no exportPrice
		},
	})
	require.Equal(t, http.StatusBadRequest, w.Code)
	resp := decodeError(t, w)
	assert.Equal(t, "INVALID_READINGS", resp.Error.Code)
	assert.Contains(t, resp.Error.Message, "exportPrice")
}

func TestAnalyzeInvalidConfig(t *testing.T) {
	router := setupRouter()
	w := postAnalyze(t, router, gin.H{
		"readings": sampleReadings(),
		"config":   gin.H{"depth_of_discharge_pct": 150},
	})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_CONFIG", decodeError(t, w).Error.Code)
}

func TestAnalyzeInvalidStartTime(t *testing.T) {
	router := setupRouter()
	w := postAnalyze(t, router, gin.H{
		"readings": sampleReadings(),
		"config":   gin.H{"start_time": "last tuesday"},
	})
	require.Equal(t, http.StatusBadRequest, w.Code)
	resp := decodeError(t, w)
	assert.Equal(t, "INVALID_CONFIG", resp.Error.Code)
	assert.Contains(t, resp.Error.Message, "start_time")
}

func TestAnalyzeEmptyRange(t *testing.T) {
	router := setupRouter()
	w := postAnalyze(t, router, gin.H{
		"readings": sampleReadings(),
		"config": gin.H{
			"start_time": "2030-01-01T00:00:00Z",
			"end_time":   "2030-01-02T00:00:00Z",
		},
	})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "EMPTY_RANGE", decodeError(t, w).Error.Code)
}
