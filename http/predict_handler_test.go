package http

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"protpred/ml"
)

func postPredict(t *testing.T, api *API, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/predict", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	newTestHandler(api).ServeHTTP(rr, req)
	return rr
}

func TestHandlePredict(t *testing.T) {
	tests := []struct {
		name      string
		prob      float64
		body      string
		wantLabel string
		wantMode  string
		wantConf  float64
	}{
		{
			name:      "auto by default",
			prob:      0.8765,
			body:      `{"sequence":"MKKLLLLLLLLLALALALAAAGAGA"}`,
			wantLabel: "membrane-bound",
			wantMode:  "auto",
			wantConf:  0.877,
		},
		{
			name:      "explicit ml",
			prob:      0.2,
			body:      `{"sequence":"MKKLLLLLLLLLALALALAAAGAGA","mode":"ml"}`,
			wantLabel: "soluble",
			wantMode:  "ml",
			wantConf:  0.2,
		},
		{
			name:      "rule",
			prob:      0.2,
			body:      `{"sequence":"MKKLLLLLLLLLALALALAAAGAGA","mode":"rule"}`,
			wantLabel: "membrane-bound",
			wantMode:  "rule-based",
			wantConf:  0.84,
		},
		{
			name:      "unknown mode falls back to auto",
			prob:      0.6,
			body:      `{"sequence":"MKKL","mode":"fancy"}`,
			wantLabel: "membrane-bound",
			wantMode:  "auto",
			wantConf:  0.6,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := postPredict(t, newTestAPI(t, tt.prob), tt.body)
			require.Equal(t, http.StatusOK, rr.Code)

			result := decode(t, rr)["result"].(map[string]interface{})
			assert.Equal(t, tt.wantLabel, result["prediction"])
			assert.Equal(t, tt.wantMode, result["mode"])
			assert.InDelta(t, tt.wantConf, result["confidence"], 1e-9)
		})
	}
}

func TestHandlePredict_Features(t *testing.T) {
	rr := postPredict(t, newTestAPI(t, 0.9), `{"sequence":"MKKLLLLLLLLLALALALAAAGAGA","mode":"ml"}`)
	require.Equal(t, http.StatusOK, rr.Code)

	features := decode(t, rr)["result"].(map[string]interface{})["features"].(map[string]interface{})
	assert.Equal(t, float64(25), features["length"])
	assert.InDelta(t, 0.84, features["hydrophobic_fraction"], 1e-9)
	assert.InDelta(t, 0.9, features["nterm_hydrophobic_fraction"], 1e-9)
}

func TestHandlePredict_EmptySequence(t *testing.T) {
	rr := postPredict(t, newTestAPI(t, 0.9), `{"sequence":"  \n "}`)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"result":{"error":"Empty sequence."}}`, rr.Body.String())
}

func TestHandlePredict_BadJSON(t *testing.T) {
	rr := postPredict(t, newTestAPI(t, 0.9), `{"sequence":`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, decode(t, rr)["error"], "invalid request body")
}

func TestHandlePredict_Crash(t *testing.T) {
	api := NewAPI(panickingPredictor{}, ml.ModelInfo{}, nil)
	rr := postPredict(t, api, `{"sequence":"MKKL"}`)

	require.Equal(t, http.StatusInternalServerError, rr.Code)
	payload := decode(t, rr)
	assert.Equal(t, "boom", payload["error"])
	assert.Contains(t, payload["trace"], "goroutine")
	assert.NotContains(t, payload, "result")
}

func TestHandlePredict_MethodNotAllowed(t *testing.T) {
	rr := httptest.NewRecorder()
	newTestHandler(newTestAPI(t, 0.9)).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/predict", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
}
