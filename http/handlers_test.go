package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"protpred/ml"
	"protpred/predictor"
)

type fixedModel struct {
	prob float64
}

func (f fixedModel) PredictProba(features []float64) (float64, error) {
	return f.prob, nil
}

type panickingPredictor struct{}

func (panickingPredictor) Predict(seq, mode string) predictor.Result {
	panic("boom")
}

func newTestAPI(t *testing.T, prob float64) *API {
	t.Helper()
	svc, err := predictor.New(fixedModel{prob: prob}, predictor.Options{NTermWindow: ml.InferenceNTermWindow})
	require.NoError(t, err)
	info := ml.ModelInfo{
		Type:         ml.ModelTypeLogisticRegression,
		FeatureNames: ml.FeatureNames(),
		Coefficients: []float64{1, 2, 3},
		NTermWindow:  ml.TrainingNTermWindow,
	}
	return NewAPI(svc, info, nil)
}

func newTestHandler(api *API) http.Handler {
	return NewHandler(DefaultServerConfig(), api, nil)
}

func decode(t *testing.T, rr *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var payload map[string]interface{}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &payload))
	return payload
}

func TestHealthHandler(t *testing.T) {
	rr := httptest.NewRecorder()
	newTestHandler(newTestAPI(t, 0.9)).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/health", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rr.Body.String())
	assert.NotEmpty(t, rr.Header().Get("X-Request-ID"))
	assert.Equal(t, "nosniff", rr.Header().Get("X-Content-Type-Options"))
}

func TestModelHandler(t *testing.T) {
	rr := httptest.NewRecorder()
	newTestHandler(newTestAPI(t, 0.9)).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/model", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	payload := decode(t, rr)
	assert.Equal(t, "logistic_regression", payload["model_type"])
	assert.Equal(t, float64(ml.TrainingNTermWindow), payload["nterm_window"])
	assert.Len(t, payload["coefficients"], 3)
}

func TestFormHandler_Get(t *testing.T) {
	rr := httptest.NewRecorder()
	newTestHandler(newTestAPI(t, 0.9)).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	body := rr.Body.String()
	assert.Contains(t, body, "MKKLLLLLLLLLALALALAAAGAGA")
	assert.Contains(t, body, `<option value="auto" selected>`)
	assert.Contains(t, body, `<option value="rule">`)
	assert.NotContains(t, body, "<h2>Result</h2>")
}

func TestFormHandler_Post(t *testing.T) {
	form := url.Values{"sequence": {"MKKLLLLLLLLLALALALAAAGAGA"}, "mode": {"rule"}}
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rr := httptest.NewRecorder()
	newTestHandler(newTestAPI(t, 0.9)).ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	body := rr.Body.String()
	assert.Contains(t, body, "<h2>Result</h2>")
	assert.Contains(t, body, "membrane-bound")
	assert.Contains(t, body, "rule-based")
	assert.Contains(t, body, `<option value="rule" selected>`)
}

func TestFormHandler_UnknownPath(t *testing.T) {
	rr := httptest.NewRecorder()
	newTestHandler(newTestAPI(t, 0.9)).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/nope", nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestMetricsHandler(t *testing.T) {
	api := newTestAPI(t, 0.9)
	h := newTestHandler(api)

	body := `{"sequence":"MKKLLLLLLLLLALALALAAAGAGA"}`
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/predict", strings.NewReader(body)))
	require.Equal(t, http.StatusOK, rr.Code)

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `protpred_predictions_total{result="membrane-bound",transport="http"} 1`)
}

func TestCORSPreflight(t *testing.T) {
	req := httptest.NewRequest(http.MethodOptions, "/api/predict", nil)
	req.Header.Set("Origin", "http://example.com")
	rr := httptest.NewRecorder()
	newTestHandler(newTestAPI(t, 0.9)).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "http://example.com", rr.Header().Get("Access-Control-Allow-Origin"))
}
