package http

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"protpred/endpoint"
	"protpred/ml"
	"protpred/predictor"
)

// API holds what the handlers need. It is built once in serve and never
// mutated afterwards.
type API struct {
	predictor endpoint.Predictor
	model     ml.ModelInfo
	metrics   *Metrics
	logger    *zap.Logger
}

func NewAPI(p endpoint.Predictor, info ml.ModelInfo, logger *zap.Logger) *API {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &API{
		predictor: p,
		model:     info,
		metrics:   NewMetrics(),
		logger:    logger,
	}
}

func (a *API) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/health", a.handleHealth)
	mux.HandleFunc("GET /api/model", a.handleModel)
	mux.HandleFunc("POST /api/predict", a.handlePredict)
	mux.HandleFunc("GET /api/ws/predict", a.handleWebSocket)
	mux.HandleFunc("GET /{$}", a.handleForm)
	mux.HandleFunc("POST /{$}", a.handleForm)
	mux.Handle("GET /metrics", a.metrics.Handler())
}

func (a *API) handleHealth(w http.ResponseWriter, r *http.Request) {
	a.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (a *API) handleModel(w http.ResponseWriter, r *http.Request) {
	a.respondJSON(w, http.StatusOK, a.model)
}

// handlePredict answers 200 with {result}, 500 with {error, trace} and 400
// when the body is not a JSON request.
func (a *API) handlePredict(w http.ResponseWriter, r *http.Request) {
	var req endpoint.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.respondJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body: " + err.Error()})
		return
	}

	resp := a.invoke(transportHTTP, req)
	status := http.StatusOK
	if resp.Error != "" {
		status = http.StatusInternalServerError
	}
	a.respondJSON(w, status, resp)
}

func (a *API) invoke(transport string, req endpoint.Request) endpoint.Response {
	resp := endpoint.Invoke(a.predictor, req)
	a.metrics.Observe(transport, outcome(resp))
	if resp.Error != "" {
		a.logger.Error("prediction crashed",
			zap.String("transport", transport),
			zap.String("error", resp.Error),
			zap.String("trace", resp.Trace))
	}
	return resp
}

func outcome(resp endpoint.Response) string {
	switch res := resp.Result.(type) {
	case predictor.Prediction:
		return res.Label
	case predictor.Failure:
		return "failure"
	}
	return "error"
}

func (a *API) respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		a.logger.Error("failed to encode response", zap.Error(err))
	}
}
