package http

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	transportHTTP = "http"
	transportWS   = "websocket"
	transportForm = "form"
)

// Metrics owns a private registry so parallel tests and multiple servers in
// one process do not collide on the default one.
type Metrics struct {
	registry    *prometheus.Registry
	predictions *prometheus.CounterVec
}

func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	predictions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "protpred",
		Name:      "predictions_total",
		Help:      "Predictions served, by transport and result.",
	}, []string{"transport", "result"})
	registry.MustRegister(predictions)
	return &Metrics{registry: registry, predictions: predictions}
}

func (m *Metrics) Observe(transport, result string) {
	m.predictions.WithLabelValues(transport, result).Inc()
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
