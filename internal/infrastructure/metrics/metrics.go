// Package metrics registra los contadores Prometheus de la API.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crm_http_requests_total",
			Help: "Total de peticiones HTTP",
		},
		[]string{"method", "route", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "crm_http_request_duration_seconds",
			Help:    "Duración de las peticiones HTTP en segundos",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	leadsIngested = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crm_webhook_leads_total",
			Help: "Leads recibidos por el webhook entrante",
		},
		[]string{"result"},
	)

	eventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crm_events_published_total",
			Help: "Sobres de eventos publicados hacia los webhooks salientes",
		},
		[]string{"event", "result"},
	)

	webhookDeliveries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crm_webhook_deliveries_total",
			Help: "Entregas HTTP a webhooks salientes",
		},
		[]string{"result"},
	)

	sseSubscribers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "crm_realtime_subscribers",
			Help: "Suscriptores SSE conectados",
		},
	)
)

// ObserveHTTP registra una petición terminada. route es el patrón, no la URL concreta.
func ObserveHTTP(method, route, status string, d time.Duration) {
	httpRequestsTotal.WithLabelValues(method, route, status).Inc()
	httpRequestDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

// RecordLeadIngested result: ok, invalid, error.
func RecordLeadIngested(result string) {
	leadsIngested.WithLabelValues(result).Inc()
}

// RecordEventPublished result: ok, error.
func RecordEventPublished(event, result string) {
	eventsPublished.WithLabelValues(event, result).Inc()
}

// RecordDelivery result: ok, error.
func RecordDelivery(result string) {
	webhookDeliveries.WithLabelValues(result).Inc()
}

// SubscriberConnected / SubscriberDisconnected mantienen el gauge de SSE.
func SubscriberConnected()    { sseSubscribers.Inc() }
func SubscriberDisconnected() { sseSubscribers.Dec() }

// Handler expone /metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}
