package observability

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	wsActive = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "bubbles_ws_active_connections",
		Help: "Active websocket subscription connections by stream.",
	}, []string{"stream"})

	eventsPublished = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bubbles_events_published_total",
		Help: "Events published to the broadcaster by topic.",
	}, []string{"topic"})

	eventsDelivered = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bubbles_events_delivered_total",
		Help: "Events delivered to subscribers after filtering, by topic.",
	}, []string{"topic"})

	eventsDropped = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bubbles_events_dropped_total",
		Help: "Events not delivered to a subscriber, by topic and reason.",
	}, []string{"topic", "reason"})
)

func IncWSActive(stream string) { wsActive.WithLabelValues(stream).Inc() }
func DecWSActive(stream string) { wsActive.WithLabelValues(stream).Dec() }

func IncEventPublished(topic string) { eventsPublished.WithLabelValues(topic).Inc() }
func IncEventDelivered(topic string) { eventsDelivered.WithLabelValues(topic).Inc() }

func IncEventDropped(topic, reason string) {
	eventsDropped.WithLabelValues(topic, reason).Inc()
}

// MetricsHandler exposes the prometheus registry for GET /metrics.
func MetricsHandler() gin.HandlerFunc {
	return gin.WrapH(promhttp.Handler())
}
