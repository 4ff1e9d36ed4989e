package metrics

import (
	"errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"net/http"
)

var (
	ErrorsCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bot_errors_total",
			Help: "Total number of occurred errors.",
		},
		[]string{"type"},
	)
	LeadsCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bot_leads_total",
			Help: "Total number of persisted leads.",
		},
		[]string{"role", "subject"},
	)
	MaterialsDeliveredCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bot_materials_delivered_total",
			Help: "Total number of delivered material files.",
		},
		[]string{"subject"},
	)
	SubscriptionRejectionsCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bot_subscription_rejections_total",
			Help: "Total number of material requests rejected by the subscription check.",
		},
		[]string{"subject"},
	)
	EventHandleDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "bot_event_handle_duration_seconds",
			Help:    "Duration of handling one inbound event.",
			Buckets: []float64{0.05, 0.1, 0.5, 1, 2, 5, 10},
		},
		[]string{"kind"},
	)
)

func StartMetricsServer(address string) {

	prometheus.MustRegister(ErrorsCounter)
	prometheus.MustRegister(LeadsCounter)
	prometheus.MustRegister(MaterialsDeliveredCounter)
	prometheus.MustRegister(SubscriptionRejectionsCounter)
	prometheus.MustRegister(EventHandleDuration)

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	go func() {
		if err := http.ListenAndServe(address, mux); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal(err)
		}
	}()
}
