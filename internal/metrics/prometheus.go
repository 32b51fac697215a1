package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"SignalFusion/internal/model"
)

// Recorder records signal generation metrics on its own registry.
type Recorder struct {
	registry      *prometheus.Registry
	signals       *prometheus.CounterVec
	sentiment     *prometheus.CounterVec
	failures      *prometheus.CounterVec
	probability   *prometheus.GaugeVec
	latency       *prometheus.HistogramVec
	notifications *prometheus.CounterVec
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	factory := promauto.With(reg)

	return &Recorder{
		registry: reg,
		signals: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "signalfusion_signals_total",
				Help: "Total number of signals generated",
			},
			[]string{"symbol", "bias", "label"},
		),
		sentiment: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "signalfusion_sentiment_total",
				Help: "Sentiment classifications by provenance",
			},
			[]string{"symbol", "model_used"},
		),
		failures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "signalfusion_failures_total",
				Help: "Failed or degraded generation steps",
			},
			[]string{"symbol", "kind"},
		),
		probability: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "signalfusion_probability_percentage",
				Help: "Last probability percentage per symbol",
			},
			[]string{"symbol"},
		),
		latency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "signalfusion_generate_duration_seconds",
				Help:    "Duration of signal generation in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"symbol"},
		),
		notifications: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "signalfusion_notifications_total",
				Help: "Signal deliveries by sink and result",
			},
			[]string{"sink", "result"},
		),
	}
}

// Registry exposes the underlying registry for tests.
func (r *Recorder) Registry() *prometheus.Registry { return r.registry }

// Handler serves the registry in the Prometheus text format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

// ObserveSignal records a generated signal and how long it took.
func (r *Recorder) ObserveSignal(sig *model.Signal, d time.Duration) {
	r.signals.WithLabelValues(sig.Symbol, string(sig.Bias), sig.ProbabilityLabel).Inc()
	r.sentiment.WithLabelValues(sig.Symbol, sig.ModelUsed).Inc()
	r.probability.WithLabelValues(sig.Symbol).Set(sig.ProbabilityPercentage)
	r.latency.WithLabelValues(sig.Symbol).Observe(d.Seconds())
}

// ObserveFailure records a failed or degraded step such as data_unavailable
// or sentiment_unavailable.
func (r *Recorder) ObserveFailure(symbol, kind string) {
	r.failures.WithLabelValues(symbol, kind).Inc()
}

// ObserveDelivery records a notifier or recorder outcome.
func (r *Recorder) ObserveDelivery(sink string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	r.notifications.WithLabelValues(sink, result).Inc()
}
