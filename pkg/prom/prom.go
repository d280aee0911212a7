package prom

import (
	"time"

	xhttp "github.com/nimasrn/smartcart/pkg/http"
	"github.com/nimasrn/smartcart/pkg/logger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"
)

const (
	SystemCashier  = "cashier"
	SystemPurchase = "purchase"
	SystemFeed     = "feed"
)

const (
	MetricCashIntentCreated     = "cash_intent_created_total"
	MetricCodeVerifications     = "cashier_code_verifications_total"
	MetricPurchasesRecorded     = "purchases_recorded_total"
	MetricFeedRelayDuration     = "feed_relay_duration_seconds"
	DefaultMetricsURL           = "/metrics"
	VerificationResultSuccess   = "success"
	VerificationResultInvalid   = "invalid"
	VerificationResultExpired   = "expired"
	VerificationResultStoreFail = "error"
)

// Metrics owns its registry so several instances can live in one test binary.
// Every method is safe on a nil *Metrics, which disables collection.
type Metrics struct {
	registry          *prometheus.Registry
	cashIntentCreated prometheus.Counter
	verifications     *prometheus.CounterVec
	purchases         *prometheus.CounterVec
	relayDuration     *prometheus.HistogramVec
}

func Create(host string, env string, namespace string) (*Metrics, error) {
	labels := prometheus.Labels{"env": env, "instance": host}

	m := &Metrics{
		registry: prometheus.NewRegistry(),
		cashIntentCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   namespace,
			Subsystem:   SystemCashier,
			Name:        MetricCashIntentCreated,
			Help:        "Cashier codes issued for cash checkouts.",
			ConstLabels: labels,
		}),
		verifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   namespace,
			Subsystem:   SystemCashier,
			Name:        MetricCodeVerifications,
			Help:        "Cashier code verifications by result.",
			ConstLabels: labels,
		}, []string{"result"}),
		purchases: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   namespace,
			Subsystem:   SystemPurchase,
			Name:        MetricPurchasesRecorded,
			Help:        "Purchases written to the ledger by payment method.",
			ConstLabels: labels,
		}, []string{"payment_method"}),
		relayDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   namespace,
			Subsystem:   SystemFeed,
			Name:        MetricFeedRelayDuration,
			Help:        "Time spent relaying one feed event to the terminal.",
			ConstLabels: labels,
			Buckets:     prometheus.DefBuckets,
		}, []string{"event"}),
	}

	for _, c := range []prometheus.Collector{m.cashIntentCreated, m.verifications, m.purchases, m.relayDuration} {
		if err := m.registry.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Metrics) IncCashIntentCreated() {
	if m == nil {
		return
	}
	m.cashIntentCreated.Inc()
}

func (m *Metrics) IncVerification(result string) {
	if m == nil {
		return
	}
	m.verifications.WithLabelValues(result).Inc()
}

func (m *Metrics) IncPurchase(paymentMethod string) {
	if m == nil {
		return
	}
	m.purchases.WithLabelValues(paymentMethod).Inc()
}

func (m *Metrics) ObserveRelay(event string, d time.Duration) {
	if m == nil {
		return
	}
	m.relayDuration.WithLabelValues(event).Observe(d.Seconds())
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) Handler() xhttp.RequestHandler {
	return fasthttpadaptor.NewFastHTTPHandler(promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))
}

// ListenAndServe blocks serving the metrics endpoint on addr.
func (m *Metrics) ListenAndServe(addr string, url string) error {
	s := xhttp.NewServer(xhttp.DefaultServerOption)
	s.GET(url, m.Handler())
	logger.Info("[metrics-server] listening...", "addr", addr, "url", url)
	return s.ListenAndServe(addr)
}
