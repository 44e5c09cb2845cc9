package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// APIMetrics records the operational counters the dashboards care about.
// Every method is nil-safe so tests and tools can run without a registry.
type APIMetrics struct {
	ordersCreated   *prometheus.CounterVec
	ordersPaid      *prometheus.CounterVec
	paymentRequests *prometheus.CounterVec
	scans           *prometheus.CounterVec
	mailsSent       *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
}

// NewAPIMetrics registers the API metrics on the provided registerer.
func NewAPIMetrics(reg prometheus.Registerer) *APIMetrics {
	if reg == nil {
		return &APIMetrics{}
	}
	ordersCreated := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "orders_created_total",
		Help: "Ticket orders created, by event.",
	}, []string{"event"})
	ordersPaid := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "orders_paid_total",
		Help: "Ticket orders marked paid, by event.",
	}, []string{"event"})
	paymentRequests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "payment_requests_sent_total",
		Help: "Payment reminder mails sent, by event.",
	}, []string{"event"})
	scans := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ticket_scans_total",
		Help: "Ticket scans at the door, by outcome.",
	}, []string{"status"})
	mailsSent := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "mails_sent_total",
		Help: "Outbound mails, by kind.",
	}, []string{"kind"})
	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of handled HTTP requests.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route", "method"})
	reg.MustRegister(ordersCreated, ordersPaid, paymentRequests, scans, mailsSent, requestDuration)
	return &APIMetrics{
		ordersCreated:   ordersCreated,
		ordersPaid:      ordersPaid,
		paymentRequests: paymentRequests,
		scans:           scans,
		mailsSent:       mailsSent,
		requestDuration: requestDuration,
	}
}

// IncOrderCreated increments the created counter for the event.
func (m *APIMetrics) IncOrderCreated(eventID string) {
	if m == nil || m.ordersCreated == nil {
		return
	}
	m.ordersCreated.WithLabelValues(normalizeLabel(eventID)).Inc()
}

// IncOrderPaid increments the paid counter for the event.
func (m *APIMetrics) IncOrderPaid(eventID string) {
	if m == nil || m.ordersPaid == nil {
		return
	}
	m.ordersPaid.WithLabelValues(normalizeLabel(eventID)).Inc()
}

// IncPaymentRequestSent increments the reminder counter for the event.
func (m *APIMetrics) IncPaymentRequestSent(eventID string) {
	if m == nil || m.paymentRequests == nil {
		return
	}
	m.paymentRequests.WithLabelValues(normalizeLabel(eventID)).Inc()
}

// IncScan increments the scan counter for the given outcome.
func (m *APIMetrics) IncScan(status string) {
	if m == nil || m.scans == nil {
		return
	}
	m.scans.WithLabelValues(normalizeLabel(status)).Inc()
}

// IncMailSent increments the outbound mail counter for the given kind.
func (m *APIMetrics) IncMailSent(kind string) {
	if m == nil || m.mailsSent == nil {
		return
	}
	m.mailsSent.WithLabelValues(normalizeLabel(kind)).Inc()
}

// ObserveRequest records the duration of a handled request.
func (m *APIMetrics) ObserveRequest(route, method string, duration time.Duration) {
	if m == nil || m.requestDuration == nil {
		return
	}
	m.requestDuration.WithLabelValues(normalizeLabel(route), normalizeLabel(method)).Observe(duration.Seconds())
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
