// Package metrics defines the Prometheus collectors for domain operations.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "safeline"

// Outcome labels.
const (
	OutcomeOK    = "ok"
	OutcomeRetry = "retry"
	OutcomeFail  = "failed"
	OutcomeSkip  = "skipped"
)

// Metrics holds every collector. Create one per registry with New.
type Metrics struct {
	OperationsTotal   *prometheus.CounterVec
	OperationDuration *prometheus.HistogramVec
	PolicyDenials     *prometheus.CounterVec
	Notifications     *prometheus.CounterVec
	Deliveries        *prometheus.CounterVec
}

// New registers the collectors with reg. Tests pass a fresh
// prometheus.NewRegistry so runs do not share counters.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		OperationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "operations_total",
				Help:      "Total number of domain operations by outcome (ok or error kind)",
			},
			[]string{"operation", "outcome"},
		),
		OperationDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "operation_duration_seconds",
				Help:      "Duration of domain operations in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		PolicyDenials: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "policy_denials_total",
				Help:      "Total number of access policy denials",
			},
			[]string{"entity", "operation"},
		),
		Notifications: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "notifications_total",
				Help:      "Total number of notifications created",
			},
			[]string{"type"},
		),
		Deliveries: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "deliveries_total",
				Help:      "Total number of notification delivery attempts by outcome",
			},
			[]string{"outcome"},
		),
	}
}

// ObserveOperation records one finished operation.
func (m *Metrics) ObserveOperation(operation, outcome string, elapsed time.Duration) {
	m.OperationsTotal.WithLabelValues(operation, outcome).Inc()
	m.OperationDuration.WithLabelValues(operation).Observe(elapsed.Seconds())
}

// PolicyDenied records one denial.
func (m *Metrics) PolicyDenied(entity, operation string) {
	m.PolicyDenials.WithLabelValues(entity, operation).Inc()
}

// NotificationCreated records one committed notification.
func (m *Metrics) NotificationCreated(notificationType string) {
	m.Notifications.WithLabelValues(notificationType).Inc()
}

// DeliveryAttempted records one delivery attempt.
func (m *Metrics) DeliveryAttempted(outcome string) {
	m.Deliveries.WithLabelValues(outcome).Inc()
}
