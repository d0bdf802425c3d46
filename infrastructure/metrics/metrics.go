// Package metrics collects store telemetry into a Prometheus registry.
//
// A nil *Collector is valid and records nothing, so stores opened without
// metrics need no special casing.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const defaultNamespace = "kvstore"

// Operation result labels
const (
	resultOK    = "ok"
	resultError = "error"
)

// Collector holds the store metrics and the registry they are
// registered in.
type Collector struct {
	registry *prometheus.Registry

	operations        *prometheus.CounterVec
	operationLatency  *prometheus.HistogramVec
	openResultSets    *prometheus.GaugeVec
	notifications     *prometheus.CounterVec
	droppedNotices    *prometheus.CounterVec
	openStores        prometheus.Gauge
	transactionResult *prometheus.CounterVec
}

// NewCollector creates a collector with its own registry. An empty
// namespace defaults to "kvstore".
func NewCollector(namespace string) *Collector {
	if namespace == "" {
		namespace = defaultNamespace
	}

	c := &Collector{
		registry: prometheus.NewRegistry(),
	}

	c.operations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "operations_total",
			Help:      "Total number of store operations",
		},
		[]string{"store", "operation", "result"},
	)

	c.operationLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "operation_duration_seconds",
			Help:      "Time taken by store operations",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 2, 14), // 100us to ~1.6s
		},
		[]string{"operation"},
	)

	c.openResultSets = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "open_result_sets",
			Help:      "Current number of open result sets",
		},
		[]string{"store"},
	)

	c.notifications = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "observer",
			Name:      "notifications_total",
			Help:      "Total number of change notifications delivered to observers",
		},
		[]string{"store"},
	)

	c.droppedNotices = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "observer",
			Name:      "dropped_notifications_total",
			Help:      "Total number of change notifications dropped because the observer was removed",
		},
		[]string{"store"},
	)

	c.openStores = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "manager",
			Name:      "open_stores",
			Help:      "Current number of open stores",
		},
	)

	c.transactionResult = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "transactions_total",
			Help:      "Total number of explicit transactions by outcome",
		},
		[]string{"store", "outcome"},
	)

	c.registry.MustRegister(
		c.operations,
		c.operationLatency,
		c.openResultSets,
		c.notifications,
		c.droppedNotices,
		c.openStores,
		c.transactionResult,
	)

	return c
}

// Registry returns the registry the metrics are registered in, e.g. to
// serve it with promhttp.
func (c *Collector) Registry() *prometheus.Registry {
	if c == nil {
		return nil
	}
	return c.registry
}

// RecordOperation records one store operation and its duration.
func (c *Collector) RecordOperation(store, operation string, duration time.Duration, err error) {
	if c == nil {
		return
	}
	result := resultOK
	if err != nil {
		result = resultError
	}
	c.operations.WithLabelValues(store, operation, result).Inc()
	c.operationLatency.WithLabelValues(operation).Observe(duration.Seconds())
}

// SetOpenResultSets records how many result sets store has open.
func (c *Collector) SetOpenResultSets(store string, count int) {
	if c == nil {
		return
	}
	c.openResultSets.WithLabelValues(store).Set(float64(count))
}

// RecordNotification records a notification delivered to an observer.
func (c *Collector) RecordNotification(store string) {
	if c == nil {
		return
	}
	c.notifications.WithLabelValues(store).Inc()
}

// RecordDroppedNotification records a notification that was queued for an
// observer removed before delivery.
func (c *Collector) RecordDroppedNotification(store string) {
	if c == nil {
		return
	}
	c.droppedNotices.WithLabelValues(store).Inc()
}

// RecordTransaction records the outcome of an explicit transaction:
// "commit" or "rollback".
func (c *Collector) RecordTransaction(store, outcome string) {
	if c == nil {
		return
	}
	c.transactionResult.WithLabelValues(store, outcome).Inc()
}

// SetOpenStores records how many stores a manager has open.
func (c *Collector) SetOpenStores(count int) {
	if c == nil {
		return
	}
	c.openStores.Set(float64(count))
}
