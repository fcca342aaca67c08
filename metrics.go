package books

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics counts the engine operations.
type Metrics struct {
	operations *prometheus.CounterVec
	duration   *prometheus.HistogramVec
	backups    *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them to reg, if not nil.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		operations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "books",
				Name:      "operations_total",
				Help:      "Engine operations by outcome.",
			},
			[]string{"operation", "outcome"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "books",
				Name:      "operation_duration_seconds",
				Help:      "Engine operation latencies in seconds, commit included.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		backups: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "books",
				Name:      "autobackups_total",
				Help:      "Automatic backups by outcome.",
			},
			[]string{"outcome"},
		),
	}
	if reg != nil {
		reg.MustRegister(m.operations, m.duration, m.backups)
	}
	return m
}

// outcome names the class of err.
func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrValidation):
		return "invalid"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrStorage):
		return "storage"
	case errors.Is(err, ErrCrypto):
		return "crypto"
	default:
		return "error"
	}
}

func (m *Metrics) observe(op string, start time.Time, err error) {
	if m == nil {
		return
	}
	m.operations.WithLabelValues(op, outcome(err)).Inc()
	m.duration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}

func (m *Metrics) observeBackup(err error) {
	if m == nil {
		return
	}
	m.backups.WithLabelValues(outcome(err)).Inc()
}
