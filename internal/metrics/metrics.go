// metrics объявляет Prometheus-метрики auth-core. Все векторы регистрируются
// в глобальном реестре через promauto и отдаются хендлером promhttp на /metrics.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "authcore"

var (
	// AuthOperations — число вызовов операций оркестратора по результату.
	AuthOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "operations_total",
			Help:      "Total number of authentication operations by result kind",
		},
		[]string{"op", "result"},
	)

	// AuthOperationDuration — длительность операций оркестратора.
	AuthOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "operation_duration_seconds",
			Help:      "Authentication operation duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"op"},
	)

	// HashDuration — время bcrypt-операций (без ожидания слота в пуле).
	HashDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "password_hash_duration_seconds",
			Help:      "Password hashing/verification duration in seconds",
			Buckets:   []float64{.01, .025, .05, .1, .25, .5, 1, 2.5},
		},
		[]string{"op"},
	)

	// HashPoolInFlight — занятые слоты пула хэширования.
	HashPoolInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "password_hash_in_flight",
			Help:      "Number of password hashing jobs currently running",
		},
	)

	// RevocationsPurged — удалённые janitor-ом просроченные записи отзыва.
	RevocationsPurged = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "revocations_purged_total",
			Help:      "Total number of expired revocation records purged",
		},
	)

	// HTTPRequests — запросы к HTTP-границе.
	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	// HTTPRequestDuration — длительность HTTP-запросов.
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
)

// ObserveOperation фиксирует результат и длительность операции op.
// result — код вида ошибки ("ok" при успехе).
func ObserveOperation(op, result string, started time.Time) {
	AuthOperations.WithLabelValues(op, result).Inc()
	AuthOperationDuration.WithLabelValues(op).Observe(time.Since(started).Seconds())
}
