// Package monitoring exposes Prometheus metrics for the HTTP layer and for
// question bank writes.
package monitoring

import (
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RequestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "qbank_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "qbank_http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5},
		},
		[]string{"method", "endpoint"},
	)

	QuestionOperations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "qbank_question_operations_total",
			Help: "Question bank operations by bank kind and outcome",
		},
		[]string{"operation", "bank", "outcome"},
	)

	ImportedRows = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "qbank_import_rows_total",
			Help: "Rows read from uploaded workbooks",
		},
		[]string{"bank", "outcome"},
	)
)

var registerOnce sync.Once

// Init registers the collectors with the default registry. Safe to call more than once.
func Init() {
	registerOnce.Do(func() {
		prometheus.MustRegister(RequestCounter, RequestDuration, QuestionOperations, ImportedRows)
	})
}

// RecordQuestionOperation counts one question bank call. outcome is "ok" or
// the HTTP status the call failed with.
func RecordQuestionOperation(operation, bank string, status int) {
	outcome := "ok"
	if status >= 400 {
		outcome = strconv.Itoa(status)
	}
	QuestionOperations.WithLabelValues(operation, bank, outcome).Inc()
}

func RecordImport(bank string, succeeded, failed int) {
	ImportedRows.WithLabelValues(bank, "created").Add(float64(succeeded))
	ImportedRows.WithLabelValues(bank, "rejected").Add(float64(failed))
}

func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		endpoint := c.FullPath()
		if endpoint == "" {
			endpoint = "unmatched"
		}

		RequestCounter.WithLabelValues(
			c.Request.Method,
			endpoint,
			strconv.Itoa(c.Writer.Status()),
		).Inc()

		RequestDuration.WithLabelValues(
			c.Request.Method,
			endpoint,
		).Observe(time.Since(start).Seconds())
	}
}

func PrometheusHandler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}
