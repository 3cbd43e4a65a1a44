// Package metrics holds the prometheus collectors of the service.
package metrics

import (
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "printshop"

var (
	once sync.Once

	// RequestsTotal counts handled HTTP requests by route and status.
	RequestsTotal *prometheus.CounterVec
	// RequestDuration records request latency in milliseconds.
	RequestDuration *prometheus.HistogramVec
	// PaymentsTotal counts payment attempts by result.
	PaymentsTotal *prometheus.CounterVec
	// PaymentAmount sums accepted payment amounts in IDR.
	PaymentAmount prometheus.Counter
	// ReceiptsTotal counts receipt deliveries by result.
	ReceiptsTotal *prometheus.CounterVec
	// ReportCacheTotal counts report cache lookups by result (hit, miss, error).
	ReportCacheTotal *prometheus.CounterVec
)

// MustRegister creates the collectors and registers them once. A nil registerer means the default one.
func MustRegister(reg prometheus.Registerer) {
	once.Do(func() {
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		RequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests handled by the server.",
		}, []string{"method", "route", "status"})
		RequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_ms",
			Help:      "HTTP request latency distribution in milliseconds.",
			Buckets:   []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500},
		}, []string{"method", "route"})
		PaymentsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "payments_total",
			Help:      "Count of payment postings by outcome.",
		}, []string{"result"})
		PaymentAmount = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "payment_amount_idr_total",
			Help:      "Sum of accepted payment amounts.",
		})
		ReceiptsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "receipts_total",
			Help:      "Count of receipt deliveries by outcome.",
		}, []string{"result"})
		ReportCacheTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "report_cache_total",
			Help:      "Count of report cache lookups by outcome.",
		}, []string{"result"})

		for _, c := range []prometheus.Collector{RequestsTotal, RequestDuration, PaymentsTotal, PaymentAmount, ReceiptsTotal, ReportCacheTotal} {
			if err := reg.Register(c); err != nil {
				if _, ok := err.(prometheus.AlreadyRegisteredError); ok {
					continue
				}
				panic(fmt.Errorf("register metric: %w", err))
			}
		}
	})
}

// Handler exposes the default gatherer.
func Handler() http.Handler {
	return promhttp.Handler()
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Mdlw counts the request and its latency under the route pattern.
func Mdlw(route string, h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		h.ServeHTTP(rec, r)
		if RequestsTotal == nil {
			return
		}
		RequestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(rec.status)).Inc()
		RequestDuration.WithLabelValues(r.Method, route).Observe(float64(time.Since(start)) / float64(time.Millisecond))
	}
}

// Inc increments a labelled counter when metrics are registered.
func Inc(vec *prometheus.CounterVec, result string) {
	if vec != nil {
		vec.WithLabelValues(result).Inc()
	}
}
