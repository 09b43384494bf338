package metrics

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bizdocs_http_requests_total",
		Help: "HTTP requests by method, route and status.",
	}, []string{"method", "path", "status"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "bizdocs_http_request_duration_seconds",
		Help:    "HTTP request latency by method and route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path"})

	CollectionFetchesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bizdocs_collection_fetches_total",
		Help: "Page fetches against remote collections by result.",
	}, []string{"collection", "result"})

	CollectionFetchDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "bizdocs_collection_fetch_duration_seconds",
		Help:    "Latency of page fetches against remote collections.",
		Buckets: prometheus.DefBuckets,
	}, []string{"collection"})

	DocumentsCreatedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bizdocs_documents_created_total",
		Help: "Documents written by type.",
	}, []string{"type"})
)

// FetchObserver records collection page fetches.
type FetchObserver struct{}

func (FetchObserver) ObserveFetch(collection string, elapsed time.Duration, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	CollectionFetchesTotal.WithLabelValues(collection, result).Inc()
	CollectionFetchDuration.WithLabelValues(collection).Observe(elapsed.Seconds())
}

// Middleware counts requests by route pattern, not raw path.
func Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		if err != nil {
			if fe, ok := err.(*fiber.Error); ok {
				status = fe.Code
			} else {
				status = fiber.StatusInternalServerError
			}
		}
		path := c.Route().Path
		HTTPRequestsTotal.WithLabelValues(c.Method(), path, strconv.Itoa(status)).Inc()
		HTTPRequestDuration.WithLabelValues(c.Method(), path).Observe(time.Since(start).Seconds())
		return err
	}
}

// Handler exposes the default registry.
func Handler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.Handler())
}
