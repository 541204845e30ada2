package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	registry = prometheus.DefaultRegisterer

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests by path/method/code.",
		},
		[]string{"path", "method", "code"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests by path/method/code.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"path", "method", "code"},
	)

	ledgerOps = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sesh_ledger_ops_total",
			Help: "Ledger operations by op and result.",
		},
		[]string{"op", "result"},
	)

	gamesCompleted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sesh_games_completed_total",
			Help: "Completed games by how they ended.",
		},
		[]string{"reason"},
	)

	reconciliations = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "sesh_reconciliations_total",
			Help: "Games whose cached score was repaired from the ledger.",
		},
	)

	streamSubscribers = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "sesh_stream_subscribers",
			Help: "Open change stream subscriptions.",
		},
	)

	webhookDeliveries = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sesh_webhook_deliveries_total",
			Help: "Recap webhook deliveries by result.",
		},
		[]string{"result"},
	)
)

const (
	ReasonTarget = "target"
	ReasonForced = "forced"
	ReasonDraw   = "draw"
)

func GinMiddleware(c *gin.Context) {
	start := time.Now()
	c.Next()
	code := strconv.Itoa(c.Writer.Status())
	path := c.FullPath()

	// unmatched routes have no template
	if path == "" {
		path = "unmatched"
	}

	if path == "/metrics" {
		return
	}

	method := c.Request.Method

	httpRequests.WithLabelValues(path, method, code).Inc()
	httpDuration.WithLabelValues(path, method, code).Observe(time.Since(start).Seconds())
}

func Handler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}

func ObserveLedgerOp(op string, err error) {
	ledgerOps.WithLabelValues(op, result(err)).Inc()
}

func GameCompleted(reason string) {
	gamesCompleted.WithLabelValues(reason).Inc()
}

func Reconciled(n int) {
	reconciliations.Add(float64(n))
}

func AddSubscribers(delta float64) {
	streamSubscribers.Add(delta)
}

func ObserveWebhook(err error) {
	webhookDeliveries.WithLabelValues(result(err)).Inc()
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

func init() {
	collectors := []prometheus.Collector{
		httpRequests,
		httpDuration,
		ledgerOps,
		gamesCompleted,
		reconciliations,
		streamSubscribers,
		webhookDeliveries,
	}

	for _, c := range collectors {
		_ = registry.Register(c)
	}
}
