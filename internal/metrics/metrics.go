// Package metrics exposes the settlement counters to Prometheus.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ArowuTest/daily-lotto-settlement/internal/models"
)

const namespace = "daily_lotto"

var (
	// Registry holds the application-specific Prometheus collectors.
	Registry = prometheus.NewRegistry()

	ticketsSold = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "tickets",
			Name:      "sold_total",
			Help:      "Tickets sold, by payment method.",
		},
		[]string{"payment"},
	)

	upkeeps = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scheduler",
			Name:      "upkeeps_total",
			Help:      "Upkeep calls, by outcome.",
		},
		[]string{"outcome"},
	)

	randomnessFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scheduler",
			Name:      "randomness_request_failures_total",
			Help:      "Randomness requests rejected by the coordinator.",
		},
	)

	drawsFulfilled = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "draws",
			Name:      "fulfilled_total",
			Help:      "Game-days whose winning numbers were drawn.",
		},
	)

	distributions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "draws",
			Name:      "distributions_total",
			Help:      "Distribution attempts, by success.",
		},
		[]string{"success"},
	)

	prizesClaimed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "prizes",
			Name:      "claimed_total",
			Help:      "Prizes claimed, by tier.",
		},
		[]string{"tier"},
	)

	mainPool = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "pools",
			Name:      "main_balance",
			Help:      "Main pool balance in token units.",
		},
		[]string{"tier"},
	)

	reservePool = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "pools",
			Name:      "reserve_balance",
			Help:      "Reserve balance in token units.",
		},
		[]string{"tier"},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "path", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10),
		},
		[]string{"method", "path"},
	)
)

func init() {
	Registry.MustRegister(
		ticketsSold,
		upkeeps,
		randomnessFailures,
		drawsFulfilled,
		distributions,
		prizesClaimed,
		mainPool,
		reservePool,
		httpRequests,
		httpDuration,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
}

// Handler returns an HTTP handler exposing the registered Prometheus metrics.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// GinMiddleware records request counts and latency by route template.
func GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		httpRequests.WithLabelValues(c.Request.Method, path, strconv.Itoa(c.Writer.Status())).Inc()
		httpDuration.WithLabelValues(c.Request.Method, path).Observe(time.Since(start).Seconds())
	}
}

func TicketSold(withCredit bool) {
	payment := "token"
	if withCredit {
		payment = "credit"
	}
	ticketsSold.WithLabelValues(payment).Inc()
}

// UpkeepOutcome is one of "performed", "not_needed" or "failed".
func UpkeepOutcome(outcome string) {
	upkeeps.WithLabelValues(outcome).Inc()
}

func RandomnessRequestFailed() {
	randomnessFailures.Inc()
}

func DrawFulfilled() {
	drawsFulfilled.Inc()
}

func Distribution(success bool) {
	distributions.WithLabelValues(strconv.FormatBool(success)).Inc()
}

func PrizeClaimed(tier models.Tier) {
	prizesClaimed.WithLabelValues(string(tier)).Inc()
}

// ObserveBalances publishes the pool gauges.
func ObserveBalances(b *models.Balances) {
	for _, t := range models.MonetaryTiers {
		mainPool.WithLabelValues(string(t)).Set(float64(b.MainPools.Pool(t)))
		reservePool.WithLabelValues(string(t)).Set(float64(b.Reserves.Reserve(t)))
	}
	mainPool.WithLabelValues("DEVELOPMENT").Set(float64(b.MainPools.Development))
}
