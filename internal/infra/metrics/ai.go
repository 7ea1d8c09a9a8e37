package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func init() {
	register(
		aiTokensIn,
		aiTokensOut,
		aiCallsLatencyMs,
		aiCallsInFlight,
		aiLimiterWaitMs,
	)
}

var (
	aiTokensIn = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ai_tokens_in",
			Help: "Sum of prompt (input) tokens per provider/model.",
		},
		[]string{"provider", "model"},
	)

	aiTokensOut = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ai_tokens_out",
			Help: "Sum of completion (output) tokens per provider/model.",
		},
		[]string{"provider", "model"},
	)

	aiCallsLatencyMs = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ai_calls_latency_ms",
			Help:    "Classification call latency distribution in milliseconds.",
			Buckets: []float64{100, 250, 500, 1000, 2000, 4000, 8000, 15000, 30000, 60000},
		},
		[]string{"provider", "model", "success"},
	)

	aiCallsInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "ai_calls_in_flight",
			Help: "Classification calls currently holding a limiter slot.",
		},
	)

	aiLimiterWaitMs = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "ai_limiter_wait_ms",
			Help:    "Time spent waiting for a limiter slot in milliseconds.",
			Buckets: []float64{1, 10, 50, 100, 500, 1000, 5000, 15000},
		},
	)
)

func ObserveAICall(provider, model string, tokensIn, tokensOut int, latency time.Duration, success bool) {
	lbl := []string{norm(provider), norm(model)}
	aiTokensIn.WithLabelValues(lbl...).Add(float64(tokensIn))
	aiTokensOut.WithLabelValues(lbl...).Add(float64(tokensOut))
	aiCallsLatencyMs.WithLabelValues(norm(provider), norm(model), boolLabel(success)).
		Observe(float64(latency.Milliseconds()))
}

func AICallStarted()  { aiCallsInFlight.Inc() }
func AICallFinished() { aiCallsInFlight.Dec() }

func ObserveLimiterWait(d time.Duration) {
	aiLimiterWaitMs.Observe(float64(d.Milliseconds()))
}
