package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() { register(enqueueTotal, queueDepth, workerSlots) }

var (
	enqueueTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "classification_enqueue_total",
			Help: "Broker submissions, labeled by result.",
		},
		[]string{"result"}, // ok, error
	)

	queueDepth = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "classification_queue_depth",
			Help: "Jobs in the classification queue, by state.",
		},
		[]string{"state"}, // waiting, delayed, active
	)

	workerSlots = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "classification_worker_slots",
			Help: "Worker pool slots, by state.",
		},
		[]string{"state"}, // busy, total
	)
)

func IncEnqueue(ok bool) {
	if ok {
		enqueueTotal.WithLabelValues("ok").Inc()
		return
	}
	enqueueTotal.WithLabelValues("error").Inc()
}

func SetQueueDepth(waiting, delayed, active int64) {
	queueDepth.WithLabelValues("waiting").Set(float64(waiting))
	queueDepth.WithLabelValues("delayed").Set(float64(delayed))
	queueDepth.WithLabelValues("active").Set(float64(active))
}

func SetWorkerSlots(busy int64, total int) {
	workerSlots.WithLabelValues("busy").Set(float64(busy))
	workerSlots.WithLabelValues("total").Set(float64(total))
}
