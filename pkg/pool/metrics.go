package pool

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// poolMetrics holds the Prometheus instrumentation for one pool instance.
type poolMetrics struct {
	tasksSubmitted prometheus.Counter
	tasksCompleted prometheus.Counter
	tasksFailed    prometheus.Counter
	tasksCancelled prometheus.Counter
	taskDuration   prometheus.Histogram
	queueDepth     prometheus.GaugeFunc
	activeWorkers  prometheus.GaugeFunc
}

// newPoolMetrics registers the pool metrics against registerer. A nil
// registerer gets a private registry so instrumentation stays a no-op cost
// for callers that do not scrape.
func newPoolMetrics(registerer prometheus.Registerer, queueDepth, activeWorkers func() float64) *poolMetrics {
	if registerer == nil {
		registerer = prometheus.NewRegistry()
	}

	return &poolMetrics{
		tasksSubmitted: promauto.With(registerer).NewCounter(prometheus.CounterOpts{
			Name: "poolkit_tasks_submitted_total",
			Help: "Total number of accepted task submissions",
		}),
		tasksCompleted: promauto.With(registerer).NewCounter(prometheus.CounterOpts{
			Name: "poolkit_tasks_completed_total",
			Help: "Total number of tasks that finished successfully",
		}),
		tasksFailed: promauto.With(registerer).NewCounter(prometheus.CounterOpts{
			Name: "poolkit_tasks_failed_total",
			Help: "Total number of tasks that returned an error or panicked",
		}),
		tasksCancelled: promauto.With(registerer).NewCounter(prometheus.CounterOpts{
			Name: "poolkit_tasks_cancelled_total",
			Help: "Total number of tasks resolved as cancelled",
		}),
		taskDuration: promauto.With(registerer).NewHistogram(prometheus.HistogramOpts{
			Name:    "poolkit_task_duration_seconds",
			Help:    "Task execution duration in seconds",
			Buckets: prometheus.DefBuckets,
		}),
		queueDepth: promauto.With(registerer).NewGaugeFunc(prometheus.GaugeOpts{
			Name: "poolkit_queue_depth",
			Help: "Current number of queued tasks",
		}, queueDepth),
		activeWorkers: promauto.With(registerer).NewGaugeFunc(prometheus.GaugeOpts{
			Name: "poolkit_active_workers",
			Help: "Number of workers currently executing a task",
		}, activeWorkers),
	}
}
