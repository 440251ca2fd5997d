package netmon

import (
	"context"
	"log/slog"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/yumvipay/sendcore-backend/internal/notify"
)

var (
	queuedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "sendcore",
		Subsystem: "netmon",
		Name:      "queued_tasks_total",
		Help:      "Tasks deferred until connectivity resumes.",
	})
	flushedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "sendcore",
		Subsystem: "netmon",
		Name:      "flushed_tasks_total",
		Help:      "Deferred tasks executed on flush.",
	})
	flushFailures = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "sendcore",
		Subsystem: "netmon",
		Name:      "flush_failures_total",
		Help:      "Deferred tasks that returned an error when flushed.",
	})
	queueDepth = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "sendcore",
		Subsystem: "netmon",
		Name:      "queue_depth",
		Help:      "Tasks currently waiting for connectivity.",
	})
)

// Task is a deferred unit of work executed when connectivity resumes.
type Task func(ctx context.Context) error

// Monitor tracks the last observed connectivity state and holds an ordered
// queue of tasks deferred until the connection comes back.
//
// The monitor is reactive: it does not poll. The integrating layer forwards
// platform connectivity events into SetOnline/SetOffline and calls Flush on
// the offline-to-online transition.
//
// Delivery is at-most-once and best-effort: tasks are not deduplicated, not
// persisted across restarts, and not retried. A task that fails when
// flushed is reported and dropped.
type Monitor struct {
	notifier notify.Notifier
	logger   *slog.Logger

	mu     sync.Mutex
	online bool
	queue  []Task
}

// New creates a Monitor that starts in the online state.
func New(notifier notify.Notifier, logger *slog.Logger) *Monitor {
	return &Monitor{
		notifier: notifier,
		logger:   logger,
		online:   true,
	}
}

// SetOnline records an observed transition to connectivity.
// Returns true if this was an offline-to-online transition, in which case
// the caller should follow up with Flush.
func (m *Monitor) SetOnline() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	changed := !m.online
	m.online = true
	if changed {
		m.logger.Info("connectivity restored", "queued", len(m.queue))
	}
	return changed
}

// SetOffline records an observed loss of connectivity.
func (m *Monitor) SetOffline() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.online {
		m.logger.Warn("connectivity lost")
	}
	m.online = false
}

// IsOnline reflects the last observed connectivity event.
func (m *Monitor) IsOnline() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.online
}

// IsOffline reflects the last observed connectivity event.
func (m *Monitor) IsOffline() bool {
	return !m.IsOnline()
}

// Enqueue appends a task to run when connectivity resumes. Order of
// enqueueing is preserved through the flush.
func (m *Monitor) Enqueue(task Task) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queue = append(m.queue, task)
	queuedTotal.Inc()
	queueDepth.Set(float64(len(m.queue)))
}

// QueueLen returns the number of tasks currently deferred.
func (m *Monitor) QueueLen() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.queue)
}

// FlushResult summarizes one flush attempt
type FlushResult struct {
	Executed int
	Failed   int
}

// Flush drains the queue in FIFO order, awaiting each task sequentially so
// implicit ordering dependencies between queued writes are preserved. The
// queue is cleared unconditionally before execution begins: a failing task
// is counted, reported through the notifier, and dropped, never re-queued.
func (m *Monitor) Flush(ctx context.Context) FlushResult {
	m.mu.Lock()
	pending := m.queue
	m.queue = nil
	queueDepth.Set(0)
	m.mu.Unlock()

	result := FlushResult{}
	for _, task := range pending {
		result.Executed++
		flushedTotal.Inc()
		if err := task(ctx); err != nil {
			result.Failed++
			flushFailures.Inc()
			m.logger.Error("deferred task failed", "err", err)
			m.notifier.Notify(notify.KindError, "Sync issue",
				"A queued operation could not be completed after reconnecting")
		}
	}

	if result.Executed > 0 {
		m.logger.Info("flushed deferred tasks",
			"executed", result.Executed, "failed", result.Failed)
	}
	return result
}
