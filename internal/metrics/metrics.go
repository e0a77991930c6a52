package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/LeonardoBeccarini/iotmonitor/internal/model/messages"
)

const namespace = "iotmonitor"

// Metrics raccoglie i collector del monitor. Tutti i metodi accettano un
// receiver nil, così i componenti funzionano anche senza metriche.
type Metrics struct {
	readingsPublished *prometheus.CounterVec
	lastReading       *prometheus.GaugeVec
	subscriberPanics  *prometheus.CounterVec
	controlCycles     prometheus.Counter
	cycleErrors       *prometheus.CounterVec
	controlActions    *prometheus.CounterVec
	recorderWritten   *prometheus.CounterVec
	recorderDropped   *prometheus.CounterVec
	recorderFailed    *prometheus.CounterVec
	breakerState      *prometheus.GaugeVec
	shutdownTimeouts  *prometheus.CounterVec
	snapshotSaves     *prometheus.CounterVec
}

// New crea i collector e li registra su reg (nil = nessuna registrazione).
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		readingsPublished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "readings_published_total",
			Help:      "Readings published by sensor readers, by sensor type.",
		}, []string{"sensor_type"}),
		lastReading: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_reading_value",
			Help:      "Last value published per sensor.",
		}, []string{"sensor_type", "sensor_id"}),
		subscriberPanics: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "subscriber_panics_total",
			Help:      "Subscriber callbacks that panicked, by publisher.",
		}, []string{"publisher"}),
		controlCycles: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "control_cycles_total",
			Help:      "Completed environmental controller evaluation cycles.",
		}),
		cycleErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cycle_errors_total",
			Help:      "Task cycles that failed and were skipped, by task.",
		}, []string{"task"}),
		controlActions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "control_actions_total",
			Help:      "Control actions decided by the controller, by action.",
		}, []string{"action"}),
		recorderWritten: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "recorder_written_total",
			Help:      "Records written to history sinks.",
		}, []string{"sink"}),
		recorderDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "recorder_dropped_total",
			Help:      "Records dropped before reaching a sink, by sink and reason.",
		}, []string{"sink", "reason"}),
		recorderFailed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "recorder_failed_total",
			Help:      "Sink writes that returned an error.",
		}, []string{"sink"}),
		breakerState: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "cb_state",
			Help:      "Circuit breaker state gauge (0 closed, 1 half, 2 open).",
		}, []string{"target"}),
		shutdownTimeouts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "shutdown_timeouts_total",
			Help:      "Tasks that did not stop within the join timeout.",
		}, []string{"task"}),
		snapshotSaves: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "snapshot_saves_total",
			Help:      "Network state snapshot saves, by result.",
		}, []string{"result"}),
	}

	if reg != nil {
		reg.MustRegister(
			m.readingsPublished,
			m.lastReading,
			m.subscriberPanics,
			m.controlCycles,
			m.cycleErrors,
			m.controlActions,
			m.recorderWritten,
			m.recorderDropped,
			m.recorderFailed,
			m.breakerState,
			m.shutdownTimeouts,
			m.snapshotSaves,
		)
	}
	return m
}

func (m *Metrics) ObserveReading(ev messages.ReadingEvent) {
	if m == nil {
		return
	}
	m.readingsPublished.WithLabelValues(ev.SensorType.String()).Inc()
	m.lastReading.WithLabelValues(ev.SensorType.String(), strconv.Itoa(ev.SensorID)).Set(ev.Value)
}

func (m *Metrics) SubscriberPanic(publisher string, _ any) {
	if m == nil {
		return
	}
	m.subscriberPanics.WithLabelValues(publisher).Inc()
}

func (m *Metrics) ControlCycle() {
	if m == nil {
		return
	}
	m.controlCycles.Inc()
}

func (m *Metrics) CycleError(task string) {
	if m == nil {
		return
	}
	m.cycleErrors.WithLabelValues(task).Inc()
}

func (m *Metrics) ControlAction(action string) {
	if m == nil {
		return
	}
	m.controlActions.WithLabelValues(action).Inc()
}

func (m *Metrics) RecordWritten(sink string) {
	if m == nil {
		return
	}
	m.recorderWritten.WithLabelValues(sink).Inc()
}

func (m *Metrics) RecordDropped(sink, reason string) {
	if m == nil {
		return
	}
	m.recorderDropped.WithLabelValues(sink, reason).Inc()
}

func (m *Metrics) RecordFailed(sink string) {
	if m == nil {
		return
	}
	m.recorderFailed.WithLabelValues(sink).Inc()
}

// BreakerState: 0 closed, 1 half-open, 2 open.
func (m *Metrics) BreakerState(target string, state int) {
	if m == nil {
		return
	}
	m.breakerState.WithLabelValues(target).Set(float64(state))
}

func (m *Metrics) ShutdownTimeout(task string) {
	if m == nil {
		return
	}
	m.shutdownTimeouts.WithLabelValues(task).Inc()
}

func (m *Metrics) SnapshotSave(ok bool) {
	if m == nil {
		return
	}
	result := "ok"
	if !ok {
		result = "error"
	}
	m.snapshotSaves.WithLabelValues(result).Inc()
}
