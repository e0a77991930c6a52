package sensor_simulator

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/LeonardoBeccarini/iotmonitor/internal/metrics"
	"github.com/LeonardoBeccarini/iotmonitor/internal/model/entities"
	"github.com/LeonardoBeccarini/iotmonitor/internal/model/messages"
	"github.com/LeonardoBeccarini/iotmonitor/internal/task"
	"github.com/LeonardoBeccarini/iotmonitor/pkg/observer"
)

// Reader è il task di lettura di un sensore: ad ogni ciclo genera un valore,
// lo pubblica ai subscriber e attende il proprio intervallo.
type Reader struct {
	*observer.Publisher[messages.ReadingEvent]

	id       int
	profile  Profile
	strategy Strategy
	runner   *task.Runner
	logger   *slog.Logger
	metrics  *metrics.Metrics

	published atomic.Uint64
	mu        sync.Mutex
	last      messages.ReadingEvent
	hasLast   bool
}

type ReaderOption func(*Reader)

func WithStrategy(s Strategy) ReaderOption {
	return func(r *Reader) {
		if s != nil {
			r.strategy = s
		}
	}
}

func WithReaderLogger(l *slog.Logger) ReaderOption {
	return func(r *Reader) {
		if l != nil {
			r.logger = l
		}
	}
}

func WithReaderMetrics(m *metrics.Metrics) ReaderOption {
	return func(r *Reader) { r.metrics = m }
}

func NewReader(id int, profile Profile, opts ...ReaderOption) *Reader {
	name := fmt.Sprintf("%sReader-%d", profile.Type, id)
	r := &Reader{
		id:       id,
		profile:  profile,
		strategy: NewUniformStrategy(0),
		runner:   task.New(name),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = r.logger.With("task", name)
	r.Publisher = observer.NewPublisher[messages.ReadingEvent](name,
		observer.WithLogger(r.logger),
		observer.WithPanicHook(r.metrics.SubscriberPanic),
	)
	return r
}

func (r *Reader) ID() int                   { return r.id }
func (r *Reader) Name() string              { return r.runner.Name() }
func (r *Reader) Type() entities.SensorType { return r.profile.Type }
func (r *Reader) Profile() Profile          { return r.profile }
func (r *Reader) State() task.State         { return r.runner.State() }
func (r *Reader) Published() uint64         { return r.published.Load() }

// LastEvent ritorna l'ultima lettura pubblicata, se esiste.
func (r *Reader) LastEvent() (messages.ReadingEvent, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.last, r.hasLast
}

func (r *Reader) Start(ctx context.Context) error {
	if err := r.runner.Start(ctx, r.run); err != nil {
		return err
	}
	r.logger.Info("sensor: reader started", "interval", r.profile.Interval,
		"min", r.profile.Min, "max", r.profile.Max)
	return nil
}

func (r *Reader) Stop() { r.runner.Stop() }

func (r *Reader) Join(timeout time.Duration) error { return r.runner.Join(timeout) }

// run pubblica subito la prima lettura, poi una per intervallo.
func (r *Reader) run(ctx context.Context, stop <-chan struct{}) {
	defer func() { r.logger.Info("sensor: reader stopped", "published", r.Published()) }()
	for {
		if task.Interrupted(ctx, stop) {
			return
		}
		if err := task.Guard(r.logger, r.Name(), r.readOnce); err != nil {
			r.metrics.CycleError(r.Name())
		}
		if !task.Wait(ctx, stop, r.profile.Interval) {
			return
		}
	}
}

func (r *Reader) readOnce() error {
	v := r.profile.Normalize(r.strategy.Next(r.profile))
	ev := messages.NewReadingEvent(r.profile.Type, v, r.id)

	r.mu.Lock()
	r.last, r.hasLast = ev, true
	r.mu.Unlock()
	r.published.Add(1)
	r.metrics.ObserveReading(ev)

	n := r.Publish(ev)
	r.logger.Debug("sensor: pub", "value", ev.Value, "unit", ev.Unit, "delivered", n)
	return nil
}
