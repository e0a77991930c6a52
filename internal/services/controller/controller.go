package controller

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
	sensorsim "github.com/LeonardoBeccarini/iotmonitor/internal/sensor-simulator"
	"github.com/LeonardoBeccarini/iotmonitor/internal/task"
	"github.com/LeonardoBeccarini/iotmonitor/pkg/dedup"
	"github.com/LeonardoBeccarini/iotmonitor/pkg/observer"
)

const (
	DefaultInterval    = 2500 * time.Millisecond
	DefaultAlertWindow = 30 * time.Second
)

// SensorLookup risolve l'id di un sensore nel suo Reader.
type SensorLookup interface {
	Lookup(id int) (*sensorsim.Reader, bool)
}

// Controller mantiene l'ultimo stato ambientale noto e, su un timer indipendente
// dai sensori, decide le azioni di controllo per la zona.
type Controller struct {
	zone        *entities.Zone
	lookup      SensorLookup
	thresholds  Thresholds
	interval    time.Duration
	alertWindow time.Duration
	runner      *task.Runner
	logger      *slog.Logger
	metrics     *metrics.Metrics
	events      *observer.Publisher[messages.ZoneEvent]
	alerts      *dedup.Deduper

	mu      sync.Mutex
	state   Snapshot
	sources map[entities.SensorType]int // sensore che ha fornito l'ultimo valore

	cycles   atomic.Uint64
	absorbed atomic.Uint64
}

type Option func(*Controller)

func WithInterval(d time.Duration) Option {
	return func(c *Controller) {
		if d > 0 {
			c.interval = d
		}
	}
}

func WithThresholds(th Thresholds) Option {
	return func(c *Controller) { c.thresholds = th }
}

func WithAlertWindow(d time.Duration) Option {
	return func(c *Controller) {
		if d > 0 {
			c.alertWindow = d
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(c *Controller) {
		if l != nil {
			c.logger = l
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Controller) { c.metrics = m }
}

func New(zone *entities.Zone, lookup SensorLookup, opts ...Option) *Controller {
	name := fmt.Sprintf("EnvironmentalController-%d", zone.ID)
	c := &Controller{
		zone:        zone,
		lookup:      lookup,
		thresholds:  DefaultThresholds(),
		interval:    DefaultInterval,
		alertWindow: DefaultAlertWindow,
		runner:      task.New(name),
		logger:      slog.Default(),
		state:       DefaultSnapshot(),
		sources:     make(map[entities.SensorType]int),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With("task", name, "zone", zone.ID)
	c.alerts = dedup.New(c.alertWindow, 64)
	c.events = observer.NewPublisher[messages.ZoneEvent](name,
		observer.WithLogger(c.logger),
		observer.WithPanicHook(c.metrics.SubscriberPanic),
	)
	return c
}

func (c *Controller) Name() string                                    { return c.runner.Name() }
func (c *Controller) State() task.State                               { return c.runner.State() }
func (c *Controller) Zone() *entities.Zone                            { return c.zone }
func (c *Controller) Events() *observer.Publisher[messages.ZoneEvent] { return c.events }
func (c *Controller) Cycles() uint64                                  { return c.cycles.Load() }
func (c *Controller) Absorbed() uint64                                { return c.absorbed.Load() }
func (c *Controller) Interval() time.Duration                         { return c.interval }

// OnEvent registra la lettura nello slot del suo tipo (vince l'ultimo valore).
// Gira sulla goroutine del sensore: nessun I/O, solo il lock sullo stato.
func (c *Controller) OnEvent(ev messages.ReadingEvent) {
	c.mu.Lock()
	switch ev.SensorType {
	case entities.Temperature:
		c.state.Temperature = ev.Value
	case entities.Humidity:
		c.state.Humidity = ev.Value
	case entities.CO2:
		c.state.CO2 = ev.Value
	case entities.Light:
		c.state.Light = ev.Value
	default:
		c.mu.Unlock()
		c.logger.Debug("controller: ignoring reading of unknown type", "type", ev.SensorType)
		return
	}
	c.sources[ev.SensorType] = ev.SensorID
	c.mu.Unlock()
	c.absorbed.Add(1)
}

// Snapshot copia tutti gli slot sotto un'unica acquisizione del lock.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Controller) snapshotWithSources() (Snapshot, map[entities.SensorType]int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	src := make(map[entities.SensorType]int, len(c.sources))
	for k, v := range c.sources {
		src[k] = v
	}
	return c.state, src
}

// RunCycle esegue una valutazione completa e ritorna le azioni decise.
func (c *Controller) RunCycle() []Action {
	snap, sources := c.snapshotWithSources()
	actions := Evaluate(snap, c.thresholds)

	c.logger.Info("controller: state",
		"temperature", snap.Temperature, "humidity", snap.Humidity,
		"co2", snap.CO2, "light", snap.Light, "actions", len(actions))

	for _, a := range actions {
		dim := a.Dimension()
		value := snap.Value(dim)
		origin := c.Name()
		if id, ok := sources[dim]; ok {
			origin = c.sensorName(id)
		}
		c.logger.Info("controller: action", "action", string(a), "detail", a.Description(),
			"value", value, "source", origin)
		c.metrics.ControlAction(string(a))

		if c.alerts.ShouldProcess(string(a)) {
			c.zone.RegisterAlert()
		}
		c.events.Publish(messages.NewZoneEvent(string(a), origin, c.zone.ID, dim, value, a.Description()))
	}
	return actions
}

func (c *Controller) sensorName(id int) string {
	if c.lookup != nil {
		if r, ok := c.lookup.Lookup(id); ok {
			return r.Name()
		}
	}
	return fmt.Sprintf("sensor-%d", id)
}

func (c *Controller) Start(ctx context.Context) error {
	if err := c.runner.Start(ctx, c.run); err != nil {
		return err
	}
	c.logger.Info("controller: started", "interval", c.interval)
	return nil
}

func (c *Controller) Stop() { c.runner.Stop() }

func (c *Controller) Join(timeout time.Duration) error { return c.runner.Join(timeout) }

// run valuta subito, poi una volta per intervallo. Un ciclo fallito viene
// loggato e saltato, il successivo parte regolarmente.
func (c *Controller) run(ctx context.Context, stop <-chan struct{}) {
	defer func() { c.logger.Info("controller: stopped", "cycles", c.Cycles()) }()
	for {
		if task.Interrupted(ctx, stop) {
			return
		}
		err := task.Guard(c.logger, c.Name(), func() error {
			c.RunCycle()
			return nil
		})
		if err != nil {
			c.metrics.CycleError(c.Name())
		} else {
			c.cycles.Add(1)
			c.metrics.ControlCycle()
		}
		if !task.Wait(ctx, stop, c.interval) {
			return
		}
	}
}
